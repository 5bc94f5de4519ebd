package trellis

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"orbit", "orbit"},
		{"after-spawn", "after-spawn"},
		{"frame.01", "frame.01"},
		{"has spaces", "has_spaces"},
		{"path/to/thing", "path_to_thing"},
		{"special!@#", "special___"},
		{"", "unlabeled"},
		{"   ", "unlabeled"},
	}
	for _, tt := range tests {
		if got := sanitizeLabel(tt.in); got != tt.want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreenshotQueue(t *testing.T) {
	r := NewRenderer()
	assert.Equal(t, "screenshots", r.ScreenshotDir)
	r.Screenshot("a")
	r.Screenshot("b")
	assert.Equal(t, []string{"a", "b"}, r.screenshots)
}

func TestUnpremultiply(t *testing.T) {
	img := unpremultiply([]byte{
		255, 0, 0, 255,
		64, 32, 0, 128,
		0, 0, 0, 0,
	}, 3, 1)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{127, 63, 0, 128}, img.NRGBAAt(1, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(2, 0))
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{1, 2, 3, 255})
	require.NoError(t, writePNG(path, src))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := got.At(1, 1).RGBA()
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{r >> 8, g >> 8, b >> 8})

	assert.Error(t, writePNG(filepath.Join(t.TempDir(), "missing", "shot.png"), src))
}
