package trellis

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsOverlay draws FPS, TPS and hub counters in the top-left corner. The text
// is refreshed about every half second.
type fpsOverlay struct {
	img     *ebiten.Image
	elapsed float64
}

func newFPSOverlay() *fpsOverlay {
	// 140x48 fits three debug-font lines.
	return &fpsOverlay{img: ebiten.NewImage(140, 48), elapsed: 1}
}

func (o *fpsOverlay) update(dt float64, stats Stats) {
	o.elapsed += dt
	if o.elapsed < 0.5 {
		return
	}
	o.elapsed = 0

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nNodes: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), stats.Live))
}

func (o *fpsOverlay) draw(screen *ebiten.Image) {
	screen.DrawImage(o.img, nil)
}
