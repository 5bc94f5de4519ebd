package trellis

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// RunConfig configures Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Debug puts the Hub in debug mode.
	Debug   bool
	ShowFPS bool
	// ClearColor is used when the scene has no background.
	ClearColor Color
	LogLevel   slog.Level
	// OnUpdate is called once per tick with the tick length in seconds,
	// before the frame is drawn.
	OnUpdate func(dt float32) error
	// Renderer draws every frame. Nil means NewRenderer(); pass your own to
	// queue screenshots or read RenderStats.
	Renderer *Renderer
	// Script, when set, is advanced once per tick. A quit step ends Run
	// without error.
	Script *FrameScript
}

// DefaultRunConfig returns the settings Run uses for zero fields.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Title:      "trellis",
		Width:      640,
		Height:     480,
		ClearColor: ColorBlack,
		LogLevel:   slog.LevelInfo,
	}
}

type runConfigFile struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Debug      bool   `yaml:"debug"`
	ShowFPS    bool   `yaml:"show_fps"`
	ClearColor string `yaml:"clear_color"`
	LogLevel   string `yaml:"log_level"`
}

// LoadRunConfig parses a YAML run configuration. Missing keys keep their
// DefaultRunConfig values. clear_color is an SVG color name such as
// "cornflowerblue" or a #rrggbb / #rrggbbaa hex string.
func LoadRunConfig(data []byte) (RunConfig, error) {
	cfg := DefaultRunConfig()
	var f runConfigFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return cfg, errors.Wrap(err, "trellis: parse run config")
	}
	if f.Title != "" {
		cfg.Title = f.Title
	}
	if f.Width < 0 || f.Height < 0 {
		return cfg, errors.Errorf("trellis: invalid window size %dx%d", f.Width, f.Height)
	}
	if f.Width > 0 {
		cfg.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Height = f.Height
	}
	cfg.Debug = f.Debug
	cfg.ShowFPS = f.ShowFPS
	if f.ClearColor != "" {
		c, err := ParseColor(f.ClearColor)
		if err != nil {
			return cfg, errors.Wrap(err, "trellis: clear_color")
		}
		cfg.ClearColor = c
	}
	if f.LogLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(f.LogLevel)); err != nil {
			return cfg, errors.Wrap(err, "trellis: log_level")
		}
	}
	return cfg, nil
}

// ParseColor resolves an SVG color name or a #rrggbb / #rrggbbaa hex string.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return ColorFrom(c), nil
	}
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return Color{}, errors.Errorf("unknown color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, errors.Wrapf(err, "bad hex color %q", s)
	}
	if len(s) == 7 {
		v = v<<8 | 0xff
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}
