package trellis

import (
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
)

// SetDebug toggles debug mode after construction.
func (h *Hub) SetDebug(enabled bool) {
	h.mu.Lock()
	h.debug = enabled
	h.mu.Unlock()
}

// game adapts a scene and camera to ebiten.Game.
type game struct {
	scene    *Scene
	camera   Camera
	renderer *Renderer
	cfg      RunConfig
	fps      *fpsOverlay
	err      error
}

func (g *game) Update() error {
	if g.err != nil {
		return g.err
	}
	dt := float32(1 / float64(ebiten.TPS()))
	if g.cfg.OnUpdate != nil {
		if err := g.cfg.OnUpdate(dt); err != nil {
			return err
		}
	}
	if g.fps != nil {
		g.fps.update(float64(dt), g.scene.hub.Stats())
	}
	if s := g.cfg.Script; s != nil {
		s.step(g.renderer)
		if s.Quit() {
			return ebiten.Termination
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if err := g.renderer.Render(screen, g.scene, g.camera); err != nil {
		// Surfaced from the next Update, which stops the loop.
		g.err = err
		return
	}
	if g.fps != nil {
		g.fps.draw(screen)
	}
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and renders scene through camera once per frame until
// the window is closed, OnUpdate returns an error, or the camera can no longer
// be resolved. Zero fields of cfg take their DefaultRunConfig values.
func Run(scene *Scene, camera Camera, cfg RunConfig) error {
	def := DefaultRunConfig()
	if cfg.Title == "" {
		cfg.Title = def.Title
	}
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	if cfg.Debug {
		scene.hub.SetDebug(true)
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)
	if scene.Background == (Background{Color: ColorBlack}) && cfg.ClearColor != (Color{}) {
		scene.Background.Color = cfg.ClearColor
	}

	if cfg.Renderer == nil {
		cfg.Renderer = NewRenderer()
	}
	g := &game{scene: scene, camera: camera, renderer: cfg.Renderer, cfg: cfg}
	if cfg.ShowFPS {
		g.fps = newFPSOverlay()
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(g)
}
