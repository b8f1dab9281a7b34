package ember

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// Background fills the screen every frame.
	Background Color
	ShowFPS    bool
	Debug      bool
}

// gameShell adapts a Scene to ebiten.Game.
type gameShell struct {
	scene *Scene
	w, h  int
}

func (g *gameShell) Update() error              { return g.scene.Update() }
func (g *gameShell) Draw(screen *ebiten.Image)  { g.scene.Draw(screen) }
func (g *gameShell) Layout(_, _ int) (int, int) { return g.w, g.h }

// Run opens a window and drives scene until the window closes or the
// update callback returns an error.
func Run(scene *Scene, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 600
	}
	if cfg.Background.A > 0 {
		scene.ClearColor = cfg.Background
	}
	scene.SetOverlay(cfg.ShowFPS)
	scene.SetDebugMode(cfg.Debug)

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(w, h)
	return ebiten.RunGame(&gameShell{scene: scene, w: w, h: h})
}
