package ember

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// overlayRefreshMS is how often the overlay text is redrawn.
const overlayRefreshMS = 500

// Overlay is an on-screen stats panel showing FPS, TPS, ticking systems and
// live particles. Enable it with Scene.SetOverlay.
type Overlay struct {
	img       *ebiten.Image
	sinceMS   float64
	text      string
	X, Y      float64
	refreshed bool
}

// NewOverlay creates an overlay drawn at the top-left corner.
func NewOverlay() *Overlay {
	// 160x64 is enough for four lines of debug text.
	return &Overlay{img: ebiten.NewImage(160, 64)}
}

// Text returns the text shown by the last refresh.
func (o *Overlay) Text() string {
	return o.text
}

// update refreshes the text every overlayRefreshMS.
func (o *Overlay) update(ms float64, s *Scene) {
	o.sinceMS += ms
	if o.refreshed && o.sinceMS < overlayRefreshMS {
		return
	}
	o.sinceMS = 0
	o.refreshed = true
	o.text = overlayText(ebiten.ActualFPS(), ebiten.ActualTPS(), len(s.processes), s.ParticleCount())

	o.img.Clear()
	// Semi-transparent background for readability
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

func (o *Overlay) draw(screen *ebiten.Image) {
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(o.X, o.Y)
	screen.DrawImage(o.img, &op)
}

func overlayText(fps, tps float64, systems, particles int) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nSystems: %d\nParticles: %d", fps, tps, systems, particles)
}
