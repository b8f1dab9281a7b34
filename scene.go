package ember

import (
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene hosts particle systems: it is their registrar, object resolver and
// camera source, ticks every process once per frame and draws every scene
// object through a RenderBin.
type Scene struct {
	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color
	// Ambient is the light color handed to renderers.
	Ambient Color
	// LowDetail skips renderers flagged HighResOnly.
	LowDetail bool

	camera   *Camera
	registry *Registry
	rng      *rand.Rand

	objects   []SceneObject
	processes []Processor
	tweens    []*TweenGroup

	bin   *RenderBin
	atlas *Atlas

	updateFunc func() error
	testRunner *TestRunner
	overlay    *Overlay

	debug     bool
	tickStats debugStats
}

// NewScene creates a scene whose camera renders into viewport.
func NewScene(viewport Rect) *Scene {
	return &Scene{
		Ambient:  ColorWhite,
		camera:   newCamera(viewport),
		registry: NewRegistry(),
		rng:      newTimeSeededRand(),
		bin:      NewRenderBin(nil),
	}
}

// Camera returns the scene camera.
func (s *Scene) Camera() *Camera {
	return s.camera
}

// Registry returns the object registry used to resolve mesh references.
func (s *Scene) Registry() *Registry {
	return s.registry
}

// SetRand replaces the PRNG handed to systems created afterwards.
func (s *Scene) SetRand(r *rand.Rand) {
	s.rng = r
}

// Rand returns the scene PRNG.
func (s *Scene) Rand() *rand.Rand {
	return s.rng
}

// NewParticleSystem creates a system bound to this scene and registers it
// under name. It joins the scene lists on its first successful emission and
// leaves the registry when it dies, whether or not it ever emitted.
func (s *Scene) NewParticleSystem(name string, cfg *SystemConfig) *ParticleSystem {
	ps := NewParticleSystem(name, cfg, Environment{
		Scene:   s,
		Objects: s,
		Camera:  s,
		Rand:    s.rng,
	})
	ps.release = func(p *ParticleSystem) { s.registry.Unregister(p) }
	s.registry.Register(name, ps)
	return ps
}

// Register adds a host object, such as a ShapeObject, to the registry so
// mesh emitters can find it by name or by the returned ID.
func (s *Scene) Register(name string, obj any) uint32 {
	return s.registry.Register(name, obj)
}

// Resolve looks ref up in the registry.
func (s *Scene) Resolve(ref string) (any, bool) {
	return s.registry.Resolve(ref)
}

// CameraPosition returns the camera eye position.
func (s *Scene) CameraPosition() mgl32.Vec3 {
	return s.camera.Position
}

// AddObjectToScene adds obj to the draw list. Adding twice is a no-op.
func (s *Scene) AddObjectToScene(obj SceneObject) {
	for _, o := range s.objects {
		if o == obj {
			return
		}
	}
	s.objects = append(s.objects, obj)
}

// AddToProcessList adds p to the tick list. Adding twice is a no-op.
func (s *Scene) AddToProcessList(p Processor) {
	for _, q := range s.processes {
		if q == p {
			return
		}
	}
	s.processes = append(s.processes, p)
}

// Objects returns the draw list. The returned slice MUST NOT be mutated.
func (s *Scene) Objects() []SceneObject {
	return s.objects
}

// Processes returns the tick list. The returned slice MUST NOT be mutated.
func (s *Scene) Processes() []Processor {
	return s.processes
}

// AddTween runs g from Tick until it is done.
func (s *Scene) AddTween(g *TweenGroup) {
	s.tweens = append(s.tweens, g)
}

// SetUpdateFunc sets a callback run at the start of every Update.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// Update runs the update callback and the test runner, then advances the
// scene by one ebiten tick.
func (s *Scene) Update() error {
	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}
	if s.testRunner != nil {
		s.testRunner.step(s)
	}
	ms := 1000 / float64(ebiten.TPS())
	s.Tick(ms)
	if s.overlay != nil {
		s.overlay.update(ms, s)
	}
	return nil
}

// Tick advances the camera, tweens and every process by ms milliseconds,
// then drops dead processes from both lists and the registry.
func (s *Scene) Tick(ms float64) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	dt := float32(ms / 1000)
	s.camera.update(dt)

	tw := s.tweens[:0]
	for _, g := range s.tweens {
		g.Update(dt)
		if !g.Done {
			tw = append(tw, g)
		}
	}
	clear(s.tweens[len(tw):])
	s.tweens = tw

	for _, p := range s.processes {
		p.AdvanceTime(ms)
	}
	s.removeDead()

	if s.debug {
		s.tickStats.tickTime = time.Since(t0)
		s.tickStats.systems = len(s.processes)
		s.tickStats.particles = s.ParticleCount()
	}
}

func (s *Scene) removeDead() {
	live := s.processes[:0]
	for _, p := range s.processes {
		if p.IsDead() {
			s.registry.Unregister(p)
			continue
		}
		live = append(live, p)
	}
	clear(s.processes[len(live):])
	s.processes = live

	objs := s.objects[:0]
	for _, o := range s.objects {
		if d, ok := o.(Processor); ok && d.IsDead() {
			continue
		}
		objs = append(objs, o)
	}
	clear(s.objects[len(objs):])
	s.objects = objs
}

// ParticleCount returns the live particles across every ticking system.
func (s *Scene) ParticleCount() int {
	n := 0
	for _, p := range s.processes {
		if ps, ok := p.(*ParticleSystem); ok {
			n += ps.Pool().Count()
		}
	}
	return n
}

// Draw renders the diffuse pass to screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	s.DrawPass(screen, PassDiffuse)
	if s.overlay != nil {
		s.overlay.draw(screen)
	}
}

// DrawPass renders every scene object for the given pass kind to target.
func (s *Scene) DrawPass(target *ebiten.Image, kind PassKind) {
	stats := s.tickStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	state := s.camera.RenderState(kind, s.bin)
	state.Ambient = s.Ambient
	state.LowDetail = s.LowDetail
	s.bin.LowDetail = s.LowDetail

	for _, o := range s.objects {
		o.PrepRenderImage(&state)
	}

	if s.debug {
		stats.prepTime = time.Since(t0)
		stats.instances = s.bin.Len()
		for _, inst := range s.bin.Instances() {
			stats.vertices += len(inst.Vertices)
		}
		t0 = time.Now()
	}

	s.bin.Sort()

	if s.debug {
		stats.sortTime = time.Since(t0)
		t0 = time.Now()
	}

	s.bin.Flush(target, s.camera.Viewport)

	if s.debug {
		stats.submitTime = time.Since(t0)
		stats.drawCalls, _, stats.culled = s.bin.DrawStats()
		s.debugLog(stats)
	}
}

// SetDebugMode enables or disables debug mode. When enabled, per-frame
// timing and particle counts are logged to stderr and registry and atlas
// misses are logged.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that code
// without a Scene pointer can check it cheaply. Only valid with a single
// Scene; multiple Scenes with differing debug modes will reflect whichever
// called SetDebugMode last.
var globalDebug bool

// SetOverlay shows or hides the on-screen stats overlay.
func (s *Scene) SetOverlay(show bool) {
	if show && s.overlay == nil {
		s.overlay = NewOverlay()
	}
	if !show {
		s.overlay = nil
	}
}

// LoadAtlas parses TexturePacker JSON and makes its regions available to
// renderers by texture name.
func (s *Scene) LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	atlas, err := LoadAtlas(jsonData, pages)
	if err != nil {
		return nil, err
	}
	s.SetAtlas(atlas)
	return atlas, nil
}

// SetAtlas makes atlas the texture source for every renderer.
func (s *Scene) SetAtlas(atlas *Atlas) {
	s.atlas = atlas
	s.bin.SetAtlas(atlas)
}

// Atlas returns the current texture atlas, or nil.
func (s *Scene) Atlas() *Atlas {
	return s.atlas
}
