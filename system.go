package ember

import (
	"log"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// A single tick is clamped to maxTickMS; ticks shorter than minTickMS are
// ignored.
const (
	maxTickMS = 500
	minTickMS = 0.01
)

// SystemState is the lifecycle stage of a ParticleSystem.
type SystemState uint8

const (
	StateEmitting               SystemState = iota // accepting emission
	StateLifetimeExpired                           // system lifetime is over, particles live out
	StatePendingDeleteWhenEmpty                    // soft-stop requested, dies once the pool drains
	StateDead                                      // terminal
)

var stateNames = [...]string{"emitting", "lifetimeExpired", "pendingDeleteWhenEmpty", "dead"}

func (s SystemState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// SceneRegistrar is the host scene. A ParticleSystem registers itself once,
// on its first successful emission.
type SceneRegistrar interface {
	AddObjectToScene(obj SceneObject)
	AddToProcessList(obj Processor)
}

// SceneObject is something the host asks to draw each frame.
type SceneObject interface {
	PrepRenderImage(state *RenderState)
	WorldBox() Box3
}

// Processor is something the host ticks each logical update. The host drops
// it once IsDead reports true.
type Processor interface {
	AdvanceTime(ms float64)
	IsDead() bool
}

// ObjectResolver looks up host objects by name or numeric ID.
type ObjectResolver interface {
	Resolve(ref string) (any, bool)
}

// CameraSource supplies the camera position for simulation LOD.
type CameraSource interface {
	CameraPosition() mgl32.Vec3
}

// Environment connects a ParticleSystem to its host. Every field is optional:
// without a Scene the system never registers, without Objects mesh emitters
// resolve nothing, without a Camera LOD is off, and without Rand a
// time-seeded generator is used.
type Environment struct {
	Scene   SceneRegistrar
	Objects ObjectResolver
	Camera  CameraSource
	Rand    *rand.Rand
}

// SystemStats are running counters for one ParticleSystem.
type SystemStats struct {
	Emitted      int     // particles created
	Dropped      int     // emission requests refused by the emitter or a full pool
	AdvancedMS   float64 // time handed to the LOD throttle while particles were alive
	SimulatedMS  float64 // time actually integrated
	PendingMS    float64 // skipped time waiting for the next executed tick
	DiscardedMS  float64 // pending time dropped because the pool drained
	SkippedTicks int
}

// ParticleSystem owns one pool, one emitter, one renderer and a behavior
// chain, and drives emission timing, simulation and rendering for them.
type ParticleSystem struct {
	// Name is used in log messages and by registries.
	Name string

	// OnDead, when set, is called once when the system reaches StateDead.
	OnDead func(ps *ParticleSystem)

	// release is installed by the owning host and runs before OnDead.
	release func(ps *ParticleSystem)

	cfg       *SystemConfig
	env       Environment
	rng       *rand.Rand
	pool      *ParticlePool
	emitter   Emitter
	renderer  Renderer
	behaviors BehaviorChain

	state      SystemState
	registered bool
	warned     bool

	position mgl32.Vec3
	wind     mgl32.Vec3

	elapsedMS        float64
	nextParticleTime float64
	internalClock    float64
	lastPosition     mgl32.Vec3
	hasLastPosition  bool

	lodSkip int
	tsu     float64 // time since last executed simulation, in ms

	box   Box3
	stats SystemStats
}

// NewParticleSystem binds a new system to cfg. cfg is validated first if it
// has not been. A nil cfg is a programming error.
func NewParticleSystem(name string, cfg *SystemConfig, env Environment) *ParticleSystem {
	if cfg == nil {
		panic("ember: NewParticleSystem with nil config")
	}
	if !cfg.validated {
		cfg.Validate()
	}
	ps := &ParticleSystem{
		Name: name,
		cfg:  cfg,
		env:  env,
		rng:  env.Rand,
		box:  EmptyBox(),
	}
	if ps.rng == nil {
		ps.rng = newTimeSeededRand()
	}
	ps.pool = NewParticlePool(cfg.PoolCapacity())
	if cfg.Emitter != nil {
		ps.emitter = cfg.Emitter.newEmitter(ps)
	}
	if cfg.Renderer != nil {
		ps.renderer = cfg.Renderer.newRenderer()
	}
	for _, bc := range cfg.Behaviors {
		if bc != nil {
			ps.behaviors.Add(bc.newBehavior())
		}
	}
	return ps
}

// Config returns the bound datablock.
func (ps *ParticleSystem) Config() *SystemConfig { return ps.cfg }

// Pool returns the particle pool. Callers must not mutate it while the
// system is being simulated or drawn.
func (ps *ParticleSystem) Pool() *ParticlePool { return ps.pool }

// Emitter returns the emitter, or nil when the config has none.
func (ps *ParticleSystem) Emitter() Emitter { return ps.emitter }

// Renderer returns the renderer, or nil when the config has none.
func (ps *ParticleSystem) Renderer() Renderer { return ps.renderer }

// Behaviors returns the behavior chain for live editing.
func (ps *ParticleSystem) Behaviors() *BehaviorChain { return &ps.behaviors }

// Rand returns the generator used for emission.
func (ps *ParticleSystem) Rand() *rand.Rand { return ps.rng }

// State returns the lifecycle state.
func (ps *ParticleSystem) State() SystemState { return ps.state }

// IsDead reports whether the system reached its terminal state.
func (ps *ParticleSystem) IsDead() bool { return ps.state == StateDead }

// Registered reports whether the system has registered with its scene.
func (ps *ParticleSystem) Registered() bool { return ps.registered }

// Position returns the emitter position used by attached behaviors and LOD.
func (ps *ParticleSystem) Position() mgl32.Vec3 { return ps.position }

// SetPosition moves the emitter without emitting.
func (ps *ParticleSystem) SetPosition(p mgl32.Vec3) { ps.position = p }

// WindVelocity returns the wind applied through WindCoefficient.
func (ps *ParticleSystem) WindVelocity() mgl32.Vec3 { return ps.wind }

// SetWindVelocity sets the wind applied through WindCoefficient.
func (ps *ParticleSystem) SetWindVelocity(w mgl32.Vec3) { ps.wind = w }

// ElapsedMS returns the time the system has been ticked.
func (ps *ParticleSystem) ElapsedMS() float64 { return ps.elapsedMS }

// NextParticleTime returns the carried-over time until the next emission.
func (ps *ParticleSystem) NextParticleTime() float64 { return ps.nextParticleTime }

// Stats returns a snapshot of the running counters.
func (ps *ParticleSystem) Stats() SystemStats {
	s := ps.stats
	s.PendingMS = ps.tsu
	return s
}

// WorldBox returns the bounds of the live particles, padded by the largest
// rendered size. An empty box means nothing has been emitted.
func (ps *ParticleSystem) WorldBox() Box3 { return ps.box }

// DeleteWhenEmpty requests a soft stop: emission ends and the system dies
// once its last particle expires, or right away if it has none.
func (ps *ParticleSystem) DeleteWhenEmpty() {
	if ps.state == StateDead {
		return
	}
	if ps.pool.Count() == 0 {
		ps.die()
		return
	}
	ps.state = StatePendingDeleteWhenEmpty
}

// AdvanceTime ages particles by ms, expires the dead ones and simulates the
// survivors, subject to simulation LOD.
func (ps *ParticleSystem) AdvanceTime(ms float64) {
	if ms < minTickMS || ps.state == StateDead {
		return
	}
	if ms > maxTickMS {
		ms = maxTickMS
	}
	ps.elapsedMS += ms
	ps.checkLifetime()

	ps.pool.AdvanceTime(ms)
	if ps.pool.Count() == 0 {
		ps.stats.DiscardedMS += ps.tsu
		ps.tsu = 0
		ps.lodSkip = 0
		if ps.state == StatePendingDeleteWhenEmpty {
			ps.die()
		}
		return
	}
	ps.stats.AdvancedMS += ms
	ps.throttle(ms)
}

// throttle runs simulate unless LOD says to skip this tick. Skipped time
// accumulates in tsu and is folded into the next executed tick.
func (ps *ParticleSystem) throttle(ms float64) {
	if skips := ps.lodSkips(); skips > 0 && ps.lodSkip < skips {
		ps.lodSkip++
		ps.tsu += ms
		ps.stats.SkippedTicks++
		return
	}
	ps.lodSkip = 0
	ms += ps.tsu
	ps.tsu = 0
	ps.simulate(ms)
}

// lodSkips returns how many ticks in a row may be skipped at the current
// camera distance.
func (ps *ParticleSystem) lodSkips() int {
	c := ps.cfg
	if !c.LODEnabled() || c.SimulationLODMaxSkip == 0 || ps.env.Camera == nil {
		return 0
	}
	dist := ps.env.Camera.CameraPosition().Sub(ps.position).Len()
	f := clamp32((dist-c.SimulationLODBegin)/(c.SimulationLODEnd-c.SimulationLODBegin), 0, 1)
	return int(f*float32(c.SimulationLODMaxSkip) + 0.5)
}

func (ps *ParticleSystem) checkLifetime() {
	if ps.state == StateEmitting && ps.cfg.SystemLifetimeMS > 0 && ps.elapsedMS > ps.cfg.SystemLifetimeMS {
		ps.state = StateLifetimeExpired
	}
}

// canEmit reports whether emission requests are accepted, logging once when
// the system has nothing to emit with.
func (ps *ParticleSystem) canEmit() bool {
	ps.checkLifetime()
	if ps.state != StateEmitting {
		return false
	}
	if ps.emitter == nil {
		if !ps.warned {
			log.Printf("ember: particle system %q has no emitter, emission ignored", ps.Name)
			ps.warned = true
		}
		return false
	}
	return true
}

func (ps *ParticleSystem) die() {
	ps.state = StateDead
	ps.pool.Clear()
	ps.stats.DiscardedMS += ps.tsu
	ps.tsu = 0
	if globalDebug {
		debugSystemReport(ps)
	}
	if ps.release != nil {
		ps.release(ps)
	}
	if ps.OnDead != nil {
		ps.OnDead(ps)
	}
}

// register adds the system to its scene the first time it has particles.
func (ps *ParticleSystem) register() {
	if ps.registered || ps.env.Scene == nil || ps.pool.Count() == 0 {
		return
	}
	ps.registered = true
	ps.env.Scene.AddObjectToScene(ps)
	ps.env.Scene.AddToProcessList(ps)
}

// updateBBox recomputes the bounds from live particle positions.
func (ps *ParticleSystem) updateBBox() {
	var pad float32
	if ps.renderer != nil {
		pad = ps.renderer.MaxSize() * 0.5
	}
	box := EmptyBox()
	for i := 0; i < ps.pool.Count(); i++ {
		box.Extend(ps.pool.At(i).Pos, pad)
	}
	ps.box = box
}

// PrepRenderImage hands the system's quads to state.Pass.
func (ps *ParticleSystem) PrepRenderImage(state *RenderState) {
	if ps.state == StateDead || ps.renderer == nil || ps.pool.Count() == 0 {
		return
	}
	if !ps.renderer.RenderPool(ps.pool, state) {
		return
	}
	inst := ps.renderer.Instance()
	if ps.box.IsEmpty() {
		inst.SortDistSq = state.CameraPosition.Sub(ps.position).LenSqr()
	} else {
		inst.SortDistSq = ps.box.SqDistanceToPoint(state.CameraPosition)
	}
	inst.Transform = state.ViewProj
	if state.Pass != nil {
		state.Pass.AddInst(inst)
	}
}
