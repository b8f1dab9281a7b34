package ember

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxBehaviors is the number of behavior slots a particle system carries.
const MaxBehaviors = 8

// MaxKeyframes is the number of size/color keys a billboard renderer evaluates.
const MaxKeyframes = 4

// poolFudge is added to the computed pool capacity to absorb variance in
// emission timing.
const poolFudge = 8

// SystemConfig is the shared, read-only datablock a ParticleSystem binds to.
// Call Validate once after filling it in; NewParticleSystem validates
// unvalidated configs itself.
type SystemConfig struct {
	Name string `yaml:"-"`

	// ParticlesPerSecond is the emission rate, in [1, 1000].
	ParticlesPerSecond         float64 `yaml:"particlesPerSecond"`
	ParticlesPerSecondVariance float64 `yaml:"particlesPerSecondVariance"`

	// LifetimeMS is the per-particle lifetime.
	LifetimeMS         float64 `yaml:"lifetimeMS"`
	LifetimeVarianceMS float64 `yaml:"lifetimeVarianceMS"`

	// SystemLifetimeMS stops emission once the system has run this long.
	// Zero means the system emits forever.
	SystemLifetimeMS float64 `yaml:"systemLifetimeMS"`

	// SpinSpeed is in degrees per second.
	SpinSpeed    float64 `yaml:"spinSpeed"`
	SpinVariance float64 `yaml:"spinVariance"`

	DragCoefficient      float32    `yaml:"dragCoefficient"`
	WindCoefficient      float32    `yaml:"windCoefficient"`
	GravityCoefficient   float32    `yaml:"gravityCoefficient"`
	Gravity              mgl32.Vec3 `yaml:"gravity"`
	ConstantAcceleration float32    `yaml:"constantAcceleration"`
	InheritedVelFactor   float32    `yaml:"inheritedVelFactor"`

	// OverrideAdvance, when true, disables forward integration of particles
	// spawned part way through an emission call.
	OverrideAdvance bool `yaml:"overrideAdvance"`

	// Simulation LOD is active when SimulationLODEnd > SimulationLODBegin.
	// Between the two distances the system skips up to SimulationLODMaxSkip
	// ticks in a row, folding the skipped time into the next executed one.
	SimulationLODBegin   float32 `yaml:"simulationLODBegin"`
	SimulationLODEnd     float32 `yaml:"simulationLODEnd"`
	SimulationLODMaxSkip int     `yaml:"simulationLODMaxSkip"`

	// MaxParticles overrides the computed pool capacity when positive.
	MaxParticles int `yaml:"maxParticles"`

	Emitter   EmitterConfig    `yaml:"-"`
	Renderer  RendererConfig   `yaml:"-"`
	Behaviors []BehaviorConfig `yaml:"-"`

	validated bool
}

// DefaultSystemConfig returns a config that emits 50 particles per second
// that live for one second, with a default sphere emitter and billboard
// renderer.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		ParticlesPerSecond:   50,
		LifetimeMS:           1000,
		Gravity:              mgl32.Vec3{0, 0, -9.81},
		SimulationLODMaxSkip: 4,
		Emitter:              DefaultSphereEmitterConfig(),
		Renderer:             DefaultBillboardRendererConfig(),
	}
}

// EmitterConfig is the datablock for one emitter variant.
type EmitterConfig interface {
	Validate() int
	newEmitter(sys *ParticleSystem) Emitter
}

// RendererConfig is the datablock for one renderer variant.
type RendererConfig interface {
	Validate() int
	newRenderer() Renderer
}

// BehaviorConfig is the datablock for one behavior variant.
type BehaviorConfig interface {
	Validate() int
	newBehavior() Behavior
}

// Validate clamps every out-of-range field to a legal value, logging one
// warning per clamp, and validates the referenced emitter, renderer and
// behavior datablocks. It returns the total number of clamps applied.
func (c *SystemConfig) Validate() int {
	v := validator{block: c.Name}

	v.clamp64("particlesPerSecond", &c.ParticlesPerSecond, 1, 1000)
	v.variance64("particlesPerSecondVariance", &c.ParticlesPerSecondVariance, c.ParticlesPerSecond)
	v.clamp64("lifetimeMS", &c.LifetimeMS, 1, math.MaxInt32)
	v.variance64("lifetimeVarianceMS", &c.LifetimeVarianceMS, c.LifetimeMS)
	v.clamp64("systemLifetimeMS", &c.SystemLifetimeMS, 0, math.MaxFloat64)
	v.clamp64("spinSpeed", &c.SpinSpeed, -10000, 10000)
	v.clamp64("spinVariance", &c.SpinVariance, 0, 10000)
	v.clamp32("dragCoefficient", &c.DragCoefficient, 0, math.MaxFloat32)
	v.clamp32("simulationLODBegin", &c.SimulationLODBegin, 0, math.MaxFloat32)
	if c.SimulationLODEnd != 0 && c.SimulationLODEnd < c.SimulationLODBegin {
		v.warn("simulationLODEnd", c.SimulationLODEnd, c.SimulationLODBegin)
		c.SimulationLODEnd = c.SimulationLODBegin
	}
	if c.SimulationLODMaxSkip < 0 {
		v.warn("simulationLODMaxSkip", c.SimulationLODMaxSkip, 0)
		c.SimulationLODMaxSkip = 0
	}
	if c.MaxParticles < 0 {
		v.warn("maxParticles", c.MaxParticles, 0)
		c.MaxParticles = 0
	}
	if len(c.Behaviors) > MaxBehaviors {
		v.warn("behaviors", len(c.Behaviors), MaxBehaviors)
		c.Behaviors = c.Behaviors[:MaxBehaviors]
	}

	n := v.count
	if c.Emitter != nil {
		n += c.Emitter.Validate()
	}
	if c.Renderer != nil {
		n += c.Renderer.Validate()
	}
	for _, b := range c.Behaviors {
		if b != nil {
			n += b.Validate()
		}
	}
	c.validated = true
	return n
}

// LODEnabled reports whether distance-based simulation throttling is on.
func (c *SystemConfig) LODEnabled() bool {
	return c.SimulationLODEnd > c.SimulationLODBegin
}

// PoolCapacity returns the particle pool size for this config: the longest
// possible lifetime divided by the shortest possible emission interval, plus
// a small fudge.
func (c *SystemConfig) PoolCapacity() int {
	if c.MaxParticles > 0 {
		return c.MaxParticles
	}
	maxLife := c.LifetimeMS + c.LifetimeVarianceMS
	maxRate := clamp64(c.ParticlesPerSecond+c.ParticlesPerSecondVariance, 1, 1000)
	minInterval := 1000 / maxRate
	return int(math.Ceil(maxLife/minInterval)) + poolFudge
}

// SphereEmitterConfig is the datablock for SphereEmitter. Angles are in
// degrees: theta is measured from the emission axis, phi around it.
type SphereEmitterConfig struct {
	Name string `yaml:"-"`

	EjectionVelocity       float32 `yaml:"ejectionVelocity"`
	VelocityVariance       float32 `yaml:"velocityVariance"`
	EjectionOffset         float32 `yaml:"ejectionOffset"`
	EjectionOffsetVariance float32 `yaml:"ejectionOffsetVariance"`
	ThetaMin               float32 `yaml:"thetaMin"`
	ThetaMax               float32 `yaml:"thetaMax"`
	PhiReferenceVel        float32 `yaml:"phiReferenceVel"`
	PhiVariance            float32 `yaml:"phiVariance"`
}

// DefaultSphereEmitterConfig returns a hemisphere emitter.
func DefaultSphereEmitterConfig() *SphereEmitterConfig {
	return &SphereEmitterConfig{
		EjectionVelocity: 2,
		VelocityVariance: 1,
		ThetaMax:         90,
		PhiVariance:      360,
	}
}

// Validate clamps angles and variances.
func (c *SphereEmitterConfig) Validate() int {
	v := validator{block: c.Name}
	v.variance32("velocityVariance", &c.VelocityVariance, c.EjectionVelocity)
	v.variance32("ejectionOffsetVariance", &c.EjectionOffsetVariance, c.EjectionOffset)
	v.clamp32("thetaMin", &c.ThetaMin, 0, 180)
	v.clamp32("thetaMax", &c.ThetaMax, 0, 180)
	if c.ThetaMin > c.ThetaMax {
		v.warn("thetaMin", c.ThetaMin, c.ThetaMax)
		c.ThetaMin = c.ThetaMax
	}
	v.clamp32("phiVariance", &c.PhiVariance, 0, 360)
	return v.count
}

func (c *SphereEmitterConfig) newEmitter(sys *ParticleSystem) Emitter {
	return newSphereEmitter(c, sys)
}

// MeshEmitterConfig is the datablock for MeshEmitter.
type MeshEmitterConfig struct {
	Name string `yaml:"-"`

	// Mesh names the mesh provider, by registered name or numeric ID.
	Mesh string `yaml:"mesh"`

	// EmitOnFaces selects per-face sampling; otherwise particles come from
	// vertices.
	EmitOnFaces bool `yaml:"emitOnFaces"`

	// EvenEmission spreads emission evenly: a random vertex in vertex mode,
	// the area-weighted face cache in face mode.
	EvenEmission bool `yaml:"evenEmission"`

	EjectionVelocity       float32 `yaml:"ejectionVelocity"`
	VelocityVariance       float32 `yaml:"velocityVariance"`
	EjectionOffset         float32 `yaml:"ejectionOffset"`
	EjectionOffsetVariance float32 `yaml:"ejectionOffsetVariance"`
}

// Validate clamps variances. An empty mesh reference is reported but left
// alone; the emitter will simply produce nothing.
func (c *MeshEmitterConfig) Validate() int {
	v := validator{block: c.Name}
	v.variance32("velocityVariance", &c.VelocityVariance, c.EjectionVelocity)
	v.variance32("ejectionOffsetVariance", &c.EjectionOffsetVariance, c.EjectionOffset)
	if c.Mesh == "" {
		log.Printf("ember: %s: mesh emitter has no mesh reference", v.name())
	}
	return v.count
}

func (c *MeshEmitterConfig) newEmitter(sys *ParticleSystem) Emitter {
	return newMeshEmitter(c, sys)
}

// Keyframe is one size/color key over a particle's normalized age.
type Keyframe struct {
	Time  float32 `yaml:"time"`
	Size  float32 `yaml:"size"`
	Color Color   `yaml:"color"`
	// Ease names a gween easing function used on the segment that ends at
	// this key. Empty means linear.
	Ease string `yaml:"ease"`
}

// BillboardRendererConfig is the datablock for BillboardRenderer.
type BillboardRendererConfig struct {
	Name string `yaml:"-"`

	// Texture names an atlas region. Empty renders with WhitePixel.
	Texture string     `yaml:"texture"`
	Blend   BlendStyle `yaml:"blend"`

	SortParticles bool `yaml:"sortParticles"`
	ReverseOrder  bool `yaml:"reverseOrder"`

	// OrientParticles draws velocity- or axis-aligned ribbons.
	OrientParticles  bool `yaml:"orientParticles"`
	OrientOnVelocity bool `yaml:"orientOnVelocity"`

	// AlignParticles draws quads facing AlignDirection.
	AlignParticles bool       `yaml:"alignParticles"`
	AlignDirection mgl32.Vec3 `yaml:"alignDirection"`

	Keys []Keyframe `yaml:"keys"`

	AmbientFactor    float32 `yaml:"ambientFactor"`
	RenderReflection bool    `yaml:"renderReflection"`
	HighResOnly      bool    `yaml:"highResOnly"`
	SoftnessDistance float32 `yaml:"softnessDistance"`

	AnimateTexture bool    `yaml:"animateTexture"`
	FramesPerSec   float32 `yaml:"framesPerSec"`
	AnimTexTiling  [2]int  `yaml:"animTexTiling"`
	// AnimTexFrames is a frame sequence such as "0-16 20 19-21".
	AnimTexFrames string `yaml:"animTexFrames"`

	// TexCoords are the UVs of the quad corners, counter-clockwise from
	// bottom-left.
	TexCoords [4]mgl32.Vec2 `yaml:"texCoords"`

	frames []uint16
}

// DefaultTexCoords maps the full texture onto a quad.
var DefaultTexCoords = [4]mgl32.Vec2{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// DefaultBillboardRendererConfig returns an unsorted camera-facing renderer
// that shrinks and fades particles over their life.
func DefaultBillboardRendererConfig() *BillboardRendererConfig {
	return &BillboardRendererConfig{
		Keys: []Keyframe{
			{Time: 0, Size: 1, Color: ColorWhite},
			{Time: 1, Size: 0.5, Color: Color{1, 1, 1, 0}},
		},
		AlignDirection: unitZ,
		TexCoords:      DefaultTexCoords,
	}
}

// Validate normalizes keys, facing flags and atlas animation settings.
func (c *BillboardRendererConfig) Validate() int {
	v := validator{block: c.Name}

	if len(c.Keys) == 0 {
		v.warn("keys", 0, 1)
		c.Keys = []Keyframe{{Time: 0, Size: 1, Color: ColorWhite}}
	}
	if len(c.Keys) > MaxKeyframes {
		v.warn("keys", len(c.Keys), MaxKeyframes)
		c.Keys = c.Keys[:MaxKeyframes]
	}
	for i := range c.Keys {
		k := &c.Keys[i]
		v.clamp32("keys.time", &k.Time, 0, 1)
		if i == 0 && k.Time != 0 {
			v.warn("keys[0].time", k.Time, 0)
			k.Time = 0
		}
		if i > 0 && k.Time < c.Keys[i-1].Time {
			v.warn("keys.time", k.Time, c.Keys[i-1].Time)
			k.Time = c.Keys[i-1].Time
		}
		v.clamp32("keys.size", &k.Size, 0, math.MaxFloat32)
		if k.Ease != "" {
			if _, ok := lookupEase(k.Ease); !ok {
				v.warn("keys.ease", k.Ease, "linear")
				k.Ease = ""
			}
		}
	}

	if c.OrientParticles && c.AlignParticles {
		v.warn("alignParticles", true, false)
		c.AlignParticles = false
	}
	if c.AlignDirection.Len() == 0 {
		if c.AlignParticles {
			v.warn("alignDirection", c.AlignDirection, unitZ)
		}
		c.AlignDirection = unitZ
	}
	c.AlignDirection = c.AlignDirection.Normalize()

	v.clamp32("ambientFactor", &c.AmbientFactor, 0, 1)
	v.clamp32("softnessDistance", &c.SoftnessDistance, 0, math.MaxFloat32)

	if c.TexCoords == ([4]mgl32.Vec2{}) {
		c.TexCoords = DefaultTexCoords
	}

	if c.AnimateTexture {
		for i := range c.AnimTexTiling {
			if c.AnimTexTiling[i] < 1 {
				v.warn("animTexTiling", c.AnimTexTiling[i], 1)
				c.AnimTexTiling[i] = 1
			}
		}
		v.clamp32("framesPerSec", &c.FramesPerSec, 0, 200)
		frames, bad := parseFrameSequence(c.AnimTexFrames, c.AnimTexTiling[0]*c.AnimTexTiling[1])
		if bad > 0 {
			log.Printf("ember: %s: animTexFrames %q has %d invalid entries", v.name(), c.AnimTexFrames, bad)
			v.count += bad
		}
		c.frames = frames
	}
	return v.count
}

func (c *BillboardRendererConfig) newRenderer() Renderer {
	return newBillboardRenderer(c)
}

// validator accumulates clamp warnings for one datablock.
type validator struct {
	block string
	count int
}

func (v *validator) name() string {
	if v.block == "" {
		return "datablock"
	}
	return v.block
}

func (v *validator) warn(field string, from, to any) {
	log.Printf("ember: %s: %s %v is invalid, clamped to %v", v.name(), field, from, to)
	v.count++
}

func (v *validator) clamp64(field string, f *float64, lo, hi float64) {
	if c := clamp64(*f, lo, hi); c != *f || math.IsNaN(*f) {
		if math.IsNaN(*f) {
			c = lo
		}
		v.warn(field, *f, c)
		*f = c
	}
}

func (v *validator) clamp32(field string, f *float32, lo, hi float32) {
	if c := clamp32(*f, lo, hi); c != *f || *f != *f {
		if *f != *f {
			c = lo
		}
		v.warn(field, *f, c)
		*f = c
	}
}

// variance64 keeps a variance non-negative and strictly below its base.
func (v *validator) variance64(field string, f *float64, base float64) {
	if *f < 0 {
		v.warn(field, *f, 0)
		*f = 0
		return
	}
	if *f > 0 && *f >= base {
		c := math.Max(math.Nextafter(base, 0), 0)
		v.warn(field, *f, c)
		*f = c
	}
}

func (v *validator) variance32(field string, f *float32, base float32) {
	if *f < 0 {
		v.warn(field, *f, 0)
		*f = 0
		return
	}
	if *f > 0 && *f >= base {
		c := float32(0)
		if base > 0 {
			c = math.Nextafter32(base, 0)
		}
		v.warn(field, *f, c)
		*f = c
	}
}
