package ember

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Phase selects where in the integration step a behavior runs.
type Phase uint8

const (
	PhaseAcceleration Phase = iota // after acc is cleared, before built-in forces
	PhaseVelocity                  // after the Euler velocity step
	PhasePosition                  // after the position step
)

var phaseNames = [...]string{"acceleration", "velocity", "position"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Behavior mutates one particle during simulation. Behaviors hold no
// per-particle state; the same instance runs for every particle.
type Behavior interface {
	Phase() Phase
	// Priority orders behaviors within a phase; higher runs first.
	Priority() int
	UpdateParticle(sys *ParticleSystem, p *Particle, dt float32)
}

// BehaviorChain is a fixed-capacity ordered set of behaviors. The sorted
// order is cached and only recomputed after Add or Remove.
type BehaviorChain struct {
	slots  [MaxBehaviors]Behavior
	count  int
	sorted [MaxBehaviors]Behavior
	dirty  bool
}

// Add appends b. Adding past MaxBehaviors is a programming error; configs
// are truncated to MaxBehaviors during validation.
func (c *BehaviorChain) Add(b Behavior) {
	if b == nil {
		return
	}
	if c.count == MaxBehaviors {
		panic("ember: behavior chain is full")
	}
	c.slots[c.count] = b
	c.count++
	c.dirty = true
}

// Remove drops b from the chain. Reports whether it was present.
func (c *BehaviorChain) Remove(b Behavior) bool {
	for i := 0; i < c.count; i++ {
		if c.slots[i] == b {
			copy(c.slots[i:c.count], c.slots[i+1:c.count])
			c.count--
			c.slots[c.count] = nil
			c.dirty = true
			return true
		}
	}
	return false
}

// Len returns the number of behaviors.
func (c *BehaviorChain) Len() int {
	return c.count
}

// Sorted returns the behaviors ordered by descending priority. Ties keep
// insertion order. The returned slice is valid until the next Add or Remove.
func (c *BehaviorChain) Sorted() []Behavior {
	if c.dirty {
		copy(c.sorted[:], c.slots[:c.count])
		s := c.sorted[:c.count]
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Priority() > s[j].Priority()
		})
		c.dirty = false
	}
	return c.sorted[:c.count]
}

// runPhase applies every behavior of phase ph to p.
func runPhase(bs []Behavior, ph Phase, sys *ParticleSystem, p *Particle, dt float32) {
	for _, b := range bs {
		if b.Phase() == ph {
			b.UpdateParticle(sys, p, dt)
		}
	}
}

// Sticky pins particles to their emitter: every tick it sets the position to
// the system position plus the particle's relative position.
type Sticky struct {
	priority int
}

// NewSticky returns a Sticky behavior with the given priority.
func NewSticky(priority int) *Sticky {
	return &Sticky{priority: priority}
}

func (s *Sticky) Phase() Phase  { return PhasePosition }
func (s *Sticky) Priority() int { return s.priority }

func (s *Sticky) UpdateParticle(sys *ParticleSystem, p *Particle, dt float32) {
	p.Pos = sys.Position().Add(p.RelPos)
}

// StickyConfig is the datablock for Sticky.
type StickyConfig struct {
	Name     string `yaml:"-"`
	Priority int    `yaml:"priority"`
}

func (c *StickyConfig) Validate() int         { return 0 }
func (c *StickyConfig) newBehavior() Behavior { return NewSticky(c.Priority) }

// Attraction pulls particles toward a point with a strength that falls off
// linearly to zero at Radius. A zero Radius means no falloff.
type Attraction struct {
	cfg *AttractionConfig
}

// NewAttraction returns an Attraction driven by cfg.
func NewAttraction(cfg *AttractionConfig) *Attraction {
	return &Attraction{cfg: cfg}
}

func (a *Attraction) Phase() Phase  { return PhaseAcceleration }
func (a *Attraction) Priority() int { return a.cfg.Priority }

func (a *Attraction) UpdateParticle(sys *ParticleSystem, p *Particle, dt float32) {
	target := a.cfg.Point
	if a.cfg.UseSystemPosition {
		target = sys.Position().Add(a.cfg.Point)
	}
	d := target.Sub(p.Pos)
	dist := d.Len()
	if dist == 0 {
		return
	}
	strength := a.cfg.Strength
	if a.cfg.Radius > 0 {
		if dist >= a.cfg.Radius {
			return
		}
		strength *= 1 - dist/a.cfg.Radius
	}
	p.Acc = p.Acc.Add(d.Mul(strength / dist))
}

// AttractionConfig is the datablock for Attraction.
type AttractionConfig struct {
	Name     string `yaml:"-"`
	Priority int    `yaml:"priority"`

	// Point is a world position, or an offset from the system position when
	// UseSystemPosition is set.
	Point             mgl32.Vec3 `yaml:"point"`
	UseSystemPosition bool       `yaml:"useSystemPosition"`
	Strength          float32    `yaml:"strength"`
	Radius            float32    `yaml:"radius"`
}

func (c *AttractionConfig) Validate() int {
	v := validator{block: c.Name}
	if c.Radius < 0 {
		v.warn("radius", c.Radius, 0)
		c.Radius = 0
	}
	return v.count
}

func (c *AttractionConfig) newBehavior() Behavior { return NewAttraction(c) }

// SpeedLimit caps particle speed after the velocity step.
type SpeedLimit struct {
	cfg *SpeedLimitConfig
}

// NewSpeedLimit returns a SpeedLimit driven by cfg.
func NewSpeedLimit(cfg *SpeedLimitConfig) *SpeedLimit {
	return &SpeedLimit{cfg: cfg}
}

func (s *SpeedLimit) Phase() Phase  { return PhaseVelocity }
func (s *SpeedLimit) Priority() int { return s.cfg.Priority }

func (s *SpeedLimit) UpdateParticle(sys *ParticleSystem, p *Particle, dt float32) {
	max := s.cfg.MaxSpeed
	if l := p.Vel.Len(); l > max {
		p.Vel = p.Vel.Mul(max / l)
	}
}

// SpeedLimitConfig is the datablock for SpeedLimit.
type SpeedLimitConfig struct {
	Name     string  `yaml:"-"`
	Priority int     `yaml:"priority"`
	MaxSpeed float32 `yaml:"maxSpeed"`
}

func (c *SpeedLimitConfig) Validate() int {
	v := validator{block: c.Name}
	if c.MaxSpeed < 0 {
		v.warn("maxSpeed", c.MaxSpeed, 0)
		c.MaxSpeed = 0
	}
	return v.count
}

func (c *SpeedLimitConfig) newBehavior() Behavior { return NewSpeedLimit(c) }
