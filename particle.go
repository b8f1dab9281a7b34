package ember

import "github.com/go-gl/mathgl/mgl32"

// Particle is the kinematic record of one live particle. Particles live in a
// ParticlePool and are only valid until the pool frees them; do not retain
// pointers across ticks.
type Particle struct {
	Pos       mgl32.Vec3 // world position
	RelPos    mgl32.Vec3 // position relative to the emitter, used by attached effects
	Vel       mgl32.Vec3
	Acc       mgl32.Vec3
	OrientDir mgl32.Vec3 // facing axis for oriented rendering
	SpinSpeed float32    // degrees per second
	Age       float64    // milliseconds since emission
	Lifetime  float64    // milliseconds

	slot int32
	live bool
}

// ParticlePool is a fixed-capacity arena of particles. Allocation pops a free
// slot index and appends it to the alive index, so the alive index is ordered
// oldest to newest and iteration through At walks it newest first.
type ParticlePool struct {
	particles []Particle
	free      []int32
	alive     []int32
}

// NewParticlePool creates a pool holding at most capacity particles.
// A capacity below 1 is raised to 1.
func NewParticlePool(capacity int) *ParticlePool {
	if capacity < 1 {
		capacity = 1
	}
	p := &ParticlePool{
		particles: make([]Particle, capacity),
		free:      make([]int32, capacity),
		alive:     make([]int32, 0, capacity),
	}
	// Lowest slot is popped first.
	for i := range p.free {
		p.free[i] = int32(capacity - 1 - i)
	}
	for i := range p.particles {
		p.particles[i].slot = int32(i)
	}
	return p
}

// AddParticle allocates a zeroed particle and makes it the newest live one.
// Returns nil when the pool is full; the caller drops the emission.
func (p *ParticlePool) AddParticle() *Particle {
	n := len(p.free)
	if n == 0 {
		return nil
	}
	slot := p.free[n-1]
	p.free = p.free[:n-1]
	p.alive = append(p.alive, slot)

	part := &p.particles[slot]
	*part = Particle{slot: slot, live: true}
	return part
}

// RemoveParticle frees part. Survivors keep their relative order.
// Removing the newest particle is O(1).
func (p *ParticlePool) RemoveParticle(part *Particle) {
	if part == nil || !part.live || int(part.slot) >= len(p.particles) || &p.particles[part.slot] != part {
		panic("ember: RemoveParticle of a particle not owned by this pool")
	}
	for i := len(p.alive) - 1; i >= 0; i-- {
		if p.alive[i] == part.slot {
			copy(p.alive[i:], p.alive[i+1:])
			p.alive = p.alive[:len(p.alive)-1]
			break
		}
	}
	part.live = false
	p.free = append(p.free, part.slot)
}

// AdvanceTime ages every live particle by ms and frees those whose age
// exceeds their lifetime. Returns the number of particles freed.
func (p *ParticlePool) AdvanceTime(ms float64) int {
	kept := p.alive[:0]
	removed := 0
	for _, slot := range p.alive {
		part := &p.particles[slot]
		part.Age += ms
		if part.Age > part.Lifetime {
			part.live = false
			p.free = append(p.free, slot)
			removed++
			continue
		}
		kept = append(kept, slot)
	}
	p.alive = kept
	return removed
}

// Count returns the number of live particles.
func (p *ParticlePool) Count() int {
	return len(p.alive)
}

// Capacity returns the maximum number of live particles.
func (p *ParticlePool) Capacity() int {
	return len(p.particles)
}

// Head returns the newest live particle, or nil when the pool is empty.
func (p *ParticlePool) Head() *Particle {
	if len(p.alive) == 0 {
		return nil
	}
	return &p.particles[p.alive[len(p.alive)-1]]
}

// At returns the i-th live particle counting from the newest (At(0) == Head()).
func (p *ParticlePool) At(i int) *Particle {
	return &p.particles[p.alive[len(p.alive)-1-i]]
}

// Clear frees every live particle.
func (p *ParticlePool) Clear() {
	for _, slot := range p.alive {
		p.particles[slot].live = false
		p.free = append(p.free, slot)
	}
	p.alive = p.alive[:0]
}
