package ember

import "github.com/go-gl/mathgl/mgl32"

// Emitter places and launches new particles. AddParticle allocates from the
// system pool and reports whether a particle was produced; it fails when the
// pool is full or the emitter cannot sample (for example an unresolved mesh).
type Emitter interface {
	AddParticle(pos, axis, vel, axisx mgl32.Vec3) bool
}

// initParticle applies the emitter-independent part of particle setup:
// inherited velocity, constant acceleration, lifetime and spin.
func (ps *ParticleSystem) initParticle(p *Particle, inheritVel mgl32.Vec3) {
	c := ps.cfg
	p.Vel = p.Vel.Add(inheritVel.Mul(c.InheritedVelFactor))
	p.Acc = p.Vel.Mul(c.ConstantAcceleration)
	p.Lifetime = randVariance(ps.rng, c.LifetimeMS, c.LifetimeVarianceMS)
	p.SpinSpeed = float32(randVariance(ps.rng, c.SpinSpeed, c.SpinVariance))
}

// SphereEmitter launches particles in a cone around the emission axis. The
// cone's azimuth reference rotates with the system clock at
// PhiReferenceVel degrees per second.
type SphereEmitter struct {
	cfg *SphereEmitterConfig
	sys *ParticleSystem
}

func newSphereEmitter(cfg *SphereEmitterConfig, sys *ParticleSystem) *SphereEmitter {
	return &SphereEmitter{cfg: cfg, sys: sys}
}

// AddParticle emits one particle at pos.
func (e *SphereEmitter) AddParticle(pos, axis, vel, axisx mgl32.Vec3) bool {
	p := e.sys.pool.AddParticle()
	if p == nil {
		return false
	}
	c := e.cfg
	rng := e.sys.rng

	theta := randRange(rng, c.ThetaMin, c.ThetaMax)
	ref := float32(e.sys.internalClock/1000) * c.PhiReferenceVel
	phi := ref + randF(rng)*c.PhiVariance

	dir := mgl32.QuatRotate(mgl32.DegToRad(theta), axisx).Rotate(axis)
	dir = mgl32.QuatRotate(mgl32.DegToRad(phi), axis).Rotate(dir)

	speed := c.EjectionVelocity + c.VelocityVariance*(2*randF(rng)-1)
	offset := c.EjectionOffset + c.EjectionOffsetVariance*(2*randF(rng)-1)

	p.RelPos = dir.Mul(offset)
	p.Pos = pos.Add(p.RelPos)
	p.Vel = dir.Mul(speed)
	p.OrientDir = dir
	e.sys.initParticle(p, vel)
	return true
}
