package ember

import "github.com/go-gl/mathgl/mgl32"

// simulate integrates every live particle by ms. Each particle goes through
// the acceleration behaviors, the built-in forces, the velocity step, the
// velocity behaviors, the position step and finally the position behaviors.
func (ps *ParticleSystem) simulate(ms float64) {
	ps.stats.SimulatedMS += ms
	dt := float32(ms / 1000)
	bs := ps.behaviors.Sorted()

	for i := 0; i < ps.pool.Count(); i++ {
		p := ps.pool.At(i)

		p.Acc = mgl32.Vec3{}
		runPhase(bs, PhaseAcceleration, ps, p, dt)

		a := ps.builtinAcceleration(p, p.Acc)
		p.Vel = p.Vel.Add(a.Mul(dt))
		runPhase(bs, PhaseVelocity, ps, p, dt)

		d := p.Vel.Mul(dt)
		p.RelPos = p.RelPos.Add(d)
		p.Pos = p.Pos.Add(d)
		runPhase(bs, PhasePosition, ps, p, dt)
	}

	ps.updateBBox()
}

// builtinAcceleration adds drag, wind and gravity to acc. Wind pushes
// particles along the wind velocity.
func (ps *ParticleSystem) builtinAcceleration(p *Particle, acc mgl32.Vec3) mgl32.Vec3 {
	c := ps.cfg
	acc = acc.Sub(p.Vel.Mul(c.DragCoefficient).Sub(ps.wind.Mul(c.WindCoefficient)))
	return acc.Add(c.Gravity.Mul(c.GravityCoefficient))
}
