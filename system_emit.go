package ember

import "github.com/go-gl/mathgl/mgl32"

// EmitParticles emits along the segment start->end for a host update of ms
// milliseconds. Particles are spaced by the configured rate; the time left
// over after the last particle carries into the next call, so calling with
// 5x100ms produces the same particles as one 500ms call. axis is the
// emission direction and vel the velocity inherited through
// InheritedVelFactor.
func (ps *ParticleSystem) EmitParticles(start, end, axis, vel mgl32.Vec3, ms float64) {
	if !ps.canEmit() || ms <= 0 {
		return
	}
	axis = normalizedAxis(axis)
	axisx := perpendicular(axis)

	var currTime float64
	added := false

	if ps.nextParticleTime != 0 {
		if ps.nextParticleTime > ms {
			// The pending particle falls after this update.
			ps.nextParticleTime -= ms
			ps.internalClock += ms
			ps.setLastPosition(end)
			return
		}
		currTime += ps.nextParticleTime
		ps.internalClock += ps.nextParticleTime
		if ps.spawn(lerpVec3(start, end, float32(currTime/ms)), axis, vel, axisx, ms-currTime) {
			added = true
		}
		ps.nextParticleTime = 0
	}

	for currTime < ms {
		next := ps.nextInterval()
		if currTime+next > ms {
			ps.nextParticleTime = currTime + next - ms
			ps.internalClock += ms - currTime
			break
		}
		currTime += next
		ps.internalClock += next
		if ps.spawn(lerpVec3(start, end, float32(currTime/ms)), axis, vel, axisx, ms-currTime) {
			added = true
		}
	}

	if added {
		ps.updateBBox()
		ps.register()
	}
	ps.setLastPosition(end)
}

// EmitFrom emits toward point, starting from the last emission end point
// when useLastPosition is set and one is known.
func (ps *ParticleSystem) EmitFrom(point mgl32.Vec3, useLastPosition bool, axis, vel mgl32.Vec3, ms float64) {
	start := point
	if useLastPosition && ps.hasLastPosition {
		start = ps.lastPosition
	}
	ps.EmitParticles(start, point, axis, vel, ms)
}

// EmitBurst emits count particles at once, scattered through the hemisphere
// of the given radius around center on the side normal points to. There is
// no timing carry-over. The world box is set to center +/- radius.
func (ps *ParticleSystem) EmitBurst(center, normal mgl32.Vec3, radius float32, vel mgl32.Vec3, count int) {
	if !ps.canEmit() {
		return
	}
	axisz := normalizedAxis(normal)
	var axisy mgl32.Vec3
	if abs32(axisz[2]) < 0.98 {
		axisy = axisz.Cross(unitZ).Normalize()
	} else {
		axisy = axisz.Cross(unitY).Normalize()
	}
	axisx := axisz.Cross(axisy).Normalize()

	added := false
	for i := 0; i < count; i++ {
		off := axisx.Mul(radius * (1 - 2*randF(ps.rng)))
		off = off.Add(axisy.Mul(radius * (1 - 2*randF(ps.rng))))
		off = off.Add(axisz.Mul(radius * randF(ps.rng)))

		axis := safeNormalize(off)
		if axis.Len() == 0 {
			axis = axisz
		}
		if ps.emitter.AddParticle(center.Add(off), axis, vel, axisz) {
			ps.stats.Emitted++
			added = true
		} else {
			ps.stats.Dropped++
		}
	}

	ps.box = BoxAround(center, radius)
	ps.position = center
	if added {
		ps.register()
	}
}

// spawn adds one particle and, unless OverrideAdvance is set, integrates it
// forward by the part of the update that remains after its spawn time.
func (ps *ParticleSystem) spawn(pos, axis, vel, axisx mgl32.Vec3, advanceMS float64) bool {
	if !ps.emitter.AddParticle(pos, axis, vel, axisx) {
		ps.stats.Dropped++
		return false
	}
	ps.stats.Emitted++
	if !ps.cfg.OverrideAdvance && advanceMS > 0 {
		ps.advanceNewest(advanceMS)
	}
	return true
}

// advanceNewest integrates the newest particle by ms using the built-in
// forces only. A particle that would outlive its lifetime is freed.
func (ps *ParticleSystem) advanceNewest(ms float64) {
	p := ps.pool.Head()
	if p == nil {
		return
	}
	if ms > p.Lifetime {
		ps.pool.RemoveParticle(p)
		return
	}
	p.Age += ms
	t := float32(ms / 1000)
	a := ps.builtinAcceleration(p, p.Acc)
	p.Vel = p.Vel.Add(a.Mul(t))
	d := p.Vel.Mul(t)
	p.RelPos = p.RelPos.Add(d)
	p.Pos = p.Pos.Add(d)
}

// nextInterval returns milliseconds until the next particle.
func (ps *ParticleSystem) nextInterval() float64 {
	rate := randVariance(ps.rng, ps.cfg.ParticlesPerSecond, ps.cfg.ParticlesPerSecondVariance)
	return 1000 / clamp64(rate, 1, 1000)
}

func (ps *ParticleSystem) setLastPosition(p mgl32.Vec3) {
	ps.lastPosition = p
	ps.hasLastPosition = true
	ps.position = p
}

// normalizedAxis returns a unit emission axis, defaulting to +Z.
func normalizedAxis(a mgl32.Vec3) mgl32.Vec3 {
	if a.Len() == 0 {
		return unitZ
	}
	return a.Normalize()
}

// perpendicular returns a unit vector perpendicular to the unit axis a.
func perpendicular(a mgl32.Vec3) mgl32.Vec3 {
	if abs32(a[2]) < 0.9 {
		return a.Cross(unitZ).Normalize()
	}
	return a.Cross(unitY).Normalize()
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
