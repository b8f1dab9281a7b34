package ember

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float32 fields simultaneously. Create one via
// the convenience constructors (TweenPosition, TweenWind, TweenAmbient) and
// either call Update(dt) each frame or hand it to Scene.AddTween. If the
// target system dies, the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float32
	target *ParticleSystem
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. If the target system is dead, Done is set and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDead() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

func tweenVec3(g *TweenGroup, v *mgl32.Vec3, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g.count = 3
	for i := 0; i < 3; i++ {
		g.tweens[i] = gween.New(v[i], to[i], duration, fn)
		g.fields[i] = &v[i]
	}
	return g
}

// TweenPosition moves a system's emitter position to `to` over duration
// seconds. Sticky particles and LOD follow the animated position.
func TweenPosition(ps *ParticleSystem, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenVec3(&TweenGroup{target: ps}, &ps.position, to, duration, fn)
}

// TweenWind changes a system's wind velocity to `to` over duration seconds.
func TweenWind(ps *ParticleSystem, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return tweenVec3(&TweenGroup{target: ps}, &ps.wind, to, duration, fn)
}

// TweenAmbient animates the scene's ambient light color.
func TweenAmbient(s *Scene, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 4}
	g.tweens[0] = gween.New(s.Ambient.R, to.R, duration, fn)
	g.tweens[1] = gween.New(s.Ambient.G, to.G, duration, fn)
	g.tweens[2] = gween.New(s.Ambient.B, to.B, duration, fn)
	g.tweens[3] = gween.New(s.Ambient.A, to.A, duration, fn)
	g.fields[0] = &s.Ambient.R
	g.fields[1] = &s.Ambient.G
	g.fields[2] = &s.Ambient.B
	g.fields[3] = &s.Ambient.A
	return g
}
