// Package ember is a 3D particle simulation and rendering library for
// [Ebitengine].
//
// A [ParticleSystem] owns a fixed-capacity [ParticlePool], an [Emitter]
// that creates particles, up to eight [Behavior]s that run inside the
// integrator, and a [Renderer] that turns the pool into camera-facing quads.
// Systems are configured with shared, validated datablocks ([SystemConfig],
// [SphereEmitterConfig], [MeshEmitterConfig], [BillboardRendererConfig])
// that can be written in Go or loaded from YAML with [ParseDatablocks].
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := ember.NewScene(ember.Rect{Width: 800, Height: 600})
//	sparks := scene.NewParticleSystem("sparks", ember.DefaultSystemConfig())
//	scene.SetUpdateFunc(func() error {
//		sparks.EmitParticles(from, to, axis, vel, 1000/60.0)
//		return nil
//	})
//	ember.Run(scene, ember.RunConfig{Title: "Sparks", Width: 800, Height: 600})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly.
//
// # Time
//
// Every duration is in milliseconds. The host calls
// [ParticleSystem.EmitParticles] with the span of time the emitter moved
// over, and the scene calls [ParticleSystem.AdvanceTime] once per tick.
// Emission carries fractional time across calls so particles stay evenly
// spaced at any call rate. Distant systems may integrate less often
// (simulation LOD) but never lose simulated time.
//
// # World
//
// The world is Z-up. Vectors are [mgl32.Vec3]; gravity defaults to
// (0, 0, -9.81).
//
// # Rendering
//
// Each frame the scene asks every registered system for a [RenderInstance]
// and queues it in a [RenderBin], which sorts instances back to front and
// projects their world-space quads through the [Camera] into a single
// DrawTriangles32 call per instance.
//
// ECS integration lives in the ember/ecs submodule (via [Donburi]).
//
// [Ebitengine]: https://ebitengine.org
// [mgl32.Vec3]: https://pkg.go.dev/github.com/go-gl/mathgl/mgl32#Vec3
// [Donburi]: https://github.com/yohamta/donburi
package ember
