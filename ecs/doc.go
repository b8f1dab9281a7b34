// Package ecs hosts ember particle systems inside a [Donburi] world.
//
// [NewDonburiHost] implements ember.SceneRegistrar: every particle system
// that registers with it becomes an entity carrying [SystemComponent].
// Update ticks those entities and removes them when their systems die,
// publishing [SystemRegisteredEventType] and [SystemDeadEventType] events
// that ECS systems can subscribe to.
//
// Usage:
//
//	host := ecs.NewDonburiHost(world)
//	ps := ember.NewParticleSystem("sparks", cfg, host.Environment(scene, scene.Camera()))
//	...
//	host.Update(ms)
//	ecs.SystemDeadEventType.ProcessEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
