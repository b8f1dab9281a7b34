// Package ecs provides ECS hosting for ember particle systems.
package ecs

import (
	"github.com/phanxgames/ember"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// SystemData is the component attached to every hosted particle system.
type SystemData struct {
	System *ember.ParticleSystem
}

// SystemComponent marks entities that carry a particle system.
var SystemComponent = donburi.NewComponentType[SystemData]()

// SystemRegisteredEvent is published when a particle system first emits and
// joins the world.
type SystemRegisteredEvent struct {
	Entity donburi.Entity
	System *ember.ParticleSystem
}

// SystemDeadEvent is published when a hosted system dies. The entity has
// already been removed.
type SystemDeadEvent struct {
	Entity donburi.Entity
	Name   string
	Stats  ember.SystemStats
}

// SystemRegisteredEventType carries SystemRegisteredEvent.
var SystemRegisteredEventType = events.NewEventType[SystemRegisteredEvent]()

// SystemDeadEventType carries SystemDeadEvent.
var SystemDeadEventType = events.NewEventType[SystemDeadEvent]()

var systemQuery = donburi.NewQuery(filter.Contains(SystemComponent))

// DonburiHost stores registered particle systems as entities. Scene objects
// and processors that are not particle systems are kept in plain lists and
// ticked and drawn alongside them.
type DonburiHost struct {
	world    donburi.World
	entities map[*ember.ParticleSystem]donburi.Entity

	objects    []ember.SceneObject
	processors []ember.Processor

	dead []hostedSystem
}

type hostedSystem struct {
	entity donburi.Entity
	system *ember.ParticleSystem
}

// NewDonburiHost creates a host that adds entities to world.
func NewDonburiHost(world donburi.World) *DonburiHost {
	return &DonburiHost{
		world:    world,
		entities: make(map[*ember.ParticleSystem]donburi.Entity),
	}
}

// Environment returns an ember.Environment that registers with this host.
// objects and camera may be nil.
func (h *DonburiHost) Environment(objects ember.ObjectResolver, camera ember.CameraSource) ember.Environment {
	return ember.Environment{Scene: h, Objects: objects, Camera: camera}
}

// AddObjectToScene implements ember.SceneRegistrar.
func (h *DonburiHost) AddObjectToScene(obj ember.SceneObject) {
	if ps, ok := obj.(*ember.ParticleSystem); ok {
		h.addSystem(ps)
		return
	}
	for _, o := range h.objects {
		if o == obj {
			return
		}
	}
	h.objects = append(h.objects, obj)
}

// AddToProcessList implements ember.SceneRegistrar.
func (h *DonburiHost) AddToProcessList(p ember.Processor) {
	if ps, ok := p.(*ember.ParticleSystem); ok {
		h.addSystem(ps)
		return
	}
	for _, q := range h.processors {
		if q == p {
			return
		}
	}
	h.processors = append(h.processors, p)
}

func (h *DonburiHost) addSystem(ps *ember.ParticleSystem) {
	if _, ok := h.entities[ps]; ok {
		return
	}
	e := h.world.Create(SystemComponent)
	SystemComponent.SetValue(h.world.Entry(e), SystemData{System: ps})
	h.entities[ps] = e
	SystemRegisteredEventType.Publish(h.world, SystemRegisteredEvent{Entity: e, System: ps})
}

// Entity returns the entity hosting ps.
func (h *DonburiHost) Entity(ps *ember.ParticleSystem) (donburi.Entity, bool) {
	e, ok := h.entities[ps]
	return e, ok
}

// Count returns the number of hosted particle systems.
func (h *DonburiHost) Count() int {
	return len(h.entities)
}

// Update advances every hosted system and processor by ms milliseconds, then
// removes dead systems from the world and publishes a SystemDeadEvent for
// each.
func (h *DonburiHost) Update(ms float64) {
	h.dead = h.dead[:0]
	systemQuery.Each(h.world, func(entry *donburi.Entry) {
		ps := SystemComponent.Get(entry).System
		ps.AdvanceTime(ms)
		if ps.IsDead() {
			h.dead = append(h.dead, hostedSystem{entry.Entity(), ps})
		}
	})
	// Entities are removed after the query so iteration stays valid.
	for _, d := range h.dead {
		delete(h.entities, d.system)
		h.world.Remove(d.entity)
		SystemDeadEventType.Publish(h.world, SystemDeadEvent{Entity: d.entity, Name: d.system.Name, Stats: d.system.Stats()})
	}
	clear(h.dead)

	live := h.processors[:0]
	for _, p := range h.processors {
		p.AdvanceTime(ms)
		if !p.IsDead() {
			live = append(live, p)
		}
	}
	clear(h.processors[len(live):])
	h.processors = live
}

// PrepRenderImage hands state to every hosted system and scene object, so
// the host can be drawn as a single ember.SceneObject.
func (h *DonburiHost) PrepRenderImage(state *ember.RenderState) {
	systemQuery.Each(h.world, func(entry *donburi.Entry) {
		SystemComponent.Get(entry).System.PrepRenderImage(state)
	})
	for _, o := range h.objects {
		o.PrepRenderImage(state)
	}
}

// WorldBox returns the union of the hosted systems' bounds, or an empty box
// when none of them has any.
func (h *DonburiHost) WorldBox() ember.Box3 {
	box := ember.EmptyBox()
	systemQuery.Each(h.world, func(entry *donburi.Entry) {
		b := SystemComponent.Get(entry).System.WorldBox()
		if b.IsEmpty() {
			return
		}
		box.Extend(b.Min, 0)
		box.Extend(b.Max, 0)
	})
	return box
}
