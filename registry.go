package ember

import (
	"log"
	"reflect"
	"strconv"
)

// Registry maps names and numeric IDs to host objects. IDs start at 1 and
// are never reused. A reference that parses as an unsigned integer is looked
// up by ID, anything else by name.
type Registry struct {
	nextID uint32
	byID   map[uint32]registryEntry
	byName map[string]uint32
}

type registryEntry struct {
	name string
	obj  any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint32]registryEntry),
		byName: make(map[string]uint32),
	}
}

// Register stores obj under name and returns its new ID. An empty name
// registers the object by ID only. Registering a name twice moves the name
// to the newer object. obj must be comparable, typically a pointer; Register
// panics on nil or on maps, slices and funcs.
func (r *Registry) Register(name string, obj any) uint32 {
	if !comparableObject(obj) {
		panic("ember: Registry.Register requires a non-nil comparable object")
	}
	r.nextID++
	id := r.nextID
	r.byID[id] = registryEntry{name: name, obj: obj}
	if name != "" {
		if prev, ok := r.byName[name]; ok && globalDebug {
			log.Printf("ember: registry name %q moved from id %d to id %d", name, prev, id)
		}
		r.byName[name] = id
	}
	return id
}

// Unregister removes obj. Reports whether it was registered.
func (r *Registry) Unregister(obj any) bool {
	if !comparableObject(obj) {
		return false
	}
	for id, e := range r.byID {
		if e.obj != obj {
			continue
		}
		delete(r.byID, id)
		if e.name != "" && r.byName[e.name] == id {
			delete(r.byName, e.name)
		}
		return true
	}
	return false
}

// Resolve looks ref up by numeric ID or by name.
func (r *Registry) Resolve(ref string) (any, bool) {
	if ref == "" {
		return nil, false
	}
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		e, ok := r.byID[uint32(id)]
		return e.obj, ok
	}
	id, ok := r.byName[ref]
	if !ok {
		return nil, false
	}
	return r.byID[id].obj, true
}

// ID returns the ID obj was registered under.
func (r *Registry) ID(obj any) (uint32, bool) {
	if !comparableObject(obj) {
		return 0, false
	}
	for id, e := range r.byID {
		if e.obj == obj {
			return id, true
		}
	}
	return 0, false
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	return len(r.byID)
}

func comparableObject(obj any) bool {
	return obj != nil && reflect.ValueOf(obj).Comparable()
}
