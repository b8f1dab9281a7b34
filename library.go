package ember

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
)

// libraryObject is the gdata object that stores datablock sources.
const libraryObject = "datablocks"

// DatablockLibrary stores named YAML datablock documents. It persists them
// with gdata when the platform storage can be opened and otherwise keeps
// them in memory for the life of the process.
type DatablockLibrary struct {
	manager *gdata.Manager // nil in memory-only mode
	mem     map[string][]byte
	cache   map[string]*DatablockSet
}

// OpenDatablockLibrary opens the library for appName. It never returns nil:
// when gdata cannot open its storage the library logs a warning and runs in
// memory-only mode.
func OpenDatablockLibrary(appName string) *DatablockLibrary {
	lib := &DatablockLibrary{
		mem:   make(map[string][]byte),
		cache: make(map[string]*DatablockSet),
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("ember: datablock library %q: storage unavailable, keeping datablocks in memory: %v", appName, err)
		return lib
	}
	lib.manager = m
	return lib
}

// NewMemoryLibrary returns a library that never touches disk.
func NewMemoryLibrary() *DatablockLibrary {
	return &DatablockLibrary{
		mem:   make(map[string][]byte),
		cache: make(map[string]*DatablockSet),
	}
}

// Persistent reports whether the library writes to disk.
func (l *DatablockLibrary) Persistent() bool {
	return l.manager != nil
}

// Save parses source to make sure it is a valid datablock document and
// stores it under name.
func (l *DatablockLibrary) Save(name string, source []byte) error {
	set, err := ParseDatablocks(source)
	if err != nil {
		return fmt.Errorf("ember: failed to save datablocks %q: %w", name, err)
	}
	if l.manager != nil {
		if err := l.manager.SaveObjectProp(libraryObject, name, source); err != nil {
			return fmt.Errorf("ember: failed to save datablocks %q: %w", name, err)
		}
	} else {
		l.mem[name] = append([]byte(nil), source...)
	}
	l.cache[name] = set
	return nil
}

// Exists reports whether name has been saved.
func (l *DatablockLibrary) Exists(name string) bool {
	if l.manager != nil {
		return l.manager.ObjectPropExists(libraryObject, name)
	}
	_, ok := l.mem[name]
	return ok
}

// Load returns the parsed datablocks saved under name. Parsed sets are
// cached, so every caller shares the same configs.
func (l *DatablockLibrary) Load(name string) (*DatablockSet, error) {
	if set, ok := l.cache[name]; ok {
		return set, nil
	}
	src, err := l.source(name)
	if err != nil {
		return nil, err
	}
	set, err := ParseDatablocks(src)
	if err != nil {
		return nil, fmt.Errorf("ember: failed to load datablocks %q: %w", name, err)
	}
	l.cache[name] = set
	return set, nil
}

func (l *DatablockLibrary) source(name string) ([]byte, error) {
	if l.manager == nil {
		src, ok := l.mem[name]
		if !ok {
			return nil, fmt.Errorf("ember: failed to load datablocks %q: not found", name)
		}
		return src, nil
	}
	if !l.manager.ObjectPropExists(libraryObject, name) {
		return nil, fmt.Errorf("ember: failed to load datablocks %q: not found", name)
	}
	src, err := l.manager.LoadObjectProp(libraryObject, name)
	if err != nil {
		return nil, fmt.Errorf("ember: failed to load datablocks %q: %w", name, err)
	}
	return src, nil
}
