package ember

import (
	"fmt"
	"log"
	"sort"

	"gopkg.in/yaml.v3"
)

// DatablockSet holds named datablocks parsed from one YAML document:
//
//	emitters:
//	  sparkEmitter: {type: sphere, ejectionVelocity: 4, thetaMax: 30}
//	renderers:
//	  sparkRenderer: {type: billboard, blend: additive}
//	behaviors:
//	  follow: {type: sticky, priority: 1}
//	systems:
//	  sparks:
//	    particlesPerSecond: 120
//	    emitter: sparkEmitter
//	    renderer: sparkRenderer
//	    behaviors: [follow]
//
// Systems reference the other sections by name. A system that omits a
// reference keeps the default emitter or renderer. Every parsed datablock is
// validated.
type DatablockSet struct {
	Emitters  map[string]EmitterConfig
	Renderers map[string]RendererConfig
	Behaviors map[string]BehaviorConfig
	Systems   map[string]*SystemConfig

	// Clamped counts the fields Validate had to fix.
	Clamped int
}

// System returns the named system config.
func (d *DatablockSet) System(name string) (*SystemConfig, bool) {
	c, ok := d.Systems[name]
	return c, ok
}

// SystemNames returns the system names in sorted order.
func (d *DatablockSet) SystemNames() []string {
	names := make([]string, 0, len(d.Systems))
	for n := range d.Systems {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type datablockDoc struct {
	Emitters  map[string]yaml.Node `yaml:"emitters"`
	Renderers map[string]yaml.Node `yaml:"renderers"`
	Behaviors map[string]yaml.Node `yaml:"behaviors"`
	Systems   map[string]yaml.Node `yaml:"systems"`
}

type typeProbe struct {
	Type string `yaml:"type"`
}

type systemRefs struct {
	Emitter   string   `yaml:"emitter"`
	Renderer  string   `yaml:"renderer"`
	Behaviors []string `yaml:"behaviors"`
}

// ParseDatablocks parses a YAML datablock document. Unknown datablock types
// are errors; dangling references from systems are logged and leave the
// reference nil, so the system exists but draws or emits nothing.
func ParseDatablocks(data []byte) (*DatablockSet, error) {
	var doc datablockDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ember: failed to parse datablocks: %w", err)
	}

	set := &DatablockSet{
		Emitters:  make(map[string]EmitterConfig, len(doc.Emitters)),
		Renderers: make(map[string]RendererConfig, len(doc.Renderers)),
		Behaviors: make(map[string]BehaviorConfig, len(doc.Behaviors)),
		Systems:   make(map[string]*SystemConfig, len(doc.Systems)),
	}

	for _, name := range sortedKeys(doc.Emitters) {
		node := doc.Emitters[name]
		c, err := decodeEmitter(name, &node)
		if err != nil {
			return nil, err
		}
		set.Clamped += c.Validate()
		set.Emitters[name] = c
	}
	for _, name := range sortedKeys(doc.Renderers) {
		node := doc.Renderers[name]
		c, err := decodeRenderer(name, &node)
		if err != nil {
			return nil, err
		}
		set.Clamped += c.Validate()
		set.Renderers[name] = c
	}
	for _, name := range sortedKeys(doc.Behaviors) {
		node := doc.Behaviors[name]
		c, err := decodeBehavior(name, &node)
		if err != nil {
			return nil, err
		}
		set.Clamped += c.Validate()
		set.Behaviors[name] = c
	}
	for _, name := range sortedKeys(doc.Systems) {
		node := doc.Systems[name]
		c, err := set.decodeSystem(name, &node)
		if err != nil {
			return nil, err
		}
		set.Clamped += c.Validate()
		set.Systems[name] = c
	}
	return set, nil
}

func sortedKeys(m map[string]yaml.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func probeType(section, name string, node *yaml.Node) (string, error) {
	var p typeProbe
	if err := node.Decode(&p); err != nil {
		return "", fmt.Errorf("ember: failed to decode %s %q: %w", section, name, err)
	}
	return p.Type, nil
}

func decodeEmitter(name string, node *yaml.Node) (EmitterConfig, error) {
	typ, err := probeType("emitter", name, node)
	if err != nil {
		return nil, err
	}
	var c EmitterConfig
	switch typ {
	case "sphere", "":
		sc := DefaultSphereEmitterConfig()
		sc.Name = name
		c = sc
	case "mesh":
		c = &MeshEmitterConfig{Name: name}
	default:
		return nil, fmt.Errorf("ember: failed to decode emitter %q: unknown type %q", name, typ)
	}
	if err := node.Decode(c); err != nil {
		return nil, fmt.Errorf("ember: failed to decode emitter %q: %w", name, err)
	}
	return c, nil
}

func decodeRenderer(name string, node *yaml.Node) (RendererConfig, error) {
	typ, err := probeType("renderer", name, node)
	if err != nil {
		return nil, err
	}
	switch typ {
	case "billboard", "":
	default:
		return nil, fmt.Errorf("ember: failed to decode renderer %q: unknown type %q", name, typ)
	}
	c := DefaultBillboardRendererConfig()
	c.Name = name
	if err := node.Decode(c); err != nil {
		return nil, fmt.Errorf("ember: failed to decode renderer %q: %w", name, err)
	}
	return c, nil
}

func decodeBehavior(name string, node *yaml.Node) (BehaviorConfig, error) {
	typ, err := probeType("behavior", name, node)
	if err != nil {
		return nil, err
	}
	var c BehaviorConfig
	switch typ {
	case "sticky":
		c = &StickyConfig{Name: name}
	case "attraction":
		c = &AttractionConfig{Name: name}
	case "speedLimit":
		c = &SpeedLimitConfig{Name: name}
	default:
		return nil, fmt.Errorf("ember: failed to decode behavior %q: unknown type %q", name, typ)
	}
	if err := node.Decode(c); err != nil {
		return nil, fmt.Errorf("ember: failed to decode behavior %q: %w", name, err)
	}
	return c, nil
}

func (d *DatablockSet) decodeSystem(name string, node *yaml.Node) (*SystemConfig, error) {
	c := DefaultSystemConfig()
	c.Name = name
	if err := node.Decode(c); err != nil {
		return nil, fmt.Errorf("ember: failed to decode system %q: %w", name, err)
	}
	var refs systemRefs
	if err := node.Decode(&refs); err != nil {
		return nil, fmt.Errorf("ember: failed to decode system %q: %w", name, err)
	}

	if refs.Emitter != "" {
		e, ok := d.Emitters[refs.Emitter]
		if !ok {
			log.Printf("ember: system %q: emitter %q not found", name, refs.Emitter)
		}
		c.Emitter = e
	}
	if refs.Renderer != "" {
		r, ok := d.Renderers[refs.Renderer]
		if !ok {
			log.Printf("ember: system %q: renderer %q not found", name, refs.Renderer)
		}
		c.Renderer = r
	}
	for _, bn := range refs.Behaviors {
		b, ok := d.Behaviors[bn]
		if !ok {
			log.Printf("ember: system %q: behavior %q not found", name, bn)
			continue
		}
		c.Behaviors = append(c.Behaviors, b)
	}
	return c, nil
}

// UnmarshalYAML decodes a blend style from its name.
func (b *BlendStyle) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, ok := ParseBlendStyle(s)
	if !ok {
		return fmt.Errorf("unknown blend style %q", s)
	}
	*b = v
	return nil
}

// MarshalYAML encodes a blend style as its name.
func (b BlendStyle) MarshalYAML() (any, error) {
	return b.String(), nil
}
