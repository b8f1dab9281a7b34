package ember

import (
	"hash/fnv"

	"github.com/go-gl/mathgl/mgl32"
)

// PassKind identifies which image a render pass produces.
type PassKind uint8

const (
	PassDiffuse    PassKind = iota // main camera view
	PassReflection                 // planar reflection
	PassShadow                     // shadow map
)

func (k PassKind) String() string {
	switch k {
	case PassDiffuse:
		return "diffuse"
	case PassReflection:
		return "reflection"
	case PassShadow:
		return "shadow"
	}
	return "unknown"
}

// RenderPass collects render instances for one pass. Instances and their
// vertex slices belong to the renderer that produced them and stay valid
// until that renderer's next RenderPool call.
type RenderPass interface {
	AddInst(inst *RenderInstance)
}

// RenderState describes the view being rendered.
type RenderState struct {
	Kind PassKind

	CameraPosition mgl32.Vec3
	// ViewForward, Right and Up are the camera basis in world space.
	ViewForward mgl32.Vec3
	Right       mgl32.Vec3
	Up          mgl32.Vec3
	ViewProj    mgl32.Mat4

	// Ambient is the scene light color used by renderers with a non-zero
	// ambient factor.
	Ambient Color
	// LowDetail skips renderers flagged HighResOnly.
	LowDetail bool

	Pass RenderPass
}

// ParticleVertex is one corner of a particle quad in world space.
type ParticleVertex struct {
	Pos   mgl32.Vec3
	UV    mgl32.Vec2
	Color Color
}

// RenderInstance is one draw of a particle system: world-space quads plus
// the state needed to submit them.
type RenderInstance struct {
	Vertices []ParticleVertex
	Indices  []uint32
	// Count is the number of quads.
	Count int

	Transform mgl32.Mat4
	Blend     BlendStyle
	// SortKey groups instances by texture.
	SortKey uint32
	Texture string
	// SoftnessDistance is the depth range over which particles fade into
	// geometry behind them.
	SoftnessDistance float32
	// SortDistSq is the squared camera distance to the system bounds.
	SortDistSq  float32
	HighResOnly bool
}

// Renderer turns a particle pool into a RenderInstance.
type Renderer interface {
	// RenderPool fills the renderer's instance from pool and reports whether
	// there is anything to draw for state.
	RenderPool(pool *ParticlePool, state *RenderState) bool
	// Instance returns the instance filled by the last successful RenderPool.
	Instance() *RenderInstance
	// MaxSize returns the largest quad size the renderer can produce.
	MaxSize() float32
}

// textureSortKey hashes a texture name so instances sharing a texture sort
// next to each other.
func textureSortKey(name string) uint32 {
	if name == "" {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}
