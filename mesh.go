package ember

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MeshProvider exposes the geometry of a placed shape to MeshEmitter.
// Vertex positions are in shape space; the emitter multiplies them by
// ShapeScale and then maps them with TransformVertex, which applies the
// shape's rotation and translation but not its scale.
type MeshProvider interface {
	ShapeInstance() *ShapeInstance
	CurrentDetailLevel() int
	TransformVertex(p mgl32.Vec3) mgl32.Vec3
	ShapePosition() mgl32.Vec3
	ShapeScale() mgl32.Vec3
}

// ShapeInstance is renderable geometry with one ShapeDetail per level of
// detail, highest detail first.
type ShapeInstance struct {
	Details []ShapeDetail
}

// Detail returns the detail level lvl, clamped to the available range.
// Returns nil for a shape without details.
func (si *ShapeInstance) Detail(lvl int) *ShapeDetail {
	if si == nil || len(si.Details) == 0 {
		return nil
	}
	if lvl < 0 {
		lvl = 0
	}
	if lvl >= len(si.Details) {
		lvl = len(si.Details) - 1
	}
	return &si.Details[lvl]
}

// ShapeDetail is the set of meshes drawn at one level of detail.
type ShapeDetail struct {
	Meshes []*ShapeMesh
}

// Primitive is a triangle list: Count indices starting at Start.
type Primitive struct {
	Start, Count int
}

// ShapeMesh is one indexed triangle mesh. Skinned meshes carry their current
// deformed positions in Vertices; the host rewrites them as the skeleton
// animates and must call InvalidateBounds afterwards.
type ShapeMesh struct {
	Skinned    bool
	Vertices   []mgl32.Vec3
	Normals    []mgl32.Vec3 // per vertex; may be empty
	Primitives []Primitive
	Indices    []uint32

	bounds      Box3
	boundsDirty bool
}

// TriangleCount returns the number of whole triangles across primitives.
func (m *ShapeMesh) TriangleCount() int {
	n := 0
	for _, p := range m.Primitives {
		n += p.Count / 3
	}
	return n
}

// Triangle returns the three vertex indices of the triangle whose first
// index sits at Indices[first]. ok is false when any index is out of range.
func (m *ShapeMesh) Triangle(first int) (i0, i1, i2 uint32, ok bool) {
	if first < 0 || first+2 >= len(m.Indices) {
		return 0, 0, 0, false
	}
	i0, i1, i2 = m.Indices[first], m.Indices[first+1], m.Indices[first+2]
	n := uint32(len(m.Vertices))
	return i0, i1, i2, i0 < n && i1 < n && i2 < n
}

// VertexNormal returns the normal of vertex i, or the zero vector when the
// mesh has no normals.
func (m *ShapeMesh) VertexNormal(i uint32) mgl32.Vec3 {
	if int(i) < len(m.Normals) {
		return m.Normals[i]
	}
	return mgl32.Vec3{}
}

// InvalidateBounds marks the cached bounds as needing recomputation.
// Call this after modifying Vertices.
func (m *ShapeMesh) InvalidateBounds() {
	m.boundsDirty = true
}

// Bounds returns the shape-space bounding box of the vertices.
func (m *ShapeMesh) Bounds() Box3 {
	if m.boundsDirty || (m.bounds == Box3{} && len(m.Vertices) > 0) {
		m.bounds = computeMeshBounds(m.Vertices)
		m.boundsDirty = false
	}
	return m.bounds
}

func computeMeshBounds(verts []mgl32.Vec3) Box3 {
	if len(verts) == 0 {
		return Box3{}
	}
	b := EmptyBox()
	for _, v := range verts {
		b.Extend(v, 0)
	}
	return b
}

// NewTriangleMesh builds a static mesh from a flat triangle list: every
// three positions form one triangle. Normals are the face normals.
func NewTriangleMesh(positions []mgl32.Vec3) *ShapeMesh {
	n := len(positions) / 3 * 3
	m := &ShapeMesh{
		Vertices:   make([]mgl32.Vec3, n),
		Normals:    make([]mgl32.Vec3, n),
		Indices:    make([]uint32, n),
		Primitives: []Primitive{{Start: 0, Count: n}},
	}
	copy(m.Vertices, positions[:n])
	for i := 0; i < n; i += 3 {
		fn := safeNormalize(positions[i+1].Sub(positions[i]).Cross(positions[i+2].Sub(positions[i])))
		for k := 0; k < 3; k++ {
			m.Normals[i+k] = fn
			m.Indices[i+k] = uint32(i + k)
		}
	}
	return m
}

// NewBoxMesh builds an axis-aligned box with the given half extents, with
// outward face normals.
func NewBoxMesh(half mgl32.Vec3) *ShapeMesh {
	x, y, z := half[0], half[1], half[2]
	faces := [6][4]mgl32.Vec3{
		{{x, -y, -z}, {x, y, -z}, {x, y, z}, {x, -y, z}},     // +X
		{{-x, y, -z}, {-x, -y, -z}, {-x, -y, z}, {-x, y, z}}, // -X
		{{x, y, -z}, {-x, y, -z}, {-x, y, z}, {x, y, z}},     // +Y
		{{-x, -y, -z}, {x, -y, -z}, {x, -y, z}, {-x, -y, z}}, // -Y
		{{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z}},     // +Z
		{{-x, y, -z}, {x, y, -z}, {x, -y, -z}, {-x, -y, -z}}, // -Z
	}
	normals := [6]mgl32.Vec3{unitX, unitX.Mul(-1), unitY, unitY.Mul(-1), unitZ, unitZ.Mul(-1)}

	m := &ShapeMesh{
		Vertices: make([]mgl32.Vec3, 0, 24),
		Normals:  make([]mgl32.Vec3, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for f, quad := range faces {
		base := uint32(len(m.Vertices))
		for _, v := range quad {
			m.Vertices = append(m.Vertices, v)
			m.Normals = append(m.Normals, normals[f])
		}
		m.Indices = append(m.Indices,
			base+0, base+1, base+2,
			base+0, base+2, base+3,
		)
	}
	m.Primitives = []Primitive{{Start: 0, Count: len(m.Indices)}}
	return m
}

// ShapeObject places a ShapeInstance in the world. It is the MeshProvider
// hosts use for static props.
type ShapeObject struct {
	Name        string
	Shape       *ShapeInstance
	Position    mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
	DetailLevel int
}

// NewShapeObject returns an unrotated, unscaled object at the origin.
func NewShapeObject(name string, shape *ShapeInstance) *ShapeObject {
	return &ShapeObject{
		Name:     name,
		Shape:    shape,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (o *ShapeObject) ShapeInstance() *ShapeInstance { return o.Shape }
func (o *ShapeObject) CurrentDetailLevel() int       { return o.DetailLevel }
func (o *ShapeObject) ShapePosition() mgl32.Vec3     { return o.Position }
func (o *ShapeObject) ShapeScale() mgl32.Vec3        { return o.Scale }

// TransformVertex rotates p and translates it to the object position.
func (o *ShapeObject) TransformVertex(p mgl32.Vec3) mgl32.Vec3 {
	return o.Rotation.Rotate(p).Add(o.Position)
}

// WorldBox returns the world bounds of the current detail level.
func (o *ShapeObject) WorldBox() Box3 {
	d := o.Shape.Detail(o.DetailLevel)
	if d == nil {
		return EmptyBox()
	}
	box := EmptyBox()
	for _, m := range d.Meshes {
		b := m.Bounds()
		if len(m.Vertices) == 0 {
			continue
		}
		// Transform all eight corners.
		for c := 0; c < 8; c++ {
			corner := b.Min
			if c&1 != 0 {
				corner[0] = b.Max[0]
			}
			if c&2 != 0 {
				corner[1] = b.Max[1]
			}
			if c&4 != 0 {
				corner[2] = b.Max[2]
			}
			box.Extend(o.TransformVertex(mulVec3(corner, o.Scale)), 0)
		}
	}
	return box
}

// mulVec3 multiplies component-wise.
func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
