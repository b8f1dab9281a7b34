package ember

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// maxMeshTries bounds rejection sampling of meshes and primitives.
const maxMeshTries = 16

// emitFace is one entry of the area-weighted face cache.
type emitFace struct {
	mesh  int     // index into the detail's Meshes
	first int     // index into the mesh's Indices of the triangle's first vertex
	area  float64 // scaled area
}

type faceRange struct {
	start, end int
}

// MeshEmitter emits from the vertices or faces of a mesh provider looked up
// by name or numeric ID. The provider is resolved on every emission, so it may be
// registered late, replaced or removed while the system runs.
type MeshEmitter struct {
	cfg *MeshEmitterConfig
	sys *ParticleSystem

	provider MeshProvider
	shape    *ShapeInstance
	detail   int
	warned   bool

	emitfaces   []emitFace
	faceRanges  []faceRange // per mesh, into emitfaces
	vertexCount int
	mainTime    int // vertex cursor

	skinned, static []int
}

func newMeshEmitter(cfg *MeshEmitterConfig, sys *ParticleSystem) *MeshEmitter {
	return &MeshEmitter{cfg: cfg, sys: sys, detail: -1}
}

// weightedFaces returns the area-weighted face cache: each triangle appears
// round(area/averageArea) times, at least once. Valid until the next rebuild.
func (e *MeshEmitter) weightedFaces() []emitFace {
	return e.emitfaces
}

// VertexCount returns the vertex count of the bound detail level.
func (e *MeshEmitter) VertexCount() int {
	return e.vertexCount
}

// AddParticle emits one particle from the mesh. pos is ignored; the mesh
// decides placement and direction.
func (e *MeshEmitter) AddParticle(pos, axis, vel, axisx mgl32.Vec3) bool {
	if !e.bind() {
		return false
	}
	pool := e.sys.pool
	if pool.Count() >= pool.Capacity() {
		return false
	}
	d := e.shape.Detail(e.detail)

	var local, normal mgl32.Vec3
	var ok bool
	if e.cfg.EmitOnFaces {
		local, normal, ok = e.sampleFace(d)
	} else {
		local, normal, ok = e.sampleVertex(d)
	}
	if !ok {
		return false
	}

	local = mulVec3(local, e.provider.ShapeScale())
	world := e.provider.TransformVertex(local)
	n := safeNormalize(e.provider.TransformVertex(local.Add(normal)).Sub(world))
	if n.Len() == 0 {
		n = axis
	}

	rng := e.sys.rng
	c := e.cfg
	speed := c.EjectionVelocity + c.VelocityVariance*(2*randF(rng)-1)
	offset := c.EjectionOffset + c.EjectionOffsetVariance*(2*randF(rng)-1)

	p := pool.AddParticle()
	p.Pos = world.Add(n.Mul(offset))
	p.RelPos = p.Pos.Sub(e.provider.ShapePosition())
	p.Vel = n.Mul(speed)
	p.OrientDir = n
	e.sys.initParticle(p, vel)
	return true
}

// bind resolves the provider on every call, so an unregistered mesh stops
// emission and a name moved to another object rebinds to it. The face cache
// is rebuilt whenever what it was built from changes.
func (e *MeshEmitter) bind() bool {
	mp, ok := e.resolve()
	if !ok {
		e.provider, e.shape = nil, nil
		return false
	}
	si := mp.ShapeInstance()
	if si == nil {
		e.provider, e.shape = nil, nil
		return false
	}
	lvl := mp.CurrentDetailLevel()
	if mp != e.provider || si != e.shape || lvl != e.detail {
		e.provider = mp
		e.shape = si
		e.detail = lvl
		e.loadFaces()
	}
	return e.vertexCount > 0
}

func (e *MeshEmitter) resolve() (MeshProvider, bool) {
	var obj any
	ok := false
	if e.sys.env.Objects != nil {
		obj, ok = e.sys.env.Objects.Resolve(e.cfg.Mesh)
	}
	mp, isProvider := obj.(MeshProvider)
	if !ok || !isProvider {
		if !e.warned {
			log.Printf("ember: particle system %q: mesh %q not found, emission ignored", e.sys.Name, e.cfg.Mesh)
			e.warned = true
		}
		return nil, false
	}
	e.warned = false
	return mp, true
}

// loadFaces rebuilds the area-weighted face cache for the bound detail level.
func (e *MeshEmitter) loadFaces() {
	e.emitfaces = e.emitfaces[:0]
	e.faceRanges = e.faceRanges[:0]
	e.vertexCount = 0
	e.mainTime = 0

	d := e.shape.Detail(e.detail)
	if d == nil {
		return
	}
	scale := e.provider.ShapeScale()

	var faces []emitFace
	var total float64
	for mi, m := range d.Meshes {
		e.vertexCount += len(m.Vertices)
		for _, prim := range m.Primitives {
			for j := prim.Start; j+2 < prim.Start+prim.Count; j += 3 {
				i0, i1, i2, ok := m.Triangle(j)
				if !ok {
					continue
				}
				area := heronArea(
					mulVec3(m.Vertices[i0], scale),
					mulVec3(m.Vertices[i1], scale),
					mulVec3(m.Vertices[i2], scale),
				)
				faces = append(faces, emitFace{mesh: mi, first: j, area: area})
				total += area
			}
		}
	}

	e.faceRanges = append(e.faceRanges, make([]faceRange, len(d.Meshes))...)
	if len(faces) == 0 {
		return
	}
	avg := total / float64(len(faces))
	for mi := range e.faceRanges {
		e.faceRanges[mi] = faceRange{start: -1}
	}
	for _, f := range faces {
		n := 1
		if avg > 0 {
			n = max(int(math.Round(f.area/avg)), 1)
		}
		r := &e.faceRanges[f.mesh]
		if r.start < 0 {
			r.start = len(e.emitfaces)
		}
		for k := 0; k < n; k++ {
			e.emitfaces = append(e.emitfaces, f)
		}
		r.end = len(e.emitfaces)
	}
	for mi := range e.faceRanges {
		if e.faceRanges[mi].start < 0 {
			e.faceRanges[mi] = faceRange{}
		}
	}
}

// sampleVertex walks a cursor over every vertex of the detail level. With
// EvenEmission the cursor jumps to a random vertex first. The cursor
// advances once per call and wraps to 0 at the vertex count.
func (e *MeshEmitter) sampleVertex(d *ShapeDetail) (pos, normal mgl32.Vec3, ok bool) {
	if e.cfg.EvenEmission {
		e.mainTime = randIndex(e.sys.rng, e.vertexCount)
	} else if e.mainTime >= e.vertexCount {
		e.mainTime = 0
	}
	idx := e.mainTime
	e.mainTime++
	for _, m := range d.Meshes {
		if idx < len(m.Vertices) {
			return m.Vertices[idx], m.VertexNormal(uint32(idx)), true
		}
		idx -= len(m.Vertices)
	}
	return pos, normal, false
}

// sampleFace picks skinned or static meshes for this particle, a mesh of
// that kind, then a triangle: from the weighted cache with EvenEmission,
// else a random triangle of a random primitive.
func (e *MeshEmitter) sampleFace(d *ShapeDetail) (pos, normal mgl32.Vec3, ok bool) {
	rng := e.sys.rng
	e.skinned, e.static = e.skinned[:0], e.static[:0]
	for mi, m := range d.Meshes {
		if m.TriangleCount() == 0 {
			continue
		}
		if m.Skinned {
			e.skinned = append(e.skinned, mi)
		} else {
			e.static = append(e.static, mi)
		}
	}
	total := len(e.skinned) + len(e.static)
	if total == 0 {
		return pos, normal, false
	}
	wantSkinned := randIndex(rng, total) < len(e.skinned)

	mi, found := -1, false
	for try := 0; try < maxMeshTries; try++ {
		cand := randIndex(rng, len(d.Meshes))
		m := d.Meshes[cand]
		if m.Skinned == wantSkinned && m.TriangleCount() > 0 {
			mi, found = cand, true
			break
		}
	}
	if !found {
		if wantSkinned {
			mi = e.skinned[0]
		} else {
			mi = e.static[0]
		}
	}
	m := d.Meshes[mi]

	first := -1
	if e.cfg.EvenEmission {
		if mi < len(e.faceRanges) {
			r := e.faceRanges[mi]
			if r.end > r.start {
				first = e.emitfaces[r.start+randIndex(rng, r.end-r.start)].first
			}
		}
	} else {
		for try := 0; try < maxMeshTries; try++ {
			prim := m.Primitives[randIndex(rng, len(m.Primitives))]
			if prim.Count >= 3 {
				first = prim.Start + 3*randIndex(rng, prim.Count/3)
				break
			}
		}
	}
	if first < 0 {
		return pos, normal, false
	}
	return pointOnTriangle(m, first, randF(rng), randF(rng))
}

// pointOnTriangle maps (r1, r2) in the unit square onto the triangle,
// folding points past the diagonal back inside.
func pointOnTriangle(m *ShapeMesh, first int, r1, r2 float32) (pos, normal mgl32.Vec3, ok bool) {
	i0, i1, i2, ok := m.Triangle(first)
	if !ok {
		return pos, normal, false
	}
	if r1+r2 > 1 {
		r1, r2 = 1-r1, 1-r2
	}
	v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]
	pos = v0.Add(v1.Sub(v0).Mul(r1)).Add(v2.Sub(v0).Mul(r2))

	normal = safeNormalize(m.VertexNormal(i0).Add(m.VertexNormal(i1)).Add(m.VertexNormal(i2)))
	if normal.Len() == 0 {
		normal = safeNormalize(v1.Sub(v0).Cross(v2.Sub(v0)))
	}
	return pos, normal, true
}

// heronArea returns the area of the triangle from its three side lengths.
func heronArea(p1, p2, p3 mgl32.Vec3) float64 {
	a := dist64(p1, p2)
	b := dist64(p2, p3)
	c := dist64(p3, p1)
	s := (a + b + c) / 2
	v := s * (s - a) * (s - b) * (s - c)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func dist64(a, b mgl32.Vec3) float64 {
	dx := float64(a[0]) - float64(b[0])
	dy := float64(a[1]) - float64(b[1])
	dz := float64(a[2]) - float64(b[2])
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
