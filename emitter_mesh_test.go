package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// weightedMesh holds two 3-4-5 triangles (area 6) and one 5-5-6 triangle
// (area 12), all flat on z=0 facing +Z.
func weightedMesh() *ShapeMesh {
	return NewTriangleMesh([]mgl32.Vec3{
		{0, 0, 0}, {3, 0, 0}, {0, 4, 0},
		{10, 0, 0}, {13, 0, 0}, {10, 4, 0},
		{0, 10, 0}, {6, 10, 0}, {3, 14, 0},
	})
}

func meshSystem(reg *Registry, ec *MeshEmitterConfig) *ParticleSystem {
	cfg := stillConfig(100)
	cfg.OverrideAdvance = true
	cfg.Emitter = ec
	return NewParticleSystem("mesh", cfg, Environment{Objects: reg, Rand: NewRand(1, 2)})
}

func meshEmitter(t *testing.T, ps *ParticleSystem) *MeshEmitter {
	t.Helper()
	me, ok := ps.Emitter().(*MeshEmitter)
	if !ok {
		t.Fatalf("emitter is %T, want *MeshEmitter", ps.Emitter())
	}
	return me
}

func addMesh(ps *ParticleSystem) bool {
	return ps.Emitter().AddParticle(origin, unitZ, origin, perpendicular(unitZ))
}

func TestHeronArea(t *testing.T) {
	if a := heronArea(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0}, mgl32.Vec3{0, 4, 0}); !approxEqual(a, 6, 1e-9) {
		t.Errorf("3-4-5 area = %v, want 6", a)
	}
	if a := heronArea(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{6, 0, 0}, mgl32.Vec3{3, 4, 0}); !approxEqual(a, 12, 1e-9) {
		t.Errorf("5-5-6 area = %v, want 12", a)
	}
	if a := heronArea(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0}); a != 0 {
		t.Errorf("degenerate area = %v, want 0", a)
	}
}

func TestMeshEmitterWeightedFaceCache(t *testing.T) {
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EmitOnFaces: true, EvenEmission: true})
	if !addMesh(ps) {
		t.Fatal("AddParticle failed")
	}

	faces := meshEmitter(t, ps).weightedFaces()
	want := []int{0, 3, 6, 6}
	if len(faces) != len(want) {
		t.Fatalf("cache has %d entries, want %d", len(faces), len(want))
	}
	for i, w := range want {
		if faces[i].first != w {
			t.Errorf("cache[%d] = triangle at %d, want %d", i, faces[i].first, w)
		}
	}
}

func TestMeshEmitterWeightsUseScale(t *testing.T) {
	// Scaling along X doubles every area equally, so the weights hold.
	obj := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	})
	obj.Scale = mgl32.Vec3{2, 1, 1}
	reg := NewRegistry()
	reg.Register("prop", obj)
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EmitOnFaces: true, EvenEmission: true})
	addMesh(ps)

	faces := meshEmitter(t, ps).weightedFaces()
	if len(faces) != 4 {
		t.Fatalf("cache has %d entries, want 4", len(faces))
	}
	if !approxEqual(faces[0].area, 12, 1e-9) {
		t.Errorf("scaled area = %v, want 12", faces[0].area)
	}
}

func TestMeshEmitterFacePointsOnSurface(t *testing.T) {
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EmitOnFaces: true, EjectionVelocity: 1})
	for i := 0; i < 40; i++ {
		if !addMesh(ps) {
			t.Fatalf("AddParticle %d failed", i)
		}
	}
	for i := 0; i < ps.Pool().Count(); i++ {
		p := ps.Pool().At(i)
		if abs32(p.Pos[2]) > 1e-5 {
			t.Errorf("particle %d at %v, want on z=0", i, p.Pos)
		}
		if !vecNear(p.Vel, unitZ, 1e-5) {
			t.Errorf("particle %d Vel = %v, want +Z", i, p.Vel)
		}
	}
}

func TestMeshEmitterVertexCursor(t *testing.T) {
	mesh := weightedMesh()
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{mesh}}},
	}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop"})

	for i := 0; i < 10; i++ {
		if !addMesh(ps) {
			t.Fatalf("AddParticle %d failed", i)
		}
	}
	if got := meshEmitter(t, ps).VertexCount(); got != 9 {
		t.Fatalf("VertexCount = %d, want 9", got)
	}
	// Oldest particle is At(9). The tenth wraps back to vertex 0.
	for k := 0; k < 10; k++ {
		p := ps.Pool().At(9 - k)
		want := mesh.Vertices[k%9]
		if !vecNear(p.Pos, want, 1e-5) {
			t.Errorf("particle %d at %v, want vertex %d %v", k, p.Pos, k%9, want)
		}
	}
}

func TestMeshEmitterTransform(t *testing.T) {
	obj := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{NewTriangleMesh([]mgl32.Vec3{
			{1, 0, 0}, {0, 1, 0}, {0, 0, 0},
		})}}},
	})
	obj.Position = mgl32.Vec3{10, 0, 0}
	obj.Scale = mgl32.Vec3{2, 2, 2}
	reg := NewRegistry()
	reg.Register("prop", obj)
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop"})

	addMesh(ps)
	p := ps.Pool().Head()
	if !vecNear(p.Pos, mgl32.Vec3{12, 0, 0}, 1e-5) {
		t.Errorf("Pos = %v, want (12, 0, 0)", p.Pos)
	}
	if !vecNear(p.RelPos, mgl32.Vec3{2, 0, 0}, 1e-5) {
		t.Errorf("RelPos = %v, want (2, 0, 0)", p.RelPos)
	}
}

func TestMeshEmitterRotatedNormal(t *testing.T) {
	obj := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	})
	// Tip +Z over to +Y.
	obj.Rotation = mgl32.QuatRotate(mgl32.DegToRad(-90), unitX)
	reg := NewRegistry()
	reg.Register("prop", obj)
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EjectionVelocity: 1})

	addMesh(ps)
	if v := ps.Pool().Head().Vel; !vecNear(v, unitY, 1e-5) {
		t.Errorf("Vel = %v, want +Y", v)
	}
}

func TestMeshEmitterResolvesByID(t *testing.T) {
	reg := NewRegistry()
	reg.Register("other", struct{}{})
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "2"})
	if !addMesh(ps) {
		t.Error("mesh registered as id 2 should resolve")
	}
}

func TestMeshEmitterUnresolved(t *testing.T) {
	reg := NewRegistry()
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "missing"})
	ps.EmitParticles(origin, origin, unitZ, origin, 100)

	if ps.Pool().Count() != 0 {
		t.Errorf("Count = %d, want 0", ps.Pool().Count())
	}
	if st := ps.Stats(); st.Dropped != 10 {
		t.Errorf("Dropped = %d, want 10", st.Dropped)
	}
	if ps.Registered() {
		t.Error("system without particles should not register")
	}

	// A late registration is picked up on the next emission.
	reg.Register("missing", NewShapeObject("missing", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	}))
	if !addMesh(ps) {
		t.Error("AddParticle should succeed once the mesh is registered")
	}
}

func TestMeshEmitterFollowsRegistry(t *testing.T) {
	reg := NewRegistry()
	first := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	})
	reg.Register("prop", first)
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop"})
	if !addMesh(ps) {
		t.Fatal("AddParticle failed")
	}

	reg.Unregister(first)
	if addMesh(ps) {
		t.Error("unregistered mesh should not emit")
	}

	second := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	})
	second.Position = mgl32.Vec3{100, 0, 0}
	reg.Register("prop", second)
	for i := 0; i < 5; i++ {
		if !addMesh(ps) {
			t.Fatal("AddParticle should succeed on the new mesh")
		}
		if x := ps.Pool().Head().Pos.X(); x < 100 || x > 113 {
			t.Errorf("Pos.X = %v, want within the mesh at x=100", x)
		}
	}
}

func TestMeshEmitterNameMovesToNewObject(t *testing.T) {
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop"})
	addMesh(ps)

	moved := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	})
	moved.Position = mgl32.Vec3{0, 0, 50}
	reg.Register("prop", moved)
	addMesh(ps)
	if z := ps.Pool().Head().Pos.Z(); !approxEqual(float64(z), 50, 1e-5) {
		t.Errorf("Pos.Z = %v, want 50", z)
	}
}

func TestMeshEmitterWrongObjectType(t *testing.T) {
	reg := NewRegistry()
	reg.Register("prop", "not a mesh")
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop"})
	if addMesh(ps) {
		t.Error("non-mesh object should not emit")
	}
}

func TestMeshEmitterEmptyShape(t *testing.T) {
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EmitOnFaces: true})
	if addMesh(ps) {
		t.Error("shape without details should not emit")
	}
}

func TestMeshEmitterDetailChangeRebuilds(t *testing.T) {
	obj := NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{
			{Meshes: []*ShapeMesh{weightedMesh()}},
			{Meshes: []*ShapeMesh{NewBoxMesh(mgl32.Vec3{1, 1, 1})}},
		},
	})
	reg := NewRegistry()
	reg.Register("prop", obj)
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EmitOnFaces: true, EvenEmission: true})
	me := meshEmitter(t, ps)

	addMesh(ps)
	if me.VertexCount() != 9 {
		t.Fatalf("VertexCount = %d, want 9", me.VertexCount())
	}
	obj.DetailLevel = 1
	addMesh(ps)
	if me.VertexCount() != 24 {
		t.Errorf("VertexCount = %d, want 24 after detail change", me.VertexCount())
	}
	// Twelve equal triangles, one cache entry each.
	if len(me.weightedFaces()) != 12 {
		t.Errorf("cache has %d entries, want 12", len(me.weightedFaces()))
	}
}

func TestMeshEmitterSkinnedAndStatic(t *testing.T) {
	static := weightedMesh()
	skinned := NewTriangleMesh([]mgl32.Vec3{{0, 0, 5}, {3, 0, 5}, {0, 4, 5}})
	skinned.Skinned = true
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{static, skinned}}},
	}))
	ps := meshSystem(reg, &MeshEmitterConfig{Mesh: "prop", EmitOnFaces: true})

	for i := 0; i < 100; i++ {
		addMesh(ps)
	}
	var onStatic, onSkinned int
	for i := 0; i < ps.Pool().Count(); i++ {
		z := ps.Pool().At(i).Pos[2]
		switch {
		case abs32(z) < 1e-5:
			onStatic++
		case abs32(z-5) < 1e-5:
			onSkinned++
		default:
			t.Errorf("particle %d at z=%v, off both meshes", i, z)
		}
	}
	if onStatic == 0 || onSkinned == 0 {
		t.Errorf("static/skinned = %d/%d, want both non-zero", onStatic, onSkinned)
	}
}

func TestMeshEmitterPoolFull(t *testing.T) {
	reg := NewRegistry()
	reg.Register("prop", NewShapeObject("prop", &ShapeInstance{
		Details: []ShapeDetail{{Meshes: []*ShapeMesh{weightedMesh()}}},
	}))
	cfg := stillConfig(100)
	cfg.MaxParticles = 2
	cfg.Emitter = &MeshEmitterConfig{Mesh: "prop"}
	ps := NewParticleSystem("mesh", cfg, Environment{Objects: reg, Rand: NewRand(1, 2)})

	addMesh(ps)
	addMesh(ps)
	if addMesh(ps) {
		t.Error("AddParticle on a full pool should fail")
	}
	// The failed call must not move the cursor: the next free slot gets vertex 2.
	ps.Pool().RemoveParticle(ps.Pool().Head())
	addMesh(ps)
	if !vecNear(ps.Pool().Head().Pos, weightedMesh().Vertices[2], 1e-5) {
		t.Errorf("Pos = %v, want vertex 2", ps.Pool().Head().Pos)
	}
}

func TestPointOnTriangleFolds(t *testing.T) {
	m := NewTriangleMesh([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	pos, n, ok := pointOnTriangle(m, 0, 0.8, 0.8)
	if !ok {
		t.Fatal("pointOnTriangle failed")
	}
	if !vecNear(pos, mgl32.Vec3{0.2, 0.2, 0}, 1e-6) {
		t.Errorf("pos = %v, want (0.2, 0.2, 0)", pos)
	}
	if !vecNear(n, unitZ, 1e-6) {
		t.Errorf("normal = %v, want +Z", n)
	}
}

func TestPointOnTriangleFaceNormalFallback(t *testing.T) {
	m := &ShapeMesh{
		Vertices:   []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:    []uint32{0, 1, 2},
		Primitives: []Primitive{{Start: 0, Count: 3}},
	}
	_, n, ok := pointOnTriangle(m, 0, 0.1, 0.1)
	if !ok || !vecNear(n, unitZ, 1e-6) {
		t.Errorf("normal = %v ok=%v, want +Z", n, ok)
	}
}
