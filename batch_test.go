package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

var whiteRegion = TextureRegion{Width: 1, Height: 1, OriginalW: 1, OriginalH: 1}

// quadInstance builds an instance with one unit quad per center, facing the
// default camera.
func quadInstance(cam *Camera, centers ...mgl32.Vec3) *RenderInstance {
	inst := &RenderInstance{Transform: cam.ViewProj(), Count: len(centers)}
	for q, c := range centers {
		for _, k := range quadCorners {
			inst.Vertices = append(inst.Vertices, ParticleVertex{
				Pos:   c.Add(mgl32.Vec3{k[0], 0, k[1]}),
				UV:    mgl32.Vec2{(k[0] + 1) / 2, (1 - k[1]) / 2},
				Color: Color{1, 0.5, 0.25, 0.5},
			})
		}
		b := uint32(q * 4)
		inst.Indices = append(inst.Indices, b, b+1, b+2, b, b+2, b+3)
	}
	return inst
}

func TestProjectVertices(t *testing.T) {
	cam := newCamera(Rect{Width: 800, Height: 600})
	inst := quadInstance(cam, mgl32.Vec3{}, mgl32.Vec3{2, 0, 0})

	verts, inds, culled := projectVertices(nil, nil, inst, cam.Viewport, whiteRegion)
	if culled != 0 {
		t.Errorf("culled = %d, want 0", culled)
	}
	if len(verts) != 8 || len(inds) != 12 {
		t.Fatalf("verts/inds = %d/%d, want 8/12", len(verts), len(inds))
	}
	bl, tr := verts[0], verts[2]
	if bl.DstX >= 400 || bl.DstY <= 300 {
		t.Errorf("BL corner at (%v, %v), want left of and below center", bl.DstX, bl.DstY)
	}
	if tr.DstX <= 400 || tr.DstY >= 300 {
		t.Errorf("TR corner at (%v, %v), want right of and above center", tr.DstX, tr.DstY)
	}
	if verts[4].DstX <= verts[0].DstX {
		t.Error("second quad should sit right of the first")
	}
	if bl.ColorA != 0.5 || bl.ColorR != 1 {
		t.Errorf("straight alpha color = (%v, %v), want (1, 0.5)", bl.ColorR, bl.ColorA)
	}
}

func TestProjectVerticesCullsBehindCamera(t *testing.T) {
	cam := newCamera(Rect{Width: 800, Height: 600})
	inst := quadInstance(cam, mgl32.Vec3{0, -20, 0}, mgl32.Vec3{})

	verts, inds, culled := projectVertices(nil, nil, inst, cam.Viewport, whiteRegion)
	if culled != 1 {
		t.Errorf("culled = %d, want 1", culled)
	}
	if len(verts) != 4 {
		t.Fatalf("verts = %d, want 4", len(verts))
	}
	// Indices of the surviving second quad are rebased to start at 0.
	want := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range want {
		if inds[i] != idx {
			t.Errorf("inds = %v, want %v", inds, want)
			break
		}
	}
}

func TestProjectVerticesAppends(t *testing.T) {
	cam := newCamera(Rect{Width: 800, Height: 600})
	inst := quadInstance(cam, mgl32.Vec3{})
	verts, inds, _ := projectVertices(nil, nil, inst, cam.Viewport, whiteRegion)
	verts, inds, _ = projectVertices(verts, inds, inst, cam.Viewport, whiteRegion)
	if len(verts) != 8 {
		t.Fatalf("verts = %d, want 8", len(verts))
	}
	if inds[6] != 4 {
		t.Errorf("inds[6] = %d, want 4", inds[6])
	}
}

func TestProjectVerticesPremultiplies(t *testing.T) {
	cam := newCamera(Rect{Width: 800, Height: 600})
	inst := quadInstance(cam, mgl32.Vec3{})
	inst.Blend = BlendPremultAlpha

	verts, _, _ := projectVertices(nil, nil, inst, cam.Viewport, whiteRegion)
	v := verts[0]
	if v.ColorR != 0.5 || v.ColorG != 0.25 || v.ColorA != 0.5 {
		t.Errorf("premultiplied color = (%v, %v, %v, %v), want (0.5, 0.25, 0.125, 0.5)",
			v.ColorR, v.ColorG, v.ColorB, v.ColorA)
	}
}

func TestProjectVerticesMapsUVsToRegion(t *testing.T) {
	cam := newCamera(Rect{Width: 800, Height: 600})
	inst := quadInstance(cam, mgl32.Vec3{})
	region := TextureRegion{X: 10, Y: 20, Width: 32, Height: 16}

	verts, _, _ := projectVertices(nil, nil, inst, cam.Viewport, region)
	// BL has UV (0, 1).
	if verts[0].SrcX != 10 || verts[0].SrcY != 36 {
		t.Errorf("BL src = (%v, %v), want (10, 36)", verts[0].SrcX, verts[0].SrcY)
	}
	// TR has UV (1, 0).
	if verts[2].SrcX != 42 || verts[2].SrcY != 20 {
		t.Errorf("TR src = (%v, %v), want (42, 20)", verts[2].SrcX, verts[2].SrcY)
	}
}

func TestRenderBinAddInstSkipsEmpty(t *testing.T) {
	bin := NewRenderBin(nil)
	bin.AddInst(nil)
	bin.AddInst(&RenderInstance{})
	if bin.Len() != 0 {
		t.Errorf("Len = %d, want 0", bin.Len())
	}
	bin.AddInst(&RenderInstance{Count: 1})
	if bin.Len() != 1 {
		t.Errorf("Len = %d, want 1", bin.Len())
	}
}

func TestRenderBinSortBackToFront(t *testing.T) {
	bin := NewRenderBin(nil)
	bin.AddInst(&RenderInstance{Count: 1, SortDistSq: 4, SortKey: 1})
	bin.AddInst(&RenderInstance{Count: 1, SortDistSq: 9, SortKey: 2})
	bin.AddInst(&RenderInstance{Count: 1, SortDistSq: 4, SortKey: 0})
	bin.AddInst(&RenderInstance{Count: 1, SortDistSq: 1, SortKey: 0})
	bin.Sort()

	got := bin.Instances()
	want := []struct {
		dist float32
		key  uint32
	}{{9, 2}, {4, 0}, {4, 1}, {1, 0}}
	for i, w := range want {
		if got[i].SortDistSq != w.dist || got[i].SortKey != w.key {
			t.Errorf("Instances[%d] = (%v, %v), want (%v, %v)", i, got[i].SortDistSq, got[i].SortKey, w.dist, w.key)
		}
	}
}

func TestRenderBinFlush(t *testing.T) {
	cam := newCamera(Rect{Width: 64, Height: 64})
	bin := NewRenderBin(nil)
	bin.AddInst(quadInstance(cam, mgl32.Vec3{}, mgl32.Vec3{0, -20, 0}))
	bin.AddInst(quadInstance(cam, mgl32.Vec3{1, 0, 0}))

	target := ebiten.NewImage(64, 64)
	bin.Flush(target, cam.Viewport)

	calls, quads, culled := bin.DrawStats()
	if calls != 2 || quads != 2 || culled != 1 {
		t.Errorf("DrawStats = (%d, %d, %d), want (2, 2, 1)", calls, quads, culled)
	}
	if bin.Len() != 0 {
		t.Errorf("Len after Flush = %d, want 0", bin.Len())
	}
}

func TestRenderBinFlushLowDetail(t *testing.T) {
	cam := newCamera(Rect{Width: 64, Height: 64})
	bin := NewRenderBin(nil)
	bin.LowDetail = true
	hi := quadInstance(cam, mgl32.Vec3{})
	hi.HighResOnly = true
	bin.AddInst(hi)
	bin.AddInst(quadInstance(cam, mgl32.Vec3{}))

	bin.Flush(ebiten.NewImage(64, 64), cam.Viewport)
	if calls, _, _ := bin.DrawStats(); calls != 1 {
		t.Errorf("draw calls = %d, want 1", calls)
	}
}

func TestRenderBinSource(t *testing.T) {
	bin := NewRenderBin(nil)
	img, r := bin.source(&RenderInstance{Texture: "spark"})
	if img != WhitePixel || r.Width != 1 {
		t.Error("no atlas should fall back to WhitePixel")
	}

	bin.SetAtlas(loadParticleSheet(t))
	img, _ = bin.source(&RenderInstance{})
	if img != WhitePixel {
		t.Error("empty texture should use WhitePixel")
	}
	img, _ = bin.source(&RenderInstance{Texture: "missing_region"})
	if img != ensureMagentaImage() {
		t.Error("unknown region should draw the magenta placeholder")
	}
}
