package ember

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// RenderBin is the render pass used by Scene: it collects instances during
// PrepRenderImage, sorts them back to front and submits one DrawTriangles32
// call per instance.
type RenderBin struct {
	insts   []RenderInstance
	sortBuf []RenderInstance

	// LowDetail drops instances flagged HighResOnly at flush time.
	LowDetail bool

	atlas *Atlas

	batchVerts []ebiten.Vertex
	batchInds  []uint32

	// stats for the last flush
	drawCalls, quads, culled int
}

// NewRenderBin returns an empty bin that resolves textures through atlas.
// atlas may be nil, in which case every instance draws with WhitePixel.
func NewRenderBin(atlas *Atlas) *RenderBin {
	return &RenderBin{atlas: atlas}
}

// SetAtlas replaces the texture source.
func (b *RenderBin) SetAtlas(a *Atlas) {
	b.atlas = a
}

// AddInst copies the instance header. The vertex slices still belong to the
// renderer and must not be modified before Flush.
func (b *RenderBin) AddInst(inst *RenderInstance) {
	if inst == nil || inst.Count == 0 {
		return
	}
	b.insts = append(b.insts, *inst)
}

// Len returns the number of queued instances.
func (b *RenderBin) Len() int {
	return len(b.insts)
}

// Instances returns the queued instances in submission order.
func (b *RenderBin) Instances() []RenderInstance {
	return b.insts
}

// Reset drops every queued instance.
func (b *RenderBin) Reset() {
	b.insts = b.insts[:0]
}

// instanceLessOrEqual orders far before near, then by texture. Equal
// instances keep submission order.
func instanceLessOrEqual(x, y RenderInstance) bool {
	if x.SortDistSq != y.SortDistSq {
		return x.SortDistSq > y.SortDistSq
	}
	return x.SortKey <= y.SortKey
}

// Sort orders the queued instances back to front.
func (b *RenderBin) Sort() {
	b.sortBuf = mergeSort(b.insts, b.sortBuf, instanceLessOrEqual)
}

// Flush draws every queued instance to target and empties the bin.
func (b *RenderBin) Flush(target *ebiten.Image, viewport Rect) {
	b.drawCalls, b.quads, b.culled = 0, 0, 0
	for i := range b.insts {
		inst := &b.insts[i]
		if inst.HighResOnly && b.LowDetail {
			continue
		}
		img, region := b.source(inst)
		if img == nil {
			continue
		}
		b.batchVerts, b.batchInds = b.batchVerts[:0], b.batchInds[:0]
		var culled int
		b.batchVerts, b.batchInds, culled = projectVertices(b.batchVerts, b.batchInds, inst, viewport, region)
		b.culled += culled
		if len(b.batchInds) == 0 {
			continue
		}

		var triOp ebiten.DrawTrianglesOptions
		triOp.Blend = inst.Blend.EbitenBlend()
		triOp.ColorScaleMode = inst.Blend.colorScaleMode()
		target.DrawTriangles32(b.batchVerts, b.batchInds, img, &triOp)

		b.drawCalls++
		b.quads += len(b.batchVerts) / 4
	}
	b.Reset()
}

// source resolves the image and region an instance samples from.
func (b *RenderBin) source(inst *RenderInstance) (*ebiten.Image, TextureRegion) {
	if inst.Texture == "" || b.atlas == nil {
		return WhitePixel, TextureRegion{Width: 1, Height: 1, OriginalW: 1, OriginalH: 1}
	}
	r := b.atlas.Region(inst.Texture)
	return b.atlas.Page(r), r
}

// projectVertices appends the screen-space vertices and indices of inst to
// verts and inds. Quads with any corner behind the camera are dropped and
// counted in culled. Colors are premultiplied for BlendPremultAlpha.
func projectVertices(verts []ebiten.Vertex, inds []uint32, inst *RenderInstance, viewport Rect, region TextureRegion) ([]ebiten.Vertex, []uint32, int) {
	culled := 0
	premult := inst.Blend == BlendPremultAlpha
	var quad [4]ebiten.Vertex

	for q := 0; q < inst.Count; q++ {
		src := inst.Vertices[q*4 : q*4+4]
		visible := true
		for i := range src {
			v := &src[i]
			sx, sy, ok := projectToViewport(inst.Transform, viewport, v.Pos)
			if !ok {
				visible = false
				break
			}
			u, w := region.UVToPixel(v.UV[0], v.UV[1])
			c := v.Color
			if premult {
				c = Color{c.R * c.A, c.G * c.A, c.B * c.A, c.A}
			}
			quad[i] = ebiten.Vertex{
				DstX:   float32(sx),
				DstY:   float32(sy),
				SrcX:   u,
				SrcY:   w,
				ColorR: c.R,
				ColorG: c.G,
				ColorB: c.B,
				ColorA: c.A,
			}
		}
		if !visible {
			culled++
			continue
		}

		base := uint32(len(verts))
		verts = append(verts, quad[:]...)
		// Re-base the renderer's index pattern for this quad.
		for _, idx := range inst.Indices[q*6 : q*6+6] {
			inds = append(inds, base+idx-uint32(q*4))
		}
	}
	return verts, inds, culled
}

// DrawStats returns draw calls, quads and culled quads of the last Flush.
func (b *RenderBin) DrawStats() (drawCalls, quads, culled int) {
	return b.drawCalls, b.quads, b.culled
}
