package ember

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// quadCorners are the billboard corners in (right, up) units, matching the
// order of BillboardRendererConfig.TexCoords.
var quadCorners = [4]mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

type depthEntry struct {
	idx   int32
	depth float32
}

// BillboardRenderer draws each particle as a textured quad that faces the
// camera, follows its velocity or orientation axis, or lies across a fixed
// world direction. Buffers are owned by the renderer and reused every frame.
type BillboardRenderer struct {
	cfg  *BillboardRendererConfig
	anim *texAnim

	order   []depthEntry
	sortBuf []depthEntry
	verts   []ParticleVertex
	inds    []uint32

	inst    RenderInstance
	maxSize float32
}

func newBillboardRenderer(cfg *BillboardRendererConfig) *BillboardRenderer {
	r := &BillboardRenderer{
		cfg:     cfg,
		maxSize: maxKeySize(cfg.Keys),
	}
	if cfg.AnimateTexture {
		r.anim = newTexAnim(cfg.AnimTexTiling[0], cfg.AnimTexTiling[1], cfg.FramesPerSec, cfg.frames, cfg.TexCoords)
	}
	r.inst = RenderInstance{
		Blend:            cfg.Blend,
		Texture:          cfg.Texture,
		SortKey:          textureSortKey(cfg.Texture),
		SoftnessDistance: cfg.SoftnessDistance,
		HighResOnly:      cfg.HighResOnly,
	}
	return r
}

// Config returns the renderer datablock.
func (r *BillboardRenderer) Config() *BillboardRendererConfig { return r.cfg }

// Instance returns the instance filled by the last successful RenderPool.
func (r *BillboardRenderer) Instance() *RenderInstance { return &r.inst }

// MaxSize returns the largest keyframe size.
func (r *BillboardRenderer) MaxSize() float32 { return r.maxSize }

// RenderPool builds one quad per live particle. Shadow passes, reflection
// passes without RenderReflection, low-detail passes for HighResOnly
// renderers and empty pools draw nothing.
func (r *BillboardRenderer) RenderPool(pool *ParticlePool, state *RenderState) bool {
	c := r.cfg
	switch {
	case state.Kind == PassShadow:
		return false
	case state.Kind == PassReflection && !c.RenderReflection:
		return false
	case c.HighResOnly && state.LowDetail:
		return false
	case pool.Count() == 0:
		return false
	}

	r.buildOrder(pool, state)

	r.verts = r.verts[:0]
	r.inds = r.inds[:0]
	for _, e := range r.order {
		p := pool.At(int(e.idx))
		r.appendParticle(p, state)
	}

	r.inst.Vertices = r.verts
	r.inst.Indices = r.inds
	r.inst.Count = len(r.verts) / 4
	return r.inst.Count > 0
}

// buildOrder fills r.order with the draw sequence: newest first, or far to
// near along the view axis when sorting, optionally reversed.
func (r *BillboardRenderer) buildOrder(pool *ParticlePool, state *RenderState) {
	n := pool.Count()
	if cap(r.order) < n {
		r.order = make([]depthEntry, n)
	}
	r.order = r.order[:n]
	for i := 0; i < n; i++ {
		r.order[i] = depthEntry{idx: int32(i)}
	}

	if r.cfg.SortParticles {
		for i := range r.order {
			r.order[i].depth = pool.At(i).Pos.Dot(state.ViewForward)
		}
		r.sortBuf = mergeSort(r.order, r.sortBuf, func(a, b depthEntry) bool {
			return a.depth >= b.depth
		})
	}

	if r.cfg.ReverseOrder {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			r.order[i], r.order[j] = r.order[j], r.order[i]
		}
	}
}

func (r *BillboardRenderer) appendParticle(p *Particle, state *RenderState) {
	c := r.cfg
	if p.Lifetime <= 0 {
		panic("ember: particle with non-positive lifetime reached the renderer")
	}
	t := float32(p.Age / p.Lifetime)
	size, col := evalKeys(c.Keys, t)
	if c.AmbientFactor > 0 {
		col = col.Lerp(col.Mul(state.Ambient), c.AmbientFactor)
	}

	uv := c.TexCoords
	if r.anim != nil {
		uv = r.anim.corners(p.Age)
	}

	var pts [4]mgl32.Vec3
	var ok bool
	switch {
	case c.OrientParticles:
		pts, ok = r.orientedCorners(p, size, state)
	case c.AlignParticles:
		pts, ok = r.alignedCorners(p, size)
	default:
		pts, ok = r.billboardCorners(p, size, state)
	}
	if !ok {
		return
	}

	base := uint32(len(r.verts))
	for i := 0; i < 4; i++ {
		r.verts = append(r.verts, ParticleVertex{Pos: pts[i], UV: uv[i], Color: col})
	}
	r.inds = append(r.inds,
		base+0, base+1, base+2,
		base+0, base+2, base+3,
	)
}

// spinAngle returns the particle's accumulated spin in radians.
func spinAngle(p *Particle) float32 {
	return mgl32.DegToRad(p.SpinSpeed * float32(p.Age/1000))
}

// billboardCorners faces the camera, spun about the view axis.
func (r *BillboardRenderer) billboardCorners(p *Particle, size float32, state *RenderState) ([4]mgl32.Vec3, bool) {
	var pts [4]mgl32.Vec3
	half := size * 0.5
	a := float64(spinAngle(p))
	sin, cos := float32(math.Sin(a)), float32(math.Cos(a))
	for i, q := range quadCorners {
		x := q[0]*cos - q[1]*sin
		y := q[0]*sin + q[1]*cos
		pts[i] = p.Pos.Add(state.Right.Mul(x * half)).Add(state.Up.Mul(y * half))
	}
	return pts, true
}

// orientedCorners stretches the quad along the velocity or orientation axis
// and widens it across the line of sight. Particles without a direction are
// not drawn.
func (r *BillboardRenderer) orientedCorners(p *Particle, size float32, state *RenderState) ([4]mgl32.Vec3, bool) {
	var pts [4]mgl32.Vec3
	dir := p.OrientDir
	if r.cfg.OrientOnVelocity {
		dir = p.Vel
	}
	dir = safeNormalize(dir)
	if dir.Len() == 0 {
		return pts, false
	}
	fromCam := p.Pos.Sub(state.CameraPosition)
	across := safeNormalize(fromCam.Cross(dir))
	if across.Len() == 0 {
		across = state.Right
	}
	half := size * 0.5
	along := dir.Mul(half)
	side := across.Mul(half)

	start := p.Pos.Sub(along)
	end := p.Pos.Add(along)
	pts[0] = start.Sub(side)
	pts[1] = start.Add(side)
	pts[2] = end.Add(side)
	pts[3] = end.Sub(side)
	return pts, true
}

// alignedCorners lays the quad across the fixed AlignDirection, spinning it
// about that direction.
func (r *BillboardRenderer) alignedCorners(p *Particle, size float32) ([4]mgl32.Vec3, bool) {
	var pts [4]mgl32.Vec3
	dir := r.cfg.AlignDirection

	var right mgl32.Vec3
	if abs32(dir[1]) > abs32(dir[2]) {
		right = unitZ.Cross(dir)
	} else {
		right = unitY.Cross(dir)
	}
	right = safeNormalize(right)

	if p.SpinSpeed != 0 {
		right = rotateAboutAxis(right, dir, spinAngle(p))
	}
	up := right.Cross(dir)

	half := size * 0.5
	right = right.Mul(half)
	up = up.Mul(half)
	for i, q := range quadCorners {
		pts[i] = p.Pos.Add(right.Mul(q[0])).Add(up.Mul(q[1]))
	}
	return pts, true
}

// rotateAboutAxis rotates v by angle radians about the unit axis using the
// quaternion sandwich expanded into cross products.
func rotateAboutAxis(v, axis mgl32.Vec3, angle float32) mgl32.Vec3 {
	s, c := math.Sincos(float64(angle) / 2)
	qv := axis.Mul(float32(s))
	w := float32(c)
	t := qv.Cross(v).Mul(2)
	return v.Add(t.Mul(w)).Add(qv.Cross(t))
}
