package ember

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Positioner is anything with a world position the camera can follow.
type Positioner interface {
	Position() mgl32.Vec3
}

// scrollAnim holds the active scroll-to tweens, one per axis.
type scrollAnim struct {
	tweens [3]*gween.Tween
	done   [3]bool
}

// Camera is a perspective camera looking from Position at Target in a Z-up
// world.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	// FovY is the vertical field of view in degrees.
	FovY      float32
	Near, Far float32
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport Rect

	followTarget Positioner
	followOffset mgl32.Vec3
	followLerp   float32

	scrollTween *scrollAnim

	view, proj, viewProj mgl32.Mat4
	dirty                bool
}

// newCamera creates a camera ten units behind the origin, looking along +Y.
func newCamera(viewport Rect) *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, -10, 0},
		FovY:     60,
		Near:     0.1,
		Far:      1000,
		Viewport: viewport,
		dirty:    true,
	}
}

// LookAt places the camera at eye looking at target.
func (c *Camera) LookAt(eye, target mgl32.Vec3) {
	c.Position = eye
	c.Target = target
	c.dirty = true
}

// MarkDirty forces a recomputation of the matrices. Call it after writing
// the exported fields directly.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

// CameraPosition returns the eye position.
func (c *Camera) CameraPosition() mgl32.Vec3 {
	return c.Position
}

// Follow makes the camera track target, keeping the eye at offset from it.
// A lerp of 1 snaps immediately; lower values trail behind.
func (c *Camera) Follow(target Positioner, offset mgl32.Vec3, lerp float32) {
	c.followTarget = target
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the look target to p over duration seconds. The eye
// moves with it.
func (c *Camera) ScrollTo(p mgl32.Vec3, duration float32, easeFn ease.TweenFunc) {
	a := &scrollAnim{}
	for i := 0; i < 3; i++ {
		a.tweens[i] = gween.New(c.Target[i], p[i], duration, easeFn)
	}
	c.scrollTween = a
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

// update advances follow and scroll. Called from Scene.Tick.
func (c *Camera) update(dt float32) {
	prevPos, prevTarget := c.Position, c.Target

	if c.followTarget != nil {
		if d, ok := c.followTarget.(interface{ IsDead() bool }); ok && d.IsDead() {
			c.followTarget = nil
		}
	}
	if c.followTarget != nil {
		goal := c.followTarget.Position()
		next := c.Target.Add(goal.Sub(c.Target).Mul(c.followLerp))
		c.Position = next.Add(c.followOffset)
		c.Target = next
	}

	if c.scrollTween != nil {
		eye := c.Position.Sub(c.Target)
		for i := 0; i < 3; i++ {
			if c.scrollTween.done[i] {
				continue
			}
			val, done := c.scrollTween.tweens[i].Update(dt)
			c.Target[i] = val
			c.scrollTween.done[i] = done
		}
		c.Position = c.Target.Add(eye)
		if c.scrollTween.done == [3]bool{true, true, true} {
			c.scrollTween = nil
		}
	}

	if c.Position != prevPos || c.Target != prevTarget {
		c.dirty = true
	}
}

// computeMatrices recomputes the cached matrices if dirty.
func (c *Camera) computeMatrices() {
	if !c.dirty {
		return
	}
	c.dirty = false

	aspect := float32(1)
	if c.Viewport.Height > 0 {
		aspect = float32(c.Viewport.Width / c.Viewport.Height)
	}
	c.view = mgl32.LookAtV(c.Position, c.Target, unitZ)
	c.proj = mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	c.viewProj = c.proj.Mul4(c.view)
}

// ViewProj returns projection * view.
func (c *Camera) ViewProj() mgl32.Mat4 {
	c.computeMatrices()
	return c.viewProj
}

// Basis returns the camera's forward, right and up vectors in world space.
func (c *Camera) Basis() (forward, right, up mgl32.Vec3) {
	forward = safeNormalize(c.Target.Sub(c.Position))
	if forward.Len() == 0 {
		forward = unitY
	}
	right = safeNormalize(forward.Cross(unitZ))
	if right.Len() == 0 {
		right = unitX
	}
	up = right.Cross(forward)
	return forward, right, up
}

// WorldToScreen projects p to screen pixels. ok is false for points behind
// the camera.
func (c *Camera) WorldToScreen(p mgl32.Vec3) (sx, sy float64, ok bool) {
	return projectToViewport(c.ViewProj(), c.Viewport, p)
}

// RenderState returns a state for kind with the camera basis filled in.
func (c *Camera) RenderState(kind PassKind, pass RenderPass) RenderState {
	f, r, u := c.Basis()
	return RenderState{
		Kind:           kind,
		CameraPosition: c.Position,
		ViewForward:    f,
		Right:          r,
		Up:             u,
		ViewProj:       c.ViewProj(),
		Ambient:        ColorWhite,
		Pass:           pass,
	}
}

// projectToViewport maps p through vp into viewport pixels, Y down.
func projectToViewport(vp mgl32.Mat4, viewport Rect, p mgl32.Vec3) (sx, sy float64, ok bool) {
	clip := vp.Mul4x1(p.Vec4(1))
	if clip[3] <= 0 {
		return 0, 0, false
	}
	nx := float64(clip[0] / clip[3])
	ny := float64(clip[1] / clip[3])
	sx = viewport.X + (nx+1)/2*viewport.Width
	sy = viewport.Y + (1-ny)/2*viewport.Height
	return sx, sy, true
}
