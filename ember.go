package ember

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication happens at submission time when the blend style asks for it.
type Color struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
	A float32 `yaml:"a"`
}

// ColorWhite is the neutral tint.
var ColorWhite = Color{1, 1, 1, 1}

// Mul returns the component-wise product of c and o.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// Lerp interpolates from c to o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: lerp32(c.R, o.R, t),
		G: lerp32(c.G, o.G, t),
		B: lerp32(c.B, o.B, t),
		A: lerp32(c.A, o.A, t),
	}
}

func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp32(c.R, 0, 1)*255 + 0.5),
		G: uint8(clamp32(c.G, 0, 1)*255 + 0.5),
		B: uint8(clamp32(c.B, 0, 1)*255 + 0.5),
		A: uint8(clamp32(c.A, 0, 1)*255 + 0.5),
	}
}

// WhitePixel is a 1x1 white image used when a renderer has no texture.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite.toRGBA())
}

// Rect is an axis-aligned screen rectangle. Origin top-left, Y down.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Box3 is an axis-aligned world-space bounding box.
type Box3 struct {
	Min, Max mgl32.Vec3
}

// EmptyBox returns an inverted box: IsEmpty reports true and the first
// Extend sets both corners.
func EmptyBox() Box3 {
	const big = math.MaxFloat32
	return Box3{
		Min: mgl32.Vec3{big, big, big},
		Max: mgl32.Vec3{-big, -big, -big},
	}
}

// BoxAround returns the cube of half-extent r centered on c.
func BoxAround(c mgl32.Vec3, r float32) Box3 {
	e := mgl32.Vec3{r, r, r}
	return Box3{Min: c.Sub(e), Max: c.Add(e)}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include p padded by pad on every axis.
func (b *Box3) Extend(p mgl32.Vec3, pad float32) {
	for i := 0; i < 3; i++ {
		if p[i]-pad < b.Min[i] {
			b.Min[i] = p[i] - pad
		}
		if p[i]+pad > b.Max[i] {
			b.Max[i] = p[i] + pad
		}
	}
}

// Contains reports whether p lies inside the box, edges included.
func (b Box3) Contains(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Center returns the midpoint of the box.
func (b Box3) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns the size of the box along each axis.
func (b Box3) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// SqDistanceToPoint returns the squared distance from p to the nearest point
// of the box. Points inside the box are at distance 0.
func (b Box3) SqDistanceToPoint(p mgl32.Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		switch {
		case p[i] < b.Min[i]:
			v := b.Min[i] - p[i]
			d += v * v
		case p[i] > b.Max[i]:
			v := p[i] - b.Max[i]
			d += v * v
		}
	}
	return d
}

// Range is a general-purpose min/max range.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Lerp maps t in [0, 1] onto the range.
func (r Range) Lerp(t float64) float64 {
	return lerp(r.Min, r.Max, t)
}

// BlendStyle selects how particle quads composite onto the target.
type BlendStyle uint8

const (
	BlendNormal       BlendStyle = iota // source-over with straight alpha
	BlendAdditive                       // lighter
	BlendSubtractive                    // destination minus source
	BlendPremultAlpha                   // source-over, colors already premultiplied
)

var blendStyleNames = [...]string{"normal", "additive", "subtractive", "premultAlpha"}

// String returns the datablock spelling of the style.
func (b BlendStyle) String() string {
	if int(b) < len(blendStyleNames) {
		return blendStyleNames[b]
	}
	return "unknown"
}

// ParseBlendStyle converts a datablock spelling into a BlendStyle.
func ParseBlendStyle(s string) (BlendStyle, bool) {
	for i, name := range blendStyleNames {
		if name == s {
			return BlendStyle(i), true
		}
	}
	return BlendNormal, false
}

// EbitenBlend returns the ebiten.Blend value corresponding to this style.
func (b BlendStyle) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendNormal, BlendPremultAlpha:
		return ebiten.BlendSourceOver
	case BlendAdditive:
		return ebiten.BlendLighter
	case BlendSubtractive:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorSourceAlpha,
			BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
			BlendOperationRGB:           ebiten.BlendOperationReverseSubtract,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// colorScaleMode tells DrawTriangles32 how to read vertex colors.
func (b BlendStyle) colorScaleMode() ebiten.ColorScaleMode {
	if b == BlendPremultAlpha {
		return ebiten.ColorScaleModePremultipliedAlpha
	}
	return ebiten.ColorScaleModeStraightAlpha
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerp32(a, b, t float32) float32 {
	return a + (b-a)*t
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Z-up world axes.
var (
	unitX = mgl32.Vec3{1, 0, 0}
	unitY = mgl32.Vec3{0, 1, 0}
	unitZ = mgl32.Vec3{0, 0, 1}
)

// safeNormalize returns v normalized, or the zero vector when v has no length.
func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
