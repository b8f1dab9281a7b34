package ember

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// parseFrameSequence parses an atlas frame sequence such as "0-16 20 19-21".
// Entries are tile indices or inclusive ranges, which may run backwards
// ("5-2" is 5 4 3 2). Entries are separated by spaces or commas. Invalid
// entries and indices outside [0, tiles) are skipped; each such entry counts
// once in bad, and a range is cut off at the last tile.
// An empty sequence plays every tile in order.
func parseFrameSequence(s string, tiles int) (frames []uint16, bad int) {
	tiles = min(max(tiles, 1), 0x10000)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	for _, f := range fields {
		lo, hi, ok := parseFrameRange(f)
		if !ok {
			bad++
			continue
		}
		if lo >= tiles && hi >= tiles {
			bad++
			continue
		}
		clo, chi := min(lo, tiles-1), min(hi, tiles-1)
		if clo != lo || chi != hi {
			bad++
		}
		step := 1
		if chi < clo {
			step = -1
		}
		for i := clo; ; i += step {
			frames = append(frames, uint16(i))
			if i == chi {
				break
			}
		}
	}
	if len(frames) == 0 {
		frames = make([]uint16, tiles)
		for i := range frames {
			frames[i] = uint16(i)
		}
	}
	return frames, bad
}

func parseFrameRange(f string) (lo, hi int, ok bool) {
	a, b, isRange := strings.Cut(f, "-")
	lo, err := strconv.Atoi(a)
	if err != nil || lo < 0 {
		return 0, 0, false
	}
	if !isRange {
		return lo, lo, true
	}
	hi, err = strconv.Atoi(b)
	if err != nil || hi < 0 {
		return 0, 0, false
	}
	return lo, hi, true
}

// texAnim maps particle age onto atlas tiles laid out left to right, top to
// bottom.
type texAnim struct {
	tilesX, tilesY int
	fps            float32
	frames         []uint16
	grid           []mgl32.Vec2 // (tilesX+1)*(tilesY+1) tile corner UVs
}

// newTexAnim precomputes the tile corner grid by bilinear interpolation
// across the quad's texture coordinates.
func newTexAnim(tilesX, tilesY int, fps float32, frames []uint16, tc [4]mgl32.Vec2) *texAnim {
	tilesX, tilesY = max(tilesX, 1), max(tilesY, 1)
	a := &texAnim{
		tilesX: tilesX,
		tilesY: tilesY,
		fps:    fps,
		frames: frames,
		grid:   make([]mgl32.Vec2, 0, (tilesX+1)*(tilesY+1)),
	}
	bl, br, tr, tl := tc[0], tc[1], tc[2], tc[3]
	for j := 0; j <= tilesY; j++ {
		v := float32(j) / float32(tilesY)
		for i := 0; i <= tilesX; i++ {
			u := float32(i) / float32(tilesX)
			top := tl.Add(tr.Sub(tl).Mul(u))
			bottom := bl.Add(br.Sub(bl).Mul(u))
			a.grid = append(a.grid, top.Add(bottom.Sub(top).Mul(v)))
		}
	}
	if len(a.frames) == 0 {
		a.frames, _ = parseFrameSequence("", tilesX*tilesY)
	}
	return a
}

// frame returns the tile shown at ageMS.
func (a *texAnim) frame(ageMS float64) int {
	fm := int(ageMS / 1000 * float64(a.fps))
	if fm < 0 {
		fm = 0
	}
	return int(a.frames[fm%len(a.frames)])
}

// corners returns the UVs of the quad corners for ageMS, in the same order
// as BillboardRendererConfig.TexCoords.
func (a *texAnim) corners(ageMS float64) [4]mgl32.Vec2 {
	tile := a.frame(ageMS)
	if tile >= a.tilesX*a.tilesY {
		tile = 0
	}
	tl := tile + tile/a.tilesX
	bl := tl + a.tilesX + 1
	return [4]mgl32.Vec2{a.grid[bl], a.grid[bl+1], a.grid[tl+1], a.grid[tl]}
}
