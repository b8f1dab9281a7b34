package ember

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// TextureRegion describes a sub-rectangle within an atlas page.
// Value type, copied into render instances by the render bin.
type TextureRegion struct {
	Page      uint16 // atlas page index (references Atlas.Pages)
	X, Y      uint16 // top-left corner of the sub-image rect within the atlas page
	Width     uint16 // width of the sub-image rect (may differ from OriginalW if trimmed)
	Height    uint16 // height of the sub-image rect (may differ from OriginalH if trimmed)
	OriginalW uint16 // untrimmed sprite width as authored
	OriginalH uint16 // untrimmed sprite height as authored
	OffsetX   int16  // horizontal trim offset from TexturePacker
	OffsetY   int16  // vertical trim offset from TexturePacker
	Rotated   bool   // true if the region is stored 90 degrees clockwise in the atlas
}

// Atlas holds one or more atlas page images and a map of named regions.
type Atlas struct {
	// Pages contains the atlas page images indexed by page number.
	Pages   []*ebiten.Image
	regions map[string]TextureRegion
}

// Region returns the TextureRegion for the given name.
// If the name doesn't exist, it logs a warning in debug mode and returns
// a 1x1 magenta placeholder region on page index magentaPlaceholderPage.
func (a *Atlas) Region(name string) TextureRegion {
	if r, ok := a.regions[name]; ok {
		return r
	}
	if globalDebug {
		log.Printf("ember: atlas region %q not found, using magenta placeholder", name)
	}
	return magentaRegion()
}

// HasRegion reports whether the atlas defines name.
func (a *Atlas) HasRegion(name string) bool {
	_, ok := a.regions[name]
	return ok
}

// Len returns the number of named regions.
func (a *Atlas) Len() int {
	return len(a.regions)
}

// Page returns the image holding r: the atlas page, or the magenta
// placeholder for placeholder regions. Returns nil for a missing page.
func (a *Atlas) Page(r TextureRegion) *ebiten.Image {
	if r.Page == magentaPlaceholderPage {
		return ensureMagentaImage()
	}
	if int(r.Page) < len(a.Pages) {
		return a.Pages[r.Page]
	}
	return nil
}

// UVToPixel maps normalized coordinates inside the region, origin top-left,
// to source pixels on the atlas page. Rotated regions are stored 90 degrees
// clockwise, so their visual axes are swapped on the page.
func (r TextureRegion) UVToPixel(u, v float32) (float32, float32) {
	x, y := float32(r.X), float32(r.Y)
	if r.Rotated {
		// Visual TL maps to the stored top-right corner.
		return x + float32(r.Height)*(1-v), y + float32(r.Width)*u
	}
	return x + float32(r.Width)*u, y + float32(r.Height)*v
}

var magentaImage *ebiten.Image

// ensureMagentaImage lazily builds the shared 1x1 placeholder page.
func ensureMagentaImage() *ebiten.Image {
	if magentaImage == nil {
		magentaImage = ebiten.NewImage(1, 1)
		magentaImage.Fill(color.RGBA{R: 255, B: 255, A: 255})
	}
	return magentaImage
}

// magentaPlaceholderPage marks regions that draw from the placeholder image
// rather than an atlas page.
const magentaPlaceholderPage = 0xFFFF

func magentaRegion() TextureRegion {
	return TextureRegion{Page: magentaPlaceholderPage, Width: 1, Height: 1, OriginalW: 1, OriginalH: 1}
}

// packedSprite is one sprite entry of a TexturePacker export.
type packedSprite struct {
	Frame struct {
		X, Y, W, H int
	} `json:"frame"`
	Rotated bool `json:"rotated"`
	Trim    struct {
		X, Y int
	} `json:"spriteSourceSize"`
	Source struct {
		W, H int
	} `json:"sourceSize"`
}

func (s packedSprite) region(page uint16) TextureRegion {
	return TextureRegion{
		Page:      page,
		X:         uint16(s.Frame.X),
		Y:         uint16(s.Frame.Y),
		Width:     uint16(s.Frame.W),
		Height:    uint16(s.Frame.H),
		OriginalW: uint16(s.Source.W),
		OriginalH: uint16(s.Source.H),
		OffsetX:   int16(s.Trim.X),
		OffsetY:   int16(s.Trim.Y),
		Rotated:   s.Rotated,
	}
}

// packedDocument covers both TexturePacker layouts: the single page hash
// ("frames") and the multi page array ("textures").
type packedDocument struct {
	Frames   map[string]packedSprite `json:"frames"`
	Textures []struct {
		Image  string                  `json:"image"`
		Frames map[string]packedSprite `json:"frames"`
	} `json:"textures"`
}

// LoadAtlas parses a TexturePacker JSON export and binds it to the page
// images, which are indexed in the order the export lists them.
func LoadAtlas(jsonData []byte, pages []*ebiten.Image) (*Atlas, error) {
	var doc packedDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("ember: failed to parse atlas JSON: %w", err)
	}

	atlas := &Atlas{Pages: pages, regions: make(map[string]TextureRegion)}
	add := func(frames map[string]packedSprite, page int) {
		for name, s := range frames {
			atlas.regions[name] = s.region(uint16(page))
		}
	}

	switch {
	case doc.Textures != nil:
		for i, tex := range doc.Textures {
			add(tex.Frames, i)
		}
	case doc.Frames != nil:
		add(doc.Frames, 0)
	default:
		return nil, fmt.Errorf("ember: atlas JSON has neither \"frames\" nor \"textures\" key")
	}
	return atlas, nil
}
