package ember

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// sprite builds one TexturePacker frame entry.
func sprite(x, y, w, h, ox, oy, sw, sh int, rotated bool) string {
	return fmt.Sprintf(`{"frame": {"x": %d, "y": %d, "w": %d, "h": %d}, "rotated": %t, `+
		`"spriteSourceSize": {"x": %d, "y": %d, "w": %d, "h": %d}, "sourceSize": {"w": %d, "h": %d}}`,
		x, y, w, h, rotated, ox, oy, w, h, sw, sh)
}

var particleSheetJSON = `{"frames": {` +
	`"spark.png": ` + sprite(0, 0, 64, 64, 0, 0, 64, 64, false) + `, ` +
	`"smoke.png": ` + sprite(64, 0, 32, 48, 0, 0, 32, 48, false) + `, ` +
	`"ember.png": ` + sprite(100, 50, 60, 58, 2, 3, 64, 64, false) + `, ` +
	`"streak.png": ` + sprite(200, 0, 48, 32, 0, 0, 32, 48, true) +
	`}, "meta": {"image": "particles.png", "size": {"w": 1024, "h": 1024}}}`

var twoPageJSON = `{"textures": [` +
	`{"image": "fx-0.png", "frames": {"flare.png": ` + sprite(0, 0, 64, 64, 0, 0, 64, 64, false) + `}}, ` +
	`{"image": "fx-1.png", "frames": {"ring.png": ` + sprite(10, 20, 50, 50, 0, 0, 50, 50, false) + `}}` +
	`]}`

func loadParticleSheet(t *testing.T) *Atlas {
	t.Helper()
	atlas, err := LoadAtlas([]byte(particleSheetJSON), []*ebiten.Image{ebiten.NewImage(1024, 1024)})
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	return atlas
}

func TestLoadAtlasHashRegions(t *testing.T) {
	atlas := loadParticleSheet(t)
	if got := atlas.Len(); got != 4 {
		t.Errorf("Len = %d, want 4", got)
	}
	if !atlas.HasRegion("spark.png") || atlas.HasRegion("flare.png") {
		t.Error("HasRegion mismatch")
	}

	tests := []struct {
		name string
		want TextureRegion
	}{
		{"spark.png", TextureRegion{X: 0, Y: 0, Width: 64, Height: 64, OriginalW: 64, OriginalH: 64}},
		{"smoke.png", TextureRegion{X: 64, Y: 0, Width: 32, Height: 48, OriginalW: 32, OriginalH: 48}},
		{"ember.png", TextureRegion{X: 100, Y: 50, Width: 60, Height: 58, OriginalW: 64, OriginalH: 64, OffsetX: 2, OffsetY: 3}},
		{"streak.png", TextureRegion{X: 200, Y: 0, Width: 48, Height: 32, OriginalW: 32, OriginalH: 48, Rotated: true}},
	}
	for _, tt := range tests {
		if got := atlas.Region(tt.name); got != tt.want {
			t.Errorf("Region(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestAtlasMissingRegionIsMagenta(t *testing.T) {
	atlas := loadParticleSheet(t)
	r := atlas.Region("nonexistent.png")
	if r.Page != magentaPlaceholderPage || r.Width != 1 || r.Height != 1 {
		t.Errorf("missing region = %+v, want 1x1 placeholder", r)
	}
	if atlas.Page(r) != ensureMagentaImage() {
		t.Error("placeholder region should resolve to the magenta image")
	}
}

func TestLoadAtlasArrayPages(t *testing.T) {
	page0 := ebiten.NewImage(512, 512)
	page1 := ebiten.NewImage(512, 512)
	atlas, err := LoadAtlas([]byte(twoPageJSON), []*ebiten.Image{page0, page1})
	if err != nil {
		t.Fatalf("LoadAtlas: %v", err)
	}
	if got := atlas.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
	if r := atlas.Region("flare.png"); r.Page != 0 || atlas.Page(r) != page0 {
		t.Errorf("flare.png on page %d, want 0", r.Page)
	}
	r := atlas.Region("ring.png")
	if r.Page != 1 || atlas.Page(r) != page1 {
		t.Errorf("ring.png on page %d, want 1", r.Page)
	}
	if r.X != 10 || r.Y != 20 {
		t.Errorf("ring.png at %d,%d, want 10,20", r.X, r.Y)
	}
}

func TestAtlasPageOutOfRange(t *testing.T) {
	if img := (&Atlas{}).Page(TextureRegion{Page: 3}); img != nil {
		t.Error("missing page should be nil")
	}
}

func TestLoadAtlasErrors(t *testing.T) {
	tests := []struct {
		name, data, contains string
	}{
		{"malformed", `{invalid`, "parse"},
		{"no frames", `{"meta":{}}`, "neither"},
		{"bad textures", `{"textures": 3}`, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAtlas([]byte(tt.data), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
		})
	}
}

func TestTextureRegionUV(t *testing.T) {
	r := TextureRegion{X: 64, Y: 0, Width: 32, Height: 48}
	cases := []struct {
		u, v, x, y float32
	}{
		{0, 0, 64, 0},
		{1, 0, 96, 0},
		{1, 1, 96, 48},
		{0.5, 0.5, 80, 24},
	}
	for _, c := range cases {
		x, y := r.UVToPixel(c.u, c.v)
		if x != c.x || y != c.y {
			t.Errorf("UVToPixel(%v, %v) = (%v, %v), want (%v, %v)", c.u, c.v, x, y, c.x, c.y)
		}
	}
}

func TestTextureRegionUVRotated(t *testing.T) {
	r := TextureRegion{X: 200, Y: 0, Width: 48, Height: 32, Rotated: true}
	// Visual top-left sits at the stored top-right corner.
	x, y := r.UVToPixel(0, 0)
	if x != 232 || y != 0 {
		t.Errorf("rotated TL = (%v, %v), want (232, 0)", x, y)
	}
	x, y = r.UVToPixel(1, 1)
	if x != 200 || y != 48 {
		t.Errorf("rotated BR = (%v, %v), want (200, 48)", x, y)
	}
}

func TestSceneLoadAtlasFeedsBin(t *testing.T) {
	scene := NewScene(Rect{Width: 320, Height: 240})
	page := ebiten.NewImage(256, 256)
	atlas, err := scene.LoadAtlas([]byte(particleSheetJSON), []*ebiten.Image{page})
	if err != nil {
		t.Fatalf("Scene.LoadAtlas: %v", err)
	}
	if scene.Atlas() != atlas {
		t.Error("scene atlas not set")
	}
	img, r := scene.bin.source(&RenderInstance{Texture: "smoke.png"})
	if img != page {
		t.Error("bin should sample the atlas page")
	}
	if r.X != 64 || r.Width != 32 {
		t.Errorf("bin region = %+v, want smoke.png", r)
	}
}

func TestSceneLoadAtlasInvalid(t *testing.T) {
	scene := NewScene(Rect{Width: 320, Height: 240})
	if _, err := scene.LoadAtlas([]byte(`{invalid`), nil); err == nil {
		t.Error("expected error")
	}
	if scene.Atlas() != nil {
		t.Error("failed load should leave the atlas unset")
	}
}

func TestMagentaImageShared(t *testing.T) {
	img1 := ensureMagentaImage()
	img2 := ensureMagentaImage()
	if img1 != img2 {
		t.Error("ensureMagentaImage returned different images")
	}
	w, h := img1.Bounds().Dx(), img1.Bounds().Dy()
	if w != 1 || h != 1 {
		t.Errorf("magenta image size = %dx%d, want 1x1", w, h)
	}
}

func BenchmarkLoadAtlas(b *testing.B) {
	data := []byte(particleSheetJSON)
	page := ebiten.NewImage(1024, 1024)
	pages := []*ebiten.Image{page}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadAtlas(data, pages)
	}
}

func BenchmarkAtlasRegion(b *testing.B) {
	page := ebiten.NewImage(1024, 1024)
	atlas, _ := LoadAtlas([]byte(particleSheetJSON), []*ebiten.Image{page})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = atlas.Region("spark.png")
	}
}
