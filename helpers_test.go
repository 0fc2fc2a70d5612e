package pufferfish

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// --- Test helpers ---

const epsilon = 1e-4

func approxEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < epsilon
}

// newTestAtlas returns an atlas over a fresh recording device.
func newTestAtlas(t *testing.T, cfg AtlasConfig) (*RecordingDevice, *Atlas) {
	t.Helper()
	dev := NewRecordingDevice()
	return dev, NewAtlas(dev, cfg)
}

// smallAtlas is a 64x64 single-page atlas without padding.
func smallAtlas() AtlasConfig {
	return AtlasConfig{PageWidth: 64, PageHeight: 64, MaxPages: 1, Padding: 0}
}

// newTestRenderer returns a renderer over a recording device and a 256x256
// atlas.
func newTestRenderer(t *testing.T, maxQuads int) (*RecordingDevice, *Renderer) {
	t.Helper()
	dev := NewRecordingDevice()
	atlas := NewAtlas(dev, AtlasConfig{PageWidth: 256, PageHeight: 256, MaxPages: 4, Padding: 0})
	return dev, NewRenderer(dev, atlas, maxQuads)
}

// solidImage returns a w×h image filled with c.
func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// solidPixels returns w*h straight-alpha RGBA8 pixels of c.
func solidPixels(w, h int, c color.NRGBA) []byte {
	return solidImage(w, h, c).Pix
}

// encodePNG returns img encoded as PNG.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

// sprite returns a sprite command for region at (x, y).
func sprite(region AtlasRegion, x, y float32) DrawCommand {
	return DrawCommand{Kind: CommandSprite, Transform: At(x, y), Color: ColorWhite, Region: region}
}

// pageRegion returns a 16x16 region on page p with full UVs, for builder
// tests that do not need a real atlas.
func pageRegion(p PageID) AtlasRegion {
	return AtlasRegion{Page: p, Width: 16, Height: 16, U1: 1, V1: 1}
}
