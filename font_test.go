package pufferfish

import (
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestDefaultFont(t *testing.T) {
	f := DefaultFont()
	if f != DefaultFont() {
		t.Error("DefaultFont parsed twice")
	}
	if f.Name() == "" {
		t.Error("default font has no family name")
	}
	if f.GlyphIndex('A') == 0 {
		t.Error("no glyph for 'A'")
	}
	if f.GlyphIndex('\uFFFF') != 0 {
		t.Error("noncharacter mapped to a real glyph")
	}
}

func TestFontMetrics(t *testing.T) {
	m := DefaultFont().Metrics(16)
	if m.Ascent <= 0 || m.Descent <= 0 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.LineHeight < m.Ascent+m.Descent {
		t.Errorf("line height %v < ascent + descent", m.LineHeight)
	}
	big := DefaultFont().Metrics(32)
	if big.Ascent <= m.Ascent {
		t.Errorf("ascent does not scale: %v vs %v", big.Ascent, m.Ascent)
	}
}

func TestFontMeasureGlyph(t *testing.T) {
	f := DefaultFont()
	space := f.MeasureGlyph(f.GlyphIndex(' '), 16)
	if space.Width != 0 || space.Height != 0 || space.Advance <= 0 {
		t.Errorf("space = %+v", space)
	}
	a := f.MeasureGlyph(f.GlyphIndex('A'), 16)
	if a.Width <= 0 || a.Height <= 0 || a.BearingY >= 0 {
		t.Errorf("A = %+v", a)
	}
}

func TestFontRasterize(t *testing.T) {
	f := DefaultFont()
	bm, err := f.Rasterize(f.GlyphIndex('A'), 24)
	if err != nil {
		t.Fatal(err)
	}
	w, h := bm.Metrics.Width, bm.Metrics.Height
	if len(bm.Pixels) != w*h*4 {
		t.Fatalf("pixels = %d bytes for %dx%d", len(bm.Pixels), w, h)
	}
	covered := 0
	for i := 0; i < len(bm.Pixels); i += 4 {
		if bm.Pixels[i] != 255 || bm.Pixels[i+1] != 255 || bm.Pixels[i+2] != 255 {
			t.Fatalf("pixel %d is not white", i/4)
		}
		if bm.Pixels[i+3] > 0 {
			covered++
		}
	}
	if covered == 0 || covered == w*h {
		t.Errorf("covered %d of %d pixels", covered, w*h)
	}
	if img := bm.Image(); img.Rect.Dx() != w || img.Rect.Dy() != h {
		t.Errorf("Image bounds = %v", img.Rect)
	}
}

func TestFontRasterizeBlank(t *testing.T) {
	f := DefaultFont()
	bm, err := f.Rasterize(f.GlyphIndex(' '), 16)
	if err != nil {
		t.Fatal(err)
	}
	if len(bm.Pixels) != 0 || bm.Metrics.Advance <= 0 {
		t.Errorf("space bitmap = %+v", bm)
	}
}

func TestParseFont(t *testing.T) {
	if _, err := ParseFont([]byte("not a font")); err == nil {
		t.Error("ParseFont accepted garbage")
	}
	a, err := ParseFont(gomono.TTF)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseFont(gomono.TTF)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() || a.ID() == DefaultFont().ID() {
		t.Error("font ids are not unique")
	}
}

func TestFontSet(t *testing.T) {
	f := DefaultFont()
	s := NewFontSet(f)
	if got, ok := s.Font(f.ID()); !ok || got != f {
		t.Fatal("font not registered")
	}
	if _, err := s.RasterizeGlyph(f.ID(), f.GlyphIndex('x'), 12); err != nil {
		t.Errorf("RasterizeGlyph: %v", err)
	}
	s.Remove(f.ID())
	if _, err := s.RasterizeGlyph(f.ID(), f.GlyphIndex('x'), 12); err == nil {
		t.Error("RasterizeGlyph succeeded for a removed font")
	}
}
