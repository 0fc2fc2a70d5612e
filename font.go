package pufferfish

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// FontID identifies a parsed font. IDs are unique per process.
type FontID uint32

// GlyphID is a glyph index within a font.
type GlyphID uint16

// FontMetrics holds vertical metrics in pixels for a given size.
type FontMetrics struct {
	Ascent     float32 // distance from baseline to top, positive
	Descent    float32 // distance from baseline to bottom, positive
	LineGap    float32
	LineHeight float32 // Ascent + Descent + LineGap
}

// GlyphMetrics describes a glyph's bitmap placement in pixels. BearingX and
// BearingY offset the bitmap's top-left corner from the pen position on the
// baseline; BearingY is negative for glyphs rising above the baseline.
type GlyphMetrics struct {
	Advance  float32
	BearingX float32
	BearingY float32
	Width    int
	Height   int
}

// GlyphBitmap is a rasterized glyph: white RGBA8 pixels whose alpha holds the
// coverage, plus the glyph's metrics. Blank glyphs have no pixels.
type GlyphBitmap struct {
	Metrics GlyphMetrics
	Pixels  []byte
}

var nextFontID atomic.Uint32

// Font is a parsed TrueType or OpenType font. Safe for concurrent use.
type Font struct {
	id   FontID
	name string
	sf   *opentype.Font

	mu  sync.Mutex
	buf sfnt.Buffer
}

// ParseFont parses TTF or OTF data.
func ParseFont(data []byte) (*Font, error) {
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pufferfish: failed to parse font: %w", err)
	}
	f := &Font{id: FontID(nextFontID.Add(1)), sf: sf}
	if name, err := sf.Name(nil, sfnt.NameIDFamily); err == nil {
		f.name = name
	}
	return f, nil
}

var (
	defaultFontOnce sync.Once
	defaultFont     *Font
)

// DefaultFont returns the built-in Go Regular font.
func DefaultFont() *Font {
	defaultFontOnce.Do(func() {
		f, err := ParseFont(goregular.TTF)
		if err != nil {
			panic(fmt.Sprintf("pufferfish: embedded default font: %v", err))
		}
		defaultFont = f
	})
	return defaultFont
}

// ID returns the font's identifier.
func (f *Font) ID() FontID { return f.id }

// Name returns the font family name, if the font has one.
func (f *Font) Name() string { return f.name }

// GlyphIndex returns the glyph for r. Missing runes map to glyph 0, the
// font's notdef glyph.
func (f *Font) GlyphIndex(r rune) GlyphID {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, err := f.sf.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return GlyphID(idx)
}

// Kern returns the horizontal adjustment between glyphs a and b.
func (f *Font) Kern(a, b GlyphID, size float32) float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, err := f.sf.Kern(&f.buf, sfnt.GlyphIndex(a), sfnt.GlyphIndex(b), toFixed(size), font.HintingNone)
	if err != nil {
		return 0
	}
	return fromFixed(k)
}

// Metrics returns the font's vertical metrics at size.
func (f *Font) Metrics(size float32) FontMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.sf.Metrics(&f.buf, toFixed(size), font.HintingNone)
	if err != nil {
		return FontMetrics{}
	}
	asc, desc, height := fromFixed(m.Ascent), fromFixed(m.Descent), fromFixed(m.Height)
	gap := height - asc - desc
	if gap < 0 {
		gap = 0
	}
	return FontMetrics{Ascent: asc, Descent: desc, LineGap: gap, LineHeight: asc + desc + gap}
}

// MeasureGlyph returns a glyph's metrics at size without rasterizing it.
func (f *Font) MeasureGlyph(g GlyphID, size float32) GlyphMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _, _ := f.measure(g, size)
	return m
}

// measure returns the glyph metrics and its pixel bounds. Callers hold f.mu.
func (f *Font) measure(g GlyphID, size float32) (GlyphMetrics, image.Rectangle, error) {
	ppem := toFixed(size)
	bounds, advance, err := f.sf.GlyphBounds(&f.buf, sfnt.GlyphIndex(g), ppem, font.HintingNone)
	if err != nil {
		return GlyphMetrics{}, image.Rectangle{}, err
	}
	r := image.Rect(
		bounds.Min.X.Floor(), bounds.Min.Y.Floor(),
		bounds.Max.X.Ceil(), bounds.Max.Y.Ceil(),
	)
	return GlyphMetrics{
		Advance:  fromFixed(advance),
		BearingX: float32(r.Min.X),
		BearingY: float32(r.Min.Y),
		Width:    r.Dx(),
		Height:   r.Dy(),
	}, r, nil
}

// Rasterize renders glyph g at size into a coverage bitmap.
func (f *Font) Rasterize(g GlyphID, size float32) (GlyphBitmap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, r, err := f.measure(g, size)
	if err != nil {
		return GlyphBitmap{}, fmt.Errorf("pufferfish: glyph %d bounds: %w", g, err)
	}
	if r.Empty() {
		return GlyphBitmap{Metrics: m}, nil
	}

	segs, err := f.sf.LoadGlyph(&f.buf, sfnt.GlyphIndex(g), toFixed(size), nil)
	if err != nil {
		return GlyphBitmap{}, fmt.Errorf("pufferfish: glyph %d outline: %w", g, err)
	}

	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float32(-r.Min.X), float32(-r.Min.Y)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return fromFixed(p.X) + ox, fromFixed(p.Y) + oy
	}
	for i, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if i > 0 {
				z.ClosePath()
			}
			z.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			z.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			z.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			z.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	pix := make([]byte, len(mask.Pix)*4)
	for i, a := range mask.Pix {
		pix[i*4+0] = 255
		pix[i*4+1] = 255
		pix[i*4+2] = 255
		pix[i*4+3] = a
	}
	return GlyphBitmap{Metrics: m, Pixels: pix}, nil
}

// Image returns the glyph as an image, for debugging.
func (b GlyphBitmap) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Metrics.Width, b.Metrics.Height))
	if len(b.Pixels) == len(img.Pix) {
		draw.Draw(img, img.Rect, &image.NRGBA{Pix: b.Pixels, Stride: b.Metrics.Width * 4, Rect: img.Rect}, image.Point{}, draw.Src)
	}
	return img
}

func toFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}

func fromFixed(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// Rasterizer produces glyph bitmaps for the glyph cache.
type Rasterizer interface {
	RasterizeGlyph(font FontID, glyph GlyphID, size float32) (GlyphBitmap, error)
}

// FontSet is a registry of fonts by ID. It implements Rasterizer.
// Safe for concurrent use.
type FontSet struct {
	mu    sync.RWMutex
	fonts map[FontID]*Font
}

// NewFontSet returns a set holding the given fonts.
func NewFontSet(fonts ...*Font) *FontSet {
	s := &FontSet{fonts: make(map[FontID]*Font)}
	for _, f := range fonts {
		s.Add(f)
	}
	return s
}

// Add registers f.
func (s *FontSet) Add(f *Font) {
	s.mu.Lock()
	s.fonts[f.id] = f
	s.mu.Unlock()
}

// Remove unregisters a font.
func (s *FontSet) Remove(id FontID) {
	s.mu.Lock()
	delete(s.fonts, id)
	s.mu.Unlock()
}

// Font returns a registered font.
func (s *FontSet) Font(id FontID) (*Font, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fonts[id]
	return f, ok
}

// RasterizeGlyph implements Rasterizer.
func (s *FontSet) RasterizeGlyph(id FontID, glyph GlyphID, size float32) (GlyphBitmap, error) {
	f, ok := s.Font(id)
	if !ok {
		return GlyphBitmap{}, fmt.Errorf("pufferfish: font %d not registered", id)
	}
	return f.Rasterize(glyph, size)
}
