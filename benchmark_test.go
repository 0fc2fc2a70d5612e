package pufferfish

import (
	"image/color"
	"testing"
)

// benchSprites returns n sprite commands laid out on a 100-wide grid. With
// pages > 1 consecutive sprites cycle through that many pages, which breaks
// batches as often as possible.
func benchSprites(n, pages int) []DrawCommand {
	cmds := make([]DrawCommand, n)
	for i := range cmds {
		p := PageID(1)
		if pages > 1 {
			p = PageID(i%pages + 1)
		}
		cmds[i] = DrawCommand{
			Kind:      CommandSprite,
			Transform: At(float32(i%100)*40, float32(i/100)*40),
			Color:     ColorWhite,
			Region:    pageRegion(p),
		}
	}
	return cmds
}

// --- Batch building ---

func benchmarkBuilder(b *testing.B, cmds []DrawCommand) {
	bb := NewBatchBuilder(0)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.Reset()
		for j := range cmds {
			bb.Push(cmds[j])
		}
		bb.Flush()
	}
}

func BenchmarkBuilder_10000Sprites_SinglePage(b *testing.B) {
	benchmarkBuilder(b, benchSprites(10000, 1))
}

func BenchmarkBuilder_10000Sprites_Rotating(b *testing.B) {
	cmds := benchSprites(10000, 1)
	for i := range cmds {
		cmds[i].Transform.Rotation = float32(i) * 0.01
		cmds[i].Transform.OriginX, cmds[i].Transform.OriginY = 8, 8
	}
	benchmarkBuilder(b, cmds)
}

func BenchmarkBuilder_10000Sprites_AlternatingPages(b *testing.B) {
	benchmarkBuilder(b, benchSprites(10000, 2))
}

func BenchmarkBuilder_10000Sprites_QuadLimit(b *testing.B) {
	cmds := benchSprites(10000, 1)
	bb := NewBatchBuilder(1024)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bb.Reset()
		for j := range cmds {
			bb.Push(cmds[j])
		}
		bb.Flush()
	}
}

func BenchmarkCountBatches_10000(b *testing.B) {
	cmds := benchSprites(10000, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		countBatches(cmds)
	}
}

// --- Full frames ---

func benchmarkFrame(b *testing.B, n int) {
	dev := NewRecordingDevice()
	atlas := NewAtlas(dev, AtlasConfig{PageWidth: 256, PageHeight: 256, MaxPages: 2})
	r := NewRenderer(dev, atlas, 0)
	regions := make([]AtlasRegion, 4)
	for i := range regions {
		reg, err := atlas.AddImage(0, solidImage(32, 32, color.NRGBA{uint8(i * 60), 0, 0, 255}))
		if err != nil {
			b.Fatal(err)
		}
		regions[i] = reg
	}

	frame := func() {
		if err := r.BeginFrame(); err != nil {
			b.Fatal(err)
		}
		r.Clear(ColorBlack)
		for j := 0; j < n; j++ {
			r.Push(DrawCommand{
				Kind:      CommandSprite,
				Transform: At(float32(j%100)*8, float32(j/100)*8),
				Color:     ColorWhite,
				Region:    regions[j%len(regions)],
			})
		}
		if err := r.EndFrame(); err != nil {
			b.Fatal(err)
		}
	}
	frame() // warmup sizes the device buffers
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dev.Reset()
		frame()
	}
}

func BenchmarkFrame_1000Sprites(b *testing.B)  { benchmarkFrame(b, 1000) }
func BenchmarkFrame_10000Sprites(b *testing.B) { benchmarkFrame(b, 10000) }

// --- Atlas ---

func BenchmarkPacker_AllocateFree(b *testing.B) {
	p := newShelfPacker(1024, 1024, 1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, y, ok := p.allocate(16+i%32, 16+i%8)
		if !ok {
			p.reset()
			continue
		}
		if i%3 == 0 {
			p.free(x, y, 16+i%32, 16+i%8)
		}
	}
}

// --- Text ---

func benchTextCache(b *testing.B) *GlyphCache {
	atlas := NewAtlas(NewRecordingDevice(), AtlasConfig{PageWidth: 512, PageHeight: 512, MaxPages: 2, Padding: 1})
	return NewGlyphCache(atlas, NewFontSet(DefaultFont()))
}

func BenchmarkGlyphCache_Hit(b *testing.B) {
	cache := benchTextCache(b)
	font := DefaultFont()
	g := font.GlyphIndex('A')
	if _, err := cache.GetOrRasterize(font.ID(), g, 16); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.GetOrRasterize(font.ID(), g, 16)
	}
}

const benchParagraph = "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs."

func BenchmarkMeasureText(b *testing.B) {
	st := TextStyle{Font: DefaultFont(), Size: 16, WrapWidth: 200}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		MeasureText(st, benchParagraph)
	}
}

func BenchmarkLayoutText_Warm(b *testing.B) {
	cache := benchTextCache(b)
	st := TextStyle{Font: DefaultFont(), Size: 16, WrapWidth: 200}
	if _, err := LayoutText(cache, st, benchParagraph); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l, _ := LayoutText(cache, st, benchParagraph)
		l.Runs(At(0, 0), ColorWhite, BlendNormal)
	}
}
