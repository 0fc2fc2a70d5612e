package pufferfish

import (
	"math"
	"testing"
)

// --- Batch grouping ---

func TestBatchSamePageSingleBatch(t *testing.T) {
	b := NewBatchBuilder(0)
	for i := 0; i < 3; i++ {
		newBatch := b.Push(sprite(pageRegion(0), float32(i*20), 0))
		if newBatch != (i == 0) {
			t.Errorf("push %d: newBatch = %v", i, newBatch)
		}
	}
	b.Flush()
	if got := len(b.Batches()); got != 1 {
		t.Fatalf("batches = %d, want 1", got)
	}
	bt := b.Batches()[0]
	if bt.Quads != 3 || bt.Commands != 3 || bt.VertexCount != 12 || bt.IndexCount() != 18 {
		t.Errorf("batch = %+v", bt)
	}
	if bt.FirstOrder != 1 || bt.LastOrder != 3 {
		t.Errorf("orders = %d..%d, want 1..3", bt.FirstOrder, bt.LastOrder)
	}
}

func TestBatchPageChangeSplits(t *testing.T) {
	b := NewBatchBuilder(0)
	b.Push(sprite(pageRegion(0), 0, 0))
	b.Push(sprite(pageRegion(1), 0, 0))
	b.Push(sprite(pageRegion(0), 0, 0))
	b.Flush()

	got := b.Batches()
	if len(got) != 3 {
		t.Fatalf("batches = %d, want 3", len(got))
	}
	want := []PageID{0, 1, 0}
	for i, bt := range got {
		if bt.Page != want[i] {
			t.Errorf("batch %d page = %d, want %d", i, bt.Page, want[i])
		}
		if bt.VertexOffset != i*4 {
			t.Errorf("batch %d offset = %d, want %d", i, bt.VertexOffset, i*4)
		}
	}
}

func TestBatchBlendChangeSplits(t *testing.T) {
	b := NewBatchBuilder(0)
	cmd := sprite(pageRegion(0), 0, 0)
	b.Push(cmd)
	cmd.Blend = BlendAdd
	b.Push(cmd)
	b.Flush()
	if got := len(b.Batches()); got != 2 {
		t.Fatalf("batches = %d, want 2", got)
	}
	if b.Batches()[1].Blend != BlendAdd {
		t.Errorf("blend = %v", b.Batches()[1].Blend)
	}
}

func TestBatchCounts(t *testing.T) {
	tests := []struct {
		name  string
		pages func(i int) PageID
		want  int
	}{
		{"100 same page", func(int) PageID { return 0 }, 1},
		{"100 alternating", func(i int) PageID { return PageID(i % 2) }, 100},
		{"runs of ten", func(i int) PageID { return PageID(i / 10 % 2) }, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBatchBuilder(0)
			var cmds []DrawCommand
			for i := 0; i < 100; i++ {
				cmd := sprite(pageRegion(tt.pages(i)), 0, 0)
				cmds = append(cmds, cmd)
				b.Push(cmd)
			}
			b.Flush()
			if got := len(b.Batches()); got != tt.want {
				t.Errorf("batches = %d, want %d", got, tt.want)
			}
			if got := countBatches(cmds); got != tt.want {
				t.Errorf("countBatches = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBatchRectsShareSolidPage(t *testing.T) {
	b := NewBatchBuilder(0)
	rect := DrawCommand{Kind: CommandRect, Transform: At(0, 0), Size: Vec2{10, 10}, Color: ColorRed}
	b.Push(rect)
	// The region is ignored for rects.
	rect.Region = pageRegion(3)
	b.Push(rect)
	b.Push(sprite(SolidRegion(), 0, 0))
	b.Flush()
	if got := len(b.Batches()); got != 1 {
		t.Fatalf("batches = %d, want 1", got)
	}
	if b.Batches()[0].Page != SolidPage {
		t.Errorf("page = %d, want SolidPage", b.Batches()[0].Page)
	}
}

func TestBatchMaxQuadsSplitsForward(t *testing.T) {
	b := NewBatchBuilder(4)
	for i := 0; i < 10; i++ {
		b.Push(sprite(pageRegion(0), 0, 0))
	}
	b.Flush()
	got := b.Batches()
	wantQuads := []int{4, 4, 2}
	if len(got) != len(wantQuads) {
		t.Fatalf("batches = %d, want %d", len(got), len(wantQuads))
	}
	for i, bt := range got {
		if bt.Quads != wantQuads[i] {
			t.Errorf("batch %d quads = %d, want %d", i, bt.Quads, wantQuads[i])
		}
		if i > 0 && bt.FirstOrder <= got[i-1].LastOrder {
			t.Errorf("batch %d starts at order %d, not after %d", i, bt.FirstOrder, got[i-1].LastOrder)
		}
	}
}

func TestBatchGlyphRunSplitsAtLimit(t *testing.T) {
	b := NewBatchBuilder(3)
	run := DrawCommand{Kind: CommandGlyphRun, Transform: At(0, 0), Color: ColorWhite, Region: AtlasRegion{Page: 0}}
	for i := 0; i < 5; i++ {
		run.Glyphs = append(run.Glyphs, GlyphQuad{X: float32(i * 8), Width: 8, Height: 8, U1: 1, V1: 1})
	}
	b.Push(run)
	b.Flush()
	got := b.Batches()
	if len(got) != 2 || got[0].Quads != 3 || got[1].Quads != 2 {
		t.Fatalf("batches = %+v", got)
	}
	// The same command contributes to both halves.
	if got[0].FirstOrder != 1 || got[1].FirstOrder != 1 {
		t.Errorf("orders = %d, %d; want 1, 1", got[0].FirstOrder, got[1].FirstOrder)
	}
}

func TestBatchEmptyCommands(t *testing.T) {
	b := NewBatchBuilder(0)
	if b.Push(DrawCommand{Kind: CommandGlyphRun}) {
		t.Error("empty glyph run opened a batch")
	}
	if _, ok := b.Flush(); ok {
		t.Error("Flush returned a batch with nothing pushed")
	}
	if b.Commands() != 1 {
		t.Errorf("Commands = %d, want 1", b.Commands())
	}
	if got := countBatches([]DrawCommand{{Kind: CommandGlyphRun}}); got != 0 {
		t.Errorf("countBatches = %d, want 0", got)
	}
}

func TestBatchReset(t *testing.T) {
	b := NewBatchBuilder(0)
	b.Push(sprite(pageRegion(0), 0, 0))
	b.Flush()
	b.Reset()
	if len(b.Batches()) != 0 || len(b.Vertices()) != 0 || b.Commands() != 0 {
		t.Fatal("Reset left state behind")
	}
	b.Push(sprite(pageRegion(0), 0, 0))
	bt, ok := b.Flush()
	if !ok || bt.FirstOrder != 1 || bt.VertexOffset != 0 {
		t.Errorf("after Reset: %+v, %v", bt, ok)
	}
}

// --- Tessellation ---

func TestBatchVertexPositions(t *testing.T) {
	region := AtlasRegion{Page: 0, Width: 32, Height: 16, U0: 0.25, V0: 0.5, U1: 0.75, V1: 1}
	tests := []struct {
		name string
		tr   Transform
		size Vec2
		want [4][2]float32 // TL, TR, BL, BR
	}{
		{
			name: "translate",
			tr:   At(10, 20),
			want: [4][2]float32{{10, 20}, {42, 20}, {10, 36}, {42, 36}},
		},
		{
			name: "zero scale means unscaled",
			tr:   Transform{X: 10, Y: 20},
			want: [4][2]float32{{10, 20}, {42, 20}, {10, 36}, {42, 36}},
		},
		{
			name: "scaled",
			tr:   Transform{X: 0, Y: 0, ScaleX: 2, ScaleY: 3},
			want: [4][2]float32{{0, 0}, {64, 0}, {0, 48}, {64, 48}},
		},
		{
			name: "explicit size",
			tr:   At(0, 0),
			size: Vec2{4, 8},
			want: [4][2]float32{{0, 0}, {4, 0}, {0, 8}, {4, 8}},
		},
		{
			name: "rotated 90 degrees about origin",
			tr:   Transform{X: 100, Y: 100, ScaleX: 1, ScaleY: 1, Rotation: math.Pi / 2, OriginX: 16, OriginY: 8},
			// Y points down, so a quarter turn maps +X to +Y.
			want: [4][2]float32{{108, 84}, {108, 116}, {92, 84}, {92, 116}},
		},
		{
			name: "scaled about origin",
			tr:   Transform{X: 50, Y: 50, ScaleX: 2, ScaleY: 2, OriginX: 16, OriginY: 8},
			want: [4][2]float32{{18, 34}, {82, 34}, {18, 66}, {82, 66}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBatchBuilder(0)
			b.Push(DrawCommand{Kind: CommandSprite, Transform: tt.tr, Size: tt.size, Color: ColorWhite, Region: region})
			v := b.Vertices()
			if len(v) != 4 {
				t.Fatalf("vertices = %d, want 4", len(v))
			}
			for i, w := range tt.want {
				if !approxEqual(v[i].X, w[0]) || !approxEqual(v[i].Y, w[1]) {
					t.Errorf("vertex %d = (%v, %v), want (%v, %v)", i, v[i].X, v[i].Y, w[0], w[1])
				}
			}
		})
	}
}

func TestBatchVertexUVsAndColor(t *testing.T) {
	region := AtlasRegion{Page: 0, Width: 32, Height: 16, U0: 0.25, V0: 0.5, U1: 0.75, V1: 1}
	tint := Color{0.5, 0.25, 1, 0.75}
	b := NewBatchBuilder(0)
	b.Push(DrawCommand{Kind: CommandSprite, Transform: At(0, 0), Color: tint, Region: region})
	v := b.Vertices()
	want := [4][2]float32{{0.25, 0.5}, {0.75, 0.5}, {0.25, 1}, {0.75, 1}}
	for i, w := range want {
		if v[i].U != w[0] || v[i].V != w[1] {
			t.Errorf("vertex %d UV = (%v, %v), want %v", i, v[i].U, v[i].V, w)
		}
		if (Color{v[i].R, v[i].G, v[i].B, v[i].A}) != tint {
			t.Errorf("vertex %d color = %v %v %v %v, want %+v", i, v[i].R, v[i].G, v[i].B, v[i].A, tint)
		}
	}
}

func TestBatchRotatedRegion(t *testing.T) {
	// 8 wide, 16 tall in the page; drawn as 16 wide, 8 tall.
	region := AtlasRegion{Page: 0, Width: 8, Height: 16, U0: 0, V0: 0, U1: 0.5, V1: 1, Rotated: true}
	b := NewBatchBuilder(0)
	b.Push(DrawCommand{Kind: CommandSprite, Transform: At(0, 0), Color: ColorWhite, Region: region})
	v := b.Vertices()

	if !approxEqual(v[3].X, 16) || !approxEqual(v[3].Y, 8) {
		t.Errorf("BR = (%v, %v), want (16, 8)", v[3].X, v[3].Y)
	}
	wantUV := [4][2]float32{{0.5, 0}, {0.5, 1}, {0, 0}, {0, 1}}
	for i, w := range wantUV {
		if v[i].U != w[0] || v[i].V != w[1] {
			t.Errorf("vertex %d UV = (%v, %v), want %v", i, v[i].U, v[i].V, w)
		}
	}
}

func TestBatchRectUVs(t *testing.T) {
	b := NewBatchBuilder(0)
	b.Push(DrawCommand{Kind: CommandRect, Transform: At(5, 5), Size: Vec2{10, 20}, Color: ColorRed})
	v := b.Vertices()
	if v[0].U != 0 || v[0].V != 0 || v[3].U != 1 || v[3].V != 1 {
		t.Errorf("rect UVs = %+v", v)
	}
	if !approxEqual(v[3].X, 15) || !approxEqual(v[3].Y, 25) {
		t.Errorf("BR = (%v, %v), want (15, 25)", v[3].X, v[3].Y)
	}
}

func TestBatchGlyphRunVertices(t *testing.T) {
	b := NewBatchBuilder(0)
	b.Push(DrawCommand{
		Kind:      CommandGlyphRun,
		Transform: At(100, 50),
		Color:     ColorWhite,
		Glyphs: []GlyphQuad{
			{X: 0, Y: 2, Width: 6, Height: 8, U0: 0, V0: 0, U1: 0.1, V1: 0.2},
			{X: 7, Y: 0, Width: 5, Height: 10, U0: 0.1, V0: 0, U1: 0.2, V1: 0.25},
		},
	})
	v := b.Vertices()
	if len(v) != 8 {
		t.Fatalf("vertices = %d, want 8", len(v))
	}
	if v[0].X != 100 || v[0].Y != 52 || v[3].X != 106 || v[3].Y != 60 {
		t.Errorf("first glyph = %+v %+v", v[0], v[3])
	}
	if v[4].X != 107 || v[4].U != 0.1 || v[7].V != 0.25 {
		t.Errorf("second glyph = %+v %+v", v[4], v[7])
	}
}

// --- Indices ---

func TestQuadIndices(t *testing.T) {
	got := quadIndices(nil, 2)
	want := []uint32{0, 1, 2, 1, 3, 2, 4, 5, 6, 5, 7, 6}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("indices = %v, want %v", got, want)
		}
	}

	// Growing keeps the prefix and shrinking only reslices.
	more := quadIndices(got, 3)
	if len(more) != 18 || more[12] != 8 || more[17] != 10 {
		t.Errorf("grown = %v", more)
	}
	if fewer := quadIndices(more, 1); len(fewer) != 6 {
		t.Errorf("len = %d, want 6", len(fewer))
	}
}
