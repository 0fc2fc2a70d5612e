package pufferfish

import (
	"strings"
	"unicode/utf8"
)

// TextAlign controls horizontal alignment of lines within a text block.
type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

// TextStyle describes how text is laid out.
type TextStyle struct {
	Font      *Font
	Size      float32
	Align     TextAlign
	WrapWidth float32 // 0 disables word wrapping
	// LineHeight overrides the font's line height when positive.
	LineHeight float32
}

func (s TextStyle) lineHeight() float32 {
	if s.LineHeight > 0 {
		return s.LineHeight
	}
	return s.Font.Metrics(s.Size).LineHeight
}

// PlacedGlyph is a glyph positioned relative to the text origin, which is
// the top-left corner of the first line box. X and Y locate the glyph
// bitmap's top-left corner.
type PlacedGlyph struct {
	Entry GlyphEntry
	X, Y  float32
}

// TextLayout is laid out text ready to be turned into glyph runs.
type TextLayout struct {
	Glyphs []PlacedGlyph // non-blank glyphs only, in reading order
	Width  float32
	Height float32
	Lines  int
}

// textLine stores one line of laid-out glyphs.
type textLine struct {
	glyphs []lineGlyph
	width  float32
}

// lineGlyph is a glyph id and its pen position on the line.
type lineGlyph struct {
	id GlyphID
	x  float32
}

// layoutLines breaks s into lines and computes pen positions. Newlines always
// break; with a wrap width, lines also break between words. Kerning is applied
// between consecutive glyphs of a line.
func layoutLines(style TextStyle, s string) []textLine {
	f, size := style.Font, style.Size
	space := f.GlyphIndex(' ')
	spaceAdv := f.MeasureGlyph(space, size).Advance

	var lines []textLine
	for _, para := range strings.Split(s, "\n") {
		var cur textLine
		var prev GlyphID
		hasPrev := false
		pen := float32(0)

		for wi, word := range strings.Split(para, " ") {
			ids := make([]GlyphID, 0, utf8.RuneCountInString(word))
			for _, r := range word {
				ids = append(ids, f.GlyphIndex(r))
			}
			wordW := float32(0)
			for i, id := range ids {
				if i > 0 {
					wordW += f.Kern(ids[i-1], id, size)
				}
				wordW += f.MeasureGlyph(id, size).Advance
			}

			if wi > 0 {
				if style.WrapWidth > 0 && len(cur.glyphs) > 0 && pen+spaceAdv+wordW > style.WrapWidth {
					lines = append(lines, cur)
					cur = textLine{}
					pen = 0
					hasPrev = false
				} else {
					cur.glyphs = append(cur.glyphs, lineGlyph{id: space, x: pen})
					pen += spaceAdv
					prev, hasPrev = space, true
				}
			}

			for _, id := range ids {
				if hasPrev {
					pen += f.Kern(prev, id, size)
				}
				cur.glyphs = append(cur.glyphs, lineGlyph{id: id, x: pen})
				pen += f.MeasureGlyph(id, size).Advance
				prev, hasPrev = id, true
			}
			cur.width = pen
		}
		lines = append(lines, cur)
	}
	return lines
}

// alignOffset returns the x offset of a line for the style's alignment.
func alignOffset(style TextStyle, lineW, maxW float32) float32 {
	ref := maxW
	if style.WrapWidth > 0 {
		ref = style.WrapWidth
	}
	switch style.Align {
	case TextAlignCenter:
		return (ref - lineW) / 2
	case TextAlignRight:
		return ref - lineW
	default:
		return 0
	}
}

// MeasureText returns the size of the text block without rasterizing any
// glyph.
func MeasureText(style TextStyle, s string) Vec2 {
	if style.Font == nil {
		style.Font = DefaultFont()
	}
	lines := layoutLines(style, s)
	var maxW float32
	for _, l := range lines {
		if l.width > maxW {
			maxW = l.width
		}
	}
	return Vec2{X: maxW, Y: float32(len(lines)) * style.lineHeight()}
}

// LayoutText lays out s and resolves every glyph through the cache,
// rasterizing glyphs that are not resident yet.
func LayoutText(cache *GlyphCache, style TextStyle, s string) (TextLayout, error) {
	if style.Font == nil {
		style.Font = DefaultFont()
	}
	lines := layoutLines(style, s)
	lh := style.lineHeight()
	ascent := style.Font.Metrics(style.Size).Ascent

	var maxW float32
	for _, l := range lines {
		if l.width > maxW {
			maxW = l.width
		}
	}

	out := TextLayout{Width: maxW, Height: float32(len(lines)) * lh, Lines: len(lines)}
	for li, l := range lines {
		off := alignOffset(style, l.width, maxW)
		baseline := float32(li)*lh + ascent
		for _, g := range l.glyphs {
			e, err := cache.GetOrRasterize(style.Font.ID(), g.id, style.Size)
			if err != nil {
				return TextLayout{}, err
			}
			if e.Blank {
				continue
			}
			out.Glyphs = append(out.Glyphs, PlacedGlyph{
				Entry: e,
				X:     off + g.x + e.Metrics.BearingX,
				Y:     baseline + e.Metrics.BearingY,
			})
		}
	}
	return out, nil
}

// Runs converts the layout into glyph-run commands. Consecutive glyphs on the
// same atlas page share a run; a page change starts a new run so painter's
// order is kept.
func (l TextLayout) Runs(t Transform, c Color, blend BlendMode) []DrawCommand {
	var runs []DrawCommand
	for _, g := range l.Glyphs {
		r := g.Entry.Region
		if n := len(runs); n == 0 || runs[n-1].Region.Page != r.Page {
			runs = append(runs, DrawCommand{
				Kind:      CommandGlyphRun,
				Transform: t,
				Color:     c,
				Region:    AtlasRegion{Page: r.Page},
				Blend:     blend,
			})
		}
		run := &runs[len(runs)-1]
		run.Glyphs = append(run.Glyphs, GlyphQuad{
			X:      g.X,
			Y:      g.Y,
			Width:  float32(r.Width),
			Height: float32(r.Height),
			U0:     r.U0,
			V0:     r.V0,
			U1:     r.U1,
			V1:     r.V1,
		})
	}
	return runs
}
