package pufferfish

// DefaultFontSize is the text size used until SetFont is called.
const DefaultFontSize = 16

// SpriteOptions adjusts how DrawSprite places a region. The zero value draws
// the whole region at its pixel size with the current color.
type SpriteOptions struct {
	Size     Vec2  // destination size; zero means the source size
	Source   *Rect // sub-rectangle of the region in region pixels; nil means all of it
	Color    Color // zero means the current color
	Scale    Vec2  // zero means 1
	Rotation float32
	Origin   Vec2 // rotation and scale pivot in destination pixels
}

// TextOptions adjusts how DrawText lays out text. The zero value uses the
// current font, size and color.
type TextOptions struct {
	Font       *Font
	Size       float32
	Color      Color
	Align      TextAlign
	WrapWidth  float32
	LineHeight float32
}

// Graphics is the immediate-mode drawing API handed to draw callbacks. Draw
// calls become commands on the renderer's open frame, in call order.
type Graphics struct {
	r      *Renderer
	glyphs *GlyphCache
	fonts  *FontSet

	color    Color
	blend    BlendMode
	font     *Font
	fontSize float32
}

// NewGraphics returns a drawing API over r. Text uses glyphs, and fonts
// passed to SetFont or TextOptions are registered in fonts.
func NewGraphics(r *Renderer, glyphs *GlyphCache, fonts *FontSet) *Graphics {
	g := &Graphics{
		r:        r,
		glyphs:   glyphs,
		fonts:    fonts,
		color:    ColorWhite,
		font:     DefaultFont(),
		fontSize: DefaultFontSize,
	}
	fonts.Add(g.font)
	return g
}

// SetColor sets the tint used by draw calls that do not override it.
func (g *Graphics) SetColor(c Color) { g.color = c }

// Color returns the current color.
func (g *Graphics) Color() Color { return g.color }

// SetBlend sets the blend mode for subsequent draw calls.
func (g *Graphics) SetBlend(b BlendMode) { g.blend = b }

// Blend returns the current blend mode.
func (g *Graphics) Blend() BlendMode { return g.blend }

// SetFont sets the font and size used by DrawText.
func (g *Graphics) SetFont(f *Font, size float32) {
	if f == nil {
		f = DefaultFont()
	}
	g.fonts.Add(f)
	g.font, g.fontSize = f, size
}

// Clear fills the screen with c. Everything drawn before the call is drawn
// first.
func (g *Graphics) Clear(c Color) {
	g.r.Clear(c)
}

// DrawRect draws a solid rectangle in the current color.
func (g *Graphics) DrawRect(r Rect) error {
	return g.r.Push(DrawCommand{
		Kind:      CommandRect,
		Transform: At(r.X, r.Y),
		Size:      Vec2{r.Width, r.Height},
		Color:     g.color,
		Region:    SolidRegion(),
		Blend:     g.blend,
	})
}

// DrawSprite draws an atlas region with its top-left corner at (x, y).
func (g *Graphics) DrawSprite(region AtlasRegion, x, y float32, opts *SpriteOptions) error {
	var o SpriteOptions
	if opts != nil {
		o = *opts
	}

	if o.Source != nil {
		region = subRegion(region, *o.Source)
	}
	c := o.Color
	if c == (Color{}) {
		c = g.color
	}
	sx, sy := o.Scale.X, o.Scale.Y
	if sx == 0 && sy == 0 {
		sx, sy = 1, 1
	}
	return g.r.Push(DrawCommand{
		Kind: CommandSprite,
		Transform: Transform{
			X: x + o.Origin.X, Y: y + o.Origin.Y,
			ScaleX: sx, ScaleY: sy,
			Rotation: o.Rotation,
			OriginX:  o.Origin.X, OriginY: o.Origin.Y,
		},
		Size:   o.Size,
		Color:  c,
		Region: region,
		Blend:  g.blend,
	})
}

// subRegion narrows r to the pixel rectangle src given relative to r.
func subRegion(r AtlasRegion, src Rect) AtlasRegion {
	if r.Width == 0 || r.Height == 0 || r.Rotated {
		return r
	}
	du := (r.U1 - r.U0) / float32(r.Width)
	dv := (r.V1 - r.V0) / float32(r.Height)
	out := r
	out.ID = 0
	out.X = r.X + int(src.X)
	out.Y = r.Y + int(src.Y)
	out.Width = int(src.Width)
	out.Height = int(src.Height)
	out.U0 = r.U0 + src.X*du
	out.V0 = r.V0 + src.Y*dv
	out.U1 = r.U0 + (src.X+src.Width)*du
	out.V1 = r.V0 + (src.Y+src.Height)*dv
	return out
}

func (g *Graphics) textStyle(o TextOptions) TextStyle {
	st := TextStyle{
		Font:       o.Font,
		Size:       o.Size,
		Align:      o.Align,
		WrapWidth:  o.WrapWidth,
		LineHeight: o.LineHeight,
	}
	if st.Font == nil {
		st.Font = g.font
	} else {
		g.fonts.Add(st.Font)
	}
	if st.Size <= 0 {
		st.Size = g.fontSize
	}
	return st
}

// DrawText draws s with the top-left of its first line at (x, y). Glyphs are
// rasterized into the atlas on first use.
func (g *Graphics) DrawText(s string, x, y float32, opts *TextOptions) error {
	var o TextOptions
	if opts != nil {
		o = *opts
	}
	layout, err := LayoutText(g.glyphs, g.textStyle(o), s)
	if err != nil {
		return err
	}
	c := o.Color
	if c == (Color{}) {
		c = g.color
	}
	for _, run := range layout.Runs(At(x, y), c, g.blend) {
		if err := g.r.Push(run); err != nil {
			return err
		}
	}
	return nil
}

// DrawGlyph draws a single character with the top-left of its line box at
// (x, y), placed exactly as DrawText would place it. Blank glyphs draw
// nothing.
func (g *Graphics) DrawGlyph(c rune, x, y float32, opts *TextOptions) error {
	var o TextOptions
	if opts != nil {
		o = *opts
	}
	st := g.textStyle(o)
	e, err := g.glyphs.GetOrRasterize(st.Font.ID(), st.Font.GlyphIndex(c), st.Size)
	if err != nil {
		return err
	}
	if e.Blank {
		return nil
	}
	col := o.Color
	if col == (Color{}) {
		col = g.color
	}
	ascent := st.Font.Metrics(st.Size).Ascent
	layout := TextLayout{Glyphs: []PlacedGlyph{{
		Entry: e,
		X:     e.Metrics.BearingX,
		Y:     ascent + e.Metrics.BearingY,
	}}}
	return g.r.Push(layout.Runs(At(x, y), col, g.blend)[0])
}

// MeasureText returns the size DrawText would cover for s.
func (g *Graphics) MeasureText(s string, opts *TextOptions) Vec2 {
	var o TextOptions
	if opts != nil {
		o = *opts
	}
	return MeasureText(g.textStyle(o), s)
}
