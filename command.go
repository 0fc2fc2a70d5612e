package pufferfish

import "math"

// CommandKind identifies the kind of draw command.
type CommandKind uint8

const (
	CommandSprite   CommandKind = iota // textured quad from an atlas region
	CommandRect                        // solid quad on SolidPage
	CommandGlyphRun                    // many glyph quads sharing one atlas page
)

func (k CommandKind) String() string {
	switch k {
	case CommandSprite:
		return "sprite"
	case CommandRect:
		return "rect"
	case CommandGlyphRun:
		return "glyph_run"
	default:
		return "unknown"
	}
}

// Transform places a quad in pixel space. The quad is offset by -Origin,
// scaled, rotated clockwise by Rotation radians (Y points down) and moved to
// Position. A zero ScaleX and ScaleY pair means unscaled.
type Transform struct {
	X, Y             float32
	ScaleX, ScaleY   float32
	Rotation         float32
	OriginX, OriginY float32
}

// At returns an unscaled, unrotated transform at (x, y).
func At(x, y float32) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

// affine returns the transform as [a, b, c, d, tx, ty] where a point maps to
// (a*x + c*y + tx, b*x + d*y + ty).
func (t Transform) affine() [6]float32 {
	sx, sy := t.ScaleX, t.ScaleY
	if sx == 0 && sy == 0 {
		sx, sy = 1, 1
	}
	cos, sin := float32(1), float32(0)
	if t.Rotation != 0 {
		s, c := math.Sincos(float64(t.Rotation))
		cos, sin = float32(c), float32(s)
	}
	a := cos * sx
	b := sin * sx
	c := -sin * sy
	d := cos * sy
	return [6]float32{a, b, c, d,
		t.X - (a*t.OriginX + c*t.OriginY),
		t.Y - (b*t.OriginX + d*t.OriginY),
	}
}

// GlyphQuad is one glyph of a glyph run, positioned relative to the run's
// transform.
type GlyphQuad struct {
	X, Y, Width, Height float32
	U0, V0, U1, V1      float32
}

// DrawCommand is a single draw request. Commands are copied by the batch
// builder and not retained.
type DrawCommand struct {
	Kind      CommandKind
	Transform Transform
	// Size is the quad size in local pixels before scaling. Zero means the
	// region's pixel size. Unused by glyph runs.
	Size   Vec2
	Color  Color
	Region AtlasRegion // for glyph runs only Region.Page is used
	Blend  BlendMode
	Glyphs []GlyphQuad

	// Order is the submission index, assigned by the batch builder.
	Order uint64
}

// batchKey groups draw commands that can be submitted in a single draw call.
type batchKey struct {
	page  PageID
	blend BlendMode
}

func commandBatchKey(cmd *DrawCommand) batchKey {
	page := cmd.Region.Page
	if cmd.Kind == CommandRect {
		page = SolidPage
	}
	return batchKey{page: page, blend: cmd.Blend}
}

// quadCount returns how many quads the command tessellates to.
func (c *DrawCommand) quadCount() int {
	if c.Kind == CommandGlyphRun {
		return len(c.Glyphs)
	}
	return 1
}
