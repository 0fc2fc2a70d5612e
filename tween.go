package pufferfish

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float32 fields simultaneously. Create one via
// the convenience constructors (TweenValue, TweenVec2, TweenColor) and call
// Update(dt) each frame with Context.Delta. The group writes values straight
// into the target fields.
//
// There is no global animation manager; callers own their tweens.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float32
	from   [4]float32
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. Done is set once every tween has finished.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// Reset rewinds the group to its starting values.
func (g *TweenGroup) Reset() {
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
		*g.fields[i] = g.from[i]
	}
	g.Done = false
}

// TweenValue animates *v to the target value over duration seconds.
func TweenValue(v *float32, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(*v, to, duration, fn)
	g.fields[0] = v
	g.from[0] = *v
	return g
}

// TweenVec2 animates both components of *v, for positions, sizes or scales.
func TweenVec2(v *Vec2, to Vec2, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2}
	g.tweens[0] = gween.New(v.X, to.X, duration, fn)
	g.tweens[1] = gween.New(v.Y, to.Y, duration, fn)
	g.fields[0] = &v.X
	g.fields[1] = &v.Y
	g.from = [4]float32{v.X, v.Y}
	return g
}

// TweenColor animates all four components of *c (R, G, B, A) to the target
// color over the specified duration.
func TweenColor(c *Color, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 4}
	g.tweens[0] = gween.New(c.R, to.R, duration, fn)
	g.tweens[1] = gween.New(c.G, to.G, duration, fn)
	g.tweens[2] = gween.New(c.B, to.B, duration, fn)
	g.tweens[3] = gween.New(c.A, to.A, duration, fn)
	g.fields[0] = &c.R
	g.fields[1] = &c.G
	g.fields[2] = &c.B
	g.fields[3] = &c.A
	g.from = [4]float32{c.R, c.G, c.B, c.A}
	return g
}
