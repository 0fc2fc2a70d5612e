// sprites10k spawns 10,000 sprites that rotate, scale, fade, and bounce
// around the screen simultaneously. A stress test for the pufferfish batching
// pipeline: every sprite shares one atlas region, so the whole field is drawn
// in one or two draw calls.
//
// Pass -script to drive the demo with a JSON test script, for example one
// that waits 30 frames and takes a screenshot.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"math/rand/v2"
	"os"

	"github.com/phanxgames/pufferfish"
)

const (
	screenW    = 1280
	screenH    = 720
	count      = 10_000
	spriteSize = 64
)

type sprite struct {
	x, y       float32
	dx, dy     float32
	rotation   float32
	rotSpeed   float32
	scaleSpeed float64
	scaleBase  float64
	scaleAmp   float64
	alphaSpeed float64
	phase      float64
	tint       pufferfish.Color
}

type stress struct {
	region  pufferfish.AtlasRegion
	sprites []sprite
}

// makeBlob draws a soft-edged disc with a darker rim.
func makeBlob() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, spriteSize, spriteSize))
	c := float64(spriteSize) / 2
	for y := 0; y < spriteSize; y++ {
		for x := 0; x < spriteSize; x++ {
			d := math.Hypot(float64(x)+0.5-c, float64(y)+0.5-c) / c
			if d > 1 {
				continue
			}
			v := uint8(255 - 90*d*d)
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, uint8(255 * min(1, (1-d)*8))})
		}
	}
	return img
}

func initStress(ctx *pufferfish.Context[stress]) error {
	region, err := ctx.Atlas.AddImage(0, makeBlob())
	if err != nil {
		return err
	}
	s := ctx.State
	s.region = region
	s.sprites = make([]sprite, count)
	for i := range s.sprites {
		base := 0.3 + rand.Float64()*0.4
		s.sprites[i] = sprite{
			x:          rand.Float32() * screenW,
			y:          rand.Float32() * screenH,
			dx:         (rand.Float32() - 0.5) * 240,
			dy:         (rand.Float32() - 0.5) * 240,
			rotSpeed:   (rand.Float32() - 0.5) * 4.8,
			scaleSpeed: 1 + rand.Float64()*2,
			scaleBase:  base,
			scaleAmp:   0.06 + rand.Float64()*0.14,
			alphaSpeed: 0.5 + rand.Float64()*2,
			phase:      rand.Float64() * math.Pi * 2,
			tint: pufferfish.RGB(
				0.5+rand.Float32()*0.5,
				0.5+rand.Float32()*0.5,
				0.5+rand.Float32()*0.5,
			),
		}
	}
	return nil
}

func update(ctx *pufferfish.Context[stress]) error {
	if ctx.Input.IsKeyPressed(pufferfish.KeyEscape) {
		ctx.Quit()
	}
	dt := ctx.Delta
	for i := range ctx.State.sprites {
		s := &ctx.State.sprites[i]
		s.x += s.dx * dt
		s.y += s.dy * dt
		if s.x < 0 || s.x > screenW {
			s.x = min(max(s.x, 0), screenW)
			s.dx = -s.dx
		}
		if s.y < 0 || s.y > screenH {
			s.y = min(max(s.y, 0), screenH)
			s.dy = -s.dy
		}
		s.rotation += s.rotSpeed * dt
	}
	return nil
}

func draw(ctx *pufferfish.Context[stress]) error {
	g := ctx.Graphics
	g.Clear(pufferfish.RGB(0.06, 0.06, 0.09))

	t := ctx.Elapsed
	half := float32(spriteSize) / 2
	for i := range ctx.State.sprites {
		s := &ctx.State.sprites[i]
		sc := float32(s.scaleBase + s.scaleAmp*math.Sin(t*s.scaleSpeed+s.phase))
		tint := s.tint
		tint.A = float32(0.5 + 0.5*math.Sin(t*s.alphaSpeed+s.phase))
		err := g.DrawSprite(ctx.State.region, s.x-half, s.y-half, &pufferfish.SpriteOptions{
			Color:    tint,
			Scale:    pufferfish.Vec2{X: sc, Y: sc},
			Rotation: s.rotation,
			Origin:   pufferfish.Vec2{X: half, Y: half},
		})
		if err != nil {
			return err
		}
	}

	st := ctx.Renderer.Stats()
	g.SetColor(pufferfish.ColorWhite)
	return g.DrawText(fmt.Sprintf("%.0f fps  %d sprites  %d draw calls  %d quads",
		ctx.FPS, count, st.DrawCalls, st.Quads), 8, 8, nil)
}

func main() {
	script := flag.String("script", "", "JSON test script to run")
	flag.Parse()

	cfg := pufferfish.DefaultConfig()
	cfg.ScreenshotDir = "docs/demos/sprites10k"
	app := pufferfish.NewApp(cfg, &stress{}, pufferfish.Callbacks[stress]{
		Init:   initStress,
		Update: update,
		Draw:   draw,
	}).WithTitle("Pufferfish - 10k Sprites").WithSize(screenW, screenH)

	if *script != "" {
		data, err := os.ReadFile(*script)
		if err != nil {
			log.Fatal(err)
		}
		runner, err := pufferfish.LoadTestScript(data)
		if err != nil {
			log.Fatal(err)
		}
		app.WithTestRunner(runner)
	}

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
