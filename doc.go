// Package pufferfish is an immediate-mode 2D rendering layer for [Ebitengine].
//
// Every frame the application issues draw calls in painter's order; pufferfish
// records them as commands, groups consecutive commands that share a texture
// page and blend mode into batches, and submits each batch as one indexed
// draw. Sprites, glyphs and solid rectangles all live in a paged texture
// atlas so that long runs of draws collapse into a handful of submissions.
//
// # Quick start
//
// The simplest way to get started is [App.Run], which creates a window and
// game loop for you:
//
//	type state struct{ hero pufferfish.ImageHandle }
//
//	app := pufferfish.NewApp(pufferfish.DefaultConfig(), &state{}, pufferfish.Callbacks[state]{
//		Init: func(ctx *pufferfish.Context[state]) error {
//			ctx.State.hero = ctx.Assets.LoadImage("hero.png")
//			return nil
//		},
//		Draw: func(ctx *pufferfish.Context[state]) error {
//			ctx.Graphics.Clear(pufferfish.ColorBlack)
//			if r, err := ctx.Assets.Image(ctx.State.hero); err == nil {
//				return ctx.Graphics.DrawSprite(r, 100, 50, nil)
//			}
//			return nil
//		},
//	})
//	if err := app.Run(); err != nil {
//		log.Fatal(err)
//	}
//
// Tests and tools drive the same application headless with [App.Start],
// [App.Step] and [App.Shutdown] on a [RecordingDevice].
//
// # Layers
//
// [Graphics] is the drawing API. It turns calls into [DrawCommand] values and
// hands them to the [Renderer], which owns the frame lifecycle
// (BeginFrame, Push, EndFrame) and the [BatchBuilder]. The renderer talks to
// the GPU only through the [Device] interface; [EbitenDevice] implements it
// on top of Ebitengine and [RecordingDevice] keeps everything in memory.
//
// The [Atlas] packs regions into fixed-size pages with a shelf packer and
// uploads dirty pixels before each submission. [LoadSheet] imports
// TexturePacker JSON sheets into it, [Assets] decodes images on worker
// goroutines, and the [GlyphCache] rasterizes glyphs of any [Font] once per
// size.
//
// Tweens (via [gween]) animate plain float32 fields; see [TweenValue].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package pufferfish
