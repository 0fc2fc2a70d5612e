package pufferfish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Callbacks are the application hooks. Any of them may be nil.
//
// Init runs once after the subsystems are created. Update runs once per tick
// before drawing; Draw runs inside an open frame. Exit runs once at shutdown.
type Callbacks[S any] struct {
	Init   func(ctx *Context[S]) error
	Update func(ctx *Context[S]) error
	Draw   func(ctx *Context[S]) error
	Exit   func(ctx *Context[S])
}

// Context is handed to every callback. It carries the subsystems and the
// typed user state; there is no global instance.
type Context[S any] struct {
	State    *S
	Graphics *Graphics
	Input    *Input
	Assets   *Assets
	Renderer *Renderer
	Atlas    *Atlas
	Glyphs   *GlyphCache
	Fonts    *FontSet

	Delta   float32 // seconds since the previous update
	Elapsed float64 // seconds since Init
	Frame   uint64  // completed frames
	FPS     float64 // measured by Ebitengine under Run, from Step deltas headless

	width, height int
	quit          bool
}

// Size returns the logical screen size.
func (c *Context[S]) Size() (width, height int) {
	return c.width, c.height
}

// Quit asks the application to stop after the current tick.
func (c *Context[S]) Quit() {
	c.quit = true
}

// App wires the subsystems together and drives the callbacks. Create it in
// main, then either call Run for a window or Start, Step and Shutdown to drive
// it headless.
type App[S any] struct {
	cfg  Config
	cb   Callbacks[S]
	fsys fs.FS
	ctx  *Context[S]
	dev  Device

	fps FPSCounter
	// measuredFPS, when set, supplies Context.FPS in place of the counter.
	// Run sets it to Ebitengine's measured rate.
	measuredFPS func() float64
	runner      *TestRunner
	shots  []string

	started bool
	closed  bool
}

// NewApp returns an application with the given config, state and callbacks.
// A nil state allocates a zero S.
func NewApp[S any](cfg Config, state *S, cb Callbacks[S]) *App[S] {
	if state == nil {
		state = new(S)
	}
	return &App[S]{
		cfg: cfg,
		cb:  cb,
		ctx: &Context[S]{State: state},
	}
}

// WithTitle sets the window title.
func (a *App[S]) WithTitle(title string) *App[S] {
	a.cfg.Title = title
	return a
}

// WithSize sets the window size.
func (a *App[S]) WithSize(width, height int) *App[S] {
	a.cfg.Width, a.cfg.Height = width, height
	return a
}

// WithVSync enables or disables vsync.
func (a *App[S]) WithVSync(enabled bool) *App[S] {
	a.cfg.VSync = enabled
	return a
}

// WithAssets sets the file system assets are loaded from. The default is the
// working directory.
func (a *App[S]) WithAssets(fsys fs.FS) *App[S] {
	a.fsys = fsys
	return a
}

// WithTestRunner attaches a scripted input runner. Its steps are applied one
// per update, before input is processed.
func (a *App[S]) WithTestRunner(r *TestRunner) *App[S] {
	a.runner = r
	return a
}

// Screenshot queues a labeled capture of the render target, taken at the end
// of the next drawn frame. Devices that cannot read back their target log a
// warning instead.
func (a *App[S]) Screenshot(label string) {
	a.shots = append(a.shots, label)
}

// Config returns the application config.
func (a *App[S]) Config() Config {
	return a.cfg
}

// Context returns the callback context.
func (a *App[S]) Context() *Context[S] {
	return a.ctx
}

// Quitting reports whether a callback asked to quit.
func (a *App[S]) Quitting() bool {
	return a.ctx.quit
}

// Start creates the subsystems on dev and runs Init.
func (a *App[S]) Start(dev Device) error {
	if a.started {
		return errors.New("pufferfish: app already started")
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.fsys == nil {
		a.fsys = os.DirFS(".")
	}

	a.dev = dev
	c := a.ctx
	c.Atlas = NewAtlas(dev, a.cfg.Atlas)
	c.Renderer = NewRenderer(dev, c.Atlas, a.cfg.MaxQuadsPerBatch)
	c.Renderer.SetDebugMode(a.cfg.Debug)
	c.Fonts = NewFontSet()
	c.Glyphs = NewGlyphCache(c.Atlas, c.Fonts)
	c.Graphics = NewGraphics(c.Renderer, c.Glyphs, c.Fonts)
	c.Graphics.SetBlend(a.cfg.DefaultBlend)
	c.Input = NewInput()
	c.Assets = NewAssets(a.fsys, c.Atlas, c.Fonts, a.cfg.DecodeWorkers)
	c.width, c.height = a.cfg.Width, a.cfg.Height
	if err := c.Renderer.Resize(c.width, c.height); err != nil {
		return err
	}
	a.started = true

	Logger().Info("app started", "title", a.cfg.Title, "width", a.cfg.Width, "height", a.cfg.Height)

	if a.cb.Init != nil {
		if err := a.cb.Init(c); err != nil {
			return fmt.Errorf("pufferfish: init: %w", err)
		}
	}
	return nil
}

// resize updates the logical size; the viewport change is applied at the
// next frame.
func (a *App[S]) resize(width, height int) {
	if width == a.ctx.width && height == a.ctx.height {
		return
	}
	if err := a.ctx.Renderer.Resize(width, height); err != nil {
		return
	}
	a.ctx.width, a.ctx.height = width, height
	Logger().Debug("resized", "width", width, "height", height)
}

// update runs one tick: input, finished asset loads, then the Update callback.
func (a *App[S]) update(dt float32, events []InputEvent) error {
	c := a.ctx
	c.Delta = dt
	c.Elapsed += float64(dt)
	if a.measuredFPS != nil {
		c.FPS = a.measuredFPS()
	} else {
		a.fps.Tick(dt)
		c.FPS = a.fps.FPS()
	}
	if a.runner != nil {
		a.runner.step(c.Input, a.Screenshot)
	}
	c.Input.Update(events)
	c.Assets.Update()
	if a.cb.Update != nil {
		if err := a.cb.Update(c); err != nil {
			return err
		}
	}
	return nil
}

// draw runs the Draw callback inside a frame.
func (a *App[S]) draw() error {
	c := a.ctx
	if err := c.Renderer.BeginFrame(); err != nil {
		return err
	}
	var drawErr error
	if a.cb.Draw != nil {
		drawErr = a.cb.Draw(c)
	}
	// The frame must be ended even when Draw fails.
	if err := c.Renderer.EndFrame(); err != nil {
		return err
	}
	c.Frame++
	a.flushScreenshots()
	return drawErr
}

// flushScreenshots captures the finished frame once per queued label.
func (a *App[S]) flushScreenshots() {
	if len(a.shots) == 0 {
		return
	}
	defer func() { a.shots = a.shots[:0] }()

	sc, ok := a.dev.(Screenshotter)
	if !ok {
		Logger().Warn("screenshot unsupported by device", "labels", len(a.shots))
		return
	}
	img, err := sc.Screenshot()
	if err != nil {
		Logger().Warn("screenshot failed", "err", err)
		return
	}
	now := time.Now()
	for _, label := range a.shots {
		path, err := saveScreenshot(a.cfg.ScreenshotDir, label, img, now)
		if err != nil {
			Logger().Warn("screenshot failed", "label", label, "err", err)
			continue
		}
		Logger().Info("screenshot saved", "path", path)
	}
}

// Step runs one update and one draw with the given frame delta and input
// events. It is the headless equivalent of one Ebitengine tick.
func (a *App[S]) Step(dt float32, events []InputEvent) error {
	if !a.started || a.closed {
		return errors.New("pufferfish: app is not running")
	}
	if err := a.update(dt, events); err != nil {
		return err
	}
	return a.draw()
}

// Resize changes the logical screen size of a headless app.
func (a *App[S]) Resize(width, height int) {
	a.resize(width, height)
}

// Shutdown runs Exit and releases every subsystem. Safe to call more than
// once.
func (a *App[S]) Shutdown() error {
	if !a.started || a.closed {
		return nil
	}
	a.closed = true
	c := a.ctx
	if a.cb.Exit != nil {
		a.cb.Exit(c)
	}
	c.Assets.Close()
	err := errors.Join(c.Renderer.Close(), c.Atlas.Close())
	Logger().Info("app stopped", "frames", c.Frame)
	return err
}
