package pufferfish

// fpsWindow is how often, in seconds, an FPSCounter refreshes its reading.
const fpsWindow = 0.5

// FPSCounter turns frame deltas into a frames-per-second reading that is
// refreshed about every half second, so an on-screen display stays legible.
// The zero value is ready to use.
type FPSCounter struct {
	elapsed float64
	frames  int
	fps     float64
}

// Tick records one frame that took dt seconds.
func (c *FPSCounter) Tick(dt float32) {
	c.elapsed += float64(dt)
	c.frames++
	if c.elapsed < fpsWindow {
		return
	}
	c.fps = float64(c.frames) / c.elapsed
	c.elapsed, c.frames = 0, 0
}

// FPS returns the last reading, or 0 before the first window has passed.
func (c *FPSCounter) FPS() float64 {
	return c.fps
}
