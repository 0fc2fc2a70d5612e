package pufferfish

// InjectKeyPress queues a key down event. The event is consumed on the next
// frame's Update.
func (in *Input) InjectKeyPress(k KeyCode) {
	in.injectQueue = append(in.injectQueue, InputEvent{Kind: EventKeyDown, Key: k})
}

// InjectKeyRelease queues a key up event.
func (in *Input) InjectKeyRelease(k KeyCode) {
	in.injectQueue = append(in.injectQueue, InputEvent{Kind: EventKeyUp, Key: k})
}

// InjectKeyTap queues a press followed by a release. Consumes two frames.
func (in *Input) InjectKeyTap(k KeyCode) {
	in.InjectKeyPress(k)
	in.InjectKeyRelease(k)
}

// InjectPress queues a left button press at the given screen coordinates.
func (in *Input) InjectPress(x, y float32) {
	in.injectQueue = append(in.injectQueue, InputEvent{
		Kind: EventMouseDown, Button: MouseButtonLeft, X: x, Y: y,
	})
}

// InjectMove queues a cursor move to the given screen coordinates.
func (in *Input) InjectMove(x, y float32) {
	in.injectQueue = append(in.injectQueue, InputEvent{Kind: EventMouseMove, X: x, Y: y})
}

// InjectRelease queues a left button release at the given screen coordinates.
func (in *Input) InjectRelease(x, y float32) {
	in.injectQueue = append(in.injectQueue, InputEvent{
		Kind: EventMouseUp, Button: MouseButtonLeft, X: x, Y: y,
	})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same screen coordinates. Consumes two frames.
func (in *Input) InjectClick(x, y float32) {
	in.InjectPress(x, y)
	in.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate frames, and
// release at (toX, toY). The total sequence consumes `frames` frames.
// Minimum frames is 2 (press + release).
func (in *Input) InjectDrag(fromX, fromY, toX, toY float32, frames int) {
	if frames < 2 {
		frames = 2
	}
	in.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float32(i) / float32(steps+1)
		in.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	in.InjectRelease(toX, toY)
}

// PendingInjected returns the number of queued injected events.
func (in *Input) PendingInjected() int {
	return len(in.injectQueue)
}

// processInjected pops one event from the inject queue and applies it.
// Returns true if an event was consumed.
func (in *Input) processInjected() bool {
	if len(in.injectQueue) == 0 {
		return false
	}
	ev := in.injectQueue[0]
	copy(in.injectQueue, in.injectQueue[1:])
	in.injectQueue = in.injectQueue[:len(in.injectQueue)-1]
	in.apply(ev)
	return true
}
