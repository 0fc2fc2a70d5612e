package pufferfish

import "fmt"

// KeyCode identifies a keyboard key.
type KeyCode uint8

const (
	KeyUnknown KeyCode = iota
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyLeftCtrl
	KeyRightCtrl
	KeyLeftShift
	KeyRightShift
	KeyLeftAlt
	KeyRightAlt
	KeySpace
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	keyCount
)

var keyNames = [keyCount]string{
	KeyUnknown:    "unknown",
	KeyLeftCtrl:   "left_ctrl",
	KeyRightCtrl:  "right_ctrl",
	KeyLeftShift:  "left_shift",
	KeyRightShift: "right_shift",
	KeyLeftAlt:    "left_alt",
	KeyRightAlt:   "right_alt",
	KeySpace:      "space",
	KeyEnter:      "enter",
	KeyEscape:     "escape",
	KeyBackspace:  "backspace",
	KeyTab:        "tab",
	KeyUp:         "up",
	KeyDown:       "down",
	KeyLeft:       "left",
	KeyRight:      "right",
}

func (k KeyCode) String() string {
	switch {
	case k >= KeyA && k <= KeyZ:
		return string(rune('a' + (k - KeyA)))
	case k >= Key0 && k <= Key9:
		return string(rune('0' + (k - Key0)))
	case k < keyCount:
		return keyNames[k]
	default:
		return fmt.Sprintf("KeyCode(%d)", k)
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)

	mouseButtonCount
)

// KeyModifiers is a bitmask of modifier keys currently held.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
)

// InputEventKind identifies an input event.
type InputEventKind uint8

const (
	EventKeyDown InputEventKind = iota
	EventKeyUp
	EventMouseDown
	EventMouseUp
	EventMouseMove
)

// InputEvent is one change of input state. Key events use Key, button events
// use Button, and every mouse event carries the cursor position.
type InputEvent struct {
	Kind   InputEventKind
	Key    KeyCode
	Button MouseButton
	X, Y   float32
}

// Input tracks keyboard and mouse state for the current frame. Pressed and
// released flags are edges: they are true only in the frame where the change
// happened.
type Input struct {
	down     [keyCount]bool
	pressed  [keyCount]bool
	released [keyCount]bool

	mouseDown     [mouseButtonCount]bool
	mousePressed  [mouseButtonCount]bool
	mouseReleased [mouseButtonCount]bool
	mouseX        float32
	mouseY        float32

	injectQueue []InputEvent
}

// NewInput returns an input state with nothing held.
func NewInput() *Input {
	return &Input{}
}

// beginFrame clears the edge flags of the previous frame.
func (in *Input) beginFrame() {
	in.pressed = [keyCount]bool{}
	in.released = [keyCount]bool{}
	in.mousePressed = [mouseButtonCount]bool{}
	in.mouseReleased = [mouseButtonCount]bool{}
}

// Update starts a new input frame and applies events in order. One queued
// injected event, if any, is applied after them.
func (in *Input) Update(events []InputEvent) {
	in.beginFrame()
	for _, ev := range events {
		in.apply(ev)
	}
	in.processInjected()
}

func (in *Input) apply(ev InputEvent) {
	switch ev.Kind {
	case EventKeyDown:
		if ev.Key == KeyUnknown || ev.Key >= keyCount {
			return
		}
		if !in.down[ev.Key] {
			in.pressed[ev.Key] = true
		}
		in.down[ev.Key] = true
	case EventKeyUp:
		if ev.Key == KeyUnknown || ev.Key >= keyCount {
			return
		}
		if in.down[ev.Key] {
			in.released[ev.Key] = true
		}
		in.down[ev.Key] = false
	case EventMouseDown:
		in.mouseX, in.mouseY = ev.X, ev.Y
		if ev.Button >= mouseButtonCount {
			return
		}
		if !in.mouseDown[ev.Button] {
			in.mousePressed[ev.Button] = true
		}
		in.mouseDown[ev.Button] = true
	case EventMouseUp:
		in.mouseX, in.mouseY = ev.X, ev.Y
		if ev.Button >= mouseButtonCount {
			return
		}
		if in.mouseDown[ev.Button] {
			in.mouseReleased[ev.Button] = true
		}
		in.mouseDown[ev.Button] = false
	case EventMouseMove:
		in.mouseX, in.mouseY = ev.X, ev.Y
	}
}

// IsKeyDown reports whether k is held.
func (in *Input) IsKeyDown(k KeyCode) bool {
	return k < keyCount && in.down[k]
}

// IsKeyPressed reports whether k went down this frame.
func (in *Input) IsKeyPressed(k KeyCode) bool {
	return k < keyCount && in.pressed[k]
}

// IsKeyReleased reports whether k went up this frame.
func (in *Input) IsKeyReleased(k KeyCode) bool {
	return k < keyCount && in.released[k]
}

// KeysDown appends every held key to dst in KeyCode order.
func (in *Input) KeysDown(dst []KeyCode) []KeyCode {
	for k := KeyCode(1); k < keyCount; k++ {
		if in.down[k] {
			dst = append(dst, k)
		}
	}
	return dst
}

// Modifiers returns the held modifier keys.
func (in *Input) Modifiers() KeyModifiers {
	var mods KeyModifiers
	if in.down[KeyLeftShift] || in.down[KeyRightShift] {
		mods |= ModShift
	}
	if in.down[KeyLeftCtrl] || in.down[KeyRightCtrl] {
		mods |= ModCtrl
	}
	if in.down[KeyLeftAlt] || in.down[KeyRightAlt] {
		mods |= ModAlt
	}
	return mods
}

// IsMouseDown reports whether b is held.
func (in *Input) IsMouseDown(b MouseButton) bool {
	return b < mouseButtonCount && in.mouseDown[b]
}

// IsMousePressed reports whether b went down this frame.
func (in *Input) IsMousePressed(b MouseButton) bool {
	return b < mouseButtonCount && in.mousePressed[b]
}

// IsMouseReleased reports whether b went up this frame.
func (in *Input) IsMouseReleased(b MouseButton) bool {
	return b < mouseButtonCount && in.mouseReleased[b]
}

// MousePosition returns the cursor position in screen pixels.
func (in *Input) MousePosition() Vec2 {
	return Vec2{in.mouseX, in.mouseY}
}
