package pufferfish

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var ebitenKeys = map[ebiten.Key]KeyCode{
	ebiten.KeyA: KeyA, ebiten.KeyB: KeyB, ebiten.KeyC: KeyC, ebiten.KeyD: KeyD,
	ebiten.KeyE: KeyE, ebiten.KeyF: KeyF, ebiten.KeyG: KeyG, ebiten.KeyH: KeyH,
	ebiten.KeyI: KeyI, ebiten.KeyJ: KeyJ, ebiten.KeyK: KeyK, ebiten.KeyL: KeyL,
	ebiten.KeyM: KeyM, ebiten.KeyN: KeyN, ebiten.KeyO: KeyO, ebiten.KeyP: KeyP,
	ebiten.KeyQ: KeyQ, ebiten.KeyR: KeyR, ebiten.KeyS: KeyS, ebiten.KeyT: KeyT,
	ebiten.KeyU: KeyU, ebiten.KeyV: KeyV, ebiten.KeyW: KeyW, ebiten.KeyX: KeyX,
	ebiten.KeyY: KeyY, ebiten.KeyZ: KeyZ,

	ebiten.KeyDigit0: Key0, ebiten.KeyDigit1: Key1, ebiten.KeyDigit2: Key2,
	ebiten.KeyDigit3: Key3, ebiten.KeyDigit4: Key4, ebiten.KeyDigit5: Key5,
	ebiten.KeyDigit6: Key6, ebiten.KeyDigit7: Key7, ebiten.KeyDigit8: Key8,
	ebiten.KeyDigit9: Key9,

	ebiten.KeyControlLeft:  KeyLeftCtrl,
	ebiten.KeyControlRight: KeyRightCtrl,
	ebiten.KeyShiftLeft:    KeyLeftShift,
	ebiten.KeyShiftRight:   KeyRightShift,
	ebiten.KeyAltLeft:      KeyLeftAlt,
	ebiten.KeyAltRight:     KeyRightAlt,

	ebiten.KeySpace:      KeySpace,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyBackspace:  KeyBackspace,
	ebiten.KeyTab:        KeyTab,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
}

var ebitenButtons = [mouseButtonCount]ebiten.MouseButton{
	MouseButtonLeft:   ebiten.MouseButtonLeft,
	MouseButtonRight:  ebiten.MouseButtonRight,
	MouseButtonMiddle: ebiten.MouseButtonMiddle,
}

// ebitenPoller converts Ebitengine's polled input state into events.
type ebitenPoller struct {
	keys   []ebiten.Key
	events []InputEvent
	lastX  int
	lastY  int
}

// poll returns this tick's input events. The slice is reused.
func (p *ebitenPoller) poll() []InputEvent {
	p.events = p.events[:0]

	mx, my := ebiten.CursorPosition()
	x, y := float32(mx), float32(my)
	if mx != p.lastX || my != p.lastY {
		p.events = append(p.events, InputEvent{Kind: EventMouseMove, X: x, Y: y})
		p.lastX, p.lastY = mx, my
	}

	p.keys = inpututil.AppendJustPressedKeys(p.keys[:0])
	for _, k := range p.keys {
		if code, ok := ebitenKeys[k]; ok {
			p.events = append(p.events, InputEvent{Kind: EventKeyDown, Key: code})
		}
	}
	p.keys = inpututil.AppendJustReleasedKeys(p.keys[:0])
	for _, k := range p.keys {
		if code, ok := ebitenKeys[k]; ok {
			p.events = append(p.events, InputEvent{Kind: EventKeyUp, Key: code})
		}
	}

	for b, eb := range ebitenButtons {
		if inpututil.IsMouseButtonJustPressed(eb) {
			p.events = append(p.events, InputEvent{Kind: EventMouseDown, Button: MouseButton(b), X: x, Y: y})
		}
		if inpututil.IsMouseButtonJustReleased(eb) {
			p.events = append(p.events, InputEvent{Kind: EventMouseUp, Button: MouseButton(b), X: x, Y: y})
		}
	}
	return p.events
}
