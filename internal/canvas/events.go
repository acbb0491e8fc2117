package canvas

import "github.com/dedbin/rimo/internal/board"

// Button identifies the pointer button that changed.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// Bit masks for PointerEvent.Buttons.
const (
	ButtonsPrimary   = 1
	ButtonsSecondary = 2
)

// PointerEvent is a pointer sample in client (screen) coordinates.
type PointerEvent struct {
	Screen   board.Point
	Button   Button
	Buttons  int
	Pressure float64
}

// WheelEvent is a scroll or pinch. Ctrl is set for pinch-zoom gestures.
type WheelEvent struct {
	Screen board.Point
	DeltaX float64
	DeltaY float64
	Ctrl   bool
}

// KeyEvent is a key press. Code follows KeyboardEvent.code ("KeyZ",
// "Escape", "BracketRight"). Editing is set while a text field has focus.
type KeyEvent struct {
	Code    string
	Ctrl    bool
	Shift   bool
	Alt     bool
	Meta    bool
	Editing bool
}
