package canvas

import "github.com/dedbin/rimo/internal/board"

// KeyDown applies a hotkey and reports whether it was handled. Keys typed
// into a focused text field are ignored.
func (e *Engine) KeyDown(ev KeyEvent) bool {
	if ev.Editing || ev.Alt {
		return false
	}

	switch ev.Code {
	case "Escape":
		e.Escape()
		return true
	case "Delete", "Backspace":
		e.DeleteSelection()
		return true
	}

	if !ev.Ctrl && !ev.Meta {
		return false
	}

	if ev.Shift {
		if ev.Code == "KeyZ" {
			e.Redo()
			return true
		}
		return false
	}

	switch ev.Code {
	case "KeyZ":
		e.Undo()
	case "KeyY":
		e.Redo()
	case "KeyD":
		_, _ = e.Duplicate()
	case "KeyC":
		_ = e.Copy()
	case "KeyV":
		_ = e.PasteFromClipboard()
	case "KeyP":
		e.ArmPencil()
	case "KeyE":
		e.ArmEraser()
	case "KeyT":
		_ = e.ArmInsert(board.LayerText)
	case "KeyS":
		_ = e.ArmInsert(board.LayerSticker)
	case "KeyR":
		_ = e.ArmInsert(board.LayerRectangle)
	case "KeyO":
		_ = e.ArmInsert(board.LayerEllipse)
	case "BracketRight":
		e.BringToFront()
	case "BracketLeft":
		e.SendToBack()
	default:
		return false
	}
	return true
}
