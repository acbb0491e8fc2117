package canvas

import (
	"encoding/json"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/geometry"
)

// Mode is the active interaction. Exactly one is active at a time.
type Mode int

const (
	ModeNone Mode = iota
	ModePressing
	ModeSelectionNet
	ModeTranslating
	ModeResizing
	ModeInserting
	ModePencil
	ModeEraser
	ModePanning
)

var modeNames = map[Mode]string{
	ModeNone:         "none",
	ModePressing:     "pressing",
	ModeSelectionNet: "selectionNet",
	ModeTranslating:  "translating",
	ModeResizing:     "resizing",
	ModeInserting:    "inserting",
	ModePencil:       "pencil",
	ModeEraser:       "eraser",
	ModePanning:      "panning",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// State is the interaction state. Only the fields of the active mode are
// meaningful:
//
//	Pressing      Origin (world)
//	SelectionNet  Origin, Current (world)
//	Translating   Current (world)
//	Resizing      Initial, Corner
//	Inserting     LayerType
//	Panning       Origin, Current (screen), Previous
type State struct {
	Mode      Mode
	Origin    board.Point
	Current   board.Point
	Initial   board.XYWH
	Corner    geometry.Side
	LayerType board.LayerType
	Previous  *State
}

func (s State) MarshalJSON() ([]byte, error) {
	out := map[string]any{"mode": s.Mode.String()}
	switch s.Mode {
	case ModePressing:
		out["origin"] = s.Origin
	case ModeSelectionNet:
		out["origin"] = s.Origin
		out["current"] = s.Current
	case ModeTranslating:
		out["current"] = s.Current
	case ModeResizing:
		out["initialBounds"] = s.Initial
		out["corner"] = s.Corner
	case ModeInserting:
		out["layerType"] = s.LayerType
	case ModePanning:
		out["origin"] = s.Origin
		out["current"] = s.Current
		if s.Previous != nil {
			out["previous"] = s.Previous
		}
	}
	return json.Marshal(out)
}

// cursorHint maps the state to a CSS cursor for renderers.
func cursorHint(s State) string {
	switch s.Mode {
	case ModePanning:
		return "grabbing"
	case ModeTranslating:
		return "move"
	case ModeResizing:
		return resizeCursor(s.Corner)
	case ModeInserting, ModePencil, ModeSelectionNet:
		return "crosshair"
	case ModeEraser:
		return "cell"
	default:
		return "default"
	}
}

func resizeCursor(corner geometry.Side) string {
	switch corner {
	case geometry.TopLeft, geometry.BottomRight:
		return "nwse-resize"
	case geometry.TopRight, geometry.BottomLeft:
		return "nesw-resize"
	case geometry.Left, geometry.Right:
		return "ew-resize"
	default:
		return "ns-resize"
	}
}
