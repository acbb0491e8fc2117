package geometry

import "github.com/dedbin/rimo/internal/board"

// Side marks the edges a resize handle drags. Corners combine two bits.
type Side uint8

const (
	Top Side = 1 << iota
	Bottom
	Left
	Right
)

const (
	TopLeft     = Top | Left
	TopRight    = Top | Right
	BottomLeft  = Bottom | Left
	BottomRight = Bottom | Right
)

// Size is a minimum width and height.
type Size struct {
	Width  float64
	Height float64
}

// ResizeBounds drags the edges named by corner to p. The opposite edge stays
// anchored and neither dimension shrinks below floor. When both bits of an axis
// are set, Right and Bottom are used.
func ResizeBounds(initial board.XYWH, corner Side, p board.Point, floor Size) board.XYWH {
	out := initial

	switch {
	case corner&Right != 0:
		out.Width = max(p.X-initial.X, floor.Width)
	case corner&Left != 0:
		right := initial.Right()
		out.Width = max(right-p.X, floor.Width)
		out.X = right - out.Width
	}

	switch {
	case corner&Bottom != 0:
		out.Height = max(p.Y-initial.Y, floor.Height)
	case corner&Top != 0:
		bottom := initial.Bottom()
		out.Height = max(bottom-p.Y, floor.Height)
		out.Y = bottom - out.Height
	}

	return out
}

// HandlePoint returns the position of the handle for corner on box.
func HandlePoint(box board.XYWH, corner Side) board.Point {
	p := box.Center()
	switch {
	case corner&Right != 0:
		p.X = box.Right()
	case corner&Left != 0:
		p.X = box.X
	}
	switch {
	case corner&Bottom != 0:
		p.Y = box.Bottom()
	case corner&Top != 0:
		p.Y = box.Y
	}
	return p
}

// Handles lists the eight resize handles in clockwise order from top-left.
var Handles = []Side{TopLeft, Top, TopRight, Right, BottomRight, Bottom, BottomLeft, Left}
