// Package geometry holds the pure math the canvas engine relies on: bounds,
// hit tests, stroke conversion and resize.
package geometry

import (
	"math"

	"github.com/dedbin/rimo/internal/board"
)

// Enclosure returns the smallest box containing every layer. ok is false for
// an empty input.
func Enclosure(layers []board.Layer) (box board.XYWH, ok bool) {
	if len(layers) == 0 {
		return board.XYWH{}, false
	}
	box = layers[0].Bounds()
	for _, l := range layers[1:] {
		box = box.Union(l.Bounds())
	}
	return box, true
}

// IsNear reports whether p lies inside box grown by pad on every side.
func IsNear(p board.Point, box board.XYWH, pad float64) bool {
	return p.X >= box.X-pad && p.X <= box.Right()+pad &&
		p.Y >= box.Y-pad && p.Y <= box.Bottom()+pad
}

// DistanceToSegment is the distance from p to the segment a-b.
func DistanceToSegment(p, a, b board.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lengthSq
	t = max(0, min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// IntersectsPath reports whether p is within tolerance of any segment of the
// stroke. A single-point stroke is tested as a point.
func IntersectsPath(p board.Point, path *board.PathLayer, tolerance float64) bool {
	switch len(path.Points) {
	case 0:
		return false
	case 1:
		a := path.Absolute(0)
		return math.Hypot(p.X-a.X, p.Y-a.Y) <= tolerance
	}
	for i := 0; i+1 < len(path.Points); i++ {
		if DistanceToSegment(p, path.Absolute(i), path.Absolute(i+1)) <= tolerance {
			return true
		}
	}
	return false
}

// HitsLayer reports whether an eraser point touches the layer. Strokes are
// tested against their segments, everything else against padded bounds.
func HitsLayer(p board.Point, l board.Layer, pad, tolerance float64) bool {
	if path, ok := l.(*board.PathLayer); ok {
		return IntersectsPath(p, path, tolerance)
	}
	return IsNear(p, l.Bounds(), pad)
}

// Lookup resolves a layer id. Implemented by the layer store.
type Lookup interface {
	Get(id string) (board.Layer, bool)
}

// PickInBox returns the ids, in input order, whose bounds lie entirely inside
// the rectangle spanned by a and b. Partial overlap does not count.
func PickInBox(ids []string, layers Lookup, a, b board.Point) []string {
	net := board.BoxFromCorners(a, b)
	var picked []string
	for _, id := range ids {
		l, ok := layers.Get(id)
		if !ok {
			continue
		}
		if net.ContainsBox(l.Bounds()) {
			picked = append(picked, id)
		}
	}
	return picked
}

// HitTest returns the topmost id, scanning from the end of order, under p.
// Strokes are hit within tolerance of their segments, not anywhere in their
// bounds; everything else by its bounds.
func HitTest(order []string, layers Lookup, p board.Point, tolerance float64) (string, bool) {
	for i := len(order) - 1; i >= 0; i-- {
		l, ok := layers.Get(order[i])
		if !ok {
			continue
		}
		hit := l.Bounds().Contains(p)
		if path, ok := l.(*board.PathLayer); ok {
			hit = IntersectsPath(p, path, tolerance)
		}
		if hit {
			return order[i], true
		}
	}
	return "", false
}
