package geometry

import (
	"math"

	"github.com/dedbin/rimo/internal/board"
)

// OutlineOptions tunes stroke outline generation.
type OutlineOptions struct {
	Size       float64
	Thinning   float64
	Smoothing  float64
	Streamline float64
}

// DefaultOutlineOptions matches the pencil's drawing feel.
func DefaultOutlineOptions(size float64) OutlineOptions {
	return OutlineOptions{Size: size, Thinning: 0.5, Smoothing: 0.5, Streamline: 0.5}
}

// OutlineGenerator turns pressure samples into a closed polygon.
type OutlineGenerator interface {
	Outline(points []board.PathPoint, opts OutlineOptions) []board.Point
}

// OffsetOutline offsets every sample perpendicular to the stroke direction by
// a pressure-scaled radius, walking out along one side and back the other.
type OffsetOutline struct{}

func (OffsetOutline) Outline(points []board.PathPoint, opts OutlineOptions) []board.Point {
	if len(points) == 0 {
		return nil
	}

	pts := streamline(points, opts.Streamline)
	radius := func(p board.PathPoint) float64 {
		r := opts.Size / 2 * (1 + opts.Thinning*(p.Pressure-0.5)*2)
		return max(r, 0.5)
	}

	if len(pts) == 1 {
		// A dot: approximate a circle.
		r := radius(pts[0])
		const steps = 12
		out := make([]board.Point, steps)
		for i := range steps {
			a := 2 * math.Pi * float64(i) / steps
			out[i] = board.Point{X: pts[0].X + r*math.Cos(a), Y: pts[0].Y + r*math.Sin(a)}
		}
		return out
	}

	left := make([]board.Point, len(pts))
	right := make([]board.Point, len(pts))
	for i, p := range pts {
		prev, next := pts[max(i-1, 0)], pts[min(i+1, len(pts)-1)]
		dx, dy := next.X-prev.X, next.Y-prev.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			dx, dy, length = 1, 0, 1
		}
		nx, ny := -dy/length, dx/length
		r := radius(p)
		left[i] = board.Point{X: p.X + nx*r, Y: p.Y + ny*r}
		right[i] = board.Point{X: p.X - nx*r, Y: p.Y - ny*r}
	}

	out := make([]board.Point, 0, len(pts)*2)
	out = append(out, left...)
	for i := len(right) - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	return out
}

func streamline(points []board.PathPoint, amount float64) []board.PathPoint {
	t := 1 - max(0, min(1, amount))*0.85
	out := make([]board.PathPoint, len(points))
	out[0] = points[0]
	for i := 1; i < len(points); i++ {
		prev := out[i-1]
		p := points[i]
		out[i] = board.PathPoint{
			X:        prev.X + (p.X-prev.X)*t,
			Y:        prev.Y + (p.Y-prev.Y)*t,
			Pressure: p.Pressure,
		}
	}
	return out
}
