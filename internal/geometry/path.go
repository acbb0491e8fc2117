package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/dedbin/rimo/internal/board"
)

// BuildPathLayer turns absolute stroke samples into a path layer whose
// points are relative to its own origin.
func BuildPathLayer(points []board.PathPoint, fill board.Color, size float64) (*board.PathLayer, error) {
	if len(points) < 2 {
		return nil, &board.ValidationError{Field: "points", Reason: "a stroke needs at least two points"}
	}

	left, top := math.Inf(1), math.Inf(1)
	right, bottom := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		left, right = min(left, p.X), max(right, p.X)
		top, bottom = min(top, p.Y), max(bottom, p.Y)
	}

	local := make([]board.PathPoint, len(points))
	for i, p := range points {
		local[i] = board.PathPoint{X: p.X - left, Y: p.Y - top, Pressure: p.Pressure}
	}

	return &board.PathLayer{
		Shape: board.Shape{
			X:      left,
			Y:      top,
			Width:  right - left,
			Height: bottom - top,
			Fill:   fill,
		},
		Points: local,
		Size:   size,
	}, nil
}

// PathCommand renders outline points as a closed SVG path, smoothing each
// corner with a quadratic curve through the midpoint to the next point.
func PathCommand(outline []board.Point) string {
	if len(outline) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("M ")
	b.WriteString(num(outline[0].X))
	b.WriteByte(' ')
	b.WriteString(num(outline[0].Y))
	b.WriteString(" Q")
	for i, p := range outline {
		next := outline[(i+1)%len(outline)]
		for _, v := range []float64{p.X, p.Y, (p.X + next.X) / 2, (p.Y + next.Y) / 2} {
			b.WriteByte(' ')
			b.WriteString(num(v))
		}
	}
	b.WriteString(" Z")
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
