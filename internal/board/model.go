package board

import (
	"fmt"
	"math"
)

// Point is a real-valued coordinate. Whether it is in screen or world space
// depends on where it came from.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PathPoint is a freehand sample: a position plus pen pressure.
type PathPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

// Color is an 8-bit RGB colour with optional alpha.
type Color struct {
	R uint8  `json:"r"`
	G uint8  `json:"g"`
	B uint8  `json:"b"`
	A *uint8 `json:"a,omitempty"`
}

// CSS returns the colour as a #rrggbb string.
func (c Color) CSS() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ContrastingText picks black or white text for the colour by perceived luminance.
func (c Color) ContrastingText() string {
	luminance := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if luminance > 150 {
		return "black"
	}
	return "white"
}

// Camera is the screen-space offset and zoom applied to the world.
type Camera struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// XYWH is an axis-aligned box. Width and height are never negative.
type XYWH struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r XYWH) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r XYWH) Bottom() float64 { return r.Y + r.Height }

// Contains checks if a point is inside the box, edges included.
func (r XYWH) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// ContainsBox reports whether other lies entirely inside r.
func (r XYWH) ContainsBox(other XYWH) bool {
	return other.X >= r.X && other.Y >= r.Y && other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// IsEmpty checks if the box has zero area.
func (r XYWH) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest box containing both boxes, zero-size boxes included.
func (r XYWH) Union(other XYWH) XYWH {
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.Right(), other.Right())
	maxY := math.Max(r.Bottom(), other.Bottom())
	return XYWH{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the centre point of the box.
func (r XYWH) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Translate returns the box moved by (dx, dy).
func (r XYWH) Translate(dx, dy float64) XYWH {
	return XYWH{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// BoxFromCorners normalizes two arbitrary corners into a box.
func BoxFromCorners(a, b Point) XYWH {
	return XYWH{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}
