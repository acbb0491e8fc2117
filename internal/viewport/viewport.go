// Package viewport owns the camera and converts between screen and world
// coordinates.
package viewport

import (
	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/geometry"
)

// Options bounds the camera.
type Options struct {
	MinScale float64
	MaxScale float64
	ZoomStep float64
	Width    float64
	Height   float64
}

// Controller holds the camera plus the canvas element's own offset on screen.
type Controller struct {
	camera board.Camera
	origin board.Point
	width  float64
	height float64
	opts   Options
}

func New(opts Options) *Controller {
	if opts.MinScale <= 0 {
		opts.MinScale = 0.1
	}
	if opts.MaxScale < opts.MinScale {
		opts.MaxScale = 4
	}
	if opts.ZoomStep <= 0 {
		opts.ZoomStep = 0.1
	}
	return &Controller{
		camera: board.Camera{Scale: 1},
		width:  opts.Width,
		height: opts.Height,
		opts:   opts,
	}
}

func (c *Controller) Camera() board.Camera { return c.camera }

// SetCamera replaces the camera, clamping the scale.
func (c *Controller) SetCamera(cam board.Camera) {
	cam.Scale = c.clamp(cam.Scale)
	c.camera = cam
}

// SetOrigin records where the canvas element starts on screen.
func (c *Controller) SetOrigin(p board.Point) { c.origin = p }

// Resize records the canvas element size in screen pixels.
func (c *Controller) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Size returns the canvas element size in screen pixels.
func (c *Controller) Size() (width, height float64) { return c.width, c.height }

func (c *Controller) toScreen() geometry.Matrix2D {
	return geometry.Translate(c.origin.X, c.origin.Y).Multiply(geometry.CameraMatrix(c.camera))
}

// ScreenToWorld maps a client-space pointer position into world space.
func (c *Controller) ScreenToWorld(p board.Point) board.Point {
	return c.toScreen().Invert().Apply(p)
}

// WorldToScreen maps a world position to client space.
func (c *Controller) WorldToScreen(p board.Point) board.Point {
	return c.toScreen().Apply(p)
}

// Pan moves the camera by a screen-space delta.
func (c *Controller) Pan(dx, dy float64) {
	c.camera.X += dx
	c.camera.Y += dy
}

// ZoomAt scales around the screen point p so the world point under it stays put.
func (c *Controller) ZoomAt(p board.Point, in bool) {
	factor := 1 - c.opts.ZoomStep
	if in {
		factor = 1 + c.opts.ZoomStep
	}
	c.zoomTo(p, c.camera.Scale*factor)
}

func (c *Controller) zoomTo(p board.Point, scale float64) {
	anchor := c.ScreenToWorld(p)
	c.camera.Scale = c.clamp(scale)
	local := board.Point{X: p.X - c.origin.X, Y: p.Y - c.origin.Y}
	c.camera.X = local.X - anchor.X*c.camera.Scale
	c.camera.Y = local.Y - anchor.Y*c.camera.Scale
}

func (c *Controller) center() board.Point {
	return board.Point{X: c.origin.X + c.width/2, Y: c.origin.Y + c.height/2}
}

func (c *Controller) ZoomIn()  { c.ZoomAt(c.center(), true) }
func (c *Controller) ZoomOut() { c.ZoomAt(c.center(), false) }

// ResetZoom returns to 100% keeping the world point at the viewport centre.
func (c *Controller) ResetZoom() { c.zoomTo(c.center(), 1) }

// VisibleWorld is the world-space box currently on screen.
func (c *Controller) VisibleWorld() board.XYWH {
	tl := c.ScreenToWorld(c.origin)
	br := c.ScreenToWorld(board.Point{X: c.origin.X + c.width, Y: c.origin.Y + c.height})
	return board.BoxFromCorners(tl, br)
}

func (c *Controller) clamp(scale float64) float64 {
	return max(c.opts.MinScale, min(c.opts.MaxScale, scale))
}
