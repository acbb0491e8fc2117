package board

import "fmt"

// LayerType is the discriminant carried by every layer on the wire.
type LayerType string

const (
	LayerRectangle   LayerType = "rectangle"
	LayerEllipse     LayerType = "ellipse"
	LayerText        LayerType = "text"
	LayerSticker     LayerType = "sticker"
	LayerPath        LayerType = "path"
	LayerImage       LayerType = "image"
	LayerLinkPreview LayerType = "linkPreview"
)

// Layer is one visible canvas object. The set of implementations is closed:
// RectangleLayer, EllipseLayer, TextLayer, StickerLayer, PathLayer, ImageLayer
// and LinkPreviewLayer.
type Layer interface {
	Type() LayerType
	Bounds() XYWH
	FillColor() Color
	Clone() Layer
	sealed()
}

// Shape holds the fields every layer variant carries.
type Shape struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Fill   Color
}

func (s Shape) Bounds() XYWH     { return XYWH{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height} }
func (s Shape) FillColor() Color { return s.Fill }
func (Shape) sealed()            {}

func (s *Shape) setBounds(b XYWH) {
	s.X, s.Y, s.Width, s.Height = b.X, b.Y, b.Width, b.Height
}

type RectangleLayer struct{ Shape }

func (*RectangleLayer) Type() LayerType { return LayerRectangle }
func (l *RectangleLayer) Clone() Layer  { c := *l; return &c }

type EllipseLayer struct{ Shape }

func (*EllipseLayer) Type() LayerType { return LayerEllipse }
func (l *EllipseLayer) Clone() Layer  { c := *l; return &c }

// TextStyle is shared by the text-bearing variants.
type TextStyle struct {
	Value      string
	FontSize   float64
	FontFamily string
}

type TextLayer struct {
	Shape
	TextStyle
}

func (*TextLayer) Type() LayerType { return LayerText }
func (l *TextLayer) Clone() Layer  { c := *l; return &c }

type StickerLayer struct {
	Shape
	TextStyle
}

func (*StickerLayer) Type() LayerType { return LayerSticker }
func (l *StickerLayer) Clone() Layer  { c := *l; return &c }

// PathLayer is a freehand stroke. Points are relative to the layer origin.
type PathLayer struct {
	Shape
	Points []PathPoint
	Size   float64
}

func (*PathLayer) Type() LayerType { return LayerPath }

func (l *PathLayer) Clone() Layer {
	c := *l
	c.Points = append([]PathPoint(nil), l.Points...)
	return &c
}

// Absolute returns point i translated into world space.
func (l *PathLayer) Absolute(i int) Point {
	return Point{X: l.Points[i].X + l.X, Y: l.Points[i].Y + l.Y}
}

type ImageLayer struct {
	Shape
	Src string
}

func (*ImageLayer) Type() LayerType { return LayerImage }
func (l *ImageLayer) Clone() Layer  { c := *l; return &c }

// LinkPreviewLayer shows fetched page metadata. Metadata fields stay nil
// until the fetch resolves or when the page did not provide them.
type LinkPreviewLayer struct {
	Shape
	URL         string
	Title       *string
	Description *string
	Image       *string
	Favicon     *string
}

func (*LinkPreviewLayer) Type() LayerType { return LayerLinkPreview }

func (l *LinkPreviewLayer) Clone() Layer {
	c := *l
	c.Title = cloneString(l.Title)
	c.Description = cloneString(l.Description)
	c.Image = cloneString(l.Image)
	c.Favicon = cloneString(l.Favicon)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// TextOf returns the text style of Text and Sticker layers.
func TextOf(l Layer) (TextStyle, bool) {
	switch v := l.(type) {
	case *TextLayer:
		return v.TextStyle, true
	case *StickerLayer:
		return v.TextStyle, true
	default:
		return TextStyle{}, false
	}
}

// Patch is a targeted field update. Nil fields are left untouched.
type Patch struct {
	X          *float64 `json:"x,omitempty"`
	Y          *float64 `json:"y,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Fill       *Color   `json:"fill,omitempty"`
	Value      *string  `json:"value,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
}

// BoundsPatch builds a patch that sets all four box fields.
func BoundsPatch(b XYWH) Patch {
	return Patch{X: &b.X, Y: &b.Y, Width: &b.Width, Height: &b.Height}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Apply returns a copy of l with the patch applied. Text fields are ignored
// for variants that do not carry text.
func Apply(l Layer, p Patch) Layer {
	out := l.Clone()
	var shape *Shape
	var text *TextStyle

	switch v := out.(type) {
	case *RectangleLayer:
		shape = &v.Shape
	case *EllipseLayer:
		shape = &v.Shape
	case *TextLayer:
		shape, text = &v.Shape, &v.TextStyle
	case *StickerLayer:
		shape, text = &v.Shape, &v.TextStyle
	case *PathLayer:
		shape = &v.Shape
	case *ImageLayer:
		shape = &v.Shape
	case *LinkPreviewLayer:
		shape = &v.Shape
	default:
		panic(fmt.Sprintf("board: unhandled layer type %T", l))
	}

	b := shape.Bounds()
	if p.X != nil {
		b.X = *p.X
	}
	if p.Y != nil {
		b.Y = *p.Y
	}
	if p.Width != nil {
		b.Width = max(*p.Width, 0)
	}
	if p.Height != nil {
		b.Height = max(*p.Height, 0)
	}
	shape.setBounds(b)
	if p.Fill != nil {
		shape.Fill = *p.Fill
	}

	if text != nil {
		if p.Value != nil {
			text.Value = *p.Value
		}
		if p.FontSize != nil {
			text.FontSize = *p.FontSize
		}
		if p.FontFamily != nil {
			text.FontFamily = *p.FontFamily
		}
	}
	return out
}

// Moved returns a copy of l translated by (dx, dy).
func Moved(l Layer, dx, dy float64) Layer {
	b := l.Bounds()
	return Apply(l, Patch{X: Float(b.X + dx), Y: Float(b.Y + dy)})
}
