package board

import (
	"encoding/json"
	"fmt"
)

// wireLayer is the canonical JSON shape of a layer. The "type" field is the
// discriminant; the remaining fields are filled per variant.
type wireLayer struct {
	Type        LayerType   `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Fill        Color       `json:"fill"`
	Value       string      `json:"value,omitempty"`
	FontSize    float64     `json:"fontSize,omitempty"`
	FontFamily  string      `json:"fontFamily,omitempty"`
	Points      [][]float64 `json:"points,omitempty"`
	Size        float64     `json:"size,omitempty"`
	Src         string      `json:"src,omitempty"`
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Image       *string     `json:"image,omitempty"`
	Favicon     *string     `json:"favicon,omitempty"`
}

func toWire(l Layer) wireLayer {
	b := l.Bounds()
	w := wireLayer{
		Type:   l.Type(),
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width,
		Height: b.Height,
		Fill:   l.FillColor(),
	}

	switch v := l.(type) {
	case *RectangleLayer, *EllipseLayer:
	case *TextLayer:
		w.Value, w.FontSize, w.FontFamily = v.Value, v.FontSize, v.FontFamily
	case *StickerLayer:
		w.Value, w.FontSize, w.FontFamily = v.Value, v.FontSize, v.FontFamily
	case *PathLayer:
		w.Size = v.Size
		w.Points = make([][]float64, len(v.Points))
		for i, p := range v.Points {
			w.Points[i] = []float64{p.X, p.Y, p.Pressure}
		}
	case *ImageLayer:
		w.Src = v.Src
	case *LinkPreviewLayer:
		w.Value = v.URL
		w.Title, w.Description, w.Image, w.Favicon = v.Title, v.Description, v.Image, v.Favicon
	default:
		panic(fmt.Sprintf("board: unhandled layer type %T", l))
	}
	return w
}

func fromWire(w wireLayer) (Layer, error) {
	shape := Shape{X: w.X, Y: w.Y, Width: max(w.Width, 0), Height: max(w.Height, 0), Fill: w.Fill}
	text := TextStyle{Value: w.Value, FontSize: w.FontSize, FontFamily: w.FontFamily}

	switch w.Type {
	case LayerRectangle:
		return &RectangleLayer{Shape: shape}, nil
	case LayerEllipse:
		return &EllipseLayer{Shape: shape}, nil
	case LayerText:
		return &TextLayer{Shape: shape, TextStyle: text}, nil
	case LayerSticker:
		return &StickerLayer{Shape: shape, TextStyle: text}, nil
	case LayerPath:
		points := make([]PathPoint, 0, len(w.Points))
		for i, raw := range w.Points {
			if len(raw) < 2 {
				return nil, &ValidationError{Field: "points", Reason: fmt.Sprintf("point %d has %d coordinates", i, len(raw))}
			}
			p := PathPoint{X: raw[0], Y: raw[1], Pressure: 0.5}
			if len(raw) > 2 {
				p.Pressure = raw[2]
			}
			points = append(points, p)
		}
		return &PathLayer{Shape: shape, Points: points, Size: w.Size}, nil
	case LayerImage:
		if w.Src == "" {
			return nil, &ValidationError{Field: "src", Reason: "image layer without source"}
		}
		return &ImageLayer{Shape: shape, Src: w.Src}, nil
	case LayerLinkPreview:
		return &LinkPreviewLayer{
			Shape:       shape,
			URL:         w.Value,
			Title:       w.Title,
			Description: w.Description,
			Image:       w.Image,
			Favicon:     w.Favicon,
		}, nil
	case "":
		return nil, &ValidationError{Field: "type", Reason: "missing layer type"}
	default:
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown layer type %q", w.Type)}
	}
}

// MarshalLayer encodes a single layer.
func MarshalLayer(l Layer) ([]byte, error) {
	return json.Marshal(toWire(l))
}

// UnmarshalLayer decodes a single layer.
func UnmarshalLayer(data []byte) (Layer, error) {
	var w wireLayer
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode layer: %w", err)
	}
	return fromWire(w)
}

// MarshalLayers encodes layers as a JSON array in the given order.
func MarshalLayers(layers []Layer) ([]byte, error) {
	wire := make([]wireLayer, len(layers))
	for i, l := range layers {
		wire[i] = toWire(l)
	}
	return json.Marshal(wire)
}

// UnmarshalLayers decodes a JSON array of layers. Every element must carry a
// known type discriminant.
func UnmarshalLayers(data []byte) ([]Layer, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode layer array: %w", err)
	}

	layers := make([]Layer, 0, len(raw))
	for i, r := range raw {
		l, err := UnmarshalLayer(r)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return layers, nil
}

// LayerMap is a map of layers that encodes through the wire format.
type LayerMap map[string]Layer

func (m LayerMap) MarshalJSON() ([]byte, error) {
	wire := make(map[string]wireLayer, len(m))
	for id, l := range m {
		wire[id] = toWire(l)
	}
	return json.Marshal(wire)
}

func (m *LayerMap) UnmarshalJSON(data []byte) error {
	var wire map[string]wireLayer
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	out := make(LayerMap, len(wire))
	for id, w := range wire {
		l, err := fromWire(w)
		if err != nil {
			return fmt.Errorf("layer %s: %w", id, err)
		}
		out[id] = l
	}
	*m = out
	return nil
}
