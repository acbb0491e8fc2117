package board

import "github.com/dedbin/rimo/internal/typeid"

// SampleLayers returns a small starter board: ids in paint order plus the layers.
func SampleLayers() ([]string, map[string]Layer) {
	rectID := typeid.NewLayerID()
	ellipseID := typeid.NewLayerID()
	stickerID := typeid.NewLayerID()
	strokeID := typeid.NewLayerID()

	layers := map[string]Layer{
		rectID: &RectangleLayer{Shape: Shape{
			X: 80, Y: 80, Width: 160, Height: 100,
			Fill: Color{R: 59, G: 130, B: 246},
		}},
		ellipseID: &EllipseLayer{Shape: Shape{
			X: 300, Y: 90, Width: 120, Height: 120,
			Fill: Color{R: 220, G: 38, B: 38},
		}},
		stickerID: &StickerLayer{
			Shape:     Shape{X: 480, Y: 80, Width: 160, Height: 160, Fill: Color{R: 253, G: 224, B: 71}},
			TextStyle: TextStyle{Value: "Hello", FontFamily: "Noto Sans"},
		},
		strokeID: &PathLayer{
			Shape: Shape{X: 100, Y: 260, Width: 200, Height: 40},
			Points: []PathPoint{
				{X: 0, Y: 40, Pressure: 0.5},
				{X: 50, Y: 0, Pressure: 0.5},
				{X: 100, Y: 40, Pressure: 0.5},
				{X: 150, Y: 0, Pressure: 0.5},
				{X: 200, Y: 40, Pressure: 0.5},
			},
			Size: 16,
		},
	}

	return []string{rectID, ellipseID, stickerID, strokeID}, layers
}
