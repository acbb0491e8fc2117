package selection

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dedbin/rimo/internal/board"
)

const goldenAngle = 137.508

func connectionHSL(connectionID int) colorful.Color {
	hue := math.Mod(float64(connectionID)*goldenAngle, 360)
	if hue < 0 {
		hue += 360
	}
	return colorful.Hsl(hue, 0.65, 0.5).Clamped()
}

// ConnectionColor derives a stable highlight colour from a connection id.
// Consecutive ids are a golden angle apart on the hue wheel.
func ConnectionColor(connectionID int) board.Color {
	r, g, b := connectionHSL(connectionID).RGB255()
	return board.Color{R: r, G: g, B: b}
}

// ConnectionCSS is ConnectionColor as a #rrggbb string.
func ConnectionCSS(connectionID int) string {
	return connectionHSL(connectionID).Hex()
}
