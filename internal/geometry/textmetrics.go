package geometry

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/dedbin/rimo/internal/board"
)

const (
	TextPaddingX     = 8
	TextPaddingY     = 4
	TextLineHeight   = 1.2
	defaultFontSize  = 16
	faceCacheEntries = 16
)

// TextMeasurer returns the rendered width of text at a font size.
type TextMeasurer interface {
	Measure(text string, size float64) float64
}

// FontMeasurer measures text with an OpenType font. Faces are cached per size.
type FontMeasurer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontMeasurer parses a TTF/OTF font.
func NewFontMeasurer(ttf []byte) (*FontMeasurer, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontMeasurer{font: f, faces: make(map[float64]font.Face)}, nil
}

var (
	defaultMeasurer     *FontMeasurer
	defaultMeasurerOnce sync.Once
)

// DefaultMeasurer measures with the embedded Go Regular font.
func DefaultMeasurer() *FontMeasurer {
	defaultMeasurerOnce.Do(func() {
		m, err := NewFontMeasurer(goregular.TTF)
		if err != nil {
			panic(err)
		}
		defaultMeasurer = m
	})
	return defaultMeasurer
}

// face must be called with m.mu held.
func (m *FontMeasurer) face(size float64) (font.Face, error) {
	if f, ok := m.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	if len(m.faces) >= faceCacheEntries {
		for k, old := range m.faces {
			old.Close()
			delete(m.faces, k)
			break
		}
	}
	m.faces[size] = f
	return f, nil
}

// Measure returns the width of the widest line of text in pixels.
func (m *FontMeasurer) Measure(text string, size float64) float64 {
	if size <= 0 {
		size = defaultFontSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	face, err := m.face(size)
	if err != nil {
		// Rough fallback: average glyph is a bit over half the em size.
		return float64(len([]rune(text))) * size * 0.55
	}
	widest := 0.0
	for _, line := range strings.Split(text, "\n") {
		w := float64(font.MeasureString(face, line)) / 64
		widest = max(widest, w)
	}
	return widest
}

// TextFloor is the smallest box that still fits text at minFontSize.
func TextFloor(m TextMeasurer, text string, minFontSize float64) Size {
	return Size{
		Width:  m.Measure(text, minFontSize) + TextPaddingX*2,
		Height: minFontSize*TextLineHeight + TextPaddingY*2,
	}
}

// MinSize returns the resize floor for a layer: the static minimum, raised to
// the text floor for Text and Sticker layers.
func MinSize(l board.Layer, static float64, m TextMeasurer, minFontSize float64) Size {
	floor := Size{Width: static, Height: static}
	style, ok := board.TextOf(l)
	if !ok || m == nil {
		return floor
	}
	text := TextFloor(m, style.Value, minFontSize)
	return Size{Width: max(floor.Width, text.Width), Height: max(floor.Height, text.Height)}
}

// StickerFontSize scales sticker text with the note: 15% of the shorter side
// within [12, 96].
func StickerFontSize(box board.XYWH) float64 {
	return max(12, min(96, min(box.Width, box.Height)*0.15))
}
