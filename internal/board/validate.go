package board

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateText checks a text or sticker value. maxLength of zero disables the
// length limit.
func ValidateText(value string, maxLength int) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: "value", Reason: "text is empty"}
	}
	if n := utf8.RuneCountInString(value); maxLength > 0 && n > maxLength {
		return &ValidationError{Field: "value", Reason: fmt.Sprintf("text has %d characters, limit is %d", n, maxLength)}
	}
	return nil
}

// Validate checks the content rules a layer must meet before it is stored:
// text-bearing layers need valid text, strokes at least two points, images
// a source and link cards an address.
func Validate(l Layer, maxTextLength int) error {
	switch v := l.(type) {
	case *TextLayer:
		return ValidateText(v.Value, maxTextLength)
	case *StickerLayer:
		return ValidateText(v.Value, maxTextLength)
	case *PathLayer:
		if len(v.Points) < 2 {
			return &ValidationError{Field: "points", Reason: fmt.Sprintf("stroke needs at least 2 points, got %d", len(v.Points))}
		}
	case *ImageLayer:
		if strings.TrimSpace(v.Src) == "" {
			return &ValidationError{Field: "src", Reason: "image layer without source"}
		}
	case *LinkPreviewLayer:
		if strings.TrimSpace(v.URL) == "" {
			return &ValidationError{Field: "url", Reason: "link without address"}
		}
	case *RectangleLayer, *EllipseLayer:
	case nil:
		return &ValidationError{Field: "layer", Reason: "missing"}
	default:
		panic(fmt.Sprintf("board: unhandled layer type %T", l))
	}
	return nil
}

// ValidatePatch checks the text carried by a patch, if any.
func ValidatePatch(p Patch, maxTextLength int) error {
	if p.Value != nil {
		return ValidateText(*p.Value, maxTextLength)
	}
	return nil
}
