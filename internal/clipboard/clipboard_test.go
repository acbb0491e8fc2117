package clipboard

import (
	"errors"
	"testing"

	"github.com/dedbin/rimo/internal/board"
)

func TestClassify(t *testing.T) {
	encoded, err := Encode([]board.Layer{&board.RectangleLayer{Shape: board.Shape{Width: 5, Height: 5}}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name string
		in   Content
		want Kind
	}{
		{"layers", Content{Text: encoded}, KindLayers},
		{"url", Content{Text: "https://example.com/page?q=1"}, KindURL},
		{"url with spaces is text", Content{Text: "https://example.com and more"}, KindText},
		{"ftp is text", Content{Text: "ftp://example.com"}, KindText},
		{"text", Content{Text: "hello"}, KindText},
		{"plain json array is text", Content{Text: `[1,2,3]`}, KindText},
		{"array without type is text", Content{Text: `[{"x":1}]`}, KindText},
		{"image", Content{Data: []byte{0x89, 'P'}, MIME: "image/png"}, KindImage},
		{"text beats image", Content{Text: "caption", Data: []byte{1}, MIME: "image/png"}, KindText},
		{"non-image data", Content{Data: []byte{1}, MIME: "application/pdf"}, KindEmpty},
		{"blank", Content{Text: "   "}, KindEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.in)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got.Kind != tt.want {
				t.Fatalf("Classify() kind = %v, want %v", got.Kind, tt.want)
			}
		})
	}
}

func TestClassify_MalformedLayers(t *testing.T) {
	_, err := Classify(Content{Text: `[{"type":"hexagon","x":1}]`})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("Classify() error = %v, want ErrMalformed", err)
	}
}

func TestOffset(t *testing.T) {
	b := board.XYWH{X: 100, Y: 100, Width: 100, Height: 50}

	dx, dy := Offset(b, 1280, 32, 1)
	if dx != 132 || dy != 0 {
		t.Fatalf("Offset() = %v, %v, want 132, 0", dx, dy)
	}

	dx, dy = Offset(b, 300, 32, 1)
	if dx != 0 || dy != 82 {
		t.Fatalf("Offset(overflow) = %v, %v, want 0, 82", dx, dy)
	}

	dx, _ = Offset(b, 1280, 32, 3)
	if dx != 396 {
		t.Fatalf("Offset(x3) dx = %v, want 396", dx)
	}
}

func TestTracker_RepeatedPastesMoveFurther(t *testing.T) {
	var tr Tracker
	b := board.XYWH{X: 0, Y: 0, Width: 10, Height: 10}

	first, _ := Offset(b, 10000, 32, tr.Next("same"))
	second, _ := Offset(b, 10000, 32, tr.Next("same"))
	if second <= first {
		t.Fatalf("second offset %v not beyond first %v", second, first)
	}
	if got := tr.Next("other"); got != 1 {
		t.Fatalf("Next(other) = %d, want 1", got)
	}
}

func TestMemory(t *testing.T) {
	var m Memory
	if err := m.WriteText("abc"); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.ReadText(); got != "abc" {
		t.Fatalf("ReadText() = %q, want abc", got)
	}
}
