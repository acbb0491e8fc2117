// Package clipboard serializes selections for copy, classifies pasted
// content and decides where pasted or duplicated layers land.
package clipboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/dedbin/rimo/internal/board"
)

var ErrMalformed = errors.New("malformed clipboard payload")

// Clipboard reads and writes text.
type Clipboard interface {
	ReadText() (string, error)
	WriteText(text string) error
}

// System is the operating system clipboard.
type System struct{}

func (System) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("system clipboard unsupported")
	}
	return clipboard.ReadAll()
}

func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return errors.New("system clipboard unsupported")
	}
	return clipboard.WriteAll(text)
}

// Memory is an in-process clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
}

func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}

// Encode serializes layers in the canonical array form.
func Encode(layers []board.Layer) (string, error) {
	data, err := board.MarshalLayers(layers)
	if err != nil {
		return "", fmt.Errorf("encode layers: %w", err)
	}
	return string(data), nil
}

// Decode parses the canonical array form.
func Decode(text string) ([]board.Layer, error) {
	layers, err := board.UnmarshalLayers([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return layers, nil
}

// Kind is what a paste turned out to contain.
type Kind int

const (
	KindEmpty Kind = iota
	KindLayers
	KindURL
	KindText
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindLayers:
		return "layers"
	case KindURL:
		return "url"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "empty"
	}
}

// Content is what the host delivered on paste: text, binary data or both.
type Content struct {
	Text string
	Data []byte
	MIME string
}

// Classified is a paste with its kind resolved.
type Classified struct {
	Kind   Kind
	Layers []board.Layer
	URL    string
	Text   string
	Data   []byte
	MIME   string
}

// Classify resolves pasted content in priority order: layer payloads, then
// URLs, then plain text, then image data. Text that looks like a layer
// array but fails to decode is reported as ErrMalformed rather than pasted
// as text.
func Classify(c Content) (Classified, error) {
	text := strings.TrimSpace(c.Text)

	if looksLikeLayerArray(text) {
		layers, err := Decode(text)
		if err != nil {
			return Classified{}, err
		}
		return Classified{Kind: KindLayers, Layers: layers}, nil
	}

	if u, ok := parseURL(text); ok {
		return Classified{Kind: KindURL, URL: u}, nil
	}

	if text != "" {
		return Classified{Kind: KindText, Text: c.Text}, nil
	}

	if len(c.Data) > 0 && strings.HasPrefix(c.MIME, "image/") {
		return Classified{Kind: KindImage, Data: c.Data, MIME: c.MIME}, nil
	}

	return Classified{Kind: KindEmpty}, nil
}

// looksLikeLayerArray checks for a JSON array of objects that all carry a
// "type" key.
func looksLikeLayerArray(text string) bool {
	if !strings.HasPrefix(text, "[") {
		return false
	}
	var raw []map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&raw); err != nil || len(raw) == 0 {
		return false
	}
	for _, obj := range raw {
		if _, ok := obj["type"]; !ok {
			return false
		}
	}
	return true
}

func parseURL(text string) (string, bool) {
	if strings.ContainsAny(text, " \n\t") {
		return "", false
	}
	u, err := url.Parse(text)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}
