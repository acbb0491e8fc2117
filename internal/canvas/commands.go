package canvas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/clipboard"
	"github.com/dedbin/rimo/internal/geometry"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/preview"
	"github.com/dedbin/rimo/internal/zorder"
)

const (
	defaultFontSize  = 16
	defaultLayerSize = 100
	defaultTextValue = "Text"
)

var (
	pastedTextSize  = geometry.Size{Width: 300, Height: 100}
	linkPreviewSize = geometry.Size{Width: 400, Height: 150}
	insertImageSize = geometry.Size{Width: 300, Height: 300}
)

// --- Tools ---

// ArmInsert arms a creation tool; the layer is created on pointer release.
// Images and strokes have their own entry points.
func (e *Engine) ArmInsert(t board.LayerType) error {
	switch t {
	case board.LayerRectangle, board.LayerEllipse, board.LayerText, board.LayerSticker:
	default:
		return e.reject("arm insert", &board.ValidationError{Field: "layerType", Reason: fmt.Sprintf("%q cannot be inserted with a tool", t)})
	}
	e.abortInteraction()
	e.state = State{Mode: ModeInserting, LayerType: t}
	return nil
}

// ArmPencil switches to freehand drawing.
func (e *Engine) ArmPencil() {
	e.abortInteraction()
	e.state = State{Mode: ModePencil}
}

// ArmEraser switches to freehand erasing.
func (e *Engine) ArmEraser() {
	e.abortInteraction()
	e.state = State{Mode: ModeEraser}
}

// Escape clears the selection and returns to idle.
func (e *Engine) Escape() {
	e.abortInteraction()
	e.clearSelection()
	e.state = State{Mode: ModeNone}
}

// --- Creation ---

func newLayer(t board.LayerType, box board.XYWH, fill board.Color) (board.Layer, error) {
	shape := board.Shape{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Fill: fill}
	text := board.TextStyle{Value: defaultTextValue, FontSize: defaultFontSize}

	switch t {
	case board.LayerRectangle:
		return &board.RectangleLayer{Shape: shape}, nil
	case board.LayerEllipse:
		return &board.EllipseLayer{Shape: shape}, nil
	case board.LayerText:
		return &board.TextLayer{Shape: shape, TextStyle: text}, nil
	case board.LayerSticker:
		return &board.StickerLayer{Shape: shape, TextStyle: text}, nil
	case board.LayerImage:
		return nil, &board.ValidationError{Field: "layerType", Reason: "image layers need a source"}
	default:
		return nil, &board.ValidationError{Field: "layerType", Reason: fmt.Sprintf("%q cannot be inserted directly", t)}
	}
}

// commit stores layers atop the paint order as one step and returns their ids.
func (e *Engine) commit(layers []board.Layer) ([]string, error) {
	if err := e.checkCapacity(len(layers)); err != nil {
		return nil, err
	}

	ids := make([]string, len(layers))
	err := e.store.Mutate(func() error {
		for i, l := range layers {
			ids[i] = e.newID()
			e.store.Layers().Set(ids[i], l)
			e.store.Order().Push(ids[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Insert creates a default-sized layer of type t at a world position and
// selects it.
func (e *Engine) Insert(t board.LayerType, at board.Point) (string, error) {
	l, err := newLayer(t, board.XYWH{X: at.X, Y: at.Y, Width: defaultLayerSize, Height: defaultLayerSize}, e.lastFill)
	if err != nil {
		return "", e.reject("insert", err)
	}
	ids, err := e.commit([]board.Layer{l})
	if err != nil {
		return "", e.reject("insert", err)
	}
	e.setSelection(ids)
	return ids[0], nil
}

// InsertImage places an image that already has a resolved source.
func (e *Engine) InsertImage(src string, at board.Point) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", e.reject("insert image", &board.ValidationError{Field: "src", Reason: "image layer without source"})
	}
	l := &board.ImageLayer{
		Shape: board.Shape{X: at.X, Y: at.Y, Width: insertImageSize.Width, Height: insertImageSize.Height, Fill: e.lastFill},
		Src:   src,
	}
	ids, err := e.commit([]board.Layer{l})
	if err != nil {
		return "", e.reject("insert image", err)
	}
	e.setSelection(ids)
	return ids[0], nil
}

func (e *Engine) validateText(value string) error {
	return board.ValidateText(value, e.cfg.MaxTextLength)
}

// admit validates layers that arrive from outside the engine, such as a
// pasted payload, and grows text-bearing ones to fit their text. Any invalid
// layer rejects the whole set.
func (e *Engine) admit(layers []board.Layer) ([]board.Layer, error) {
	out := make([]board.Layer, len(layers))
	for i, l := range layers {
		if err := board.Validate(l, e.cfg.MaxTextLength); err != nil {
			return nil, err
		}
		if text, ok := board.TextOf(l); ok {
			l = board.Apply(l, board.BoundsPatch(e.fitText(l.Bounds(), text.Value)))
		}
		out[i] = l
	}
	return out, nil
}

// fitText grows box so the text fits at the minimum font size.
func (e *Engine) fitText(box board.XYWH, value string) board.XYWH {
	floor := geometry.TextFloor(e.measurer, value, e.cfg.MinFontSize)
	box.Width = max(box.Width, floor.Width)
	box.Height = max(box.Height, floor.Height)
	return box
}

// InsertText places a text layer holding value.
func (e *Engine) InsertText(value string, at board.Point) (string, error) {
	if err := e.validateText(value); err != nil {
		return "", e.reject("insert text", err)
	}
	box := e.fitText(board.XYWH{X: at.X, Y: at.Y, Width: pastedTextSize.Width, Height: pastedTextSize.Height}, value)
	l := &board.TextLayer{
		Shape:     board.Shape{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Fill: e.lastFill},
		TextStyle: board.TextStyle{Value: value, FontSize: defaultFontSize},
	}
	ids, err := e.commit([]board.Layer{l})
	if err != nil {
		return "", e.reject("insert text", err)
	}
	e.setSelection(ids)
	return ids[0], nil
}

// InsertLinkPreview places a link card with the fetched metadata.
func (e *Engine) InsertLinkPreview(url string, at board.Point, meta preview.Metadata) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", e.reject("insert link preview", &board.ValidationError{Field: "url", Reason: "link without address"})
	}
	l := &board.LinkPreviewLayer{
		Shape:       board.Shape{X: at.X, Y: at.Y, Width: linkPreviewSize.Width, Height: linkPreviewSize.Height, Fill: e.lastFill},
		URL:         url,
		Title:       meta.Title,
		Description: meta.Description,
		Image:       meta.Image,
		Favicon:     meta.Favicon,
	}
	ids, err := e.commit([]board.Layer{l})
	if err != nil {
		return "", e.reject("insert link preview", err)
	}
	e.setSelection(ids)
	return ids[0], nil
}

// CommitPath turns absolute stroke samples into a path layer drawn with the
// current colour and pen size.
func (e *Engine) CommitPath(points []board.PathPoint) (string, error) {
	l, err := geometry.BuildPathLayer(points, e.lastFill, e.penSize)
	if err != nil {
		return "", e.reject("commit path", err)
	}
	ids, err := e.commit([]board.Layer{l})
	if err != nil {
		return "", e.reject("commit path", err)
	}
	return ids[0], nil
}

// --- Editing ---

// deleteLayers removes layers and their order entries in one step. Ids
// already gone are skipped.
func (e *Engine) deleteLayers(ids []string) int {
	deleted := 0
	_ = e.store.Mutate(func() error {
		for _, id := range ids {
			if !e.store.Layers().Delete(id) {
				continue
			}
			deleted++
			if i := e.store.Order().IndexOf(id); i >= 0 {
				e.store.Order().DeleteAt(i)
			}
		}
		return nil
	})
	return deleted
}

// DeleteSelection removes every selected layer.
func (e *Engine) DeleteSelection() int {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		return 0
	}
	n := e.deleteLayers(ids)
	e.setSelection(nil)
	return n
}

// offsetCopies clones layers shifted clear of their own bounds.
func (e *Engine) offsetCopies(layers []board.Layer, multiplier int) []board.Layer {
	bounds, ok := geometry.Enclosure(layers)
	if !ok {
		return nil
	}
	dx, dy := clipboard.Offset(bounds, e.view.VisibleWorld().Right(), e.cfg.PasteGap, multiplier)
	out := make([]board.Layer, len(layers))
	for i, l := range layers {
		out[i] = board.Moved(l, dx, dy)
	}
	return out
}

// Duplicate copies the selection beside itself and selects the copies.
func (e *Engine) Duplicate() ([]string, error) {
	originals := e.selection.Resolve(e.store.Layers())
	if len(originals) == 0 {
		return nil, nil
	}
	ids, err := e.commit(e.offsetCopies(originals, 1))
	if err != nil {
		return nil, e.reject("duplicate", err)
	}
	e.setSelection(ids)
	return ids, nil
}

// Copy writes the selected layers to the clipboard.
func (e *Engine) Copy() error {
	layers := e.selection.Resolve(e.store.Layers())
	if len(layers) == 0 {
		return nil
	}
	text, err := clipboard.Encode(layers)
	if err != nil {
		return e.reject("copy", err)
	}
	if err := e.clip.WriteText(text); err != nil {
		e.log.Warn("clipboard write failed", "error", err)
		e.notify(NoticeError, "could not write to the clipboard")
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// PasteFromClipboard pastes whatever text the clipboard holds.
func (e *Engine) PasteFromClipboard() error {
	text, err := e.clip.ReadText()
	if err != nil {
		e.log.Warn("clipboard read failed", "error", err)
		e.notify(NoticeError, "could not read the clipboard")
		return fmt.Errorf("read clipboard: %w", err)
	}
	return e.Paste(clipboard.Content{Text: text})
}

// Paste inserts clipboard content. Layer payloads land beside their source
// position; text, links and images land at the cursor. Links and images
// resolve asynchronously and commit through RunPending.
func (e *Engine) Paste(c clipboard.Content) error {
	classified, err := clipboard.Classify(c)
	if err != nil {
		if errors.Is(err, clipboard.ErrMalformed) {
			e.log.Warn("malformed clipboard payload", "error", err)
			e.notify(NoticeError, "could not paste the clipboard contents")
			return err
		}
		return e.reject("paste", err)
	}

	at := e.cursorOrDefault()
	switch classified.Kind {
	case clipboard.KindLayers:
		layers, err := e.admit(classified.Layers)
		if err != nil {
			return e.reject("paste", err)
		}
		multiplier := e.pastes.Next(strings.TrimSpace(c.Text))
		ids, err := e.commit(e.offsetCopies(layers, multiplier))
		if err != nil {
			return e.reject("paste", err)
		}
		e.setSelection(ids)
	case clipboard.KindURL:
		e.fetchPreview(classified.URL, at)
	case clipboard.KindText:
		_, err := e.InsertText(classified.Text, at)
		return err
	case clipboard.KindImage:
		e.uploadImage(classified.Data, classified.MIME, at)
	}
	return nil
}

// BringToFront raises the selection above every other layer.
func (e *Engine) BringToFront() {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		return
	}
	_ = e.store.Mutate(func() error {
		zorder.MoveToFront(e.store.Order(), ids)
		return nil
	})
}

// SendToBack lowers the selection beneath every other layer.
func (e *Engine) SendToBack() {
	ids := e.selection.IDs()
	if len(ids) == 0 {
		return
	}
	_ = e.store.Mutate(func() error {
		zorder.MoveToBack(e.store.Order(), ids)
		return nil
	})
}

// SetFill recolours the selection and makes c the colour for new layers.
func (e *Engine) SetFill(c board.Color) {
	e.lastFill = c
	e.presence.Update(func(s *presence.State) { s.PenColor = &c }, presence.Options{})

	ids := e.selection.IDs()
	if len(ids) == 0 {
		return
	}
	_ = e.store.Mutate(func() error {
		for _, id := range ids {
			e.store.Layers().Update(id, board.Patch{Fill: &c})
		}
		return nil
	})
}

// SetText replaces the value of a text or sticker layer, growing it when the
// new text no longer fits.
func (e *Engine) SetText(id, value string) error {
	if err := e.validateText(value); err != nil {
		return e.reject("set text", err)
	}
	l, ok := e.store.Layers().Get(id)
	if !ok {
		return nil
	}
	if _, ok := board.TextOf(l); !ok {
		return e.reject("set text", &board.ValidationError{Field: "layer", Reason: fmt.Sprintf("%s layers carry no text", l.Type())})
	}
	box := e.fitText(l.Bounds(), value)
	patch := board.BoundsPatch(box)
	patch.Value = &value
	e.store.Layers().Update(id, patch)
	return nil
}

// SetFontSize changes the font size of every selected text-bearing layer.
func (e *Engine) SetFontSize(size float64) error {
	if size < e.cfg.MinFontSize {
		return e.reject("set font size", &board.ValidationError{Field: "fontSize", Reason: fmt.Sprintf("must be at least %v", e.cfg.MinFontSize)})
	}
	e.updateText(board.Patch{FontSize: &size})
	return nil
}

// SetFontFamily changes the font family of every selected text-bearing layer.
func (e *Engine) SetFontFamily(family string) error {
	if strings.TrimSpace(family) == "" {
		return e.reject("set font family", &board.ValidationError{Field: "fontFamily", Reason: "empty"})
	}
	e.updateText(board.Patch{FontFamily: &family})
	return nil
}

func (e *Engine) updateText(p board.Patch) {
	ids := e.selection.IDs()
	_ = e.store.Mutate(func() error {
		for _, id := range ids {
			l, ok := e.store.Layers().Get(id)
			if !ok {
				continue
			}
			if _, ok := board.TextOf(l); ok {
				e.store.Layers().Update(id, p)
			}
		}
		return nil
	})
}

// SetPenSize changes the stroke size and arms the pencil.
func (e *Engine) SetPenSize(size float64) error {
	if size <= 0 {
		return e.reject("set pen size", &board.ValidationError{Field: "penSize", Reason: "must be positive"})
	}
	e.penSize = size
	e.presence.Update(func(s *presence.State) { s.PenSize = size }, presence.Options{})
	e.ArmPencil()
	return nil
}

// --- History ---

func (e *Engine) Undo() bool {
	if !e.history.Undo() {
		return false
	}
	e.pruneSelection()
	return true
}

func (e *Engine) Redo() bool {
	if !e.history.Redo() {
		return false
	}
	e.pruneSelection()
	return true
}
