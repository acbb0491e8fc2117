package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/clipboard"
	"github.com/dedbin/rimo/internal/config"
	"github.com/dedbin/rimo/internal/geometry"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/preview"
	"github.com/dedbin/rimo/internal/store"
)

type fakePreviews struct {
	meta preview.Metadata
	err  error
}

func (f fakePreviews) Fetch(context.Context, string) (preview.Metadata, error) { return f.meta, f.err }

type fakeUploader struct{ url string }

func (f fakeUploader) Upload(context.Context, []byte, string) (string, error) { return f.url, nil }

type fixture struct {
	*Engine
	store    *store.Memory
	presence *presence.Local
}

func newFixture(t *testing.T, tweak func(*config.Canvas, *Options)) fixture {
	t.Helper()
	cfg := config.DefaultCanvas()
	mem := store.NewMemory(cfg.HistoryLimit)
	local := presence.NewLocal()
	n := 0
	opts := Options{
		Config:   cfg,
		Store:    mem,
		Presence: local,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func() string {
			n++
			return fmt.Sprintf("layer-%d", n)
		},
	}
	if tweak != nil {
		tweak(&opts.Config, &opts)
	}
	e := New(opts)
	t.Cleanup(e.Close)
	return fixture{Engine: e, store: mem, presence: local}
}

func primary(x, y float64) PointerEvent {
	return PointerEvent{Screen: board.Point{X: x, Y: y}, Button: ButtonPrimary, Buttons: ButtonsPrimary}
}

func secondary(x, y float64) PointerEvent {
	return PointerEvent{Screen: board.Point{X: x, Y: y}, Button: ButtonSecondary, Buttons: ButtonsSecondary}
}

func bounds(t *testing.T, f fixture, id string) board.XYWH {
	t.Helper()
	l, ok := f.store.Layers().Get(id)
	if !ok {
		t.Fatalf("layer %s missing", id)
	}
	return l.Bounds()
}

func TestInsertTool_ThenDuplicate(t *testing.T) {
	f := newFixture(t, nil)

	if err := f.ArmInsert(board.LayerRectangle); err != nil {
		t.Fatalf("ArmInsert() error = %v", err)
	}
	f.PointerUp(primary(100, 100))

	if f.State().Mode != ModeNone {
		t.Fatalf("mode = %v, want none", f.State().Mode)
	}
	sel := f.Selection()
	if len(sel) != 1 {
		t.Fatalf("selection = %v, want one id", sel)
	}
	if got, want := bounds(t, f, sel[0]), (board.XYWH{X: 100, Y: 100, Width: 100, Height: 100}); got != want {
		t.Fatalf("inserted bounds = %+v, want %+v", got, want)
	}

	ids, err := f.Duplicate()
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if len(ids) != 1 || ids[0] == sel[0] {
		t.Fatalf("Duplicate() = %v, want one new id", ids)
	}
	if got, want := bounds(t, f, ids[0]), (board.XYWH{X: 232, Y: 100, Width: 100, Height: 100}); got != want {
		t.Fatalf("duplicate bounds = %+v, want %+v", got, want)
	}
	if got := f.Selection(); len(got) != 1 || got[0] != ids[0] {
		t.Fatalf("selection = %v, want the copy", got)
	}
}

func TestDuplicate_WrapsDownNearRightEdge(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.Insert(board.LayerEllipse, board.Point{X: 1200, Y: 50}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	ids, _ := f.Duplicate()
	if got := bounds(t, f, ids[0]); got.X != 1200 || got.Y != 182 {
		t.Fatalf("duplicate at (%v,%v), want (1200,182)", got.X, got.Y)
	}
}

func TestInsert_CapacityRejected(t *testing.T) {
	f := newFixture(t, func(c *config.Canvas, _ *Options) { c.MaxLayers = 1 })

	if _, err := f.Insert(board.LayerRectangle, board.Point{}); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	f.Notices()
	before := f.Selection()

	_, err := f.Insert(board.LayerRectangle, board.Point{X: 10})
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("second Insert() error = %v, want ErrCapacity", err)
	}
	if n := f.store.Layers().Len(); n != 1 {
		t.Fatalf("layer count = %d, want 1", n)
	}
	if got := f.Selection(); len(got) != 1 || got[0] != before[0] {
		t.Fatalf("selection = %v, want unchanged %v", got, before)
	}
	notices := f.Notices()
	if len(notices) != 1 || notices[0].Level != NoticeWarning {
		t.Fatalf("notices = %+v, want one warning", notices)
	}
}

func TestArmInsert_RejectsPath(t *testing.T) {
	f := newFixture(t, nil)
	var verr *board.ValidationError
	if err := f.ArmInsert(board.LayerPath); !errors.As(err, &verr) {
		t.Fatalf("ArmInsert(path) error = %v, want ValidationError", err)
	}
	if f.State().Mode != ModeNone {
		t.Fatalf("mode = %v, want none", f.State().Mode)
	}
}

func TestSelectionNet_PicksFullyContainedLayers(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.Insert(board.LayerRectangle, board.Point{X: 100, Y: 100})
	f.Insert(board.LayerRectangle, board.Point{X: 400, Y: 100})
	f.Escape()

	f.PointerDown(primary(50, 50))
	if f.State().Mode != ModePressing {
		t.Fatalf("mode = %v, want pressing", f.State().Mode)
	}

	f.PointerMove(primary(52, 51))
	if f.State().Mode != ModePressing {
		t.Fatalf("mode after small move = %v, want pressing", f.State().Mode)
	}

	f.PointerMove(primary(250, 250))
	if f.State().Mode != ModeSelectionNet {
		t.Fatalf("mode = %v, want selectionNet", f.State().Mode)
	}
	if got := f.Selection(); len(got) != 1 || got[0] != a {
		t.Fatalf("selection = %v, want [%s]", got, a)
	}

	f.PointerMove(primary(450, 250))
	if got := f.Selection(); len(got) != 1 {
		t.Fatalf("partial overlap selected: %v", got)
	}

	f.PointerUp(primary(450, 250))
	if f.State().Mode != ModeNone {
		t.Fatalf("mode = %v, want none", f.State().Mode)
	}
}

func TestSelectionNet_ThresholdScalesWithZoom(t *testing.T) {
	f := newFixture(t, nil)
	f.SetCamera(board.Camera{Scale: 4})

	f.PointerDown(primary(0, 0))
	// 2 screen pixels is 0.5 world units, times scale 4 gives 2 <= 5.
	f.PointerMove(primary(2, 0))
	if f.State().Mode != ModePressing {
		t.Fatalf("mode = %v, want pressing", f.State().Mode)
	}
	f.PointerMove(primary(8, 0))
	if f.State().Mode != ModeSelectionNet {
		t.Fatalf("mode = %v, want selectionNet", f.State().Mode)
	}
}

func TestTranslate_UndoesAsOneStep(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.Insert(board.LayerRectangle, board.Point{X: 100, Y: 100})

	f.PointerDown(primary(150, 150))
	if f.State().Mode != ModeTranslating {
		t.Fatalf("mode = %v, want translating", f.State().Mode)
	}
	if f.CanUndo() {
		t.Fatal("CanUndo() = true during a drag, want false")
	}
	f.PointerMove(primary(160, 150))
	f.PointerMove(primary(170, 170))
	f.PointerUp(primary(170, 170))

	if got := bounds(t, f, id); got.X != 120 || got.Y != 120 {
		t.Fatalf("bounds after drag = %+v, want x=120 y=120", got)
	}

	if !f.Undo() {
		t.Fatal("Undo() = false")
	}
	if got := bounds(t, f, id); got.X != 100 || got.Y != 100 {
		t.Fatalf("bounds after undo = %+v, want x=100 y=100", got)
	}

	f.Undo()
	if _, ok := f.store.Layers().Get(id); ok {
		t.Fatal("second Undo() kept the inserted layer")
	}
	if got := f.Selection(); len(got) != 0 {
		t.Fatalf("selection = %v, want pruned", got)
	}

	f.Redo()
	if _, ok := f.store.Layers().Get(id); !ok {
		t.Fatal("Redo() did not restore the layer")
	}
}

func TestLayerPointerDown_KeepsMultiSelection(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.Insert(board.LayerRectangle, board.Point{X: 0, Y: 0})
	b, _ := f.Insert(board.LayerRectangle, board.Point{X: 300, Y: 0})
	f.setSelection([]string{a, b})

	f.LayerPointerDown(b, primary(350, 50))
	if got := f.Selection(); len(got) != 2 {
		t.Fatalf("selection = %v, want both kept", got)
	}
	f.PointerMove(primary(360, 50))
	f.PointerUp(primary(360, 50))

	if bounds(t, f, a).X != 10 || bounds(t, f, b).X != 310 {
		t.Fatal("both layers should move by 10")
	}
}

func TestResize_RespectsFloorAndAnchor(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.Insert(board.LayerRectangle, board.Point{X: 100, Y: 100})

	f.ResizeHandleDown(geometry.BottomRight, primary(200, 200))
	if f.State().Mode != ModeResizing {
		t.Fatalf("mode = %v, want resizing", f.State().Mode)
	}
	if f.CursorHint() != "nwse-resize" {
		t.Fatalf("CursorHint() = %q, want nwse-resize", f.CursorHint())
	}

	f.PointerMove(primary(250, 180))
	if got, want := bounds(t, f, id), (board.XYWH{X: 100, Y: 100, Width: 150, Height: 80}); got != want {
		t.Fatalf("bounds = %+v, want %+v", got, want)
	}

	f.PointerMove(primary(50, 50))
	got := bounds(t, f, id)
	if got.X != 100 || got.Y != 100 || got.Width != 10 || got.Height != 10 {
		t.Fatalf("bounds = %+v, want floor 10x10 anchored at (100,100)", got)
	}

	f.PointerUp(primary(50, 50))
	f.Undo()
	if got := bounds(t, f, id); got.Width != 100 {
		t.Fatalf("width after undo = %v, want 100", got.Width)
	}
}

func TestResize_TextFloorFitsContent(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.Insert(board.LayerText, board.Point{})

	f.ResizeHandleDown(geometry.Right, primary(0, 0))
	f.PointerMove(primary(1, 0))

	want := geometry.TextFloor(geometry.DefaultMeasurer(), defaultTextValue, 12).Width
	if got := bounds(t, f, id).Width; got != max(want, 10) {
		t.Fatalf("width = %v, want text floor %v", got, want)
	}
}

func TestResize_StrokesHaveNoHandles(t *testing.T) {
	f := newFixture(t, nil)
	id, err := f.CommitPath([]board.PathPoint{{X: 0, Y: 0, Pressure: 0.5}, {X: 100, Y: 100, Pressure: 0.5}})
	if err != nil {
		t.Fatalf("CommitPath() error = %v", err)
	}
	f.LayerPointerDown(id, primary(50, 50))
	f.PointerUp(primary(50, 50))

	f.ResizeHandleDown(geometry.BottomRight, primary(100, 100))
	if f.State().Mode == ModeResizing {
		t.Fatal("mode = resizing, want strokes to refuse resize")
	}
	f.PointerMove(primary(300, 300))
	f.PointerUp(primary(300, 300))

	if b := bounds(t, f, id); b != (board.XYWH{X: 0, Y: 0, Width: 100, Height: 100}) {
		t.Fatalf("bounds = %+v, want stroke untouched", b)
	}
}

func TestPointerDown_StrokeBoundsAreNotAHit(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.CommitPath([]board.PathPoint{{X: 0, Y: 0, Pressure: 0.5}, {X: 100, Y: 100, Pressure: 0.5}})

	f.PointerDown(primary(90, 10))
	if f.State().Mode != ModePressing || len(f.Selection()) != 0 {
		t.Fatalf("mode = %v selection = %v, want pressing with nothing selected", f.State().Mode, f.Selection())
	}
	f.PointerUp(primary(90, 10))

	f.PointerDown(primary(50, 52))
	if f.State().Mode != ModeTranslating || len(f.Selection()) != 1 || f.Selection()[0] != id {
		t.Fatalf("mode = %v selection = %v, want translating %s", f.State().Mode, f.Selection(), id)
	}
	f.PointerUp(primary(50, 52))
}

func TestPencil_CommitsStrokeAndDropsDots(t *testing.T) {
	f := newFixture(t, nil)
	f.SetFill(board.Color{R: 10, G: 20, B: 30})
	f.ArmPencil()

	f.PointerDown(primary(10, 10))
	f.PointerUp(primary(10, 10))
	if n := f.store.Layers().Len(); n != 0 {
		t.Fatalf("layers = %d after a single dot, want 0", n)
	}

	f.PointerDown(primary(10, 10))
	f.PointerMove(primary(20, 30))
	f.PointerMove(PointerEvent{Screen: board.Point{X: 25, Y: 35}}) // button released mid-stroke
	f.PointerMove(primary(40, 10))
	if got := len(f.presence.Self().PencilDraft); got != 3 {
		t.Fatalf("draft points = %d, want 3", got)
	}
	f.PointerUp(primary(40, 10))

	layers := f.Layers()
	if len(layers) != 1 {
		t.Fatalf("layers = %d, want 1", len(layers))
	}
	path, ok := layers[0].(*board.PathLayer)
	if !ok {
		t.Fatalf("layer = %T, want *board.PathLayer", layers[0])
	}
	if path.Fill != (board.Color{R: 10, G: 20, B: 30}) || path.Size != 16 {
		t.Fatalf("path fill/size = %v/%v", path.Fill, path.Size)
	}
	if b := path.Bounds(); b.X != 10 || b.Y != 10 || b.Width != 30 || b.Height != 20 {
		t.Fatalf("path bounds = %+v, want {10 10 30 20}", b)
	}
	if f.presence.Self().PencilDraft != nil {
		t.Fatal("draft not cleared")
	}
	if f.State().Mode != ModePencil {
		t.Fatalf("mode = %v, want pencil to stay armed", f.State().Mode)
	}
}

func TestEraser_DeletesTouchedLayers(t *testing.T) {
	f := newFixture(t, nil)
	rect, _ := f.Insert(board.LayerRectangle, board.Point{X: 100, Y: 100})
	stroke, err := f.CommitPath([]board.PathPoint{{X: 400, Y: 100, Pressure: 0.5}, {X: 400, Y: 300, Pressure: 0.5}})
	if err != nil {
		t.Fatalf("CommitPath() error = %v", err)
	}
	keep, _ := f.Insert(board.LayerEllipse, board.Point{X: 700, Y: 700})

	f.ArmEraser()
	f.PointerDown(primary(150, 150))
	if _, ok := f.store.Layers().Get(rect); ok {
		t.Fatal("rectangle under the eraser survived")
	}

	// A fast sweep across the stroke: only interpolated samples come near it.
	f.PointerMove(primary(300, 200))
	f.PointerMove(primary(500, 200))
	f.PointerUp(primary(500, 200))

	if _, ok := f.store.Layers().Get(stroke); ok {
		t.Fatal("stroke crossed by the eraser survived")
	}
	if _, ok := f.store.Layers().Get(keep); !ok {
		t.Fatal("untouched layer was erased")
	}
	if ids := f.store.Order().IDs(); len(ids) != 1 || ids[0] != keep {
		t.Fatalf("order = %v, want [%s]", ids, keep)
	}

	f.Undo()
	if f.store.Layers().Len() != 3 {
		t.Fatalf("layers after undo = %d, want 3 (one erase step)", f.store.Layers().Len())
	}
}

func TestPanning_RestoresPreviousMode(t *testing.T) {
	f := newFixture(t, nil)
	f.ArmPencil()

	f.PointerDown(secondary(100, 100))
	if f.State().Mode != ModePanning {
		t.Fatalf("mode = %v, want panning", f.State().Mode)
	}
	f.PointerMove(secondary(130, 90))
	if c := f.Camera(); c.X != 30 || c.Y != -10 {
		t.Fatalf("camera = %+v, want x=30 y=-10", c)
	}
	f.PointerUp(secondary(130, 90))
	if f.State().Mode != ModePencil {
		t.Fatalf("mode = %v, want pencil restored", f.State().Mode)
	}
}

func TestWheel(t *testing.T) {
	f := newFixture(t, nil)

	f.Wheel(WheelEvent{DeltaX: 10, DeltaY: 20})
	if c := f.Camera(); c.X != -10 || c.Y != -20 || c.Scale != 1 {
		t.Fatalf("camera after scroll = %+v", c)
	}

	at := board.Point{X: 400, Y: 300}
	before := f.ScreenToWorld(at)
	f.Wheel(WheelEvent{Screen: at, DeltaY: -1, Ctrl: true})
	if f.Camera().Scale <= 1 {
		t.Fatalf("scale = %v, want zoomed in", f.Camera().Scale)
	}
	after := f.ScreenToWorld(at)
	if d := (after.X-before.X)*(after.X-before.X) + (after.Y-before.Y)*(after.Y-before.Y); d > 1e-9 {
		t.Fatalf("world point under cursor moved from %v to %v", before, after)
	}
}

func TestCopyPaste_RepeatedPastesSpreadOut(t *testing.T) {
	f := newFixture(t, nil)
	f.Insert(board.LayerRectangle, board.Point{X: 0, Y: 0})
	if err := f.Copy(); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	var xs []float64
	for range 2 {
		if err := f.PasteFromClipboard(); err != nil {
			t.Fatalf("PasteFromClipboard() error = %v", err)
		}
		sel := f.Selection()
		xs = append(xs, bounds(t, f, sel[0]).X)
	}
	if xs[0] != 132 || xs[1] != 264 {
		t.Fatalf("paste x = %v, want [132 264]", xs)
	}
}

func TestPaste_URLInsertsLinkPreview(t *testing.T) {
	title := "Example"
	f := newFixture(t, func(_ *config.Canvas, o *Options) {
		o.Previews = fakePreviews{meta: preview.Metadata{Title: &title}}
	})

	if err := f.Paste(clipboard.Content{Text: "https://example.com/page"}); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.WaitPending(ctx); err != nil {
		t.Fatalf("WaitPending() error = %v", err)
	}

	layers := f.Layers()
	if len(layers) != 1 {
		t.Fatalf("layers = %d, want 1", len(layers))
	}
	link, ok := layers[0].(*board.LinkPreviewLayer)
	if !ok {
		t.Fatalf("layer = %T, want link preview", layers[0])
	}
	if link.URL != "https://example.com/page" || link.Title == nil || *link.Title != "Example" {
		t.Fatalf("link = %+v", link)
	}
	if b := link.Bounds(); b.X != 100 || b.Y != 100 || b.Width != 400 {
		t.Fatalf("bounds = %+v, want default cursor (100,100) and width 400", b)
	}
}

func TestPaste_PreviewFailureLeavesBoardUsable(t *testing.T) {
	f := newFixture(t, func(_ *config.Canvas, o *Options) {
		o.Previews = fakePreviews{err: errors.New("timeout")}
	})
	f.Paste(clipboard.Content{Text: "https://example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.WaitPending(ctx); err != nil {
		t.Fatalf("WaitPending() error = %v", err)
	}
	if n := f.store.Layers().Len(); n != 0 {
		t.Fatalf("layers = %d, want 0", n)
	}
	notices := f.Notices()
	if len(notices) != 1 || notices[0].Level != NoticeError {
		t.Fatalf("notices = %+v, want one error", notices)
	}
	if _, err := f.Insert(board.LayerRectangle, board.Point{}); err != nil {
		t.Fatalf("Insert() after failure error = %v", err)
	}
}

func TestPaste_TextLandsAtCursor(t *testing.T) {
	f := newFixture(t, nil)
	f.PointerMove(primary(40, 60))
	if err := f.Paste(clipboard.Content{Text: "hello world"}); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	l := f.Layers()[0].(*board.TextLayer)
	if l.Value != "hello world" || l.X != 40 || l.Y != 60 {
		t.Fatalf("text layer = %+v", l)
	}
}

func TestPaste_ImageUploadsThenInserts(t *testing.T) {
	f := newFixture(t, func(_ *config.Canvas, o *Options) {
		o.Uploader = fakeUploader{url: "http://cdn.test/a.png"}
	})
	f.Paste(clipboard.Content{Data: []byte{0x89, 'P', 'N', 'G'}, MIME: "image/png"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.WaitPending(ctx); err != nil {
		t.Fatalf("WaitPending() error = %v", err)
	}
	img, ok := f.Layers()[0].(*board.ImageLayer)
	if !ok || img.Src != "http://cdn.test/a.png" {
		t.Fatalf("layer = %+v, want uploaded image", f.Layers()[0])
	}
}

func TestPaste_MalformedLayers(t *testing.T) {
	f := newFixture(t, nil)
	err := f.Paste(clipboard.Content{Text: `[{"type":"hexagon","x":1}]`})
	if !errors.Is(err, clipboard.ErrMalformed) {
		t.Fatalf("Paste() error = %v, want ErrMalformed", err)
	}
	if f.store.Layers().Len() != 0 {
		t.Fatal("malformed paste created layers")
	}
}

func TestPaste_RejectsInvalidLayers(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"empty text", `[{"type":"rectangle","x":0,"y":0,"width":10,"height":10},{"type":"text","x":0,"y":0,"width":100,"height":40,"value":""}]`, "value"},
		{"oversized sticker", `[{"type":"sticker","x":0,"y":0,"width":100,"height":100,"value":"toolong"}]`, "value"},
		{"single point stroke", `[{"type":"rectangle","x":0,"y":0,"width":10,"height":10},{"type":"path","x":0,"y":0,"width":0,"height":0,"points":[[0,0,0.5]],"size":8}]`, "points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *config.Canvas, _ *Options) { c.MaxTextLength = 5 })
			err := f.Paste(clipboard.Content{Text: tt.payload})
			var verr *board.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("Paste() error = %v, want ValidationError on %s", err, tt.field)
			}
			if n := f.store.Layers().Len(); n != 0 {
				t.Fatalf("layers = %d, want 0 after rejected paste", n)
			}
			if len(f.Notices()) != 1 {
				t.Fatal("rejected paste raised no notice")
			}
		})
	}
}

func TestPaste_GrowsTextToFit(t *testing.T) {
	f := newFixture(t, nil)
	value := "a sticker holding quite a lot of"
	payload := `[{"type":"sticker","x":0,"y":0,"width":1,"height":1,"value":"` + value + `"}]`
	if err := f.Paste(clipboard.Content{Text: payload}); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}

	floor := geometry.TextFloor(geometry.DefaultMeasurer(), value, config.DefaultCanvas().MinFontSize)
	got := bounds(t, f, f.Selection()[0])
	if got.Width < floor.Width || got.Height < floor.Height {
		t.Fatalf("bounds = %+v, want at least %+v", got, floor)
	}
}

func TestSetText_Validation(t *testing.T) {
	f := newFixture(t, func(c *config.Canvas, _ *Options) { c.MaxTextLength = 5 })
	id, _ := f.Insert(board.LayerSticker, board.Point{})

	var verr *board.ValidationError
	if err := f.SetText(id, "   "); !errors.As(err, &verr) {
		t.Fatalf("SetText(blank) error = %v, want ValidationError", err)
	}
	if err := f.SetText(id, "toolong"); !errors.As(err, &verr) {
		t.Fatalf("SetText(long) error = %v, want ValidationError", err)
	}
	if err := f.SetText(id, "ok"); err != nil {
		t.Fatalf("SetText() error = %v", err)
	}
	l, _ := f.store.Layers().Get(id)
	if s, _ := board.TextOf(l); s.Value != "ok" {
		t.Fatalf("value = %q, want ok", s.Value)
	}
}

func TestZOrderCommands(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.Insert(board.LayerRectangle, board.Point{})
	b, _ := f.Insert(board.LayerRectangle, board.Point{X: 200})
	c, _ := f.Insert(board.LayerRectangle, board.Point{X: 400})

	f.setSelection([]string{a})
	f.BringToFront()
	if got := strings.Join(f.store.Order().IDs(), ","); got != strings.Join([]string{b, c, a}, ",") {
		t.Fatalf("order = %s, want b,c,a", got)
	}

	f.setSelection([]string{c})
	f.SendToBack()
	if got := strings.Join(f.store.Order().IDs(), ","); got != strings.Join([]string{c, b, a}, ",") {
		t.Fatalf("order = %s, want c,b,a", got)
	}
}

func TestKeyDown(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name    string
		ev      KeyEvent
		handled bool
		mode    Mode
	}{
		{"ctrl+r arms rectangle", KeyEvent{Code: "KeyR", Ctrl: true}, true, ModeInserting},
		{"escape", KeyEvent{Code: "Escape"}, true, ModeNone},
		{"meta+p arms pencil", KeyEvent{Code: "KeyP", Meta: true}, true, ModePencil},
		{"typing is ignored", KeyEvent{Code: "KeyE", Ctrl: true, Editing: true}, false, ModePencil},
		{"ctrl+e arms eraser", KeyEvent{Code: "KeyE", Ctrl: true}, true, ModeEraser},
		{"plain letter", KeyEvent{Code: "KeyR"}, false, ModeEraser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.KeyDown(tt.ev); got != tt.handled {
				t.Fatalf("KeyDown() = %v, want %v", got, tt.handled)
			}
			if f.State().Mode != tt.mode {
				t.Fatalf("mode = %v, want %v", f.State().Mode, tt.mode)
			}
		})
	}
}

func TestKeyDown_DeleteAndUndoRedo(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.Insert(board.LayerRectangle, board.Point{})

	f.KeyDown(KeyEvent{Code: "Delete"})
	if f.store.Layers().Len() != 0 || len(f.Selection()) != 0 {
		t.Fatal("Delete did not remove the selection")
	}
	f.KeyDown(KeyEvent{Code: "KeyZ", Ctrl: true})
	if _, ok := f.store.Layers().Get(id); !ok {
		t.Fatal("Ctrl+Z did not restore the layer")
	}
	f.KeyDown(KeyEvent{Code: "KeyZ", Ctrl: true, Shift: true})
	if f.store.Layers().Len() != 0 {
		t.Fatal("Ctrl+Shift+Z did not redo the delete")
	}
}

func TestRemoteDeleteDuringDragIsSkipped(t *testing.T) {
	f := newFixture(t, nil)
	id, _ := f.Insert(board.LayerRectangle, board.Point{X: 100, Y: 100})

	f.PointerDown(primary(150, 150))
	f.store.ApplyRemote([]store.Op{{Kind: store.OpLayerDelete, ID: id}})
	f.PointerMove(primary(170, 150))
	f.PointerUp(primary(170, 150))

	if f.store.Layers().Len() != 0 {
		t.Fatal("drag resurrected a remotely deleted layer")
	}
}

func TestScene(t *testing.T) {
	f := newFixture(t, nil)
	rect, _ := f.Insert(board.LayerRectangle, board.Point{X: 10, Y: 10})

	sc := f.Scene()
	if len(sc.Items) != 1 || !sc.Items[0].Selected {
		t.Fatalf("items = %+v, want one selected rectangle", sc.Items)
	}
	if sc.Selection == nil || len(sc.Selection.Handles) != 8 {
		t.Fatalf("selection = %+v, want 8 handles", sc.Selection)
	}

	stroke, _ := f.CommitPath([]board.PathPoint{{X: 0, Y: 0, Pressure: 0.5}, {X: 50, Y: 50, Pressure: 0.5}})
	f.setSelection([]string{stroke})
	sc = f.Scene()
	if sc.Selection == nil || len(sc.Selection.Handles) != 0 {
		t.Fatalf("path selection handles = %+v, want none", sc.Selection)
	}
	if !strings.HasPrefix(sc.Items[1].Path, "M") {
		t.Fatalf("path item = %q, want SVG commands", sc.Items[1].Path)
	}

	cursor := board.Point{X: 5, Y: 5}
	f.presence.SetOther(7, presence.State{Cursor: &cursor, Selection: []string{rect}})
	sc = f.Scene()
	if len(sc.Cursors) != 1 || sc.Cursors[0].ConnectionID != 7 {
		t.Fatalf("cursors = %+v, want connection 7", sc.Cursors)
	}
	if sc.Items[0].Highlight == "" {
		t.Fatal("remotely selected item has no highlight")
	}

	out := f.Render()
	if !strings.Contains(out, `"mode":"none"`) || !strings.Contains(out, `"type":"path"`) {
		t.Fatalf("Render() = %s", out)
	}
}

func TestScene_SelectionNet(t *testing.T) {
	f := newFixture(t, nil)
	f.PointerDown(primary(0, 0))
	f.PointerMove(primary(40, 30))

	sc := f.Scene()
	if sc.Net == nil || *sc.Net != (board.XYWH{Width: 40, Height: 30}) {
		t.Fatalf("net = %+v, want 40x30 at origin", sc.Net)
	}
	if sc.Cursor != "crosshair" {
		t.Fatalf("cursor = %q, want crosshair", sc.Cursor)
	}
}

func TestQueuePointerMove_CoalescesToLatest(t *testing.T) {
	f := newFixture(t, nil)
	f.ArmPencil()
	f.PointerDown(primary(0, 0))
	f.QueuePointerMove(primary(10, 10))
	f.QueuePointerMove(primary(20, 20))
	f.Frame()

	draft := f.presence.Self().PencilDraft
	if len(draft) != 2 || draft[1].X != 20 {
		t.Fatalf("draft = %+v, want the latest move only", draft)
	}
}
