// Package canvas is the interaction engine of a board: it turns pointer,
// wheel and keyboard input into layer mutations, presence updates and a
// scene for renderers.
package canvas

import (
	"context"
	"log/slog"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/clipboard"
	"github.com/dedbin/rimo/internal/config"
	"github.com/dedbin/rimo/internal/geometry"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/preview"
	"github.com/dedbin/rimo/internal/selection"
	"github.com/dedbin/rimo/internal/store"
	"github.com/dedbin/rimo/internal/typeid"
	"github.com/dedbin/rimo/internal/viewport"
)

// PreviewFetcher resolves page metadata for a pasted link.
type PreviewFetcher interface {
	Fetch(ctx context.Context, url string) (preview.Metadata, error)
}

// Uploader stores an image and returns the URL to reference it by.
type Uploader interface {
	Upload(ctx context.Context, data []byte, mime string) (string, error)
}

// Options configures an Engine. Only Store is required in practice; every
// other collaborator has a working default.
type Options struct {
	Config    config.Canvas
	Store     store.Store
	History   store.History
	Presence  presence.Channel
	Clipboard clipboard.Clipboard
	Previews  PreviewFetcher
	Uploader  Uploader
	Outline   geometry.OutlineGenerator
	Measurer  geometry.TextMeasurer
	Logger    *slog.Logger
	NewID     func() string
}

// Engine is the interaction state machine for one local session. Its
// methods must be called from a single goroutine; async work re-enters
// through RunPending.
type Engine struct {
	cfg      config.Canvas
	store    store.Store
	history  store.History
	presence presence.Channel
	clip     clipboard.Clipboard
	previews PreviewFetcher
	uploader Uploader
	outline  geometry.OutlineGenerator
	measurer geometry.TextMeasurer
	log      *slog.Logger
	newID    func() string

	view      *viewport.Controller
	selection *selection.Model
	state     State
	moves     viewport.Coalescer[PointerEvent]
	pause     *store.PauseToken

	lastFill   board.Color
	penSize    float64
	drawing    bool
	erasing    bool
	lastErased board.Point
	pastes     clipboard.Tracker
	notices    []Notice

	ctx         context.Context
	cancel      context.CancelFunc
	completions chan func()
}

func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.MaxLayers == 0 {
		cfg = config.DefaultCanvas()
	}

	e := &Engine{
		cfg:       cfg,
		store:     opts.Store,
		history:   opts.History,
		presence:  opts.Presence,
		clip:      opts.Clipboard,
		previews:  opts.Previews,
		uploader:  opts.Uploader,
		outline:   opts.Outline,
		measurer:  opts.Measurer,
		log:       opts.Logger,
		newID:     opts.NewID,
		selection: selection.New(),
		penSize:   cfg.DefaultPenSize,
		view: viewport.New(viewport.Options{
			MinScale: cfg.MinScale,
			MaxScale: cfg.MaxScale,
			ZoomStep: cfg.ZoomStep,
			Width:    cfg.ViewportWidth,
			Height:   cfg.ViewportHeight,
		}),
		completions: make(chan func(), 64),
	}

	if e.store == nil {
		e.store = store.NewMemory(cfg.HistoryLimit)
	}
	if e.history == nil {
		if h, ok := e.store.(store.History); ok {
			e.history = h
		} else {
			e.history = noHistory{}
		}
	}
	if e.presence == nil {
		e.presence = presence.NewLocal()
	}
	if e.clip == nil {
		e.clip = &clipboard.Memory{}
	}
	if e.outline == nil {
		e.outline = geometry.OffsetOutline{}
	}
	if e.measurer == nil {
		e.measurer = geometry.DefaultMeasurer()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.newID == nil {
		e.newID = typeid.NewLayerID
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	return e
}

// Close cancels outstanding network work.
func (e *Engine) Close() {
	e.cancel()
	e.releaseHistory()
}

type noHistory struct{}

func (noHistory) Pause() *store.PauseToken { return store.NewPauseToken(nil) }
func (noHistory) Undo() bool               { return false }
func (noHistory) Redo() bool               { return false }
func (noHistory) CanUndo() bool            { return false }
func (noHistory) CanRedo() bool            { return false }

// --- Queries ---

func (e *Engine) State() State { return e.state }

func (e *Engine) Camera() board.Camera { return e.view.Camera() }

// CursorHint is the CSS cursor matching the active mode.
func (e *Engine) CursorHint() string { return cursorHint(e.state) }

// Selection returns the local selection.
func (e *Engine) Selection() []string { return e.selection.IDs() }

// SelectionBounds is the enclosure of the local selection.
func (e *Engine) SelectionBounds() (board.XYWH, bool) {
	return e.selection.Bounds(e.store.Layers())
}

// Layers returns every layer in paint order.
func (e *Engine) Layers() []board.Layer {
	return e.store.Snapshot().Ordered()
}

// BoardBounds is the enclosure of every layer on the board.
func (e *Engine) BoardBounds() (board.XYWH, bool) {
	return geometry.Enclosure(e.Layers())
}

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// LastFill is the colour used for new layers and strokes.
func (e *Engine) LastFill() board.Color { return e.lastFill }

func (e *Engine) PenSize() float64 { return e.penSize }

// Notices drains the queued user-facing messages.
func (e *Engine) Notices() []Notice {
	out := e.notices
	e.notices = nil
	return out
}

// --- Viewport ---

// Resize records the canvas element size in screen pixels.
func (e *Engine) Resize(width, height float64) { e.view.Resize(width, height) }

// SetCanvasOrigin records where the canvas element starts on screen.
func (e *Engine) SetCanvasOrigin(p board.Point) { e.view.SetOrigin(p) }

func (e *Engine) SetCamera(c board.Camera) { e.view.SetCamera(c) }

func (e *Engine) ZoomIn()    { e.view.ZoomIn() }
func (e *Engine) ZoomOut()   { e.view.ZoomOut() }
func (e *Engine) ResetZoom() { e.view.ResetZoom() }

// ScreenToWorld converts a client position into world space.
func (e *Engine) ScreenToWorld(p board.Point) board.Point { return e.view.ScreenToWorld(p) }

// --- internals ---

func (e *Engine) notify(level NoticeLevel, msg string) {
	e.notices = append(e.notices, Notice{Level: level, Message: msg})
}

// reject logs a refused command and surfaces it to the user.
func (e *Engine) reject(op string, err error) error {
	e.log.Warn("canvas command rejected", "op", op, "error", err)
	e.notify(NoticeWarning, err.Error())
	return err
}

func (e *Engine) checkCapacity(adding int) error {
	if e.store.Layers().Len()+adding > e.cfg.MaxLayers {
		return ErrCapacity
	}
	return nil
}

// setSelection replaces the local selection and mirrors it into presence.
func (e *Engine) setSelection(ids []string) {
	e.selection.Set(ids)
	sel := e.selection.IDs()
	e.presence.Update(func(s *presence.State) { s.Selection = sel }, presence.Options{AddToHistory: true})
}

func (e *Engine) clearSelection() {
	if e.selection.IsEmpty() {
		return
	}
	e.setSelection(nil)
}

// pruneSelection drops selected ids deleted elsewhere.
func (e *Engine) pruneSelection() {
	before := e.selection.Len()
	e.selection.Prune(e.store.Layers())
	if e.selection.Len() != before {
		e.setSelection(e.selection.IDs())
	}
}

// holdHistory groups every following mutation into one undo step until
// releaseHistory.
func (e *Engine) holdHistory() {
	if e.pause == nil {
		e.pause = e.history.Pause()
	}
}

func (e *Engine) releaseHistory() {
	e.pause.Resume()
	e.pause = nil
}

func (e *Engine) cursorOrDefault() board.Point {
	if c := e.presence.Self().Cursor; c != nil {
		return *c
	}
	return board.Point{X: 100, Y: 100}
}
