package canvas

import (
	"math"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/geometry"
	"github.com/dedbin/rimo/internal/presence"
)

func pressureOf(ev PointerEvent) float64 {
	if ev.Pressure <= 0 {
		return 0.5
	}
	return ev.Pressure
}

// QueuePointerMove defers a move to the next Frame. Only the latest queued
// move survives.
func (e *Engine) QueuePointerMove(ev PointerEvent) {
	e.moves.Push(ev)
}

// Frame runs once per render frame: it applies the latest queued move and
// any finished async work.
func (e *Engine) Frame() {
	e.flushMoves()
	e.RunPending()
}

func (e *Engine) flushMoves() {
	if ev, ok := e.moves.Flush(); ok {
		e.PointerMove(ev)
	}
}

// PointerDown handles a button press on the canvas.
func (e *Engine) PointerDown(ev PointerEvent) {
	e.flushMoves()

	if ev.Button == ButtonSecondary {
		e.startPanning(ev.Screen)
		return
	}
	if ev.Button != ButtonPrimary {
		return
	}

	point := e.view.ScreenToWorld(ev.Screen)
	switch e.state.Mode {
	case ModeInserting, ModePanning:
		return
	case ModePencil:
		e.startDrawing(point, pressureOf(ev))
		return
	case ModeEraser:
		e.startErasing(point)
		return
	}

	if box, ok := e.selection.Bounds(e.store.Layers()); ok && box.Contains(point) {
		e.holdHistory()
		e.state = State{Mode: ModeTranslating, Current: point}
		return
	}

	if id, ok := geometry.HitTest(e.store.Order().IDs(), e.store.Layers(), point, e.cfg.EraserTolerance); ok {
		e.layerDown(id, point)
		return
	}

	e.clearSelection()
	e.state = State{Mode: ModePressing, Origin: point}
}

// LayerPointerDown handles a press that a renderer already resolved to a
// layer. It selects the layer, keeping an existing multi-selection that
// contains it, and starts translating.
func (e *Engine) LayerPointerDown(id string, ev PointerEvent) {
	e.flushMoves()

	if ev.Button == ButtonSecondary {
		e.startPanning(ev.Screen)
		return
	}
	switch e.state.Mode {
	case ModePencil, ModeEraser, ModeInserting, ModePanning:
		return
	}
	if _, ok := e.store.Layers().Get(id); !ok {
		return
	}
	e.layerDown(id, e.view.ScreenToWorld(ev.Screen))
}

func (e *Engine) layerDown(id string, point board.Point) {
	e.holdHistory()
	if !e.selection.Contains(id) {
		e.setSelection([]string{id})
	}
	e.state = State{Mode: ModeTranslating, Current: point}
}

// ResizeHandleDown starts resizing the sole selected layer from a handle.
// Strokes have no handles and are never resized.
func (e *Engine) ResizeHandleDown(corner geometry.Side, ev PointerEvent) {
	e.flushMoves()

	id, ok := e.selection.Sole()
	if !ok {
		return
	}
	l, ok := e.store.Layers().Get(id)
	if !ok || !resizable(l) {
		return
	}
	e.holdHistory()
	e.state = State{Mode: ModeResizing, Initial: l.Bounds(), Corner: corner}
}

// resizable reports whether a layer can be resized from handles. Path points
// are relative to the layer origin and would not follow a new box.
func resizable(l board.Layer) bool {
	_, isPath := l.(*board.PathLayer)
	return !isPath
}

// PointerMove handles a pointer sample immediately. Prefer QueuePointerMove
// for high-rate input.
func (e *Engine) PointerMove(ev PointerEvent) {
	point := e.view.ScreenToWorld(ev.Screen)

	switch e.state.Mode {
	case ModePanning:
		dx, dy := ev.Screen.X-e.state.Current.X, ev.Screen.Y-e.state.Current.Y
		e.view.Pan(dx, dy)
		e.state.Current = ev.Screen
		point = e.view.ScreenToWorld(ev.Screen)
	case ModePressing:
		e.startSelectionNet(point)
	case ModeSelectionNet:
		e.updateSelectionNet(point)
	case ModeTranslating:
		e.translateSelection(point)
	case ModeResizing:
		e.resizeSelection(point)
	case ModePencil:
		if e.drawing && ev.Buttons&ButtonsPrimary != 0 {
			e.continueDrawing(point, pressureOf(ev))
		}
	case ModeEraser:
		if e.erasing {
			e.continueErasing(point)
		}
	}

	e.presence.Update(func(s *presence.State) { s.Cursor = &point }, presence.Options{})
}

// PointerUp handles a button release.
func (e *Engine) PointerUp(ev PointerEvent) {
	e.flushMoves()
	point := e.view.ScreenToWorld(ev.Screen)

	switch e.state.Mode {
	case ModePanning:
		if ev.Button == ButtonSecondary {
			e.stopPanning()
		}
	case ModeInserting:
		if ev.Button == ButtonPrimary {
			_, _ = e.Insert(e.state.LayerType, point)
			e.state = State{Mode: ModeNone}
		}
	case ModePencil:
		e.finishDrawing()
	case ModeEraser:
		e.stopErasing()
	case ModeTranslating, ModeResizing:
		e.releaseHistory()
		e.state = State{Mode: ModeNone}
	case ModePressing, ModeSelectionNet:
		e.state = State{Mode: ModeNone}
	}
}

// PointerLeave hides this session's cursor from others.
func (e *Engine) PointerLeave() {
	e.moves.Drop()
	e.presence.Update(func(s *presence.State) { s.Cursor = nil }, presence.Options{})
}

// PointerCancel aborts the interaction in progress without committing it.
func (e *Engine) PointerCancel() {
	e.moves.Drop()
	e.abortInteraction()
	switch e.state.Mode {
	case ModePencil, ModeEraser, ModeInserting:
	case ModePanning:
		e.stopPanning()
	default:
		e.state = State{Mode: ModeNone}
	}
}

// abortInteraction drops drafts and releases held history.
func (e *Engine) abortInteraction() {
	e.releaseHistory()
	if e.drawing || e.erasing {
		e.drawing, e.erasing = false, false
		e.presence.Update(func(s *presence.State) {
			s.PencilDraft = nil
			s.EraserDraft = nil
		}, presence.Options{})
	}
}

// Wheel zooms around the cursor with Ctrl held and pans otherwise.
func (e *Engine) Wheel(ev WheelEvent) {
	if ev.Ctrl {
		e.view.ZoomAt(ev.Screen, ev.DeltaY < 0)
		return
	}
	e.view.Pan(-ev.DeltaX, -ev.DeltaY)
}

// --- Panning ---

func (e *Engine) startPanning(screen board.Point) {
	if e.state.Mode == ModePanning {
		return
	}
	prev := e.state
	e.state = State{Mode: ModePanning, Origin: screen, Current: screen, Previous: &prev}
}

func (e *Engine) stopPanning() {
	if e.state.Previous != nil {
		e.state = *e.state.Previous
		return
	}
	e.state = State{Mode: ModeNone}
}

// --- Selection net ---

func (e *Engine) startSelectionNet(point board.Point) {
	origin := e.state.Origin
	scale := e.view.Camera().Scale
	moved := (math.Abs(point.X-origin.X) + math.Abs(point.Y-origin.Y)) * scale
	if moved <= e.cfg.SelectionThreshold {
		return
	}
	e.state = State{Mode: ModeSelectionNet, Origin: origin, Current: point}
	e.updateSelectionNet(point)
}

func (e *Engine) updateSelectionNet(point board.Point) {
	e.state.Current = point
	ids := geometry.PickInBox(e.store.Order().IDs(), e.store.Layers(), e.state.Origin, point)
	e.setSelection(ids)
}

// --- Translate and resize ---

func (e *Engine) translateSelection(point board.Point) {
	dx, dy := point.X-e.state.Current.X, point.Y-e.state.Current.Y
	if dx == 0 && dy == 0 {
		return
	}
	ids := e.selection.IDs()
	_ = e.store.Mutate(func() error {
		for _, id := range ids {
			l, ok := e.store.Layers().Get(id)
			if !ok {
				continue
			}
			b := l.Bounds()
			e.store.Layers().Update(id, board.Patch{X: board.Float(b.X + dx), Y: board.Float(b.Y + dy)})
		}
		return nil
	})
	e.state.Current = point
}

func (e *Engine) resizeSelection(point board.Point) {
	id, ok := e.selection.Sole()
	if !ok {
		return
	}
	l, ok := e.store.Layers().Get(id)
	if !ok || !resizable(l) {
		return
	}
	floor := geometry.MinSize(l, e.cfg.MinLayerSize, e.measurer, e.cfg.MinFontSize)
	box := geometry.ResizeBounds(e.state.Initial, e.state.Corner, point, floor)
	e.store.Layers().Update(id, board.BoundsPatch(box))
}

// --- Pencil ---

func (e *Engine) startDrawing(point board.Point, pressure float64) {
	e.drawing = true
	fill, size := e.lastFill, e.penSize
	e.presence.Update(func(s *presence.State) {
		s.PencilDraft = []board.PathPoint{{X: point.X, Y: point.Y, Pressure: pressure}}
		s.PenColor = &fill
		s.PenSize = size
	}, presence.Options{})
}

func (e *Engine) continueDrawing(point board.Point, pressure float64) {
	e.presence.Update(func(s *presence.State) {
		s.PencilDraft = append(s.PencilDraft, board.PathPoint{X: point.X, Y: point.Y, Pressure: pressure})
	}, presence.Options{})
}

// finishDrawing commits the draft as a stroke. Drafts shorter than two
// points are dropped.
func (e *Engine) finishDrawing() {
	if !e.drawing {
		return
	}
	e.drawing = false
	draft := e.presence.Self().PencilDraft
	e.presence.Update(func(s *presence.State) { s.PencilDraft = nil }, presence.Options{})
	if len(draft) < 2 {
		return
	}
	_, _ = e.CommitPath(draft)
}

// --- Eraser ---

func (e *Engine) startErasing(point board.Point) {
	e.erasing = true
	e.holdHistory()
	e.presence.Update(func(s *presence.State) { s.EraserDraft = []board.Point{point} }, presence.Options{})
	e.lastErased = point
	e.eraseAlong(point, point)
}

func (e *Engine) continueErasing(point board.Point) {
	e.presence.Update(func(s *presence.State) { s.EraserDraft = append(s.EraserDraft, point) }, presence.Options{})
	e.eraseAlong(e.lastErased, point)
	e.lastErased = point
}

func (e *Engine) stopErasing() {
	if !e.erasing {
		return
	}
	e.erasing = false
	e.releaseHistory()
	e.presence.Update(func(s *presence.State) { s.EraserDraft = nil }, presence.Options{})
}

// eraseAlong deletes every layer the trail from a to b touches. The segment
// is sampled at least once per tolerance so fast strokes do not skip layers.
func (e *Engine) eraseAlong(a, b board.Point) {
	step := max(e.cfg.EraserTolerance, 1)
	n := int(math.Ceil(math.Hypot(b.X-a.X, b.Y-a.Y) / step))
	samples := make([]board.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := 1.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		samples = append(samples, board.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}

	snap := e.store.Snapshot()
	var hits []string
	for _, id := range snap.Order {
		l, ok := snap.Layers[id]
		if !ok {
			continue
		}
		for _, p := range samples {
			if geometry.HitsLayer(p, l, e.cfg.HoverPadding, e.cfg.EraserTolerance) {
				hits = append(hits, id)
				break
			}
		}
	}
	if len(hits) == 0 {
		return
	}
	e.deleteLayers(hits)
	e.pruneSelection()
}
