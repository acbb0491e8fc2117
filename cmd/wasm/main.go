//go:build js && wasm

package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"syscall/js"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dedbin/rimo/internal/asset"
	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/canvas"
	"github.com/dedbin/rimo/internal/clipboard"
	"github.com/dedbin/rimo/internal/collab"
	"github.com/dedbin/rimo/internal/config"
	"github.com/dedbin/rimo/internal/geometry"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/preview"
	"github.com/dedbin/rimo/internal/store"
)

var (
	cfg    config.Canvas
	mem    *store.Memory
	local  *presence.Local
	clip   *clipboard.Memory
	eng    *canvas.Engine
	remote *collab.Remote
)

func main() {
	var err error
	cfg, err = config.LoadCanvas()
	if err != nil {
		slog.Warn("load canvas config, using defaults", "error", err)
		cfg = config.DefaultCanvas()
	}

	mem = store.NewMemory(cfg.HistoryLimit)
	local = presence.NewLocal()
	clip = &clipboard.Memory{}
	boot("")

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadSample", js.FuncOf(loadSample))
	api.Set("connect", js.FuncOf(connect))
	api.Set("resize", js.FuncOf(resize))
	api.Set("setCanvasOrigin", js.FuncOf(setCanvasOrigin))
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("pointerLeave", js.FuncOf(func(js.Value, []js.Value) any { eng.PointerLeave(); return nil }))
	api.Set("pointerCancel", js.FuncOf(func(js.Value, []js.Value) any { eng.PointerCancel(); return nil }))
	api.Set("layerPointerDown", js.FuncOf(layerPointerDown))
	api.Set("resizeHandleDown", js.FuncOf(resizeHandleDown))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("keyDown", js.FuncOf(keyDown))
	api.Set("frame", js.FuncOf(func(js.Value, []js.Value) any { eng.Frame(); return nil }))
	api.Set("armInsert", js.FuncOf(armInsert))
	api.Set("armPencil", js.FuncOf(func(js.Value, []js.Value) any { eng.ArmPencil(); return nil }))
	api.Set("armEraser", js.FuncOf(func(js.Value, []js.Value) any { eng.ArmEraser(); return nil }))
	api.Set("escape", js.FuncOf(func(js.Value, []js.Value) any { eng.Escape(); return nil }))
	api.Set("setFill", js.FuncOf(setFill))
	api.Set("setPenSize", js.FuncOf(setPenSize))
	api.Set("setText", js.FuncOf(setText))
	api.Set("setFontSize", js.FuncOf(setFontSize))
	api.Set("deleteSelection", js.FuncOf(func(js.Value, []js.Value) any { return eng.DeleteSelection() }))
	api.Set("duplicate", js.FuncOf(duplicate))
	api.Set("copy", js.FuncOf(copySelection))
	api.Set("paste", js.FuncOf(paste))
	api.Set("pasteImage", js.FuncOf(pasteImage))
	api.Set("undo", js.FuncOf(func(js.Value, []js.Value) any { return eng.Undo() }))
	api.Set("redo", js.FuncOf(func(js.Value, []js.Value) any { return eng.Redo() }))
	api.Set("bringToFront", js.FuncOf(func(js.Value, []js.Value) any { eng.BringToFront(); return nil }))
	api.Set("sendToBack", js.FuncOf(func(js.Value, []js.Value) any { eng.SendToBack(); return nil }))
	api.Set("zoomIn", js.FuncOf(func(js.Value, []js.Value) any { eng.ZoomIn(); return nil }))
	api.Set("zoomOut", js.FuncOf(func(js.Value, []js.Value) any { eng.ZoomOut(); return nil }))
	api.Set("resetZoom", js.FuncOf(func(js.Value, []js.Value) any { eng.ResetZoom(); return nil }))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(func(js.Value, []js.Value) any { return eng.Render() }))
	api.Set("cursor", js.FuncOf(func(js.Value, []js.Value) any { return eng.CursorHint() }))
	api.Set("canUndo", js.FuncOf(func(js.Value, []js.Value) any { return eng.CanUndo() }))
	api.Set("canRedo", js.FuncOf(func(js.Value, []js.Value) any { return eng.CanRedo() }))
	api.Set("notices", js.FuncOf(notices))
	api.Set("connectionId", js.FuncOf(func(js.Value, []js.Value) any {
		if remote == nil {
			return 0
		}
		return remote.ConnectionID()
	}))

	js.Global().Set("rimoCanvas", api)

	// Signal that WASM is ready
	js.Global().Set("rimoWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// boot creates the engine. serverURL enables link previews and uploads
// through the server; empty leaves them unavailable.
func boot(serverURL string) {
	if eng != nil {
		eng.Close()
	}
	opts := canvas.Options{
		Config:    cfg,
		Store:     mem,
		Presence:  local,
		Clipboard: clip,
	}
	if serverURL != "" {
		opts.Previews = preview.NewClient(serverURL+"/preview", http.DefaultClient)
		opts.Uploader = asset.NewClient(serverURL+"/assets/upload", http.DefaultClient)
	}
	eng = canvas.New(opts)
}

func errorResult(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

func okResult() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func loadSample(this js.Value, args []js.Value) any {
	order, layers := board.SampleLayers()
	mem.Load(store.Snapshot{Layers: layers, Order: order})
	return okResult()
}

// connect(serverURL, boardId) joins a shared board. The result arrives
// through the returned promise.
func connect(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("usage: connect(serverURL, boardId)")
	}
	serverURL := strings.TrimRight(args[0].String(), "/")
	boardID := args[1].String()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws/board/" + boardID

	var handler js.Func
	handler = js.FuncOf(func(_ js.Value, p []js.Value) any {
		resolve, reject := p[0], p[1]
		go func() {
			defer handler.Release()
			if remote != nil {
				remote.Close()
			}
			boot(serverURL)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			r, err := collab.Dial(ctx, wsURL, mem, local, slog.Default())
			if err != nil {
				reject.Invoke(err.Error())
				return
			}
			remote = r
			resolve.Invoke(r.ConnectionID())
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

func resize(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	eng.Resize(args[0].Float(), args[1].Float())
	return nil
}

func setCanvasOrigin(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	eng.SetCanvasOrigin(board.Point{X: args[0].Float(), Y: args[1].Float()})
	return nil
}

// pointerEvent reads (x, y, button, buttons, pressure) starting at args[offset].
func pointerEvent(args []js.Value, offset int) (canvas.PointerEvent, bool) {
	if len(args) < offset+2 {
		return canvas.PointerEvent{}, false
	}
	ev := canvas.PointerEvent{Screen: board.Point{X: args[offset].Float(), Y: args[offset+1].Float()}}
	if len(args) > offset+2 {
		ev.Button = canvas.Button(args[offset+2].Int())
	}
	if len(args) > offset+3 {
		ev.Buttons = args[offset+3].Int()
	}
	if len(args) > offset+4 {
		ev.Pressure = args[offset+4].Float()
	}
	return ev, true
}

func pointerDown(this js.Value, args []js.Value) any {
	if ev, ok := pointerEvent(args, 0); ok {
		eng.PointerDown(ev)
	}
	return nil
}

func pointerMove(this js.Value, args []js.Value) any {
	if ev, ok := pointerEvent(args, 0); ok {
		eng.QueuePointerMove(ev)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) any {
	if ev, ok := pointerEvent(args, 0); ok {
		eng.PointerUp(ev)
	}
	return nil
}

func layerPointerDown(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	if ev, ok := pointerEvent(args, 1); ok {
		eng.LayerPointerDown(args[0].String(), ev)
	}
	return nil
}

func resizeHandleDown(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	if ev, ok := pointerEvent(args, 1); ok {
		eng.ResizeHandleDown(geometry.Side(args[0].Int()), ev)
	}
	return nil
}

func wheel(this js.Value, args []js.Value) any {
	if len(args) < 5 {
		return nil
	}
	eng.Wheel(canvas.WheelEvent{
		Screen: board.Point{X: args[0].Float(), Y: args[1].Float()},
		DeltaX: args[2].Float(),
		DeltaY: args[3].Float(),
		Ctrl:   args[4].Bool(),
	})
	return nil
}

// keyDown takes a KeyboardEvent-shaped object plus an editing flag.
func keyDown(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return false
	}
	ev := args[0]
	editing := len(args) > 1 && args[1].Truthy()
	return eng.KeyDown(canvas.KeyEvent{
		Code:    ev.Get("code").String(),
		Ctrl:    ev.Get("ctrlKey").Truthy(),
		Shift:   ev.Get("shiftKey").Truthy(),
		Alt:     ev.Get("altKey").Truthy(),
		Meta:    ev.Get("metaKey").Truthy(),
		Editing: editing,
	})
}

func armInsert(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing layer type")
	}
	if err := eng.ArmInsert(board.LayerType(args[0].String())); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func setFill(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing colour")
	}
	c, err := colorful.Hex(args[0].String())
	if err != nil {
		return errorResult(err.Error())
	}
	r, g, b := c.RGB255()
	eng.SetFill(board.Color{R: r, G: g, B: b})
	return okResult()
}

func setPenSize(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing size")
	}
	if err := eng.SetPenSize(args[0].Float()); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func setText(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("usage: setText(id, value)")
	}
	if err := eng.SetText(args[0].String(), args[1].String()); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func setFontSize(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing size")
	}
	if err := eng.SetFontSize(args[0].Float()); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func duplicate(this js.Value, args []js.Value) any {
	ids, err := eng.Duplicate()
	if err != nil {
		return errorResult(err.Error())
	}
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return js.ValueOf(out)
}

// copySelection returns the clipboard text for the host to place on the
// system clipboard.
func copySelection(this js.Value, args []js.Value) any {
	if err := eng.Copy(); err != nil {
		return errorResult(err.Error())
	}
	text, _ := clip.ReadText()
	return text
}

func paste(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errorResult("missing text")
	}
	if err := eng.Paste(clipboard.Content{Text: args[0].String()}); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

// pasteImage(bytes Uint8Array, mime string)
func pasteImage(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return errorResult("usage: pasteImage(bytes, mime)")
	}
	data := make([]byte, args[0].Get("length").Int())
	js.CopyBytesToGo(data, args[0])
	if err := eng.Paste(clipboard.Content{Data: data, MIME: args[1].String()}); err != nil {
		return errorResult(err.Error())
	}
	return okResult()
}

func notices(this js.Value, args []js.Value) any {
	list := eng.Notices()
	out := make([]any, len(list))
	for i, n := range list {
		out[i] = map[string]any{"level": string(n.Level), "message": n.Message}
	}
	return js.ValueOf(out)
}
