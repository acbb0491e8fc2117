package canvas

import (
	"encoding/json"
	"sort"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/geometry"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/selection"
)

// DrawItem is one layer for the renderer to paint. Items are in painter's
// order (back to front).
type DrawItem struct {
	ID        string          `json:"id"`
	Type      board.LayerType `json:"type"`
	Box       board.XYWH      `json:"box"`
	Fill      string          `json:"fill"`
	Highlight string          `json:"highlight,omitempty"` // Another user's selection colour
	Selected  bool            `json:"selected,omitempty"`

	// Text and sticker
	Value      string  `json:"value,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	TextColor  string  `json:"textColor,omitempty"`

	// Path commands, relative to Box.X/Box.Y
	Path string `json:"path,omitempty"`

	// Image
	Src string `json:"src,omitempty"`

	// Link preview
	URL         string  `json:"url,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Favicon     *string `json:"favicon,omitempty"`
}

// SelectionBox frames the local selection. Handles are present only when a
// single resizable layer is selected.
type SelectionBox struct {
	Box     board.XYWH     `json:"box"`
	Handles []HandleMarker `json:"handles,omitempty"`
}

type HandleMarker struct {
	Corner geometry.Side `json:"corner"`
	Point  board.Point   `json:"point"`
	Cursor string        `json:"cursor"`
}

// RemoteCursor is another participant's pointer.
type RemoteCursor struct {
	ConnectionID int         `json:"connectionId"`
	Point        board.Point `json:"point"`
	Color        string      `json:"color"`
}

// Draft is an in-progress pencil stroke, local or remote.
type Draft struct {
	ConnectionID int    `json:"connectionId"` // -1 for this session
	Path         string `json:"path"`
	Fill         string `json:"fill"`
}

// Scene is everything a renderer needs for one frame.
type Scene struct {
	Camera    board.Camera   `json:"camera"`
	Transform []float64      `json:"transform"`
	State     State          `json:"state"`
	Cursor    string         `json:"cursor"`
	Items     []DrawItem     `json:"items"`
	Selection *SelectionBox  `json:"selection,omitempty"`
	Net       *board.XYWH    `json:"net,omitempty"`
	Cursors   []RemoteCursor `json:"cursors,omitempty"`
	Drafts    []Draft        `json:"drafts,omitempty"`
	Eraser    []board.Point  `json:"eraser,omitempty"`
}

const localConnection = -1

// Scene compiles the current board, selections and presence for rendering.
func (e *Engine) Scene() Scene {
	others := e.presence.Others()
	e.selection.ReplaceRemote(presence.Selections(others))
	highlights := e.selection.HighlightColors()

	snap := e.store.Snapshot()
	cam := e.view.Camera()
	sc := Scene{
		Camera:    cam,
		Transform: geometry.CameraMatrix(cam).ToSlice(),
		State:     e.state,
		Cursor:    cursorHint(e.state),
		Items:     make([]DrawItem, 0, len(snap.Order)),
	}

	for _, id := range snap.Order {
		l, ok := snap.Layers[id]
		if !ok {
			continue
		}
		item := e.compileLayer(id, l)
		if c, ok := highlights[id]; ok {
			item.Highlight = c.CSS()
		}
		item.Selected = e.selection.Contains(id)
		sc.Items = append(sc.Items, item)
	}

	if box, ok := e.selection.Bounds(snap); ok {
		sc.Selection = &SelectionBox{Box: box}
		if id, ok := e.selection.Sole(); ok && resizable(snap.Layers[id]) {
			for _, corner := range geometry.Handles {
				sc.Selection.Handles = append(sc.Selection.Handles, HandleMarker{
					Corner: corner,
					Point:  geometry.HandlePoint(box, corner),
					Cursor: resizeCursor(corner),
				})
			}
		}
	}

	if e.state.Mode == ModeSelectionNet {
		net := board.BoxFromCorners(e.state.Origin, e.state.Current)
		sc.Net = &net
	}

	self := e.presence.Self()
	if len(self.PencilDraft) > 0 {
		sc.Drafts = append(sc.Drafts, e.compileDraft(localConnection, self))
	}
	sc.Eraser = self.EraserDraft

	conns := make([]int, 0, len(others))
	for conn := range others {
		conns = append(conns, conn)
	}
	sort.Ints(conns)
	for _, conn := range conns {
		s := others[conn]
		if s.Cursor != nil {
			sc.Cursors = append(sc.Cursors, RemoteCursor{
				ConnectionID: conn,
				Point:        *s.Cursor,
				Color:        selection.ConnectionCSS(conn),
			})
		}
		if len(s.PencilDraft) > 0 {
			sc.Drafts = append(sc.Drafts, e.compileDraft(conn, s))
		}
	}

	return sc
}

func (e *Engine) compileLayer(id string, l board.Layer) DrawItem {
	item := DrawItem{
		ID:   id,
		Type: l.Type(),
		Box:  l.Bounds(),
		Fill: l.FillColor().CSS(),
	}

	switch v := l.(type) {
	case *board.RectangleLayer, *board.EllipseLayer:
	case *board.TextLayer:
		item.Value, item.FontSize, item.FontFamily = v.Value, v.FontSize, v.FontFamily
		item.TextColor = v.Fill.CSS()
	case *board.StickerLayer:
		item.Value, item.FontFamily = v.Value, v.FontFamily
		item.FontSize = geometry.StickerFontSize(v.Bounds())
		item.TextColor = v.Fill.ContrastingText()
	case *board.PathLayer:
		item.Path = geometry.PathCommand(e.outline.Outline(v.Points, geometry.DefaultOutlineOptions(v.Size)))
	case *board.ImageLayer:
		item.Src = v.Src
	case *board.LinkPreviewLayer:
		item.URL = v.URL
		item.Title, item.Description, item.Image, item.Favicon = v.Title, v.Description, v.Image, v.Favicon
	default:
		panic("canvas: unhandled layer type " + string(l.Type()))
	}
	return item
}

func (e *Engine) compileDraft(conn int, s presence.State) Draft {
	fill := e.lastFill
	if s.PenColor != nil {
		fill = *s.PenColor
	}
	size := s.PenSize
	if size <= 0 {
		size = e.cfg.DefaultPenSize
	}
	return Draft{
		ConnectionID: conn,
		Path:         geometry.PathCommand(e.outline.Outline(s.PencilDraft, geometry.DefaultOutlineOptions(size))),
		Fill:         fill.CSS(),
	}
}

// Render compiles the scene and serializes it to JSON.
func (e *Engine) Render() string {
	data, err := json.Marshal(e.Scene())
	if err != nil {
		e.log.Error("marshal scene", "error", err)
		return "{}"
	}
	return string(data)
}
