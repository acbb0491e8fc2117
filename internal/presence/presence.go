// Package presence holds the ephemeral per-connection state shared with
// everyone on a board: cursor, selection and in-progress drafts.
package presence

import (
	"maps"
	"slices"
	"sync"

	"github.com/dedbin/rimo/internal/board"
)

// State is one connection's presence. A nil cursor means the pointer is off
// the canvas.
type State struct {
	Cursor      *board.Point      `json:"cursor"`
	Selection   []string          `json:"selection"`
	PencilDraft []board.PathPoint `json:"pencilDraft,omitempty"`
	EraserDraft []board.Point     `json:"eraserDraft,omitempty"`
	PenColor    *board.Color      `json:"penColor,omitempty"`
	PenSize     float64           `json:"penSize,omitempty"`
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.Cursor != nil {
		c := *s.Cursor
		out.Cursor = &c
	}
	if s.PenColor != nil {
		c := *s.PenColor
		out.PenColor = &c
	}
	out.Selection = slices.Clone(s.Selection)
	out.PencilDraft = slices.Clone(s.PencilDraft)
	out.EraserDraft = slices.Clone(s.EraserDraft)
	return out
}

// Options control how an update is broadcast.
type Options struct {
	// AddToHistory marks the change as part of the current undo step.
	AddToHistory bool
}

// Channel is the presence broadcast a canvas session talks to.
type Channel interface {
	Self() State
	Others() map[int]State
	Update(fn func(*State), opts Options)
}

// Listener is told about every local presence change.
type Listener func(s State, opts Options)

// Local is a Channel held in memory. Other connections are fed in by the
// transport through SetOther and RemoveOther.
type Local struct {
	mu        sync.Mutex
	self      State
	others    map[int]State
	listeners []Listener
}

var _ Channel = (*Local)(nil)

func NewLocal() *Local {
	return &Local{others: make(map[int]State)}
}

// Subscribe registers fn for local changes.
func (l *Local) Subscribe(fn Listener) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

func (l *Local) Self() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.self.Clone()
}

func (l *Local) Others() map[int]State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int]State, len(l.others))
	for conn, s := range l.others {
		out[conn] = s.Clone()
	}
	return out
}

func (l *Local) Update(fn func(*State), opts Options) {
	l.mu.Lock()
	fn(&l.self)
	snapshot := l.self.Clone()
	listeners := slices.Clone(l.listeners)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot, opts)
	}
}

func (l *Local) SetOther(connectionID int, s State) {
	l.mu.Lock()
	l.others[connectionID] = s.Clone()
	l.mu.Unlock()
}

func (l *Local) RemoveOther(connectionID int) {
	l.mu.Lock()
	delete(l.others, connectionID)
	l.mu.Unlock()
}

// ReplaceOthers swaps in a complete view of the other connections.
func (l *Local) ReplaceOthers(all map[int]State) {
	l.mu.Lock()
	l.others = maps.Clone(all)
	if l.others == nil {
		l.others = make(map[int]State)
	}
	l.mu.Unlock()
}

// Selections extracts every other connection's selection.
func Selections(others map[int]State) map[int][]string {
	out := make(map[int][]string, len(others))
	for conn, s := range others {
		if len(s.Selection) > 0 {
			out[conn] = s.Selection
		}
	}
	return out
}
