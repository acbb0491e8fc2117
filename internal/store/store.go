// Package store is the shared layer store the canvas engine mutates: a layer
// map, the paint order, atomic mutate boundaries and undo history.
package store

import (
	"sync"

	"github.com/dedbin/rimo/internal/board"
)

// Layers is the layer map. Layers returned by Get must be treated as
// read-only; write through Set or Update.
type Layers interface {
	Get(id string) (board.Layer, bool)
	Set(id string, l board.Layer)
	Update(id string, p board.Patch) bool
	Delete(id string) bool
	Len() int
}

// Order is the paint order, index 0 at the bottom.
type Order interface {
	Push(id string)
	IndexOf(id string) int
	DeleteAt(index int) bool
	Move(from, to int)
	Len() int
	IDs() []string
}

// Store groups the layer map and the paint order behind one mutate boundary.
type Store interface {
	Layers() Layers
	Order() Order
	// Mutate runs fn as one atomic step. If fn fails every change it made
	// is rolled back.
	Mutate(fn func() error) error
	Snapshot() Snapshot
}

// History is the undo stack of a store.
type History interface {
	Pause() *PauseToken
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool
}

// PauseToken holds history grouping open. Everything changed until the last
// outstanding token resumes collapses into one undo step.
type PauseToken struct {
	once   sync.Once
	resume func()
}

func NewPauseToken(resume func()) *PauseToken {
	return &PauseToken{resume: resume}
}

// Resume releases the token. Calling it more than once is a no-op.
func (t *PauseToken) Resume() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		if t.resume != nil {
			t.resume()
		}
	})
}

// Batch runs fn with history paused so all its mutations form one undo step.
func Batch(h History, fn func() error) error {
	tok := h.Pause()
	defer tok.Resume()
	return fn()
}

// Snapshot is an immutable copy of the store.
type Snapshot struct {
	Layers board.LayerMap `json:"layers"`
	Order  []string       `json:"order"`
}

// Ordered resolves the paint order into layers, skipping dangling ids.
func (s Snapshot) Ordered() []board.Layer {
	out := make([]board.Layer, 0, len(s.Order))
	for _, id := range s.Order {
		if l, ok := s.Layers[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

// Get implements geometry.Lookup.
func (s Snapshot) Get(id string) (board.Layer, bool) {
	l, ok := s.Layers[id]
	return l, ok
}
