package clipboard

import (
	"sync"

	"github.com/dedbin/rimo/internal/board"
)

// Offset returns how far to shift a copy of bounds. It goes right by the
// width plus gap unless that would cross visibleRight, in which case it goes
// down by the height plus gap. multiplier spaces out repeated pastes.
func Offset(bounds board.XYWH, visibleRight, gap float64, multiplier int) (dx, dy float64) {
	m := float64(max(multiplier, 1))
	right := (bounds.Width + gap) * m
	if bounds.Right()+right > visibleRight {
		return 0, (bounds.Height + gap) * m
	}
	return right, 0
}

// Tracker counts consecutive pastes of identical clipboard content.
type Tracker struct {
	mu    sync.Mutex
	last  string
	count int
}

// Next records a paste of content and returns its offset multiplier: 1 for
// new content, growing by one for every repeat.
func (t *Tracker) Next(content string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if content == t.last {
		t.count++
	} else {
		t.last, t.count = content, 0
	}
	return t.count + 1
}

// Reset forgets the last paste, e.g. after a fresh copy.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.last, t.count = "", 0
	t.mu.Unlock()
}
