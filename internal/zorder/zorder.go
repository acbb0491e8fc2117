// Package zorder reorders a subset of layers within the paint order.
package zorder

import (
	"slices"
)

// Order is a paint order: index 0 is painted first.
type Order interface {
	Len() int
	IndexOf(id string) int
	Move(from, to int)
}

func indices(order Order, ids []string) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if i := order.IndexOf(id); i >= 0 && !slices.Contains(out, i) {
			out = append(out, i)
		}
	}
	return out
}

// MoveToFront stacks ids on top of everything else, keeping their relative
// order. Ids missing from the order are ignored.
func MoveToFront(order Order, ids []string) {
	idx := indices(order, ids)
	slices.Sort(idx)
	slices.Reverse(idx)
	n := order.Len()
	for i, from := range idx {
		order.Move(from, n-1-i)
	}
}

// MoveToBack stacks ids beneath everything else, keeping their relative order.
func MoveToBack(order Order, ids []string) {
	idx := indices(order, ids)
	slices.Sort(idx)
	for i, from := range idx {
		order.Move(from, i)
	}
}

// Sequence is an in-memory Order.
type Sequence []string

func (s Sequence) Len() int { return len(s) }

func (s Sequence) IndexOf(id string) int { return slices.Index(s, id) }

// Move removes the element at from and reinserts it at to.
func (s Sequence) Move(from, to int) {
	if from == to || from < 0 || to < 0 || from >= len(s) || to >= len(s) {
		return
	}
	v := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = v
}
