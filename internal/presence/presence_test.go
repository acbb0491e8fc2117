package presence

import (
	"reflect"
	"testing"

	"github.com/dedbin/rimo/internal/board"
)

func TestLocal_UpdateNotifiesListeners(t *testing.T) {
	l := NewLocal()
	var got []State
	var opts []Options
	l.Subscribe(func(s State, o Options) {
		got = append(got, s)
		opts = append(opts, o)
	})

	l.Update(func(s *State) { s.Cursor = &board.Point{X: 1, Y: 2} }, Options{})
	l.Update(func(s *State) { s.Selection = []string{"a"} }, Options{AddToHistory: true})

	if len(got) != 2 {
		t.Fatalf("listener calls = %d, want 2", len(got))
	}
	if got[1].Cursor == nil || *got[1].Cursor != (board.Point{X: 1, Y: 2}) {
		t.Fatalf("cursor = %v, want {1 2}", got[1].Cursor)
	}
	if !opts[1].AddToHistory || opts[0].AddToHistory {
		t.Fatalf("opts = %+v", opts)
	}
}

func TestLocal_SelfIsACopy(t *testing.T) {
	l := NewLocal()
	l.Update(func(s *State) { s.Selection = []string{"a", "b"} }, Options{})

	self := l.Self()
	self.Selection[0] = "mutated"
	if got := l.Self().Selection; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Selection = %v, want [a b]", got)
	}
}

func TestLocal_Others(t *testing.T) {
	l := NewLocal()
	l.SetOther(3, State{Selection: []string{"x"}})
	l.SetOther(4, State{})
	l.RemoveOther(4)

	others := l.Others()
	if len(others) != 1 {
		t.Fatalf("Others() = %v, want one entry", others)
	}
	sel := Selections(others)
	if !reflect.DeepEqual(sel, map[int][]string{3: {"x"}}) {
		t.Fatalf("Selections() = %v", sel)
	}
}
