// Package selection tracks the local selection and the selections of every
// other connection on the board.
package selection

import (
	"slices"
	"sort"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/geometry"
)

// Model holds the local selection and the remote ones keyed by connection id.
// Only the local selection is ever acted on.
type Model struct {
	local  []string
	remote map[int][]string
}

func New() *Model {
	return &Model{remote: make(map[int][]string)}
}

// IDs returns a copy of the local selection in selection order.
func (m *Model) IDs() []string { return slices.Clone(m.local) }

func (m *Model) Len() int { return len(m.local) }

func (m *Model) IsEmpty() bool { return len(m.local) == 0 }

// Set replaces the local selection, dropping duplicates.
func (m *Model) Set(ids []string) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	m.local = out
}

func (m *Model) Clear() { m.local = nil }

func (m *Model) Contains(id string) bool { return slices.Contains(m.local, id) }

// Sole returns the only selected id.
func (m *Model) Sole() (string, bool) {
	if len(m.local) != 1 {
		return "", false
	}
	return m.local[0], true
}

// Prune drops ids no longer resolvable, e.g. deleted by another session.
func (m *Model) Prune(layers geometry.Lookup) {
	m.local = slices.DeleteFunc(m.local, func(id string) bool {
		_, ok := layers.Get(id)
		return !ok
	})
}

// Resolve returns the selected layers that still exist.
func (m *Model) Resolve(layers geometry.Lookup) []board.Layer {
	out := make([]board.Layer, 0, len(m.local))
	for _, id := range m.local {
		if l, ok := layers.Get(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// Bounds is the enclosure of the resolved local selection.
func (m *Model) Bounds(layers geometry.Lookup) (board.XYWH, bool) {
	return geometry.Enclosure(m.Resolve(layers))
}

// SetRemote records the selection of another connection.
func (m *Model) SetRemote(connectionID int, ids []string) {
	if len(ids) == 0 {
		delete(m.remote, connectionID)
		return
	}
	m.remote[connectionID] = slices.Clone(ids)
}

// ReplaceRemote swaps in a full view of the other connections.
func (m *Model) ReplaceRemote(all map[int][]string) {
	m.remote = make(map[int][]string, len(all))
	for conn, ids := range all {
		m.SetRemote(conn, ids)
	}
}

// Remote returns the selection of a connection.
func (m *Model) Remote(connectionID int) []string {
	return slices.Clone(m.remote[connectionID])
}

// HighlightColors maps every layer selected by another connection to that
// connection's colour. When two connections select the same layer the lower
// connection id wins.
func (m *Model) HighlightColors() map[string]board.Color {
	conns := make([]int, 0, len(m.remote))
	for conn := range m.remote {
		conns = append(conns, conn)
	}
	sort.Ints(conns)

	out := make(map[string]board.Color)
	for _, conn := range conns {
		c := ConnectionColor(conn)
		for _, id := range m.remote[conn] {
			if _, taken := out[id]; !taken {
				out[id] = c
			}
		}
	}
	return out
}
