package store

import (
	"slices"
	"sync"

	"github.com/dedbin/rimo/internal/board"
)

// Sink receives the ops of every committed mutate boundary, in order.
type Sink func(ops []Op)

// Memory is an in-memory Store and History. Every local change is recorded
// as an Op and handed to the sink, which lets a replica forward it.
type Memory struct {
	mu     sync.Mutex
	layers map[string]board.Layer
	order  []string

	depth   int
	pending []Op
	inverse []Op
	sink    Sink

	limit  int
	undo   [][]Op
	redo   [][]Op
	pauses int
	group  []Op
}

var (
	_ Store   = (*Memory)(nil)
	_ History = (*Memory)(nil)
)

// NewMemory creates an empty store keeping at most historyLimit undo steps.
func NewMemory(historyLimit int) *Memory {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Memory{
		layers: make(map[string]board.Layer),
		limit:  historyLimit,
	}
}

// SetSink installs the op sink. Pass nil to detach.
func (m *Memory) SetSink(s Sink) {
	m.mu.Lock()
	m.sink = s
	m.mu.Unlock()
}

func (m *Memory) Layers() Layers { return layerView{m} }
func (m *Memory) Order() Order   { return orderView{m} }

func (m *Memory) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Memory) snapshotLocked() Snapshot {
	layers := make(board.LayerMap, len(m.layers))
	for id, l := range m.layers {
		layers[id] = l
	}
	return Snapshot{Layers: layers, Order: slices.Clone(m.order)}
}

// Load replaces the whole state, e.g. on the first sync with a server. It
// does not reach the sink and clears history.
func (m *Memory) Load(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = make(map[string]board.Layer, len(s.Layers))
	for id, l := range s.Layers {
		m.layers[id] = l.Clone()
	}
	m.order = m.order[:0]
	for _, id := range s.Order {
		if _, ok := m.layers[id]; ok && !slices.Contains(m.order, id) {
			m.order = append(m.order, id)
		}
	}
	m.pending, m.inverse = nil, nil
	m.undo, m.redo, m.group = nil, nil, nil
}

// ApplyRemote applies ops that already happened elsewhere. They do not reach
// the sink or the local history. Ops against missing ids are skipped. It
// returns how many ops applied.
func (m *Memory) ApplyRemote(ops []Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	applied := 0
	for _, op := range ops {
		if _, ok := m.applyLocked(op); ok {
			applied++
		}
	}
	return applied
}

func (m *Memory) Mutate(fn func() error) error {
	m.mu.Lock()
	m.depth++
	m.mu.Unlock()

	err := fn()

	m.mu.Lock()
	m.depth--
	var out []Op
	if err != nil && m.depth == 0 {
		m.rollbackLocked()
	} else if m.depth == 0 {
		out = m.commitLocked()
	}
	sink := m.sink
	m.mu.Unlock()

	emit(sink, out)
	return err
}

func (m *Memory) write(op Op) bool {
	m.mu.Lock()
	inv, ok := m.applyLocked(op)
	if ok {
		m.pending = append(m.pending, op)
		m.inverse = append(m.inverse, inv...)
	}
	var out []Op
	if m.depth == 0 {
		out = m.commitLocked()
	}
	sink := m.sink
	m.mu.Unlock()

	emit(sink, out)
	return ok
}

func emit(sink Sink, ops []Op) {
	if sink != nil && len(ops) > 0 {
		sink(ops)
	}
}

func (m *Memory) commitLocked() []Op {
	ops := m.pending
	if len(ops) == 0 {
		return nil
	}
	m.recordLocked(m.inverse)
	m.pending, m.inverse = nil, nil
	return ops
}

func (m *Memory) rollbackLocked() {
	for i := len(m.inverse) - 1; i >= 0; i-- {
		m.applyLocked(m.inverse[i])
	}
	m.pending, m.inverse = nil, nil
}

func (m *Memory) recordLocked(inverse []Op) {
	if m.pauses > 0 {
		m.group = append(m.group, inverse...)
		return
	}
	m.pushLocked(&m.undo, inverse)
	m.redo = nil
}

func (m *Memory) pushLocked(stack *[][]Op, entry []Op) {
	*stack = append(*stack, entry)
	if over := len(*stack) - m.limit; over > 0 {
		*stack = slices.Delete(*stack, 0, over)
	}
}

// applyLocked performs op and returns the ops that undo it. ok is false
// when op does not apply, e.g. its target was deleted by another session.
func (m *Memory) applyLocked(op Op) (inverse []Op, ok bool) {
	switch op.Kind {
	case OpLayerSet:
		if op.Layer == nil {
			return nil, false
		}
		prior, had := m.layers[op.ID]
		m.layers[op.ID] = op.Layer.Clone()
		if had {
			return []Op{{Kind: OpLayerSet, ID: op.ID, Layer: prior}}, true
		}
		return []Op{{Kind: OpLayerDelete, ID: op.ID}}, true

	case OpLayerUpdate:
		prior, had := m.layers[op.ID]
		if !had || op.Patch == nil {
			return nil, false
		}
		m.layers[op.ID] = board.Apply(prior, *op.Patch)
		return []Op{{Kind: OpLayerSet, ID: op.ID, Layer: prior}}, true

	case OpLayerDelete:
		prior, had := m.layers[op.ID]
		if !had {
			return nil, false
		}
		delete(m.layers, op.ID)
		return []Op{{Kind: OpLayerSet, ID: op.ID, Layer: prior}}, true

	case OpOrderPush:
		if slices.Contains(m.order, op.ID) {
			return nil, false
		}
		if op.Index < 0 || op.Index >= len(m.order) {
			m.order = append(m.order, op.ID)
		} else {
			m.order = slices.Insert(m.order, op.Index, op.ID)
		}
		return []Op{{Kind: OpOrderDeleteAt, ID: op.ID, Index: slices.Index(m.order, op.ID)}}, true

	case OpOrderMove:
		from := slices.Index(m.order, op.ID)
		if from < 0 {
			return nil, false
		}
		to := max(0, min(op.Index, len(m.order)-1))
		if from == to {
			return nil, false
		}
		m.order = slices.Delete(m.order, from, from+1)
		m.order = slices.Insert(m.order, to, op.ID)
		return []Op{{Kind: OpOrderMove, ID: op.ID, Index: from}}, true

	case OpOrderDeleteAt:
		i := slices.Index(m.order, op.ID)
		if i < 0 {
			return nil, false
		}
		m.order = slices.Delete(m.order, i, i+1)
		return []Op{{Kind: OpOrderPush, ID: op.ID, Index: i}}, true
	}
	return nil, false
}

type layerView struct{ m *Memory }

func (v layerView) Get(id string) (board.Layer, bool) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	l, ok := v.m.layers[id]
	return l, ok
}

func (v layerView) Set(id string, l board.Layer) {
	v.m.write(Op{Kind: OpLayerSet, ID: id, Layer: l})
}

func (v layerView) Update(id string, p board.Patch) bool {
	return v.m.write(Op{Kind: OpLayerUpdate, ID: id, Patch: &p})
}

func (v layerView) Delete(id string) bool {
	return v.m.write(Op{Kind: OpLayerDelete, ID: id})
}

func (v layerView) Len() int {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return len(v.m.layers)
}

type orderView struct{ m *Memory }

func (v orderView) Push(id string) {
	v.m.write(Op{Kind: OpOrderPush, ID: id, Index: -1})
}

func (v orderView) IndexOf(id string) int {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return slices.Index(v.m.order, id)
}

func (v orderView) DeleteAt(index int) bool {
	id, ok := v.at(index)
	if !ok {
		return false
	}
	return v.m.write(Op{Kind: OpOrderDeleteAt, ID: id, Index: index})
}

func (v orderView) Move(from, to int) {
	id, ok := v.at(from)
	if !ok {
		return
	}
	v.m.write(Op{Kind: OpOrderMove, ID: id, Index: to})
}

func (v orderView) at(index int) (string, bool) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if index < 0 || index >= len(v.m.order) {
		return "", false
	}
	return v.m.order[index], true
}

func (v orderView) Len() int {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return len(v.m.order)
}

func (v orderView) IDs() []string {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	return slices.Clone(v.m.order)
}
