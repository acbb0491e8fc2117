package store

import (
	"encoding/json"
	"fmt"

	"github.com/dedbin/rimo/internal/board"
)

// OpKind names a structural mutation.
type OpKind string

const (
	OpLayerSet      OpKind = "layer.set"
	OpLayerUpdate   OpKind = "layer.update"
	OpLayerDelete   OpKind = "layer.delete"
	OpOrderPush     OpKind = "order.push"
	OpOrderMove     OpKind = "order.move"
	OpOrderDeleteAt OpKind = "order.deleteAt"
)

// Op is one structural mutation. Order ops address layers by id so they
// still apply when concurrent edits have shifted indices; Index is the
// target position for push (-1 appends) and move, and the observed position
// for deleteAt.
type Op struct {
	Kind  OpKind
	ID    string
	Layer board.Layer
	Patch *board.Patch
	Index int
}

type opWire struct {
	Kind  OpKind          `json:"kind"`
	ID    string          `json:"id"`
	Layer json.RawMessage `json:"layer,omitempty"`
	Patch *board.Patch    `json:"patch,omitempty"`
	Index int             `json:"index"`
}

func (o Op) MarshalJSON() ([]byte, error) {
	w := opWire{Kind: o.Kind, ID: o.ID, Patch: o.Patch, Index: o.Index}
	if o.Layer != nil {
		data, err := board.MarshalLayer(o.Layer)
		if err != nil {
			return nil, err
		}
		w.Layer = data
	}
	return json.Marshal(w)
}

func (o *Op) UnmarshalJSON(data []byte) error {
	var w opWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case OpLayerSet, OpLayerUpdate, OpLayerDelete, OpOrderPush, OpOrderMove, OpOrderDeleteAt:
	default:
		return fmt.Errorf("unknown op kind %q", w.Kind)
	}
	if w.ID == "" {
		return fmt.Errorf("%s: missing id", w.Kind)
	}

	op := Op{Kind: w.Kind, ID: w.ID, Patch: w.Patch, Index: w.Index}
	if len(w.Layer) > 0 {
		l, err := board.UnmarshalLayer(w.Layer)
		if err != nil {
			return fmt.Errorf("%s %s: %w", w.Kind, w.ID, err)
		}
		op.Layer = l
	}
	if op.Kind == OpLayerSet && op.Layer == nil {
		return fmt.Errorf("%s %s: missing layer", w.Kind, w.ID)
	}
	if op.Kind == OpLayerUpdate && op.Patch == nil {
		return fmt.Errorf("%s %s: missing patch", w.Kind, w.ID)
	}
	*o = op
	return nil
}
