package collab

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/store"
	"github.com/dedbin/rimo/internal/typeid"
)

func startHub(t *testing.T, seed Seeder, limits Limits) (*Hub, string) {
	t.Helper()
	hub := NewHub(seed, limits)
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := mux.NewRouter()
	r.HandleFunc("/ws/board/{boardId}", hub.Handler(nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/board/"
}

type peer struct {
	*Remote
	store    *store.Memory
	presence *presence.Local
}

func join(t *testing.T, url string) peer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st := store.NewMemory(50)
	p := presence.NewLocal()
	r, err := Dial(ctx, url, st, p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return peer{Remote: r, store: st, presence: p}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func addRect(t *testing.T, st *store.Memory, id string, x float64) {
	t.Helper()
	err := st.Mutate(func() error {
		st.Layers().Set(id, &board.RectangleLayer{Shape: board.Shape{X: x, Width: 10, Height: 10}})
		st.Order().Push(id)
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
}

func TestRemote_OpsReachOtherPeers(t *testing.T) {
	hub, base := startHub(t, nil, Limits{})
	boardID := typeid.NewBoardID()
	a := join(t, base+boardID)
	b := join(t, base+boardID)

	if a.ConnectionID() == b.ConnectionID() {
		t.Fatalf("connection ids both %d", a.ConnectionID())
	}

	addRect(t, a.store, "layer-1", 5)

	eventually(t, "peer b to see the layer", func() bool {
		_, ok := b.store.Layers().Get("layer-1")
		return ok
	})
	eventually(t, "ack", func() bool { return a.Pending() == 0 && a.ServerSeq() == 1 })

	snap, ok := hub.Snapshot(boardID)
	if !ok || len(snap.Order) != 1 || snap.Order[0] != "layer-1" {
		t.Fatalf("hub snapshot = %+v, want one layer", snap)
	}
	if b.store.Order().IDs()[0] != "layer-1" {
		t.Fatalf("peer order = %v", b.store.Order().IDs())
	}
	if b.store.CanUndo() {
		t.Fatal("remote ops must not enter the peer's undo history")
	}
}

func TestRemote_LateJoinerGetsSnapshot(t *testing.T) {
	seed := func(string) store.Snapshot {
		return store.Snapshot{
			Layers: board.LayerMap{"seeded": &board.EllipseLayer{Shape: board.Shape{Width: 4, Height: 4}}},
			Order:  []string{"seeded"},
		}
	}
	_, base := startHub(t, seed, Limits{})
	boardID := typeid.NewBoardID()

	a := join(t, base+boardID)
	addRect(t, a.store, "layer-1", 0)
	eventually(t, "ack", func() bool { return a.Pending() == 0 })

	c := join(t, base+boardID)
	if got := c.store.Order().IDs(); len(got) != 2 || got[0] != "seeded" || got[1] != "layer-1" {
		t.Fatalf("late joiner order = %v, want [seeded layer-1]", got)
	}
	if c.ServerSeq() != 1 {
		t.Fatalf("late joiner seq = %d, want 1", c.ServerSeq())
	}
}

func TestRemote_PresenceRelay(t *testing.T) {
	_, base := startHub(t, nil, Limits{})
	boardID := typeid.NewBoardID()
	a := join(t, base+boardID)
	b := join(t, base+boardID)

	cursor := board.Point{X: 12, Y: 34}
	a.presence.Update(func(s *presence.State) {
		s.Cursor = &cursor
		s.Selection = []string{"layer-9"}
	}, presence.Options{})

	eventually(t, "cursor relay", func() bool {
		s, ok := b.presence.Others()[a.ConnectionID()]
		return ok && s.Cursor != nil && *s.Cursor == cursor && len(s.Selection) == 1
	})
	if _, ok := a.presence.Others()[a.ConnectionID()]; ok {
		t.Fatal("peer sees its own presence as another connection")
	}

	a.Close()
	eventually(t, "leave", func() bool {
		_, ok := b.presence.Others()[a.ConnectionID()]
		return !ok
	})
}

func TestRemote_RejectedStepResyncs(t *testing.T) {
	_, base := startHub(t, nil, Limits{MaxLayers: 1})
	a := join(t, base+typeid.NewBoardID())

	err := a.store.Mutate(func() error {
		for _, id := range []string{"x", "y"} {
			a.store.Layers().Set(id, &board.RectangleLayer{})
			a.store.Order().Push(id)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if a.store.Layers().Len() != 2 {
		t.Fatal("local store should apply optimistically")
	}

	eventually(t, "resync after nack", func() bool {
		return a.store.Layers().Len() == 0 && a.Pending() == 0
	})
}

func TestRemote_InvalidLayerIsRejected(t *testing.T) {
	hub, base := startHub(t, nil, Limits{MaxTextLength: 10})
	boardID := typeid.NewBoardID()
	a := join(t, base+boardID)

	err := a.store.Mutate(func() error {
		a.store.Layers().Set("t", &board.TextLayer{TextStyle: board.TextStyle{Value: ""}})
		a.store.Order().Push("t")
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	eventually(t, "resync after invalid layer", func() bool {
		return a.store.Layers().Len() == 0 && a.Pending() == 0
	})
	snap, ok := hub.Snapshot(boardID)
	if !ok || len(snap.Order) != 0 {
		t.Fatalf("hub snapshot = %+v, want empty board", snap)
	}
}

func TestValidateOps(t *testing.T) {
	tests := []struct {
		name    string
		ops     []store.Op
		wantErr bool
	}{
		{"rectangle", []store.Op{{Kind: store.OpLayerSet, ID: "r", Layer: &board.RectangleLayer{}}}, false},
		{"single point stroke", []store.Op{{Kind: store.OpLayerSet, ID: "p", Layer: &board.PathLayer{Points: []board.PathPoint{{}}}}}, true},
		{"oversized text", []store.Op{{Kind: store.OpLayerSet, ID: "s", Layer: &board.StickerLayer{TextStyle: board.TextStyle{Value: "far too long"}}}}, true},
		{"blank text update", []store.Op{{Kind: store.OpLayerUpdate, ID: "s", Patch: &board.Patch{Value: board.String(" ")}}}, true},
		{"move only", []store.Op{{Kind: store.OpLayerUpdate, ID: "s", Patch: &board.Patch{X: board.Float(3)}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOps(tt.ops, 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateOps() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHandler_RejectsBadBoardID(t *testing.T) {
	hub := NewHub(nil, Limits{})
	r := mux.NewRouter()
	r.HandleFunc("/ws/board/{boardId}", hub.Handler(nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/board/not-a-board", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
