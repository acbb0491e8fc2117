package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/store"
	"github.com/dedbin/rimo/internal/typeid"
)

// Remote connects a local store and presence channel to a board on a hub.
// Local steps are submitted as they commit; other connections' steps and
// presence are applied as they arrive.
type Remote struct {
	conn     *websocket.Conn
	store    *store.Memory
	presence *presence.Local
	log      *slog.Logger

	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu           sync.Mutex
	connectionID int
	serverSeq    int64
	inflight     int
	err          error
}

// Dial connects to a board URL such as ws://host/ws/board/board_... and
// returns once the initial snapshot has been loaded into st.
func Dial(ctx context.Context, url string, st *store.Memory, p *presence.Local, log *slog.Logger) (*Remote, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial board: %w", err)
	}
	conn.SetReadLimit(maxMsgSize)

	r := &Remote{
		conn:     conn,
		store:    st,
		presence: p,
		log:      log,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	if err := r.awaitWelcome(ctx); err != nil {
		r.cancel()
		conn.Close(websocket.StatusProtocolError, "no welcome")
		return nil, err
	}

	go r.writeLoop()
	go r.readLoop()

	st.SetSink(r.submit)
	p.Subscribe(func(s presence.State, _ presence.Options) { r.publishPresence(s) })
	r.publishPresence(p.Self())
	return r, nil
}

func (r *Remote) awaitWelcome(ctx context.Context) error {
	_, data, err := r.conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read welcome: %w", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode welcome: %w", err)
	}
	if msg.Type != TypeWelcome {
		return fmt.Errorf("expected %s, got %s", TypeWelcome, msg.Type)
	}
	var welcome WelcomePayload
	if err := json.Unmarshal(msg.Payload, &welcome); err != nil {
		return fmt.Errorf("decode welcome: %w", err)
	}

	r.store.Load(welcome.Snapshot)
	r.mu.Lock()
	r.connectionID = welcome.ConnectionID
	r.serverSeq = welcome.ServerSeq
	r.mu.Unlock()
	return nil
}

// ConnectionID is the id other participants see this session under.
func (r *Remote) ConnectionID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectionID
}

// ServerSeq is the latest board sequence number seen.
func (r *Remote) ServerSeq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serverSeq
}

// Pending reports how many submitted steps await acknowledgement.
func (r *Remote) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// Err returns the error that ended the connection, if any.
func (r *Remote) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Done is closed when the connection ends.
func (r *Remote) Done() <-chan struct{} { return r.done }

func (r *Remote) Close() error {
	r.store.SetSink(nil)
	r.cancel()
	return r.conn.Close(websocket.StatusNormalClosure, "")
}

func (r *Remote) submit(ops []store.Op) {
	msg, err := newMessage(TypeOpSubmit, OpSubmitPayload{BatchID: typeid.NewOpID(), Ops: ops})
	if err != nil {
		r.log.Error("marshal op submit", "error", err)
		return
	}
	if !r.enqueue(msg) {
		// The hub never saw the step, so our copy has diverged.
		r.requestSync()
		return
	}
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()
}

func (r *Remote) publishPresence(s presence.State) {
	msg, err := newMessage(TypePresenceUpdate, s)
	if err != nil {
		r.log.Error("marshal presence", "error", err)
		return
	}
	r.enqueue(msg)
}

func (r *Remote) requestSync() {
	r.enqueue(&Message{Type: TypeDocSync})
}

func (r *Remote) enqueue(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.Error("marshal message", "error", err)
		return false
	}
	select {
	case r.send <- data:
		return true
	case <-r.ctx.Done():
		return false
	default:
		r.log.Warn("remote send buffer full, dropping message", "type", msg.Type)
		return false
	}
}

func (r *Remote) writeLoop() {
	for {
		select {
		case data := <-r.send:
			ctx, cancel := context.WithTimeout(r.ctx, writeWait)
			err := r.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				r.fail(err)
				return
			}
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Remote) readLoop() {
	defer close(r.done)
	for {
		_, data, err := r.conn.Read(r.ctx)
		if err != nil {
			r.fail(err)
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.log.Warn("invalid message from hub", "error", err)
			continue
		}
		r.handle(&msg)
	}
}

func (r *Remote) fail(err error) {
	r.mu.Lock()
	if r.err == nil && !errors.Is(err, context.Canceled) &&
		websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		r.err = err
	}
	r.mu.Unlock()
	r.cancel()
}

func (r *Remote) handle(msg *Message) {
	switch msg.Type {
	case TypeOpBroadcast:
		var p OpBroadcastPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			r.log.Warn("invalid op broadcast", "error", err)
			r.requestSync()
			return
		}
		r.store.ApplyRemote(p.Ops)
		r.setSeq(p.ServerSeq)

	case TypeOpAck:
		var p OpAckPayload
		if err := json.Unmarshal(msg.Payload, &p); err == nil {
			r.settle()
			r.setSeq(p.ServerSeq)
		}

	case TypeOpNack:
		var p OpNackPayload
		_ = json.Unmarshal(msg.Payload, &p)
		r.log.Warn("hub rejected a change", "batch", p.BatchID, "reason", p.Reason)
		r.settle()
		r.requestSync()

	case TypeDocSync:
		var p DocSyncPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			r.log.Warn("invalid doc sync", "error", err)
			return
		}
		r.store.Load(p.Snapshot)
		r.setSeq(p.ServerSeq)

	case TypePresenceUpdate:
		var s presence.State
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			r.log.Warn("invalid presence", "error", err)
			return
		}
		r.presence.SetOther(msg.ConnectionID, s)

	case TypePresenceState:
		var p PresenceStatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			r.log.Warn("invalid presence state", "error", err)
			return
		}
		delete(p.Presences, r.ConnectionID())
		r.presence.ReplaceOthers(p.Presences)

	case TypePresenceJoin:
		r.presence.SetOther(msg.ConnectionID, presence.State{})

	case TypePresenceLeave:
		r.presence.RemoveOther(msg.ConnectionID)

	case TypeError:
		var p ErrorPayload
		_ = json.Unmarshal(msg.Payload, &p)
		r.log.Warn("hub error", "message", p.Message)
	}
}

func (r *Remote) settle() {
	r.mu.Lock()
	if r.inflight > 0 {
		r.inflight--
	}
	r.mu.Unlock()
}

func (r *Remote) setSeq(seq int64) {
	r.mu.Lock()
	if seq > r.serverSeq {
		r.serverSeq = seq
	}
	r.mu.Unlock()
}
