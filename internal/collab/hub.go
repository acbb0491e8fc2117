package collab

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/store"
)

// Room is one board: its connected clients, their presence and the
// authoritative layer store.
type Room struct {
	boardID  string
	clients  map[int]*Client // connectionID -> client
	presence *PresenceManager

	mu        sync.Mutex // serializes op application and broadcast order
	doc       *store.Memory
	serverSeq int64
}

func NewRoom(boardID string, seed store.Snapshot) *Room {
	doc := store.NewMemory(0)
	doc.Load(seed)
	return &Room{
		boardID:  boardID,
		clients:  make(map[int]*Client),
		presence: NewPresenceManager(),
		doc:      doc,
	}
}

// Seeder returns the initial content of a board the hub has not seen yet.
type Seeder func(boardID string) store.Snapshot

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // boardID -> room
	nextConn   int
	limits     Limits
	seed       Seeder
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

// Limits bounds what clients may submit. Zero values disable a limit.
type Limits struct {
	MaxLayers     int
	MaxTextLength int
}

// NewHub creates a hub. seed may be nil for empty boards.
func NewHub(seed Seeder, limits Limits) *Hub {
	if seed == nil {
		seed = func(string) store.Snapshot { return store.Snapshot{} }
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		limits:     limits,
		seed:       seed,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

// Stop ends Run. Connected clients are closed by their own pumps.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register assigns the client its connection id and queues it to join.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.nextConn++
	client.ConnectionID = h.nextConn
	h.mu.Unlock()

	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Snapshot returns the current content of a board, if it is open.
func (h *Hub) Snapshot(boardID string) (store.Snapshot, bool) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	h.mu.RUnlock()
	if !ok {
		return store.Snapshot{}, false
	}
	return room.doc.Snapshot(), true
}

func (h *Hub) room(boardID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[boardID]
	return room, ok
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok {
		room = NewRoom(client.BoardID, h.seed(client.BoardID))
		h.rooms[client.BoardID] = room
	}
	room.clients[client.ConnectionID] = client
	h.mu.Unlock()

	room.mu.Lock()
	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		ConnectionID: client.ConnectionID,
		Snapshot:     room.doc.Snapshot(),
		ServerSeq:    room.serverSeq,
	})
	room.mu.Unlock()
	if err != nil {
		slog.Error("marshal welcome", "error", err)
		return
	}
	client.Send(welcome)

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg := &Message{Type: TypePresenceJoin, ConnectionID: client.ConnectionID}
	h.broadcastToRoom(client.BoardID, joinMsg, client.ConnectionID)

	slog.Info("client joined", "session", client.SessionID, "connection", client.ConnectionID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok || room.clients[client.ConnectionID] != client {
		h.mu.Unlock()
		return
	}

	// Rooms outlive their last client so the board survives reconnects.
	delete(room.clients, client.ConnectionID)
	client.closeSend()
	room.presence.Remove(client.ConnectionID)
	h.mu.Unlock()

	leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ConnectionID: client.ConnectionID})
	if err != nil {
		slog.Error("marshal leave", "error", err)
		return
	}
	leaveMsg.ConnectionID = client.ConnectionID
	h.broadcastToRoom(client.BoardID, leaveMsg, 0)

	slog.Info("client left", "session", client.SessionID, "connection", client.ConnectionID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeDocSync:
		h.handleDocSync(sender)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "connection", sender.ConnectionID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var state presence.State
	if err := json.Unmarshal(msg.Payload, &state); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	room, ok := h.room(sender.BoardID)
	if !ok {
		return
	}
	room.presence.Update(sender.ConnectionID, state)

	// Broadcast to other clients in room
	outMsg := &Message{
		Type:         TypePresenceUpdate,
		ConnectionID: sender.ConnectionID,
		Payload:      msg.Payload,
	}
	h.broadcastToRoom(sender.BoardID, outMsg, sender.ConnectionID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OpSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		slog.Warn("invalid op payload", "error", err, "connection", sender.ConnectionID)
		h.nack(sender, "", fmt.Sprintf("invalid payload: %v", err))
		return
	}

	room, ok := h.room(sender.BoardID)
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if err := validateOps(submit.Ops, h.limits.MaxTextLength); err != nil {
		slog.Warn("rejected op batch", "error", err, "connection", sender.ConnectionID)
		h.nack(sender, submit.BatchID, err.Error())
		return
	}
	if err := h.checkCapacity(room.doc, submit.Ops); err != nil {
		h.nack(sender, submit.BatchID, err.Error())
		return
	}

	applied := room.doc.ApplyRemote(submit.Ops)
	room.serverSeq++

	ack, err := newMessage(TypeOpAck, OpAckPayload{BatchID: submit.BatchID, ServerSeq: room.serverSeq, Applied: applied})
	if err == nil {
		sender.Send(ack)
	}

	out, err := newMessage(TypeOpBroadcast, OpBroadcastPayload{Ops: submit.Ops, ServerSeq: room.serverSeq})
	if err != nil {
		slog.Error("marshal op broadcast", "error", err)
		return
	}
	out.ConnectionID = sender.ConnectionID
	out.Seq = room.serverSeq
	h.broadcastToRoom(sender.BoardID, out, sender.ConnectionID)
}

// checkCapacity rejects batches that would grow the board past the limit.
func (h *Hub) checkCapacity(doc *store.Memory, ops []store.Op) error {
	if h.limits.MaxLayers <= 0 {
		return nil
	}
	layers := doc.Layers()
	added := make(map[string]bool)
	for _, op := range ops {
		if op.Kind != store.OpLayerSet {
			continue
		}
		if _, exists := layers.Get(op.ID); !exists {
			added[op.ID] = true
		}
	}
	if n := layers.Len() + len(added); n > h.limits.MaxLayers {
		return fmt.Errorf("board would hold %d layers, limit is %d", n, h.limits.MaxLayers)
	}
	return nil
}

// validateOps applies the layer content rules to every set and update in a
// batch, so one bad op rejects the whole batch.
func validateOps(ops []store.Op, maxTextLength int) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case store.OpLayerSet:
			err = board.Validate(op.Layer, maxTextLength)
		case store.OpLayerUpdate:
			if op.Patch != nil {
				err = board.ValidatePatch(*op.Patch, maxTextLength)
			}
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", op.Kind, op.ID, err)
		}
	}
	return nil
}

func (h *Hub) handleDocSync(sender *Client) {
	room, ok := h.room(sender.BoardID)
	if !ok {
		return
	}
	room.mu.Lock()
	msg, err := newMessage(TypeDocSync, DocSyncPayload{Snapshot: room.doc.Snapshot(), ServerSeq: room.serverSeq})
	room.mu.Unlock()
	if err != nil {
		slog.Error("marshal doc sync", "error", err)
		return
	}
	sender.Send(msg)
}

func (h *Hub) nack(c *Client, batchID, reason string) {
	msg, err := newMessage(TypeOpNack, OpNackPayload{BatchID: batchID, Reason: reason})
	if err != nil {
		return
	}
	c.Send(msg)
}

func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeConnection int) {
	h.mu.RLock()
	room, ok := h.rooms[boardID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for id, c := range room.clients {
		if id != excludeConnection {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
