package collab

import (
	"encoding/json"

	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/store"
)

type Message struct {
	Type         string          `json:"type"`
	BoardID      string          `json:"boardId,omitempty"`
	ConnectionID int             `json:"connectionId,omitempty"`
	Seq          int64           `json:"seq,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Board sync. Clients send an empty doc.sync to ask for a fresh snapshot.
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// WelcomePayload is the first message on every connection.
type WelcomePayload struct {
	ConnectionID int            `json:"connectionId"`
	Snapshot     store.Snapshot `json:"snapshot"`
	ServerSeq    int64          `json:"serverSeq"`
}

type DocSyncPayload struct {
	Snapshot  store.Snapshot `json:"snapshot"`
	ServerSeq int64          `json:"serverSeq"`
}

type PresenceStatePayload struct {
	Presences map[int]presence.State `json:"presences"`
}

type PresenceLeavePayload struct {
	ConnectionID int `json:"connectionId"`
}

// OpSubmitPayload carries one committed local step.
type OpSubmitPayload struct {
	BatchID string     `json:"batchId"`
	Ops     []store.Op `json:"ops"`
}

type OpAckPayload struct {
	BatchID   string `json:"batchId"`
	ServerSeq int64  `json:"serverSeq"`
	Applied   int    `json:"applied"`
}

type OpNackPayload struct {
	BatchID string `json:"batchId"`
	Reason  string `json:"reason"`
}

type OpBroadcastPayload struct {
	Ops       []store.Op `json:"ops"`
	ServerSeq int64      `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}
