package collab

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/dedbin/rimo/internal/presence"
)

type PresenceManager struct {
	mu        sync.RWMutex
	presences map[int]presence.State // connectionID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[int]presence.State),
	}
}

func (pm *PresenceManager) Update(connectionID int, s presence.State) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[connectionID] = s
}

func (pm *PresenceManager) Remove(connectionID int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, connectionID)
}

func (pm *PresenceManager) GetAll() map[int]presence.State {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.presences)
}

func (pm *PresenceManager) StateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}
