package session

import (
	"log/slog"
	"maps"
	"sync"
)

// PresenceManager tracks the last logical pointer position of each client.
type PresenceManager struct {
	mu      sync.RWMutex
	cursors map[string]CursorPos // clientID -> cursor
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		cursors: make(map[string]CursorPos),
	}
}

func (pm *PresenceManager) Update(clientID string, p CursorPos) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.cursors[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.cursors, clientID)
}

func (pm *PresenceManager) GetAll() map[string]CursorPos {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return maps.Clone(pm.cursors)
}

func (pm *PresenceManager) StateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}
