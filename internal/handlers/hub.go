// internal/handlers/hub.go
package handlers

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlayerConnection is the outbound side of one live WebSocket.
type PlayerConnection struct {
	PlayerID uuid.UUID
	OutChan  chan []byte
}

// Hub maps connected players to their outbound queues. Sends never block: a
// full queue drops the message.
type Hub struct {
	mu        sync.RWMutex
	conns     map[uuid.UUID]*PlayerConnection
	queueSize int
	logger    *logrus.Logger
}

// NewHub initializes an empty Hub.
func NewHub(queueSize int, logger *logrus.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Hub{
		conns:     make(map[uuid.UUID]*PlayerConnection),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Register opens an outbound queue for the player.
func (h *Hub) Register(playerID uuid.UUID) *PlayerConnection {
	conn := &PlayerConnection{PlayerID: playerID, OutChan: make(chan []byte, h.queueSize)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[playerID]; ok {
		close(old.OutChan)
	}
	h.conns[playerID] = conn
	return conn
}

// Unregister closes the player's queue, which stops its write pump.
func (h *Hub) Unregister(playerID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conn, ok := h.conns[playerID]; ok {
		close(conn.OutChan)
		delete(h.conns, playerID)
	}
}

// Len is the number of connected players.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send marshals msg and queues it for the player.
func (h *Hub) Send(playerID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Errorf("Failed to marshal outbound message for player %s: %v", playerID, err)
		return
	}

	// The read lock keeps Unregister from closing the channel mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[playerID]
	if !ok {
		return
	}
	select {
	case conn.OutChan <- data:
	default:
		h.logger.Warnf("Outbound queue full for player %s, dropping message", playerID)
	}
}
