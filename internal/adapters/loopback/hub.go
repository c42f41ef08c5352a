// Package loopback is an in-process Transport Adapter. Every transport on a
// Hub can reach every other one by identity, with asynchronous ordered
// delivery and hooks to simulate hung and crashed peers.
package loopback

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Hub is the shared address space of loopback transports.
type Hub struct {
	mu        sync.RWMutex
	endpoints map[domain.PeerID]*Transport
}

func NewHub() *Hub {
	return &Hub{endpoints: make(map[domain.PeerID]*Transport)}
}

// NewTransport creates an uninitialised transport attached to the hub.
func (h *Hub) NewTransport() *Transport {
	return &Transport{
		hub:   h,
		box:   newMailbox(),
		conns: make(map[*conn]struct{}),
	}
}

func (h *Hub) claim(id domain.PeerID, t *Transport) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if owner, ok := h.endpoints[id]; ok && owner != t {
		return fmt.Errorf("claim %s: %w", id, core.ErrIdentityTaken)
	}
	h.endpoints[id] = t
	log.Debug().Str("module", "loopback").Str("id", string(id)).Msg("claimed")
	return nil
}

func (h *Hub) release(id domain.PeerID, t *Transport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.endpoints[id] == t {
		delete(h.endpoints, id)
		log.Debug().Str("module", "loopback").Str("id", string(id)).Msg("released")
	}
}

func (h *Hub) lookup(id domain.PeerID) (*Transport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.endpoints[id]
	return t, ok
}

// Online reports whether some transport currently holds id.
func (h *Hub) Online(id domain.PeerID) bool {
	_, ok := h.lookup(id)
	return ok
}
