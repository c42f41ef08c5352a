package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

type identityEntry struct {
	ID     domain.PeerID
	Client string
	Conn   core.SignalConnection
}

// Registry maps claimed identities to signaling connections. One identity
// per connection, one connection per identity.
type Registry struct {
	mu     sync.RWMutex
	byID   map[domain.PeerID]*identityEntry
	byConn map[core.SignalConnection]*identityEntry
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[domain.PeerID]*identityEntry),
		byConn: make(map[core.SignalConnection]*identityEntry),
	}
}

// Claim binds id to conn. A connection re-registering drops its old identity.
func (r *Registry) Claim(id domain.PeerID, client string, conn core.SignalConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[id]; ok && e.Conn != conn {
		return fmt.Errorf("claim %s: %w", id, core.ErrIdentityTaken)
	}
	if old, ok := r.byConn[conn]; ok {
		delete(r.byID, old.ID)
	}
	e := &identityEntry{ID: id, Client: client, Conn: conn}
	r.byID[id] = e
	r.byConn[conn] = e
	log.Info().Str("module", "app.registry").Str("id", string(id)).Str("client", client).Msg("claimed identity")
	return nil
}

// Release frees the identity held by conn.
func (r *Registry) Release(conn core.SignalConnection) (domain.PeerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	delete(r.byID, e.ID)
	log.Info().Str("module", "app.registry").Str("id", string(e.ID)).Msg("released identity")
	return e.ID, true
}

func (r *Registry) Lookup(id domain.PeerID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

func (r *Registry) IdentityOf(conn core.SignalConnection) (domain.PeerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	return e.ID, true
}

// Online reports whether id is currently claimed.
func (r *Registry) Online(id domain.PeerID) bool {
	_, ok := r.Lookup(id)
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
