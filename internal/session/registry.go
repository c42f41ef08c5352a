package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Record is one live peer connection.
type Record struct {
	Peer     domain.PeerID
	Conn     core.PeerConn
	LastSeen time.Time
}

// Registry tracks the open connections of this process keyed by remote peer.
// Absent-key operations are no-ops; connections close mid-operation.
// The removal callback runs after the registry lock is released.
type Registry struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	log      zerolog.Logger
	records  map[domain.PeerID]*Record
	onRemove func(Record)
}

func NewRegistry(clock clockwork.Clock, logger zerolog.Logger) *Registry {
	return &Registry{
		clock:   clock,
		log:     logger.With().Str("module", "session.registry").Logger(),
		records: make(map[domain.PeerID]*Record),
	}
}

// OnRemove sets the removal notification.
func (r *Registry) OnRemove(fn func(Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemove = fn
}

// Register inserts or overwrites the record for peer with LastSeen = now.
func (r *Registry) Register(peer domain.PeerID, conn core.PeerConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[peer] = &Record{Peer: peer, Conn: conn, LastSeen: r.clock.Now()}
	r.log.Debug().Str("peer", string(peer)).Int("size", len(r.records)).Msg("registered")
}

// Touch refreshes LastSeen.
func (r *Registry) Touch(peer domain.PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[peer]; ok {
		rec.LastSeen = r.clock.Now()
	}
}

// Remove deletes the record for peer and reports whether one existed.
func (r *Registry) Remove(peer domain.PeerID) bool {
	r.mu.Lock()
	rec, ok := r.records[peer]
	if ok {
		delete(r.records, peer)
	}
	fn := r.onRemove
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.log.Debug().Str("peer", string(peer)).Msg("removed")
	if fn != nil {
		fn(*rec)
	}
	return true
}

// RemoveConn deletes the record for peer only if it still holds conn, so a
// stale handle closing late cannot evict its replacement.
func (r *Registry) RemoveConn(peer domain.PeerID, conn core.PeerConn) bool {
	r.mu.RLock()
	rec, ok := r.records[peer]
	same := ok && rec.Conn == conn
	r.mu.RUnlock()
	if !same {
		return false
	}
	return r.Remove(peer)
}

func (r *Registry) Get(peer domain.PeerID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[peer]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// All returns a snapshot of the records.
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Stale returns the records silent for longer than timeout.
func (r *Registry) Stale(timeout time.Duration) []Record {
	now := r.clock.Now()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if now.Sub(rec.LastSeen) > timeout {
			out = append(out, *rec)
		}
	}
	return out
}

// Clear drops every record without notifying and returns what was dropped.
func (r *Registry) Clear() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	r.records = make(map[domain.PeerID]*Record)
	return out
}
