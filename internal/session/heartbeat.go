package session

import (
	"context"
	"time"
)

// startTimersLocked starts the heartbeat sender and, for a host, the stale
// sweep. Both stop when the session is torn down.
func (s *Session) startTimersLocked() {
	s.stopTimersLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.every(ctx, s.cfg.HeartbeatInterval, s.beat)
	if s.machine.State() == StateHosting {
		go s.every(ctx, s.cfg.SweepInterval, s.sweep)
	}
}

func (s *Session) stopTimersLocked() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *Session) every(ctx context.Context, d time.Duration, fn func(context.Context)) {
	ticker := s.clock.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			fn(ctx)
		}
	}
}

// beat sends Heartbeat(self) on every connection.
func (s *Session) beat(ctx context.Context) {
	s.lock()
	defer s.unlock()
	if ctx.Err() != nil {
		return
	}
	s.broadcastLocked(Heartbeat(s.transport.ID()), "")
}

// sweep evicts connections silent for longer than the stale timeout. Host only.
func (s *Session) sweep(ctx context.Context) {
	s.lock()
	defer s.unlock()
	if ctx.Err() != nil || s.machine.State() != StateHosting {
		return
	}
	for _, rec := range s.registry.Stale(s.cfg.StaleTimeout) {
		s.log.Info().
			Str("peer", string(rec.Peer)).
			Dur("silent", s.clock.Since(rec.LastSeen)).
			Msg("evicting stale connection")
		if s.registry.RemoveConn(rec.Peer, rec.Conn) {
			conn := rec.Conn
			s.after(func() { _ = conn.Close() })
		}
	}
}
