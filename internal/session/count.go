package session

// recountLocked recomputes the authoritative count and pushes it to every
// joiner. Host only; a joiner's registry holds just the host connection.
func (s *Session) recountLocked() {
	if s.machine.State() != StateHosting {
		return
	}
	n := s.registry.Count() + 1
	s.setCountLocked(n)
	s.broadcastLocked(ConnectionCount(n), "")
}

// setCountLocked stores a count; joiners call it with the host's value verbatim.
func (s *Session) setCountLocked(n int) {
	if n == s.count && n <= s.maxCount {
		return
	}
	s.count = n
	if n > s.maxCount {
		s.maxCount = n
	}
	c := Count{Current: s.count, Max: s.maxCount}
	s.after(func() { s.counts.Notify(c) })
}

func (s *Session) resetCountLocked() {
	changed := s.count != 1 || s.maxCount != 1
	s.count = 1
	s.maxCount = 1
	if changed {
		s.after(func() { s.counts.Notify(Count{Current: 1, Max: 1}) })
	}
}

// onRegistryRemove runs under the session lock: every registry removal
// happens inside a locked section.
func (s *Session) onRegistryRemove(rec Record) {
	s.log.Info().Str("peer", string(rec.Peer)).Msg("peer removed")
	s.recountLocked()
}
