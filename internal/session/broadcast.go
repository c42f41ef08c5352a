package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

var ErrEmptySignal = errors.New("signal name is empty")

// sendLocked is best effort: failures are swallowed and left to the
// heartbeat timeout.
func (s *Session) sendLocked(conn core.PeerConn, m Message) {
	data, err := Encode(m)
	if err != nil {
		s.log.Error().Err(err).Msg("encode")
		return
	}
	s.sendRawLocked(conn, m.Kind, data)
}

func (s *Session) sendRawLocked(conn core.PeerConn, kind Kind, data []byte) {
	if err := conn.Send(data); err != nil {
		s.log.Debug().Err(err).Str("peer", string(conn.PeerID())).Str("kind", string(kind)).Msg("send dropped")
	}
}

// broadcastLocked sends m to every registered connection except the given peer.
func (s *Session) broadcastLocked(m Message, except domain.PeerID) int {
	data, err := Encode(m)
	if err != nil {
		s.log.Error().Err(err).Msg("encode")
		return 0
	}
	sent := 0
	for _, rec := range s.registry.All() {
		if rec.Peer == except {
			continue
		}
		s.sendRawLocked(rec.Conn, m.Kind, data)
		sent++
	}
	s.log.Debug().Str("kind", string(m.Kind)).Str("except", string(except)).Int("sent_to", sent).Msg("broadcast")
	return sent
}

// UpdateState publishes a local mutation. A host fans it out to every
// joiner, a joiner sends it to the host, which relays it. With no room the
// snapshot is only stored. A snapshot that is not valid JSON is rejected
// and nothing changes.
func (s *Session) UpdateState(snap domain.Snapshot) error {
	if len(snap) > 0 && !json.Valid(snap) {
		return fmt.Errorf("%w: snapshot is not valid JSON", ErrBadMessage)
	}
	s.lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	s.snapshot = slices.Clone(snap)
	m := StateSync(snap)
	m.From = s.transport.ID()
	switch s.machine.State() {
	case StateHosting:
		s.broadcastLocked(m, "")
	case StateConnected:
		if s.host != nil {
			s.sendLocked(s.host, m)
		}
	}
	return nil
}

// SendSignal emits a fire-once application event to the room. It is relayed
// like a snapshot but never stored.
func (s *Session) SendSignal(name string, payload json.RawMessage) error {
	if name == "" {
		return ErrEmptySignal
	}
	s.lock()
	defer s.unlock()
	if s.closed {
		return ErrClosed
	}
	m := Signal(name, payload)
	m.From = s.transport.ID()
	switch s.machine.State() {
	case StateHosting:
		s.broadcastLocked(m, "")
	case StateConnected:
		if s.host != nil {
			s.sendLocked(s.host, m)
		}
	}
	return nil
}

// relayLocked forwards a joiner's broadcast to every other joiner. The
// original bytes are sent so the relay is verbatim.
func (s *Session) relayLocked(from domain.PeerID, kind Kind, data []byte) {
	sent := 0
	for _, rec := range s.registry.All() {
		if rec.Peer == from {
			continue
		}
		s.sendRawLocked(rec.Conn, kind, data)
		sent++
	}
	s.log.Debug().Str("kind", string(kind)).Str("from", string(from)).Int("sent_to", sent).Msg("relay")
}
