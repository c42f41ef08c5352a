package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

var errJoinAborted = errors.New("join aborted")

// CreateRoom initialises this process as the host of a new room. An empty
// code asks for a generated one; generated codes that turn out to be taken
// are retried with fresh ones. On failure the session stays Idle.
func (s *Session) CreateRoom(ctx context.Context, code domain.RoomCode) (domain.RoomCode, error) {
	s.lock()
	if s.closed {
		s.unlock()
		return "", ErrClosed
	}
	if s.machine.State() != StateIdle || s.creating {
		s.unlock()
		return "", ErrSessionActive
	}
	s.creating = true
	s.unlock()

	pinned := code != ""
	attempts := 1
	if !pinned {
		attempts = s.cfg.CreateAttempts
	}

	var (
		id  domain.PeerID
		err error
	)
	for i := 0; i < attempts; i++ {
		if !pinned {
			code = domain.NewRoomCode(s.cfg.RoomCodeLength)
		}
		id, err = s.transport.Init(ctx, code.PeerID())
		if err == nil || !errors.Is(err, core.ErrIdentityTaken) || ctx.Err() != nil {
			break
		}
		s.log.Warn().Str("room", string(code)).Msg("room code taken")
	}

	s.lock()
	defer s.unlock()
	s.creating = false
	if err != nil {
		s.log.Error().Err(err).Str("room", string(code)).Msg("create room")
		return "", fmt.Errorf("%w: %w", ErrInit, err)
	}
	if s.closed {
		return "", ErrClosed
	}
	room := domain.RoomCode(id)
	if err := s.machine.Host(room); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionActive, err)
	}
	s.setCountLocked(1)
	s.startTimersLocked()
	s.emitStatusLocked()
	return room, nil
}

// JoinRoom connects to the host behind code and pulls its current snapshot.
// It blocks until the connection opens, fails or ctx ends. Joining while
// hosting tears the hosted room down first. On failure the session is Idle.
func (s *Session) JoinRoom(ctx context.Context, code domain.RoomCode) error {
	s.lock()
	if s.closed {
		s.unlock()
		return ErrClosed
	}
	if s.creating {
		s.unlock()
		return ErrSessionActive
	}
	wasHosting := false
	switch s.machine.State() {
	case StateIdle:
	case StateHosting:
		s.log.Info().Str("room", string(s.machine.Room())).Msg("leaving hosted room to join")
		s.teardownLocked()
		wasHosting = true
	default:
		s.unlock()
		return ErrSessionActive
	}
	if err := s.machine.Connect(code); err != nil {
		s.unlock()
		return err
	}
	epoch := s.epoch
	s.emitStatusLocked()
	s.unlock()

	// A former host drops the room identity and joins anonymously.
	if wasHosting || s.transport.ID() == "" {
		if _, err := s.transport.Init(ctx, ""); err != nil {
			s.abortJoin(epoch)
			return fmt.Errorf("%w: %w", ErrInit, err)
		}
	}

	conn, err := s.transport.Open(code.PeerID())
	if err != nil {
		s.abortJoin(epoch)
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	s.lock()
	if s.epoch != epoch {
		s.unlock()
		_ = conn.Close()
		return fmt.Errorf("%w: %w", ErrConnect, errJoinAborted)
	}
	// Held while Connecting so a Disconnect can cancel the pending join.
	s.host = conn
	s.unlock()

	result := make(chan error, 1)
	report := func(err error) {
		select {
		case result <- err:
		default:
		}
	}
	conn.OnData(func(data []byte) { s.handleData(epoch, conn, data) })
	conn.OnError(func(err error) {
		report(err)
		s.onHostGone(epoch, conn, err)
	})
	conn.OnClose(func() {
		report(core.ErrConnClosed)
		s.onHostGone(epoch, conn, nil)
	})
	conn.OnOpen(func() { report(s.onHostOpen(epoch, code, conn)) })

	select {
	case err = <-result:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	if s.joinedVia(epoch, conn) {
		return nil
	}
	s.abortJoin(epoch)
	_ = conn.Close()
	s.log.Error().Err(err).Str("room", string(code)).Msg("join room")
	return fmt.Errorf("%w: %w", ErrConnect, err)
}

// onHostOpen is Connecting -> Connected: register the host, pull state.
func (s *Session) onHostOpen(epoch uint64, code domain.RoomCode, conn core.PeerConn) error {
	s.lock()
	defer s.unlock()
	if s.epoch != epoch || s.host != conn || s.machine.State() != StateConnecting {
		return errJoinAborted
	}
	if err := s.machine.Connected(); err != nil {
		return err
	}
	s.registry.Register(code.PeerID(), conn)
	s.sendLocked(conn, RequestState())
	s.startTimersLocked()
	s.emitStatusLocked()
	return nil
}

func (s *Session) joinedVia(epoch uint64, conn core.PeerConn) bool {
	s.lock()
	defer s.unlock()
	return s.epoch == epoch && s.host == conn && s.machine.State() == StateConnected
}

func (s *Session) abortJoin(epoch uint64) {
	s.lock()
	defer s.unlock()
	if s.epoch != epoch || s.machine.State() != StateConnecting {
		return
	}
	s.teardownLocked()
	_ = s.machine.Reset()
	s.emitStatusLocked()
}

// onHostGone handles the joiner's only connection closing. A crash and a
// graceful close look the same, so both end in RoomDeleted.
func (s *Session) onHostGone(epoch uint64, conn core.PeerConn, err error) {
	s.lock()
	defer s.unlock()
	if s.epoch != epoch || s.host != conn || s.machine.State() != StateConnected {
		return
	}
	s.log.Warn().Err(err).Str("room", string(s.machine.Room())).Msg("host connection lost")
	s.roomGoneLocked()
}

func (s *Session) roomGoneLocked() {
	s.teardownLocked()
	if err := s.machine.Deleted(); err != nil {
		s.log.Error().Err(err).Msg("room deleted")
		return
	}
	s.emitStatusLocked()
}

// Disconnect closes every connection, stops the timers and returns to Idle.
// Peers are not notified; the host notices through close events or the
// heartbeat timeout. It is a no-op in RoomDeleted, which needs Acknowledge.
func (s *Session) Disconnect() {
	s.lock()
	defer s.unlock()
	s.disconnectLocked()
}

func (s *Session) disconnectLocked() {
	if s.machine.State() == StateRoomDeleted {
		return
	}
	wasIdle := s.machine.State() == StateIdle
	s.teardownLocked()
	_ = s.machine.Reset()
	if !wasIdle {
		s.emitStatusLocked()
	}
}

// DeleteRoom notifies every joiner, waits the grace period so the notice can
// flush, then disconnects. Host only.
func (s *Session) DeleteRoom(ctx context.Context) error {
	s.lock()
	if s.machine.State() != StateHosting {
		s.unlock()
		return ErrNotHost
	}
	n := s.broadcastLocked(RoomDeleted(), "")
	epoch := s.epoch
	s.log.Info().Str("room", string(s.machine.Room())).Int("notified", n).Msg("deleting room")
	s.unlock()

	var err error
	select {
	case <-s.clock.After(s.cfg.DeleteGrace):
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.lock()
	defer s.unlock()
	if s.epoch == epoch && s.machine.State() == StateHosting {
		s.disconnectLocked()
	}
	return err
}

// Acknowledge dismisses RoomDeleted and returns to Idle.
func (s *Session) Acknowledge() error {
	s.lock()
	defer s.unlock()
	if err := s.machine.Acknowledge(); err != nil {
		return err
	}
	s.emitStatusLocked()
	return nil
}

// Close tears the session down for good and closes the transport.
func (s *Session) Close() error {
	s.lock()
	if s.closed {
		s.unlock()
		return nil
	}
	s.closed = true
	if s.machine.State() == StateRoomDeleted {
		_ = s.machine.Acknowledge()
	}
	s.disconnectLocked()
	s.unlock()
	return s.transport.Close()
}

// handleInbound wires a connection accepted while hosting.
func (s *Session) handleInbound(conn core.PeerConn) {
	s.lock()
	hosting := !s.closed && s.machine.State() == StateHosting
	epoch := s.epoch
	s.unlock()

	if !hosting {
		s.log.Info().Str("peer", string(conn.PeerID())).Msg("rejecting inbound connection: not hosting")
		_ = conn.Close()
		return
	}

	conn.OnData(func(data []byte) { s.handleData(epoch, conn, data) })
	conn.OnError(func(err error) { s.onJoinerGone(epoch, conn, err) })
	conn.OnClose(func() { s.onJoinerGone(epoch, conn, nil) })
	conn.OnOpen(func() { s.onJoinerOpen(epoch, conn) })
}

func (s *Session) onJoinerOpen(epoch uint64, conn core.PeerConn) {
	s.lock()
	defer s.unlock()
	if s.epoch != epoch || s.machine.State() != StateHosting {
		s.after(func() { _ = conn.Close() })
		return
	}
	peer := conn.PeerID()
	if old, ok := s.registry.Get(peer); ok && old.Conn != conn {
		prev := old.Conn
		s.after(func() { _ = prev.Close() })
	}
	s.registry.Register(peer, conn)
	s.log.Info().Str("peer", string(peer)).Msg("joiner connected")
	s.recountLocked()
}

func (s *Session) onJoinerGone(epoch uint64, conn core.PeerConn, err error) {
	s.lock()
	defer s.unlock()
	if s.epoch != epoch {
		return
	}
	if err != nil {
		s.log.Debug().Err(err).Str("peer", string(conn.PeerID())).Msg("joiner connection error")
	}
	s.registry.RemoveConn(conn.PeerID(), conn)
}

// handleData dispatches one inbound message. Heartbeat and ConnectionCount
// are consumed here and never reach observers.
func (s *Session) handleData(epoch uint64, conn core.PeerConn, data []byte) {
	m, err := Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", string(conn.PeerID())).Msg("dropping message")
		return
	}
	from := conn.PeerID()
	if m.From == "" {
		m.From = from
	}

	s.lock()
	defer s.unlock()
	if s.epoch != epoch {
		return
	}
	state := s.machine.State()
	hosting := state == StateHosting
	joined := state == StateConnected && s.host == conn

	switch m.Kind {
	case KindHeartbeat:
		// only the live handle for a peer keeps its record fresh
		if rec, ok := s.registry.Get(from); ok && rec.Conn == conn {
			s.registry.Touch(from)
		}
	case KindConnectionCount:
		if joined {
			s.setCountLocked(m.Count)
		}
	case KindStateSync:
		if !hosting && !joined {
			return
		}
		if hosting {
			s.relayLocked(from, m.Kind, data)
		}
		s.applySnapshotLocked(m.Snapshot)
		s.emitMessageLocked(m)
	case KindRequestState:
		if !hosting {
			return
		}
		if s.snapshot != nil {
			s.sendLocked(conn, StateSync(s.snapshot))
		}
		s.emitMessageLocked(m)
	case KindSignal:
		if !hosting && !joined {
			return
		}
		if hosting {
			s.relayLocked(from, m.Kind, data)
		}
		s.emitMessageLocked(m)
	case KindRoomDeleted:
		if !joined {
			return
		}
		s.log.Info().Str("room", string(s.machine.Room())).Msg("room deleted by host")
		s.emitMessageLocked(m)
		s.roomGoneLocked()
	}
}
