package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

var (
	ErrInit          = errors.New("session init failed")
	ErrConnect       = errors.New("connect to room failed")
	ErrNotHost       = errors.New("not hosting a room")
	ErrSessionActive = errors.New("session already active")
	ErrClosed        = errors.New("session closed")
)

const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultStaleTimeout      = 15 * time.Second
	DefaultDeleteGrace       = 100 * time.Millisecond
	DefaultCreateAttempts    = 3
)

type Config struct {
	HeartbeatInterval time.Duration
	// StaleTimeout is how long a host keeps a silent connection.
	StaleTimeout time.Duration
	// SweepInterval defaults to HeartbeatInterval.
	SweepInterval time.Duration
	// DeleteGrace lets RoomDeleted flush before connections close.
	DeleteGrace    time.Duration
	RoomCodeLength int
	// CreateAttempts bounds retries with fresh codes when a generated code is taken.
	CreateAttempts int

	Clock  clockwork.Clock
	Logger *zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: DefaultHeartbeatInterval,
		StaleTimeout:      DefaultStaleTimeout,
		SweepInterval:     DefaultHeartbeatInterval,
		DeleteGrace:       DefaultDeleteGrace,
		RoomCodeLength:    domain.DefaultRoomCodeLen,
		CreateAttempts:    DefaultCreateAttempts,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.StaleTimeout <= 0 {
		c.StaleTimeout = def.StaleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = c.HeartbeatInterval
	}
	if c.DeleteGrace <= 0 {
		c.DeleteGrace = def.DeleteGrace
	}
	if c.RoomCodeLength <= 0 {
		c.RoomCodeLength = def.RoomCodeLength
	}
	if c.CreateAttempts <= 0 {
		c.CreateAttempts = def.CreateAttempts
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = &log.Logger
	}
}

// Count is the participant count as this process knows it.
type Count struct {
	Current int
	// Max is the highest count seen since the session started.
	Max int
}

// Session is the peer session and state-synchronization context of one
// process. It is created once by the application controller and torn down
// with Close.
//
// Every mutation runs under mu. Observer callbacks and connection closes are
// queued while the lock is held and run after it is released, so observers
// may call back into the session.
type Session struct {
	cfg       Config
	transport core.Transport
	clock     clockwork.Clock
	log       zerolog.Logger

	mu       sync.Mutex
	machine  roleMachine
	registry *Registry
	host     core.PeerConn
	snapshot domain.Snapshot
	count    int
	maxCount int
	// epoch changes on every teardown; callbacks from older connections are ignored.
	epoch uint64
	// creating is set while CreateRoom waits on the transport outside mu.
	creating bool
	stop     context.CancelFunc
	closed   bool
	fx       []func()

	messages  *observers[Message]
	snapshots *observers[domain.Snapshot]
	counts    *observers[Count]
	statuses  *observers[Status]
}

func New(transport core.Transport, cfg Config) *Session {
	cfg.applyDefaults()
	logger := cfg.Logger.With().Str("module", "session").Logger()
	s := &Session{
		cfg:       cfg,
		transport: transport,
		clock:     cfg.Clock,
		log:       logger,
		registry:  NewRegistry(cfg.Clock, logger),
		count:     1,
		maxCount:  1,
		messages:  newObservers[Message](),
		snapshots: newObservers[domain.Snapshot](),
		counts:    newObservers[Count](),
		statuses:  newObservers[Status](),
	}
	s.registry.OnRemove(s.onRegistryRemove)
	transport.OnConnection(s.handleInbound)
	return s
}

func (s *Session) lock() { s.mu.Lock() }

// unlock releases mu and then runs the queued effects in order.
func (s *Session) unlock() {
	fx := s.fx
	s.fx = nil
	s.mu.Unlock()
	for _, f := range fx {
		f()
	}
}

func (s *Session) after(f func()) { s.fx = append(s.fx, f) }

// SubscribeMessages registers an application message observer. Heartbeat and
// ConnectionCount never reach it.
func (s *Session) SubscribeMessages(fn func(Message)) func() { return s.messages.Subscribe(fn) }

// SubscribeSnapshots is notified with every snapshot received from a peer.
func (s *Session) SubscribeSnapshots(fn func(domain.Snapshot)) func() {
	return s.snapshots.Subscribe(fn)
}

func (s *Session) SubscribeCount(fn func(Count)) func() { return s.counts.Subscribe(fn) }

func (s *Session) SubscribeStatus(fn func(Status)) func() { return s.statuses.Subscribe(fn) }

func (s *Session) Status() Status {
	s.lock()
	defer s.unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		State: s.machine.State(),
		Role:  s.machine.Role(),
		Room:  s.machine.Room(),
		Self:  s.transport.ID(),
	}
}

func (s *Session) Count() Count {
	s.lock()
	defer s.unlock()
	return Count{Current: s.count, Max: s.maxCount}
}

// Snapshot returns a copy of the current application snapshot.
func (s *Session) Snapshot() domain.Snapshot {
	s.lock()
	defer s.unlock()
	return slices.Clone(s.snapshot)
}

// Peers lists the remote identities in the registry.
func (s *Session) Peers() []domain.PeerID {
	recs := s.registry.All()
	out := make([]domain.PeerID, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Peer)
	}
	slices.Sort(out)
	return out
}

func (s *Session) emitStatusLocked() {
	st := s.statusLocked()
	s.log.Info().Str("state", st.State.String()).Str("role", st.Role.String()).Str("room", string(st.Room)).Msg("status")
	s.after(func() { s.statuses.Notify(st) })
}

func (s *Session) emitMessageLocked(m Message) {
	if m.Internal() {
		return
	}
	s.after(func() { s.messages.Notify(m) })
}

// applySnapshotLocked replaces the application state wholesale.
func (s *Session) applySnapshotLocked(snap domain.Snapshot) {
	s.snapshot = slices.Clone(snap)
	cp := slices.Clone(snap)
	s.after(func() { s.snapshots.Notify(cp) })
}

// teardownLocked stops timers, closes and clears every connection, drops the
// snapshot and resets the counts. The role machine is left to the caller.
func (s *Session) teardownLocked() {
	s.stopTimersLocked()
	conns := make([]core.PeerConn, 0, s.registry.Count()+1)
	for _, rec := range s.registry.Clear() {
		conns = append(conns, rec.Conn)
	}
	if s.host != nil && !slices.Contains(conns, s.host) {
		conns = append(conns, s.host)
	}
	s.host = nil
	for _, conn := range conns {
		conn := conn
		s.after(func() { _ = conn.Close() })
	}
	s.snapshot = nil
	s.epoch++
	s.resetCountLocked()
}
