package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

type wireEvent struct {
	peer domain.PeerID
	op   string
	kind Kind
	at   time.Time
}

// wireLog orders sends and closes across every fake connection.
type wireLog struct {
	mu     sync.Mutex
	events []wireEvent
}

func (l *wireLog) add(ev wireEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.at = time.Now()
	l.events = append(l.events, ev)
}

func (l *wireLog) find(peer domain.PeerID, op string, kind Kind) (wireEvent, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, ev := range l.events {
		if ev.peer == peer && ev.op == op && ev.kind == kind {
			return ev, i, true
		}
	}
	return wireEvent{}, -1, false
}

type fakeConn struct {
	core.ConnEvents
	peer domain.PeerID
	log  *wireLog

	mu      sync.Mutex
	sent    []Message
	closes  int
	sendErr error
}

func newFakeConn(peer domain.PeerID, log *wireLog) *fakeConn {
	return &fakeConn{peer: peer, log: log}
}

func (c *fakeConn) PeerID() domain.PeerID { return c.peer }

func (c *fakeConn) Send(data []byte) error {
	m, err := Decode(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, m)
	c.log.add(wireEvent{peer: c.peer, op: "send", kind: m.Kind})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.log.add(wireEvent{peer: c.peer, op: "close"})
	c.FireClose()
	return nil
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// Sent returns the messages of the given kinds, or all of them.
func (c *fakeConn) Sent(kinds ...Kind) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, m := range c.sent {
		if len(kinds) == 0 {
			out = append(out, m)
			continue
		}
		for _, k := range kinds {
			if m.Kind == k {
				out = append(out, m)
			}
		}
	}
	return out
}

func (c *fakeConn) deliver(t *testing.T, m Message) {
	t.Helper()
	data, err := Encode(m)
	require.NoError(t, err)
	c.FireData(data)
}

type fakeTransport struct {
	log *wireLog

	mu       sync.Mutex
	id       domain.PeerID
	anon     int
	inits    []domain.PeerID
	taken    int
	initErr  error
	openErr  error
	autoOpen bool
	// initGate, when set, holds Init until it is closed.
	initGate chan struct{}
	onConn   func(core.PeerConn)
	outbound []*fakeConn
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{log: &wireLog{}, autoOpen: true}
}

func (t *fakeTransport) Init(ctx context.Context, requested domain.PeerID) (domain.PeerID, error) {
	t.mu.Lock()
	t.inits = append(t.inits, requested)
	gate := t.initGate
	t.mu.Unlock()
	if gate != nil {
		<-gate
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.initErr != nil {
		return "", t.initErr
	}
	if t.taken > 0 {
		t.taken--
		return "", fmt.Errorf("claim %s: %w", requested, core.ErrIdentityTaken)
	}
	if requested == "" {
		t.anon++
		requested = domain.PeerID(fmt.Sprintf("anon-%d", t.anon))
	}
	t.id = requested
	return requested, nil
}

func (t *fakeTransport) ID() domain.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *fakeTransport) Open(target domain.PeerID) (core.PeerConn, error) {
	t.mu.Lock()
	if t.openErr != nil {
		t.mu.Unlock()
		return nil, t.openErr
	}
	conn := newFakeConn(target, t.log)
	t.outbound = append(t.outbound, conn)
	auto := t.autoOpen
	t.mu.Unlock()
	if auto {
		conn.FireOpen()
	}
	return conn, nil
}

func (t *fakeTransport) OnConnection(fn func(core.PeerConn)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConn = fn
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) Inits() []domain.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.PeerID(nil), t.inits...)
}

func (t *fakeTransport) lastOutbound() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.outbound) == 0 {
		return nil
	}
	return t.outbound[len(t.outbound)-1]
}

// accept simulates an inbound connection from peer; open fires it.
func (t *fakeTransport) accept(peer domain.PeerID, open bool) *fakeConn {
	conn := newFakeConn(peer, t.log)
	t.mu.Lock()
	fn := t.onConn
	t.mu.Unlock()
	fn(conn)
	if open {
		conn.FireOpen()
	}
	return conn
}

var errBoom = errors.New("boom")

func testConfig(clock clockwork.Clock) Config {
	logger := zerolog.Nop()
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.Logger = &logger
	return cfg
}

func newHost(t *testing.T, clock clockwork.Clock) (*Session, *fakeTransport) {
	t.Helper()
	tr := newFakeTransport()
	s := New(tr, testConfig(clock))
	t.Cleanup(func() { _ = s.Close() })
	room, err := s.CreateRoom(context.Background(), "AB12CD")
	require.NoError(t, err)
	require.Equal(t, domain.RoomCode("AB12CD"), room)
	return s, tr
}

func newJoiner(t *testing.T, clock clockwork.Clock) (*Session, *fakeTransport, *fakeConn) {
	t.Helper()
	tr := newFakeTransport()
	s := New(tr, testConfig(clock))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.JoinRoom(context.Background(), "AB12CD"))
	host := tr.lastOutbound()
	require.NotNil(t, host)
	return s, tr, host
}
