package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Lobby/internal/adapters/loopback"
	"github.com/dkeye/Lobby/internal/session"
)

const eventually = 2 * time.Second

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type node struct {
	c   *Console
	s   *session.Session
	out *syncBuffer
}

func newNode(t *testing.T, hub *loopback.Hub) *node {
	t.Helper()
	logger := zerolog.Nop()
	cfg := session.DefaultConfig()
	cfg.HeartbeatInterval = 20 * time.Millisecond
	cfg.StaleTimeout = 80 * time.Millisecond
	cfg.DeleteGrace = 20 * time.Millisecond
	cfg.Logger = &logger
	s := session.New(hub.NewTransport(), cfg)
	out := &syncBuffer{}
	c := New(s, out, eventually)
	t.Cleanup(func() {
		c.Close()
		_ = s.Close()
	})
	return &node{c: c, s: s, out: out}
}

func (n *node) exec(t *testing.T, line string) {
	t.Helper()
	quit, err := n.c.Execute(context.Background(), line)
	require.NoError(t, err, line)
	assert.False(t, quit)
}

func (n *node) printed(line string) func() bool {
	return func() bool { return strings.Contains(n.out.String(), line) }
}

func TestHostJoinAndShareState(t *testing.T) {
	hub := loopback.NewHub()
	h := newNode(t, hub)
	j := newNode(t, hub)

	h.exec(t, "host ab12cd")
	assert.Contains(t, h.out.String(), "room AB12CD")
	assert.Contains(t, h.out.String(), "status hosting role=host self=AB12CD room=AB12CD")

	j.exec(t, "join https://lobby.example.com/?room=AB12CD")
	require.Eventually(t, j.printed("status connected role=joiner"), eventually, 5*time.Millisecond)
	require.Eventually(t, h.printed("count 2 max 2"), eventually, 5*time.Millisecond)
	require.Eventually(t, j.printed("count 2 max 2"), eventually, 5*time.Millisecond)

	h.exec(t, `state {"round":1}`)
	require.Eventually(t, j.printed(`state {"round":1}`), eventually, 5*time.Millisecond)

	j.exec(t, `signal buzz {"team":"red"}`)
	require.Eventually(t, h.printed(`signal buzz {"team":"red"} from `), eventually, 5*time.Millisecond)

	h.exec(t, "peers")
	assert.Contains(t, h.out.String(), "peers 1 ")
}

func TestDeleteAndAcknowledge(t *testing.T) {
	hub := loopback.NewHub()
	h := newNode(t, hub)
	j := newNode(t, hub)
	h.exec(t, "host AB12CD")
	j.exec(t, "join AB12CD")

	h.exec(t, "delete")
	require.Eventually(t, j.printed("room deleted"), eventually, 5*time.Millisecond)
	require.Eventually(t, j.printed("status room_deleted"), eventually, 5*time.Millisecond)

	j.exec(t, "ack")
	assert.Equal(t, session.StateIdle, j.s.Status().State)
	assert.Equal(t, session.StateIdle, h.s.Status().State)
}

func TestCommandErrors(t *testing.T) {
	hub := loopback.NewHub()
	n := newNode(t, hub)
	ctx := context.Background()

	_, err := n.c.Execute(ctx, "dance")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	_, err = n.c.Execute(ctx, "state {nope")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = n.c.Execute(ctx, "signal")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = n.c.Execute(ctx, "join")
	assert.ErrorIs(t, err, ErrUsage)
	_, err = n.c.Execute(ctx, "delete")
	assert.ErrorIs(t, err, session.ErrNotHost)
	_, err = n.c.Execute(ctx, "join ZZ99ZZ")
	assert.ErrorIs(t, err, session.ErrConnect)

	quit, err := n.c.Execute(ctx, "quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestRunStopsOnQuit(t *testing.T) {
	hub := loopback.NewHub()
	n := newNode(t, hub)
	in := strings.NewReader("host\nbogus\nstatus\nquit\nstatus\n")

	require.NoError(t, n.c.Run(context.Background(), in))

	out := n.out.String()
	assert.Contains(t, out, "room ")
	assert.Contains(t, out, "error: unknown command")
	// one line from the status observer, one from the status command
	assert.Equal(t, 2, strings.Count(out, "status hosting role=host self="))
}

func TestRunStopsOnEOF(t *testing.T) {
	hub := loopback.NewHub()
	n := newNode(t, hub)

	require.NoError(t, n.c.Run(context.Background(), strings.NewReader("count\n")))
	assert.Contains(t, n.out.String(), "count 1 max 1")
}
