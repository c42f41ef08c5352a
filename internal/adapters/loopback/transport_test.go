package loopback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

const wait = time.Second

type inbox struct {
	mu   sync.Mutex
	data []string
}

func (b *inbox) add(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, string(p))
}

func (b *inbox) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.data...)
}

func initT(t *testing.T, tr *Transport, id domain.PeerID) domain.PeerID {
	t.Helper()
	got, err := tr.Init(context.Background(), id)
	require.NoError(t, err)
	return got
}

// pair opens a connection from a to b and waits for both ends to open.
func pair(t *testing.T, a, b *Transport) (core.PeerConn, core.PeerConn) {
	t.Helper()
	accepted := make(chan core.PeerConn, 1)
	b.OnConnection(func(c core.PeerConn) { accepted <- c })

	local, err := a.Open(b.ID())
	require.NoError(t, err)
	var remote core.PeerConn
	select {
	case remote = <-accepted:
	case <-time.After(wait):
		t.Fatal("no inbound connection")
	}
	opened := make(chan struct{}, 2)
	local.OnOpen(func() { opened <- struct{}{} })
	remote.OnOpen(func() { opened <- struct{}{} })
	for i := 0; i < 2; i++ {
		select {
		case <-opened:
		case <-time.After(wait):
			t.Fatal("connection did not open")
		}
	}
	return local, remote
}

func TestInitAssignsAnonymousID(t *testing.T) {
	hub := NewHub()
	tr := hub.NewTransport()
	defer tr.Close()

	id := initT(t, tr, "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, tr.ID())
	assert.True(t, hub.Online(id))
}

func TestInitRejectsTakenID(t *testing.T) {
	hub := NewHub()
	a, b := hub.NewTransport(), hub.NewTransport()
	defer a.Close()
	defer b.Close()

	initT(t, a, "AB12CD")
	_, err := b.Init(context.Background(), "AB12CD")
	assert.ErrorIs(t, err, core.ErrIdentityTaken)
	assert.Empty(t, b.ID())

	// Re-claiming one's own id is fine.
	initT(t, a, "AB12CD")
}

func TestReinitReleasesOldID(t *testing.T) {
	hub := NewHub()
	tr := hub.NewTransport()
	defer tr.Close()

	initT(t, tr, "AB12CD")
	initT(t, tr, "")
	assert.False(t, hub.Online("AB12CD"))
}

func TestOpenUnknownPeer(t *testing.T) {
	hub := NewHub()
	tr := hub.NewTransport()
	defer tr.Close()

	_, err := tr.Open("NOPE00")
	assert.ErrorIs(t, err, core.ErrNotInitialized)

	initT(t, tr, "")
	_, err = tr.Open("NOPE00")
	assert.ErrorIs(t, err, core.ErrPeerUnavailable)
}

func TestSendIsOrdered(t *testing.T) {
	hub := NewHub()
	a, b := hub.NewTransport(), hub.NewTransport()
	defer a.Close()
	defer b.Close()
	initT(t, a, "")
	initT(t, b, "HOST01")

	local, remote := pair(t, a, b)
	assert.Equal(t, domain.PeerID("HOST01"), local.PeerID())
	assert.Equal(t, a.ID(), remote.PeerID())

	var got inbox
	remote.OnData(got.add)
	want := []string{"1", "2", "3", "4", "5"}
	for _, m := range want {
		require.NoError(t, local.Send([]byte(m)))
	}
	assert.Eventually(t, func() bool { return len(got.all()) == len(want) }, wait, time.Millisecond)
	assert.Equal(t, want, got.all())
}

func TestCloseReachesBothEnds(t *testing.T) {
	hub := NewHub()
	a, b := hub.NewTransport(), hub.NewTransport()
	defer a.Close()
	defer b.Close()
	initT(t, a, "")
	initT(t, b, "HOST01")
	local, remote := pair(t, a, b)

	closed := make(chan struct{}, 2)
	local.OnClose(func() { closed <- struct{}{} })
	remote.OnClose(func() { closed <- struct{}{} })

	require.NoError(t, local.Close())
	require.NoError(t, local.Close())
	for i := 0; i < 2; i++ {
		select {
		case <-closed:
		case <-time.After(wait):
			t.Fatal("close not delivered")
		}
	}
	assert.ErrorIs(t, local.Send([]byte("x")), core.ErrConnClosed)
}

func TestMuteDropsSends(t *testing.T) {
	hub := NewHub()
	a, b := hub.NewTransport(), hub.NewTransport()
	defer a.Close()
	defer b.Close()
	initT(t, a, "")
	initT(t, b, "HOST01")
	local, remote := pair(t, a, b)

	var got inbox
	remote.OnData(got.add)
	a.SetMute(true)
	require.NoError(t, local.Send([]byte("lost")))
	a.SetMute(false)
	require.NoError(t, local.Send([]byte("kept")))

	assert.Eventually(t, func() bool { return len(got.all()) == 1 }, wait, time.Millisecond)
	assert.Equal(t, []string{"kept"}, got.all())
}

func TestCrashClosesRemoteEnds(t *testing.T) {
	hub := NewHub()
	host, j1, j2 := hub.NewTransport(), hub.NewTransport(), hub.NewTransport()
	defer j1.Close()
	defer j2.Close()
	initT(t, host, "HOST01")
	initT(t, j1, "")
	initT(t, j2, "")

	c1, _ := pair(t, j1, host)
	c2, _ := pair(t, j2, host)
	closed := make(chan struct{}, 2)
	c1.OnClose(func() { closed <- struct{}{} })
	c2.OnClose(func() { closed <- struct{}{} })

	host.Crash()

	for i := 0; i < 2; i++ {
		select {
		case <-closed:
		case <-time.After(wait):
			t.Fatal("crash not observed")
		}
	}
	assert.False(t, hub.Online("HOST01"))
	_, err := j1.Open("HOST01")
	assert.ErrorIs(t, err, core.ErrPeerUnavailable)
}

func TestInboundWithoutHandlerIsClosed(t *testing.T) {
	hub := NewHub()
	a, b := hub.NewTransport(), hub.NewTransport()
	defer a.Close()
	defer b.Close()
	initT(t, a, "")
	initT(t, b, "HOST01")

	local, err := a.Open("HOST01")
	require.NoError(t, err)
	closed := make(chan struct{})
	local.OnClose(func() { close(closed) })
	select {
	case <-closed:
	case <-time.After(wait):
		t.Fatal("connection left open")
	}
}
