package loopback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Transport is one process's endpoint on a Hub.
type Transport struct {
	hub *Hub
	box *mailbox

	mu     sync.Mutex
	id     domain.PeerID
	onConn func(core.PeerConn)
	conns  map[*conn]struct{}
	muted  bool
	closed bool
}

var _ core.Transport = (*Transport)(nil)

// Init claims requested on the hub, or a fresh uuid when it is empty. A
// previously held identity is released.
func (t *Transport) Init(ctx context.Context, requested domain.PeerID) (domain.PeerID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if requested == "" {
		requested = domain.NewAnonymousPeerID()
	}
	if err := requested.Validate(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", core.ErrConnClosed
	}
	if err := t.hub.claim(requested, t); err != nil {
		return "", err
	}
	if t.id != "" && t.id != requested {
		t.hub.release(t.id, t)
	}
	t.id = requested
	return requested, nil
}

func (t *Transport) ID() domain.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *Transport) OnConnection(fn func(core.PeerConn)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConn = fn
}

// Open pairs a local handle with a remote one on target. The remote side
// is announced and opened before the local side opens.
func (t *Transport) Open(target domain.PeerID) (core.PeerConn, error) {
	t.mu.Lock()
	self, closed := t.id, t.closed
	t.mu.Unlock()
	if closed {
		return nil, core.ErrConnClosed
	}
	if self == "" {
		return nil, core.ErrNotInitialized
	}
	remote, ok := t.hub.lookup(target)
	if !ok || remote == t {
		return nil, fmt.Errorf("open %s: %w", target, core.ErrPeerUnavailable)
	}

	local := &conn{owner: t, peer: target}
	peer := &conn{owner: remote, peer: self}
	local.remote, peer.remote = peer, local
	if !remote.attach(peer) {
		return nil, fmt.Errorf("open %s: %w", target, core.ErrPeerUnavailable)
	}
	if !t.attach(local) {
		peer.shutdown(false)
		return nil, core.ErrConnClosed
	}

	remote.box.post(func() {
		remote.mu.Lock()
		fn := remote.onConn
		remote.mu.Unlock()
		if fn == nil {
			_ = peer.Close()
			return
		}
		fn(peer)
		peer.FireOpen()
	})
	t.box.post(local.FireOpen)
	log.Debug().Str("module", "loopback").Str("from", string(self)).Str("to", string(target)).Msg("open")
	return local, nil
}

func (t *Transport) attach(c *conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[c] = struct{}{}
	return true
}

func (t *Transport) detach(c *conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, c)
}

func (t *Transport) isMuted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// SetMute makes every outbound send vanish silently, like a hung peer.
func (t *Transport) SetMute(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.muted = muted
}

// Crash drops the identity and every connection without running any local
// close handler. Remote ends see their connections close.
func (t *Transport) Crash() {
	for _, c := range t.shutdown() {
		c.drop()
		c.remote.shutdown(true)
	}
	t.box.stop()
	log.Info().Str("module", "loopback").Msg("crashed")
}

// Close releases the identity and closes every connection gracefully.
func (t *Transport) Close() error {
	for _, c := range t.shutdown() {
		_ = c.Close()
	}
	t.box.stop()
	return nil
}

func (t *Transport) shutdown() []*conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.id != "" {
		t.hub.release(t.id, t)
	}
	out := make([]*conn, 0, len(t.conns))
	for c := range t.conns {
		out = append(out, c)
	}
	return out
}

// conn is one end of a loopback pair. Its events run on the owner's mailbox.
type conn struct {
	core.ConnEvents
	owner  *Transport
	remote *conn
	peer   domain.PeerID
	done   atomic.Bool
}

var _ core.PeerConn = (*conn)(nil)

func (c *conn) PeerID() domain.PeerID { return c.peer }

func (c *conn) Send(data []byte) error {
	if c.done.Load() {
		return core.ErrConnClosed
	}
	if c.owner.isMuted() {
		return nil
	}
	msg := append([]byte(nil), data...)
	r := c.remote
	r.owner.box.post(func() { r.FireData(msg) })
	return nil
}

// Close ends both sides; each side's close event runs on its own mailbox.
func (c *conn) Close() error {
	if !c.shutdown(true) {
		return nil
	}
	c.remote.shutdown(true)
	return nil
}

// shutdown marks c done and queues its close event. Reports false if c was
// already done.
func (c *conn) shutdown(notify bool) bool {
	if c.done.Swap(true) {
		return false
	}
	c.owner.detach(c)
	if notify {
		c.owner.box.post(func() { c.FireClose() })
	}
	return true
}

// drop ends c without any event.
func (c *conn) drop() {
	c.shutdown(false)
}
