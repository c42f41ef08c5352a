package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/adapters/signal"
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

var ErrSignalClosed = errors.New("signaling connection closed")

// Transport runs peer connections over WebRTC data channels and negotiates
// them through the rendezvous server at SignalURL.
type Transport struct {
	signalURL string
	webrtcCfg webrtc.Configuration

	initMu sync.Mutex

	mu     sync.Mutex
	sig    *signalClient
	id     domain.PeerID
	onConn func(core.PeerConn)
	conns  map[domain.PeerID]*WebRTCConnection
	reg    chan signal.Envelope
	closed bool
}

var _ core.Transport = (*Transport)(nil)

func NewTransport(signalURL string, cfg webrtc.Configuration) *Transport {
	return &Transport{
		signalURL: signalURL,
		webrtcCfg: cfg,
		conns:     make(map[domain.PeerID]*WebRTCConnection),
	}
}

// Init registers requested with the rendezvous server, dialing it first if
// needed. An empty requested id registers a fresh anonymous one.
func (t *Transport) Init(ctx context.Context, requested domain.PeerID) (domain.PeerID, error) {
	if requested == "" {
		requested = domain.NewAnonymousPeerID()
	}
	if err := requested.Validate(); err != nil {
		return "", err
	}

	t.initMu.Lock()
	defer t.initMu.Unlock()

	sig, err := t.signaling(ctx)
	if err != nil {
		return "", err
	}

	reply := make(chan signal.Envelope, 1)
	t.mu.Lock()
	t.reg = reply
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.reg = nil
		t.mu.Unlock()
	}()

	if err := sig.send(signal.Envelope{Type: signal.TypeRegister, ID: requested}); err != nil {
		return "", err
	}

	select {
	case env := <-reply:
		if env.Type == signal.TypeRegistered {
			t.mu.Lock()
			t.id = env.ID
			t.mu.Unlock()
			log.Info().Str("module", "rtc").Str("id", string(env.ID)).Msg("registered")
			return env.ID, nil
		}
		if env.Error == signal.ErrCodeIDTaken {
			return "", fmt.Errorf("register %s: %w", requested, core.ErrIdentityTaken)
		}
		return "", fmt.Errorf("register %s: %s", requested, env.Error)
	case <-sig.Done():
		return "", ErrSignalClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *Transport) signaling(ctx context.Context) (*signalClient, error) {
	t.mu.Lock()
	sig, closed := t.sig, t.closed
	t.mu.Unlock()
	if closed {
		return nil, core.ErrConnClosed
	}
	if sig != nil {
		select {
		case <-sig.Done():
		default:
			return sig, nil
		}
	}

	sig, err := dialSignal(ctx, t.signalURL, t.handleSignal)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.signalURL, err)
	}
	t.mu.Lock()
	t.sig = sig
	t.id = ""
	t.mu.Unlock()
	return sig, nil
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

// Open creates the offering side of a connection to target. Negotiation
// continues in the background.
func (t *Transport) Open(target domain.PeerID) (core.PeerConn, error) {
	t.mu.Lock()
	sig, self, closed := t.sig, t.id, t.closed
	t.mu.Unlock()
	if closed {
		return nil, core.ErrConnClosed
	}
	if sig == nil || self == "" {
		return nil, core.ErrNotInitialized
	}
	if target == self {
		return nil, fmt.Errorf("open %s: %w", target, core.ErrPeerUnavailable)
	}

	conn, err := NewWebRTCConnection(t.webrtcCfg, target)
	if err != nil {
		return nil, err
	}
	if err := conn.CreateChannel(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	t.track(conn)

	go func() {
		offer, err := conn.CreateOffer()
		if err != nil {
			conn.Fail(err)
			return
		}
		if err := sig.send(signal.Envelope{Type: signal.TypeOffer, To: target, SDP: offer.SDP}); err != nil {
			conn.Fail(err)
		}
	}()
	return conn, nil
}

// track makes conn the one negotiation routes to for its peer. A previous
// connection to the same peer is closed.
func (t *Transport) track(conn *WebRTCConnection) {
	conn.OnClosed(t.untrack)
	t.mu.Lock()
	old := t.conns[conn.PeerID()]
	t.conns[conn.PeerID()] = conn
	t.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

func (t *Transport) untrack(conn *WebRTCConnection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conns[conn.PeerID()] == conn {
		delete(t.conns, conn.PeerID())
	}
}

func (t *Transport) lookup(peer domain.PeerID) *WebRTCConnection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[peer]
}

func (t *Transport) handleSignal(env signal.Envelope) {
	switch env.Type {
	case signal.TypeRegistered:
		t.registerReply(env)
	case signal.TypeError:
		if env.Peer == "" {
			t.registerReply(env)
			return
		}
		if env.Error == signal.ErrCodePeerUnavailable {
			if conn := t.lookup(env.Peer); conn != nil {
				conn.Fail(fmt.Errorf("open %s: %w", env.Peer, core.ErrPeerUnavailable))
			}
		}
	case signal.TypeOffer:
		go t.answer(env)
	case signal.TypeAnswer:
		conn := t.lookup(env.From)
		if conn == nil {
			return
		}
		if err := conn.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: env.SDP}); err != nil {
			conn.Fail(err)
		}
	case signal.TypeCandidate:
		conn := t.lookup(env.From)
		if conn == nil {
			return
		}
		var ci webrtc.ICECandidateInit
		if err := json.Unmarshal(env.Candidate, &ci); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Str("from", string(env.From)).Msg("bad candidate")
			return
		}
		if err := conn.AddICECandidate(ci); err != nil {
			log.Warn().Err(err).Str("module", "rtc").Str("from", string(env.From)).Msg("add candidate")
		}
	}
}

func (t *Transport) registerReply(env signal.Envelope) {
	t.mu.Lock()
	reply := t.reg
	t.mu.Unlock()
	if reply == nil {
		log.Warn().Str("module", "rtc").Str("type", env.Type).Str("error", env.Error).Msg("unsolicited reply")
		return
	}
	select {
	case reply <- env:
	default:
	}
}

// answer builds the answering side for an inbound offer and announces it.
func (t *Transport) answer(env signal.Envelope) {
	t.mu.Lock()
	sig, onConn, closed := t.sig, t.onConn, t.closed
	t.mu.Unlock()
	if closed || sig == nil || env.From == "" {
		return
	}

	conn, err := NewWebRTCConnection(t.webrtcCfg, env.From)
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("new peer connection")
		return
	}
	if onConn == nil {
		_ = conn.Close()
		return
	}
	t.track(conn)
	onConn(conn)

	ans, err := conn.ApplyOfferAndCreateAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: env.SDP})
	if err != nil {
		conn.Fail(err)
		return
	}
	if err := sig.send(signal.Envelope{Type: signal.TypeAnswer, To: env.From, SDP: ans.SDP}); err != nil {
		conn.Fail(err)
	}
}

// Close ends every connection and the signaling link, releasing the identity.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	sig := t.sig
	conns := make([]*WebRTCConnection, 0, len(t.conns))
	for _, c := range t.conns {
		conns = append(conns, c)
	}
	t.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	if sig != nil {
		return sig.Close()
	}
	return nil
}
