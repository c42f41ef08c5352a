package core

//go:generate mockgen -source=transport_iface.go -destination=mocks/mock_transport.go -package=mocks

import (
	"context"
	"errors"

	"github.com/dkeye/Lobby/internal/domain"
)

var (
	ErrIdentityTaken   = errors.New("identity already taken")
	ErrPeerUnavailable = errors.New("peer unavailable")
	ErrConnClosed      = errors.New("connection closed")
	ErrNotInitialized  = errors.New("transport not initialized")
)

// Transport is the peer-to-peer transport the session runs on
// (a WebRTC data channel stack in production).
type Transport interface {
	// Init acquires an identity. An empty requested id asks for an anonymous one.
	Init(ctx context.Context, requested domain.PeerID) (domain.PeerID, error)
	// ID returns the current identity, empty before Init.
	ID() domain.PeerID
	// Open starts an outbound connection. The result is reported through
	// the returned handle's open/error events.
	Open(target domain.PeerID) (PeerConn, error)
	// OnConnection sets the callback for inbound connections.
	OnConnection(func(PeerConn))
	Close() error
}

// PeerConn is one point-to-point connection handle.
// Open and close events are latched: registering after they fired
// invokes the callback immediately. Close and error fire at most once.
type PeerConn interface {
	PeerID() domain.PeerID
	// Send is fire-and-forget; no acknowledgement, no backpressure.
	Send(data []byte) error
	Close() error

	OnOpen(func())
	OnData(func([]byte))
	OnClose(func())
	OnError(func(error))
}
