package signal

import (
	"encoding/json"

	"github.com/dkeye/Lobby/internal/domain"
)

// Frame types of the signaling protocol.
const (
	TypeRegister   = "register"
	TypeRegistered = "registered"
	TypeOffer      = "offer"
	TypeAnswer     = "answer"
	TypeCandidate  = "candidate"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeLeave      = "leave"
	TypeLeft       = "left"
	TypeError      = "error"
)

// Error codes carried by TypeError frames.
const (
	ErrCodeIDTaken         = "id_taken"
	ErrCodeInvalidID       = "invalid_id"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodePeerUnavailable = "peer_unavailable"
	ErrCodeNotRegistered   = "not_registered"
	ErrCodeBadPayload      = "bad_payload"
)

// Envelope is every signaling frame. Forwarded frames carry From and lose To.
type Envelope struct {
	Type      string          `json:"type"`
	ID        domain.PeerID   `json:"id,omitempty"`
	To        domain.PeerID   `json:"to,omitempty"`
	From      domain.PeerID   `json:"from,omitempty"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Error     string          `json:"error,omitempty"`
	Peer      domain.PeerID   `json:"peer,omitempty"`
}

// Relayed reports whether the frame type is forwarded peer to peer.
func Relayed(typ string) bool {
	return typ == TypeOffer || typ == TypeAnswer || typ == TypeCandidate
}
