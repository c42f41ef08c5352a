// Package domain contains entity without logic, just meta-data
package domain

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

const MaxPeerIDLen = 64

var (
	ErrPeerIDEmpty   = errors.New("peer id empty")
	ErrPeerIDTooLong = errors.New("peer id too long")
)

// PeerID is the transport-assigned identity of a process. For a host it is
// also the room code.
type PeerID string

// NewAnonymousPeerID is used when a joiner has no identity yet.
func NewAnonymousPeerID() PeerID {
	return PeerID(uuid.NewString())
}

func (id PeerID) Validate() error {
	if len(id) == 0 {
		return ErrPeerIDEmpty
	}
	if len(id) > MaxPeerIDLen {
		return ErrPeerIDTooLong
	}
	return nil
}

// Snapshot is the opaque application state. It is replaced wholesale, never merged.
type Snapshot = json.RawMessage
