package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Lobby/internal/domain"
)

var ErrBadMessage = errors.New("bad message")

// Kind discriminates session messages on the wire.
type Kind string

const (
	KindStateSync       Kind = "state_sync"
	KindHeartbeat       Kind = "heartbeat"
	KindConnectionCount Kind = "connection_count"
	KindRoomDeleted     Kind = "room_deleted"
	KindRequestState    Kind = "request_state"
	// KindSignal is an application-defined fire-once event. Relayed, never stored.
	KindSignal Kind = "signal"
)

// Message is the tagged union exchanged over peer connections.
type Message struct {
	Kind     Kind            `json:"kind"`
	From     domain.PeerID   `json:"from,omitempty"`
	Snapshot domain.Snapshot `json:"snapshot,omitempty"`
	Count    int             `json:"count,omitempty"`
	Signal   string          `json:"signal,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func StateSync(snap domain.Snapshot) Message {
	return Message{Kind: KindStateSync, Snapshot: snap}
}

func Heartbeat(from domain.PeerID) Message {
	return Message{Kind: KindHeartbeat, From: from}
}

func ConnectionCount(n int) Message {
	return Message{Kind: KindConnectionCount, Count: n}
}

func RoomDeleted() Message {
	return Message{Kind: KindRoomDeleted}
}

func RequestState() Message {
	return Message{Kind: KindRequestState}
}

func Signal(name string, payload json.RawMessage) Message {
	return Message{Kind: KindSignal, Signal: name, Payload: payload}
}

// Internal reports whether the message is consumed by the session and never
// handed to application observers.
func (m Message) Internal() bool {
	return m.Kind == KindHeartbeat || m.Kind == KindConnectionCount
}

func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind, err)
	}
	return b, nil
}

func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	switch m.Kind {
	case KindStateSync, KindHeartbeat, KindRoomDeleted, KindRequestState:
	case KindConnectionCount:
		if m.Count < 1 {
			return Message{}, fmt.Errorf("%w: connection count %d", ErrBadMessage, m.Count)
		}
	case KindSignal:
		if m.Signal == "" {
			return Message{}, fmt.Errorf("%w: signal without name", ErrBadMessage)
		}
	default:
		return Message{}, fmt.Errorf("%w: unknown kind %q", ErrBadMessage, m.Kind)
	}
	return m, nil
}
