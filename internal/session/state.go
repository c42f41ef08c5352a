package session

import (
	"errors"
	"fmt"

	"github.com/dkeye/Lobby/internal/domain"
)

var ErrInvalidTransition = errors.New("invalid session transition")

type State int

const (
	// StateIdle is "host of an empty room"; there is no separate null session.
	StateIdle State = iota
	StateHosting
	StateConnecting
	StateConnected
	// StateRoomDeleted is terminal until acknowledged.
	StateRoomDeleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHosting:
		return "hosting"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRoomDeleted:
		return "room_deleted"
	default:
		return "unknown"
	}
}

type Role int

const (
	RoleHost Role = iota
	RoleJoiner
)

func (r Role) String() string {
	if r == RoleJoiner {
		return "joiner"
	}
	return "host"
}

// Status is a read-only view of the role state machine.
type Status struct {
	State State
	Role  Role
	Room  domain.RoomCode
	Self  domain.PeerID
}

// roleMachine is the explicit Host/Joiner state machine. Role is derived
// from state so the two can never disagree.
type roleMachine struct {
	state State
	room  domain.RoomCode
}

func (m *roleMachine) State() State { return m.state }

func (m *roleMachine) Room() domain.RoomCode { return m.room }

func (m *roleMachine) Role() Role {
	switch m.state {
	case StateConnecting, StateConnected, StateRoomDeleted:
		return RoleJoiner
	default:
		return RoleHost
	}
}

func (m *roleMachine) invalid(to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}

// Host is Idle -> Hosting; the room code is the host's own identity.
func (m *roleMachine) Host(room domain.RoomCode) error {
	if m.state != StateIdle {
		return m.invalid(StateHosting)
	}
	m.state = StateHosting
	m.room = room
	return nil
}

// Connect is Idle/Hosting -> Connecting.
func (m *roleMachine) Connect(room domain.RoomCode) error {
	if m.state != StateIdle && m.state != StateHosting {
		return m.invalid(StateConnecting)
	}
	m.state = StateConnecting
	m.room = room
	return nil
}

// Connected is Connecting -> Connected.
func (m *roleMachine) Connected() error {
	if m.state != StateConnecting {
		return m.invalid(StateConnected)
	}
	m.state = StateConnected
	return nil
}

// Deleted is Connected -> RoomDeleted. Hosts never take this edge.
func (m *roleMachine) Deleted() error {
	if m.state != StateConnected {
		return m.invalid(StateRoomDeleted)
	}
	m.state = StateRoomDeleted
	m.room = ""
	return nil
}

// Acknowledge is RoomDeleted -> Idle.
func (m *roleMachine) Acknowledge() error {
	if m.state != StateRoomDeleted {
		return m.invalid(StateIdle)
	}
	m.state = StateIdle
	return nil
}

// Reset is the disconnect edge: any state except RoomDeleted -> Idle.
func (m *roleMachine) Reset() error {
	if m.state == StateRoomDeleted {
		return m.invalid(StateIdle)
	}
	m.state = StateIdle
	m.room = ""
	return nil
}
