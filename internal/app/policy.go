package app

import (
	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

func (a BackpressureAction) String() string {
	switch a {
	case MarkSlow:
		return "mark_slow"
	case KickMember:
		return "kick"
	case DropFrame:
		return "drop"
	default:
		return "none"
	}
}

// Policy decides what happens to a forward target whose send queue is full.
type Policy interface {
	OnBackPressure(target domain.PeerID, conn core.SignalConnection) BackpressureAction
}

// SimplePolicy kicks slow targets; a peer that cannot drain signaling
// frames will not finish a handshake anyway.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.PeerID, core.SignalConnection) BackpressureAction {
	return KickMember
}

// PolicyFunc adapts a plain function.
type PolicyFunc func(domain.PeerID, core.SignalConnection) BackpressureAction

func (f PolicyFunc) OnBackPressure(target domain.PeerID, conn core.SignalConnection) BackpressureAction {
	return f(target, conn)
}
