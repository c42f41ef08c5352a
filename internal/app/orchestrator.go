package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

var (
	ErrInvalidID   = errors.New("invalid identity")
	ErrRateLimited = errors.New("rate limited")
)

// Orchestrator is the rendezvous logic of the signaling server: identity
// claims and point-to-point forwarding of handshake frames. It never sees
// session traffic; that flows over the peer data channels.
type Orchestrator struct {
	Registry *Registry
	Policy   Policy
	Limiter  *RateLimiter
}

func NewOrchestrator(policy Policy, limiter *RateLimiter) *Orchestrator {
	return &Orchestrator{Registry: NewRegistry(), Policy: policy, Limiter: limiter}
}

// Register claims requested for conn, or an anonymous identity when empty.
func (o *Orchestrator) Register(client string, conn core.SignalConnection, requested domain.PeerID) (domain.PeerID, error) {
	if o.Limiter != nil && !o.Limiter.Allow(client) {
		log.Warn().Str("module", "app").Str("client", client).Msg("register rate limited")
		return "", ErrRateLimited
	}
	if requested == "" {
		requested = domain.NewAnonymousPeerID()
	}
	if err := requested.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if err := o.Registry.Claim(requested, client, conn); err != nil {
		return "", err
	}
	return requested, nil
}

// Forward delivers frame to the connection holding to.
func (o *Orchestrator) Forward(to domain.PeerID, frame core.Frame) error {
	target, ok := o.Registry.Lookup(to)
	if !ok {
		return fmt.Errorf("forward to %s: %w", to, core.ErrPeerUnavailable)
	}
	err := target.TrySend(frame)
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrBackpressure) && o.Policy != nil {
		action := o.Policy.OnBackPressure(to, target)
		log.Warn().Str("module", "app").Str("target", string(to)).Str("action", action.String()).Msg("backpressure")
		if action == KickMember {
			o.Kick(to)
		}
	}
	return fmt.Errorf("forward to %s: %w", to, err)
}

// Kick drops the identity and closes its connection.
func (o *Orchestrator) Kick(id domain.PeerID) {
	conn, ok := o.Registry.Lookup(id)
	if !ok {
		return
	}
	o.Registry.Release(conn)
	conn.Close()
	log.Info().Str("module", "app").Str("id", string(id)).Msg("kicked")
}

// Leave releases conn's identity but keeps the connection.
func (o *Orchestrator) Leave(conn core.SignalConnection) {
	o.Registry.Release(conn)
}

func (o *Orchestrator) OnDisconnect(conn core.SignalConnection) {
	if id, ok := o.Registry.Release(conn); ok {
		log.Info().Str("module", "app").Str("id", string(id)).Msg("disconnected")
	}
}
