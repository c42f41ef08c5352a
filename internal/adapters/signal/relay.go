package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/core"
)

// handleRelay forwards offer/answer/candidate frames to their target,
// stamped with the sender's identity.
func (ctl *SignalWSController) handleRelay(conn *WsSignalConn, env Envelope) {
	from, ok := ctl.Orch.Registry.IdentityOf(conn)
	if !ok {
		ctl.sendError(conn, ErrCodeNotRegistered, "")
		return
	}
	if env.To == "" {
		ctl.sendError(conn, ErrCodeBadPayload, "")
		return
	}
	to := env.To
	env.From = from
	env.To = ""
	env.ID = ""

	frame, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}
	if err := ctl.Orch.Forward(to, frame); err != nil {
		if errors.Is(err, core.ErrPeerUnavailable) || errors.Is(err, core.ErrBackpressure) || errors.Is(err, core.ErrConnClosed) {
			ctl.sendError(conn, ErrCodePeerUnavailable, to)
		}
		log.Info().Err(err).Str("module", "signal").Str("from", string(from)).Str("to", string(to)).Str("type", env.Type).Msg("relay failed")
		return
	}
	log.Debug().Str("module", "signal").Str("from", string(from)).Str("to", string(to)).Str("type", env.Type).Msg("relayed")
}
