package signal

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/core"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, Envelope{Type: TypePong})
}

func (ctl *SignalWSController) handleRegister(client string, conn *WsSignalConn, env Envelope) {
	id, err := ctl.Orch.Register(client, conn, env.ID)
	if err != nil {
		code := ErrCodeBadPayload
		switch {
		case errors.Is(err, core.ErrIdentityTaken):
			code = ErrCodeIDTaken
		case errors.Is(err, app.ErrInvalidID):
			code = ErrCodeInvalidID
		case errors.Is(err, app.ErrRateLimited):
			code = ErrCodeRateLimited
		}
		log.Info().Err(err).Str("module", "signal").Str("client", client).Str("id", string(env.ID)).Msg("register rejected")
		ctl.sendError(conn, code, "")
		return
	}
	ctl.sendJSON(conn, Envelope{Type: TypeRegistered, ID: id})
}

// handleLeave releases the identity; the socket stays open.
func (ctl *SignalWSController) handleLeave(conn *WsSignalConn) {
	ctl.Orch.Leave(conn)
	ctl.sendJSON(conn, Envelope{Type: TypeLeft})
}
