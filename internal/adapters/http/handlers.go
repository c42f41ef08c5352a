package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/domain"
)

type RoomResponse struct {
	Room   domain.RoomCode `json:"room"`
	Online bool            `json:"online"`
}

// roomLookup answers whether a host currently holds the code.
func roomLookup(orch *app.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := domain.NormalizeRoomCode(c.Param("code"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room code"})
			return
		}
		c.JSON(http.StatusOK, RoomResponse{
			Room:   code,
			Online: orch.Registry.Online(code.PeerID()),
		})
	}
}

// joinRedirect turns a shared deep link into the UI address carrying ?room=.
func joinRedirect(publicURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := domain.NormalizeRoomCode(c.Query(domain.RoomQueryParam))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room code"})
			return
		}
		target, err := domain.JoinURL(publicURL, code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "bad public url"})
			return
		}
		c.Redirect(http.StatusFound, target)
	}
}

// whoAmI reports the client token and when this cookie session first saw it.
func whoAmI(c *gin.Context) {
	sess := sessions.Default(c)
	first, ok := sess.Get("first_seen").(int64)
	if !ok {
		first = time.Now().Unix()
		sess.Set("first_seen", first)
		if err := sess.Save(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session save failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"client":     c.GetString("client_token"),
		"first_seen": first,
	})
}
