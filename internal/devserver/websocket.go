package devserver

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sekata-go/internal/models"
	ws "sekata-go/pkg/websocket"
)

// OriginPolicy decides which browser origins may open a websocket.
type OriginPolicy struct {
	Dev     bool
	allowed map[string]bool
}

func NewOriginPolicy(isDev bool, origins []string) OriginPolicy {
	p := OriginPolicy{Dev: isDev, allowed: map[string]bool{}}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			p.allowed[o] = true
		}
	}
	return p
}

func (p OriginPolicy) Check(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients (no Origin) are allowed.
		return true
	}
	if p.allowed[origin] {
		return true
	}
	return p.Dev && isLocalhostOrigin(origin)
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// WebSocketHandler subscribes a player to the update stream of one game.
// Frames only say that something changed; clients refetch the status.
func WebSocketHandler(hubs HubProvider, m *Manager, policy OriginPolicy, log *zap.Logger) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.Check,
	}
	return func(c *gin.Context) {
		gameID := strings.TrimSpace(c.Query("game_id"))
		playerID := strings.TrimSpace(c.Query("player_id"))
		if playerID == "" {
			writeAPIError(c, log, models.ErrMissingPlayerID)
			return
		}
		// Preconditions before the upgrade so HTTP errors still work.
		if err := m.IsPlayer(gameID, playerID); err != nil {
			writeAPIError(c, log, err)
			return
		}
		hub, ok := hubs()
		if !ok {
			log.Error("websocket: no hub", zap.String("game_id", gameID))
			writeAPIError(c, log, nil)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed",
				zap.String("remote", c.ClientIP()),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.Error(err))
			return
		}

		client := ws.NewClient(conn, hub, ws.RoomForGame(gameID), playerID)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}
}
