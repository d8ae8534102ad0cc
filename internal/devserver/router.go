package devserver

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"sekata-go/internal/config"
	"sekata-go/internal/middleware"
)

const serviceName = "sekata-devserver"

// Deps is what the router serves.
type Deps struct {
	Config  config.Config
	Manager *Manager
	DB      *sql.DB
	Hubs    HubProvider
	Log     *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	if d.Config.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.DevCORS(d.Config))
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	r.POST("/create_game", CreateGameHandler(d.Manager, log))
	r.POST("/join_game/:id", JoinGameHandler(d.Manager, log))
	r.POST("/start_game/:id", StartGameHandler(d.Manager, log))
	r.GET("/game_status/:id", GameStatusHandler(d.Manager, log))
	r.POST("/submit_turn/:id", SubmitTurnHandler(d.Manager, log))
	r.POST("/check_turn/:id", CheckTurnHandler(d.Manager, log))
	if d.DB != nil {
		r.GET("/history/:id", HistoryHandler(SQLArchive{DB: d.DB}, log))
	}

	if d.Hubs != nil {
		policy := NewOriginPolicy(d.Config.AppEnv == "development", d.Config.WSAllowedOrigins)
		r.GET("/ws", WebSocketHandler(d.Hubs, d.Manager, policy, log))
	}
	return r
}
