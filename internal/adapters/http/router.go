package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/adapters/rtc"
	"github.com/quietdesk/focusroom/internal/adapters/signal"
	"github.com/quietdesk/focusroom/internal/app/orch"
	"github.com/quietdesk/focusroom/internal/config"
)

// ClientTokenMiddleware hands every browser a stable token cookie. The
// token is not a connection identity (those are per-WS) and is never
// verified; it only lets logs correlate reconnects from the same client.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("FocusroomSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(o)

	api := r.Group("/api")

	// Same directory snapshot the rooms:list broadcast carries.
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, o.Registry.ListRooms())
	})

	api.GET("/ice", func(c *gin.Context) {
		c.JSON(http.StatusOK, rtc.ICEConfiguration(cfg.StunServers))
	})

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
