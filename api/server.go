package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixeldash/race-server/race"
	"github.com/pixeldash/race-server/rooms"
	"github.com/pixeldash/race-server/state"
	"github.com/pixeldash/race-server/util"
	"github.com/pixeldash/race-server/ws"
)

type Server struct {
	config    *util.Config
	wsManager *ws.Manager
	router    *gin.Engine
	registry  *rooms.Registry
}

func NewServer(config *util.Config, registry *rooms.Registry, store *state.Store, arbiter *race.Arbiter) *Server {
	router := gin.Default()

	server := &Server{
		config:    config,
		wsManager: ws.NewManager(config, registry, store, arbiter),
		router:    router,
		registry:  registry,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.Any("/ws", server.wsManager.ServeWS)
	router.POST("/auth/username", server.TokenGenerator)
	router.GET("/auth/me", server.AuthMiddleware, server.GetTokenData)
	router.GET("/rooms/:code", server.CheckRoom)

	return server
}

// WSManager exposes the websocket manager so the caller can run the
// broadcast scheduler alongside the HTTP server.
func (s *Server) WSManager() *ws.Manager {
	return s.wsManager
}

func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%v", s.config.Port))
}
