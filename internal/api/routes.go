package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/api/handlers"
	"github.com/yourusername/fleet-manager/internal/api/middleware"
	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/store"
	"github.com/yourusername/fleet-manager/internal/websocket"
)

// SetupRouter configures and returns the HTTP router
func SetupRouter(
	cfg *config.Config,
	serverManager *config.ServerManager,
	st store.Store,
	registry *adapter.Registry,
	hub *websocket.Hub,
) *gin.Engine {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())

	serverHandler := handlers.NewServerHandler(serverManager, registry, st)
	consoleHandler := handlers.NewConsoleHandler(registry, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		servers := v1.Group("/servers")
		{
			servers.GET("", serverHandler.ListServers)
			servers.GET(":id", serverHandler.GetServer)
			servers.GET(":id/status", serverHandler.GetServerStatus)
			servers.POST(":id/start", serverHandler.StartServer)
			servers.POST(":id/stop", serverHandler.StopServer)
			servers.POST(":id/restart", serverHandler.RestartServer)
			servers.POST(":id/kill", serverHandler.KillServer)
			servers.GET(":id/metrics", serverHandler.GetMetrics)
			servers.GET(":id/logs", serverHandler.GetLogs)
			servers.POST(":id/command", serverHandler.ExecuteCommand)
			servers.GET(":id/console/history", serverHandler.GetCommandHistory)
			servers.GET(":id/console", consoleHandler.HandleConsoleWebSocket)
		}
	}

	return router
}
