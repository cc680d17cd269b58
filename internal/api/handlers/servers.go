package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/store"
)

// ServerHandler exposes the adapter contract over HTTP.
type ServerHandler struct {
	serverManager *config.ServerManager
	registry      *adapter.Registry
	store         store.Store
}

// NewServerHandler creates a server handler.
func NewServerHandler(serverManager *config.ServerManager, registry *adapter.Registry, st store.Store) *ServerHandler {
	return &ServerHandler{
		serverManager: serverManager,
		registry:      registry,
		store:         st,
	}
}

func (h *ServerHandler) lookup(c *gin.Context) (adapter.Adapter, bool) {
	serverID := c.Param("id")
	a, ok := h.registry.Get(serverID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
		return nil, false
	}
	return a, true
}

// ListServers returns every managed server with its live status.
func (h *ServerHandler) ListServers(c *gin.Context) {
	definitions := h.serverManager.GetAll()

	servers := make([]gin.H, 0, len(definitions))
	for _, def := range definitions {
		item := gin.H{
			"id":          def.ID,
			"name":        def.Name,
			"description": def.Description,
			"adapter":     def.Adapter,
		}
		if a, ok := h.registry.Get(def.ID); ok {
			item["status"] = a.GetStatus()
			item["pid"] = a.GetPid()
			item["connected"] = a.IsConnected()
		}
		servers = append(servers, item)
	}

	c.JSON(http.StatusOK, gin.H{"servers": servers})
}

// GetServer returns one server's definition and live status.
func (h *ServerHandler) GetServer(c *gin.Context) {
	serverID := c.Param("id")
	def, found := h.serverManager.GetByID(serverID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
		return
	}

	response := gin.H{"server": def}
	if a, ok := h.registry.Get(serverID); ok {
		response["status"] = a.GetStatus()
		response["pid"] = a.GetPid()
		response["connected"] = a.IsConnected()
	}
	c.JSON(http.StatusOK, response)
}

// GetServerStatus returns the lifecycle state of one server.
func (h *ServerHandler) GetServerStatus(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    a.GetStatus(),
		"pid":       a.GetPid(),
		"connected": a.IsConnected(),
	})
}

// StartServer launches the server process.
func (h *ServerHandler) StartServer(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := a.Start(); err != nil {
		if errors.Is(err, adapter.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[API] Failed to start server %s: %v", a.ServerID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": a.GetStatus()})
}

// StopServer requests a graceful stop. The stop itself can take up to the
// grace period, so it runs in the background.
func (h *ServerHandler) StopServer(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	go func() {
		if err := a.Stop(); err != nil {
			log.Printf("[API] Failed to stop server %s: %v", a.ServerID(), err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": adapter.StatusStopping})
}

// RestartServer performs a stop/start cycle in the background.
func (h *ServerHandler) RestartServer(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	go func() {
		if err := a.Restart(); err != nil {
			log.Printf("[API] Failed to restart server %s: %v", a.ServerID(), err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": adapter.StatusStopping})
}

// KillServer force-terminates the server process.
func (h *ServerHandler) KillServer(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	if err := a.Kill(); err != nil {
		log.Printf("[API] Failed to kill server %s: %v", a.ServerID(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": a.GetStatus()})
}

// GetMetrics returns a fresh resource snapshot.
func (h *ServerHandler) GetMetrics(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": a.GetMetrics()})
}

// GetLogs returns the most recent buffered console entries.
func (h *ServerHandler) GetLogs(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	limit := parseLimit(c.Query("limit"), 100)
	c.JSON(http.StatusOK, gin.H{"logs": a.GetLogs(limit)})
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ExecuteCommand delivers one console command to the server's stdin.
func (h *ServerHandler) ExecuteCommand(c *gin.Context) {
	a, ok := h.lookup(c)
	if !ok {
		return
	}

	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	result := a.SendCommand(req.Command)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"result": result})
}

// GetCommandHistory returns recently executed console commands.
func (h *ServerHandler) GetCommandHistory(c *gin.Context) {
	serverID := c.Param("id")
	if _, ok := h.registry.Get(serverID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
		return
	}

	limit := parseLimit(c.Query("limit"), 50)
	commands, err := h.store.RecentCommands(serverID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commands": commands})
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
