package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/console"
	ws "github.com/yourusername/fleet-manager/internal/websocket"
)

// ConsoleHandler streams live console output over WebSocket.
type ConsoleHandler struct {
	registry *adapter.Registry
	hub      *ws.Hub
	upgrader gorilla.Upgrader
}

// NewConsoleHandler creates a console handler.
func NewConsoleHandler(registry *adapter.Registry, hub *ws.Hub) *ConsoleHandler {
	return &ConsoleHandler{
		registry: registry,
		hub:      hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// No auth in scope, the manager binds to a trusted network
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleConsoleWebSocket upgrades the connection and subscribes it to the
// server's log pipeline. Buffered history is replayed on connect, then live
// entries follow until the client goes away.
func (h *ConsoleHandler) HandleConsoleWebSocket(c *gin.Context) {
	serverID := c.Param("id")
	a, ok := h.registry.Get(serverID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Console] WebSocket upgrade failed for server %s: %v", serverID, err)
		return
	}

	client := &ws.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Room: ws.ConsoleRoom(serverID),
		Send: make(chan *ws.Message, 256),
		Hub:  h.hub,
	}
	h.hub.Register <- client

	subID := a.StreamLogs(func(entry console.LogEntry) {
		if err := client.SendMessage("console_log", entry); err != nil {
			log.Printf("[Console] Dropping log entry for client %s: %v", client.ID, err)
		}
	})

	go client.WritePump()
	go func() {
		client.ReadPump()
		a.StopLogStream(subID)
	}()
}
