package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/yourusername/fleet-manager/internal/adapter"
	"github.com/yourusername/fleet-manager/internal/api"
	"github.com/yourusername/fleet-manager/internal/config"
	"github.com/yourusername/fleet-manager/internal/database"
	"github.com/yourusername/fleet-manager/internal/logging"
	"github.com/yourusername/fleet-manager/internal/reconnect"
	"github.com/yourusername/fleet-manager/internal/store"
	"github.com/yourusername/fleet-manager/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize server manager
	serverManager, err := config.NewServerManager(cfg.Storage.ServersDir)
	if err != nil {
		log.Fatalf("Failed to initialize server manager: %v", err)
	}

	// Set up logging
	if err := setupLogging(cfg); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	// Check if running migrations
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrations(cfg)
		return
	}

	// Initialize database
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Persistence for process handles and command history
	st := store.NewSQLStore(db.DB)

	// Build adapters for every defined server
	registry := adapter.NewRegistry()
	for _, def := range serverManager.GetAll() {
		a, err := adapter.New(def, cfg.Supervisor, st)
		if err != nil {
			log.Fatalf("Failed to build adapter for server %s: %v", def.ID, err)
		}
		registry.Put(def.ID, a)
	}
	log.Printf("Initialized %d server adapters", len(registry.All()))

	// Adopt processes that survived the previous manager instance
	log.Println("Scanning for orphaned server processes...")
	reconnectManager := reconnect.NewManager(st, registry.All())
	adopted, cleared := reconnectManager.Scan()
	log.Printf("Orphan scan finished: %d adopted, %d cleared", adopted, cleared)

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// Set up HTTP server
	router := api.SetupRouter(cfg, serverManager, st, registry, hub)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting manager on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down manager...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	// Detach from game processes without terminating them. Their pids stay
	// persisted so the next manager instance adopts them on boot.
	for id, a := range registry.All() {
		if a.IsConnected() {
			log.Printf("Detaching from server %s", id)
			a.Disconnect()
		}
	}

	log.Println("Manager exited")
}

func setupLogging(cfg *config.Config) error {
	if strings.TrimSpace(cfg.Logging.File) == "" {
		dataDir := cfg.Storage.DataDir
		if dataDir == "" {
			dataDir = "./data"
		}
		cfg.Logging.File = filepath.Join(dataDir, "logs", "manager.log")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
		return err
	}
	_, err := logging.Init(cfg.Logging)
	return err
}

func runMigrations(cfg *config.Config) {
	log.Println("Running database migrations...")

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")
}
