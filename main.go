// Command robotiles starts the RoboTiles simulator server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the boards and sessions directories, and debug
// logging; every flag can also be set through an environment variable or a
// .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"

	"github.com/BrendanBurkhart/RoboTiles/api"
	"github.com/BrendanBurkhart/RoboTiles/game/library"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
	"github.com/BrendanBurkhart/RoboTiles/game/session"
	"github.com/BrendanBurkhart/RoboTiles/transport/mcp"
	"github.com/BrendanBurkhart/RoboTiles/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "RoboTiles Simulator"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := &cli.Command{
		Name:    "robotiles",
		Usage:   "grid robot simulator with REST, WebSocket, and MCP transports",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("ROBOTILES_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("ROBOTILES_PORT"),
			},
			&cli.StringFlag{
				Name:    "boards-dir",
				Value:   "boards",
				Usage:   "Directory containing .board files",
				Sources: cli.EnvVars("BOARDS_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory for persisted runs",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("ROBOTILES_DEBUG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with REST API, WebSocket, and MCP endpoint",
				Action: runServe,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run the MCP stdio server (starts an internal HTTP API if none is reachable)",
				Action:  runStdioMCP,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// setupLogging configures the standard logger from the debug flag.
func setupLogging(cmd *cli.Command) {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp
// proxy endpoint, then blocks until a shutdown signal arrives.
func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	gameService, manager, err := initializeServices(cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Create API server
	apiServer := api.NewServer(gameService, hub)

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))

	// Create MCP client for /mcp endpoint
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	// Create main router that combines API and MCP
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?run=<run_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)

	// Persist everything before exiting.
	if err := manager.SaveAllRuns(); err != nil {
		log.Printf("Warning: failed to save runs on shutdown: %v", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// initializeServices wires the board library, run persistence, and the game
// service. It also starts background routines to prune stale runs and sync
// memory with the filesystem.
func initializeServices(cmd *cli.Command) (service.GameService, *session.Manager, error) {
	boardLibrary, err := library.NewManager(cmd.String("boards-dir"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create board library: %w", err)
	}

	persistence, err := session.NewFilePersistence(cmd.String("sessions-dir"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create run persistence: %w", err)
	}

	runManager := session.NewManagerWithPersistence(persistence)

	// Load persisted runs on startup
	if err := runManager.LoadPersistedRuns(); err != nil {
		log.Printf("Warning: Failed to load persisted runs: %v", err)
	}

	gameService := service.NewGameService(runManager, boardLibrary)

	go runCleanupRoutine(runManager)
	go filesystemSyncRoutine(runManager, persistence)

	return gameService, runManager, nil
}

// runCleanupRoutine periodically removes runs that have not been accessed
// within the retention window.
func runCleanupRoutine(manager *session.Manager) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed := manager.CleanupExpiredRuns(24 * time.Hour)
		if removed > 0 {
			log.Printf("Cleaned up %d expired runs", removed)
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory runs with filesystem
// state. It removes runs from memory when their files are deleted.
func filesystemSyncRoutine(manager *session.Manager, persistence session.RunPersistence) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if persistence == nil {
			continue
		}

		pruned := 0
		for _, run := range manager.List() {
			if !persistence.Exists(run.ID) {
				// File deleted, remove from memory
				if err := manager.DeleteFromMemory(run.ID); err == nil {
					pruned++
					log.Printf("Pruned run %s from memory (file deleted)", run.ID)
				}
			}
		}

		if pruned > 0 {
			log.Printf("Filesystem sync: pruned %d orphaned runs from memory", pruned)
		}
	}
}

// runStdioMCP runs an MCP stdio server. It tries to reuse an external API at
// the configured host/port; if unavailable, it starts a minimal internal
// HTTP API bound to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd)
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	var baseURL string

	externalURL := fmt.Sprintf("http://%s:%d", cmd.String("host"), cmd.Int("port"))
	log.Printf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		gameService, _, err := initializeServices(cmd)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := fmt.Sprintf("127.0.0.1:%d", listener.Addr().(*net.TCPAddr).Port)
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()

		apiServer := api.NewServer(gameService, hub)
		httpServer := &http.Server{Handler: apiServer}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		// Wait a moment for the server to be ready
		time.Sleep(100 * time.Millisecond)

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	log.Println("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
