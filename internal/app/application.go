package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"slidecast/internal/api"
	"slidecast/internal/config"
	"slidecast/internal/protocol"
	"slidecast/internal/registry"
	"slidecast/internal/room"
	"slidecast/internal/store"
	"slidecast/internal/websocket"
)

// Application coordinates all system components. Initialization follows
// dependency order: store and registry first, then the room router, the
// protocol hub over all three, and finally the HTTP surfaces.
type Application struct {
	config     *config.Config
	store      *store.Store
	registry   *registry.Registry
	rooms      *room.Router
	hub        *protocol.Hub
	apiServer  *api.Server
	httpServer *http.Server
}

// NewApplication wires all components without starting anything.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st := store.NewStore()
	reg := registry.NewRegistry()
	rooms := room.NewRouter()
	hub := protocol.NewHub(st, reg, rooms, cfg.Room.EventQueueSize)
	apiServer := api.NewServer(st, reg, rooms)
	wsHandler := websocket.NewHandler(hub, websocket.Options{
		PingInterval:    cfg.WebSocket.PingInterval,
		ReadTimeout:     cfg.WebSocket.ReadTimeout,
		WriteTimeout:    cfg.WebSocket.WriteTimeout,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/healthz", apiServer)
	mux.HandleFunc("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		store:      st,
		registry:   reg,
		rooms:      rooms,
		hub:        hub,
		apiServer:  apiServer,
		httpServer: httpServer,
	}, nil
}

// Start launches the protocol hub, then the HTTP server.
func (app *Application) Start(ctx context.Context) error {
	log.Printf("Starting slidecast on %s", app.httpServer.Addr)

	if err := app.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start protocol hub: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrCh:
		_ = app.hub.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		log.Printf("slidecast started")
		return nil
	case <-ctx.Done():
		_ = app.hub.Stop()
		return ctx.Err()
	}
}

// Stop shuts components down in reverse order: HTTP first so no new events
// arrive, then the hub.
func (app *Application) Stop(ctx context.Context) error {
	log.Printf("Shutting down slidecast")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := app.hub.Stop(); err != nil {
		log.Printf("Protocol hub shutdown error: %v", err)
	}

	log.Printf("slidecast shutdown complete")
	return nil
}

// GetAddr returns the server address for external connections.
func (app *Application) GetAddr() string {
	return app.httpServer.Addr
}
