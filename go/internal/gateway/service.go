package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/countdown"
	"github.com/rs/zerolog/log"
)

// Service is the session gateway: websocket hub, event engine and read endpoints
type Service struct {
	connectionManager *ConnectionManager
	engine            *Engine
	wsHandler         *WebSocketHandler
	snapshotHandler   *SnapshotHandler
}

// Config holds configuration for the session gateway
type Config struct {
	ConnectionConfig ConnectionConfig
	InboxSize        int
	NetworkURLs      []string
}

// DefaultConfig returns default configuration for the session gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		InboxSize:        256,
	}
}

// Dependencies are the optional collaborators of the gateway
type Dependencies struct {
	Persister Persister
	Mirror    Mirror
	Metrics   Metrics
	Clock     countdown.Clock
}

// NewService creates a new session gateway service around store
func NewService(config Config, store *collections.Store, deps Dependencies) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig, deps.Metrics)

	engine := NewEngine(EngineConfig{
		Store:     store,
		Hub:       connectionManager,
		Persister: deps.Persister,
		Mirror:    deps.Mirror,
		Metrics:   deps.Metrics,
		Clock:     deps.Clock,
		InboxSize: config.InboxSize,
	})

	return &Service{
		connectionManager: connectionManager,
		engine:            engine,
		wsHandler:         NewWebSocketHandler(connectionManager, engine),
		snapshotHandler:   NewSnapshotHandler(store, config.NetworkURLs),
	}
}

// Start runs the event engine until ctx is cancelled, then closes every
// connection and waits for pending countdown timers to stop.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting session gateway service")

	s.engine.Run(ctx)

	s.connectionManager.CloseAll()
	s.engine.Countdown().Wait()

	log.Info().Msg("session gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and read HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.snapshotHandler.RegisterRoutes(mux)
	log.Info().Msg("session gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
