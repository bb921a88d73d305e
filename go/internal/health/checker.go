package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type Status struct {
	Healthy          bool     `json:"healthy"`
	Connections      int      `json:"connections"`
	PendingDocuments int      `json:"pending_documents"`
	WriterRunning    bool     `json:"writer_running"`
	StorageReachable bool     `json:"storage_reachable"`
	NATSConnected    bool     `json:"nats_connected"`
	Errors           []string `json:"errors"`
}

// WriterState is implemented by persistence.Writer
type WriterState interface {
	Running() bool
	Pending() int
}

// Pinger is implemented by storage backends that can check their connection
type Pinger interface {
	Ping(ctx context.Context) error
}

// NATSState is implemented by *nats.Conn
type NATSState interface {
	IsConnected() bool
}

type Checker struct {
	writer      WriterState
	storage     any
	nats        NATSState
	connections func() int
	// pendingThreshold is the backlog above which the writer is considered stuck
	pendingThreshold int
}

// NewChecker builds a checker. storage is checked only when it implements
// Pinger; nats may be nil when no NATS server is used.
func NewChecker(writer WriterState, storage any, nats NATSState, connections func() int) *Checker {
	return &Checker{
		writer:           writer,
		storage:          storage,
		nats:             nats,
		connections:      connections,
		pendingThreshold: 100,
	}
}

func (h *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy:          true,
		StorageReachable: true,
		Errors:           []string{},
	}

	if h.connections != nil {
		status.Connections = h.connections()
	}

	status.WriterRunning = h.writer.Running()
	status.PendingDocuments = h.writer.Pending()
	if !status.WriterRunning {
		status.Healthy = false
		status.Errors = append(status.Errors, "persistence writer not running")
	}
	if status.PendingDocuments > h.pendingThreshold {
		status.Errors = append(status.Errors, fmt.Sprintf("high pending document count: %d", status.PendingDocuments))
	}

	if pinger, ok := h.storage.(Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			status.StorageReachable = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("storage ping failed: %v", err))
		}
	}

	if h.nats != nil {
		status.NATSConnected = h.nats.IsConnected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

// HTTP handler helper
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}
