package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	MaxRetries   int
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		RetryDelay:   500 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
}

// Metrics receives the outcome of every document write
type Metrics interface {
	RecordSave(key string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordSave(string, bool, time.Duration) {}

// Writer mirrors collection snapshots to a Repository in the background.
// Save never blocks: it records the newest document for a key and wakes the
// writer goroutine, so several mutations in quick succession collapse into a
// single write of the latest state.
type Writer struct {
	repo    Repository
	config  Config
	metrics Metrics

	pendingMu sync.Mutex
	pending   map[string][]byte
	order     []string
	wake      chan struct{}

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWriter(repo Repository, cfg Config, metrics Metrics) *Writer {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Writer{
		repo:     repo,
		config:   cfg,
		metrics:  metrics,
		pending:  make(map[string][]byte),
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Save encodes v and queues it as the document for key
func (w *Writer) Save(key string, v any) {
	doc, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to encode document")
		return
	}

	w.pendingMu.Lock()
	if _, queued := w.pending[key]; !queued {
		w.order = append(w.order, key)
	}
	w.pending[key] = doc
	w.pendingMu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("persistence writer already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	log.Info().
		Int("max_retries", w.config.MaxRetries).
		Dur("retry_delay", w.config.RetryDelay).
		Msg("persistence writer started")

	return nil
}

// Stop waits for the writer goroutine and flushes anything still queued
func (w *Writer) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("persistence writer not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), w.config.WriteTimeout)
	defer cancel()
	w.flush(ctx)

	log.Info().Msg("persistence writer stopped")
	return nil
}

// Flush writes every queued document before returning
func (w *Writer) Flush(ctx context.Context) {
	w.flush(ctx)
}

func (w *Writer) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-w.wake:
			w.flush(ctx)
		}
	}
}

func (w *Writer) flush(ctx context.Context) {
	for {
		key, doc, ok := w.next()
		if !ok {
			return
		}
		start := time.Now()
		err := w.writeWithRetry(ctx, key, doc)
		w.metrics.RecordSave(key, err == nil, time.Since(start))
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to persist document")
			continue
		}
		log.Debug().Str("key", key).Int("bytes", len(doc)).Msg("document persisted")
	}
}

func (w *Writer) next() (string, []byte, bool) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if len(w.order) == 0 {
		return "", nil, false
	}
	key := w.order[0]
	w.order = w.order[1:]
	doc := w.pending[key]
	delete(w.pending, key)
	return key, doc, true
}

func (w *Writer) writeWithRetry(ctx context.Context, key string, doc []byte) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		writeCtx, cancel := context.WithTimeout(ctx, w.config.WriteTimeout)
		err := w.repo.Save(writeCtx, key, doc)
		cancel()
		if err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("key", key).
				Int("attempt", attempt+1).
				Msg("failed to save document, retrying")
			continue
		}

		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}

// Running reports whether the writer goroutine has been started and not stopped
func (w *Writer) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Pending returns the number of documents waiting to be written
func (w *Writer) Pending() int {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return len(w.order)
}
