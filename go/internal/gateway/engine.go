package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/countdown"
	"github.com/rs/zerolog/log"
)

// Metrics is the set of gateway measurements; metrics.Collector implements it
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionDropped()
	RecordEvent(event string, success bool, duration time.Duration)
	RecordBroadcast(event, mode string, recipients int)
}

type noopMetrics struct{}

func (noopMetrics) ConnectionOpened()                       {}
func (noopMetrics) ConnectionClosed()                       {}
func (noopMetrics) ConnectionDropped()                      {}
func (noopMetrics) RecordEvent(string, bool, time.Duration) {}
func (noopMetrics) RecordBroadcast(string, string, int)     {}

// Persister queues a collection document for writing; persistence.Writer implements it
type Persister interface {
	Save(key string, v any)
}

// Mirror receives a copy of every broadcast; eventlog.Publisher implements it
type Mirror interface {
	Mirror(event, delivery string, payload json.RawMessage)
}

type inboundFrame struct {
	conn  *Connection
	frame []byte
}

// EngineConfig wires the engine to its collaborators. Persister, Mirror,
// Metrics and Clock are optional.
type EngineConfig struct {
	Store     *collections.Store
	Hub       *ConnectionManager
	Persister Persister
	Mirror    Mirror
	Metrics   Metrics
	Clock     countdown.Clock
	InboxSize int
}

// Engine applies every inbound event and every countdown fire one at a time.
// Run is the only goroutine that mutates the store.
type Engine struct {
	store     *collections.Store
	hub       *ConnectionManager
	persister Persister
	mirror    Mirror
	metrics   Metrics
	countdown *countdown.Controller
	handlers  map[string]handlerFunc

	inbox chan inboundFrame
	locks chan string

	// ctx is the Run context; countdown timers stop when it is cancelled
	ctx     context.Context
	stopped chan struct{}
}

// NewEngine creates an engine and its countdown controller
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}

	e := &Engine{
		store:     cfg.Store,
		hub:       cfg.Hub,
		persister: cfg.Persister,
		mirror:    cfg.Mirror,
		metrics:   cfg.Metrics,
		handlers:  defaultHandlers(),
		inbox:     make(chan inboundFrame, cfg.InboxSize),
		locks:     make(chan string),
		ctx:       context.Background(),
		stopped:   make(chan struct{}),
	}
	e.countdown = countdown.NewController(cfg.Clock, e.scheduleLock)
	return e
}

// Run processes frames and countdown fires until ctx is cancelled
func (e *Engine) Run(ctx context.Context) {
	e.ctx = ctx
	defer close(e.stopped)

	log.Info().Int("handlers", len(e.handlers)).Msg("event engine started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event engine shutting down")
			return
		case in := <-e.inbox:
			e.handleFrame(in.conn, in.frame)
		case name := <-e.locks:
			e.applyLock(name)
		}
	}
}

// Stopped is closed when Run returns
func (e *Engine) Stopped() <-chan struct{} {
	return e.stopped
}

// Submit hands a frame read from c to the engine. It blocks until the frame is
// queued so frames are never dropped or reordered, and reports false once the
// engine has stopped.
func (e *Engine) Submit(c *Connection, frame []byte) bool {
	select {
	case e.inbox <- inboundFrame{conn: c, frame: frame}:
		return true
	case <-e.stopped:
		return false
	}
}

// Countdown exposes the countdown controller, mainly so shutdown can wait on it
func (e *Engine) Countdown() *countdown.Controller {
	return e.countdown
}

// scheduleLock runs on a timer goroutine and routes the fire into Run
func (e *Engine) scheduleLock(categoryName string) {
	select {
	case e.locks <- categoryName:
	case <-e.stopped:
		e.countdown.Complete(categoryName)
	}
}

func (e *Engine) handleFrame(c *Connection, frame []byte) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", c.ID).
			Msg("dropping malformed frame")
		return
	}

	handler, ok := e.handlers[msg.Event]
	if !ok {
		log.Warn().
			Str("connection_id", c.ID).
			Str("event", msg.Event).
			Msg("unknown event")
		if msg.Ack != "" {
			e.reply(c, msg, Outcome{}, errUnknownEvent)
		}
		return
	}

	start := time.Now()
	outcome, err := handler(e, c, msg.Data)
	e.metrics.RecordEvent(msg.Event, err == nil, time.Since(start))

	if err != nil {
		log.Warn().
			Err(err).
			Str("connection_id", c.ID).
			Str("event", msg.Event).
			Msg("event rejected")
	} else {
		e.apply(c, outcome)
	}

	if msg.Ack != "" {
		e.reply(c, msg, outcome, err)
	}
}

// apply fans out the broadcasts of an outcome and then queues its documents
// for persistence.
func (e *Engine) apply(origin *Connection, outcome Outcome) {
	for _, b := range outcome.Broadcasts {
		e.broadcast(origin, b)
	}
	for _, key := range outcome.Persist {
		e.persist(key)
	}
}

func (e *Engine) broadcast(origin *Connection, b Broadcast) {
	msg, err := newMessage(b.Event, b.Data)
	if err != nil {
		log.Error().Err(err).Str("event", b.Event).Msg("failed to encode broadcast")
		return
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("event", b.Event).Msg("failed to encode broadcast")
		return
	}

	recipients := e.hub.Broadcast(origin, b.Delivery, frame)
	e.metrics.RecordBroadcast(b.Event, string(b.Delivery), recipients)

	if e.mirror != nil {
		e.mirror.Mirror(b.Event, string(b.Delivery), msg.Data)
	}

	log.Debug().
		Str("event", b.Event).
		Str("delivery", string(b.Delivery)).
		Int("recipients", recipients).
		Msg("event broadcasted")
}

func (e *Engine) persist(key collections.Key) {
	if e.persister == nil {
		return
	}
	switch key {
	case collections.KeyUsers:
		e.persister.Save(string(key), e.store.Users())
	case collections.KeyCategories:
		e.persister.Save(string(key), e.store.Categories())
	case collections.KeyBuzzes:
		e.persister.Save(string(key), e.store.Buzzes())
	default:
		log.Warn().Str("key", string(key)).Msg("collection is not persisted")
	}
}

func (e *Engine) reply(c *Connection, in Message, outcome Outcome, handlerErr error) {
	out := Message{Event: in.Event, Ack: in.Ack, Timestamp: time.Now().UTC()}
	if handlerErr != nil {
		out.Error = errorCode(handlerErr)
	} else {
		data, err := json.Marshal(outcome.Reply)
		if err != nil {
			log.Error().Err(err).Str("event", in.Event).Msg("failed to encode reply")
			out.Error = "internal_error"
		} else {
			out.Data = data
		}
	}

	frame, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("event", in.Event).Msg("failed to encode reply")
		return
	}
	e.hub.SendTo(c, frame)
}

// applyLock is the countdown fire turn: lock, broadcast, persist, then release
// the category for another countdown.
func (e *Engine) applyLock(categoryName string) {
	defer e.countdown.Complete(categoryName)

	category, err := e.store.LockCategory(categoryName)
	if err != nil {
		log.Error().
			Err(err).
			Str("category", categoryName).
			Msg("failed to lock category")
		return
	}

	log.Info().Str("category", categoryName).Msg("category locked")

	e.apply(nil, Outcome{
		Broadcasts: []Broadcast{{Event: EventCategoryUpdate, Delivery: DeliverAll, Data: category}},
		Persist:    []collections.Key{collections.KeyCategories},
	})
}

var errUnknownEvent = errors.New("unknown event")

// errorCode maps handler errors onto the short codes sent to clients
func errorCode(err error) string {
	switch {
	case errors.Is(err, collections.ErrNotFound):
		return "not_found"
	case errors.Is(err, collections.ErrMissingKey):
		return "missing_key"
	case errors.Is(err, collections.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, collections.ErrNameTaken):
		return "name_taken"
	case errors.Is(err, collections.ErrInvalidUser):
		return "invalid_user"
	case errors.Is(err, collections.ErrCategoryLocked):
		return "category_locked"
	case errors.Is(err, countdown.ErrCountdownInProgress):
		return "countdown_in_progress"
	case errors.Is(err, countdown.ErrInvalidDelay):
		return "invalid_delay"
	case errors.Is(err, countdown.ErrDelayTooLong):
		return "delay_too_long"
	case errors.Is(err, errUnknownEvent):
		return "unknown_event"
	case errors.Is(err, errBadPayload):
		return "bad_payload"
	default:
		return "internal_error"
	}
}
