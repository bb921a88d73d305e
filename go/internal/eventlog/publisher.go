package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConfig struct {
	StreamName     string
	SubjectPrefix  string
	MaxAge         time.Duration // How long to keep messages
	MaxMsgs        int64         // Max number of messages to keep
	Replicas       int
	PublishTimeout time.Duration
	BufferSize     int
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		StreamName:     "SESSION_EVENTS",
		SubjectPrefix:  "session.events",
		MaxAge:         24 * time.Hour,
		MaxMsgs:        -1,
		Replicas:       1,
		PublishTimeout: 5 * time.Second,
		BufferSize:     1000,
	}
}

// Envelope is the message body written to the stream
type Envelope struct {
	EventID   string          `json:"eventId"`
	Event     string          `json:"event"`
	Delivery  string          `json:"delivery"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher mirrors every outbound broadcast onto a JetStream stream so that
// observers outside the websocket session (scoreboards, archives) can follow
// along. Mirroring is best effort: a full buffer drops the event.
type Publisher struct {
	js     jetstream.JetStream
	config JetStreamConfig
	queue  chan Envelope
	done   chan struct{}
}

func NewPublisher(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) (*Publisher, error) {
	p := &Publisher{
		js:     js,
		config: cfg,
		queue:  make(chan Envelope, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	if err := p.ensureStream(ctx); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return p, nil
}

func (p *Publisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.config.StreamName,
		Description: "Broadcasts from the live oscar night session",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		MaxMsgs:     p.config.MaxMsgs,
		Storage:     jetstream.FileStorage,
		Replicas:    p.config.Replicas,
	}

	if _, err := p.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("create or update stream: %w", err)
	}
	log.Info().Str("stream", p.config.StreamName).Msg("JetStream event stream ready")
	return nil
}

// Subject returns the subject an event is published on. Event names such as
// "user:update" become "session.events.user.update".
func (p *Publisher) Subject(event string) string {
	return fmt.Sprintf("%s.%s", p.config.SubjectPrefix, strings.ReplaceAll(event, ":", "."))
}

// Mirror queues a broadcast for publishing without blocking the caller
func (p *Publisher) Mirror(event, delivery string, payload json.RawMessage) {
	env := Envelope{
		EventID:   uuid.NewString(),
		Event:     event,
		Delivery:  delivery,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	select {
	case p.queue <- env:
	default:
		log.Warn().Str("event", event).Msg("event mirror buffer full, dropping event")
	}
}

// Run publishes queued envelopes until ctx is cancelled
func (p *Publisher) Run(ctx context.Context) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.queue:
			if err := p.publish(ctx, env); err != nil {
				log.Error().Err(err).Str("event", env.Event).Msg("failed to mirror event")
			}
		}
	}
}

// Done is closed once Run has returned
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

func (p *Publisher) publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.config.PublishTimeout)
	defer cancel()

	subject := p.Subject(env.Event)
	ack, err := p.js.PublishMsg(pubCtx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{env.Event},
			"Event-ID":   []string{env.EventID},
		},
	},
		jetstream.WithMsgID(env.EventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Uint64("sequence", ack.Sequence).
		Msg("mirrored event to JetStream")
	return nil
}
