package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/models"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu    sync.Mutex
	saves map[string]int
	docs  map[string]any
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{saves: map[string]int{}, docs: map[string]any{}}
}

func (p *recordingPersister) Save(key string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves[key]++
	p.docs[key] = v
}

func (p *recordingPersister) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves[key]
}

type testEngine struct {
	*Engine
	hub       *ConnectionManager
	store     *collections.Store
	persister *recordingPersister
	clock     *clockwork.FakeClock
}

func newTestEngine(t *testing.T, categories ...models.Category) *testEngine {
	t.Helper()

	store := collections.NewStore(collections.Snapshot{Categories: categories})
	hub := NewConnectionManager(DefaultConnectionConfig(), nil)
	persister := newRecordingPersister()
	clock := clockwork.NewFakeClock()

	engine := NewEngine(EngineConfig{
		Store:     store,
		Hub:       hub,
		Persister: persister,
		Clock:     clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	engine.ctx = ctx
	t.Cleanup(func() {
		cancel()
		engine.Countdown().Wait()
	})

	return &testEngine{Engine: engine, hub: hub, store: store, persister: persister, clock: clock}
}

// connect registers a connection with no socket behind it; frames queued for
// it stay in its Send channel.
func (te *testEngine) connect() *Connection {
	c := te.hub.newConnection(nil)
	te.hub.registerConnection(c)
	return c
}

func frame(t *testing.T, event, ack string, data any) []byte {
	t.Helper()
	msg := Message{Event: event, Ack: ack, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	out, err := json.Marshal(msg)
	require.NoError(t, err)
	return out
}

// send runs one event through the engine synchronously
func (te *testEngine) send(t *testing.T, c *Connection, event, ack string, data any) {
	t.Helper()
	te.handleFrame(c, frame(t, event, ack, data))
}

// drain returns every frame queued on c without blocking
func drain(t *testing.T, c *Connection) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(raw, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

// next waits for the next frame queued on c
func next(t *testing.T, c *Connection) Message {
	t.Helper()
	select {
	case raw := <-c.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Message{}
	}
}

func events(msgs []Message) []string {
	names := make([]string, len(msgs))
	for i, m := range msgs {
		names[i] = m.Event
	}
	return names
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func bestPicture() models.Category {
	return models.Category{
		Name:  "Best Picture",
		Value: 50,
		Nominees: []models.Nominee{
			{Title: "Argo"},
			{Title: "Lincoln"},
		},
	}
}
