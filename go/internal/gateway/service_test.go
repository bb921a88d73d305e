package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/oscarnight/go/internal/collections"
	"github.com/mcdev12/oscarnight/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestService(t *testing.T) (*Service, *httptest.Server, *recordingPersister) {
	t.Helper()

	store := collections.NewStore(collections.Snapshot{Categories: []models.Category{bestPicture()}})
	persister := newRecordingPersister()
	svc := NewService(DefaultConfig(), store, Dependencies{Persister: persister})

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})
	return svc, server, persister
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, event, ack string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame(t, event, ack, data)))
}

// readEvent reads frames until one with the given event arrives
func readEvent(t *testing.T, conn *websocket.Conn, event string) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Event == event {
			return msg
		}
	}
}

func TestService_ThreeClientSession(t *testing.T) {
	svc, server, persister := startTestService(t)

	c1, c2, c3 := dial(t, server), dial(t, server), dial(t, server)
	require.Eventually(t, func() bool { return svc.GetStats().TotalConnections == 3 }, 2*time.Second, 10*time.Millisecond)

	writeEvent(t, c1, EventUserRegister, "reg", "Alice")

	// c1 receives the full broadcast before its reply
	readEvent(t, c1, EventUserUpdate)
	reply := readEvent(t, c1, EventUserRegister)
	require.Equal(t, "reg", reply.Ack)
	alice := decode[models.User](t, reply.Data)
	require.NotEmpty(t, alice.UUID)

	for _, c := range []*websocket.Conn{c2, c3} {
		users := decode[[]models.User](t, readEvent(t, c, EventUserUpdate).Data)
		require.Len(t, users, 1)
		assert.Equal(t, alice.UUID, users[0].UUID)
	}

	// whole-record replacement: fields left out of the update are reset
	writeEvent(t, c2, EventUserUpdate, "", map[string]any{"uuid": alice.UUID, "name": "Alice", "braggingRights": 5})
	for _, c := range []*websocket.Conn{c1, c3} {
		echoed := decode[models.User](t, readEvent(t, c, EventUserUpdate).Data)
		assert.Equal(t, 5, echoed.BraggingRights)
	}

	// c2 gets nothing from its own update; the buzz it sends next is the first thing it sees
	writeEvent(t, c2, EventBuzzerBuzz, "", alice.UUID)
	require.NoError(t, c2.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := c2.ReadMessage()
	require.NoError(t, err)
	var first Message
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.Equal(t, EventBuzzerAllBuzzes, first.Event)
	assert.Equal(t, []string{alice.UUID}, decode[[]string](t, first.Data))

	require.Eventually(t, func() bool {
		return persister.count("users") == 2 && persister.count("buzzes") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return svc.GetStats().BoundUsers == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestService_ReadEndpoints(t *testing.T) {
	_, server, _ := startTestService(t)

	c := dial(t, server)
	writeEvent(t, c, EventUserRegister, "1", "Alice")
	alice := decode[models.User](t, readEvent(t, c, EventUserRegister).Data)
	writeEvent(t, c, EventBuzzerBuzz, "", alice.UUID)
	readEvent(t, c, EventBuzzerAllBuzzes)

	get := func(path string, v any) {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}

	var users []models.User
	get("/config/users.json", &users)
	require.Len(t, users, 1)
	assert.Equal(t, alice.UUID, users[0].UUID)

	var categories []models.Category
	get("/config/categories.json", &categories)
	require.Len(t, categories, 1)
	assert.Equal(t, "Best Picture", categories[0].Name)

	var buzzes []string
	get("/config/buzzes.json", &buzzes)
	assert.Equal(t, []string{alice.UUID}, buzzes)

	var trivia []json.RawMessage
	get("/config/triviaQuestions.json", &trivia)
	assert.Empty(t, trivia)

	var urls []string
	get("/networkURLs.json", &urls)
	assert.Empty(t, urls)

	var stats ConnectionStats
	get("/ws/stats", &stats)
	assert.Equal(t, 1, stats.TotalConnections)
}
