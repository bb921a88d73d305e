package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnections(cm *ConnectionManager, n int) []*Connection {
	conns := make([]*Connection, n)
	for i := range conns {
		conns[i] = cm.newConnection(nil)
		cm.registerConnection(conns[i])
	}
	return conns
}

func TestBroadcast_Completeness(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	conns := newTestConnections(cm, 5)
	origin := conns[2]

	assert.Equal(t, 5, cm.Broadcast(origin, DeliverAll, []byte("all")))
	for _, c := range conns {
		require.Len(t, c.Send, 1)
		assert.Equal(t, "all", string(<-c.Send))
	}

	assert.Equal(t, 4, cm.Broadcast(origin, DeliverOthers, []byte("others")))
	for _, c := range conns {
		if c == origin {
			assert.Empty(t, c.Send)
			continue
		}
		require.Len(t, c.Send, 1)
		assert.Equal(t, "others", string(<-c.Send))
	}
}

func TestBroadcast_DropsFullConnection(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.SendBufferSize = 1
	cm := NewConnectionManager(cfg, nil)
	conns := newTestConnections(cm, 2)
	slow, fast := conns[0], conns[1]

	assert.Equal(t, 2, cm.Broadcast(nil, DeliverAll, []byte("1")))
	<-fast.Send

	assert.Equal(t, 1, cm.Broadcast(nil, DeliverAll, []byte("2")))
	assert.Equal(t, 1, cm.Count())

	// the slow connection keeps what it had queued, then its channel is closed
	assert.Equal(t, "1", string(<-slow.Send))
	_, open := <-slow.Send
	assert.False(t, open)

	assert.False(t, cm.SendTo(slow, []byte("3")))
	assert.True(t, cm.SendTo(fast, []byte("3")))
}

func TestUnregister_IsIdempotent(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	c := newTestConnections(cm, 1)[0]

	cm.unregisterConnection(c)
	cm.unregisterConnection(c)
	assert.Zero(t, cm.Count())
	assert.Zero(t, cm.Broadcast(nil, DeliverAll, []byte("x")))
}

func TestConnectionStats(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig(), nil)
	conns := newTestConnections(cm, 3)

	assert.True(t, conns[0].Bind("u-1"))
	assert.False(t, conns[0].Bind("u-2"))
	assert.Equal(t, "u-1", conns[0].UserUUID())

	stats := cm.GetConnectionStats()
	assert.Equal(t, 3, stats.TotalConnections)
	assert.Equal(t, 1, stats.BoundUsers)

	cm.CloseAll()
	assert.Zero(t, cm.Count())
}
