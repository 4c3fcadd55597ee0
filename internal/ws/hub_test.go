package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client that is never pumped; tests read its send
// channel directly.
func newTestClient(hub *Hub) *Client {
	c := NewClient(hub, nil, "tok")
	hub.registerClient(c)
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case event := <-c.send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	hub := NewHub(nil)
	in := newTestClient(hub)
	other := newTestClient(hub)
	outside := newTestClient(hub)

	hub.JoinRoom(in, "room-1")
	hub.JoinRoom(other, "room-1")
	hub.JoinRoom(outside, "room-2")

	hub.BroadcastToRoom(context.Background(), "room-1", []byte("hello"))

	assert.Equal(t, []byte("hello"), receive(t, in))
	assert.Equal(t, []byte("hello"), receive(t, other))
	assert.Empty(t, outside.send)
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub)

	hub.JoinRoom(client, "room-1")
	require.Equal(t, 1, hub.RoomSize("room-1"))

	hub.LeaveRoom(client, "room-1")
	assert.Equal(t, 0, hub.RoomSize("room-1"))

	hub.BroadcastToRoom(context.Background(), "room-1", []byte("hello"))
	assert.Empty(t, client.send)
}

func TestUnregisterClearsRoomMemberships(t *testing.T) {
	hub := NewHub(nil)
	client := newTestClient(hub)

	hub.JoinRoom(client, "room-1")
	hub.JoinRoom(client, "room-2")

	hub.unregisterClient(client)

	assert.Equal(t, 0, hub.RoomSize("room-1"))
	assert.Equal(t, 0, hub.RoomSize("room-2"))

	// send is closed so the write pump can wind down
	_, open := <-client.send
	assert.False(t, open)

	// A second unregister must be a no-op, not a double close
	hub.unregisterClient(client)
}

func TestSlowClientDoesNotBlockRoom(t *testing.T) {
	hub := NewHub(nil)
	slow := newTestClient(hub)
	hub.JoinRoom(slow, "room-1")

	// Fill the slow client's buffer past capacity; broadcasts must not block
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(slow.send)+16; i++ {
			hub.BroadcastToRoom(context.Background(), "room-1", []byte("x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on slow client")
	}
}
