package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// roomChannel is the redis pub/sub channel for one room's events.
func roomChannel(room string) string {
	return fmt.Sprintf("room:%s:events", room)
}

const roomChannelPattern = "room:*:events"

// envelope wraps a broadcast for the redis fan-out so a hub can skip
// deliveries that originated from itself.
type envelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Event  json.RawMessage `json:"event"`
}

// Hub tracks connected clients and their room memberships and fans
// broadcasts out to every subscriber of a room. With a redis client the
// fan-out also crosses process boundaries over pub/sub.
type Hub struct {
	// Registered clients per room
	rooms map[string]map[*Client]bool

	// All registered clients
	clients map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Identifies this hub instance in pub/sub envelopes
	origin string

	rdb    *redis.Client
	pubsub *redis.PubSub

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

// NewHub creates a hub. rdb may be nil for a single-instance deployment;
// broadcasts then stay in-process.
func NewHub(rdb *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		origin:     uuid.New().String(),
		rdb:        rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		h.pubsub = h.rdb.PSubscribe(h.ctx, roomChannelPattern)
		go h.relayRemote()
	}

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("websocket hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	slog.Debug("client registered", "clientID", client.id)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.removeFromRoom(client, room)
	}
	close(client.send)
	slog.Debug("client unregistered", "clientID", client.id)
}

// JoinRoom subscribes client to room broadcasts.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	client.rooms[room] = true
}

// LeaveRoom drops client's subscription to room.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(client, room)
	delete(client.rooms, room)
}

// removeFromRoom requires h.mu to be held.
func (h *Hub) removeFromRoom(client *Client, room string) {
	if members := h.rooms[room]; members != nil {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize returns the number of local subscribers of room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom delivers event to every local subscriber of room and,
// when redis is configured, publishes it for the other instances.
func (h *Hub) BroadcastToRoom(ctx context.Context, room string, event []byte) {
	h.deliverLocal(room, event)

	if h.rdb == nil {
		return
	}
	env, err := json.Marshal(envelope{Origin: h.origin, Room: room, Event: event})
	if err != nil {
		slog.Error("marshal broadcast envelope", "error", err)
		return
	}
	if err := h.rdb.Publish(ctx, roomChannel(room), env).Err(); err != nil {
		slog.Error("publish room event", "room", room, "error", err)
	}
}

func (h *Hub) deliverLocal(room string, event []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.send <- event:
		default:
			// Slow consumer; drop the event rather than block the room
			slog.Warn("dropping event for slow client", "clientID", client.id, "room", room)
		}
	}
}

// relayRemote delivers broadcasts published by other hub instances.
func (h *Hub) relayRemote() {
	for {
		select {
		case msg, ok := <-h.pubsub.Channel():
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				slog.Error("decode broadcast envelope", "error", err)
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.deliverLocal(env.Room, env.Event)

		case <-h.ctx.Done():
			return
		}
	}
}
