package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TypeGameUpdate tells subscribers of a game room that its state changed.
const TypeGameUpdate = "game_update"

// RoomForGame names the room clients of gameID subscribe to.
func RoomForGame(gameID string) string { return "game:" + gameID }

// Hub manages websocket clients and room-based broadcasts.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Broadcast
	count      chan chan int

	quit     chan struct{}
	stopOnce sync.Once

	rooms map[string]map[*Client]bool
	log   *zap.Logger
}

type Broadcast struct {
	Room    string
	Type    string
	Payload any
}

// Message is the frame written to every client.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Broadcast, 256),
		count:      make(chan chan int),
		quit:       make(chan struct{}),
		rooms:      map[string]map[*Client]bool{},
		log:        log.Named("hub"),
	}
}

// Run serves the hub until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			for room, clients := range h.rooms {
				for c := range clients {
					c.closeSend()
				}
				delete(h.rooms, room)
			}
			return
		case c := <-h.register:
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = map[*Client]bool{}
			}
			h.rooms[c.Room][c] = true
		case c := <-h.unregister:
			h.removeClient(c)
		case b := <-h.broadcast:
			h.broadcastToRoom(b.Room, b.Type, b.Payload)
		case reply := <-h.count:
			n := 0
			for _, clients := range h.rooms {
				n += len(clients)
			}
			reply <- n
		}
	}
}

// Stop ends Run. Register, Unregister and Broadcast become no-ops afterwards.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		c.closeSend()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast queues a message for every client in room. It drops the message
// rather than block when the hub is backed up.
func (h *Hub) Broadcast(room, typ string, payload any) {
	select {
	case h.broadcast <- Broadcast{Room: room, Type: typ, Payload: payload}:
	case <-h.quit:
	default:
		h.log.Warn("broadcast queue full, dropping", zap.String("room", room), zap.String("type", typ))
	}
}

// Clients returns the number of connected clients across all rooms.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.quit:
		return 0
	}
}

func (h *Hub) removeClient(c *Client) {
	if c == nil {
		return
	}
	if h.rooms[c.Room] != nil {
		delete(h.rooms[c.Room], c)
		if len(h.rooms[c.Room]) == 0 {
			delete(h.rooms, c.Room)
		}
	}
	c.closeSend()
}

func (h *Hub) broadcastToRoom(room, typ string, payload any) {
	clients := h.rooms[room]
	if len(clients) == 0 {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("broadcast marshal payload", zap.String("room", room), zap.String("type", typ), zap.Error(err))
		return
	}
	data, err := json.Marshal(Message{
		Type:      typ,
		Payload:   raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		h.log.Error("broadcast marshal", zap.String("room", room), zap.String("type", typ), zap.Error(err))
		return
	}

	for c := range clients {
		select {
		case c.Send <- data:
		default:
			// Backpressure / dead client.
			h.removeClient(c)
		}
	}
}
