package session

import (
	"sync"

	"realtime/internal/models"
)

// Room is the membership of one broadcast channel ("project:7", "story:42").
// Rooms carry no entity state of their own; they only fan frames out.
type Room struct {
	Name    string
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewRoom(name string) *Room {
	return &Room{Name: name, clients: make(map[*Client]struct{})}
}

// Join adds the client to the room. Joining twice is equivalent to once.
func (r *Room) Join(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = struct{}{}
}

// Leave removes the client and returns the remaining member count. Leaving a
// room the client never joined is a no-op.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	return len(r.clients)
}

func (r *Room) Contains(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.clients[c]
	return ok
}

func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Broadcast sends a frame to every member, sender included. Presence updates
// use this so the originator's own UI converges too.
func (r *Room) Broadcast(frame models.WSFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		c.Send(frame)
	}
}

// BroadcastExcept sends a frame to every member but the given one. Typing
// indicators use this; the typist already knows locally.
func (r *Room) BroadcastExcept(sender *Client, frame models.WSFrame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		if c == sender {
			continue
		}
		c.Send(frame)
	}
}
