package session

import (
	"sync"

	"realtime/internal/models"
)

// Hub manages channel membership for all live connections. Rooms are created
// on first join and garbage-collected when their last member leaves.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

func (h *Hub) get(name string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[name]
	return r, ok
}

// Join adds the client to the named channel; idempotent. The hub lock is held
// across room lookup and member add so a concurrent Leave cannot delete the
// room between the two steps and strand the joiner in an orphaned Room.
func (h *Hub) Join(channel string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[channel]
	if !ok {
		r = NewRoom(channel)
		h.rooms[channel] = r
	}
	r.Join(c)
}

// Leave removes the client from the named channel, deleting the room once it
// is empty. Leaving an unknown channel is a no-op.
func (h *Hub) Leave(channel string, c *Client) {
	r, ok := h.get(channel)
	if !ok {
		return
	}
	if left := r.Leave(c); left == 0 {
		h.mu.Lock()
		if r.ClientCount() == 0 {
			delete(h.rooms, channel)
		}
		h.mu.Unlock()
	}
}

// LeaveAll releases every channel membership the client holds. Called on
// disconnect, after presence has been purged and broadcast.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for name, r := range h.rooms {
		if r.Leave(c) == 0 {
			delete(h.rooms, name)
		}
	}
}

// IsMember reports whether the client currently belongs to the channel.
func (h *Hub) IsMember(channel string, c *Client) bool {
	r, ok := h.get(channel)
	return ok && r.Contains(c)
}

// Broadcast sends a frame to every member of the channel. Unknown channels
// are a no-op: nobody is listening.
func (h *Hub) Broadcast(channel string, frame models.WSFrame) {
	if r, ok := h.get(channel); ok {
		r.Broadcast(frame)
	}
}

// BroadcastExcept sends a frame to every member of the channel except sender.
func (h *Hub) BroadcastExcept(channel string, sender *Client, frame models.WSFrame) {
	if r, ok := h.get(channel); ok {
		r.BroadcastExcept(sender, frame)
	}
}

// RoomCount reports the number of live channels, for metrics.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
