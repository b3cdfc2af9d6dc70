package session

import (
	"math/rand"
	"sync"

	"drawboard/internal/models"
)

// Display colors assigned to participants. Two participants may end up with
// the same color; the protocol allows it.
var palette = []string{"red", "blue", "green", "purple", "orange"}

// Room is the presence registry for one board: the set of connected clients
// and their assigned display colors. Drawing history lives in the board
// store, not here.
type Room struct {
	Name    string
	mu      sync.Mutex
	clients map[*Client]struct{}
	colors  map[string]string
}

func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]struct{}),
		colors:  make(map[string]string),
	}
}

func (r *Room) joinLocked(c *Client) string {
	color := palette[rand.Intn(len(palette))]
	c.Color = color
	r.clients[c] = struct{}{}
	r.colors[c.ID] = color
	return color
}

// Join registers the client and assigns it a display color, returned for
// convenience and recorded on the client.
func (r *Room) Join(c *Client) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinLocked(c)
}

// JoinAndSync registers the client, refreshes presence, and delivers the
// catch-up frame to the joiner in one critical section. Because Broadcast
// snapshots its recipients under the same lock, no frame broadcast to the
// room can reach the joiner between membership and catch-up: the joiner
// always reconstructs the current canvas before any live event.
func (r *Room) JoinAndSync(c *Client, catchUp func() models.WSFrame) string {
	r.mu.Lock()
	color := r.joinLocked(c)
	users := models.WSFrame{Type: "users", Data: r.colorsLocked()}
	peers := r.peersLocked(c)
	c.Send(users)
	c.Send(catchUp())
	r.mu.Unlock()

	for _, peer := range peers {
		peer.Send(users)
	}
	return color
}

// Leave removes the client and reports how many participants remain.
func (r *Room) Leave(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, c)
	delete(r.colors, c.ID)
	return len(r.clients)
}

func (r *Room) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Room) colorsLocked() map[string]string {
	out := make(map[string]string, len(r.colors))
	for id, color := range r.colors {
		out[id] = color
	}
	return out
}

// Colors returns a snapshot of the connection id -> color map for the
// presence broadcast.
func (r *Room) Colors() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.colorsLocked()
}

func (r *Room) peersLocked(skip *Client) []*Client {
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		if c == skip {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *Room) recipients(skip *Client) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peersLocked(skip)
}

// Broadcast sends the frame to every participant except sender. Membership
// is snapshotted under the room lock; the writes happen outside it, so one
// slow peer cannot stall joins, leaves, or fan-out to the rest of the room.
func (r *Room) Broadcast(sender *Client, frame models.WSFrame) {
	for _, c := range r.recipients(sender) {
		c.Send(frame)
	}
}

// BroadcastAll sends the frame to every participant, sender included.
func (r *Room) BroadcastAll(frame models.WSFrame) {
	for _, c := range r.recipients(nil) {
		c.Send(frame)
	}
}
