package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"drawboard/internal/board"
	"drawboard/internal/metrics"
	"drawboard/internal/models"
	"drawboard/internal/relay"
	"drawboard/internal/session"
	"drawboard/internal/utils"
)

// DefaultRoom is used when a connection's handshake carries no room name.
const DefaultRoom = "default"

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handlers is the room coordinator: it binds inbound connections to rooms
// and mediates between transport events, the board store and the session
// registry.
type Handlers struct {
	log   *utils.Logger
	store *board.Store
	hub   *session.Hub
	relay *relay.Relay
}

// NewHandlers wires the coordinator. rl may be nil when cross-instance
// relaying is disabled.
func NewHandlers(log *utils.Logger, store *board.Store, hub *session.Hub, rl *relay.Relay) *Handlers {
	return &Handlers{log: log, store: store, hub: hub, relay: rl}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// RoomStatus reports a snapshot of one room: connected participants and the
// size of its drawing history.
func (h *Handlers) RoomStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "room")
	if name == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	status := models.RoomStatus{
		Room:       name,
		Users:      map[string]string{},
		Operations: h.store.Len(name),
	}
	if room, ok := h.hub.Get(name); ok {
		status.Users = room.Colors()
		status.Participants = room.ClientCount()
	}
	writeJSON(w, status)
}

// BoardWS is the per-connection protocol loop. The room name comes from the
// ?room= handshake parameter; absent or empty means the default room.
func (h *Handlers) BoardWS(w http.ResponseWriter, r *http.Request) {
	roomName := r.URL.Query().Get("room")
	if roomName == "" {
		roomName = DefaultRoom
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn)
	room := h.hub.GetOrCreate(roomName)

	// Membership, presence refresh and late-joiner catch-up happen as one
	// critical section: no concurrent draw can reach this client before the
	// redraw that anchors its canvas.
	room.JoinAndSync(client, func() models.WSFrame {
		return models.WSFrame{Type: "redraw", Data: h.store.Get(roomName)}
	})
	metrics.ConnOpened()
	h.log.Info("client joined", "room", roomName, "id", client.ID, "color", client.Color)

	defer func() {
		metrics.ConnClosed()
		if left := room.Leave(client); left == 0 {
			h.hub.Delete(roomName)
		} else {
			room.BroadcastAll(models.WSFrame{Type: "users", Data: room.Colors()})
		}
		h.log.Info("client left", "room", roomName, "id", client.ID)
	}()

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case "draw":
			var op models.Operation
			remarshal(frame.Data, &op)
			if err := op.Validate(); err != nil {
				h.log.Warn("dropping malformed operation", "room", roomName, "id", client.ID, "error", err.Error())
				continue
			}
			h.store.Append(roomName, op)
			metrics.OpApplied(op.Kind())
			room.Broadcast(client, models.WSFrame{Type: "draw", Data: op})
			if h.relay != nil {
				h.relay.PublishOp(roomName, op)
			}

		case "undo":
			history := h.store.Undo(roomName)
			metrics.Rewind("undo")
			room.BroadcastAll(models.WSFrame{Type: "redraw", Data: history})
			if h.relay != nil {
				h.relay.PublishHistory(roomName, history)
			}

		case "redo":
			history := h.store.Redo(roomName)
			metrics.Rewind("redo")
			room.BroadcastAll(models.WSFrame{Type: "redraw", Data: history})
			if h.relay != nil {
				h.relay.PublishHistory(roomName, history)
			}

		case "cursor":
			var cur models.CursorIn
			remarshal(frame.Data, &cur)
			out := models.CursorOut{ID: client.ID, X: cur.X, Y: cur.Y, Color: client.Color}
			room.Broadcast(client, models.WSFrame{Type: "cursor", Data: out})
			if h.relay != nil {
				h.relay.PublishCursor(roomName, out)
			}

		default:
			h.log.Warn("ignoring unknown frame", "room", roomName, "type", frame.Type)
		}
	}
}

func remarshal(in any, out any) { b, _ := json.Marshal(in); _ = json.Unmarshal(b, out) }

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
