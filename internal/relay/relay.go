package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"drawboard/internal/board"
	"drawboard/internal/models"
	"drawboard/internal/session"
	"drawboard/internal/utils"
)

const eventsChannel = "drawboard:events"

// Event kinds carried over the Redis channel.
const (
	KindOp      = "op"      // one appended operation
	KindHistory = "history" // full post-rewind history
	KindCursor  = "cursor"  // ephemeral cursor position
)

// Event is one room mutation relayed between service instances.
type Event struct {
	InstanceID string             `json:"instanceId"`
	Room       string             `json:"room"`
	Kind       string             `json:"kind"`
	Op         *models.Operation  `json:"op,omitempty"`
	History    []models.Operation `json:"history,omitempty"`
	Cursor     *models.CursorOut  `json:"cursor,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Relay mirrors room mutations between instances through Redis pub/sub so
// clients of one instance see drawing from clients of another. Delivery is
// best-effort: a missed event is reconciled by the next full-history rewind.
// Per-instance presence lists are not merged.
type Relay struct {
	rdb        *redis.Client
	store      *board.Store
	hub        *session.Hub
	log        *utils.Logger
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
}

func New(rdb *redis.Client, store *board.Store, hub *session.Hub, log *utils.Logger) *Relay {
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		rdb:        rdb,
		store:      store,
		hub:        hub,
		log:        log,
		instanceID: uuid.New().String(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// InstanceID identifies this relay in published events.
func (rl *Relay) InstanceID() string { return rl.instanceID }

// Start launches the subscriber goroutine.
func (rl *Relay) Start() {
	go rl.subscribe()
}

// Close stops the subscriber.
func (rl *Relay) Close() { rl.cancel() }

func (rl *Relay) PublishOp(room string, op models.Operation) {
	rl.publish(Event{Room: room, Kind: KindOp, Op: &op})
}

func (rl *Relay) PublishHistory(room string, history []models.Operation) {
	rl.publish(Event{Room: room, Kind: KindHistory, History: history})
}

func (rl *Relay) PublishCursor(room string, cursor models.CursorOut) {
	rl.publish(Event{Room: room, Kind: KindCursor, Cursor: &cursor})
}

func (rl *Relay) publish(event Event) {
	event.InstanceID = rl.instanceID
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		rl.log.Error("relay: marshal event", "kind", event.Kind, "error", err.Error())
		return
	}
	if err := rl.rdb.Publish(rl.ctx, eventsChannel, data).Err(); err != nil {
		rl.log.Warn("relay: publish failed", "kind", event.Kind, "room", event.Room, "error", err.Error())
	}
}

func (rl *Relay) subscribe() {
	pubsub := rl.rdb.Subscribe(rl.ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	rl.log.Info("relay: subscribed", "channel", eventsChannel, "instance", rl.instanceID)

	for {
		select {
		case <-rl.ctx.Done():
			rl.log.Info("relay: stopping subscriber", "instance", rl.instanceID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				rl.log.Warn("relay: bad event payload", "error", err.Error())
				continue
			}
			if event.InstanceID == rl.instanceID {
				continue
			}
			rl.Apply(event)
		}
	}
}

// Apply folds a remote event into local state and fans it out to locally
// connected clients. All local clients are peers of the remote sender, so
// every frame goes to everyone in the room.
func (rl *Relay) Apply(event Event) {
	switch event.Kind {
	case KindOp:
		if event.Op == nil || event.Op.Validate() != nil {
			rl.log.Warn("relay: dropping invalid remote operation", "room", event.Room)
			return
		}
		rl.store.Append(event.Room, *event.Op)
		if room, ok := rl.hub.Get(event.Room); ok {
			room.BroadcastAll(models.WSFrame{Type: "draw", Data: *event.Op})
		}
	case KindHistory:
		if event.History == nil {
			event.History = []models.Operation{}
		}
		rl.store.Replace(event.Room, event.History)
		if room, ok := rl.hub.Get(event.Room); ok {
			room.BroadcastAll(models.WSFrame{Type: "redraw", Data: event.History})
		}
	case KindCursor:
		if event.Cursor == nil {
			return
		}
		if room, ok := rl.hub.Get(event.Room); ok {
			room.BroadcastAll(models.WSFrame{Type: "cursor", Data: *event.Cursor})
		}
	default:
		rl.log.Warn("relay: unknown event kind", "kind", event.Kind)
	}
}
