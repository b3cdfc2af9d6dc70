package relay

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawboard/internal/board"
	"drawboard/internal/models"
	"drawboard/internal/session"
	"drawboard/internal/utils"
)

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func newRelay(t *testing.T, client *redis.Client) (*Relay, *board.Store, *session.Hub) {
	store := board.NewStore()
	hub := session.NewHub()
	rl := New(client, store, hub, utils.NewLogger())
	t.Cleanup(rl.Close)
	return rl, store, hub
}

func captureClient(room *session.Room) *[]models.WSFrame {
	frames := &[]models.WSFrame{}
	c := session.NewClient(nil)
	c.SetSendHook(func(f models.WSFrame) { *frames = append(*frames, f) })
	room.Join(c)
	return frames
}

func remoteSegment() *models.Operation {
	return &models.Operation{
		From:  &models.Point{X: 1, Y: 1},
		To:    &models.Point{X: 2, Y: 2},
		Color: "red",
		Width: 2,
		Mode:  models.ModeBrush,
	}
}

func TestApplyRemoteOp(t *testing.T) {
	_, client := setupTestRedis(t)
	rl, store, hub := newRelay(t, client)

	room := hub.GetOrCreate("r")
	frames := captureClient(room)

	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindOp, Op: remoteSegment()})

	assert.Equal(t, 1, store.Len("r"))
	require.Len(t, *frames, 1)
	assert.Equal(t, "draw", (*frames)[0].Type)
}

func TestApplyRemoteOpClearsLocalRedoChain(t *testing.T) {
	_, client := setupTestRedis(t)
	rl, store, _ := newRelay(t, client)

	store.Append("r", *remoteSegment())
	store.Undo("r")

	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindOp, Op: remoteSegment()})

	// a remote append is still an append: redo must now be a no-op
	history := store.Redo("r")
	assert.Len(t, history, 1)
}

func TestApplyInvalidRemoteOpDropped(t *testing.T) {
	_, client := setupTestRedis(t)
	rl, store, _ := newRelay(t, client)

	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindOp, Op: &models.Operation{Type: "blob"}})
	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindOp})

	assert.Equal(t, 0, store.Len("r"))
}

func TestApplyRemoteHistory(t *testing.T) {
	_, client := setupTestRedis(t)
	rl, store, hub := newRelay(t, client)

	store.Append("r", *remoteSegment())
	store.Append("r", *remoteSegment())

	room := hub.GetOrCreate("r")
	frames := captureClient(room)

	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindHistory, History: []models.Operation{*remoteSegment()}})

	assert.Equal(t, 1, store.Len("r"))
	require.Len(t, *frames, 1)
	assert.Equal(t, "redraw", (*frames)[0].Type)

	// nil history means the remote rewound to empty
	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindHistory})
	assert.Equal(t, 0, store.Len("r"))
	require.Len(t, *frames, 2)
	assert.NotNil(t, (*frames)[1].Data)
}

func TestApplyRemoteCursorNotPersisted(t *testing.T) {
	_, client := setupTestRedis(t)
	rl, store, hub := newRelay(t, client)

	room := hub.GetOrCreate("r")
	frames := captureClient(room)

	rl.Apply(Event{InstanceID: "other", Room: "r", Kind: KindCursor, Cursor: &models.CursorOut{ID: "x", X: 1, Y: 2, Color: "red"}})

	assert.Equal(t, 0, store.Len("r"))
	require.Len(t, *frames, 1)
	assert.Equal(t, "cursor", (*frames)[0].Type)
}

func TestSubscribeAppliesEventsFromOtherInstances(t *testing.T) {
	_, client := setupTestRedis(t)

	publisher, _, _ := newRelay(t, client)
	subscriber, store, _ := newRelay(t, client)
	subscriber.Start()

	// give the subscriber a moment to attach before publishing
	time.Sleep(50 * time.Millisecond)

	publisher.PublishOp("r", *remoteSegment())

	assert.Eventually(t, func() bool {
		return store.Len("r") == 1
	}, 2*time.Second, 10*time.Millisecond, "remote op never applied")
}

func TestSubscribeSkipsOwnInstance(t *testing.T) {
	_, client := setupTestRedis(t)

	rl, store, _ := newRelay(t, client)
	rl.Start()
	time.Sleep(50 * time.Millisecond)

	rl.PublishOp("r", *remoteSegment())

	// own events must not be re-applied locally
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, store.Len("r"))
}

func TestInstanceIDsAreUnique(t *testing.T) {
	_, client := setupTestRedis(t)
	a, _, _ := newRelay(t, client)
	b, _, _ := newRelay(t, client)
	assert.NotEmpty(t, a.InstanceID())
	assert.NotEqual(t, a.InstanceID(), b.InstanceID())
}
