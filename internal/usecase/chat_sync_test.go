package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoplink/internal/domain/entity"
	"shoplink/internal/infrastructure/socket"
)

type fakeSubscriber struct {
	handlers map[string]socket.Handler
}

func (f *fakeSubscriber) Subscribe(event string, h socket.Handler) (func(), error) {
	if f.handlers == nil {
		f.handlers = make(map[string]socket.Handler)
	}
	f.handlers[event] = h
	return func() { delete(f.handlers, event) }, nil
}

func (f *fakeSubscriber) push(t *testing.T, event string, msg entity.Message) {
	t.Helper()
	h, ok := f.handlers[event]
	require.True(t, ok, "no handler for %s", event)
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	h(raw)
}

func newSync(sub *fakeSubscriber) (*ChatSync, *ChatCache, *PresenceStore) {
	cache := NewChatCache(nil, nil, FetchPolicy{})
	presence := NewPresenceStore(nil)
	sync := NewChatSync(sub, cache, presence, "me", "https://cdn.example.com", "Hi there!")
	return sync, cache, presence
}

func TestFollowAppliesEventOnce(t *testing.T) {
	sub := &fakeSubscriber{}
	sync, cache, presence := newSync(sub)

	_, err := sync.Follow("t1")
	require.NoError(t, err)

	msg := entity.Message{ID: "m1", ChatID: "t1", SenderID: "shop-1", Text: "hi", CreatedAt: time.Now()}
	event := socket.MessageEvent("t1")
	sub.push(t, event, msg)
	sub.push(t, event, msg) // duplicate delivery

	assert.Len(t, cache.Snapshot("t1"), 1)
	assert.Equal(t, 1, presence.State().UnreadCount)
}

func TestFollowIgnoresSelfEchoForUnread(t *testing.T) {
	sub := &fakeSubscriber{}
	sync, cache, presence := newSync(sub)

	_, err := sync.Follow("t1")
	require.NoError(t, err)

	sub.push(t, socket.MessageEvent("t1"), entity.Message{ID: "m1", ChatID: "t1", SenderID: "me", Text: "mine", CreatedAt: time.Now()})

	assert.Len(t, cache.Snapshot("t1"), 1)
	assert.Equal(t, 0, presence.State().UnreadCount)
}

func TestFollowDropsForeignThreadEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	sync, cache, _ := newSync(sub)

	_, err := sync.Follow("t1")
	require.NoError(t, err)

	// Defensive check against stale subscriptions: the adapter does not
	// filter payloads, the handler does.
	sub.push(t, socket.MessageEvent("t1"), entity.Message{ID: "m1", ChatID: "t2", SenderID: "shop-1", Text: "wrong room", CreatedAt: time.Now()})

	assert.Empty(t, cache.Snapshot("t1"))
	assert.Empty(t, cache.Snapshot("t2"))
}

func TestUnfollowStopsDelivery(t *testing.T) {
	sub := &fakeSubscriber{}
	sync, _, _ := newSync(sub)

	stop, err := sync.Follow("t1")
	require.NoError(t, err)
	stop()

	_, ok := sub.handlers[socket.MessageEvent("t1")]
	assert.False(t, ok)
}

func TestOpenSeedsGreeting(t *testing.T) {
	sub := &fakeSubscriber{}
	sync, _, _ := newSync(sub)

	thread := entity.Thread{
		ID:       "t1",
		Customer: entity.Participant{ID: "me", Type: entity.ParticipantCustomer},
		Shop:     entity.Participant{ID: "shop-1", Type: entity.ParticipantShop},
	}
	state := sync.Open(thread)

	assert.Equal(t, entity.WidgetMaximized, state.Mode())
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "Hi there!", state.Messages[0].Text)
	assert.Equal(t, "shop-1", state.Messages[0].AuthorID())
	assert.Equal(t, 1, state.UnreadCount)
}

func TestConversationRendersCachePage(t *testing.T) {
	sub := &fakeSubscriber{}
	sync, cache, _ := newSync(sub)

	cache.AppendIfAbsent("t1", entity.Message{ID: "m1", ChatID: "t1", SenderID: "shop-1", Image: "/chat/pic.png", CreatedAt: time.Now()})

	rendered, err := sync.Conversation(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Equal(t, AuthorCounterparty, rendered[0].Author)
	assert.Equal(t, "https://cdn.example.com/chat/pic.png", rendered[0].ImageURL)
}
