package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"shoplink/internal/domain/entity"
	"shoplink/internal/infrastructure/socket"
	"shoplink/pkg/logger"
)

// Subscriber is the transport adapter surface the sync layer needs.
type Subscriber interface {
	Subscribe(event string, h socket.Handler) (func(), error)
}

// ChatSync wires pushed events through the cache into the presence
// state: idempotent append, thread-list invalidation, then an unread/read
// decision depending on widget visibility.
type ChatSync struct {
	socket    Subscriber
	cache     *ChatCache
	presence  *PresenceStore
	viewerID  string
	mediaBase string
	greeting  string
}

func NewChatSync(sub Subscriber, cache *ChatCache, presence *PresenceStore, viewerID, mediaBase, greeting string) *ChatSync {
	return &ChatSync{
		socket:    sub,
		cache:     cache,
		presence:  presence,
		viewerID:  viewerID,
		mediaBase: mediaBase,
		greeting:  greeting,
	}
}

// Follow subscribes to a thread's message events; the returned function
// unsubscribes. Events are already scoped by name, but the handler still
// re-checks the thread id as a guard against stale subscriptions.
func (s *ChatSync) Follow(threadID string) (func(), error) {
	return s.socket.Subscribe(socket.MessageEvent(threadID), func(payload json.RawMessage) {
		var msg entity.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Warn("sync: dropping undecodable message event: %v", err)
			return
		}
		if msg.ChatID == "" {
			msg.ChatID = threadID
		}
		if msg.ChatID != threadID {
			logger.Debug("sync: dropping event for thread %s on subscription %s", msg.ChatID, threadID)
			return
		}

		if !s.cache.AppendIfAbsent(threadID, msg) {
			return
		}
		s.cache.Invalidate(TagThreadList)

		if !msg.IsFromViewer(s.viewerID) {
			s.presence.Dispatch(ReceiveMessage{Message: msg})
		}
	})
}

// Open opens the widget on a thread, seeding the greeting when the
// thread has no backlog yet.
func (s *ChatSync) Open(thread entity.Thread) entity.PresenceState {
	greeting := entity.Message{
		ID:        uuid.NewString(),
		ChatID:    thread.ID,
		SenderID:  thread.Counterparty(s.viewerID).ID,
		Text:      s.greeting,
		CreatedAt: time.Now(),
	}
	return s.presence.Dispatch(OpenChat{ThreadID: thread.ID, Greeting: greeting})
}

// Conversation returns the render-ready message list for a thread.
func (s *ChatSync) Conversation(ctx context.Context, threadID string) ([]RenderedMessage, error) {
	messages, err := s.cache.Messages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return BuildConversation(messages, s.viewerID, s.mediaBase), nil
}
