package usecase

import (
	"sync"

	"shoplink/internal/domain/entity"
	"shoplink/pkg/logger"
)

// PresenceAction is the closed set of widget transitions.
type PresenceAction interface {
	presenceAction()
}

// OpenChat opens the widget maximized on a thread. Greeting is the
// synthetic message to seed when the thread has no backlog yet; an empty
// Greeting.ID disables seeding.
type OpenChat struct {
	ThreadID string
	Greeting entity.Message
}

type Minimize struct{}
type Maximize struct{}
type CloseChat struct{}
type TogglePin struct{}

type SetTyping struct {
	On bool
}

// ReceiveMessage records an incoming counterparty message. If the widget
// is open and maximized the message is read immediately; otherwise it
// stays unread and the counter grows.
type ReceiveMessage struct {
	Message entity.Message
}

func (OpenChat) presenceAction()       {}
func (Minimize) presenceAction()       {}
func (Maximize) presenceAction()       {}
func (CloseChat) presenceAction()      {}
func (TogglePin) presenceAction()      {}
func (SetTyping) presenceAction()      {}
func (ReceiveMessage) presenceAction() {}

// ReducePresence is the pure transition function of the widget state
// machine. Persistence is a separate side effect applied by the store
// after each transition, never interleaved here.
func ReducePresence(state entity.PresenceState, action PresenceAction) entity.PresenceState {
	switch a := action.(type) {
	case OpenChat:
		state.Open = true
		state.Minimized = false
		state.CurrentSeller = a.ThreadID
		if !state.HasMessagesFor(a.ThreadID) && a.Greeting.ID != "" {
			greeting := a.Greeting
			greeting.ChatID = a.ThreadID
			state.Messages = appendMessage(state.Messages, greeting)
			state.UnreadCount = 1
		} else {
			state.UnreadCount = 0
		}

	case Minimize:
		if state.Open {
			state.Minimized = true
		}

	case Maximize:
		state.Open = true
		state.Minimized = false
		state.Messages = markAllRead(state.Messages)
		state.UnreadCount = 0

	case CloseChat:
		state.Open = false
		state.Minimized = false
		state.UnreadCount = 0

	case TogglePin:
		state.Pinned = !state.Pinned

	case SetTyping:
		state.Typing = a.On

	case ReceiveMessage:
		msg := a.Message
		if state.Mode() == entity.WidgetMaximized {
			msg.Read = true
			state.Messages = appendMessage(state.Messages, msg)
		} else {
			msg.Read = false
			if appended := appendMessage(state.Messages, msg); len(appended) > len(state.Messages) {
				state.Messages = appended
				state.UnreadCount++
			}
		}
	}

	return state
}

func appendMessage(messages []entity.Message, msg entity.Message) []entity.Message {
	for _, m := range messages {
		if m.ID == msg.ID {
			return messages
		}
	}
	out := make([]entity.Message, 0, len(messages)+1)
	out = append(out, messages...)
	return append(out, msg)
}

func markAllRead(messages []entity.Message) []entity.Message {
	out := make([]entity.Message, len(messages))
	for i, m := range messages {
		m.Read = true
		out[i] = m
	}
	return out
}

// PresencePersister is the durable side of the widget state.
type PresencePersister interface {
	Save(entity.PresenceState) error
	Load() (entity.PresenceState, bool, error)
	Clear() error
}

// PresenceStore holds the live widget state and writes the durable
// subset after every transition. Construction restores persisted state
// with the transient open/typing flags hard-reset.
type PresenceStore struct {
	mu        sync.Mutex
	state     entity.PresenceState
	persister PresencePersister
}

func NewPresenceStore(persister PresencePersister) *PresenceStore {
	s := &PresenceStore{persister: persister}
	if persister != nil {
		state, found, err := persister.Load()
		if err != nil {
			logger.Warn("presence: failed to restore state: %v", err)
		} else if found {
			state.Open = false
			state.Typing = false
			s.state = state
		}
	}
	return s
}

func (s *PresenceStore) State() entity.PresenceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies one action and persists the result. Persistence
// failures are logged, not fatal: the in-memory state stays correct.
func (s *PresenceStore) Dispatch(action PresenceAction) entity.PresenceState {
	s.mu.Lock()
	s.state = ReducePresence(s.state, action)
	state := s.state
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(state); err != nil {
			logger.Warn("presence: failed to persist state: %v", err)
		}
	}
	return state
}

// Reset clears both live and persisted state, used on logout.
func (s *PresenceStore) Reset() error {
	s.mu.Lock()
	s.state = entity.PresenceState{}
	s.mu.Unlock()

	if s.persister != nil {
		return s.persister.Clear()
	}
	return nil
}
