package entity

// Widget modes derived from the open/minimized flag pair.
const (
	WidgetClosed    = "closed"
	WidgetMaximized = "open-maximized"
	WidgetMinimized = "open-minimized"
)

// PresenceState is the chat widget's bookkeeping. Open and Typing are
// transient and always reset to false on load; the remaining fields are
// the durable subset persisted across reloads.
type PresenceState struct {
	Open          bool      `json:"is_chat_open"`
	Minimized     bool      `json:"is_minimized"`
	Pinned        bool      `json:"is_pinned"`
	Typing        bool      `json:"is_typing"`
	UnreadCount   int       `json:"unread_count"`
	CurrentSeller string    `json:"current_seller,omitempty"`
	Messages      []Message `json:"messages,omitempty"`
}

// Mode maps the flag pair onto the three widget states.
func (s PresenceState) Mode() string {
	if !s.Open {
		return WidgetClosed
	}
	if s.Minimized {
		return WidgetMinimized
	}
	return WidgetMaximized
}

// HasMessagesFor reports whether the backlog holds any message for the
// given thread.
func (s PresenceState) HasMessagesFor(threadID string) bool {
	for _, m := range s.Messages {
		if m.ChatID == threadID {
			return true
		}
	}
	return false
}
