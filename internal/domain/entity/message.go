package entity

import (
	"encoding/json"
	"time"
)

// Message is one entry in a thread. Messages are immutable once created
// except for the Read flag, which flips when the owning thread becomes
// visible and focused. Pending marks a locally-submitted message that has
// not been confirmed by the backend yet; it never crosses the wire.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Sender    SenderRef `json:"sender,omitempty"`
	SenderID  string    `json:"sender_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Image     string    `json:"image,omitempty"`
	Read      bool      `json:"is_read"`
	Pending   bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// AuthorID resolves the message author to a single comparable identifier,
// preferring the sender reference and falling back to the sibling
// sender_id field.
func (m Message) AuthorID() string {
	if id := m.Sender.ID(); id != "" {
		return id
	}
	return m.SenderID
}

// IsFromViewer reports whether the message was authored by the given
// viewer identity.
func (m Message) IsFromViewer(viewerID string) bool {
	return viewerID != "" && m.AuthorID() == viewerID
}

// SenderRef identifies the author of a message. The backend is not
// consistent about its shape: a bare id string, an object with a
// participantId (itself either a string or an object carrying _id), or an
// object with a top-level _id have all been observed. All shapes
// normalize to one identifier at decode time.
type SenderRef struct {
	id string
}

func NewSenderRef(id string) SenderRef {
	return SenderRef{id: id}
}

// ID returns the normalized identifier, or "" if the reference was absent
// or of an unrecognized shape.
func (r SenderRef) ID() string {
	return r.id
}

func (r SenderRef) MarshalJSON() ([]byte, error) {
	if r.id == "" {
		return []byte(`""`), nil
	}
	return json.Marshal(r.id)
}

func (r *SenderRef) UnmarshalJSON(data []byte) error {
	r.id = ""

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.id = s
		return nil
	}

	var obj struct {
		ParticipantID json.RawMessage `json:"participantId"`
		MongoID       string          `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// Unrecognized shape resolves to no sender rather than failing
		// the whole message decode.
		return nil
	}

	if len(obj.ParticipantID) > 0 {
		var pid string
		if err := json.Unmarshal(obj.ParticipantID, &pid); err == nil {
			r.id = pid
			return nil
		}
		var nested struct {
			MongoID string `json:"_id"`
		}
		if err := json.Unmarshal(obj.ParticipantID, &nested); err == nil && nested.MongoID != "" {
			r.id = nested.MongoID
			return nil
		}
	}

	r.id = obj.MongoID
	return nil
}
