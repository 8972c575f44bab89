package entity

import "time"

const (
	ParticipantCustomer = "customer"
	ParticipantShop     = "shop"
)

// Participant is one side of a thread, resolved to displayable fields.
type Participant struct {
	ID     string `json:"id"`
	Type   string `json:"type"` // "customer" or "shop"
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Thread is a conversation between exactly one customer and one shop.
// Threads are created by the backend and never deleted client-side.
type Thread struct {
	ID            string      `json:"id"`
	Customer      Participant `json:"customer"`
	Shop          Participant `json:"shop"`
	LastMessage   string      `json:"last_message,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	LastMessageAt time.Time   `json:"last_message_at,omitempty"`
}

// LastActivity picks the freshest known timestamp for ordering thread
// lists: last message time first, then thread update time, then creation.
func (t Thread) LastActivity() time.Time {
	if !t.LastMessageAt.IsZero() {
		return t.LastMessageAt
	}
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// Counterparty returns the participant that is not the viewer.
func (t Thread) Counterparty(viewerID string) Participant {
	if t.Shop.ID == viewerID {
		return t.Customer
	}
	return t.Shop
}
