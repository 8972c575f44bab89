package usecase

import (
	"sort"
	"strings"
	"time"

	"shoplink/internal/domain/entity"
)

const (
	AuthorSelf         = "self"
	AuthorCounterparty = "counterparty"
)

// RenderedMessage is one render-ready entry of a conversation.
type RenderedMessage struct {
	ID          string
	ThreadID    string
	Author      string
	Text        string
	ImageURL    string
	Read        bool
	Pending     bool
	SentAt      time.Time
	DisplayTime string
}

// BuildConversation derives the ordered render list from a raw cached
// page. It is pure with respect to its inputs: same snapshot and viewer
// always yield the same output.
//
// Messages are stable-sorted ascending by creation time, falling back to
// update time and then the zero time; ties keep their input order so
// equal-timestamp messages never visually reorder between renders.
func BuildConversation(messages []entity.Message, viewerID, mediaBase string) []RenderedMessage {
	ordered := append([]entity.Message(nil), messages...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sortTime(ordered[i]).Before(sortTime(ordered[j]))
	})

	seen := make(map[string]bool, len(ordered))
	out := make([]RenderedMessage, 0, len(ordered))
	for _, m := range ordered {
		if m.ID != "" && seen[m.ID] {
			continue
		}
		seen[m.ID] = true

		author := AuthorCounterparty
		if m.IsFromViewer(viewerID) {
			author = AuthorSelf
		}

		out = append(out, RenderedMessage{
			ID:          m.ID,
			ThreadID:    m.ChatID,
			Author:      author,
			Text:        m.Text,
			ImageURL:    ResolveMediaURL(m.Image, mediaBase),
			Read:        m.Read,
			Pending:     m.Pending,
			SentAt:      m.CreatedAt,
			DisplayTime: displayTime(m),
		})
	}
	return out
}

func sortTime(m entity.Message) time.Time {
	if !m.CreatedAt.IsZero() {
		return m.CreatedAt
	}
	if !m.UpdatedAt.IsZero() {
		return m.UpdatedAt
	}
	return time.Time{}
}

// ResolveMediaURL turns an image reference into a fully-qualified URL.
// Absolute references pass through; relative ones are joined onto the
// media base with one leading slash collapsed so no double slash appears.
func ResolveMediaURL(ref, base string) string {
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimPrefix(ref, "/")
}

func displayTime(m entity.Message) string {
	t := sortTime(m)
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("15:04")
}
