package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"shoplink/internal/domain/entity"
	"shoplink/internal/domain/repository"
	"shoplink/pkg/errors"
)

// MaxImageBytes caps chat attachments at 5 MiB.
const MaxImageBytes = 5 << 20

// Delivery packages outgoing messages for submission. Preconditions are
// checked locally and never reach the backend; on success the caches are
// invalidated so the sent message shows up through the normal fetch path,
// with an optimistic pending echo for immediate feedback.
type Delivery struct {
	chat     repository.ChatService
	cache    *ChatCache
	validate *validator.Validate
	viewerID string
}

func NewDelivery(chat repository.ChatService, cache *ChatCache, viewerID string) *Delivery {
	return &Delivery{
		chat:     chat,
		cache:    cache,
		validate: validator.New(),
		viewerID: viewerID,
	}
}

// Submit sends a message. An empty submission (no text, no image) is
// rejected before any network call. The draft is the caller's to keep; on
// failure nothing is cleared so the user can retry.
func (d *Delivery) Submit(ctx context.Context, threadID, text string, image *repository.FilePart) (*entity.Message, error) {
	text = strings.TrimSpace(text)

	if text == "" && image == nil {
		return nil, errors.Validation("Nothing to send")
	}
	if image != nil {
		if !strings.HasPrefix(image.ContentType, "image/") {
			return nil, errors.Validation("Please select an image file")
		}
		if image.Size > MaxImageBytes {
			return nil, errors.Validation("Image must be 5MB or smaller")
		}
	}

	input := repository.SendMessageInput{
		ChatID: threadID,
		Text:   text,
		Image:  image,
	}
	if err := d.validate.Struct(input); err != nil {
		return nil, errors.Validation("A conversation must be selected")
	}

	// The echo carries no image path: a resolvable URL exists only once
	// the server has stored the upload, so the confirmed copy supplies it.
	pending := entity.Message{
		ID:        uuid.NewString(),
		ChatID:    threadID,
		SenderID:  d.viewerID,
		Text:      text,
		Read:      true,
		Pending:   true,
		CreatedAt: time.Now(),
	}
	d.cache.AppendIfAbsent(threadID, pending)

	confirmed, err := d.chat.SendMessage(ctx, input)
	if err != nil {
		d.cache.Remove(threadID, pending.ID)
		return nil, err
	}

	d.cache.Confirm(threadID, pending.ID, *confirmed)
	d.cache.Invalidate(TagMessages(threadID))
	d.cache.Invalidate(TagThreadList)
	return confirmed, nil
}
