package repository

import (
	"context"
	"io"

	"shoplink/internal/domain/entity"
)

// FilePart is a file attached to a multipart submission.
type FilePart struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// SendMessageInput carries an outgoing message. Exactly one of Text and
// Image must be set by the time it reaches the service.
type SendMessageInput struct {
	ChatID string `json:"chatId" validate:"required"`
	Text   string `json:"text"`
	Image  *FilePart
}

// ChatService is the chat surface of the storefront backend.
type ChatService interface {
	ListUserThreads(ctx context.Context) ([]entity.Thread, error)
	ListShopThreads(ctx context.Context, shopID string) ([]entity.Thread, error)
	MessagePage(ctx context.Context, threadID string) ([]entity.Message, error)
	SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error)
}
