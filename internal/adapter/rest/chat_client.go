package rest

import (
	"context"

	"shoplink/internal/domain/entity"
	"shoplink/internal/domain/repository"
)

// ChatClient implements repository.ChatService against the backend's
// chat/message endpoints.
type ChatClient struct {
	*Client
}

func NewChatClient(base *Client) *ChatClient {
	return &ChatClient{Client: base}
}

func (c *ChatClient) ListUserThreads(ctx context.Context) ([]entity.Thread, error) {
	var threads []entity.Thread
	if err := c.get(ctx, "/chat/user", &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (c *ChatClient) ListShopThreads(ctx context.Context, shopID string) ([]entity.Thread, error) {
	var threads []entity.Thread
	if err := c.get(ctx, "/chat/shop/"+shopID, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

func (c *ChatClient) MessagePage(ctx context.Context, threadID string) ([]entity.Message, error) {
	var page struct {
		Items []entity.Message `json:"items"`
	}
	if err := c.get(ctx, "/message/chat/"+threadID, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *ChatClient) SendMessage(ctx context.Context, input repository.SendMessageInput) (*entity.Message, error) {
	payload := struct {
		ChatID string `json:"chatId"`
		Text   string `json:"text"`
	}{ChatID: input.ChatID, Text: input.Text}

	var msg entity.Message
	if err := c.postMultipart(ctx, "/message", payload, "image", input.Image, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
