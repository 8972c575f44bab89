package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"shoplink/internal/domain/entity"
	"shoplink/internal/infrastructure/session"
	"shoplink/internal/infrastructure/socket"
	"shoplink/pkg/errors"
	"shoplink/pkg/logger"
	"shoplink/pkg/response"
	"shoplink/pkg/utils"
)

const maxImageBytes = 5 << 20

// Server is an in-memory stand-in for the storefront backend: enough of
// the chat contract to run the client and its integration tests without
// the real service.
type Server struct {
	echo     *echo.Echo
	hub      *hub
	validate *validator.Validate
	upgrader websocket.Upgrader

	mu       sync.Mutex
	threads  map[string]*entity.Thread
	messages map[string][]entity.Message
}

func New() *Server {
	s := &Server{
		echo:     echo.New(),
		hub:      newHub(),
		validate: validator.New(),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		threads:  make(map[string]*entity.Thread),
		messages: make(map[string][]entity.Message),
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())

	s.echo.GET("/chat/user", s.listUserThreads, s.authenticate)
	s.echo.GET("/chat/shop/:shopId", s.listShopThreads, s.authenticate)
	s.echo.GET("/message/chat/:chatId", s.messagePage, s.authenticate)
	s.echo.POST("/message", s.sendMessage, s.authenticate)
	s.echo.POST("/dev/push", s.pushMessage)
	s.echo.GET("/ws", s.serveSocket)

	return s
}

// Handler exposes the server for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// SeedThread registers a thread between a customer and a shop.
func (s *Server) SeedThread(customer, shop entity.Participant) entity.Thread {
	customer.Type = entity.ParticipantCustomer
	shop.Type = entity.ParticipantShop

	thread := entity.Thread{
		ID:        uuid.NewString(),
		Customer:  customer,
		Shop:      shop,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	s.threads[thread.ID] = &thread
	s.mu.Unlock()
	return thread
}

// authenticate accepts the bearer token from the Authorization header or
// the token query param. JWT tokens are inspected for the subject claim;
// anything else is treated as a bare viewer id, which keeps tests simple.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if header := c.Request().Header.Get("Authorization"); header != "" {
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
			}
			token = parts[1]
		}
		if token == "" {
			return response.Error(c, errors.Unauthorized("Authorization is required", nil))
		}

		uid := token
		if sess, err := session.FromToken(token); err == nil && sess.UserID != "" {
			uid = sess.UserID
		}
		c.Set("uid", uid)
		return next(c)
	}
}

func (s *Server) listUserThreads(c echo.Context) error {
	uid := c.Get("uid").(string)

	s.mu.Lock()
	var threads []entity.Thread
	for _, t := range s.threads {
		if t.Customer.ID == uid {
			threads = append(threads, *t)
		}
	}
	s.mu.Unlock()

	sortThreads(threads)
	return response.Success(c, threads)
}

func (s *Server) listShopThreads(c echo.Context) error {
	shopID := c.Param("shopId")

	s.mu.Lock()
	var threads []entity.Thread
	for _, t := range s.threads {
		if t.Shop.ID == shopID {
			threads = append(threads, *t)
		}
	}
	s.mu.Unlock()

	sortThreads(threads)
	return response.Success(c, threads)
}

func (s *Server) messagePage(c echo.Context) error {
	chatID := c.Param("chatId")
	params := utils.GetPaginationParams(c)

	s.mu.Lock()
	if _, ok := s.threads[chatID]; !ok {
		s.mu.Unlock()
		return response.Error(c, errors.NotFound("chat", nil))
	}
	all := append([]entity.Message(nil), s.messages[chatID]...)
	s.mu.Unlock()

	total := int64(len(all))
	start := params.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + params.PageSize
	if end > len(all) {
		end = len(all)
	}

	items := all[start:end]
	if items == nil {
		items = []entity.Message{}
	}
	return response.Paginated(c, items, total, params.Page, params.PageSize)
}

type sendMessageData struct {
	ChatID string `json:"chatId" validate:"required"`
	Text   string `json:"text"`
}

func (s *Server) sendMessage(c echo.Context) error {
	uid := c.Get("uid").(string)

	var data sendMessageData
	if err := json.Unmarshal([]byte(c.FormValue("data")), &data); err != nil {
		return response.Error(c, errors.BadRequest("Invalid data field", err))
	}
	if err := s.validate.Struct(data); err != nil {
		return response.Error(c, err)
	}

	imagePath := ""
	if file, err := c.FormFile("image"); err == nil {
		if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
			return response.Error(c, errors.BadRequest("Please select an image file", nil))
		}
		if file.Size > maxImageBytes {
			return response.Error(c, errors.BadRequest("Image must be 5MB or smaller", nil))
		}
		src, err := file.Open()
		if err != nil {
			return response.Error(c, errors.Internal("Failed to read upload", err))
		}
		// Uploads are not stored; the stub only needs a resolvable path.
		io.Copy(io.Discard, src)
		src.Close()
		imagePath = "/chat/" + uuid.NewString() + "-" + file.Filename
	}

	data.Text = strings.TrimSpace(data.Text)
	if data.Text == "" && imagePath == "" {
		return response.Error(c, errors.BadRequest("Nothing to send", nil))
	}

	msg, err := s.appendMessage(data.ChatID, uid, data.Text, imagePath)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

type pushMessageData struct {
	ChatID   string `json:"chatId" validate:"required"`
	SenderID string `json:"senderId" validate:"required"`
	Text     string `json:"text"`
	Image    string `json:"image"`
}

// pushMessage injects a counterparty message, the dev-only hook used to
// exercise the realtime path.
func (s *Server) pushMessage(c echo.Context) error {
	var data pushMessageData
	if err := c.Bind(&data); err != nil {
		return response.Error(c, errors.BadRequest("Invalid push payload", err))
	}
	if err := s.validate.Struct(data); err != nil {
		return response.Error(c, err)
	}

	msg, err := s.appendMessage(data.ChatID, data.SenderID, data.Text, data.Image)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (s *Server) appendMessage(chatID, senderID, text, image string) (*entity.Message, error) {
	s.mu.Lock()
	thread, ok := s.threads[chatID]
	if !ok {
		s.mu.Unlock()
		return nil, errors.NotFound("chat", nil)
	}

	msg := entity.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		Image:     image,
		CreatedAt: time.Now(),
	}
	s.messages[chatID] = append(s.messages[chatID], msg)

	preview := text
	if preview == "" {
		preview = "[image]"
	}
	thread.LastMessage = preview
	thread.LastMessageAt = msg.CreatedAt
	thread.UpdatedAt = msg.CreatedAt
	s.mu.Unlock()

	s.hub.broadcast(socket.MessageEvent(chatID), msg)
	return &msg, nil
}

func (s *Server) serveSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if header := c.Request().Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "token is required")
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	s.hub.add(conn)
	logger.Debug("devserver: socket connected")

	go func() {
		defer func() {
			s.hub.remove(conn)
			conn.Close()
		}()
		for {
			// The push channel is one-way; drain and discard anything
			// the client writes.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

func sortThreads(threads []entity.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].LastActivity().After(threads[j].LastActivity())
	})
}
