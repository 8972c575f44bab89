package socket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"shoplink/pkg/errors"
	"shoplink/pkg/logger"
)

const (
	maxConnectAttempts = 5
	reconnectCeiling   = 5 * time.Second
	dialTimeout        = 20 * time.Second
)

// MessageEvent computes the per-thread event name so a handler only sees
// events for the thread it subscribed to.
func MessageEvent(threadID string) string {
	return "getMessage::" + threadID
}

// Frame is the wire envelope for pushed events.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives the raw payload of a pushed event.
type Handler func(payload json.RawMessage)

type Config struct {
	URL   string
	Token string
}

// Adapter owns at most one live connection per process. The connection is
// dialed when the first subscriber arrives and stays up across
// subscribe/unsubscribe cycles until Close. Reconnection is bounded; on
// exhaustion the Failed channel is closed and the adapter goes quiet
// instead of crashing the host.
type Adapter struct {
	url   string
	token string

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]map[int]Handler
	nextID   int
	started  bool
	closed   bool

	failed   chan struct{}
	failOnce sync.Once
	done     chan struct{}
}

func New(cfg Config) *Adapter {
	return &Adapter{
		url:      cfg.URL,
		token:    cfg.Token,
		handlers: make(map[string]map[int]Handler),
		failed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Subscribe registers a handler for the given event name and returns its
// unsubscribe function. Removing a handler never tears down the
// underlying connection; only Close does.
func (a *Adapter) Subscribe(event string, h Handler) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errors.Transport("socket adapter is closed", nil)
	}

	if a.handlers[event] == nil {
		a.handlers[event] = make(map[int]Handler)
	}
	a.nextID++
	id := a.nextID
	a.handlers[event][id] = h

	if !a.started {
		a.started = true
		go a.run()
	}

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if hs, ok := a.handlers[event]; ok {
			delete(hs, id)
			if len(hs) == 0 {
				delete(a.handlers, event)
			}
		}
	}, nil
}

// Failed is closed once reconnection attempts are exhausted.
func (a *Adapter) Failed() <-chan struct{} {
	return a.failed
}

// Close tears down the connection and releases all subscribers. Safe to
// call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	conn := a.conn
	a.conn = nil
	a.handlers = make(map[string]map[int]Handler)
	close(a.done)
	a.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (a *Adapter) run() {
	for {
		conn, err := a.connect()
		if err != nil {
			a.failOnce.Do(func() { close(a.failed) })
			logger.Error("socket: failed to reconnect: %v", err)
			return
		}

		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			conn.Close()
			return
		}
		a.conn = conn
		a.mu.Unlock()

		a.readLoop(conn)

		a.mu.Lock()
		a.conn = nil
		closed := a.closed
		a.mu.Unlock()
		if closed {
			return
		}
		logger.Warn("socket: connection lost, reconnecting")
	}
}

// connect dials with the bounded reconnection policy: up to five
// attempts, delays growing linearly and capped at the ceiling.
func (a *Adapter) connect() (*websocket.Conn, error) {
	var conn *websocket.Conn

	operation := func() error {
		select {
		case <-a.done:
			return backoff.Permanent(errors.Transport("socket adapter is closed", nil))
		default:
		}
		c, err := a.dial()
		if err != nil {
			logger.Debug("socket: dial failed: %v", err)
			return err
		}
		conn = c
		return nil
	}

	policy := backoff.WithMaxRetries(&linearBackOff{}, maxConnectAttempts-1)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return conn, nil
}

func (a *Adapter) dial() (*websocket.Conn, error) {
	u, err := url.Parse(a.url)
	if err != nil {
		return nil, err
	}
	// Token goes out both ways for backend compatibility: older servers
	// read the query param, newer ones the header.
	q := u.Query()
	q.Set("token", a.token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.token)

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(u.String(), header)
	return conn, err
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("socket: read error: %v", err)
			}
			conn.Close()
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logger.Debug("socket: dropping malformed frame: %v", err)
			continue
		}
		a.dispatch(frame)
	}
}

func (a *Adapter) dispatch(frame Frame) {
	a.mu.Lock()
	hs := make([]Handler, 0, len(a.handlers[frame.Event]))
	for _, h := range a.handlers[frame.Event] {
		hs = append(hs, h)
	}
	a.mu.Unlock()

	for _, h := range hs {
		h(frame.Payload)
	}
}

// linearBackOff grows the delay by one second per attempt up to the
// reconnect ceiling.
type linearBackOff struct {
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	d := time.Duration(b.attempt) * time.Second
	if d > reconnectCeiling {
		d = reconnectCeiling
	}
	return d
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}
