// Package realtime delivers task-change notifications. The primary path is
// a Supabase Realtime websocket subscription; a polling fallback covers
// deployments where the websocket endpoint is unreachable.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stillwaterhq/stillwater/internal/logging"
)

// Event is a change notification for a watched table.
type Event struct {
	Type      string                 `json:"type"`
	Table     string                 `json:"table"`
	Record    map[string]interface{} `json:"record,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Change event types.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Handler receives change events. Handlers run on their own goroutine and
// must not block indefinitely.
type Handler func(Event)

// Client subscribes to Supabase Realtime over the phoenix-channel websocket
// protocol.
type Client struct {
	mu       sync.Mutex
	url      string
	conn     *websocket.Conn
	handlers map[string][]Handler
	done     chan struct{}
	ref      int
	logger   *logging.Logger
}

// NewClient creates a realtime client for the given Supabase project URL.
func NewClient(supabaseURL, apiKey string, logger *logging.Logger) *Client {
	wsURL := supabaseURL
	if strings.HasPrefix(wsURL, "https") {
		wsURL = "wss" + wsURL[len("https"):]
	} else if strings.HasPrefix(wsURL, "http") {
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/realtime/v1/websocket?apikey=" + apiKey + "&vsn=1.0.0"

	return &Client{
		url:      wsURL,
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Connect establishes the websocket connection and starts the read and
// heartbeat loops. Connecting twice is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("realtime: dial: %w", err)
	}

	c.conn = conn
	c.done = make(chan struct{})
	go c.readLoop(conn, c.done)
	go c.heartbeat(c.done)
	return nil
}

// Close shuts the connection down. The client can be reconnected later.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	close(c.done)

	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Subscribe joins the change feed for a table and registers handler for the
// given event type (EventInsert, EventUpdate, EventDelete or "*").
func (c *Client) Subscribe(ctx context.Context, table, eventType string, handler Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("realtime: not connected")
	}

	topic := "realtime:public:" + table
	if eventType == "" || eventType == "*" {
		for _, et := range []string{EventInsert, EventUpdate, EventDelete} {
			c.handlers[topic+":"+et] = append(c.handlers[topic+":"+et], handler)
		}
	} else {
		c.handlers[topic+":"+eventType] = append(c.handlers[topic+":"+eventType], handler)
	}

	c.ref++
	join := map[string]interface{}{
		"topic":    topic,
		"event":    "phx_join",
		"payload":  map[string]interface{}{},
		"ref":      strconv.Itoa(c.ref),
		"join_ref": strconv.Itoa(c.ref),
	}
	if err := c.conn.WriteJSON(join); err != nil {
		return fmt.Errorf("realtime: join %s: %w", topic, err)
	}
	return nil
}

// wireMessage is a phoenix-channel frame.
type wireMessage struct {
	Topic   string                 `json:"topic"`
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
	Ref     string                 `json:"ref"`
}

func (c *Client) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.WithError(err).Debug("realtime: discarding unparseable frame")
			continue
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg wireMessage) {
	eventType := msg.Event
	if t, ok := msg.Payload["type"].(string); ok {
		eventType = t
	}

	c.mu.Lock()
	handlers := c.handlers[msg.Topic+":"+eventType]
	c.mu.Unlock()
	if len(handlers) == 0 {
		return
	}

	record, _ := msg.Payload["record"].(map[string]interface{})
	event := Event{
		Type:      eventType,
		Table:     strings.TrimPrefix(msg.Topic, "realtime:public:"),
		Record:    record,
		Timestamp: time.Now(),
	}
	for _, h := range handlers {
		go h(event)
	}
}

func (c *Client) heartbeat(done chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != nil {
				c.ref++
				c.conn.WriteJSON(map[string]interface{}{
					"topic":   "phoenix",
					"event":   "heartbeat",
					"payload": map[string]interface{}{},
					"ref":     strconv.Itoa(c.ref),
				})
			}
			c.mu.Unlock()
		}
	}
}
