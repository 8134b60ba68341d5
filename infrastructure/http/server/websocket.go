package server

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"golang.org/x/time/rate"
)

var errConnectionClosed = fmt.Errorf("connection closed")

// InboundFrame is what clients send: {"event": "...", "id": 1, "data": {...}}.
// Frames carrying an id are acknowledged.
type InboundFrame struct {
	Event string          `json:"event" validate:"required"`
	ID    *int64          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type OutboundFrame struct {
	Event string `json:"event"`
	ID    *int64 `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type setUsernamePayload struct {
	Username string `json:"username"`
}

type channelPayload struct {
	Username    string `json:"username"`
	ChannelName string `json:"channelName"`
}

type sendMessagePayload struct {
	Sender  string `json:"sender"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

type privateMessagePayload struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// connection is the sink of one WebSocket client.
// Every write goes through send so that a single goroutine owns the socket writes.
type connection struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(conn *websocket.Conn, bufferSize int) *connection {
	return &connection{conn: conn, send: make(chan []byte, bufferSize), done: make(chan struct{})}
}

func (c *connection) Consume(ctx context.Context, e event.Envelope) error {
	data, err := json.Marshal(OutboundFrame{Event: e.Event.Name(), Data: e.Event})
	if err != nil {
		return err
	}
	return c.enqueue(ctx, data)
}

func (c *connection) enqueue(ctx context.Context, data []byte) error {
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writeLoop drains send until the connection is closed.
func (c *connection) writeLoop(writeTimeout time.Duration) error {
	for {
		select {
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return err
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-c.done:
			return nil
		}
	}
}

func (h *Handlers) serveWS(conn *websocket.Conn) {
	client := newConnection(conn, h.cfg.ConnectionBufferSize)
	connID := h.service.Connect(client)
	log := h.log.With("connection", connID)
	log.Info("WebSocket connected", "remote", conn.RemoteAddr().String())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := client.writeLoop(h.cfg.WriteTimeout); err != nil {
			log.Debug("WebSocket write failed", "error", err)
			// Unblock the read loop
			_ = conn.Close()
		}
	}()

	defer func() {
		client.close()
		<-writerDone
		if err := h.service.Disconnect(context.Background(), connID); err != nil {
			log.Warn("Disconnect failed", "error", err)
		}
		log.Info("WebSocket disconnected")
	}()

	if h.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageSize)
	}
	limit := rate.Inf
	if h.cfg.RateLimitPerSecond > 0 {
		limit = rate.Limit(h.cfg.RateLimitPerSecond)
	}
	limiter := rate.NewLimiter(limit, h.cfg.RateLimitBurst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug("Malformed frame dropped", "error", err)
			continue
		}
		if err := h.validate.Struct(frame); err != nil {
			log.Debug("Frame without event dropped", "error", err)
			continue
		}
		if !limiter.Allow() {
			log.Debug("Rate limit exceeded, frame dropped", "event", frame.Event)
			h.acknowledge(client, frame, fmt.Errorf("rate limit exceeded"))
			continue
		}

		cmd, err := decodeCommand(frame)
		if err != nil {
			log.Debug("Frame dropped", "event", frame.Event, "error", err)
			h.acknowledge(client, frame, err)
			continue
		}
		err = h.service.Dispatch(context.Background(), connID, cmd)
		if err != nil {
			log.Warn("Command refused", "event", frame.Event, "error", err)
		}
		h.acknowledge(client, frame, err)
	}
}

func (h *Handlers) acknowledge(client *connection, frame InboundFrame, err error) {
	if frame.ID == nil {
		return
	}
	ack := Ack{Success: err == nil}
	if err != nil {
		ack.Message = ackMessage(err)
	}
	data, marshalErr := json.Marshal(OutboundFrame{Event: "ack", ID: frame.ID, Data: ack})
	if marshalErr != nil {
		return
	}
	_ = client.enqueue(context.Background(), data)
}

// ackMessage returns the text shown to users for the errors they can cause.
func ackMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrInvalidNickname):
		return "Username is required"
	case errors.Is(err, errors.ErrNicknameTaken):
		return "Username already in use"
	case errors.Is(err, errors.ErrAccessDenied):
		return "Access denied: Private channel"
	default:
		return err.Error()
	}
}

// decodeCommand turns a client frame into a domain command.
// Missing payload fields are left empty: the gateway decides what an incomplete command means.
func decodeCommand(frame InboundFrame) (domain.Command, error) {
	data := frame.Data
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}
	switch frame.Event {
	case "setUsername":
		var p setUsernamePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
		}
		return domain.SetUsernameCommand{Nickname: p.Username}, nil
	case "joinChannel", "leaveChannel":
		var p channelPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
		}
		if frame.Event == "joinChannel" {
			return domain.JoinChannelCommand{Nickname: p.Username, Channel: p.ChannelName}, nil
		}
		return domain.LeaveChannelCommand{Nickname: p.Username, Channel: p.ChannelName}, nil
	case "sendMessage":
		var p sendMessagePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
		}
		return domain.SendMessageCommand{Sender: p.Sender, Text: p.Text, Channel: p.Channel}, nil
	case "privateMessage":
		var p privateMessagePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
		}
		return domain.PrivateMessageCommand{Sender: p.Sender, Recipient: p.Recipient, Text: p.Text}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrInvalidInput, frame.Event)
	}
}
