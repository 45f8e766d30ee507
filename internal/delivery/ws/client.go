package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gdugdh24/spark-backend/internal/domain"
	"github.com/gdugdh24/spark-backend/internal/repository"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// IncomingMessage is a client frame such as {"action":"typing","data":{"typing":true}}
type IncomingMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Action  string `json:"action,omitempty"`
	MatchID int    `json:"match_id"`
}

type client struct {
	userID  int
	matchID int
	conn    *websocket.Conn
	sub     repository.Subscription
	chat    ChatService
	logger  *zap.Logger

	// frames produced by readPump, written by writePump
	replies chan interface{}
	done    chan struct{}
}

// readPump handles inbound actions until the socket fails or the peer closes it
func (c *client) readPump(ctx context.Context) {
	defer close(c.done)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Int("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.replyError("", domain.NewError(domain.CodeInvalidArgument, "Malformed frame"))
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

func (c *client) handleMessage(ctx context.Context, msg IncomingMessage) {
	switch msg.Action {
	case "typing":
		var payload domain.TypingPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.replyError(msg.Action, domain.NewError(domain.CodeInvalidArgument, "Invalid typing payload"))
			return
		}
		if err := c.chat.SetTyping(ctx, c.userID, c.matchID, payload.Typing); err != nil {
			c.replyError(msg.Action, err)
		}
	case "ping":
		c.reply(map[string]string{"type": "pong"})
	default:
		c.replyError(msg.Action, domain.NewError(domain.CodeInvalidArgument, "Unknown action"))
	}
}

// writePump forwards match events and replies, and keeps the connection alive with pings
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	events := c.sub.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.writeJSON(ev); err != nil {
				return
			}
		case frame := <-c.replies:
			if err := c.writeJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) writeJSON(v interface{}) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *client) write(messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) reply(frame interface{}) {
	select {
	case c.replies <- frame:
	default:
		c.logger.Warn("dropping websocket reply, client too slow", zap.Int("user_id", c.userID))
	}
}

func (c *client) replyError(action string, err error) {
	c.reply(errorFrame{
		Type:    "error",
		Error:   domain.UserMessage(err),
		Code:    string(domain.CodeOf(err)),
		Action:  action,
		MatchID: c.matchID,
	})
}
