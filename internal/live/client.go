package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/askwhyharsh/proxipal/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one browser watching one friend.
type Client struct {
	conn     *websocket.Conn
	pubsub   *redis.PubSub
	send     chan *Message
	viewerID int64
	friendID int64
	allowed  Allowed
	logger   logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewClient(conn *websocket.Conn, pubsub *redis.PubSub, viewerID, friendID int64, allowed Allowed, log logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:     conn,
		pubsub:   pubsub,
		send:     make(chan *Message, 64),
		viewerID: viewerID,
		friendID: friendID,
		allowed:  allowed,
		logger:   log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ReadPump handles control frames and client pings until the socket closes.
func (c *Client) ReadPump() {
	defer func() {
		c.cancel()
		c.pubsub.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Tracking socket closed unexpectedly", "viewer_id", c.viewerID, "error", err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(NewErrorMessage("invalid message format"))
			continue
		}

		if msg.Type == MessageTypePing {
			c.enqueue(&Message{Type: MessageTypePong, Timestamp: time.Now().Unix()})
		}
	}
}

// Forward copies pub/sub updates into the send queue.
func (c *Client) Forward() {
	ch := c.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			update, err := decodeUpdate(msg)
			if err != nil {
				c.logger.Warn("Dropping malformed location update", "channel", msg.Channel, "error", err)
				continue
			}
			allowed, err := c.stillAllowed()
			if err != nil {
				continue
			}
			if !allowed {
				return
			}
			c.enqueue(NewLocationMessage(update))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			if ok, err := c.stillAllowed(); err == nil && !ok {
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// stillAllowed re-checks access and cancels the client when it was revoked.
// Lookup errors drop the current update but keep the socket open.
func (c *Client) stillAllowed() (bool, error) {
	if c.allowed == nil {
		return true, nil
	}
	ok, err := c.allowed(c.ctx)
	if err != nil {
		c.logger.Warn("Access check failed, dropping update", "viewer_id", c.viewerID, "friend_id", c.friendID, "error", err)
		return false, err
	}
	if !ok {
		c.logger.Info("Access revoked, closing tracking socket", "viewer_id", c.viewerID, "friend_id", c.friendID)
		c.cancel()
	}
	return ok, nil
}

// enqueue drops the message when the browser is not keeping up.
func (c *Client) enqueue(msg *Message) {
	select {
	case c.send <- msg:
	default:
		c.logger.Debug("Send queue full, dropping message", "viewer_id", c.viewerID, "type", msg.Type)
	}
}
