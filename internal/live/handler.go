package live

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/askwhyharsh/proxipal/pkg/logger"
)

// Default CheckOrigin rejects cross-origin upgrades.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Allowed reports whether the viewer may still see the friend's position.
type Allowed func(ctx context.Context) (bool, error)

type Handler struct {
	broker *Broker
	logger logger.Logger
}

func NewHandler(broker *Broker, log logger.Logger) *Handler {
	return &Handler{
		broker: broker,
		logger: log,
	}
}

// Serve streams friendID's location updates to viewerID over a websocket.
// allowed is consulted before every update and on each ping tick; the
// socket is closed once it returns false.
func (h *Handler) Serve(c *gin.Context, viewerID, friendID int64, allowed Allowed) {
	pubsub, err := h.broker.Subscribe(c.Request.Context(), friendID)
	if err != nil {
		h.logger.Error("Failed to subscribe to location updates", "friend_id", friendID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live tracking unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		pubsub.Close()
		h.logger.Warn("Failed to upgrade connection", "viewer_id", viewerID, "error", err)
		return
	}

	client := NewClient(conn, pubsub, viewerID, friendID, allowed, h.logger)
	h.logger.Debug("Tracking socket opened", "viewer_id", viewerID, "friend_id", friendID)

	go client.WritePump()
	go client.Forward()

	client.ReadPump()
}
