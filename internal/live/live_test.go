package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/storage"
	"github.com/askwhyharsh/proxipal/pkg/logger"
)

// access lets a test revoke the viewer's access mid-stream.
type access struct {
	denied atomic.Bool
}

func (a *access) check(context.Context) (bool, error) {
	return !a.denied.Load(), nil
}

func setup(t *testing.T) (*Broker, *websocket.Conn, *access) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	broker := NewBroker(storage.WrapRedis(rdb))
	h := NewHandler(broker, logger.NewNop())
	allowed := &access{}

	r := gin.New()
	r.GET("/ws/track/:friend_id/", func(c *gin.Context) { h.Serve(c, 1, 2, allowed.check) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/track/2/"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })

	return broker, conn, allowed
}

func TestServeForwardsFriendUpdates(t *testing.T) {
	broker, conn, _ := setup(t)

	recorded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	// Updates for other users must not reach this socket.
	require.NoError(t, broker.PublishLocation(context.Background(), location.Update{UserID: 3, Latitude: 1, Longitude: 1}))
	require.NoError(t, broker.PublishLocation(context.Background(), location.Update{
		UserID:     2,
		Latitude:   48.8566,
		Longitude:  2.3522,
		Geohash:    "u09tvw0",
		RecordedAt: recorded,
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, MessageTypeLocation, msg.Type)
	require.NotNil(t, msg.Location)
	assert.Equal(t, int64(2), msg.Location.UserID)
	assert.Equal(t, 48.8566, msg.Location.Latitude)
	assert.Equal(t, recorded.Unix(), msg.Timestamp)
}

func TestServeAnswersPing(t *testing.T) {
	_, conn, _ := setup(t)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: MessageTypePing}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypePong, msg.Type)
}

func TestServeClosesWhenAccessRevoked(t *testing.T) {
	broker, conn, allowed := setup(t)
	ctx := context.Background()

	require.NoError(t, broker.PublishLocation(ctx, location.Update{UserID: 2, Latitude: 51.5074, Longitude: -0.1278}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, MessageTypeLocation, msg.Type)

	allowed.denied.Store(true)
	require.NoError(t, broker.PublishLocation(ctx, location.Update{UserID: 2, Latitude: 48.8566, Longitude: 2.3522}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg = Message{}
	err := conn.ReadJSON(&msg)
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure), "unexpected error: %v", err)
	assert.Nil(t, msg.Location)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "location:42", channelName(42))
}
