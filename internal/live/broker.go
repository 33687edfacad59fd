package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/askwhyharsh/proxipal/internal/location"
	"github.com/askwhyharsh/proxipal/internal/storage"
)

// Broker relays location updates between server instances over redis pub/sub.
type Broker struct {
	redis storage.RedisClient
}

func NewBroker(redisClient storage.RedisClient) *Broker {
	return &Broker{redis: redisClient}
}

// PublishLocation implements location.Publisher.
func (b *Broker) PublishLocation(ctx context.Context, update location.Update) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	if err := b.redis.Publish(ctx, channelName(update.UserID), data); err != nil {
		return fmt.Errorf("failed to publish update: %w", err)
	}

	return nil
}

// Subscribe listens for userID's updates. It returns once redis has
// confirmed the subscription, so nothing published afterwards is missed.
func (b *Broker) Subscribe(ctx context.Context, userID int64) (*redis.PubSub, error) {
	pubsub := b.redis.Subscribe(ctx, channelName(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return pubsub, nil
}

func decodeUpdate(msg *redis.Message) (location.Update, error) {
	var update location.Update
	err := json.Unmarshal([]byte(msg.Payload), &update)
	return update, err
}

func channelName(userID int64) string {
	return fmt.Sprintf("location:%d", userID)
}
