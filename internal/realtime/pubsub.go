// Package realtime streams committed game events to connected spectators.
// Events fan out through Redis pub/sub so every server instance sees every
// game's stream regardless of which instance committed it.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "game:"
	publishTimeout = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance broadcast.
type redisPayload struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisPubSub bridges committed game events onto Redis channels.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for game events.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

func gameChannel(gameID uint64) string {
	return channelPrefix + strconv.FormatUint(gameID, 10)
}

// PublishGameEvent publishes an event to the game's Redis channel.
func (r *RedisPubSub) PublishGameEvent(gameID uint64, topic string, payload []byte) error {
	body, err := json.Marshal(redisPayload{Topic: topic, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, gameChannel(gameID), body).Err()
}

// SubscribeGame subscribes to a game's Redis channel and calls handler for
// each message. Returns a cancel function to stop the subscription.
func (r *RedisPubSub) SubscribeGame(gameID uint64, handler func(topic string, payload []byte)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, gameChannel(gameID))
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					continue
				}
				handler(p.Topic, p.Data)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
