package infra_redis_events

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-redis/redis"
)

const channelPrefix = "room:"

// Relay fans room events out to every instance over Redis pub/sub.
type Relay struct {
	client *redis.Client
	logger *slog.Logger
}

func New(
	client *redis.Client,
	logger *slog.Logger,
) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client: client,
		logger: logger,
	}
}

func Channel(code string) string {
	return channelPrefix + code
}

func (r *Relay) Publish(ctx context.Context, code string, payload []byte) error {
	return r.client.Publish(Channel(code), payload).Err()
}

// Run delivers every published room event to deliver until ctx is done.
func (r *Relay) Run(ctx context.Context, deliver func(code string, payload []byte)) error {
	pubsub := r.client.PSubscribe(channelPrefix + "*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(); err != nil {
		return err
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			code := strings.TrimPrefix(msg.Channel, channelPrefix)
			if code == msg.Channel {
				r.logger.Warn("unexpected relay channel", slog.String("channel", msg.Channel))
				continue
			}
			deliver(code, []byte(msg.Payload))
		}
	}
}
