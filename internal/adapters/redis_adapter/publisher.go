// internal/adapters/redis_adapter/publisher.go
package redis_a

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/inventory-be/internal/core/domain"
	"github.com/ammerola/inventory-be/internal/core/ports"
)

// Publisher announces changes on a redis pub/sub channel as JSON.
type Publisher struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

var _ ports.ChangeNotifier = (*Publisher)(nil)

// NewPublisher creates a publisher for channel
func NewPublisher(client redis.UniversalClient, channel string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.With(slog.String("component", "publisher")),
	}
}

// Notify publishes change
func (p *Publisher) Notify(ctx context.Context, change domain.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}

	p.logger.DebugContext(ctx, "change published",
		slog.String("channel", p.channel),
		slog.String("collection", string(change.Collection)),
		slog.Int64("receivers", receivers))

	return nil
}

// Subscribe relays published changes to fn until ctx is done.
func (p *Publisher) Subscribe(ctx context.Context, fn func(domain.Change)) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", p.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change domain.Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				p.logger.WarnContext(ctx, "dropping malformed change",
					slog.String("error", err.Error()))
				continue
			}
			fn(change)
		}
	}
}
