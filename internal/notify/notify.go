// Package notify carries triggered-alert notifications between processes over
// Redis pub/sub. The worker publishes, API servers subscribe and fan the
// notifications out to websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coin-ledger/internal/logging"
	"github.com/coin-ledger/internal/models"
	"github.com/redis/go-redis/v9"
)

// AlertChannel is the Redis channel triggered alerts are published on
const AlertChannel = "alerts:triggered"

// Publisher publishes alert notifications to Redis
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher creates a publisher on AlertChannel
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, channel: AlertChannel}
}

// PublishAlert publishes one notification. Delivery is at most once; nobody
// listening is not an error.
func (p *Publisher) PublishAlert(ctx context.Context, n *models.AlertNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode alert notification: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert notification: %w", err)
	}
	return nil
}

// Subscriber receives alert notifications from Redis
type Subscriber struct {
	client  *redis.Client
	channel string
	buffer  int
}

// NewSubscriber creates a subscriber on AlertChannel
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client, channel: AlertChannel, buffer: 64}
}

// Start subscribes and returns a channel of decoded notifications. The
// subscription is confirmed before Start returns. The channel is closed when
// ctx is done or the subscription ends. Undecodable messages are logged and
// dropped.
func (s *Subscriber) Start(ctx context.Context) (<-chan *models.AlertNotification, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	out := make(chan *models.AlertNotification, s.buffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		log := logging.FromContext(ctx).WithField("channel", s.channel)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var n models.AlertNotification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					log.WithError(err).Warn("dropping malformed alert notification")
					continue
				}
				select {
				case out <- &n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
