// README: Ride status events over RabbitMQ (publish + subscribe).
package ride

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"ridematch/internal/infra"
)

// Publisher is satisfied by *infra.Rabbit.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// Consumer is satisfied by *infra.Rabbit.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler func(context.Context, amqp.Delivery) error)
}

type EventBus struct {
	pub Publisher
}

func NewEventBus(pub Publisher) *EventBus {
	return &EventBus{pub: pub}
}

func StatusRoutingKey(s Status) string {
	return "ride.status." + string(s)
}

func (b *EventBus) PublishStatusChanged(ctx context.Context, ev StatusChanged) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}
	if err := b.pub.Publish(ctx, infra.RideExchange, StatusRoutingKey(ev.ToStatus), body); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}

// SubscribeStatus blocks, calling handler for each status change until ctx is done.
func SubscribeStatus(ctx context.Context, c Consumer, handler func(context.Context, StatusChanged) error) {
	c.Consume(ctx, infra.StatusQueue, func(ctx context.Context, d amqp.Delivery) error {
		var ev StatusChanged
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			return infra.Permanent(fmt.Errorf("decode status event: %w", err))
		}
		return handler(ctx, ev)
	})
}
