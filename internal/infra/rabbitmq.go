// README: RabbitMQ connection wrapper with topology setup and reconnecting consumers.
package infra

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	RideExchange  = "ride_topic"
	StatusQueue   = "ride_status"
	FeedbackQueue = "ride_feedback"

	maxDialRetries = 10
	retryInterval  = 3 * time.Second
	requeueDelay   = time.Second
)

var ErrNotConnected = errors.New("rabbitmq not connected")

// ErrPermanent marks a handler failure that redelivery cannot fix.
var ErrPermanent = errors.New("permanent message failure")

// Permanent wraps err so the consumer drops the delivery instead of requeueing it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Rabbit owns one AMQP connection and a dedicated publishing channel.
type Rabbit struct {
	log        *zap.Logger
	url        string
	mu         sync.RWMutex
	conn       *amqp.Connection
	pubChannel *amqp.Channel
}

// NewRabbit dials url with retries and declares the ride topology.
func NewRabbit(ctx context.Context, url string, log *zap.Logger) (*Rabbit, error) {
	r := &Rabbit{log: log, url: url}
	var err error
	for i := 0; i < maxDialRetries; i++ {
		if err = r.connect(); err == nil {
			if err := r.setupTopology(); err != nil {
				r.Close()
				return nil, fmt.Errorf("declaring rabbitmq topology: %w", err)
			}
			log.Info("rabbitmq connected")
			return r, nil
		}
		log.Warn("rabbitmq dial failed", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return nil, fmt.Errorf("connecting to rabbitmq after %d attempts: %w", maxDialRetries, err)
}

func (r *Rabbit) connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open publisher channel: %w", err)
	}
	r.conn, r.pubChannel = conn, ch
	return nil
}

func (r *Rabbit) setupTopology() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conn == nil {
		return ErrNotConnected
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(RideExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", RideExchange, err)
	}
	bindings := []struct{ queue, key string }{
		{StatusQueue, "ride.status.*"},
		{FeedbackQueue, "ride.feedback.*"},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.key, RideExchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

// Publish sends a persistent JSON message. It is goroutine-safe.
func (r *Rabbit) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pubChannel == nil || r.conn == nil || r.conn.IsClosed() {
		return ErrNotConnected
	}
	return r.pubChannel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
}

// Consume runs handler for every delivery on queue until ctx is done. A lost
// channel or connection is re-established after retryInterval. A handler
// error wrapping ErrPermanent drops the delivery; any other error requeues it
// after requeueDelay.
func (r *Rabbit) Consume(ctx context.Context, queue string, handler func(context.Context, amqp.Delivery) error) {
	log := r.log.With(zap.String("queue", queue))
	for ctx.Err() == nil {
		if err := r.consumeOnce(ctx, queue, handler, log); err != nil {
			log.Warn("consumer stopped, retrying", zap.Error(err))
			if !r.connected() {
				if err := r.connect(); err != nil {
					log.Warn("rabbitmq reconnect failed", zap.Error(err))
				}
			}
			select {
			case <-ctx.Done():
			case <-time.After(retryInterval):
			}
		}
	}
	log.Info("consumer shut down")
}

func (r *Rabbit) consumeOnce(ctx context.Context, queue string, handler func(context.Context, amqp.Delivery) error, log *zap.Logger) error {
	r.mu.RLock()
	if r.conn == nil || r.conn.IsClosed() {
		r.mu.RUnlock()
		return ErrNotConnected
	}
	ch, err := r.conn.Channel()
	r.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	log.Info("consumer running")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-closed:
			return fmt.Errorf("channel closed: %v", err)
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			settle(ctx, msg, handler(ctx, msg), requeueDelay, log)
		}
	}
}

// settle acks, drops or requeues msg according to the handler result.
func settle(ctx context.Context, msg amqp.Delivery, err error, delay time.Duration, log *zap.Logger) {
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.Is(err, ErrPermanent):
		log.Warn("message dropped", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, false)
	default:
		log.Warn("message requeued", zap.String("routing_key", msg.RoutingKey), zap.Bool("redelivered", msg.Redelivered), zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(delay):
		}
		_ = msg.Nack(false, true)
	}
}

func (r *Rabbit) connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conn != nil && !r.conn.IsClosed()
}

func (r *Rabbit) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubChannel != nil {
		r.pubChannel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}
