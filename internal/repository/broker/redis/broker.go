package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/metrics"
	"github.com/sharetube/watchparty/internal/repository/broker"
	"github.com/sharetube/watchparty/internal/repository/broker/inmemory"
)

const (
	defaultQueueSize      = 1024
	defaultPublishTimeout = 50 * time.Millisecond
)

var errSubscriptionClosed = errors.New("redis subscription closed")

type envelope struct {
	topic string
	msg   *broker.Message
}

// Broker moves delivery off the publishing goroutine: Publish only queues,
// Serve pushes the queue through redis pub/sub and hands what comes back to
// the local subscribers. Topic membership and room state stay in this
// process, so every client of a room must be served by the process that
// created it.
type Broker struct {
	*inmemory.Broker
	rc             *redis.Client
	prefix         string
	outbound       chan envelope
	publishTimeout time.Duration
	logger         *slog.Logger
}

type Option func(*Broker)

func WithQueueSize(n int) Option {
	return func(b *Broker) { b.outbound = make(chan envelope, n) }
}

// WithPublishTimeout bounds how long Publish waits for room in a full queue.
func WithPublishTimeout(d time.Duration) Option {
	return func(b *Broker) { b.publishTimeout = d }
}

func New(rc *redis.Client, prefix string, logger *slog.Logger, opts ...Option) *Broker {
	b := &Broker{
		Broker:         inmemory.New(),
		rc:             rc,
		prefix:         prefix,
		outbound:       make(chan envelope, defaultQueueSize),
		publishTimeout: defaultPublishTimeout,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Publish queues msg. When the queue stays full past the publish timeout the
// message is dropped and its local recipients are closed, so no client keeps
// running on a stream with a gap in it.
func (b *Broker) Publish(ctx context.Context, topic string, msg *broker.Message) error {
	env := envelope{topic: topic, msg: msg}

	select {
	case b.outbound <- env:
		return nil
	default:
	}

	timer := time.NewTimer(b.publishTimeout)
	defer timer.Stop()

	select {
	case b.outbound <- env:
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	metrics.DroppedMessages.Inc()
	evicted := b.Evict(topic, msg)
	b.logger.WarnContext(ctx, "outbound queue full, message dropped",
		"topic", topic,
		"type", msg.Type,
		"closed_subscribers", evicted,
	)

	return broker.ErrBackpressure
}

func (b *Broker) String() string {
	return "redis-broker"
}

// Serve subscribes to the prefix and runs until ctx is cancelled.
func (b *Broker) Serve(ctx context.Context) error {
	pubsub := b.rc.PSubscribe(ctx, b.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-b.outbound:
			b.send(ctx, env)
		case m, ok := <-ch:
			if !ok {
				return errSubscriptionClosed
			}
			b.receive(m)
		}
	}
}

func (b *Broker) send(ctx context.Context, env envelope) {
	data, err := json.Marshal(env.msg)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode message", "error", err, "topic", env.topic)
		return
	}

	if err := b.rc.Publish(ctx, b.prefix+env.topic, data).Err(); err != nil {
		b.logger.ErrorContext(ctx, "failed to publish message", "error", err, "topic", env.topic)
	}
}

func (b *Broker) receive(m *redis.Message) {
	var msg broker.Message
	if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
		b.logger.Warn("dropping undecodable message", "error", err, "channel", m.Channel)
		return
	}

	b.Deliver(strings.TrimPrefix(m.Channel, b.prefix), &msg)
}
