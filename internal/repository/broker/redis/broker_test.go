package redis

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/metrics"
	"github.com/sharetube/watchparty/internal/repository/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	id     string
	mu     sync.Mutex
	msgs   []*broker.Message
	closed bool
}

func (r *recorder) ID() string { return r.id }

func (r *recorder) Deliver(msg *broker.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recorder) snapshot() []*broker.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*broker.Message(nil), r.msgs...)
}

func newTestBroker(t *testing.T, opts ...Option) *Broker {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	return New(rc, "watchparty:", slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func TestBrokerPublishThroughRedis(t *testing.T) {
	b := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- b.Serve(ctx) }()

	alice, bob := &recorder{id: "alice"}, &recorder{id: "bob"}
	b.Register(alice)
	b.Register(bob)
	topic := broker.RoomTopic("ABCDEF")
	b.Join(topic, "alice")
	b.Join(topic, "bob")

	for i, msgType := range []string{"chat:receive", "video:sync"} {
		msg, err := broker.NewMessage(msgType, map[string]int{"n": i}, "alice")
		require.NoError(t, err)
		require.NoError(t, b.Publish(ctx, topic, msg))
	}

	require.Eventually(t, func() bool {
		return len(bob.snapshot()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	got := bob.snapshot()
	assert.Equal(t, "chat:receive", got[0].Type)
	assert.Equal(t, "video:sync", got[1].Type)
	assert.JSONEq(t, `{"n":1}`, string(got[1].Payload))
	assert.Empty(t, alice.snapshot())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestBrokerBackpressure(t *testing.T) {
	// Serve is not running, so nothing drains the queue.
	b := newTestBroker(t, WithQueueSize(1), WithPublishTimeout(time.Millisecond))

	alice, bob := &recorder{id: "alice"}, &recorder{id: "bob"}
	b.Register(alice)
	b.Register(bob)
	topic := broker.RoomTopic("ABCDEF")
	b.Join(topic, "alice")
	b.Join(topic, "bob")

	dropped := testutil.ToFloat64(metrics.DroppedMessages)

	msg := &broker.Message{Type: "chat:receive"}
	require.NoError(t, b.Publish(context.Background(), topic, msg))
	assert.False(t, alice.isClosed())

	next := &broker.Message{Type: "video:sync", Except: []string{"alice"}}
	assert.ErrorIs(t, b.Publish(context.Background(), topic, next), broker.ErrBackpressure)
	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.DroppedMessages))
	assert.True(t, bob.isClosed())
	assert.False(t, alice.isClosed(), "excluded subscriber must stay connected")
}
