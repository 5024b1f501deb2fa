package room

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/broker"
	brokerInmemory "github.com/sharetube/watchparty/internal/repository/broker/inmemory"
	connInmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires every timer that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// Skip moves time forward without firing timers.
func (c *fakeClock) Skip(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sequenceGenerator struct {
	codes []string
	i     int
}

func (g *sequenceGenerator) GenerateRandomString(int) string {
	code := g.codes[g.i%len(g.codes)]
	g.i++
	return code
}

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

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		types = append(types, m.Type)
	}
	return types
}

func (r *recorder) count(msgType string) int {
	n := 0
	for _, t := range r.types() {
		if t == msgType {
			n++
		}
	}
	return n
}

// last decodes the payload of the most recent message of msgType into v.
func (r *recorder) last(t *testing.T, msgType string, v any) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].Type == msgType {
			require.NoError(t, json.Unmarshal(r.msgs[i].Payload, v))
			return
		}
	}
	t.Fatalf("%s: no %s message, got %v", r.id, msgType, r.typesLocked())
}

func (r *recorder) typesLocked() []string {
	types := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		types = append(types, m.Type)
	}
	return types
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

type testEnv struct {
	svc    *Service
	broker *brokerInmemory.Broker
	clock  *fakeClock
	ctx    context.Context
}

func testConfig() Config {
	return Config{
		GracePeriod:   60 * time.Second,
		SweepInterval: time.Hour,
		RoomMaxAge:    2 * time.Hour,
		MembersLimit:  4,
		CodeLength:    6,
	}
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	cfg := testConfig()
	return newTestEnvWithConfig(t, &cfg, opts...)
}

func newTestEnvWithConfig(t *testing.T, cfg *Config, opts ...Option) *testEnv {
	t.Helper()

	b := brokerInmemory.New()
	clock := newFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(roomInmemory.NewRepo(), connInmemory.NewRepo(), b, logger, cfg, append([]Option{WithClock(clock)}, opts...)...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = svc.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &testEnv{svc: svc, broker: b, clock: clock, ctx: context.Background()}
}

func (e *testEnv) connect(id string) *recorder {
	r := &recorder{id: id}
	e.broker.Register(r)
	return r
}

// flush waits until every event queued so far has run.
func (e *testEnv) flush(t *testing.T) {
	t.Helper()
	_, err := do(e.ctx, e.svc, func() (struct{}, error) { return struct{}{}, nil })
	require.NoError(t, err)
}

// inspect runs fn against the live room on the event loop.
func (e *testEnv) inspect(t *testing.T, code string, fn func(r *domain.Room)) {
	t.Helper()
	_, err := do(e.ctx, e.svc, func() (struct{}, error) {
		r, err := e.svc.getRoom(code)
		if err != nil {
			return struct{}{}, err
		}
		fn(r)
		return struct{}{}, nil
	})
	require.NoError(t, err)
}

func (e *testEnv) roomExists(code string) bool {
	ok, _ := do(e.ctx, e.svc, func() (bool, error) {
		return e.svc.roomRepo.Exists(code), nil
	})
	return ok
}

func (e *testEnv) createRoom(t *testing.T, connectionID, name, token string) CreateRoomResponse {
	t.Helper()
	resp, err := e.svc.CreateRoom(e.ctx, &CreateRoomParams{
		ConnectionID: connectionID,
		ContentType:  "show",
		ContentID:    "abc",
		EpisodeID:    "ep1",
		DisplayName:  name,
		SessionToken: token,
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) joinRoom(t *testing.T, code, connectionID, name, token string) JoinRoomResponse {
	t.Helper()
	resp, err := e.svc.JoinRoom(e.ctx, &JoinRoomParams{
		ConnectionID: connectionID,
		RoomCode:     code,
		DisplayName:  name,
		SessionToken: token,
	})
	require.NoError(t, err)
	return resp
}
