package room

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/broker"
	"github.com/sharetube/watchparty/pkg/randstr"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type iRoomRepo interface {
	Add(*domain.Room) error
	Get(code string) (*domain.Room, error)
	Exists(code string) bool
	Remove(code string)
	Codes() []string
	Len() int
	SetHostSession(token, code string)
	GetHostSessionRoom(token string) (string, error)
}

type iConnRepo interface {
	Add(connectionID, roomCode string) error
	Remove(connectionID string) error
	GetRoomCode(connectionID string) (string, error)
}

type iBroker interface {
	Join(topic, id string)
	Leave(topic, id string)
	CloseTopic(topic string)
	Publish(ctx context.Context, topic string, msg *broker.Message) error
}

type iCatalog interface {
	Validate(domain.ContentRef) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Config struct {
	GracePeriod   time.Duration
	SweepInterval time.Duration
	RoomMaxAge    time.Duration
	MembersLimit  int
	CodeLength    int
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithGenerator(g iGenerator) Option {
	return func(s *Service) { s.generator = g }
}

// WithCatalog enables content reference checks on create and change-content.
func WithCatalog(c iCatalog) Option {
	return func(s *Service) { s.catalog = c }
}

// Service coordinates every room of the process. All room state is owned by
// the goroutine running Serve; public methods hand closures to it and wait.
type Service struct {
	roomRepo    iRoomRepo
	connRepo    iConnRepo
	broker      iBroker
	catalog     iCatalog
	generator   iGenerator
	clock       Clock
	logger      *slog.Logger
	cfg         Config
	newID       func() string
	graceTimers map[string]Timer

	events   chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, b iBroker, logger *slog.Logger, cfg *Config, opts ...Option) *Service {
	s := &Service{
		roomRepo:    roomRepo,
		connRepo:    connRepo,
		broker:      b,
		generator:   randstr.New([]byte(codeAlphabet)),
		clock:       systemClock{},
		logger:      logger,
		cfg:         *cfg,
		newID:       uuid.NewString,
		graceTimers: make(map[string]Timer),
		events:      make(chan func()),
		stopped:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) String() string {
	return "room-service"
}

// Serve runs the event loop and the idle sweep until ctx is cancelled.
func (s *Service) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "room service started",
		"grace_period", s.cfg.GracePeriod.String(),
		"sweep_interval", s.cfg.SweepInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return ctx.Err()
		case ev := <-s.events:
			s.run(ctx, ev)
		case <-ticker.C:
			s.run(ctx, func() { s.sweep(ctx) })
		}
	}
}

func (s *Service) stop() {
	s.stopOnce.Do(func() {
		for code, timer := range s.graceTimers {
			timer.Stop()
			delete(s.graceTimers, code)
		}
		close(s.stopped)
	})
}

func (s *Service) run(ctx context.Context, ev func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "recovered panic in room event", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	ev()
}

func (s *Service) enqueue(ctx context.Context, ev func()) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrServiceStopped
	}
}

// do runs fn on the event loop and returns its result.
func do[T any](ctx context.Context, s *Service, fn func() (T, error)) (T, error) {
	var (
		res T
		err error
	)

	done := make(chan struct{})
	ev := func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.logger.ErrorContext(ctx, "recovered panic in room event", "panic", r, "stack", string(debug.Stack()))
				var zero T
				res, err = zero, ErrInternal
			}
		}()

		res, err = fn()
	}

	if err := s.enqueue(ctx, ev); err != nil {
		return res, err
	}

	<-done
	return res, err
}
