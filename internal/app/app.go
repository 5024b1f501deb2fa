package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/sharetube/watchparty/internal/controller"
	"github.com/sharetube/watchparty/internal/repository/broker"
	brokerInmemory "github.com/sharetube/watchparty/internal/repository/broker/inmemory"
	brokerRedis "github.com/sharetube/watchparty/internal/repository/broker/redis"
	"github.com/sharetube/watchparty/internal/repository/catalog/jsonfile"
	connInmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
	"github.com/sharetube/watchparty/pkg/redisclient"
)

const (
	BrokerInmemory = "inmemory"
	BrokerRedis    = "redis"

	redisChannelPrefix = "watchparty:"
)

type AppConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	LogLevel       string        `json:"log_level"`
	GracePeriod    time.Duration `json:"grace_period"`
	SweepInterval  time.Duration `json:"sweep_interval"`
	RoomMaxAge     time.Duration `json:"room_max_age"`
	MembersLimit   int           `json:"members_limit"`
	CodeLength     int           `json:"code_length"`
	CatalogPath    string        `json:"catalog_path"`
	Broker         string        `json:"broker"`
	RedisPort      int           `json:"redis_port"`
	RedisHost      string        `json:"redis_host"`
	RedisPassword  string        `json:"-"`
	AllowedOrigins []string      `json:"allowed_origins"`
}

func (cfg *AppConfig) Validate() error {
	return validation.ValidateStruct(cfg,
		validation.Field(&cfg.Host, validation.Required),
		validation.Field(&cfg.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&cfg.LogLevel, validation.Required, validation.By(validLogLevel)),
		validation.Field(&cfg.GracePeriod, validation.Required, validation.Min(time.Second)),
		validation.Field(&cfg.SweepInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&cfg.RoomMaxAge, validation.Required, validation.Min(time.Minute)),
		validation.Field(&cfg.MembersLimit, validation.Required, validation.Min(2)),
		validation.Field(&cfg.CodeLength, validation.Required, validation.Min(4), validation.Max(12)),
		validation.Field(&cfg.Broker, validation.Required, validation.In(BrokerInmemory, BrokerRedis)),
		validation.Field(&cfg.RedisHost, validation.When(cfg.Broker == BrokerRedis, validation.Required)),
		validation.Field(&cfg.RedisPort, validation.When(cfg.Broker == BrokerRedis, validation.Required, validation.Min(1), validation.Max(65535))),
	)
}

func validLogLevel(value any) error {
	s, _ := value.(string)

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return fmt.Errorf("unknown log level %q", s)
	}

	return nil
}

func (cfg *AppConfig) serviceConfig() *room.Config {
	return &room.Config{
		GracePeriod:   cfg.GracePeriod,
		SweepInterval: cfg.SweepInterval,
		RoomMaxAge:    cfg.RoomMaxAge,
		MembersLimit:  cfg.MembersLimit,
		CodeLength:    cfg.CodeLength,
	}
}

type messageBroker interface {
	Register(broker.Subscriber)
	Unregister(id string)
	Join(topic, id string)
	Leave(topic, id string)
	CloseTopic(topic string)
	Publish(ctx context.Context, topic string, msg *broker.Message) error
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	supervisor := suture.New("watchparty", suture.Spec{
		EventHook: (&sutureslog.Handler{Logger: logger}).MustHook(),
	})

	var b messageBroker
	switch cfg.Broker {
	case BrokerRedis:
		rc, err := redisclient.NewRedisClient(&redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		redisBroker := brokerRedis.New(rc, redisChannelPrefix, logger)
		supervisor.Add(redisBroker)
		b = redisBroker
	default:
		b = brokerInmemory.New()
	}

	var opts []room.Option
	if cfg.CatalogPath != "" {
		catalog, err := jsonfile.Load(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		opts = append(opts, room.WithCatalog(catalog))
	}

	roomService := room.NewService(roomInmemory.NewRepo(), connInmemory.NewRepo(), b, logger, cfg.serviceConfig(), opts...)
	supervisor.Add(roomService)

	controller := controller.NewController(roomService, b, logger, cfg.AllowedOrigins)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	supervisorErr := supervisor.ServeBackground(serverCtx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "broker", cfg.Broker)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	if err := <-supervisorErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}

	return nil
}
