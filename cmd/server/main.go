package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	gracePeriod = configVar[time.Duration]{
		envKey:       "SERVER_GRACE_PERIOD",
		flagKey:      "grace-period",
		defaultValue: 60 * time.Second,
	}
	sweepInterval = configVar[time.Duration]{
		envKey:       "SERVER_SWEEP_INTERVAL",
		flagKey:      "sweep-interval",
		defaultValue: 5 * time.Minute,
	}
	roomMaxAge = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_MAX_AGE",
		flagKey:      "room-max-age",
		defaultValue: 2 * time.Hour,
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 16,
	}
	codeLength = configVar[int]{
		envKey:       "SERVER_CODE_LENGTH",
		flagKey:      "code-length",
		defaultValue: 6,
	}
	catalogPath = configVar[string]{
		envKey:       "SERVER_CATALOG_PATH",
		flagKey:      "catalog-path",
		defaultValue: "",
	}
	brokerKind = configVar[string]{
		envKey:       "SERVER_BROKER",
		flagKey:      "broker",
		defaultValue: app.BrokerInmemory,
	}
	allowedOrigins = configVar[[]string]{
		envKey:       "SERVER_ALLOWED_ORIGINS",
		flagKey:      "allowed-origins",
		defaultValue: []string{"*"},
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

// splitList accepts both repeated flags and a comma separated env value.
func splitList(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				result = append(result, part)
			}
		}
	}

	return result
}

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Duration(gracePeriod.flagKey, gracePeriod.defaultValue, "How long a room waits for its host to reconnect")
	pflag.Duration(sweepInterval.flagKey, sweepInterval.defaultValue, "Interval of the idle room sweep")
	pflag.Duration(roomMaxAge.flagKey, roomMaxAge.defaultValue, "Age after which the sweep destroys a room")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in the room")
	pflag.Int(codeLength.flagKey, codeLength.defaultValue, "Length of generated room codes")
	pflag.String(catalogPath.flagKey, catalogPath.defaultValue, "Path to the JSON catalog; empty disables content checks")
	pflag.String(brokerKind.flagKey, brokerKind.defaultValue, "Message broker: inmemory or redis")
	pflag.StringSlice(allowedOrigins.flagKey, allowedOrigins.defaultValue, "Origins allowed to open the websocket")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(port)
	bind(host)
	bind(logLevel)
	bind(gracePeriod)
	bind(sweepInterval)
	bind(roomMaxAge)
	bind(membersLimit)
	bind(codeLength)
	bind(catalogPath)
	bind(brokerKind)
	bind(allowedOrigins)
	bind(redisPort)
	bind(redisHost)
	bind(redisPassword)

	config := &app.AppConfig{
		Host:           viper.GetString(host.flagKey),
		Port:           viper.GetInt(port.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
		GracePeriod:    viper.GetDuration(gracePeriod.flagKey),
		SweepInterval:  viper.GetDuration(sweepInterval.flagKey),
		RoomMaxAge:     viper.GetDuration(roomMaxAge.flagKey),
		MembersLimit:   viper.GetInt(membersLimit.flagKey),
		CodeLength:     viper.GetInt(codeLength.flagKey),
		CatalogPath:    viper.GetString(catalogPath.flagKey),
		Broker:         viper.GetString(brokerKind.flagKey),
		AllowedOrigins: splitList(viper.GetStringSlice(allowedOrigins.flagKey)),
		RedisPort:      viper.GetInt(redisPort.flagKey),
		RedisHost:      viper.GetString(redisHost.flagKey),
		RedisPassword:  viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	os.Exit(exitCode(app.Run(ctx, appConfig)))
}

// exitCode is 0 after a clean shutdown.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	log.Print(err)
	return 1
}
