package config

import (
	"flag"
	"os"
	"sync"
	"time"
)

const (
	defaultServerAddress  = ":8080"
	defaultDatabaseDSN    = ""
	defaultLogLevel       = "debug"
	defaultTokenKey       = "f53ac685bbceebd75043e6be2e06ee07"
	defaultTokenTTL       = 24 * time.Hour
	defaultKafkaBrokers   = ""
	defaultOutboxTopic    = "fmmall.events"
	defaultOutboxInterval = 5 * time.Second
	defaultOtelEndpoint   = ""
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	LogLevel       string
	TokenKey       string
	TokenTTL       time.Duration
	KafkaBrokers   string
	OutboxTopic    string
	OutboxInterval time.Duration
	OtelEndpoint   string
	AdminLogin     string
	AdminPassword  string
}

var (
	once      sync.Once
	singleton *Config
	loadErr   error
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "fmmall server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "fmmall database DSN")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
		flag.StringVar(&cfg.TokenKey, "k", defaultTokenKey, "auth token key in hex")
		flag.DurationVar(&cfg.TokenTTL, "t", defaultTokenTTL, "auth token lifetime")
		flag.StringVar(&cfg.KafkaBrokers, "b", defaultKafkaBrokers, "comma separated kafka brokers")
		flag.StringVar(&cfg.OutboxTopic, "topic", defaultOutboxTopic, "kafka topic for domain events")
		flag.DurationVar(&cfg.OutboxInterval, "i", defaultOutboxInterval, "outbox relay interval")
		flag.StringVar(&cfg.OtelEndpoint, "o", defaultOtelEndpoint, "OTLP/HTTP trace endpoint")
		flag.StringVar(&cfg.AdminLogin, "admin-login", "", "bootstrap admin login")
		flag.StringVar(&cfg.AdminPassword, "admin-password", "", "bootstrap admin password")

		flag.Parse()

		// if environment variable is set, then using it
		if runAddrEnv := os.Getenv("RUN_ADDRESS"); runAddrEnv != "" {
			cfg.ServerAddr = runAddrEnv
		}
		if dataBaseURIEnv := os.Getenv("DATABASE_URI"); dataBaseURIEnv != "" {
			cfg.DatabaseDSN = dataBaseURIEnv
		}
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			cfg.LogLevel = logLevelEnv
		}
		if tokenKeyEnv := os.Getenv("TOKEN_KEY"); tokenKeyEnv != "" {
			cfg.TokenKey = tokenKeyEnv
		}
		if tokenTTLEnv := os.Getenv("TOKEN_TTL"); tokenTTLEnv != "" {
			ttl, err := time.ParseDuration(tokenTTLEnv)
			if err != nil {
				loadErr = err
				return
			}
			cfg.TokenTTL = ttl
		}
		if brokersEnv := os.Getenv("KAFKA_BROKERS"); brokersEnv != "" {
			cfg.KafkaBrokers = brokersEnv
		}
		if topicEnv := os.Getenv("OUTBOX_TOPIC"); topicEnv != "" {
			cfg.OutboxTopic = topicEnv
		}
		if intervalEnv := os.Getenv("OUTBOX_INTERVAL"); intervalEnv != "" {
			interval, err := time.ParseDuration(intervalEnv)
			if err != nil {
				loadErr = err
				return
			}
			cfg.OutboxInterval = interval
		}
		if otelEnv := os.Getenv("OTEL_ENDPOINT"); otelEnv != "" {
			cfg.OtelEndpoint = otelEnv
		}
		if adminLoginEnv := os.Getenv("ADMIN_LOGIN"); adminLoginEnv != "" {
			cfg.AdminLogin = adminLoginEnv
		}
		if adminPasswordEnv := os.Getenv("ADMIN_PASSWORD"); adminPasswordEnv != "" {
			cfg.AdminPassword = adminPasswordEnv
		}

		singleton = &cfg
	})

	return singleton, loadErr
}
