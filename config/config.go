package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Emby    EmbyConfig
	Pool    PoolConfig
	Tokens  TokensConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

type EmbyConfig struct {
	URL         string
	RemoteURL   string // optional public base URL, used when a request asks for the remote host
	Username    string
	Password    string
	Token       string // pre-shared token; skips live login entirely when set
	AuthHeader  string // trailing fragment of the X-Emby-Authorization header
	CFClearance string // pre-supplied Cloudflare clearance cookie
	Proxy       string
	UserAgent   string
	Headers     map[string]string // static headers applied to every request
	Basedir     string            // base directory for the on-disk token cache
}

type PoolConfig struct {
	IdleTimeout    int // Seconds a session may sit at zero references before reclamation
	PollInterval   int // Seconds between watchdog scans
	RequestTimeout int // Seconds, per-request transport timeout
	MaxAttempts    int
	StreamMinPace  int // Seconds, lower bound of the stream drain pacing
	StreamMaxPace  int // Seconds, upper bound of the stream drain pacing
}

type TokensConfig struct {
	Backend string // "file" or "redis"
	TTL     int    // Seconds, redis entry lifetime; 0 means no expiry
	Redis   RedisConfig
}

type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	PoolSize    int
	PoolTimeout int
}

type EventsConfig struct {
	Type    string // "none", "redis" or "kafka"
	Channel string
	Redis   RedisConfig
	Kafka   KafkaConfig
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

var (
	instance *AppConfig
	once     sync.Once
)

func Initialize(env string) error {
	var initErr error
	once.Do(func() {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")

		viper.AutomaticEnv()
		viper.SetEnvPrefix("EMBYKEEPER")

		setDefaults()
		bindEnvVars()

		if err := viper.ReadInConfig(); err != nil {
			initErr = fmt.Errorf("config file error: %w", err)
			return
		}

		if err := viper.Unmarshal(&instance); err != nil {
			initErr = fmt.Errorf("config unmarshal error: %w", err)
			return
		}

		if err := instance.Validate(); err != nil {
			initErr = fmt.Errorf("config validation failed: %w", err)
			return
		}
	})
	return initErr
}

func Get() *AppConfig {
	return instance
}
