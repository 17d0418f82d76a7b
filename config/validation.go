package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

func (c *AppConfig) Validate() error {
	if c.Emby.URL == "" {
		return errors.New("emby.url must be set")
	}
	u, err := url.Parse(c.Emby.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("emby.url is not a valid absolute URL: %q", c.Emby.URL)
	}
	if c.Emby.RemoteURL != "" {
		if ru, err := url.Parse(c.Emby.RemoteURL); err != nil || ru.Scheme == "" || ru.Host == "" {
			return fmt.Errorf("emby.remoteURL is not a valid absolute URL: %q", c.Emby.RemoteURL)
		}
	}
	if c.Emby.Username == "" && c.Emby.Token == "" {
		return errors.New("either emby.username or emby.token must be configured")
	}

	if c.Pool.IdleTimeout < 1 {
		return errors.New("pool idle timeout must be at least 1 second")
	}
	if c.Pool.PollInterval < 1 {
		return errors.New("pool poll interval must be at least 1 second")
	}
	// Keeps the watchdog's eviction timing deterministic.
	if c.Pool.IdleTimeout%c.Pool.PollInterval != 0 {
		return errors.New("pool poll interval must evenly divide the idle timeout")
	}
	if c.Pool.MaxAttempts < 1 {
		return errors.New("pool max attempts must be positive")
	}
	if c.Pool.StreamMinPace < 1 || c.Pool.StreamMaxPace < c.Pool.StreamMinPace {
		return errors.New("stream pacing bounds must satisfy 1 <= min <= max")
	}

	switch strings.ToLower(c.Tokens.Backend) {
	case "file":
		if c.Emby.Basedir == "" {
			return errors.New("emby.basedir must be set for the file token backend")
		}
	case "redis":
		if c.Tokens.Redis.Address == "" {
			return errors.New("tokens.redis.address must be set for the redis token backend")
		}
	default:
		return fmt.Errorf("invalid token backend: %s. Must be 'file' or 'redis'", c.Tokens.Backend)
	}

	switch strings.ToLower(c.Events.Type) {
	case "none":
	case "redis":
		if c.Events.Redis.Address == "" {
			return errors.New("events.redis.address must be set for the redis event publisher")
		}
		if c.Events.Channel == "" {
			return errors.New("events.channel must be set for the redis event publisher")
		}
	case "kafka":
		if len(c.Events.Kafka.Brokers) == 0 {
			return errors.New("events.kafka.brokers must be specified for the kafka event publisher")
		}
		if c.Events.Kafka.Topic == "" {
			return errors.New("events.kafka.topic must be specified for the kafka event publisher")
		}
	default:
		return fmt.Errorf("invalid events type: %s. Must be 'none', 'redis' or 'kafka'", c.Events.Type)
	}

	return nil
}

func bindEnvVars() {
	// Emby
	viper.BindEnv("emby.url", "EMBYKEEPER_EMBY_URL")
	viper.BindEnv("emby.remoteURL", "EMBYKEEPER_EMBY_REMOTE_URL")
	viper.BindEnv("emby.username", "EMBYKEEPER_EMBY_USERNAME")
	viper.BindEnv("emby.password", "EMBYKEEPER_EMBY_PASSWORD")
	viper.BindEnv("emby.token", "EMBYKEEPER_EMBY_TOKEN")
	viper.BindEnv("emby.proxy", "EMBYKEEPER_PROXY")
	viper.BindEnv("emby.cfClearance", "EMBYKEEPER_CF_CLEARANCE")
	viper.BindEnv("emby.basedir", "EMBYKEEPER_BASEDIR")

	// Pool
	viper.BindEnv("pool.idleTimeout", "EMBYKEEPER_IDLE_TIMEOUT")
	viper.BindEnv("pool.pollInterval", "EMBYKEEPER_POLL_INTERVAL")
	viper.BindEnv("pool.requestTimeout", "EMBYKEEPER_REQUEST_TIMEOUT")
	viper.BindEnv("pool.maxAttempts", "EMBYKEEPER_MAX_ATTEMPTS")

	// Tokens
	viper.BindEnv("tokens.backend", "EMBYKEEPER_TOKEN_BACKEND")
	viper.BindEnv("tokens.redis.address", "EMBYKEEPER_TOKENS_REDIS_ADDRESS")
	viper.BindEnv("tokens.redis.password", "EMBYKEEPER_TOKENS_REDIS_PASSWORD")

	// Events
	viper.BindEnv("events.type", "EMBYKEEPER_EVENTS_TYPE")
	viper.BindEnv("events.channel", "EMBYKEEPER_EVENTS_CHANNEL")
	viper.BindEnv("events.redis.address", "EMBYKEEPER_EVENTS_REDIS_ADDRESS")
	viper.BindEnv("events.kafka.brokers", "EMBYKEEPER_KAFKA_BROKERS")
	viper.BindEnv("events.kafka.topic", "EMBYKEEPER_KAFKA_TOPIC")
}
