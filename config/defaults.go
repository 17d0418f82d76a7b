package config

import "github.com/spf13/viper"

func setDefaults() {
	// Emby
	viper.SetDefault("emby.url", "http://localhost:8096")
	viper.SetDefault("emby.authHeader", `Client="Emby Keeper", Device="embykeeper", DeviceId="embykeeper", Version="1.0"`)
	viper.SetDefault("emby.userAgent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	viper.SetDefault("emby.basedir", ".")

	// Pool
	viper.SetDefault("pool.idleTimeout", 60)
	viper.SetDefault("pool.pollInterval", 10)
	viper.SetDefault("pool.requestTimeout", 10)
	viper.SetDefault("pool.maxAttempts", 3)
	viper.SetDefault("pool.streamMinPace", 5)
	viper.SetDefault("pool.streamMaxPace", 10)

	// Tokens
	viper.SetDefault("tokens.backend", "file")
	viper.SetDefault("tokens.ttl", 0)
	viper.SetDefault("tokens.redis.address", "localhost:6379")
	viper.SetDefault("tokens.redis.db", 0)
	viper.SetDefault("tokens.redis.poolSize", 10)
	viper.SetDefault("tokens.redis.poolTimeout", 5)

	// Events
	viper.SetDefault("events.type", "none")
	viper.SetDefault("events.channel", "emby:events")
	viper.SetDefault("events.redis.address", "localhost:6379")
	viper.SetDefault("events.redis.db", 0)
	viper.SetDefault("events.kafka.topic", "emby-events")

	// Metrics
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("metrics.path", "/metrics")
}
