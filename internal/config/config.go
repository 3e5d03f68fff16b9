package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Route       RouteConfig       `mapstructure:"route"`
	Bus         BusConfig         `mapstructure:"bus"`
	DebugSink   DebugSinkConfig   `mapstructure:"debug_sink"`
	ArchiveSink ArchiveSinkConfig `mapstructure:"archive_sink"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AuthConfig struct {
	// Mode selects the validator backend: "jwt" (local verification) or
	// "directory" (remote introspection).
	Mode         string        `mapstructure:"mode"`
	Issuer       string        `mapstructure:"issuer"`
	ClientID     string        `mapstructure:"client_id"`
	Secret       string        `mapstructure:"secret"`
	DirectoryURL string        `mapstructure:"directory_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type RouteConfig struct {
	Source     string `mapstructure:"source"`
	DetailType string `mapstructure:"detail_type"`
	BusName    string `mapstructure:"bus_name"`
}

type BusConfig struct {
	QueueSize      int `mapstructure:"queue_size"`
	MaxDetailBytes int `mapstructure:"max_detail_bytes"`
}

type DebugSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	NatsURL string `mapstructure:"nats_url"`
	Subject string `mapstructure:"subject"`
}

type ArchiveSinkConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Backend       string        `mapstructure:"backend"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	FlushTimeout  time.Duration `mapstructure:"flush_timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryBase     time.Duration `mapstructure:"retry_base_delay"`
	RetryMax      time.Duration `mapstructure:"retry_max_delay"`

	S3         S3Config         `mapstructure:"s3"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

type OpenSearchConfig struct {
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Index         string `mapstructure:"index"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	RedisURL string        `mapstructure:"redis_url"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("auth.mode", "jwt")
	v.SetDefault("auth.issuer", "https://identity.local/eventgate")
	v.SetDefault("auth.client_id", "eventgate-client")
	v.SetDefault("auth.timeout", "5s")
	v.SetDefault("route.source", "clientevents")
	v.SetDefault("route.detail_type", "detailTypeField")
	v.SetDefault("route.bus_name", "clientevents-bus")
	v.SetDefault("bus.queue_size", 1024)
	v.SetDefault("bus.max_detail_bytes", 262144)
	v.SetDefault("debug_sink.enabled", true)
	v.SetDefault("debug_sink.nats_url", "nats://localhost:4222")
	v.SetDefault("debug_sink.subject", "eventgate.debug")
	v.SetDefault("archive_sink.enabled", true)
	v.SetDefault("archive_sink.backend", "s3")
	v.SetDefault("archive_sink.flush_interval", "60s")
	v.SetDefault("archive_sink.flush_timeout", "30s")
	v.SetDefault("archive_sink.retry_attempts", 3)
	v.SetDefault("archive_sink.retry_base_delay", "500ms")
	v.SetDefault("archive_sink.retry_max_delay", "5s")
	v.SetDefault("archive_sink.s3.bucket", "eventgate-archive")
	v.SetDefault("archive_sink.s3.prefix", "events")
	v.SetDefault("archive_sink.opensearch.url", "https://localhost:9200")
	v.SetDefault("archive_sink.opensearch.username", "admin")
	v.SetDefault("archive_sink.opensearch.index", "eventgate-archive")
	v.SetDefault("archive_sink.opensearch.tls_skip_verify", true)
	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests", 10000)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/eventgate")
	}

	// Environment variables override
	v.SetEnvPrefix("GATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
