package config

import (
	"time"
)

// Config is the root configuration for the Mercury gateway proxy.
// It is loaded from a YAML file, filled in with defaults, and then
// overridden by MERCURY_* environment variables.
type Config struct {
	// Server configures the client-facing HTTP server.
	Server ServerConfig `yaml:"server"`

	// Race configures the upstream race policy.
	Race RaceConfig `yaml:"race"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History configures the race outcome store.
	History HistoryConfig `yaml:"history"`
}

// ServerConfig contains the client-facing HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the server listens on (host:port).
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a client request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// It must exceed the race deadline or slow winners are cut off mid-relay.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout for client connections.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of client request headers.
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// RaceConfig contains the race policy settings as written in the
// configuration file. ResolvePolicy turns it into a RacePolicy with the
// endpoint list parsed and every malformed value replaced by its default.
type RaceConfig struct {
	// Endpoints is the ordered upstream gateway list. Entries use the
	// [scheme://]host[:port][/basepath] form. An empty list falls back to
	// the built-in public gateway list.
	Endpoints []string `yaml:"endpoints"`

	// ConnectTimeoutMS bounds connection establishment per attempt.
	ConnectTimeoutMS int `yaml:"connect_timeout_ms"`

	// ReadTimeoutMS bounds the response header read per attempt.
	ReadTimeoutMS int `yaml:"read_timeout_ms"`

	// StaggerDelayMS is the per-rank startup delay between attempts.
	StaggerDelayMS int `yaml:"stagger_delay_ms"`

	// SSLVerify toggles upstream certificate verification.
	SSLVerify *bool `yaml:"ssl_verify"`

	// Debug enables per-attempt debug logging.
	Debug *bool `yaml:"debug"`

	// FallbackOnError relays the first rejected upstream response when no
	// attempt is accepted before the deadline.
	FallbackOnError *bool `yaml:"fallback_on_error"`

	// MIMEAcceptPrefix is the Content-Type prefix an upstream response must
	// carry to win the race.
	MIMEAcceptPrefix string `yaml:"mime_accept_prefix"`

	// KeepAliveIdleTimeoutMS is the idle timeout for pooled upstream
	// connections.
	KeepAliveIdleTimeoutMS int `yaml:"keepalive_idle_timeout_ms"`

	// KeepAlivePoolSize is the maximum number of pooled idle connections.
	KeepAlivePoolSize int `yaml:"keepalive_pool_size"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text", "console").
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled toggles the /metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`

	// RaceDurationBuckets are the histogram buckets for race duration.
	RaceDurationBuckets []float64 `yaml:"race_duration_buckets"`
}

// HistoryConfig contains race outcome store settings.
type HistoryConfig struct {
	// Enabled toggles outcome recording.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// RetentionDays is how long outcome records are kept.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for retention pruning.
	// Empty disables scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// KeepAlivePolicy controls the upstream keep-alive connection pool.
type KeepAlivePolicy struct {
	// IdleTimeout is how long an idle pooled connection stays usable.
	IdleTimeout time.Duration

	// MaxPoolSize is the pool capacity across all endpoints.
	MaxPoolSize int
}

// RacePolicy is the resolved, read-only policy a race runs under.
// It is built once from RaceConfig plus environment overrides and shared by
// all requests until a configuration reload swaps it.
type RacePolicy struct {
	// Endpoints is the ordered list of upstream gateways. The index of an
	// endpoint is its rank, which determines its stagger delay.
	Endpoints []Endpoint

	// ConnectTimeout bounds connection establishment per attempt.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the response header read per attempt.
	ReadTimeout time.Duration

	// StaggerDelay is the per-rank startup delay. Attempt k waits k times
	// this duration before dialing.
	StaggerDelay time.Duration

	// SSLVerify toggles upstream certificate verification.
	SSLVerify bool

	// MIMEAcceptPrefix is matched case-insensitively against the upstream
	// Content-Type.
	MIMEAcceptPrefix string

	// FallbackOnError relays the first rejected response when the race
	// produces no winner.
	FallbackOnError bool

	// Debug enables per-attempt debug logging.
	Debug bool

	// KeepAlive controls the upstream connection pool.
	KeepAlive KeepAlivePolicy
}
