package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Race policy defaults
	DefaultConnectTimeout       = 500 * time.Millisecond
	DefaultReadTimeoutUpstream  = 4000 * time.Millisecond
	DefaultStaggerDelay         = 0 * time.Millisecond
	DefaultSSLVerify            = true
	DefaultDebug                = false
	DefaultFallbackOnError      = false
	DefaultMIMEAcceptPrefix     = "image/"
	DefaultKeepAliveIdleTimeout = 60 * time.Second
	DefaultKeepAlivePoolSize    = 64

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "mercury"

	// History defaults (recording itself is opt-in)
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetentionDays = 30
	DefaultHistoryPruneSchedule = "0 3 * * *"
)

// DefaultEndpointSpecs is the compiled-in upstream list used when no
// endpoints are configured. These are well-known public content gateways.
var DefaultEndpointSpecs = []string{
	"https://ipfs.io/ipfs",
	"https://gateway.pinata.cloud/ipfs",
	"https://cloudflare-ipfs.com/ipfs",
	"https://dweb.link/ipfs",
}

// DefaultRaceDurationBuckets are the histogram buckets for race duration in
// seconds. Races are bounded at 5 seconds, so the buckets concentrate below
// that.
var DefaultRaceDurationBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5,
}

// DefaultEndpoints parses the compiled-in endpoint list. The specs are
// constants that are covered by tests, so parse errors cannot occur here.
func DefaultEndpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(DefaultEndpointSpecs))
	for _, spec := range DefaultEndpointSpecs {
		ep, err := ParseEndpoint(spec)
		if err != nil {
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}

// ApplyDefaults fills in zero-valued configuration fields with defaults.
// Race policy fields are left alone here; ResolvePolicy owns their defaulting
// because malformed race settings must fall back silently rather than fail
// validation.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	// Metrics default to enabled when the section is absent. A user who set
	// any metrics field but left enabled false gets what they asked for.
	if !cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.Path == "" &&
		cfg.Telemetry.Metrics.Namespace == "" && len(cfg.Telemetry.Metrics.RaceDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RaceDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RaceDurationBuckets = DefaultRaceDurationBuckets
	}

	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}
}
