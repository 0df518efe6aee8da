package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	// Field is the dotted path of the invalid field.
	Field string

	// Message describes what is invalid about the field.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration field %q: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors that cannot be repaired by
// defaulting. Race policy settings are deliberately not validated here: they
// fall back silently inside ResolvePolicy.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		return &ValidationError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("not a host:port address: %v", err),
		}
	}

	if cfg.Server.ReadTimeout <= 0 {
		return &ValidationError{Field: "server.read_timeout", Message: "must be positive"}
	}
	if cfg.Server.WriteTimeout <= 0 {
		return &ValidationError{Field: "server.write_timeout", Message: "must be positive"}
	}
	if cfg.Server.MaxHeaderBytes <= 0 {
		return &ValidationError{Field: "server.max_header_bytes", Message: "must be positive"}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level),
		}
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text", "console":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format),
		}
	}

	if cfg.Telemetry.Metrics.Enabled && !strings.HasPrefix(cfg.Telemetry.Metrics.Path, "/") {
		return &ValidationError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		}
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		return &ValidationError{Field: "history.path", Message: "required when history is enabled"}
	}

	return nil
}
