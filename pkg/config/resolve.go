package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names for race policy settings. Each one overrides the
// corresponding file setting; malformed values are ignored.
const (
	EnvEndpoints            = "MERCURY_RACE_ENDPOINTS"
	EnvConnectTimeoutMS     = "MERCURY_RACE_CONNECT_TIMEOUT_MS"
	EnvReadTimeoutMS        = "MERCURY_RACE_READ_TIMEOUT_MS"
	EnvStaggerDelayMS       = "MERCURY_RACE_STAGGER_DELAY_MS"
	EnvSSLVerify            = "MERCURY_RACE_SSL_VERIFY"
	EnvDebug                = "MERCURY_RACE_DEBUG"
	EnvFallbackOnError      = "MERCURY_RACE_FALLBACK_ON_ERROR"
	EnvMIMEAcceptPrefix     = "MERCURY_RACE_MIME_ACCEPT_PREFIX"
	EnvKeepAliveIdleTimeout = "MERCURY_RACE_KEEPALIVE_IDLE_TIMEOUT_MS"
	EnvKeepAlivePoolSize    = "MERCURY_RACE_KEEPALIVE_POOL_SIZE"
)

// ResolvePolicy builds the race policy from the file configuration and
// environment overrides. It never fails: malformed or missing values fall
// back to their documented defaults, and invalid endpoint entries are skipped
// with a warning. An empty endpoint list substitutes the compiled-in public
// gateway list.
func ResolvePolicy(rc RaceConfig) RacePolicy {
	policy := RacePolicy{
		ConnectTimeout:   positiveMillis(rc.ConnectTimeoutMS, EnvConnectTimeoutMS, DefaultConnectTimeout),
		ReadTimeout:      positiveMillis(rc.ReadTimeoutMS, EnvReadTimeoutMS, DefaultReadTimeoutUpstream),
		StaggerDelay:     positiveMillis(rc.StaggerDelayMS, EnvStaggerDelayMS, DefaultStaggerDelay),
		SSLVerify:        boolSetting(rc.SSLVerify, EnvSSLVerify, DefaultSSLVerify),
		Debug:            boolSetting(rc.Debug, EnvDebug, DefaultDebug),
		FallbackOnError:  boolSetting(rc.FallbackOnError, EnvFallbackOnError, DefaultFallbackOnError),
		MIMEAcceptPrefix: stringSetting(rc.MIMEAcceptPrefix, EnvMIMEAcceptPrefix, DefaultMIMEAcceptPrefix),
		KeepAlive: KeepAlivePolicy{
			IdleTimeout: positiveMillis(rc.KeepAliveIdleTimeoutMS, EnvKeepAliveIdleTimeout, DefaultKeepAliveIdleTimeout),
			MaxPoolSize: positiveInt(rc.KeepAlivePoolSize, EnvKeepAlivePoolSize, DefaultKeepAlivePoolSize),
		},
	}

	policy.Endpoints = resolveEndpoints(rc.Endpoints)
	return policy
}

// resolveEndpoints parses the configured endpoint specifications, preferring
// the environment list over the file list. Invalid entries are skipped; an
// empty result substitutes the default list.
func resolveEndpoints(fileSpecs []string) []Endpoint {
	specs := fileSpecs
	if env := os.Getenv(EnvEndpoints); env != "" {
		specs = splitList(env)
	}

	endpoints := make([]Endpoint, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		ep, err := ParseEndpoint(spec)
		if err != nil {
			slog.Warn("skipping invalid endpoint spec", "spec", spec, "error", err)
			continue
		}
		endpoints = append(endpoints, ep)
	}

	if len(endpoints) == 0 {
		return DefaultEndpoints()
	}
	return endpoints
}

// splitList splits a comma-separated value, trimming entries and dropping
// empty ones.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseBool parses a permissive boolean setting. It accepts 1/true/yes/on and
// 0/false/no/off case-insensitively; anything else reports ok=false so the
// caller keeps its default.
func ParseBool(value string) (parsed, ok bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// boolSetting resolves a boolean setting: environment wins over file, file
// wins over the default. A nil file value or unparseable environment value
// means absent.
func boolSetting(fileVal *bool, envName string, def bool) bool {
	if env := os.Getenv(envName); env != "" {
		if v, ok := ParseBool(env); ok {
			return v
		}
	}
	if fileVal != nil {
		return *fileVal
	}
	return def
}

// positiveMillis resolves a millisecond duration setting. Non-positive and
// non-numeric values are treated as absent.
func positiveMillis(fileVal int, envName string, def time.Duration) time.Duration {
	if n := positiveEnvInt(envName); n > 0 {
		return time.Duration(n) * time.Millisecond
	}
	if fileVal > 0 {
		return time.Duration(fileVal) * time.Millisecond
	}
	return def
}

// positiveInt resolves a positive integer setting with the same fallback
// rules as positiveMillis.
func positiveInt(fileVal int, envName string, def int) int {
	if n := positiveEnvInt(envName); n > 0 {
		return n
	}
	if fileVal > 0 {
		return fileVal
	}
	return def
}

// positiveEnvInt reads a positive integer from the environment, returning 0
// when the variable is unset, non-numeric, or non-positive.
func positiveEnvInt(envName string) int {
	env := os.Getenv(envName)
	if env == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(env))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// stringSetting resolves a free-form string setting.
func stringSetting(fileVal, envName, def string) string {
	if env := os.Getenv(envName); env != "" {
		return env
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}
