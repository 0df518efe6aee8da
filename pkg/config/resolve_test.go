package config

import (
	"testing"
	"time"
)

func TestResolvePolicyDefaults(t *testing.T) {
	policy := ResolvePolicy(RaceConfig{})

	if policy.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("connect timeout = %v, want %v", policy.ConnectTimeout, DefaultConnectTimeout)
	}
	if policy.ReadTimeout != DefaultReadTimeoutUpstream {
		t.Errorf("read timeout = %v, want %v", policy.ReadTimeout, DefaultReadTimeoutUpstream)
	}
	if policy.StaggerDelay != DefaultStaggerDelay {
		t.Errorf("stagger delay = %v, want %v", policy.StaggerDelay, DefaultStaggerDelay)
	}
	if !policy.SSLVerify {
		t.Error("ssl verify should default on")
	}
	if policy.Debug {
		t.Error("debug should default off")
	}
	if policy.FallbackOnError {
		t.Error("fallback should default off")
	}
	if policy.MIMEAcceptPrefix != "image/" {
		t.Errorf("mime prefix = %q", policy.MIMEAcceptPrefix)
	}
	if policy.KeepAlive.IdleTimeout != DefaultKeepAliveIdleTimeout {
		t.Errorf("keep-alive idle = %v", policy.KeepAlive.IdleTimeout)
	}
	if policy.KeepAlive.MaxPoolSize != DefaultKeepAlivePoolSize {
		t.Errorf("keep-alive pool = %d", policy.KeepAlive.MaxPoolSize)
	}
	if len(policy.Endpoints) != len(DefaultEndpointSpecs) {
		t.Errorf("empty endpoint list should fall back to the built-in list, got %d", len(policy.Endpoints))
	}
}

func TestResolvePolicyFileValues(t *testing.T) {
	verify := false
	debug := true
	rc := RaceConfig{
		Endpoints:              []string{"gw1.example.com", "gw2.example.com:8443/ipfs"},
		ConnectTimeoutMS:       250,
		ReadTimeoutMS:          1500,
		StaggerDelayMS:         20,
		SSLVerify:              &verify,
		Debug:                  &debug,
		MIMEAcceptPrefix:       "video/",
		KeepAliveIdleTimeoutMS: 30000,
		KeepAlivePoolSize:      8,
	}

	policy := ResolvePolicy(rc)

	if len(policy.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(policy.Endpoints))
	}
	if policy.Endpoints[1].BasePath != "/ipfs" || policy.Endpoints[1].Port != 8443 {
		t.Errorf("endpoint not parsed: %+v", policy.Endpoints[1])
	}
	if policy.ConnectTimeout != 250*time.Millisecond {
		t.Errorf("connect timeout = %v", policy.ConnectTimeout)
	}
	if policy.SSLVerify {
		t.Error("ssl verify should be off per file")
	}
	if !policy.Debug {
		t.Error("debug should be on per file")
	}
	if policy.MIMEAcceptPrefix != "video/" {
		t.Errorf("mime prefix = %q", policy.MIMEAcceptPrefix)
	}
	if policy.KeepAlive.IdleTimeout != 30*time.Second || policy.KeepAlive.MaxPoolSize != 8 {
		t.Errorf("keep-alive = %+v", policy.KeepAlive)
	}
}

func TestResolvePolicyMalformedValuesFallBack(t *testing.T) {
	rc := RaceConfig{
		ConnectTimeoutMS: -5,
		ReadTimeoutMS:    0,
	}
	policy := ResolvePolicy(rc)
	if policy.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("non-positive connect timeout must fall back, got %v", policy.ConnectTimeout)
	}
	if policy.ReadTimeout != DefaultReadTimeoutUpstream {
		t.Errorf("zero read timeout must fall back, got %v", policy.ReadTimeout)
	}
}

func TestResolvePolicyInvalidEndpointsSkipped(t *testing.T) {
	rc := RaceConfig{
		Endpoints: []string{"gw1.example.com", "ftp://bad.example.com", "", "gw2.example.com"},
	}
	policy := ResolvePolicy(rc)
	if len(policy.Endpoints) != 2 {
		t.Fatalf("invalid and empty entries must be skipped, got %d endpoints", len(policy.Endpoints))
	}
	if policy.Endpoints[0].Host != "gw1.example.com" || policy.Endpoints[1].Host != "gw2.example.com" {
		t.Errorf("unexpected endpoints: %+v", policy.Endpoints)
	}
}

func TestResolvePolicyAllInvalidFallsBackToDefaults(t *testing.T) {
	rc := RaceConfig{Endpoints: []string{"ftp://bad", ":9"}}
	policy := ResolvePolicy(rc)
	if len(policy.Endpoints) != len(DefaultEndpointSpecs) {
		t.Errorf("all-invalid list should substitute defaults, got %d", len(policy.Endpoints))
	}
}

func TestResolvePolicyEnvOverrides(t *testing.T) {
	t.Setenv(EnvEndpoints, "env1.example.com, env2.example.com:9000")
	t.Setenv(EnvConnectTimeoutMS, "125")
	t.Setenv(EnvSSLVerify, "off")
	t.Setenv(EnvFallbackOnError, "YES")
	t.Setenv(EnvMIMEAcceptPrefix, "application/")

	rc := RaceConfig{
		Endpoints:        []string{"file.example.com"},
		ConnectTimeoutMS: 900,
	}
	policy := ResolvePolicy(rc)

	if len(policy.Endpoints) != 2 || policy.Endpoints[0].Host != "env1.example.com" {
		t.Errorf("environment endpoint list must win over file: %+v", policy.Endpoints)
	}
	if policy.ConnectTimeout != 125*time.Millisecond {
		t.Errorf("environment connect timeout must win, got %v", policy.ConnectTimeout)
	}
	if policy.SSLVerify {
		t.Error("ssl verify should be off per environment")
	}
	if !policy.FallbackOnError {
		t.Error("fallback should be on per environment (case-insensitive yes)")
	}
	if policy.MIMEAcceptPrefix != "application/" {
		t.Errorf("mime prefix = %q", policy.MIMEAcceptPrefix)
	}
}

func TestResolvePolicyMalformedEnvIgnored(t *testing.T) {
	t.Setenv(EnvConnectTimeoutMS, "soon")
	t.Setenv(EnvSSLVerify, "maybe")

	policy := ResolvePolicy(RaceConfig{ConnectTimeoutMS: 300})
	if policy.ConnectTimeout != 300*time.Millisecond {
		t.Errorf("malformed env must yield to file value, got %v", policy.ConnectTimeout)
	}
	if !policy.SSLVerify {
		t.Error("unparseable boolean must keep the default")
	}
}

func TestParseBool(t *testing.T) {
	trues := []string{"1", "true", "TRUE", "yes", "Yes", "on", "ON", " on "}
	falses := []string{"0", "false", "FALSE", "no", "No", "off", "OFF"}
	bad := []string{"", "2", "maybe", "enabled"}

	for _, v := range trues {
		if got, ok := ParseBool(v); !ok || !got {
			t.Errorf("ParseBool(%q) = (%t, %t), want (true, true)", v, got, ok)
		}
	}
	for _, v := range falses {
		if got, ok := ParseBool(v); !ok || got {
			t.Errorf("ParseBool(%q) = (%t, %t), want (false, true)", v, got, ok)
		}
	}
	for _, v := range bad {
		if _, ok := ParseBool(v); ok {
			t.Errorf("ParseBool(%q) should report ok=false", v)
		}
	}
}
