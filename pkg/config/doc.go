// Package config provides configuration management for Mercury.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides, and resolving the race
// policy that governs how upstream gateways are raced.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// Environment variables follow the naming convention MERCURY_SECTION_FIELD,
// for example MERCURY_SERVER_LISTEN_ADDRESS or
// MERCURY_TELEMETRY_LOGGING_LEVEL. Environment variables always take
// precedence over file-based configuration.
//
// # Race Policy Resolution
//
// The race policy is resolved separately through ResolvePolicy, which never
// fails: every malformed or missing setting silently falls back to its
// documented default, and invalid endpoint specifications are skipped. This
// keeps the proxy serving even under a broken deployment configuration.
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and swaps the
// resolved policy in a PolicyStore, so the gateway list and timeouts can
// change without a restart. Races already in flight finish under the policy
// they started with.
package config
