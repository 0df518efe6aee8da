// Package handlers provides the HTTP handlers of the proxy: the racing
// content gateway handler and the health and readiness probes.
package handlers
