// Package middleware provides the HTTP middleware chain for the proxy:
// panic recovery, structured request logging, and request ID propagation.
package middleware
