package upstream

import (
	"fmt"

	"helios-hq/mercury/pkg/config"
)

// Stage identifies where in the request cycle a fetch attempt failed.
type Stage string

const (
	// StageStagger covers the startup delay before any connection attempt.
	StageStagger Stage = "stagger"

	// StageConnect covers TCP connection establishment.
	StageConnect Stage = "connect"

	// StageHandshake covers the TLS handshake.
	StageHandshake Stage = "handshake"

	// StageRequest covers writing the request and reading the response
	// header.
	StageRequest Stage = "request"
)

// ConnectError reports a failure to open a TCP connection to an endpoint.
type ConnectError struct {
	// Endpoint is the gateway the attempt was dialing.
	Endpoint config.Endpoint

	// Cause is the underlying dial error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("endpoint %s connect failed: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// HandshakeError reports a TLS handshake failure against an endpoint.
type HandshakeError struct {
	// Endpoint is the gateway the attempt was handshaking with.
	Endpoint config.Endpoint

	// Cause is the underlying TLS error.
	Cause error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	return fmt.Sprintf("endpoint %s TLS handshake failed: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// RequestError reports a failure to write the request or read the response
// header from an endpoint.
type RequestError struct {
	// Endpoint is the gateway the request was sent to.
	Endpoint config.Endpoint

	// Cause is the underlying I/O or protocol error.
	Cause error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("endpoint %s request failed: %v", e.Endpoint, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *RequestError) Unwrap() error {
	return e.Cause
}
