package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Endpoint describes one upstream gateway: where to connect and which base
// path to prepend to every forwarded request path.
//
// An Endpoint is immutable once parsed. The zero value is not a valid
// endpoint; use ParseEndpoint to construct one.
type Endpoint struct {
	// Scheme is "http" or "https".
	Scheme string

	// Host is the gateway host name or IP address, passed through verbatim
	// (no percent-decoding or normalization).
	Host string

	// Port is the TCP port. Defaults to 443 for https and 80 for http when
	// the specification omits it.
	Port uint16

	// BasePath is prepended to the original request path. It is either empty
	// or starts with "/", and is preserved exactly as written.
	BasePath string
}

// InvalidEndpointSpecError reports an endpoint specification string that does
// not match the [scheme://]host[:port][/basepath] grammar.
type InvalidEndpointSpecError struct {
	// Spec is the raw specification string that failed to parse.
	Spec string

	// Reason describes what is wrong with the specification.
	Reason string
}

// Error implements the error interface.
func (e *InvalidEndpointSpecError) Error() string {
	return fmt.Sprintf("invalid endpoint spec %q: %s", e.Spec, e.Reason)
}

// ParseEndpoint parses an endpoint specification string.
//
// Grammar: [scheme://]host[:port][/basepath]. The scheme defaults to https
// when absent. Host and port are split on the last ":" before any "/". An
// absent port takes the scheme default (443 for https, 80 for http). The base
// path, when present, keeps its leading "/" and is otherwise left untouched;
// when absent it is the empty string.
//
// Accepted forms: "gw.example.com", "gw.example.com:8443",
// "gw.example.com/ipfs", "https://gw.example.com:8443/ipfs".
func ParseEndpoint(spec string) (Endpoint, error) {
	rest := strings.TrimSpace(spec)
	if rest == "" {
		return Endpoint{}, &InvalidEndpointSpecError{Spec: spec, Reason: "empty specification"}
	}

	scheme := "https"
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme = strings.ToLower(rest[:i])
		rest = rest[i+3:]
	}
	if scheme != "http" && scheme != "https" {
		return Endpoint{}, &InvalidEndpointSpecError{Spec: spec, Reason: fmt.Sprintf("unsupported scheme %q", scheme)}
	}

	// Everything from the first "/" on is the base path, kept verbatim.
	hostPort := rest
	basePath := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		hostPort = rest[:i]
		basePath = rest[i:]
	}

	host := hostPort
	port := defaultPort(scheme)
	if i := strings.LastIndex(hostPort, ":"); i >= 0 {
		host = hostPort[:i]
		p, err := strconv.ParseUint(hostPort[i+1:], 10, 16)
		if err != nil || p == 0 {
			return Endpoint{}, &InvalidEndpointSpecError{Spec: spec, Reason: fmt.Sprintf("port %q is not a positive integer", hostPort[i+1:])}
		}
		port = uint16(p)
	}
	if host == "" {
		return Endpoint{}, &InvalidEndpointSpecError{Spec: spec, Reason: "missing host"}
	}

	return Endpoint{
		Scheme:   scheme,
		Host:     host,
		Port:     port,
		BasePath: basePath,
	}, nil
}

// defaultPort returns the implied port for a scheme.
func defaultPort(scheme string) uint16 {
	if scheme == "http" {
		return 80
	}
	return 443
}

// Addr returns the host:port dial address for the endpoint.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// HostHeader returns the HTTP Host header value for the endpoint: the bare
// host on the scheme's default port, host:port otherwise.
func (e Endpoint) HostHeader() string {
	if e.Port == defaultPort(e.Scheme) {
		return e.Host
	}
	return e.Addr()
}

// String renders the endpoint back into specification form.
func (e Endpoint) String() string {
	if e.Port == defaultPort(e.Scheme) {
		return fmt.Sprintf("%s://%s%s", e.Scheme, e.Host, e.BasePath)
	}
	return fmt.Sprintf("%s://%s:%d%s", e.Scheme, e.Host, e.Port, e.BasePath)
}
