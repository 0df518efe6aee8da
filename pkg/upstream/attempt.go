package upstream

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"helios-hq/mercury/pkg/config"
)

// forwardedHeaders is the subset of inbound request headers passed through to
// upstream gateways. Everything else the client sent stays at the edge.
var forwardedHeaders = []string{
	"Range",
	"If-None-Match",
	"If-Modified-Since",
	"Accept-Encoding",
	"User-Agent",
}

// maxRejectedBodyBytes caps how much of a rejected response body is retained
// for the fallback path. Error pages beyond this are truncated.
const maxRejectedBodyBytes = 1 << 20

// ClientRequest is the slice of an inbound request that attempts forward
// upstream: method, path with query, host, and the forwarded header subset.
type ClientRequest struct {
	Method       string
	PathAndQuery string
	Host         string
	Header       http.Header
}

// NewClientRequest extracts the forwardable slice of an inbound request.
func NewClientRequest(r *http.Request) *ClientRequest {
	header := make(http.Header, len(forwardedHeaders))
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}
	return &ClientRequest{
		Method:       r.Method,
		PathAndQuery: r.URL.RequestURI(),
		Host:         r.Host,
		Header:       header,
	}
}

// Fetcher runs fetch attempts. It owns nothing but a reference to the
// keep-alive pool; all per-race settings arrive through the policy.
type Fetcher struct {
	pool *Pool
}

// NewFetcher creates a fetcher backed by the given keep-alive pool.
func NewFetcher(pool *Pool) *Fetcher {
	return &Fetcher{pool: pool}
}

// Fetch executes one request/response cycle against one endpoint and
// classifies the result. Rank determines the stagger delay. Cancellation via
// ctx is observed at every suspension point; a cancelled attempt closes any
// connection it holds and reports Failed.
func (f *Fetcher) Fetch(ctx context.Context, endpoint config.Endpoint, rank int, cr *ClientRequest, policy config.RacePolicy) AttemptOutcome {
	if delay := policy.StaggerDelay * time.Duration(rank); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &Failed{Endpoint: endpoint, Stage: StageStagger, Cause: ctx.Err()}
		case <-timer.C:
		}
	}

	// A pooled connection may have been closed by the server while idle;
	// when the exchange breaks on one, retry once on a fresh dial.
	if conn := f.pool.Get(endpoint); conn != nil {
		outcome := f.exchange(ctx, conn, endpoint, cr, policy)
		failed, ok := outcome.(*Failed)
		if !ok || failed.Stage != StageRequest || ctx.Err() != nil {
			return outcome
		}
	}

	conn, err := dial(ctx, endpoint, policy)
	if err != nil {
		return failedDial(endpoint, err)
	}
	return f.exchange(ctx, conn, endpoint, cr, policy)
}

// exchange runs one request/response cycle on an established connection and
// classifies the result. It owns the connection: on anything but Accepted the
// connection is closed before returning.
func (f *Fetcher) exchange(ctx context.Context, conn *Conn, endpoint config.Endpoint, cr *ClientRequest, policy config.RacePolicy) AttemptOutcome {
	// From here on the connection may block in a read or write; closing it
	// is the only way to interrupt those, so cancellation closes it.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	resp, err := roundTrip(conn, cr, endpoint, policy)
	if err != nil {
		stop()
		_ = conn.Close()
		return &Failed{Endpoint: endpoint, Stage: StageRequest, Cause: &RequestError{Endpoint: endpoint, Cause: err}}
	}

	if accepted(resp, policy.MIMEAcceptPrefix) {
		if !stop() {
			// Cancelled between the response arriving and the claim;
			// the connection is already closing underneath us.
			_ = resp.Body.Close()
			_ = conn.Close()
			return &Failed{Endpoint: endpoint, Stage: StageRequest, Cause: ctx.Err()}
		}
		// The relay owns pacing from here; drop the policy read deadline
		// so a slow client does not kill the winning body mid-stream.
		_ = conn.raw.SetDeadline(time.Time{})
		return &Accepted{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Header:   resp.Header,
			resp:     resp,
			conn:     conn,
			pool:     f.pool,
		}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxRejectedBodyBytes))
	_ = resp.Body.Close()
	stop()
	_ = conn.Close()
	return &Rejected{
		Endpoint: endpoint,
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Body:     body,
	}
}

// dial opens a connection to the endpoint, performing the TLS handshake for
// https endpoints. Failures are stage-tagged.
func dial(ctx context.Context, endpoint config.Endpoint, policy config.RacePolicy) (*Conn, error) {
	dialer := net.Dialer{Timeout: policy.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", endpoint.Addr())
	if err != nil {
		return nil, &ConnectError{Endpoint: endpoint, Cause: err}
	}

	if endpoint.Scheme != "https" {
		return newConn(endpoint, raw), nil
	}

	tlsConn := tls.Client(raw, &tls.Config{
		ServerName:         endpoint.Host,
		InsecureSkipVerify: !policy.SSLVerify,
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, &HandshakeError{Endpoint: endpoint, Cause: err}
	}
	return newConn(endpoint, tlsConn), nil
}

// failedDial wraps a dial error into the stage-tagged Failed outcome.
func failedDial(endpoint config.Endpoint, err error) *Failed {
	stage := StageConnect
	if _, ok := err.(*HandshakeError); ok {
		stage = StageHandshake
	}
	return &Failed{Endpoint: endpoint, Stage: stage, Cause: err}
}

// roundTrip writes the upstream request and reads the response header. The
// policy read timeout bounds the whole exchange via a connection deadline.
func roundTrip(conn *Conn, cr *ClientRequest, endpoint config.Endpoint, policy config.RacePolicy) (*http.Response, error) {
	_ = conn.raw.SetDeadline(time.Now().Add(policy.ReadTimeout))

	req := buildRequest(cr, endpoint, policy.MIMEAcceptPrefix)
	if err := req.Write(conn.raw); err != nil {
		return nil, err
	}
	return http.ReadResponse(conn.br, req)
}

// buildRequest constructs the upstream request: the endpoint's base path is
// prepended to the original path and query verbatim, the inbound Host is
// forwarded when present, the forwarded header subset is copied over, and
// the Accept header advertises the MIME prefix.
func buildRequest(cr *ClientRequest, endpoint config.Endpoint, mimePrefix string) *http.Request {
	host := cr.Host
	if host == "" {
		host = endpoint.HostHeader()
	}

	req := &http.Request{
		Method:     cr.Method,
		URL:        &url.URL{Opaque: endpoint.BasePath + cr.PathAndQuery},
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Host:       host,
		Header:     make(http.Header, len(cr.Header)+1),
	}
	for name, values := range cr.Header {
		if len(values) > 0 {
			req.Header.Set(name, values[0])
		}
	}
	req.Header.Set("Accept", mimePrefix+"*")
	return req
}

// accepted reports whether the response passes the acceptance policy:
// a non-error status and a content type under the configured prefix.
func accepted(resp *http.Response, mimePrefix string) bool {
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return false
	}
	contentType := resp.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(contentType), strings.ToLower(mimePrefix))
}
