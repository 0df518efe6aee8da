package upstream

import (
	"io"
	"net/http"

	"helios-hq/mercury/pkg/config"
)

// AttemptOutcome is the result of one fetch attempt against one endpoint.
// Exactly one of Accepted, Rejected, or Failed is produced per attempt.
type AttemptOutcome interface {
	outcome()
}

// Accepted is a response that passed the status and content-type acceptance
// policy. The body is still open and streamable; the underlying connection
// stays alive until Release is called.
type Accepted struct {
	// Endpoint is the gateway that produced the response.
	Endpoint config.Endpoint

	// Status is the upstream status code.
	Status int

	// Header is the upstream response header.
	Header http.Header

	resp *http.Response
	conn *Conn
	pool *Pool
}

func (*Accepted) outcome() {}

// Body returns the open response body. Reading it to EOF leaves the
// connection in a reusable state.
func (a *Accepted) Body() io.ReadCloser {
	return a.resp.Body
}

// Release disposes of the connection after the relay is done with the
// response. A fully drained body on a keep-alive response checks the
// connection into the pool; anything else closes it.
func (a *Accepted) Release(drained bool) {
	if drained && a.poolable() {
		a.pool.Put(a.conn)
		return
	}
	_ = a.conn.Close()
}

func (a *Accepted) poolable() bool {
	if a.pool == nil {
		return false
	}
	return !a.resp.Close && a.resp.ProtoAtLeast(1, 1)
}

// Rejected is a well-formed upstream response that failed the acceptance
// policy. The body has been read eagerly and the connection is already
// closed; the coordinator may keep the first Rejected as a fallback.
type Rejected struct {
	// Endpoint is the gateway that produced the response.
	Endpoint config.Endpoint

	// Status is the upstream status code.
	Status int

	// Header is the upstream response header.
	Header http.Header

	// Body is the fully read response body, possibly truncated at the
	// rejected-body cap.
	Body []byte
}

func (*Rejected) outcome() {}

// Failed is an attempt that never produced a usable response: the dial,
// handshake, or request cycle broke, or the attempt was cancelled. Failed
// outcomes never reach the client.
type Failed struct {
	// Endpoint is the gateway the attempt targeted.
	Endpoint config.Endpoint

	// Stage identifies where the attempt broke off.
	Stage Stage

	// Cause is the stage-tagged error.
	Cause error
}

func (*Failed) outcome() {}
