// Package upstream executes single fetch attempts against content gateways
// and manages the keep-alive connection pool.
//
// An attempt is one request/response cycle with explicit stages: pool
// check-out or dial, TLS handshake for https endpoints, request write, and
// response-header read. Failures are tagged with the stage they occurred in.
// Responses are classified against the race policy into Accepted (open,
// streamable body) or Rejected (body read eagerly, connection closed).
//
// Connections are owned explicitly: only the winning attempt's connection
// survives past the attempt, transferred to the relay through Accepted and
// returned to the pool once the body is drained.
package upstream
