// Package proxy relays race outcomes to clients.
//
// Winning responses stream in 8 KiB chunks with a flush after each chunk, so
// the client receives bytes at upstream pace instead of after full buffering.
// Fallback responses were read eagerly at rejection time and go out in a
// single write. Upstream headers are forwarded verbatim except
// Transfer-Encoding, which the relay's own framing replaces.
package proxy
