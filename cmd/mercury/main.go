// Mercury is a racing reverse proxy for content-addressed gateways.
//
// For each inbound GET or HEAD request it races all configured upstream
// gateways concurrently, accepts the first response with a success status
// and an allow-listed content type, cancels the rest, and streams the
// winner back to the client.
//
// Usage:
//
//	# Start the proxy with default configuration
//	mercury run
//
//	# Start with a custom configuration file
//	mercury run --config /etc/mercury/config.yaml
//
//	# Validate configuration and show the resolved race policy
//	mercury validate
//
//	# Show per-endpoint win/latency statistics from the history store
//	mercury stats
//
//	# Show version information
//	mercury version
package main

func main() {
	Execute()
}
