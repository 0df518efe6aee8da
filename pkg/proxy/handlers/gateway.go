package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"helios-hq/mercury/pkg/config"
	"helios-hq/mercury/pkg/proxy"
	"helios-hq/mercury/pkg/race"
	"helios-hq/mercury/pkg/upstream"
)

// GatewayHandler serves content requests by racing the configured upstream
// gateways and relaying the outcome.
type GatewayHandler struct {
	policies    *config.PolicyStore
	coordinator *race.Coordinator
	relayBytes  func(int64)
	logger      *slog.Logger
}

// GatewayOption configures a GatewayHandler.
type GatewayOption func(*GatewayHandler)

// WithRelayBytesObserver registers a callback receiving the number of body
// bytes relayed per request, for metrics.
func WithRelayBytesObserver(fn func(int64)) GatewayOption {
	return func(h *GatewayHandler) { h.relayBytes = fn }
}

// NewGatewayHandler creates the content handler.
func NewGatewayHandler(policies *config.PolicyStore, coordinator *race.Coordinator, opts ...GatewayOption) *GatewayHandler {
	h := &GatewayHandler{
		policies:    policies,
		coordinator: coordinator,
		logger:      slog.Default().With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler. Only GET and HEAD start a race; every
// other method is refused up front.
func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		fmt.Fprintf(w, "method %s not allowed; only GET and HEAD are supported\n", r.Method)
		return
	}

	policy := h.policies.Current()
	result := h.coordinator.Race(r.Context(), upstream.NewClientRequest(r), policy)

	switch result.Kind {
	case race.KindWinner:
		n, err := proxy.RelayWinner(w, result.Winner)
		if h.relayBytes != nil {
			h.relayBytes(n)
		}
		if err != nil {
			// The response status is already on the wire; all we can
			// do is note the broken relay.
			h.logger.Debug("winner relay interrupted",
				"race_id", result.ID,
				"endpoint", result.Winner.Endpoint.String(),
				"bytes", n,
				"error", err,
			)
		}

	case race.KindFallback:
		n, _ := proxy.RelayFallback(w, result.Fallback)
		if h.relayBytes != nil {
			h.relayBytes(n)
		}

	default:
		w.WriteHeader(http.StatusBadGateway)
	}
}
