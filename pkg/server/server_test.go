package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"helios-hq/mercury/pkg/config"
	"helios-hq/mercury/pkg/proxy/handlers"
)

type stubGateway struct{ hits int }

func (g *stubGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.hits++
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("gateway"))
}

func newTestServer(gateway http.Handler, policies *config.PolicyStore) *Server {
	routes := Routes{
		Gateway: gateway,
		Health:  handlers.NewHealthHandler(),
		Ready:   handlers.NewReadyHandler(policies),
	}
	return NewServer(config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}, routes)
}

func TestServerRouting(t *testing.T) {
	gateway := &stubGateway{}
	policies := config.NewPolicyStore(config.ResolvePolicy(config.RaceConfig{
		Endpoints: []string{"gw.example.com"},
	}))
	handler := newTestServer(gateway, policies).Handler()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body["status"] != "ok" {
			t.Errorf("status field = %v", body["status"])
		}
	})

	t.Run("ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("catch-all routes to gateway", func(t *testing.T) {
		before := gateway.hits
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/some/content/path", nil))
		if gateway.hits != before+1 {
			t.Error("gateway not reached")
		}
		if rec.Body.String() != "gateway" {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("request ID attached", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("middleware chain must stamp X-Request-ID")
		}
	})
}

func TestServerReadyWithoutEndpoints(t *testing.T) {
	policies := config.NewPolicyStore(config.RacePolicy{})
	handler := newTestServer(&stubGateway{}, policies).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 with no endpoints", rec.Code)
	}
}

func TestServerRecoversFromPanic(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})
	policies := config.NewPolicyStore(config.RacePolicy{})
	handler := newTestServer(panicking, policies).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestServerIsRunning(t *testing.T) {
	srv := newTestServer(&stubGateway{}, config.NewPolicyStore(config.RacePolicy{}))
	if srv.IsRunning() {
		t.Error("server should not report running before Start")
	}
}
