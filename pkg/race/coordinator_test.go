package race

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"helios-hq/mercury/pkg/config"
	"helios-hq/mercury/pkg/upstream"
)

func testPolicy(endpoints ...config.Endpoint) config.RacePolicy {
	return config.RacePolicy{
		Endpoints:        endpoints,
		ConnectTimeout:   time.Second,
		ReadTimeout:      2 * time.Second,
		MIMEAcceptPrefix: "image/",
		KeepAlive: config.KeepAlivePolicy{
			IdleTimeout: time.Minute,
			MaxPoolSize: 8,
		},
	}
}

func endpointFor(t *testing.T, srv *httptest.Server) config.Endpoint {
	t.Helper()
	ep, err := config.ParseEndpoint(srv.URL)
	if err != nil {
		t.Fatalf("ParseEndpoint(%q) failed: %v", srv.URL, err)
	}
	return ep
}

func imageServer(t *testing.T, delay time.Duration, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "image/png")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func rejectingServer(t *testing.T, delay time.Duration, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCoordinator(t *testing.T, opts ...Option) *Coordinator {
	t.Helper()
	pool := upstream.NewPool(config.KeepAlivePolicy{IdleTimeout: time.Minute, MaxPoolSize: 8})
	t.Cleanup(func() { pool.Close() })
	return New(upstream.NewFetcher(pool), opts...)
}

func request(t *testing.T, path string) *upstream.ClientRequest {
	t.Helper()
	return upstream.NewClientRequest(httptest.NewRequest(http.MethodGet, path, nil))
}

// memoryRecorder collects records for assertions.
type memoryRecorder struct {
	mu       sync.Mutex
	attempts []AttemptRecord
	races    []RaceRecord
}

func (r *memoryRecorder) RecordAttempt(rec AttemptRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, rec)
}

func (r *memoryRecorder) RecordRace(rec RaceRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.races = append(r.races, rec)
}

func TestRaceFastestAcceptedWins(t *testing.T) {
	fast := imageServer(t, 0, "fast body")
	slow := imageServer(t, 300*time.Millisecond, "slow body")
	reject := rejectingServer(t, 0, http.StatusNotFound, "missing")

	coord := newTestCoordinator(t)
	policy := testPolicy(endpointFor(t, slow), endpointFor(t, reject), endpointFor(t, fast))

	result := coord.Race(context.Background(), request(t, "/pic"), policy)

	if result.Kind != KindWinner {
		t.Fatalf("expected a winner, got %s", result.Kind)
	}
	if result.Winner.Endpoint != policy.Endpoints[2] {
		t.Errorf("fastest endpoint should win, got %s", result.Winner.Endpoint)
	}
	body, err := io.ReadAll(result.Winner.Body())
	if err != nil {
		t.Fatalf("reading winner body: %v", err)
	}
	if string(body) != "fast body" {
		t.Errorf("winner body mismatch: %q", body)
	}
	result.Winner.Release(true)
}

func TestRaceCompletionOrderNotListOrder(t *testing.T) {
	slowFirst := imageServer(t, 400*time.Millisecond, "listed first")
	fastLast := imageServer(t, 0, "listed last")

	coord := newTestCoordinator(t)
	policy := testPolicy(endpointFor(t, slowFirst), endpointFor(t, fastLast))

	start := time.Now()
	result := coord.Race(context.Background(), request(t, "/pic"), policy)

	if result.Kind != KindWinner {
		t.Fatalf("expected a winner, got %s", result.Kind)
	}
	if result.Winner.Endpoint != policy.Endpoints[1] {
		t.Error("winner is decided by completion order, not list order")
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("race should return as soon as a winner commits, took %v", elapsed)
	}
	result.Winner.Release(false)
}

func TestRaceAtMostOneWinner(t *testing.T) {
	// Several equally fast accepting endpoints; exactly one may win.
	var servers []*httptest.Server
	for i := 0; i < 4; i++ {
		servers = append(servers, imageServer(t, 0, "body"))
	}
	var endpoints []config.Endpoint
	for _, srv := range servers {
		endpoints = append(endpoints, endpointFor(t, srv))
	}

	rec := &memoryRecorder{}
	coord := newTestCoordinator(t, WithRecorder(rec))

	result := coord.Race(context.Background(), request(t, "/pic"), testPolicy(endpoints...))
	if result.Kind != KindWinner {
		t.Fatalf("expected a winner, got %s", result.Kind)
	}
	result.Winner.Release(false)

	// Let losing attempts finish recording.
	time.Sleep(200 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	winners := 0
	for _, a := range rec.attempts {
		if a.Won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("exactly one attempt may claim the win, got %d", winners)
	}
}

func TestRaceFallbackDisabled(t *testing.T) {
	reject := rejectingServer(t, 0, http.StatusNotFound, "missing")

	coord := newTestCoordinator(t)
	policy := testPolicy(endpointFor(t, reject))

	result := coord.Race(context.Background(), request(t, "/pic"), policy)
	if result.Kind != KindNoResponse {
		t.Fatalf("fallback disabled: expected no response, got %s", result.Kind)
	}
	if result.Winner != nil || result.Fallback != nil {
		t.Error("no-response result must carry no payload")
	}
}

func TestRaceFallbackFirstRejectionRetained(t *testing.T) {
	first := rejectingServer(t, 0, http.StatusNotFound, "first rejection")
	later := rejectingServer(t, 200*time.Millisecond, http.StatusTeapot, "later rejection")

	coord := newTestCoordinator(t)
	policy := testPolicy(endpointFor(t, later), endpointFor(t, first))
	policy.FallbackOnError = true

	result := coord.Race(context.Background(), request(t, "/pic"), policy)
	if result.Kind != KindFallback {
		t.Fatalf("expected fallback, got %s", result.Kind)
	}
	if result.Fallback.Status != http.StatusNotFound {
		t.Errorf("first rejection must be retained, got status %d", result.Fallback.Status)
	}
	if string(result.Fallback.Body) != "first rejection" {
		t.Errorf("fallback body mismatch: %q", result.Fallback.Body)
	}
}

func TestRaceWinnerBeatsRejections(t *testing.T) {
	reject := rejectingServer(t, 0, http.StatusNotFound, "missing")
	winner := imageServer(t, 100*time.Millisecond, "late but accepted")

	coord := newTestCoordinator(t)
	policy := testPolicy(endpointFor(t, reject), endpointFor(t, winner))
	policy.FallbackOnError = true

	result := coord.Race(context.Background(), request(t, "/pic"), policy)
	if result.Kind != KindWinner {
		t.Fatalf("an accepted response beats any rejection, got %s", result.Kind)
	}
	result.Winner.Release(false)
}

func TestRaceFailuresIgnored(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadEndpoint := endpointFor(t, dead)
	dead.Close()

	winner := imageServer(t, 0, "body")

	rec := &memoryRecorder{}
	coord := newTestCoordinator(t, WithRecorder(rec))
	policy := testPolicy(deadEndpoint, endpointFor(t, winner))

	result := coord.Race(context.Background(), request(t, "/pic"), policy)
	if result.Kind != KindWinner {
		t.Fatalf("failures must not affect arbitration, got %s", result.Kind)
	}
	result.Winner.Release(false)

	time.Sleep(100 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	var sawFailed bool
	for _, a := range rec.attempts {
		if a.Outcome == "failed" && a.Stage == "connect" {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("connect failure should be recorded with its stage")
	}
}

func TestRaceRecord(t *testing.T) {
	winner := imageServer(t, 0, "body")

	rec := &memoryRecorder{}
	coord := newTestCoordinator(t, WithRecorder(rec))
	policy := testPolicy(endpointFor(t, winner))

	result := coord.Race(context.Background(), request(t, "/pic?x=1"), policy)
	if result.Kind != KindWinner {
		t.Fatalf("expected winner, got %s", result.Kind)
	}
	result.Winner.Release(false)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.races) != 1 {
		t.Fatalf("expected one race record, got %d", len(rec.races))
	}
	r := rec.races[0]
	if r.ID != result.ID {
		t.Error("race record must carry the race ID")
	}
	if r.Result != KindWinner || r.WinnerEndpoint != policy.Endpoints[0].String() {
		t.Errorf("race record mismatch: %+v", r)
	}
	if r.Method != http.MethodGet || r.Path != "/pic?x=1" {
		t.Errorf("race record request mismatch: %+v", r)
	}
}

func TestArbiterRefusesClaimsAfterFinalize(t *testing.T) {
	arb := &arbiter{}

	winner, fallback := arb.finalize()
	if winner != nil || fallback != nil {
		t.Fatal("empty arbiter must finalize to empty slots")
	}

	if arb.claimWinner(&upstream.Accepted{}) {
		t.Error("winner claim after finalize must be refused")
	}
	if arb.claimFallback(&upstream.Rejected{}) {
		t.Error("fallback claim after finalize must be refused")
	}
	if w, f := arb.finalize(); w != nil || f != nil {
		t.Error("refused claims must not populate the slots")
	}
}

func TestRaceResultConsistentUnderCancellation(t *testing.T) {
	// Cancel right around the moment the upstream response lands, many
	// times, to exercise the window between an attempt passing its
	// cancellation check and committing the win. Whichever way each race
	// resolves, a non-winner result must never contain a won attempt.
	srv := imageServer(t, 20*time.Millisecond, "contested body")

	rec := &memoryRecorder{}
	coord := newTestCoordinator(t, WithRecorder(rec))
	policy := testPolicy(endpointFor(t, srv))

	for i := 0; i < 30; i++ {
		jitter := time.Duration(i) * 100 * time.Microsecond
		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(19*time.Millisecond+jitter, cancel)

		result := coord.Race(ctx, request(t, "/pic"), policy)
		if result.Kind == KindWinner {
			result.Winner.Release(false)
		}
		timer.Stop()
		cancel()
	}

	// Let late attempt records land.
	time.Sleep(200 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	winners := make(map[string]bool)
	for _, r := range rec.races {
		winners[r.ID] = r.Result == KindWinner
	}
	for _, a := range rec.attempts {
		if a.Won && !winners[a.RaceID] {
			t.Errorf("attempt won a race whose result was not a winner (race %s)", a.RaceID)
		}
	}
}

func TestRaceRequestContextCancelled(t *testing.T) {
	stalled := imageServer(t, 2*time.Second, "never relayed")

	coord := newTestCoordinator(t)
	policy := testPolicy(endpointFor(t, stalled))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := coord.Race(ctx, request(t, "/pic"), policy)
	if result.Kind != KindNoResponse {
		t.Fatalf("cancelled race must yield no response, got %s", result.Kind)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("race should unwind promptly on cancellation, took %v", elapsed)
	}
}
