package race

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"helios-hq/mercury/pkg/config"
	"helios-hq/mercury/pkg/upstream"
)

// Deadline bounds a whole race regardless of per-attempt timeouts. An
// attempt still in flight when it elapses is cancelled.
const Deadline = 5 * time.Second

// Coordinator fans one fetch attempt per endpoint out for each request and
// arbitrates first-success among them.
type Coordinator struct {
	fetcher  *upstream.Fetcher
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecorder attaches a recorder for race and attempt records.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithLogger sets the coordinator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New creates a coordinator running attempts through the given fetcher.
func New(fetcher *upstream.Fetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:  fetcher,
		recorder: NopRecorder{},
		logger:   slog.Default().With("component", "race"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// arbiter holds the write-once race slots. Attempts run genuinely in
// parallel, so both slots are claimed under the mutex: the first claim
// commits, all later claims are no-ops. Once the race result has been read
// via finalize, all further claims are refused, so an attempt whose response
// arrives just as the deadline fires takes the loser path and releases its
// connection instead of winning a race that already returned.
type arbiter struct {
	mu       sync.Mutex
	closed   bool
	winner   *upstream.Accepted
	fallback *upstream.Rejected
}

// claimWinner commits acc as the winner if no winner exists yet and the race
// is still open.
func (a *arbiter) claimWinner(acc *upstream.Accepted) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.winner != nil {
		return false
	}
	a.winner = acc
	return true
}

// claimFallback retains rej as the fallback candidate if it is the first
// rejection, no winner has been committed, and the race is still open.
func (a *arbiter) claimFallback(rej *upstream.Rejected) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.winner != nil || a.fallback != nil {
		return false
	}
	a.fallback = rej
	return true
}

// finalize closes the slots to further claims and returns their contents.
func (a *arbiter) finalize() (*upstream.Accepted, *upstream.Rejected) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return a.winner, a.fallback
}

// Race runs one race for the given request under the given policy. It
// returns within the race deadline. First accepted attempt in completion
// order wins; on a win all other in-flight attempts are cancelled. When no
// attempt is accepted, the first rejection is returned as a fallback if the
// policy allows, otherwise the result is KindNoResponse.
func (c *Coordinator) Race(ctx context.Context, cr *upstream.ClientRequest, policy config.RacePolicy) *Result {
	raceID := uuid.NewString()
	started := time.Now()

	ctx, cancel := context.WithTimeout(ctx, Deadline)
	defer cancel()

	arb := &arbiter{}
	won := make(chan struct{}, 1)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i, endpoint := range policy.Endpoints {
		wg.Add(1)
		go func(rank int, endpoint config.Endpoint) {
			defer wg.Done()
			c.attempt(ctx, cancel, arb, won, raceID, rank, endpoint, cr, policy)
		}(i, endpoint)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-won:
	case <-done:
	case <-ctx.Done():
	}

	winner, fallback := arb.finalize()
	result := &Result{ID: raceID, Elapsed: time.Since(started)}
	switch {
	case winner != nil:
		result.Kind = KindWinner
		result.Winner = winner
	case fallback != nil && policy.FallbackOnError:
		result.Kind = KindFallback
		result.Fallback = fallback
	default:
		result.Kind = KindNoResponse
	}

	record := RaceRecord{
		ID:        raceID,
		Method:    cr.Method,
		Path:      cr.PathAndQuery,
		Result:    result.Kind,
		StartedAt: started,
		Elapsed:   result.Elapsed,
	}
	if winner != nil {
		record.WinnerEndpoint = winner.Endpoint.String()
	}
	c.recorder.RecordRace(record)

	return result
}

// attempt runs one fetch and feeds its outcome into the arbitration slots.
func (c *Coordinator) attempt(ctx context.Context, cancel context.CancelFunc, arb *arbiter, won chan<- struct{}, raceID string, rank int, endpoint config.Endpoint, cr *upstream.ClientRequest, policy config.RacePolicy) {
	start := time.Now()
	outcome := c.fetcher.Fetch(ctx, endpoint, rank, cr, policy)
	elapsed := time.Since(start)

	rec := AttemptRecord{
		RaceID:   raceID,
		Endpoint: endpoint.String(),
		Elapsed:  elapsed,
	}

	switch out := outcome.(type) {
	case *upstream.Accepted:
		rec.Outcome = "accepted"
		rec.Status = out.Status
		if arb.claimWinner(out) {
			rec.Won = true
			// Losers observe cancellation at their next suspension
			// point; no need to wait for them.
			cancel()
			won <- struct{}{}
			if policy.Debug {
				c.logger.Debug("winner claimed",
					"race_id", raceID,
					"endpoint", endpoint.String(),
					"status", out.Status,
					"elapsed", elapsed,
				)
			}
		} else {
			out.Release(false)
		}

	case *upstream.Rejected:
		rec.Outcome = "rejected"
		rec.Status = out.Status
		arb.claimFallback(out)
		if policy.Debug {
			c.logger.Debug("attempt rejected",
				"race_id", raceID,
				"endpoint", endpoint.String(),
				"status", out.Status,
				"elapsed", elapsed,
			)
		}

	case *upstream.Failed:
		rec.Outcome = "failed"
		rec.Stage = string(out.Stage)
		if policy.Debug {
			c.logger.Debug("attempt failed",
				"race_id", raceID,
				"endpoint", endpoint.String(),
				"stage", string(out.Stage),
				"error", out.Cause,
				"elapsed", elapsed,
			)
		}
	}

	c.recorder.RecordAttempt(rec)
}
