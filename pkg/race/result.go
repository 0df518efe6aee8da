package race

import (
	"time"

	"helios-hq/mercury/pkg/upstream"
)

// Kind classifies how a race ended.
type Kind string

const (
	// KindWinner means an attempt passed the acceptance policy and its
	// response is ready to stream.
	KindWinner Kind = "winner"

	// KindFallback means no attempt was accepted but a rejected upstream
	// response was captured and fallback is enabled.
	KindFallback Kind = "fallback"

	// KindNoResponse means the race exhausted its deadline or its attempts
	// with nothing to relay.
	KindNoResponse Kind = "no_response"
)

// Result is the single outcome of one race. Exactly one of Winner or
// Fallback is set, matching Kind; both are nil for KindNoResponse.
type Result struct {
	// ID is the unique identifier stamped on this race and its records.
	ID string

	// Kind classifies the outcome.
	Kind Kind

	// Winner holds the accepted response when Kind is KindWinner. Its body
	// is open; the caller owns its Release.
	Winner *upstream.Accepted

	// Fallback holds the first rejected response when Kind is KindFallback.
	Fallback *upstream.Rejected

	// Elapsed is the wall-clock duration of the race.
	Elapsed time.Duration
}

// AttemptRecord describes one finished attempt for observers. Records for
// losing attempts may arrive after the race result has been returned.
type AttemptRecord struct {
	RaceID   string
	Endpoint string
	Outcome  string
	Stage    string
	Status   int
	Elapsed  time.Duration
	Won      bool
}

// RaceRecord describes one finished race for observers.
type RaceRecord struct {
	ID             string
	Method         string
	Path           string
	Result         Kind
	WinnerEndpoint string
	StartedAt      time.Time
	Elapsed        time.Duration
}

// Recorder receives race and attempt records. Implementations must be safe
// for concurrent use; attempt records arrive from attempt goroutines.
type Recorder interface {
	RecordAttempt(rec AttemptRecord)
	RecordRace(rec RaceRecord)
}

// NopRecorder discards all records.
type NopRecorder struct{}

func (NopRecorder) RecordAttempt(AttemptRecord) {}
func (NopRecorder) RecordRace(RaceRecord)       {}

// MultiRecorder fans records out to several recorders, e.g. metrics and the
// history store at once.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordAttempt(rec AttemptRecord) {
	for _, r := range m {
		r.RecordAttempt(rec)
	}
}

func (m MultiRecorder) RecordRace(rec RaceRecord) {
	for _, r := range m {
		r.RecordRace(rec)
	}
}
