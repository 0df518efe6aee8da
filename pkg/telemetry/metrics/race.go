package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"helios-hq/mercury/pkg/config"
	"helios-hq/mercury/pkg/race"
)

// RaceMetrics tracks the race engine.
//
// Metrics:
//   - mercury_races_total: races by result (winner, fallback, no_response)
//   - mercury_race_duration_seconds: race duration histogram by result
//   - mercury_attempts_total: attempts by endpoint and outcome
//   - mercury_wins_total: wins by endpoint
//   - mercury_relay_bytes_total: body bytes relayed to clients
type RaceMetrics struct {
	racesTotal      *prometheus.CounterVec
	raceDuration    *prometheus.HistogramVec
	attemptsTotal   *prometheus.CounterVec
	winsTotal       *prometheus.CounterVec
	relayBytesTotal prometheus.Counter
}

// NewRaceMetrics creates and registers race metrics with the provided registry.
func NewRaceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RaceMetrics {
	rm := &RaceMetrics{
		racesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "races_total",
				Help:      "Total number of races run",
			},
			[]string{"result"},
		),

		raceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "race_duration_seconds",
				Help:      "Duration of races in seconds",
				Buckets:   cfg.RaceDurationBuckets,
			},
			[]string{"result"},
		),

		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "attempts_total",
				Help:      "Total number of fetch attempts by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),

		winsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "wins_total",
				Help:      "Total number of races won by endpoint",
			},
			[]string{"endpoint"},
		),

		relayBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "relay_bytes_total",
				Help:      "Total body bytes relayed to clients",
			},
		),
	}

	registry.MustRegister(
		rm.racesTotal,
		rm.raceDuration,
		rm.attemptsTotal,
		rm.winsTotal,
		rm.relayBytesTotal,
	)

	return rm
}

// RecordRace implements race.Recorder.
func (rm *RaceMetrics) RecordRace(rec race.RaceRecord) {
	result := string(rec.Result)
	rm.racesTotal.WithLabelValues(result).Inc()
	rm.raceDuration.WithLabelValues(result).Observe(rec.Elapsed.Seconds())
	if rec.WinnerEndpoint != "" {
		rm.winsTotal.WithLabelValues(rec.WinnerEndpoint).Inc()
	}
}

// RecordAttempt implements race.Recorder.
func (rm *RaceMetrics) RecordAttempt(rec race.AttemptRecord) {
	rm.attemptsTotal.WithLabelValues(rec.Endpoint, rec.Outcome).Inc()
}

// AddRelayBytes counts body bytes written to a client.
func (rm *RaceMetrics) AddRelayBytes(n int64) {
	if n > 0 {
		rm.relayBytesTotal.Add(float64(n))
	}
}
