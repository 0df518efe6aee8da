package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"helios-hq/mercury/pkg/config"
)

// Collector owns the Prometheus registry and the proxy's metric families.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	raceMetrics *RaceMetrics

	poolIdle prometheus.GaugeFunc
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "mercury"
	}
	if len(cfg.RaceDurationBuckets) == 0 {
		// Races resolve between a fast pooled hit and the 5s deadline.
		cfg.RaceDurationBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.raceMetrics = NewRaceMetrics(cfg, registry)
	return c
}

// Race returns the race metric family, which implements race.Recorder.
func (c *Collector) Race() *RaceMetrics {
	return c.raceMetrics
}

// RegisterPoolGauge exposes the keep-alive pool's idle connection count as a
// gauge sampled at scrape time.
func (c *Collector) RegisterPoolGauge(idle func() int) {
	c.poolIdle = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: c.config.Namespace,
			Name:      "pool_idle_connections",
			Help:      "Idle upstream connections in the keep-alive pool",
		},
		func() float64 { return float64(idle()) },
	)
	c.registry.MustRegister(c.poolIdle)
}
