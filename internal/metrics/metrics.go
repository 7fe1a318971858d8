package metrics

import (
	"strconv"
	"time"

	"codeberg.org/mutker/thermotrack/internal/errors"
	"codeberg.org/mutker/thermotrack/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type service struct {
	registry *prometheus.Registry

	reads        *prometheus.CounterVec
	readDuration prometheus.Histogram
	samples      prometheus.Counter
	temperature  prometheus.Gauge
	admissions   *prometheus.CounterVec
	requests     *prometheus.CounterVec
}

// No-op implementation
type noopCollector struct {
	registry *prometheus.Registry
}

// NewService builds a collector backed by its own registry. When metrics
// are disabled a no-op collector with an empty registry is returned.
func NewService(cfg Config) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		logger.Debug().Msg("Metrics collection disabled, using no-op collector")
		return Noop(), nil
	}

	ns := cfg.Namespace
	s := &service{
		registry: prometheus.NewRegistry(),
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "sensor",
			Name:      "reads_total",
			Help:      "Sensor reads by result",
		}, []string{"result"}),
		readDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Subsystem: "sensor",
			Name:      "read_duration_seconds",
			Help:      "Time spent in one blocking sensor read",
			Buckets:   []float64{.01, .05, .1, .25, .5, .75, 1, 2, 5},
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "samples_total",
			Help:      "Samples recorded by the tracker",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "temperature",
			Help:      "Most recent recorded temperature in the configured scale",
		}),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "history",
			Name:      "admissions_total",
			Help:      "Samples admitted per history",
		}, []string{"history"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Query server requests by route and status code",
		}, []string{"route", "code"}),
	}

	for _, c := range []prometheus.Collector{
		s.reads,
		s.readDuration,
		s.samples,
		s.temperature,
		s.admissions,
		s.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := s.registry.Register(c); err != nil {
			return nil, errFactory.Wrap(ErrRegisterFailed, err)
		}
	}

	logger.Debug().
		Str("namespace", ns).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return s, nil
}

// Noop returns a collector that discards every observation.
func Noop() Collector {
	return &noopCollector{registry: prometheus.NewRegistry()}
}

func (s *service) ObserveRead(d time.Duration, err error) {
	if err != nil {
		s.reads.WithLabelValues(resultError).Inc()
		return
	}
	s.reads.WithLabelValues(resultOK).Inc()
	s.readDuration.Observe(d.Seconds())
}

func (s *service) ObserveSample(value float64) {
	s.samples.Inc()
	s.temperature.Set(value)
}

func (s *service) ObserveAdmission(history string) {
	s.admissions.WithLabelValues(history).Inc()
}

func (s *service) ObserveRequest(route string, status int) {
	s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (s *service) Gatherer() prometheus.Gatherer {
	return s.registry
}

func (*service) Enabled() bool {
	return true
}

// No-op implementation
func (*noopCollector) ObserveRead(time.Duration, error) {}
func (*noopCollector) ObserveSample(float64)            {}
func (*noopCollector) ObserveAdmission(string)          {}
func (*noopCollector) ObserveRequest(string, int)       {}

func (n *noopCollector) Gatherer() prometheus.Gatherer {
	return n.registry
}

func (*noopCollector) Enabled() bool {
	return false
}
