package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records operational metrics for the sampler, tracker and
// query server.
type Collector interface {
	ObserveRead(d time.Duration, err error)
	ObserveSample(value float64)
	ObserveAdmission(history string)
	ObserveRequest(route string, status int)

	// Gatherer exposes the registry the collector writes to.
	Gatherer() prometheus.Gatherer
	Enabled() bool
}

// Read outcomes
const (
	resultOK    = "ok"
	resultError = "error"
)
