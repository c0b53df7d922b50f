// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Progress outcomes.
const (
	ProgressCompleted = "completed"
	ProgressSkipped   = "skipped"
	ProgressFinished  = "finished"
)

// Recorder is what the service and HTTP layers report to.
type Recorder interface {
	RecordEnrollment()
	RecordProgress(outcome string)
	RecordStatusTransition(status string)
	RecordProgressConflict()
	RecordCheckIn(cascaded bool)
	RecordDuplicateCheckIn()
	RecordHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Collector is a Recorder backed by Prometheus metrics.
type Collector struct {
	enrollments       prometheus.Counter
	progress          *prometheus.CounterVec
	transitions       *prometheus.CounterVec
	progressConflicts prometheus.Counter
	checkIns          *prometheus.CounterVec
	duplicateCheckIns prometheus.Counter
	httpDuration      *prometheus.HistogramVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		enrollments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fitness_enrollments_total",
			Help: "Workout plans chosen.",
		}),
		progress: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitness_progress_updates_total",
			Help: "Progress updates by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitness_enrollment_transitions_total",
			Help: "Enrollments leaving the active state, by target status.",
		}, []string{"status"}),
		progressConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fitness_progress_conflicts_total",
			Help: "Progress writes retried after a concurrent update.",
		}),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fitness_checkins_total",
			Help: "Check-ins recorded, by whether they advanced an enrollment.",
		}, []string{"cascaded"}),
		duplicateCheckIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fitness_checkins_duplicate_total",
			Help: "Check-ins rejected as duplicates.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fitness_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.enrollments,
		c.progress,
		c.transitions,
		c.progressConflicts,
		c.checkIns,
		c.duplicateCheckIns,
		c.httpDuration,
	)
	return c
}

func (c *Collector) RecordEnrollment() {
	c.enrollments.Inc()
}

func (c *Collector) RecordProgress(outcome string) {
	c.progress.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStatusTransition(status string) {
	c.transitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordProgressConflict() {
	c.progressConflicts.Inc()
}

func (c *Collector) RecordCheckIn(cascaded bool) {
	c.checkIns.WithLabelValues(strconv.FormatBool(cascaded)).Inc()
}

func (c *Collector) RecordDuplicateCheckIn() {
	c.duplicateCheckIns.Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	c.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordEnrollment()                                   {}
func (Nop) RecordProgress(string)                               {}
func (Nop) RecordStatusTransition(string)                       {}
func (Nop) RecordProgressConflict()                             {}
func (Nop) RecordCheckIn(bool)                                  {}
func (Nop) RecordDuplicateCheckIn()                             {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
