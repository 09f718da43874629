package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	framesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aidoc_stream_frames_decoded_total",
		Help: "Total well-formed frames decoded from answer streams",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aidoc_stream_frames_dropped_total",
		Help: "Total frames dropped as unparseable or unrecognized",
	})

	sessionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aidoc_stream_session_duration_seconds",
		Help:    "Duration of streaming query sessions grouped by outcome",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"outcome"})

	sessionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aidoc_stream_session_total",
		Help: "Total streaming query sessions grouped by outcome",
	}, []string{"outcome"})

	jobFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aidoc_job_fetch_total",
		Help: "Total job status fetches grouped by kind and result",
	}, []string{"kind", "result"})

	jobUnknownStatus = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aidoc_job_unknown_status_total",
		Help: "Total job status values dropped because they were not recognized",
	})

	jobsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aidoc_jobs_active",
		Help: "Registered jobs currently in a non-terminal state",
	})

	suggestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aidoc_suggest_total",
		Help: "Total metadata suggestion attempts grouped by outcome",
	}, []string{"outcome"})
)

// ObserveFrameDecoded counts one successfully decoded stream frame.
func ObserveFrameDecoded() {
	framesDecoded.Inc()
}

// ObserveFrameDropped counts one frame dropped as noise.
func ObserveFrameDropped() {
	framesDropped.Inc()
}

// ObserveSessionOutcome records the duration and outcome of a finished session.
func ObserveSessionOutcome(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	sessionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	sessionTotal.WithLabelValues(outcome).Inc()
}

// ObserveJobFetch counts one job status fetch and its result.
func ObserveJobFetch(kind string, err error) {
	if kind == "" {
		kind = "unknown"
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	jobFetchTotal.WithLabelValues(kind, result).Inc()
}

// ObserveUnknownJobStatus counts one dropped unrecognized job status value.
func ObserveUnknownJobStatus() {
	jobUnknownStatus.Inc()
}

// SetActiveJobs reports the current number of non-terminal registered jobs.
func SetActiveJobs(n int) {
	jobsActive.Set(float64(n))
}

// ObserveSuggestion counts one metadata suggestion attempt by outcome.
func ObserveSuggestion(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	suggestTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
