package metricsvc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/reconcile"
)

// Recorder exports the write jobs' outcomes as Prometheus metrics.
type Recorder struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	entries   *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	lastRunAt *prometheus.GaugeVec
}

var _ reconcile.Recorder = (*Recorder)(nil)

// NewRecorder registers the metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "job_runs_total",
			Help:      "Write job runs by job and result",
		}, []string{"job", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "presence",
			Name:      "job_duration_seconds",
			Help:      "Write job duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"job"}),
		entries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "ledger_entries_total",
			Help:      "Ledger entries handled by write jobs, by outcome",
		}, []string{"job", "outcome"}),
		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "presence",
			Name:      "autoabsent_slots_skipped_total",
			Help:      "Schedule slots skipped by the auto-absent job, by reason",
		}, []string{"reason"}),
		lastRunAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "presence",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}, []string{"job"}),
	}
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := core.AsBatchError(err); ok {
		return "partial"
	}
	return "error"
}

func (r *Recorder) AutoAbsentDone(rep reconcile.Report, took time.Duration, err error) {
	const job = "autoabsent"
	r.runs.WithLabelValues(job, result(err)).Inc()
	r.duration.WithLabelValues(job).Observe(took.Seconds())
	r.entries.WithLabelValues(job, "inserted").Add(float64(rep.NewlyAbsent))
	r.entries.WithLabelValues(job, "covered").Add(float64(rep.AlreadyCovered))
	r.entries.WithLabelValues(job, "failed").Add(float64(rep.FailedEntries))
	r.skipped.WithLabelValues("cancelled").Add(float64(rep.SkippedCancelled))
	r.skipped.WithLabelValues("pending").Add(float64(rep.SkippedPending))
	r.skipped.WithLabelValues("no_class").Add(float64(rep.SkippedNoClass))
	if err == nil {
		r.lastRunAt.WithLabelValues(job).SetToCurrentTime()
	}
}

func (r *Recorder) CascadeDone(rep reconcile.CascadeReport, took time.Duration, err error) {
	const job = "cascade"
	r.runs.WithLabelValues(job, result(err)).Inc()
	r.duration.WithLabelValues(job).Observe(took.Seconds())
	r.entries.WithLabelValues(job, "explicit").Add(float64(rep.Explicit))
	r.entries.WithLabelValues(job, "inserted").Add(float64(rep.DefaultAbsent))
	r.entries.WithLabelValues(job, "covered").Add(float64(rep.AlreadyRecorded))
	if err == nil {
		r.lastRunAt.WithLabelValues(job).SetToCurrentTime()
	}
}
