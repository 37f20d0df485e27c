package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pdfstore"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	Ingestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ingestions_total", Help: "Ingestion runs by result (done, failed)."},
		[]string{"result"},
	)
	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ingest_stage_failures_total", Help: "Failed ingestion runs by the stage that failed."},
		[]string{"stage"},
	)
	SegmentsUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "segments_uploaded_total", Help: "Segments stored in the object store."},
	)
	SegmentBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segment_bytes",
			Help:      "Serialized size of built segments.",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 10),
		},
	)
	UploadAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "upload_attempts_total", Help: "Object store upload attempts by outcome (ok, error)."},
		[]string{"outcome"},
	)
	RemoteDeletes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "remote_deletes_total", Help: "Object store segment deletes by outcome (ok, error)."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Ingestions)
	reg.MustRegister(StageFailures)
	reg.MustRegister(SegmentsUploaded)
	reg.MustRegister(SegmentBytes)
	reg.MustRegister(UploadAttempts)
	reg.MustRegister(RemoteDeletes)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveUpload counts one upload attempt.
func ObserveUpload(err error) { UploadAttempts.WithLabelValues(outcome(err)).Inc() }

// ObserveDelete counts one remote segment delete.
func ObserveDelete(err error) { RemoteDeletes.WithLabelValues(outcome(err)).Inc() }
