package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LogsRecorded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindurmind", Name: "logs_recorded_total", Help: "Recorded wellbeing logs",
	}, []string{"kind"}) // mood|sleep|journal

	LinkTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindurmind", Name: "link_transitions_total", Help: "Link request transitions",
	}, []string{"action"}) // request|cancel|approve|decline

	ForbiddenScopes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mindurmind", Name: "forbidden_scopes_total", Help: "Rejected out-of-scope view requests",
	})

	StoreSave = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mindurmind", Name: "store_save_seconds", Help: "Dataset persist latency",
		Buckets: prometheus.DefBuckets,
	})

	DatasetSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mindurmind", Name: "dataset_records", Help: "Records per collection",
	}, []string{"collection"})
)

func init() {
	prometheus.MustRegister(LogsRecorded, LinkTransitions, ForbiddenScopes, StoreSave, DatasetSize)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveStoreSave(d time.Duration) { StoreSave.Observe(d.Seconds()) }
