package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "assetbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration     *prom.HistogramVec
	stageResults      *prom.CounterVec
	stageFiles        *prom.CounterVec
	buildDuration     *prom.HistogramVec
	buildOutcome      *prom.CounterVec
	remoteCompression *prom.CounterVec
	remoteBytesSaved  prom.Counter
	signatureCache    *prom.CounterVec
	reloadBroadcasts  prom.Counter
	reloadClients     prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual transform stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		stageFiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_files_written_total",
			Help:      "Files written by each stage",
		}, []string{"stage"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of top-level task runs",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_outcomes_total",
			Help:      "Top-level task outcomes by final status",
		}, []string{"task", "outcome"}),
		remoteCompression: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "remote_compressions_total",
			Help:      "Remote image compression calls by result",
		}, []string{"result"}),
		remoteBytesSaved: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "remote_bytes_saved_total",
			Help:      "Bytes saved by remote image compression",
		}),
		signatureCache: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "signature_cache_lookups_total",
			Help:      "Signature cache lookups by hit or miss",
		}, []string{"result"}),
		reloadBroadcasts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "livereload_broadcasts_total",
			Help:      "Live reload events sent to browsers",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "livereload_clients",
			Help:      "Connected live reload clients",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.stageFiles, pr.buildDuration, pr.buildOutcome,
		pr.remoteCompression, pr.remoteBytesSaved, pr.signatureCache, pr.reloadBroadcasts, pr.reloadClients)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) AddStageFiles(stage string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.stageFiles.WithLabelValues(stage).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(task string, outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(task, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRemoteCompression(result string) {
	if p == nil {
		return
	}
	p.remoteCompression.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) AddRemoteBytesSaved(n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.remoteBytesSaved.Add(float64(n))
}

func (p *PrometheusRecorder) IncSignatureCache(hit bool) {
	if p == nil {
		return
	}
	res := "miss"
	if hit {
		res = "hit"
	}
	p.signatureCache.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) IncLiveReloadBroadcast() {
	if p == nil {
		return
	}
	p.reloadBroadcasts.Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.reloadClients.Set(float64(n))
}
