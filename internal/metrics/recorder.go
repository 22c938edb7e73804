package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel enumerates final outcomes of a task run.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for the asset pipeline. Implementations
// may forward to Prometheus. NoopRecorder is the default when metrics are off.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	AddStageFiles(stage string, n int)
	ObserveBuildDuration(task string, d time.Duration)
	IncBuildOutcome(task string, outcome BuildOutcomeLabel)
	IncRemoteCompression(result string)
	AddRemoteBytesSaved(n int64)
	IncSignatureCache(hit bool)
	IncLiveReloadBroadcast()
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) AddStageFiles(string, int)                  {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, BuildOutcomeLabel)  {}
func (NoopRecorder) IncRemoteCompression(string)                {}
func (NoopRecorder) AddRemoteBytesSaved(int64)                  {}
func (NoopRecorder) IncSignatureCache(bool)                     {}
func (NoopRecorder) IncLiveReloadBroadcast()                    {}
func (NoopRecorder) SetLiveReloadClients(int)                   {}
