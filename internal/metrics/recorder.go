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

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomePartial  BuildOutcomeLabel = "partial"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build, stage and render metrics.
// Implementations may forward to Prometheus or elsewhere.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	ObserveRenderDuration(parser string, d time.Duration, success bool)
	AddOutputFiles(success bool, n int)
	SetDescriptors(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)        {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                {}
func (NoopRecorder) IncStageResult(string, ResultLabel)                {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)                 {}
func (NoopRecorder) ObserveRenderDuration(string, time.Duration, bool) {}
func (NoopRecorder) AddOutputFiles(bool, int)                          {}
func (NoopRecorder) SetDescriptors(int)                                {}
