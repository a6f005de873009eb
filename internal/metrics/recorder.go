package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultPartial ResultLabel = "partial"
	ResultFailed  ResultLabel = "failed"
)

// ResultFor maps an error and a degradation flag to a ResultLabel.
func ResultFor(err error, partial bool) ResultLabel {
	switch {
	case err != nil:
		return ResultFailed
	case partial:
		return ResultPartial
	default:
		return ResultSuccess
	}
}

// Recorder defines observability hooks for content mutations, document syncs,
// publishes and HTTP requests.
type Recorder interface {
	IncMutation(kind, op string, result ResultLabel)
	SetRecordCount(kind string, n int)
	ObserveSyncDuration(kind string, d time.Duration)
	IncSyncResult(kind string, result ResultLabel)
	IncAnchorSkipped(anchor, reason string)
	ObservePublishDuration(d time.Duration)
	IncPublishOutcome(outcome, failure string)
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncMutation(string, string, ResultLabel) {}
func (NoopRecorder) SetRecordCount(string, int) {}
func (NoopRecorder) ObserveSyncDuration(string, time.Duration) {}
func (NoopRecorder) IncSyncResult(string, ResultLabel) {}
func (NoopRecorder) IncAnchorSkipped(string, string) {}
func (NoopRecorder) ObservePublishDuration(time.Duration) {}
func (NoopRecorder) IncPublishOutcome(string, string) {}
func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
