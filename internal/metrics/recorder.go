// Package metrics records model loading and rendering activity. Components
// take a Recorder and default to NoopRecorder, so metrics are optional.
package metrics

import "time"

// ResultLabel enumerates model load outcomes.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultNotFound ResultLabel = "not_found"
	ResultFailed   ResultLabel = "failed"
	ResultOffline  ResultLabel = "offline"
)

// Recorder defines the observability hooks used by the registry, the
// renderer and the daemon.
type Recorder interface {
	ObserveModelLoad(result ResultLabel, d time.Duration)
	IncCacheHit()
	IncPageRendered()
	IncRenderDiagnostic(kind string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveModelLoad(ResultLabel, time.Duration) {}
func (NoopRecorder) IncCacheHit()                                {}
func (NoopRecorder) IncPageRendered()                            {}
func (NoopRecorder) IncRenderDiagnostic(string)                  {}
