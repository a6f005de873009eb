// Package metrics records operational metrics for sitekeeper.
//
// Components depend on the Recorder interface and default to NoopRecorder,
// so metrics collection never requires nil checks:
//
//	type Manager struct {
//	    recorder metrics.Recorder
//	}
//
// When metrics are enabled, a PrometheusRecorder registered on a private
// registry is injected instead and HTTPHandler exposes that registry on
// /metrics.
package metrics
