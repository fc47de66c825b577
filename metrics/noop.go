package metrics

import "github.com/prometheus/client_golang/prometheus"

// NoopRegisterer can be used in tests and in tools that do not export
// metrics. Collectors handed to it are never registered anywhere.
var NoopRegisterer = noopRegisterer{}

type noopRegisterer struct{}

func (np noopRegisterer) MustRegister(_ ...prometheus.Collector) {}

func (np noopRegisterer) Register(_ prometheus.Collector) error { return nil }

func (np noopRegisterer) Unregister(_ prometheus.Collector) bool { return true }
