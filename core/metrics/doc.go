package metrics

// Package metrics defines the observability events emitted by optimization
// runs and the sink interfaces that record them. Sinks like PromSink and
// InfluxSink live in infra/metrics and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
