// Package metrics defines the adherence readout and the sinks that record
// planning activity. Sinks like PromSink and InfluxSink live in infra/metrics
// and register themselves in the factory; NewMetricsSink drops inactive sinks
// and returns a MultiSink when several live ones are configured.
package metrics
