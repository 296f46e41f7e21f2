// Package metrics exports per-sensor readings in the Prometheus text
// exposition format to a file, for pickup by a node_exporter textfile
// collector or for inspection after a run. It also reads such a file back.
package metrics
