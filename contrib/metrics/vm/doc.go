// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "mirror":
//
//	collector := vm.New()
//	table, _ := mirror.NewTable(primary, secondary, mirror.WithMetrics(collector))
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// This produces metrics like:
//   - myapp_operations_total{backend="primary",op="put"}
//   - myapp_operation_duration_seconds{backend="secondary",op="get"}
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// # Metrics Provided
//
// Dispatch: {prefix}_operations_total{backend,op}, {prefix}_operation_errors_total{backend,op},
// {prefix}_operation_duration_seconds{backend,op}.
//
// Admission: {prefix}_admission_granted_total, {prefix}_admission_denied_total,
// {prefix}_outstanding_requests, {prefix}_outstanding_bytes.
//
// Verification: {prefix}_verified_total{op}, {prefix}_mismatch_total{op}.
//
// Write-Error Sink: {prefix}_sink_reported_total{op}, {prefix}_sink_dropped_total{op}, {prefix}_sink_depth.
//
// Reference Counter: {prefix}_outstanding_references.
package vm
