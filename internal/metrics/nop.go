// Package metrics provides internal metrics utilities for the mirroring client.
package metrics

import "github.com/prash-mi/hbase-mirror/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (m *NopMetrics) IncOperationTotal(_ types.BackendID, _ types.OpKind)                    {}
func (m *NopMetrics) IncOperationError(_ types.BackendID, _ types.OpKind)                    {}
func (m *NopMetrics) ObserveOperationDuration(_ types.BackendID, _ types.OpKind, _ float64)   {}
func (m *NopMetrics) IncAdmissionGranted()                                                   {}
func (m *NopMetrics) IncAdmissionDenied()                                                    {}
func (m *NopMetrics) SetOutstandingRequests(_ int)                                            {}
func (m *NopMetrics) SetOutstandingBytes(_ int64)                                             {}
func (m *NopMetrics) IncVerified(_ types.OpKind)                                              {}
func (m *NopMetrics) IncMismatch(_ types.OpKind)                                              {}
func (m *NopMetrics) IncSinkReported(_ types.OpKind)                                          {}
func (m *NopMetrics) IncSinkDropped(_ types.OpKind)                                           {}
func (m *NopMetrics) SetSinkDepth(_ int)                                                      {}
func (m *NopMetrics) SetOutstandingReferences(_ int64)                                        {}
