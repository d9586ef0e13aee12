// Package errorsink implements the mirroring client's Write-Error Sink.
//
// Two implementations are provided:
//
//   - MemorySink: a bounded, priority-aware, process-local sink suitable
//     for development or for in-process draining with Worker.
//   - NATSSink: a durable, JetStream-backed sink that persists reports
//     across process restarts.
//
// Both exist purely to report lost secondary writes; neither replays or
// retries a write against either backend.
package errorsink
