package errorsink

import (
	"sync"
	"time"

	"github.com/prash-mi/hbase-mirror/internal/logging"
	"github.com/prash-mi/hbase-mirror/types"
)

// ReportFunc consumes a single drained Report, e.g. to print it or forward
// it to another system.
type ReportFunc func(Report)

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// PollInterval is how often the worker polls the sink when it is empty.
	// Default: 100ms
	PollInterval time.Duration

	// Logger receives worker lifecycle events.
	Logger types.Logger
}

// WorkerOption configures a WorkerConfig.
type WorkerOption func(*WorkerConfig)

// WithWorkerPollInterval sets the idle poll interval.
func WithWorkerPollInterval(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) { c.PollInterval = d }
}

// WithWorkerLogger sets the logger used for worker lifecycle events.
func WithWorkerLogger(l types.Logger) WorkerOption {
	return func(c *WorkerConfig) { c.Logger = l }
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{PollInterval: 100 * time.Millisecond}
}

// Worker continuously drains a MemorySink, handing each report to a
// ReportFunc.
//
// Unlike the teacher's replay worker, Worker never re-enqueues or retries:
// a drained report is gone from the sink whether or not ReportFunc
// succeeds. This matches the sink's role as a terminal reporting surface,
// not a queue awaiting execution.
type Worker struct {
	sink   *MemorySink
	report ReportFunc
	config WorkerConfig

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a worker that drains sink and forwards each report to
// report.
func NewWorker(sink *MemorySink, report ReportFunc, opts ...WorkerOption) *Worker {
	config := DefaultWorkerConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	return &Worker{
		sink:   sink,
		report: report,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins draining the sink on a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		r, ok := w.sink.TryDrain()
		if !ok {
			select {
			case <-w.stopCh:
				return
			case <-time.After(w.config.PollInterval):
				continue
			}
		}

		w.report(r)
	}
}

// Stop signals the worker to stop and waits for it to exit.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.config.Logger.Info("errorsink worker stopped")
}
