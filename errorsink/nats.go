package errorsink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/prash-mi/hbase-mirror/internal/metrics"
	"github.com/prash-mi/hbase-mirror/types"
)

// NATSSinkConfig configures a NATSSink.
type NATSSinkConfig struct {
	// StreamName is the JetStream stream name used to hold write-error reports.
	// Default: "mirror-errors"
	StreamName string

	// Subject is the subject reports are published to.
	// Default: "mirror.errors"
	Subject string

	// MaxAge is the maximum age of a report in the stream.
	// Default: 72 hours
	MaxAge time.Duration

	// PublishTimeout bounds each individual publish call.
	// Default: 5 seconds
	PublishTimeout time.Duration
}

// DefaultNATSSinkConfig returns the default configuration.
func DefaultNATSSinkConfig() NATSSinkConfig {
	return NATSSinkConfig{
		StreamName:     "mirror-errors",
		Subject:        "mirror.errors",
		MaxAge:         72 * time.Hour,
		PublishTimeout: 5 * time.Second,
	}
}

// NATSSinkOption configures a NATSSink.
type NATSSinkOption func(*NATSSinkConfig)

// WithNATSStreamName sets the JetStream stream name.
func WithNATSStreamName(name string) NATSSinkOption {
	return func(c *NATSSinkConfig) { c.StreamName = name }
}

// WithNATSSubject sets the publish subject.
func WithNATSSubject(subject string) NATSSinkOption {
	return func(c *NATSSinkConfig) { c.Subject = subject }
}

// WithNATSMaxAge sets how long reports are retained in the stream.
func WithNATSMaxAge(d time.Duration) NATSSinkOption {
	return func(c *NATSSinkConfig) { c.MaxAge = d }
}

// WithNATSPublishTimeout bounds each publish call.
func WithNATSPublishTimeout(d time.Duration) NATSSinkOption {
	return func(c *NATSSinkConfig) { c.PublishTimeout = d }
}

// NATSSink is a durable, JetStream-backed Sink for write-error reports.
//
// Unlike a replay queue, NATSSink never reads its own stream back into the
// mirroring client and never retries a write: it exists purely so that an
// operator (or cmd/mirror-report) can tail lost-write reports after the
// fact. Reports persist across process restarts, unlike MemorySink.
type NATSSink struct {
	js     jetstream.JetStream
	stream jetstream.Stream
	config NATSSinkConfig

	mu     sync.RWMutex
	closed bool

	metrics types.MetricsCollector
}

// NewNATSSink creates a NATSSink, creating or updating the backing
// JetStream stream.
func NewNATSSink(ctx context.Context, js jetstream.JetStream, mc types.MetricsCollector, opts ...NATSSinkOption) (*NATSSink, error) {
	if js == nil {
		return nil, errors.New("mirror: JetStream context is nil")
	}

	config := DefaultNATSSinkConfig()
	for _, opt := range opts {
		opt(&config)
	}

	createCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stream, err := js.CreateOrUpdateStream(createCtx, jetstream.StreamConfig{
		Name:        config.StreamName,
		Description: "Mirroring client write-error reports",
		Subjects:    []string{config.Subject},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      config.MaxAge,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: failed to create/update error-report stream: %w", err)
	}

	if mc == nil {
		mc = metrics.NewNopMetrics()
	}

	return &NATSSink{js: js, stream: stream, config: config, metrics: mc}, nil
}

// Consume publishes one report per operation to the configured JetStream
// subject. A publish failure is logged to the metrics collector as a
// dropped report but otherwise swallowed: the sink must never propagate an
// error back into the mirroring dispatcher's hot path.
func (s *NATSSink) Consume(backend types.BackendID, kind types.OpKind, ops []types.WriteOperationInfo, cause error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return
	}

	for _, op := range ops {
		report := newReport(backend, kind, op, cause)
		msg := fromReport(report)

		data, err := msg.MarshalMsg(nil)
		if err != nil {
			s.metrics.IncSinkDropped(kind)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.config.PublishTimeout)
		_, err = s.js.Publish(ctx, s.config.Subject, data)
		cancel()
		if err != nil {
			s.metrics.IncSinkDropped(kind)
			continue
		}

		s.metrics.IncSinkReported(kind)
	}
}

// Close marks the sink as closed. The underlying JetStream connection is
// owned by the caller and is not closed here.
func (s *NATSSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
