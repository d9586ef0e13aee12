package mirror

import (
	"testing"

	"github.com/prash-mi/hbase-mirror/errorsink"
	"github.com/prash-mi/hbase-mirror/flowcontrol"
	"github.com/prash-mi/hbase-mirror/sampler"
	"github.com/prash-mi/hbase-mirror/types"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_HasNoOpCollaborators(t *testing.T) {
	c := DefaultConfig()

	assert.Nil(t, c.FlowController)
	assert.Nil(t, c.ReadSampler)
	assert.Nil(t, c.Verifier)
	assert.Nil(t, c.WriteErrorSink)
	assert.NotNil(t, c.Tracer)
	assert.NotNil(t, c.Metrics)
	assert.NotNil(t, c.Logger)
	assert.Equal(t, types.DefaultBackendNames(), c.BackendNames)
	assert.False(t, c.ConcurrentBatches)
}

func TestOptions_ApplyOverDefaults(t *testing.T) {
	c := DefaultConfig()
	fc := flowcontrol.NewBoundedController()
	rs := sampler.NewRatioSampler(1.0)
	sink := errorsink.NewMemorySink()
	defer sink.Close()

	for _, opt := range []Option{
		WithFlowController(fc),
		WithReadSampler(rs),
		WithWriteErrorSink(sink),
		WithConcurrentBatches(true),
		WithBackendNames(types.BackendNames{Primary: "us_east", Secondary: "us_west"}),
	} {
		opt(c)
	}

	assert.Same(t, fc, c.FlowController)
	assert.Same(t, rs, c.ReadSampler)
	assert.Same(t, sink, c.WriteErrorSink)
	assert.True(t, c.ConcurrentBatches)
	assert.Equal(t, "us_east", c.BackendNames.Primary)
	assert.Equal(t, "us_west", c.BackendNames.Secondary)
}

func TestPropagateBackendNames_SetsNamesOnNamerCollaborators(t *testing.T) {
	c := DefaultConfig()
	c.Metrics = &fakeNamedMetrics{}
	WithBackendNames(types.BackendNames{Primary: "east", Secondary: "west"})(c)

	propagateBackendNames(c)

	named := c.Metrics.(*fakeNamedMetrics)
	assert.Equal(t, "east", named.names.Primary)
	assert.Equal(t, "west", named.names.Secondary)
}

type fakeNamedMetrics struct {
	types.MetricsCollector
	names types.BackendNames
}

func (f *fakeNamedMetrics) SetBackendNames(names types.BackendNames) {
	f.names = names
}
