package sampler

import (
	"testing"

	"github.com/prash-mi/hbase-mirror/types"
	"github.com/stretchr/testify/assert"
)

func TestAlwaysSampler(t *testing.T) {
	s := NewAlwaysSampler()
	for i := 0; i < 10; i++ {
		assert.True(t, s.ShouldSample(types.Operation{}))
	}
}

func TestNeverSampler(t *testing.T) {
	s := NewNeverSampler()
	for i := 0; i < 10; i++ {
		assert.False(t, s.ShouldSample(types.Operation{}))
	}
}

func TestRatioSampler_Bounds(t *testing.T) {
	zero := NewRatioSampler(0)
	one := NewRatioSampler(1)

	for i := 0; i < 20; i++ {
		assert.False(t, zero.ShouldSample(types.Operation{}))
		assert.True(t, one.ShouldSample(types.Operation{}))
	}
}

func TestRatioSampler_ApproximatesRatio(t *testing.T) {
	s := NewRatioSampler(0.5)

	sampled := 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		if s.ShouldSample(types.Operation{}) {
			sampled++
		}
	}

	ratio := float64(sampled) / float64(trials)
	assert.InDelta(t, 0.5, ratio, 0.1)
}

func TestRoundRobinSampler_ExactCoverage(t *testing.T) {
	s := NewRoundRobinSampler(3)

	var sampled int
	for i := 0; i < 9; i++ {
		if s.ShouldSample(types.Operation{}) {
			sampled++
		}
	}

	assert.Equal(t, 3, sampled)
}

func TestRoundRobinSampler_ZeroEveryDefaultsToOne(t *testing.T) {
	s := NewRoundRobinSampler(0)
	assert.True(t, s.ShouldSample(types.Operation{}))
	assert.True(t, s.ShouldSample(types.Operation{}))
}
