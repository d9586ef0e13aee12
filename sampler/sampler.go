// Package sampler decides, for each read operation, whether the secondary
// backend should also be issued a shadow read for verification.
//
// Every read is always served from the primary; sampling only controls
// whether that read is additionally mirrored to the secondary. A lower
// sample ratio trades verification coverage for reduced load on the
// secondary.
package sampler

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"

	"github.com/prash-mi/hbase-mirror/types"
)

// ReadSampler decides whether a given read operation should also be
// dispatched to the secondary backend for verification.
type ReadSampler interface {
	// ShouldSample reports whether op should be mirrored to the secondary.
	ShouldSample(op types.Operation) bool
}

// AlwaysSampler mirrors every read to the secondary.
type AlwaysSampler struct{}

// NewAlwaysSampler creates a sampler that mirrors every read.
func NewAlwaysSampler() AlwaysSampler { return AlwaysSampler{} }

// ShouldSample always returns true.
func (AlwaysSampler) ShouldSample(types.Operation) bool { return true }

// NeverSampler never mirrors reads to the secondary.
//
// Verification is effectively disabled; writes are still mirrored.
type NeverSampler struct{}

// NewNeverSampler creates a sampler that never mirrors reads.
func NewNeverSampler() NeverSampler { return NeverSampler{} }

// ShouldSample always returns false.
func (NeverSampler) ShouldSample(types.Operation) bool { return false }

// RatioSampler mirrors a fixed fraction of reads to the secondary, decided
// independently per call using a cryptographically secure random source.
type RatioSampler struct {
	numerator   int64
	denominator int64
}

// NewRatioSampler creates a RatioSampler that mirrors approximately ratio
// fraction of reads, where ratio is clamped to [0, 1].
//
// A ratio of 0 behaves like NeverSampler; a ratio of 1 behaves like
// AlwaysSampler.
func NewRatioSampler(ratio float64) *RatioSampler {
	if ratio <= 0 {
		return &RatioSampler{numerator: 0, denominator: 1}
	}
	if ratio >= 1 {
		return &RatioSampler{numerator: 1, denominator: 1}
	}

	const precision = 1_000_000
	return &RatioSampler{
		numerator:   int64(ratio * precision),
		denominator: precision,
	}
}

// ShouldSample draws a uniform random value in [0, denominator) and mirrors
// the read if it falls below numerator.
func (s *RatioSampler) ShouldSample(types.Operation) bool {
	if s.numerator <= 0 {
		return false
	}
	if s.numerator >= s.denominator {
		return true
	}

	n, err := rand.Int(rand.Reader, big.NewInt(s.denominator))
	if err != nil {
		// Fail closed: an unreadable entropy source should not silently
		// disable verification coverage.
		return true
	}

	return n.Int64() < s.numerator
}

// RoundRobinSampler mirrors every Nth read, deterministically, using an
// atomic counter. Unlike RatioSampler, coverage is exact rather than
// probabilistic.
type RoundRobinSampler struct {
	every   uint64
	counter atomic.Uint64
}

// NewRoundRobinSampler creates a sampler that mirrors one out of every
// `every` reads. An `every` of 1 behaves like AlwaysSampler.
func NewRoundRobinSampler(every uint64) *RoundRobinSampler {
	if every == 0 {
		every = 1
	}
	return &RoundRobinSampler{every: every}
}

// ShouldSample returns true once every `every` calls.
func (s *RoundRobinSampler) ShouldSample(types.Operation) bool {
	count := s.counter.Add(1)
	return count%s.every == 0
}
