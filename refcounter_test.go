package mirror

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefCounter_CloseWithNoOutstandingWorkDrainsImmediately(t *testing.T) {
	rc := NewRefCounter(nil)

	done := rc.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected immediate drain")
	}
}

func TestRefCounter_CloseAwaitsOutstandingWork(t *testing.T) {
	rc := NewRefCounter(nil)

	release, ok := rc.Hold()
	require.True(t, ok)

	done := rc.Close()
	select {
	case <-done:
		t.Fatal("expected drain to await outstanding work")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected drain after release")
	}
}

func TestRefCounter_RepeatedCloseReturnsSameHandle(t *testing.T) {
	rc := NewRefCounter(nil)

	first := rc.Close()
	second := rc.Close()
	assert.Equal(t, first, second)
}

func TestRefCounter_HoldAfterDrainIsDenied(t *testing.T) {
	rc := NewRefCounter(nil)
	rc.Close()

	_, ok := rc.Hold()
	assert.False(t, ok)
}

func TestRefCounter_ReleaseIsIdempotent(t *testing.T) {
	rc := NewRefCounter(nil)
	release, ok := rc.Hold()
	require.True(t, ok)

	assert.NotPanics(t, func() {
		release()
		release()
	})
	assert.Equal(t, int64(1), rc.Outstanding())
}

func TestRefCounter_ConcurrentHoldsAllDrainBeforeClose(t *testing.T) {
	rc := NewRefCounter(nil)

	const n = 50
	releases := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		release, ok := rc.Hold()
		require.True(t, ok)
		releases = append(releases, release)
	}

	done := rc.Close()
	for _, release := range releases {
		release()
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected drain after all releases")
	}
}
