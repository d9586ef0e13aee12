package flowcontrol

import (
	"errors"
	"sync"
	"testing"

	"github.com/prash-mi/hbase-mirror/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedController_AdmitsUnderLimit(t *testing.T) {
	c := NewBoundedController(WithMaxOutstandingRequests(10))

	release, err := c.TryAdmit(types.RequestResourcesDescription{NumOperations: 1, ApproxBytes: 64})
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.Equal(t, 1, c.OutstandingRequests())

	release()
	assert.Equal(t, 0, c.OutstandingRequests())
}

func TestBoundedController_DeniesOverRequestLimit(t *testing.T) {
	c := NewBoundedController(WithMaxOutstandingRequests(1))

	release, err := c.TryAdmit(types.RequestResourcesDescription{NumOperations: 1})
	require.NoError(t, err)
	defer release()

	_, err = c.TryAdmit(types.RequestResourcesDescription{NumOperations: 1})
	require.Error(t, err)

	var admissionErr *types.AdmissionError
	require.True(t, errors.As(err, &admissionErr))
	assert.ErrorIs(t, err, types.ErrAdmissionDenied)
}

func TestBoundedController_DeniesOverByteLimit(t *testing.T) {
	c := NewBoundedController(WithMaxOutstandingRequests(100), WithMaxOutstandingBytes(100))

	release, err := c.TryAdmit(types.RequestResourcesDescription{NumOperations: 1, ApproxBytes: 90})
	require.NoError(t, err)
	defer release()

	_, err = c.TryAdmit(types.RequestResourcesDescription{NumOperations: 1, ApproxBytes: 20})
	require.ErrorIs(t, err, types.ErrAdmissionDenied)
}

func TestBoundedController_ReleaseIsIdempotent(t *testing.T) {
	c := NewBoundedController(WithMaxOutstandingRequests(10))

	release, err := c.TryAdmit(types.RequestResourcesDescription{NumOperations: 2, ApproxBytes: 10})
	require.NoError(t, err)

	release()
	release()

	assert.Equal(t, 0, c.OutstandingRequests())
	assert.Equal(t, int64(0), c.OutstandingBytes())
}

func TestBoundedController_ConcurrentAdmission(t *testing.T) {
	c := NewBoundedController(WithMaxOutstandingRequests(50))

	var wg sync.WaitGroup
	var admitted, denied sync.Map
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release, err := c.TryAdmit(types.RequestResourcesDescription{NumOperations: 1})
			if err != nil {
				denied.Store(i, true)
				return
			}
			admitted.Store(i, true)
			release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, c.OutstandingRequests())
}
