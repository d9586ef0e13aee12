package errorsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationID_RoundTripsThroughBinary(t *testing.T) {
	id := NewCorrelationID()

	buf := make([]byte, id.Len())
	require := assert.New(t)
	require.NoError(id.MarshalBinaryTo(buf))

	var got CorrelationID
	require.NoError(got.UnmarshalBinary(buf))

	assert.Equal(t, id.UUID(), got.UUID())
}

func TestCorrelationID_String(t *testing.T) {
	id := NewCorrelationID()
	assert.Len(t, id.String(), 36)
}
