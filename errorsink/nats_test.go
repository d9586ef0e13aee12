package errorsink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/prash-mi/hbase-mirror/test/testutil"
	"github.com/prash-mi/hbase-mirror/types"
	"github.com/stretchr/testify/require"
)

func TestNATSSink_PublishesReport(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sink, err := NewNATSSink(ctx, js, nil, WithNATSStreamName("test-mirror-errors"), WithNATSSubject("test.mirror.errors"))
	require.NoError(t, err)
	defer sink.Close()

	sub, err := js.CreateOrUpdateConsumer(ctx, "test-mirror-errors", jetstream.ConsumerConfig{
		Durable:       "test-consumer",
		FilterSubject: "test.mirror.errors",
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	require.NoError(t, err)

	sink.Consume(types.Secondary, types.OpPut, []types.WriteOperationInfo{writeOp("r1")}, errors.New("boom"))

	msgs, err := sub.Fetch(1, jetstream.FetchMaxWait(2*time.Second))
	require.NoError(t, err)

	count := 0
	for msg := range msgs.Messages() {
		count++
		var m reportMessage
		_, err := m.UnmarshalMsg(msg.Data())
		require.NoError(t, err)
		report := m.toReport()
		require.Equal(t, types.Secondary, report.Backend)
		require.Equal(t, "r1", string(report.RowKey))
		require.NoError(t, msg.Ack())
	}
	require.Equal(t, 1, count)
}
