package errorsink

import (
	"github.com/prash-mi/hbase-mirror/types"
	"github.com/tinylib/msgp/msgp"
)

// reportMessage is the MessagePack wire format for a Report, used when a
// sink is backed by NATS JetStream rather than an in-process channel.
//
// Hand-written in the style msgp's code generator produces, since this
// report shape is small and stable enough not to warrant a generated file.
type reportMessage struct {
	ID        CorrelationID
	Backend   string
	Kind      string
	RowKey    []byte
	Cause     string
	Timestamp int64
}

func fromReport(r Report) reportMessage {
	return reportMessage{
		ID:        r.ID,
		Backend:   r.Backend.String(),
		Kind:      r.Kind.String(),
		RowKey:    r.RowKey,
		Cause:     r.Cause,
		Timestamp: r.Timestamp,
	}
}

// DecodeReport decodes the MessagePack encoding a NATSSink published, for a
// consumer (such as cmd/mirror-report) reading reports back off the stream.
func DecodeReport(data []byte) (Report, error) {
	var m reportMessage
	if _, err := m.UnmarshalMsg(data); err != nil {
		return Report{}, err
	}
	return m.toReport(), nil
}

func (m reportMessage) toReport() Report {
	return Report{
		ID:        m.ID,
		Backend:   types.ParseBackendID(m.Backend),
		Kind:      types.ParseOpKind(m.Kind),
		RowKey:    m.RowKey,
		Cause:     m.Cause,
		Timestamp: m.Timestamp,
	}
}

// MarshalMsg appends the MessagePack encoding of m to b and returns the
// extended buffer.
func (m *reportMessage) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.AppendMapHeader(b, 6)

	o = msgp.AppendString(o, "id")
	o, err = msgp.AppendExtension(o, &m.ID)
	if err != nil {
		return nil, err
	}

	o = msgp.AppendString(o, "backend")
	o = msgp.AppendString(o, m.Backend)

	o = msgp.AppendString(o, "kind")
	o = msgp.AppendString(o, m.Kind)

	o = msgp.AppendString(o, "row_key")
	o = msgp.AppendBytes(o, m.RowKey)

	o = msgp.AppendString(o, "cause")
	o = msgp.AppendString(o, m.Cause)

	o = msgp.AppendString(o, "timestamp")
	o = msgp.AppendInt64(o, m.Timestamp)

	return o, nil
}

// UnmarshalMsg decodes the MessagePack encoding in bts into m and returns
// the remaining unread bytes.
func (m *reportMessage) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var fieldCount uint32
	fieldCount, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < fieldCount; i++ {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return nil, err
		}

		switch string(field) {
		case "id":
			bts, err = msgp.ReadExtensionBytes(bts, &m.ID)
		case "backend":
			m.Backend, bts, err = msgp.ReadStringBytes(bts)
		case "kind":
			m.Kind, bts, err = msgp.ReadStringBytes(bts)
		case "row_key":
			m.RowKey, bts, err = msgp.ReadBytesBytes(bts, m.RowKey)
		case "cause":
			m.Cause, bts, err = msgp.ReadStringBytes(bts)
		case "timestamp":
			m.Timestamp, bts, err = msgp.ReadInt64Bytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}

		if err != nil {
			return nil, err
		}
	}

	return bts, nil
}
