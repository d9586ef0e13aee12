package errorsink

import (
	"github.com/google/uuid"
	"github.com/tinylib/msgp/msgp"
)

// CorrelationExtensionType is the MessagePack extension type used to encode
// report correlation IDs. Type 10 is in the user-defined range (0-127);
// types 3, 4, 5 are reserved by msgp for complex64, complex128, and
// time.Time.
const CorrelationExtensionType int8 = 10

func init() {
	msgp.RegisterExtension(CorrelationExtensionType, func() msgp.Extension {
		return new(CorrelationID)
	})
}

// CorrelationID wraps a google/uuid.UUID so it can be serialized through
// MessagePack as a fixed-size extension, the same wire shape a raw [16]byte
// UUID would take.
type CorrelationID uuid.UUID

// NewCorrelationID generates a new random correlation ID.
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.New())
}

// ExtensionType returns the MessagePack extension type for CorrelationID.
func (c *CorrelationID) ExtensionType() int8 { return CorrelationExtensionType }

// Len returns the encoded length of a CorrelationID (always 16 bytes).
func (c *CorrelationID) Len() int { return 16 }

// MarshalBinaryTo copies the correlation ID's bytes into the destination
// buffer, which must be at least 16 bytes.
func (c *CorrelationID) MarshalBinaryTo(b []byte) error {
	copy(b, c[:])
	return nil
}

// UnmarshalBinary copies 16 bytes from the source buffer into the
// correlation ID.
func (c *CorrelationID) UnmarshalBinary(b []byte) error {
	copy(c[:], b)
	return nil
}

// UUID returns the correlation ID as a google/uuid.UUID.
func (c CorrelationID) UUID() uuid.UUID { return uuid.UUID(c) }

// String returns the correlation ID in standard hyphenated UUID form.
func (c CorrelationID) String() string { return uuid.UUID(c).String() }
