package marshaler

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ListMeta is the metadata record of a list.
type ListMeta struct {
	// Length is the number of elements in the list.
	Length uint64
}

var (
	// String marshals and unmarshals the built-in string type.
	//
	// The value is stored using the wire format of the
	// google.protobuf.StringValue message.
	String = wrapped(
		wrapperspb.String,
		(*wrapperspb.StringValue).GetValue,
	)

	// ListMetadata marshals and unmarshals a list's [ListMeta] record.
	//
	// It uses the same encoding as [String], the length is stored using the
	// wire format of the google.protobuf.UInt64Value message.
	ListMetadata = wrapped(
		func(m ListMeta) *wrapperspb.UInt64Value {
			return wrapperspb.UInt64(m.Length)
		},
		func(w *wrapperspb.UInt64Value) ListMeta {
			return ListMeta{Length: w.GetValue()}
		},
	)

	// Int64 marshals and unmarshals a signed 64-bit integer as exactly 8 bytes
	// in big-endian order.
	Int64 = New(
		func(v int64) ([]byte, error) {
			return binary.BigEndian.AppendUint64(nil, uint64(v)), nil
		},
		func(data []byte) (int64, error) {
			n, err := fixed64(data)
			return int64(n), err
		},
	)

	// Uint64 marshals and unmarshals an unsigned 64-bit integer as exactly 8
	// bytes in big-endian order.
	Uint64 = New(
		func(v uint64) ([]byte, error) {
			return binary.BigEndian.AppendUint64(nil, v), nil
		},
		fixed64,
	)
)

func fixed64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("expected 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
