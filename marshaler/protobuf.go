package marshaler

import (
	"google.golang.org/protobuf/proto"
)

// NewProto returns a marshaler that marshals and unmarshals Protocol Buffers
// messages.
func NewProto[
	T interface {
		proto.Message
		*S
	},
	S any,
]() Marshaler[T] {
	return New(
		func(t T) ([]byte, error) {
			return proto.Marshal(t)
		},
		func(data []byte) (T, error) {
			var v T = new(S)
			return v, proto.Unmarshal(data, v)
		},
	)
}

// wrapped returns a marshaler for a plain Go value of type T that is stored
// within the Protocol Buffers message type M.
func wrapped[T any, M interface {
	proto.Message
	*S
}, S any](
	wrap func(T) M,
	unwrap func(M) T,
) Marshaler[T] {
	return New(
		func(v T) ([]byte, error) {
			return proto.Marshal(wrap(v))
		},
		func(data []byte) (T, error) {
			var w M = new(S)
			if err := proto.Unmarshal(data, w); err != nil {
				var zero T
				return zero, err
			}
			return unwrap(w), nil
		},
	)
}
