package marshaler

import (
	"errors"
	"fmt"
)

// DecodeError is returned when stored bytes can not be decoded into a value of
// the expected type.
type DecodeError struct {
	// Type is the name of the type that the data was expected to contain.
	Type string

	// Data is the data that could not be decoded.
	Data []byte

	// Cause is the underlying error, if any.
	Cause error
}

func (e DecodeError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("unable to decode %d byte(s) as %s", len(e.Data), e.Type)
	}
	return fmt.Sprintf("unable to decode %d byte(s) as %s: %s", len(e.Data), e.Type, e.Cause)
}

func (e DecodeError) Unwrap() error {
	return e.Cause
}

// IsDecodeError returns true if err is caused by a [DecodeError].
func IsDecodeError(err error) bool {
	return errors.As(err, new(DecodeError))
}
