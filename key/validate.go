package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate returns an error if k can not be used as the key of a collection of
// type t without its records becoming unreachable, or aliasing those of some
// other collection.
func Validate(t Type, k string) error {
	if !utf8.ValidString(k) {
		return InvalidKeyError{t, k, "key is not valid UTF-8"}
	}

	if t == Set && strings.ContainsRune(k, memberSeparator) {
		return InvalidKeyError{t, k, fmt.Sprintf("set keys must not contain %q", memberSeparator)}
	}

	return nil
}

// InvalidKeyError is returned when a collection is opened with a key that
// fails [Validate].
type InvalidKeyError struct {
	Type   Type
	Key    string
	Reason string
}

func (e InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid %q key %q: %s", e.Type, e.Key, e.Reason)
}

// IsInvalidKey returns true if err is caused by an [InvalidKeyError].
func IsInvalidKey(err error) bool {
	return errors.As(err, new(InvalidKeyError))
}
