package list

import (
	"errors"
	"fmt"
)

// ElementNotFoundError is returned by [List.Get] if the requested element does
// not exist.
type ElementNotFoundError struct {
	List  string
	Index Index
}

func (e ElementNotFoundError) Error() string {
	return fmt.Sprintf("the %q list has no element at index %d", e.List, e.Index)
}

// IsNotFound returns true if err is caused by an [ElementNotFoundError].
func IsNotFound(err error) bool {
	return errors.As(err, new(ElementNotFoundError))
}
