package dynamox

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrCorruptItem indicates that an item does not have the attributes that the
// table's schema requires.
var ErrCorruptItem = errors.New("item is corrupt")

// AttrAs returns the attribute of item with the given name as a T.
func AttrAs[T types.AttributeValue](
	item map[string]types.AttributeValue,
	name string,
) (T, error) {
	var zero T

	a, ok := item[name]
	if !ok {
		return zero, fmt.Errorf("%w: missing %q attribute", ErrCorruptItem, name)
	}

	v, ok := a.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q attribute is %T, want %T", ErrCorruptItem, name, a, zero)
	}

	return v, nil
}
