// Package key builds the physical keys under which logical collections are
// stored.
//
// Every logical collection is identified by a (type, key) pair. Its records
// live under one of two namespaces:
//
//	meta_<type>_<key>          collection metadata, such as a list's length
//	data_<type>_<key><suffix>  collection data
//
// The builders in this package are pure; identical input always yields
// byte-identical output.
package key

import "strconv"

// Type is the tag that identifies the kind of a logical collection.
type Type string

const (
	// List is the type tag for append-only lists.
	List Type = "l"

	// Set is the type tag for unordered sets.
	Set Type = "z"

	// Scalar is the type tag for single string values.
	Scalar Type = "s"

	// Counter is the type tag for fixed-width integer counters.
	Counter Type = "c"
)

const (
	metaNamespace = "meta"
	dataNamespace = "data"

	// separator joins the namespace, type tag and key.
	separator = '_'

	// memberSeparator joins a set's key to one of its members.
	memberSeparator = ':'
)

// Meta returns the key of the metadata record for the collection identified
// by t and k.
func Meta(t Type, k string) []byte {
	return build(metaNamespace, t, k, 0)
}

// Data returns the key of the data record for the collection identified by t
// and k.
func Data(t Type, k string) []byte {
	return build(dataNamespace, t, k, 0)
}

// ListIndex returns the key of the element at index i of the list k.
func ListIndex(k string, i uint64) []byte {
	buf := build(dataNamespace, List, k, 21)
	buf = append(buf, separator)
	return strconv.AppendUint(buf, i, 10)
}

// SetMember returns the key of member m of the set k.
func SetMember(k, m string) []byte {
	buf := SetScanPrefix(k)
	return append(buf, m...)
}

// SetScanPrefix returns the prefix shared by the keys of every member of the
// set k, and by no other key.
func SetScanPrefix(k string) []byte {
	buf := build(dataNamespace, Set, k, 1)
	return append(buf, memberSeparator)
}

// ScalarValue returns the key of the scalar string k.
func ScalarValue(k string) []byte {
	return Data(Scalar, k)
}

// CounterValue returns the key of the counter k.
func CounterValue(k string) []byte {
	return Data(Counter, k)
}

// build returns "<ns>_<t>_<k>", with spare capacity for n more bytes.
func build(ns string, t Type, k string, n int) []byte {
	buf := make([]byte, 0, len(ns)+len(t)+len(k)+2+n)
	buf = append(buf, ns...)
	buf = append(buf, separator)
	buf = append(buf, t...)
	buf = append(buf, separator)
	return append(buf, k...)
}
