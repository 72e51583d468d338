// Package message models the JSON-RPC 2.0 wire types: request, response,
// error, and the MessageId that correlates them.
// file: message/id.go
package message

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type idKind int

const (
	idNull idKind = iota
	idInt
	idString
)

// ID is a JSON-RPC message identifier. It holds either a 64-bit integer or
// a string; the two domains are disjoint for equality purposes. A nil *ID
// means the id field is absent from the wire message (a notification); a
// non-nil ID of null kind marshals as the JSON literal null, used when a
// response must echo an id that could not be recovered from a malformed
// request.
type ID struct {
	kind idKind
	i    int64
	s    string
}

// NullID returns an ID that marshals as JSON null.
func NullID() *ID {
	return &ID{kind: idNull}
}

// IntID returns an integer-valued ID.
func IntID(v int64) *ID {
	return &ID{kind: idInt, i: v}
}

// StringID returns a string-valued ID.
func StringID(v string) *ID {
	return &ID{kind: idString, s: v}
}

// IsNull reports whether the id is the explicit JSON null value. It also
// reports true for an absent (nil) id.
func (id *ID) IsNull() bool {
	return id == nil || id.kind == idNull
}

// IntValue returns the integer value and true if id holds an integer.
func (id *ID) IntValue() (int64, bool) {
	if id == nil || id.kind != idInt {
		return 0, false
	}
	return id.i, true
}

// StringValue returns the string value and true if id holds a string.
func (id *ID) StringValue() (string, bool) {
	if id == nil || id.kind != idString {
		return "", false
	}
	return id.s, true
}

// Equal reports whether two ids are the same value. Absent (nil) ids are
// only equal to other absent ids; the int and string domains never compare
// equal to each other.
func (id *ID) Equal(other *ID) bool {
	if id == nil || other == nil {
		return id == nil && other == nil
	}
	if id.kind != other.kind {
		return false
	}
	switch id.kind {
	case idInt:
		return id.i == other.i
	case idString:
		return id.s == other.s
	default:
		return true
	}
}

// key returns a comparable value suitable for use as a map key, used by the
// client's pending-request table.
func (id *ID) key() idKey {
	if id == nil {
		return idKey{kind: -1}
	}
	return idKey{kind: id.kind, i: id.i, s: id.s}
}

// Key returns a comparable value suitable for indexing a map keyed by id,
// exposed for callers (such as the client's pending-request table) outside
// this package that cannot compare *ID pointers directly.
func (id *ID) Key() any {
	return id.key()
}

type idKey struct {
	kind idKind
	i    int64
	s    string
}

// String renders the id for logging. It never panics on a nil receiver.
func (id *ID) String() string {
	switch {
	case id == nil:
		return "<absent>"
	case id.kind == idNull:
		return "null"
	case id.kind == idInt:
		return strconv.FormatInt(id.i, 10)
	default:
		return id.s
	}
}

// MarshalJSON implements json.Marshaler.
func (id *ID) MarshalJSON() ([]byte, error) {
	if id == nil {
		return []byte("null"), nil
	}
	switch id.kind {
	case idNull:
		return []byte("null"), nil
	case idInt:
		return []byte(strconv.FormatInt(id.i, 10)), nil
	case idString:
		return json.Marshal(id.s)
	default:
		return nil, fmt.Errorf("message: unknown id kind %d", id.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler. It accepts a JSON number,
// string, or null; any other shape is an error the caller should surface
// as InvalidRequest.
func (id *ID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		id.kind = idNull
	case string:
		id.kind = idString
		id.s = v
	case float64:
		id.kind = idInt
		id.i = int64(v)
	default:
		return fmt.Errorf("message: id must be a string, number, or null, got %T", raw)
	}
	return nil
}
