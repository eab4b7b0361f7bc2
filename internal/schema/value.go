package schema

import (
	"strconv"
)

/*
 * Typed values.
 *
 * Value is a closed tagged union with one variant per catalog type. One
 * struct with a Type discriminator replaces a per-type interface hierarchy;
 * the evaluator dispatches on Type and reads the matching payload field.
 *
 * Integer payloads are widened to int64/uint64 and floats to float64 at
 * construction; the declared AttrType preserves the original width for
 * literal validation (e.g. '-' rejected against uint32).
 *
 * Map entries are keyed by canonical decimal key text, never by the raw
 * numeric key. Float keys in particular must round-trip through canonical
 * text: comparing raw binary floats produces false negatives at large
 * magnitudes where the parsed literal and the stored key differ in the low
 * bits.
 */

// Value is one concrete attribute value from a record.
// Exactly one payload field is meaningful, selected by Type.
type Value struct {
	Type    AttrType
	Bool    bool
	Int     int64
	Uint    uint64
	Float   float64
	Str     string
	Elems   []Value          // lists and sets
	Entries map[string]Value // maps, keyed by canonical key text
	Rec     *Record          // nested record
}

// BoolValue constructs a boolean value.
func BoolValue(b bool) Value { return Value{Type: TypeBool, Bool: b} }

// Int32Value constructs an int32 value.
func Int32Value(i int32) Value { return Value{Type: TypeInt32, Int: int64(i)} }

// Int64Value constructs an int64 value.
func Int64Value(i int64) Value { return Value{Type: TypeInt64, Int: i} }

// Uint32Value constructs a uint32 value.
func Uint32Value(u uint32) Value { return Value{Type: TypeUint32, Uint: uint64(u)} }

// Uint64Value constructs a uint64 value.
func Uint64Value(u uint64) Value { return Value{Type: TypeUint64, Uint: u} }

// Float32Value constructs a float32 value.
func Float32Value(f float32) Value { return Value{Type: TypeFloat32, Float: float64(f)} }

// Float64Value constructs a float64 value.
func Float64Value(f float64) Value { return Value{Type: TypeFloat64, Float: f} }

// StringValue constructs a string value.
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }

// ListValue constructs a list of the given list type.
func ListValue(t AttrType, elems ...Value) Value {
	return Value{Type: t, Elems: elems}
}

// SetValue constructs a set of the given set type.
// Elements are deduplicated by scalar identity.
func SetValue(t AttrType, elems ...Value) Value {
	seen := make(map[string]struct{}, len(elems))
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		k := e.scalarKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return Value{Type: t, Elems: out}
}

// MapValue constructs an empty map of the given map type.
// Populate with Put to guarantee canonical key text.
func MapValue(t AttrType) Value {
	return Value{Type: t, Entries: make(map[string]Value)}
}

// RecordValue wraps a nested record.
func RecordValue(r *Record) Value { return Value{Type: TypeRecord, Rec: r} }

// Put inserts a map entry under the canonical text of key.
// Key must be a scalar of the map's key type.
func (v *Value) Put(key Value, val Value) {
	if v.Entries == nil {
		v.Entries = make(map[string]Value)
	}
	v.Entries[key.scalarKey()] = val
}

// Lookup fetches a map entry by canonical key text.
func (v Value) Lookup(key string) (Value, bool) {
	val, ok := v.Entries[key]
	return val, ok
}

// scalarKey renders a scalar as canonical text, used for map keys and set
// identity. Floats use the shortest decimal form without an exponent so the
// same mathematical key always yields the same text.
func (v Value) scalarKey() string {
	switch {
	case v.Type == TypeBool:
		return strconv.FormatBool(v.Bool)
	case v.Type.IsSigned():
		return strconv.FormatInt(v.Int, 10)
	case v.Type.IsUnsigned():
		return strconv.FormatUint(v.Uint, 10)
	case v.Type.IsFloat():
		return CanonicalFloatKey(v.Float)
	default:
		return v.Str
	}
}

// CanonicalFloatKey renders a float map key as canonical decimal text.
// 'f' formatting avoids exponent notation; -1 precision picks the shortest
// representation that round-trips.
func CanonicalFloatKey(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CanonicalIntKey renders an integer map key as canonical decimal text.
func CanonicalIntKey(i int64) string {
	return strconv.FormatInt(i, 10)
}

// sameScalar compares two scalar values of compatible numeric/string/bool
// kinds. Used for set and list membership.
func sameScalar(a, b Value) bool {
	switch {
	case a.Type == TypeBool && b.Type == TypeBool:
		return a.Bool == b.Bool
	case a.Type.IsSigned() && b.Type.IsSigned():
		return a.Int == b.Int
	case a.Type.IsUnsigned() && b.Type.IsUnsigned():
		return a.Uint == b.Uint
	case a.Type.IsFloat() && b.Type.IsFloat():
		return a.Float == b.Float
	case a.Type == TypeString && b.Type == TypeString:
		return a.Str == b.Str
	default:
		return false
	}
}

// ContainsElem reports whether a list or set value contains the scalar elem.
func (v Value) ContainsElem(elem Value) bool {
	for _, e := range v.Elems {
		if sameScalar(e, elem) {
			return true
		}
	}
	return false
}
