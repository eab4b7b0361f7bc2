// Package schema provides the attribute catalog consumed by the rule
// compiler and the typed record values consumed by the plan evaluator.
//
// The catalog is closed: every attribute of a record carries exactly one
// AttrType from the fixed set below. The compiler validates rules against a
// Schema (paths and types only); the evaluator reads concrete Values out of
// a Record. Nested records recurse through the same catalog.
package schema

import (
	"fmt"
	"strings"
)

// AttrType is one semantic type from the fixed attribute catalog.
type AttrType int

const (
	TypeInvalid AttrType = iota

	// Scalars.
	TypeBool
	TypeInt32
	TypeInt64
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString

	// Homogeneous lists of scalars.
	TypeListBool
	TypeListInt32
	TypeListInt64
	TypeListUint32
	TypeListUint64
	TypeListFloat32
	TypeListFloat64
	TypeListString

	// Homogeneous sets of scalars.
	TypeSetBool
	TypeSetInt32
	TypeSetInt64
	TypeSetUint32
	TypeSetUint64
	TypeSetFloat32
	TypeSetFloat64
	TypeSetString

	// Homogeneous maps; keys and values combine string/int64/float64.
	TypeMapStringString
	TypeMapStringInt
	TypeMapStringFloat
	TypeMapIntString
	TypeMapIntInt
	TypeMapIntFloat
	TypeMapFloatString
	TypeMapFloatInt
	TypeMapFloatFloat

	// Nested record.
	TypeRecord
)

// typeNames are the canonical textual names, used by schema files and
// fingerprints. List/set/map names follow the generic spelling so schema
// YAML reads naturally.
var typeNames = map[AttrType]string{
	TypeBool:            "bool",
	TypeInt32:           "int32",
	TypeInt64:           "int64",
	TypeUint32:          "uint32",
	TypeUint64:          "uint64",
	TypeFloat32:         "float32",
	TypeFloat64:         "float64",
	TypeString:          "string",
	TypeListBool:        "list<bool>",
	TypeListInt32:       "list<int32>",
	TypeListInt64:       "list<int64>",
	TypeListUint32:      "list<uint32>",
	TypeListUint64:      "list<uint64>",
	TypeListFloat32:     "list<float32>",
	TypeListFloat64:     "list<float64>",
	TypeListString:      "list<string>",
	TypeSetBool:         "set<bool>",
	TypeSetInt32:        "set<int32>",
	TypeSetInt64:        "set<int64>",
	TypeSetUint32:       "set<uint32>",
	TypeSetUint64:       "set<uint64>",
	TypeSetFloat32:      "set<float32>",
	TypeSetFloat64:      "set<float64>",
	TypeSetString:       "set<string>",
	TypeMapStringString: "map<string,string>",
	TypeMapStringInt:    "map<string,int64>",
	TypeMapStringFloat:  "map<string,float64>",
	TypeMapIntString:    "map<int64,string>",
	TypeMapIntInt:       "map<int64,int64>",
	TypeMapIntFloat:     "map<int64,float64>",
	TypeMapFloatString:  "map<float64,string>",
	TypeMapFloatInt:     "map<float64,int64>",
	TypeMapFloatFloat:   "map<float64,float64>",
	TypeRecord:          "record",
}

// String returns the canonical type name.
func (t AttrType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// ParseType resolves a canonical type name to an AttrType.
func ParseType(name string) (AttrType, error) {
	for t, n := range typeNames {
		if n == strings.TrimSpace(name) {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("unknown attribute type %q", name)
}

// IsScalar reports whether t is a scalar catalog type.
func (t AttrType) IsScalar() bool {
	return t >= TypeBool && t <= TypeString
}

// IsList reports whether t is a list type.
func (t AttrType) IsList() bool {
	return t >= TypeListBool && t <= TypeListString
}

// IsSet reports whether t is a set type.
func (t AttrType) IsSet() bool {
	return t >= TypeSetBool && t <= TypeSetString
}

// IsMap reports whether t is a map type.
func (t AttrType) IsMap() bool {
	return t >= TypeMapStringString && t <= TypeMapFloatFloat
}

// IsCollection reports whether t is a list, set, or map.
func (t AttrType) IsCollection() bool {
	return t.IsList() || t.IsSet() || t.IsMap()
}

// IsNumeric reports whether t is a numeric scalar.
func (t AttrType) IsNumeric() bool {
	return t >= TypeInt32 && t <= TypeFloat64
}

// IsSigned reports whether t is a signed integer scalar.
func (t AttrType) IsSigned() bool {
	return t == TypeInt32 || t == TypeInt64
}

// IsUnsigned reports whether t is an unsigned integer scalar.
func (t AttrType) IsUnsigned() bool {
	return t == TypeUint32 || t == TypeUint64
}

// IsInteger reports whether t is any integer scalar.
func (t AttrType) IsInteger() bool {
	return t.IsSigned() || t.IsUnsigned()
}

// IsFloat reports whether t is a floating-point scalar.
func (t AttrType) IsFloat() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Elem returns the element type of a list or set, or TypeInvalid.
func (t AttrType) Elem() AttrType {
	switch {
	case t.IsList():
		return TypeBool + (t - TypeListBool)
	case t.IsSet():
		return TypeBool + (t - TypeSetBool)
	default:
		return TypeInvalid
	}
}

// Key returns the key type of a map, or TypeInvalid.
func (t AttrType) Key() AttrType {
	switch t {
	case TypeMapStringString, TypeMapStringInt, TypeMapStringFloat:
		return TypeString
	case TypeMapIntString, TypeMapIntInt, TypeMapIntFloat:
		return TypeInt64
	case TypeMapFloatString, TypeMapFloatInt, TypeMapFloatFloat:
		return TypeFloat64
	default:
		return TypeInvalid
	}
}

// Value returns the value type of a map, or TypeInvalid.
func (t AttrType) Value() AttrType {
	switch t {
	case TypeMapStringString, TypeMapIntString, TypeMapFloatString:
		return TypeString
	case TypeMapStringInt, TypeMapIntInt, TypeMapFloatInt:
		return TypeInt64
	case TypeMapStringFloat, TypeMapIntFloat, TypeMapFloatFloat:
		return TypeFloat64
	default:
		return TypeInvalid
	}
}
