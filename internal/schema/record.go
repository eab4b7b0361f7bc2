package schema

import (
	"strings"
)

// Record is a concrete, typed record instance.
// Top-level records are bound to the Schema that produced them; nested
// records inherit the binding through their parent.
type Record struct {
	sch    *Schema
	fields map[string]Value
}

// NewRecord creates an empty record bound to sch.
// Nested records are created with a nil schema; only the top-level record
// needs the binding (the evaluator reads the fingerprint from it).
func NewRecord(sch *Schema) *Record {
	return &Record{sch: sch, fields: make(map[string]Value)}
}

// Schema returns the schema the record is bound to, nil for nested records.
func (r *Record) Schema() *Schema {
	return r.sch
}

// Set stores a field value under a plain (undotted) name.
func (r *Record) Set(name string, v Value) {
	r.fields[name] = v
}

// Get resolves a possibly dotted attribute path, descending through nested
// records. The second return is false when any path component is absent or
// a non-record value is reached before the final component.
func (r *Record) Get(path string) (Value, bool) {
	cur := r
	for {
		head, rest, nested := strings.Cut(path, ".")
		v, ok := cur.fields[head]
		if !ok {
			return Value{}, false
		}
		if !nested {
			return v, true
		}
		if v.Type != TypeRecord || v.Rec == nil {
			return Value{}, false
		}
		cur = v.Rec
		path = rest
	}
}
