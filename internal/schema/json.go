package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
 * JSON ingestion.
 *
 * Builds a typed Record from a JSON document guided by a Schema. This is
 * the boundary between the schema-less outside world and the typed catalog:
 * every attribute the schema declares must be present and representable in
 * the declared type, otherwise ingestion fails with the offending path.
 *
 * json.Number decoding keeps 64-bit integers exact; a float64 detour would
 * corrupt uint64/int64 attributes above 2^53.
 *
 * Map keys arrive as JSON object keys (always strings) and are re-parsed
 * per the map's key type, then stored under canonical key text. "5.280" and
 * "5.28" land on the same entry.
 */

// RecordFromJSON builds a typed record from a JSON object per the schema.
func RecordFromJSON(sch *Schema, data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid record JSON: %w", err)
	}
	rec := NewRecord(sch)
	if err := fillRecord(rec, sch.attrs, "", raw); err != nil {
		return nil, err
	}
	return rec, nil
}

// fillRecord populates one record level from a decoded JSON object.
// Nested records recurse with an extended path prefix.
func fillRecord(rec *Record, attrs map[string]AttrType, prefix string, obj map[string]any) error {
	for path, t := range attrs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		name := path[len(prefix):]
		if strings.Contains(name, ".") {
			// Deeper level, handled when its record parent recurses.
			continue
		}
		raw, ok := obj[name]
		if !ok {
			return fmt.Errorf("record is missing attribute %q", path)
		}
		if t == TypeRecord {
			childObj, ok := raw.(map[string]any)
			if !ok {
				return fmt.Errorf("attribute %q is not a JSON object", path)
			}
			child := NewRecord(nil)
			if err := fillRecord(child, attrs, path+".", childObj); err != nil {
				return err
			}
			rec.Set(name, RecordValue(child))
			continue
		}
		v, err := valueFromJSON(t, raw)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", path, err)
		}
		rec.Set(name, v)
	}
	return nil
}

// valueFromJSON converts one decoded JSON value into a typed Value.
func valueFromJSON(t AttrType, raw any) (Value, error) {
	switch {
	case t.IsScalar():
		return scalarFromJSON(t, raw)

	case t.IsList(), t.IsSet():
		arr, ok := raw.([]any)
		if !ok {
			return Value{}, fmt.Errorf("expected JSON array for %s", t)
		}
		elems := make([]Value, 0, len(arr))
		for i, e := range arr {
			v, err := scalarFromJSON(t.Elem(), e)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			elems = append(elems, v)
		}
		if t.IsSet() {
			return SetValue(t, elems...), nil
		}
		return ListValue(t, elems...), nil

	case t.IsMap():
		obj, ok := raw.(map[string]any)
		if !ok {
			return Value{}, fmt.Errorf("expected JSON object for %s", t)
		}
		m := MapValue(t)
		for k, e := range obj {
			key, err := mapKeyFromText(t.Key(), k)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			val, err := scalarFromJSON(t.Value(), e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			m.Put(key, val)
		}
		return m, nil

	default:
		return Value{}, fmt.Errorf("unsupported attribute type %s", t)
	}
}

// scalarFromJSON converts one decoded JSON scalar into a typed Value,
// range-checking integers against the declared width.
func scalarFromJSON(t AttrType, raw any) (Value, error) {
	switch t {
	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected boolean")
		}
		return BoolValue(b), nil

	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string")
		}
		return StringValue(s), nil

	case TypeInt32, TypeInt64:
		n, ok := raw.(json.Number)
		if !ok {
			return Value{}, fmt.Errorf("expected integer")
		}
		i, err := strconv.ParseInt(n.String(), 10, bitsOf(t))
		if err != nil {
			return Value{}, fmt.Errorf("expected %s, got %s", t, n)
		}
		return Value{Type: t, Int: i}, nil

	case TypeUint32, TypeUint64:
		n, ok := raw.(json.Number)
		if !ok {
			return Value{}, fmt.Errorf("expected unsigned integer")
		}
		u, err := strconv.ParseUint(n.String(), 10, bitsOf(t))
		if err != nil {
			return Value{}, fmt.Errorf("expected %s, got %s", t, n)
		}
		return Value{Type: t, Uint: u}, nil

	case TypeFloat32, TypeFloat64:
		n, ok := raw.(json.Number)
		if !ok {
			return Value{}, fmt.Errorf("expected number")
		}
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return Value{}, fmt.Errorf("expected %s, got %s", t, n)
		}
		if t == TypeFloat32 {
			f = float64(float32(f))
			if math.IsInf(f, 0) {
				return Value{}, fmt.Errorf("value overflows float32")
			}
		}
		return Value{Type: t, Float: f}, nil

	default:
		return Value{}, fmt.Errorf("expected scalar, schema says %s", t)
	}
}

// mapKeyFromText parses a JSON object key into a typed map key scalar.
func mapKeyFromText(keyType AttrType, text string) (Value, error) {
	switch keyType {
	case TypeString:
		return StringValue(text), nil
	case TypeInt64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("expected integer key")
		}
		return Int64Value(i), nil
	case TypeFloat64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("expected float key")
		}
		return Float64Value(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported map key type %s", keyType)
	}
}

// bitsOf returns the integer bit width for ParseInt/ParseUint.
func bitsOf(t AttrType) int {
	if t == TypeInt32 || t == TypeUint32 {
		return 32
	}
	return 64
}
