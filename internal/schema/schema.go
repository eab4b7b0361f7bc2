package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/solatis/rulegate/internal/types"
)

/*
 * Attribute schemas and fingerprints.
 *
 * A Schema maps every dotted attribute path of a record shape to its
 * catalog type. Paths are flattened: a nested record contributes its own
 * path with TypeRecord plus one path per nested attribute.
 *
 * The fingerprint is the SHA-256 of the sorted "path=type" lines. Sorting
 * makes equality order-independent: two schemas with the same attributes
 * declared in any order fingerprint identically. Cached plans store the
 * fingerprint and refuse to run against records from a different shape.
 */

// Schema describes the attribute structure of one record shape.
// Immutable after construction.
type Schema struct {
	attrs       map[string]AttrType
	fingerprint string
}

// New builds a schema from dotted attribute paths.
// Nested record attributes are declared by their full dotted path; the
// containing record path itself must be declared with TypeRecord.
func New(attrs map[string]AttrType) (*Schema, error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("schema has no attributes")
	}
	copied := make(map[string]AttrType, len(attrs))
	for path, t := range attrs {
		if path == "" {
			return nil, fmt.Errorf("empty attribute path")
		}
		if strings.Count(path, ".")+1 > types.MaxAttributePathDepth {
			return nil, fmt.Errorf("attribute %q exceeds maximum nesting depth %d",
				path, types.MaxAttributePathDepth)
		}
		if _, ok := typeNames[t]; !ok {
			return nil, fmt.Errorf("attribute %q has invalid type", path)
		}
		if dot := strings.LastIndex(path, "."); dot >= 0 {
			parent := path[:dot]
			if attrs[parent] != TypeRecord {
				return nil, fmt.Errorf("attribute %q requires parent %q of type record", path, parent)
			}
		}
		copied[path] = t
	}
	return &Schema{
		attrs:       copied,
		fingerprint: fingerprintOf(copied),
	}, nil
}

// fingerprintOf computes the canonical schema identity.
// SHA-256 over sorted "path=type" lines; order-independent by construction.
func fingerprintOf(attrs map[string]AttrType) string {
	lines := make([]string, 0, len(attrs))
	for path, t := range attrs {
		lines = append(lines, path+"="+t.String())
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns the canonical identity of the schema.
func (s *Schema) Fingerprint() string {
	return s.fingerprint
}

// Attributes returns every dotted attribute path and its type.
// The returned map is a copy; mutating it does not affect the schema.
func (s *Schema) Attributes() map[string]AttrType {
	out := make(map[string]AttrType, len(s.attrs))
	for path, t := range s.attrs {
		out[path] = t
	}
	return out
}

// TypeOf returns the declared type for a dotted path.
func (s *Schema) TypeOf(path string) (AttrType, bool) {
	t, ok := s.attrs[path]
	return t, ok
}

// Len returns the number of declared attributes.
func (s *Schema) Len() int {
	return len(s.attrs)
}
