package rules

import (
	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

/*
 * Operator tables.
 *
 * Seventeen comparison/membership/string/arithmetic verbs plus the logical
 * operators. Tokens are matched longest-first so "<=" wins over "<" and
 * "notContains" over "not...". Word verbs additionally require a
 * non-identifier boundary so "containsX" never matches "contains".
 *
 * Compatibility is checked against the clause's effective type: the
 * declared attribute type, or the element/value type once a subscript has
 * been applied. One outcome code per operator family keeps the error
 * taxonomy aligned with the compatibility table.
 */

// Operator is one comparison, membership, string, or arithmetic verb.
type Operator int

const (
	OpNone Operator = iota
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpContains
	OpNotContains
	OpStartsWith
	OpNotStartsWith
	OpEndsWith
	OpNotEndsWith
)

// opTokens lists verbs in match order: longest token first within each
// shared prefix.
var opTokens = []struct {
	text string
	op   Operator
	word bool // word verbs need an identifier boundary after the token
}{
	{"==", OpEq, false},
	{"!=", OpNeq, false},
	{"<=", OpLte, false},
	{">=", OpGte, false},
	{"<", OpLt, false},
	{">", OpGt, false},
	{"+", OpAdd, false},
	{"-", OpSub, false},
	{"*", OpMul, false},
	{"/", OpDiv, false},
	{"%", OpMod, false},
	{"notContains", OpNotContains, true},
	{"notStartsWith", OpNotStartsWith, true},
	{"notEndsWith", OpNotEndsWith, true},
	{"contains", OpContains, true},
	{"startsWith", OpStartsWith, true},
	{"endsWith", OpEndsWith, true},
}

// opNames maps verbs back to rule-text spelling for diagnostics.
var opNames = map[Operator]string{
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpContains: "contains", OpNotContains: "notContains",
	OpStartsWith: "startsWith", OpNotStartsWith: "notStartsWith",
	OpEndsWith: "endsWith", OpNotEndsWith: "notEndsWith",
}

// String returns the rule-text spelling of the verb.
func (op Operator) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "?"
}

// IsArithmetic reports whether the verb computes before comparing.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	default:
		return false
	}
}

// IsComparison reports whether the verb is a plain relational/equality verb.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return true
	default:
		return false
	}
}

// IsContainsFamily reports whether the verb tests membership/substring.
func (op Operator) IsContainsFamily() bool {
	return op == OpContains || op == OpNotContains
}

// IsStartsFamily reports whether the verb tests a prefix.
func (op Operator) IsStartsFamily() bool {
	return op == OpStartsWith || op == OpNotStartsWith
}

// IsEndsFamily reports whether the verb tests a suffix.
func (op Operator) IsEndsFamily() bool {
	return op == OpEndsWith || op == OpNotEndsWith
}

// isIdentChar reports whether c may appear inside an attribute name or
// word verb.
func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// matchOperator matches a verb token at s[pos:], returning the verb and its
// token length. Word verbs require the following character (if any) to be a
// non-identifier so partial words never match.
func matchOperator(s string, pos int) (Operator, int, bool) {
	rest := s[pos:]
	for _, tok := range opTokens {
		if len(rest) < len(tok.text) || rest[:len(tok.text)] != tok.text {
			continue
		}
		if tok.word && len(rest) > len(tok.text) && isIdentChar(rest[len(tok.text)]) {
			continue
		}
		return tok.op, len(tok.text), true
	}
	return OpNone, 0, false
}

// checkCompatibility validates verb against the clause's effective type and
// subscript, returning the family-specific outcome code on rejection.
//
// The table:
//   - equality: all scalars
//   - relational, arithmetic: numeric scalars only
//   - contains family: strings (substring), lists/sets (membership), maps
//     without an explicit subscript (key existence)
//   - startsWith/endsWith family: strings only
//
// Collections reached without a subscript only support the contains family;
// the grammar has no literal form for whole-collection comparison.
func checkCompatibility(op Operator, declared, effective schema.AttrType, sub Subscript) error {
	switch {
	case op.IsArithmetic():
		if !effective.IsNumeric() {
			return types.E(types.CodeArithmeticNotSupported,
				"operator %s requires a numeric attribute, got %s", op, effective)
		}
	case op == OpLt, op == OpLte, op == OpGt, op == OpGte:
		if !effective.IsNumeric() {
			return types.E(types.CodeRelationalNotSupported,
				"operator %s requires a numeric attribute, got %s", op, effective)
		}
	case op == OpEq, op == OpNeq:
		if !effective.IsScalar() {
			return types.E(types.CodeEqualityNotSupported,
				"operator %s requires a scalar attribute, got %s", op, effective)
		}
	case op.IsContainsFamily():
		if declared.IsMap() && sub.Present {
			return types.E(types.CodeContainsWithSubscript,
				"operator %s tests the key set; drop the [%s] subscript", op, sub.Key)
		}
		if effective != schema.TypeString && !effective.IsCollection() {
			return types.E(types.CodeContainsNotSupported,
				"operator %s requires a string or collection, got %s", op, effective)
		}
	case op.IsStartsFamily():
		if effective != schema.TypeString {
			return types.E(types.CodeStartsWithNotSupported,
				"operator %s requires a string value, got %s", op, effective)
		}
	case op.IsEndsFamily():
		if effective != schema.TypeString {
			return types.E(types.CodeEndsWithNotSupported,
				"operator %s requires a string value, got %s", op, effective)
		}
	default:
		return types.E(types.CodeUnsupportedVerb, "operator %s cannot be compiled", op)
	}
	return nil
}
