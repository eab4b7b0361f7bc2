// Package rules implements the filter rule compiler, plan cache, and plan
// evaluator. A rule string is validated against an attribute schema in a
// single pass and compiled into an immutable Plan; plans are cached per
// worker and replayed against typed records.
package rules

import (
	"github.com/solatis/rulegate/internal/schema"
)

/*
 * Compiled plan model.
 *
 * A Plan is the reusable product of one successful compile: ordered groups
 * of clauses plus the homogeneous logical operators joining the groups. A
 * clause is one atomic test; a group is a run of clauses sharing a single
 * logical operator (one parenthesis pair, or the whole rule when no
 * parentheses are used).
 *
 * Plans are immutable after Compile returns. The schema fingerprint pins
 * the plan to the record shape it was validated against; the cache refuses
 * to replay it against any other shape.
 */

// LogicalOp joins clauses within a group and groups within a plan.
type LogicalOp int

const (
	// LogicalNone marks a clause that ends its group.
	LogicalNone LogicalOp = iota
	// LogicalAnd is '&&'.
	LogicalAnd
	// LogicalOr is '||'.
	LogicalOr
)

// String returns the rule-text spelling of the operator.
func (op LogicalOp) String() string {
	switch op {
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	default:
		return ""
	}
}

// Subscript is an optional list index or map key attached to a clause LHS.
type Subscript struct {
	Present bool
	IsKey   bool   // true for map keys, false for list indices
	Index   int    // list index, non-negative
	Key     string // map key as canonical text
}

// Literal is one parsed right-hand-side or arithmetic-operand literal.
// Kind is always a scalar catalog type; the matching payload field holds
// the parsed value and Text preserves the raw token for diagnostics.
type Literal struct {
	Kind  schema.AttrType
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	Text  string
}

// Arith is the embedded arithmetic part of a clause, present only for
// arithmetic verbs: "lhs OP operand COMPARE rhs".
type Arith struct {
	Present bool
	Operand Literal
	Compare Operator // post-arithmetic comparison verb
}

// Clause is one atomic test.
type Clause struct {
	Path      string          // dotted attribute path
	Type      schema.AttrType // declared attribute type
	Effective schema.AttrType // type after applying the subscript
	Subscript Subscript
	Op        Operator
	Arith     Arith
	RHS       Literal
	Trailing  LogicalOp // operator after this clause, LogicalNone at group end
}

// Group is an ordered run of clauses sharing one logical operator.
type Group struct {
	// ID is the two-level sequence id assigned in encounter order, one
	// parent increment per completed clause run ("1.1", "2.1", ...).
	ID      string
	Op      LogicalOp // operator joining the clauses; LogicalNone for a single clause
	Clauses []Clause
}

// Plan is the compiled, cached representation of a validated rule.
type Plan struct {
	RuleText          string
	SchemaFingerprint string
	Groups            []Group
	// GroupOps joins consecutive groups; len(GroupOps) == len(Groups)-1
	// and all entries are equal under the single-level grouping rule.
	GroupOps []LogicalOp
}
