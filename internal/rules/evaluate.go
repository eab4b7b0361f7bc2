package rules

import (
	"math"
	"strings"

	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

/*
 * Plan evaluation.
 *
 * Walks a compiled Plan against one typed record and folds clause results
 * into a single boolean. Groups evaluate in ascending sequence order;
 * clauses left to right within their group.
 *
 * Dispatch per clause lands in one of three families:
 *   - string: equality, substring, prefix, suffix and their negations
 *   - collection existence: contains/notContains against a list/set
 *     element or a map key, no subscript involved
 *   - relational/arithmetic: numeric comparison, optionally preceded by
 *     the clause's embedded arithmetic step
 *
 * Short-circuit semantics: an AND chain stops at the first false clause,
 * an OR chain at the first true one. A later clause's runtime error (bad
 * index, absent key, divide by zero) never surfaces once the chain has
 * been decided. Inter-group operators are homogeneous, so the same
 * short-circuit applies across groups.
 *
 * Arithmetic runs in the attribute's native domain: signed, unsigned, or
 * float. Integer '%' is native remainder, float '%' is math.Mod. Division
 * or remainder by zero is a hard error in every domain.
 */

// Evaluate runs the plan against a record and returns the folded boolean.
// Any error aborts immediately; the boolean is meaningless unless the
// error is nil.
func Evaluate(plan *Plan, rec *schema.Record) (bool, error) {
	if len(plan.Groups) == 0 {
		return false, types.E(types.CodeEmptyExpression, "plan has no groups")
	}

	result, err := evalGroup(plan.Groups[0], rec)
	if err != nil {
		return false, err
	}
	for i, op := range plan.GroupOps {
		// Homogeneous operators make cross-group short-circuit safe.
		if op == LogicalAnd && !result {
			return false, nil
		}
		if op == LogicalOr && result {
			return true, nil
		}
		next, err := evalGroup(plan.Groups[i+1], rec)
		if err != nil {
			return false, err
		}
		if op == LogicalAnd {
			result = result && next
		} else {
			result = result || next
		}
	}
	return result, nil
}

// evalGroup folds one group's clauses under its logical operator,
// short-circuiting as soon as the outcome is decided.
func evalGroup(group Group, rec *schema.Record) (bool, error) {
	for i, clause := range group.Clauses {
		matched, err := evalClause(clause, rec)
		if err != nil {
			return false, err
		}
		switch {
		case group.Op == LogicalOr && matched:
			return true, nil
		case group.Op == LogicalOr:
			if i == len(group.Clauses)-1 {
				return false, nil
			}
		case !matched:
			// AND chain (or single clause) decided false.
			return false, nil
		}
	}
	return true, nil
}

// evalClause resolves the clause's attribute value, applies the subscript,
// and dispatches into the matching operator family.
func evalClause(clause Clause, rec *schema.Record) (bool, error) {
	value, ok := rec.Get(clause.Path)
	if !ok {
		return false, types.E(types.CodeUnknownAttribute,
			"record has no attribute %q", clause.Path)
	}

	if clause.Subscript.Present {
		var err error
		value, err = applySubscript(clause, value)
		if err != nil {
			return false, err
		}
	}

	op := clause.Op
	switch {
	case clause.Arith.Present:
		return evalArithmetic(clause, value)

	case op.IsContainsFamily() && clause.Effective.IsCollection():
		return evalMembership(clause, value)

	case clause.Effective == schema.TypeString:
		return evalString(op, value.Str, clause.RHS.Str)

	case clause.Effective == schema.TypeBool:
		switch op {
		case OpEq:
			return value.Bool == clause.RHS.Bool, nil
		case OpNeq:
			return value.Bool != clause.RHS.Bool, nil
		}
		return false, types.E(types.CodeUnsupportedVerb,
			"verb %s reached the evaluator for a boolean attribute", op)

	case clause.Effective.IsNumeric() && op.IsComparison():
		return compareNumeric(clause.Effective, value, op, clause.RHS)

	default:
		return false, types.E(types.CodeUnsupportedVerb,
			"verb %s reached the evaluator for type %s", op, clause.Effective)
	}
}

// applySubscript narrows a list or map value to one element.
func applySubscript(clause Clause, value schema.Value) (schema.Value, error) {
	sub := clause.Subscript
	if sub.IsKey {
		// Canonical key text comparison sidesteps binary float precision
		// loss on large-magnitude keys.
		elem, ok := value.Lookup(sub.Key)
		if !ok {
			return schema.Value{}, types.E(types.CodeMapKeyNotFound,
				"attribute %q has no key %s", clause.Path, sub.Key)
		}
		return elem, nil
	}
	if sub.Index < 0 || sub.Index >= len(value.Elems) {
		return schema.Value{}, types.E(types.CodeIndexOutOfRange,
			"index %d out of range for attribute %q (len %d)",
			sub.Index, clause.Path, len(value.Elems))
	}
	return value.Elems[sub.Index], nil
}

// evalString covers the string family.
func evalString(op Operator, lhs, rhs string) (bool, error) {
	switch op {
	case OpEq:
		return lhs == rhs, nil
	case OpNeq:
		return lhs != rhs, nil
	case OpContains:
		return strings.Contains(lhs, rhs), nil
	case OpNotContains:
		return !strings.Contains(lhs, rhs), nil
	case OpStartsWith:
		return strings.HasPrefix(lhs, rhs), nil
	case OpNotStartsWith:
		return !strings.HasPrefix(lhs, rhs), nil
	case OpEndsWith:
		// A suffix longer than the subject never matches.
		return strings.HasSuffix(lhs, rhs), nil
	case OpNotEndsWith:
		return !strings.HasSuffix(lhs, rhs), nil
	default:
		return false, types.E(types.CodeUnsupportedVerb,
			"verb %s reached the evaluator for a string attribute", op)
	}
}

// evalMembership covers contains/notContains against a whole collection:
// element membership for lists and sets, key existence for maps.
func evalMembership(clause Clause, value schema.Value) (bool, error) {
	var present bool
	switch {
	case clause.Type.IsMap():
		_, present = value.Lookup(canonicalKeyText(clause.RHS))
	default:
		present = value.ContainsElem(literalValue(clause.RHS))
	}
	if clause.Op == OpNotContains {
		return !present, nil
	}
	return present, nil
}

// literalValue converts a parsed literal into a typed record value for
// membership comparison.
func literalValue(lit Literal) schema.Value {
	v := schema.Value{Type: lit.Kind}
	switch {
	case lit.Kind == schema.TypeBool:
		v.Bool = lit.Bool
	case lit.Kind.IsSigned():
		v.Int = lit.Int
	case lit.Kind.IsUnsigned():
		v.Uint = lit.Uint
	case lit.Kind.IsFloat():
		v.Float = lit.Float
	default:
		v.Str = lit.Str
	}
	return v
}

// evalArithmetic computes "lhs OP operand" in the attribute's native
// domain, then compares the intermediate result with the stored
// post-arithmetic verb.
func evalArithmetic(clause Clause, value schema.Value) (bool, error) {
	kind := clause.Effective
	if !kind.IsNumeric() {
		return false, types.E(types.CodeBadArithEncoding,
			"arithmetic clause on non-numeric type %s", kind)
	}
	operand := clause.Arith.Operand

	switch {
	case kind.IsFloat():
		intermediate, err := arithFloat(value.Float, clause.Op, operand.Float)
		if err != nil {
			return false, err
		}
		return compareNumeric(kind, schema.Value{Type: kind, Float: intermediate},
			clause.Arith.Compare, clause.RHS)

	case kind.IsUnsigned():
		intermediate, err := arithUint(value.Uint, clause.Op, operand.Uint)
		if err != nil {
			return false, err
		}
		return compareNumeric(kind, schema.Value{Type: kind, Uint: intermediate},
			clause.Arith.Compare, clause.RHS)

	default:
		intermediate, err := arithInt(value.Int, clause.Op, operand.Int)
		if err != nil {
			return false, err
		}
		return compareNumeric(kind, schema.Value{Type: kind, Int: intermediate},
			clause.Arith.Compare, clause.RHS)
	}
}

// arithInt applies one arithmetic verb in the signed domain.
func arithInt(lhs int64, op Operator, operand int64) (int64, error) {
	switch op {
	case OpAdd:
		return lhs + operand, nil
	case OpSub:
		return lhs - operand, nil
	case OpMul:
		return lhs * operand, nil
	case OpDiv:
		if operand == 0 {
			return 0, types.E(types.CodeDivideByZero, "division by zero")
		}
		return lhs / operand, nil
	case OpMod:
		if operand == 0 {
			return 0, types.E(types.CodeDivideByZero, "remainder by zero")
		}
		return lhs % operand, nil
	default:
		return 0, types.E(types.CodeBadArithEncoding, "verb %s is not arithmetic", op)
	}
}

// arithUint applies one arithmetic verb in the unsigned domain.
// Subtraction below zero wraps, matching native unsigned semantics.
func arithUint(lhs uint64, op Operator, operand uint64) (uint64, error) {
	switch op {
	case OpAdd:
		return lhs + operand, nil
	case OpSub:
		return lhs - operand, nil
	case OpMul:
		return lhs * operand, nil
	case OpDiv:
		if operand == 0 {
			return 0, types.E(types.CodeDivideByZero, "division by zero")
		}
		return lhs / operand, nil
	case OpMod:
		if operand == 0 {
			return 0, types.E(types.CodeDivideByZero, "remainder by zero")
		}
		return lhs % operand, nil
	default:
		return 0, types.E(types.CodeBadArithEncoding, "verb %s is not arithmetic", op)
	}
}

// arithFloat applies one arithmetic verb in the float domain.
func arithFloat(lhs float64, op Operator, operand float64) (float64, error) {
	switch op {
	case OpAdd:
		return lhs + operand, nil
	case OpSub:
		return lhs - operand, nil
	case OpMul:
		return lhs * operand, nil
	case OpDiv:
		if operand == 0 {
			return 0, types.E(types.CodeDivideByZero, "division by zero")
		}
		return lhs / operand, nil
	case OpMod:
		if operand == 0 {
			return 0, types.E(types.CodeDivideByZero, "remainder by zero")
		}
		return math.Mod(lhs, operand), nil
	default:
		return 0, types.E(types.CodeBadArithEncoding, "verb %s is not arithmetic", op)
	}
}

// compareNumeric performs the relational comparison in the attribute's
// native domain.
func compareNumeric(kind schema.AttrType, lhs schema.Value, op Operator, rhs Literal) (bool, error) {
	var cmp int
	switch {
	case kind.IsFloat():
		cmp = cmpFloat(lhs.Float, rhs.Float)
	case kind.IsUnsigned():
		cmp = cmpUint(lhs.Uint, rhs.Uint)
	default:
		cmp = cmpInt(lhs.Int, rhs.Int)
	}
	switch op {
	case OpEq:
		return cmp == 0, nil
	case OpNeq:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	default:
		return false, types.E(types.CodeUnsupportedVerb,
			"verb %s reached the numeric comparator", op)
	}
}

// cmpInt is a three-way signed comparison.
func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpUint is a three-way unsigned comparison.
func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpFloat is a three-way float comparison. NaN compares unequal to
// everything, collapsing to 1 so relational verbs stay total.
func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	default:
		return 1
	}
}
