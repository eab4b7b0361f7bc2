package types

/*
 * Evaluation outcome codes.
 *
 * Every failure mode of the rule compiler, plan cache, and plan evaluator
 * maps to exactly one Code. Callers receive (bool, Code) pairs and must
 * inspect the code before trusting the boolean: a false result with a
 * non-zero code means "failed", not "did not match".
 *
 * Code families:
 *   - Structural: malformed rule text independent of any schema
 *   - LHS: attribute resolution and subscript failures
 *   - Compatibility: operator not valid for the resolved attribute type
 *   - Literal: right-hand side or arithmetic operand format failures
 *   - Plan: cache consistency failures
 *   - Runtime: failures that only surface against a concrete record
 *
 * Compilation codes abort before any plan is cached. Runtime codes abort
 * the current evaluation only; the cached plan stays valid.
 */

// Code identifies the outcome of a compile or evaluate call.
// CodeAllClear (zero value) is the only success code.
type Code int

const (
	// CodeAllClear indicates success; the boolean result is meaningful.
	CodeAllClear Code = iota

	// Structural codes.

	// CodeEmptyExpression indicates an empty or all-whitespace rule.
	CodeEmptyExpression

	// CodeInvalidCharacter indicates a non-printable or non-ASCII byte in the rule.
	CodeInvalidCharacter

	// CodeUnbalancedParens indicates '(' and ')' do not nest to zero depth.
	CodeUnbalancedParens

	// CodeUnbalancedBrackets indicates '[' and ']' do not nest to zero depth.
	CodeUnbalancedBrackets

	// CodeNestedParens indicates parenthesis depth exceeded one level.
	CodeNestedParens

	// CodeParenPlacement indicates a parenthesis in an illegal position,
	// e.g. '(' not directly before a left-hand side.
	CodeParenPlacement

	// CodeInconsistentParens indicates a rule that mixes parenthesized and
	// unparenthesized groups.
	CodeInconsistentParens

	// CodeLogicalOpSpacing indicates '&&' or '||' without exactly one space
	// on each side.
	CodeLogicalOpSpacing

	// CodeMixedLogicalInGroup indicates '&&' and '||' mixed inside one group.
	CodeMixedLogicalInGroup

	// CodeMixedLogicalBetweenGroups indicates '&&' and '||' mixed between groups.
	CodeMixedLogicalBetweenGroups

	// CodeDanglingLHS indicates the rule ended after an attribute with no operator.
	CodeDanglingLHS

	// CodeDanglingOperator indicates the rule ended after an operator with no
	// right-hand side.
	CodeDanglingOperator

	// CodeDanglingLogicalOp indicates the rule ended after '&&' or '||' with
	// no following clause.
	CodeDanglingLogicalOp

	// CodeDanglingParen indicates the rule ended inside an unclosed group.
	CodeDanglingParen

	// Left-hand side codes.

	// CodeUnknownAttribute indicates no catalog attribute matches at the
	// current position.
	CodeUnknownAttribute

	// CodeTruncatedAttribute indicates the rule ended in the middle of what
	// would otherwise be a valid attribute name.
	CodeTruncatedAttribute

	// CodeMissingSubscript indicates a list or map attribute used without a
	// required '[...]' subscript.
	CodeMissingSubscript

	// CodeBadListSubscript indicates a malformed list index subscript.
	CodeBadListSubscript

	// CodeBadMapSubscript indicates a malformed map key subscript.
	CodeBadMapSubscript

	// Operator compatibility codes.

	// CodeEqualityNotSupported indicates '==' or '!=' against a type that
	// does not support equality.
	CodeEqualityNotSupported

	// CodeRelationalNotSupported indicates '<', '<=', '>' or '>=' against a
	// non-numeric type.
	CodeRelationalNotSupported

	// CodeArithmeticNotSupported indicates '+', '-', '*', '/' or '%' against
	// a non-numeric type.
	CodeArithmeticNotSupported

	// CodeContainsNotSupported indicates 'contains'/'notContains' against a
	// type that is neither a string nor a collection.
	CodeContainsNotSupported

	// CodeContainsWithSubscript indicates 'contains'/'notContains' on a map
	// that already carries an explicit key subscript.
	CodeContainsWithSubscript

	// CodeStartsWithNotSupported indicates 'startsWith'/'notStartsWith'
	// against a non-string value.
	CodeStartsWithNotSupported

	// CodeEndsWithNotSupported indicates 'endsWith'/'notEndsWith' against a
	// non-string value.
	CodeEndsWithNotSupported

	// CodeBadArithOperand indicates a malformed embedded arithmetic operand,
	// including sign or decimal-point misuse for the attribute's type.
	CodeBadArithOperand

	// CodeMissingPostComparator indicates an arithmetic verb without the
	// mandatory trailing comparison verb.
	CodeMissingPostComparator

	// Right-hand side literal codes.

	// CodeBadBoolLiteral indicates a right-hand side that is not exactly
	// 'true' or 'false' for a boolean attribute.
	CodeBadBoolLiteral

	// CodeBadIntLiteral indicates a malformed integer literal, including a
	// '-' sign against an unsigned attribute.
	CodeBadIntLiteral

	// CodeBadFloatLiteral indicates a malformed float literal; floats carry
	// exactly one decimal point.
	CodeBadFloatLiteral

	// CodeBadStringLiteral indicates a string literal without matching open
	// and close quotes, or with trailing characters after the close quote.
	CodeBadStringLiteral

	// Plan and cache codes.

	// CodeSchemaMismatch indicates a cached plan replayed against a record
	// whose schema fingerprint differs from the plan's.
	CodeSchemaMismatch

	// CodePlanAllocFailed indicates plan or cache storage could not be allocated.
	CodePlanAllocFailed

	// CodePlanConflict indicates a duplicate insert for an already-cached rule.
	CodePlanConflict

	// Runtime codes.

	// CodeIndexOutOfRange indicates a list subscript outside the list bounds.
	CodeIndexOutOfRange

	// CodeMapKeyNotFound indicates a map subscript key absent from the map.
	CodeMapKeyNotFound

	// CodeDivideByZero indicates '/' or '%' with a zero operand.
	CodeDivideByZero

	// CodeBadArithEncoding indicates a clause whose embedded arithmetic
	// encoding is internally inconsistent. Unreachable after a successful
	// compile; kept as a defensive check.
	CodeBadArithEncoding

	// CodeUnsupportedVerb indicates an operator the evaluator cannot
	// dispatch. Unreachable after a successful compile; kept as a defensive
	// check.
	CodeUnsupportedVerb
)

// codeNames maps codes to stable identifiers for logs and CLI output.
var codeNames = map[Code]string{
	CodeAllClear:                  "ALL_CLEAR",
	CodeEmptyExpression:           "EMPTY_EXPRESSION",
	CodeInvalidCharacter:          "INVALID_CHARACTER",
	CodeUnbalancedParens:          "UNBALANCED_PARENTHESES",
	CodeUnbalancedBrackets:        "UNBALANCED_BRACKETS",
	CodeNestedParens:              "NESTED_PARENTHESES",
	CodeParenPlacement:            "PARENTHESIS_PLACEMENT",
	CodeInconsistentParens:        "INCONSISTENT_PARENTHESES",
	CodeLogicalOpSpacing:          "LOGICAL_OPERATOR_SPACING",
	CodeMixedLogicalInGroup:       "MIXED_LOGICAL_OPERATORS_IN_GROUP",
	CodeMixedLogicalBetweenGroups: "MIXED_LOGICAL_OPERATORS_BETWEEN_GROUPS",
	CodeDanglingLHS:               "UNPROCESSED_LHS",
	CodeDanglingOperator:          "UNPROCESSED_OPERATOR",
	CodeDanglingLogicalOp:         "UNPROCESSED_LOGICAL_OPERATOR",
	CodeDanglingParen:             "UNPROCESSED_PARENTHESIS",
	CodeUnknownAttribute:          "UNKNOWN_ATTRIBUTE",
	CodeTruncatedAttribute:        "TRUNCATED_ATTRIBUTE",
	CodeMissingSubscript:          "MISSING_SUBSCRIPT",
	CodeBadListSubscript:          "BAD_LIST_SUBSCRIPT",
	CodeBadMapSubscript:           "BAD_MAP_SUBSCRIPT",
	CodeEqualityNotSupported:      "EQUALITY_NOT_SUPPORTED",
	CodeRelationalNotSupported:    "RELATIONAL_NOT_SUPPORTED",
	CodeArithmeticNotSupported:    "ARITHMETIC_NOT_SUPPORTED",
	CodeContainsNotSupported:      "CONTAINS_NOT_SUPPORTED",
	CodeContainsWithSubscript:     "CONTAINS_WITH_SUBSCRIPT",
	CodeStartsWithNotSupported:    "STARTS_WITH_NOT_SUPPORTED",
	CodeEndsWithNotSupported:      "ENDS_WITH_NOT_SUPPORTED",
	CodeBadArithOperand:           "BAD_ARITHMETIC_OPERAND",
	CodeMissingPostComparator:     "MISSING_POST_COMPARATOR",
	CodeBadBoolLiteral:            "BAD_BOOLEAN_LITERAL",
	CodeBadIntLiteral:             "BAD_INTEGER_LITERAL",
	CodeBadFloatLiteral:           "BAD_FLOAT_LITERAL",
	CodeBadStringLiteral:          "BAD_STRING_LITERAL",
	CodeSchemaMismatch:            "SCHEMA_MISMATCH",
	CodePlanAllocFailed:           "PLAN_ALLOCATION_FAILED",
	CodePlanConflict:              "PLAN_CONFLICT",
	CodeIndexOutOfRange:           "INDEX_OUT_OF_RANGE",
	CodeMapKeyNotFound:            "MAP_KEY_NOT_FOUND",
	CodeDivideByZero:              "DIVIDE_BY_ZERO",
	CodeBadArithEncoding:          "BAD_ARITHMETIC_ENCODING",
	CodeUnsupportedVerb:           "UNSUPPORTED_VERB",
}

// String returns the stable identifier for the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN_CODE"
}

// Compiling reports whether the code belongs to the compile-time families.
// Compile-time failures are permanent for a given rule and schema; runtime
// failures depend on the record being evaluated.
func (c Code) Compiling() bool {
	switch c {
	case CodeIndexOutOfRange, CodeMapKeyNotFound, CodeDivideByZero,
		CodeBadArithEncoding, CodeUnsupportedVerb:
		return false
	default:
		return c != CodeAllClear
	}
}
