// Package types provides domain models shared across RuleGate components.
//
// Near-zero-dependency design: codes.go and errors.go use only the standard
// library so embedding hosts pay no dependency cost for the outcome taxonomy.
// ID utilities in ids.go import uuid but are isolated for selective inclusion.
package types

// RuleName is the human-chosen identifier for a stored rule.
// Distinct from RuleID so renames never invalidate references by id.
type RuleName string

// Resource limits enforced at the system boundaries to bound work per call.
const (
	// MaxRuleLength caps rule text length at the rule store. 8KB comfortably
	// covers hand-written filter rules; longer inputs are almost certainly
	// hostile or corrupt.
	MaxRuleLength = 8 * 1024

	// MaxAttributePathDepth bounds dotted nesting at schema construction.
	// 16 levels matches the deepest record shapes seen in practice.
	MaxAttributePathDepth = 16
)
