package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

/*
 * Rule compilation and validation.
 *
 * Compiles a rule string against an attribute schema in one left-to-right
 * scan, producing an immutable Plan. Validation and compilation are the
 * same pass: every token is checked against the schema the moment it is
 * consumed, and the first malformed token aborts with its outcome code. A
 * partial plan is never returned.
 *
 * Scanner states, repeated per clause:
 *
 *   seekingLHS -> seekingOperator -> seekingRHS -> seekingLogicalOp
 *
 * Grouping grammar: zero or exactly one level of parentheses. A rule either
 * uses no parentheses at all (one group spanning the whole rule) or wraps
 * every group in exactly one parenthesis pair. Mixing both styles in one
 * rule is rejected, as is any nesting. Logical operators never mix: one
 * operator kind inside a group, one operator kind between groups.
 *
 * Why one pass: rules are compiled rarely (the plan cache absorbs repeat
 * submissions) but the error position must be exact. A combined scan keeps
 * offsets precise without a separate token stream to reconcile.
 */

// compiler carries scanner state for one Compile call.
type compiler struct {
	src    string
	sch    *schema.Schema
	attrs  map[string]schema.AttrType
	sorted []string // attribute paths, longest first for greedy matching

	pos int

	groups   []Group
	groupOps []LogicalOp
	cur      Group
	parent   int // parent sequence id of the group being built

	inParen   bool
	parenMode parenMode
}

type parenMode int

const (
	parenUndecided parenMode = iota
	parenGrouped             // every group wrapped in one parenthesis pair
	parenPlain               // no parentheses anywhere
)

// Compile validates rule text against the schema and builds its Plan.
// Fails fast on the first malformed token; never returns a partial plan.
func Compile(ruleText string, sch *schema.Schema) (*Plan, error) {
	if strings.TrimSpace(ruleText) == "" {
		return nil, types.E(types.CodeEmptyExpression, "rule is empty")
	}
	if err := prescan(ruleText); err != nil {
		return nil, err
	}

	paths := make([]string, 0, sch.Len())
	for path := range sch.Attributes() {
		paths = append(paths, path)
	}
	// Longest path first: greedy matching must prefer "position.qty" over
	// "position" and "index" over "idx".
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i] < paths[j]
	})

	c := &compiler{
		src:    ruleText,
		sch:    sch,
		attrs:  sch.Attributes(),
		sorted: paths,
		parent: 1,
		cur:    Group{ID: "1.1"},
	}
	if err := c.scan(); err != nil {
		return nil, err
	}

	return &Plan{
		RuleText:          ruleText,
		SchemaFingerprint: sch.Fingerprint(),
		Groups:            c.groups,
		GroupOps:          c.groupOps,
	}, nil
}

// prescan rejects non-printable characters and unbalanced or nested
// parentheses/brackets before the main scan. Quoted regions are opaque so
// a ')' inside a string literal never unbalances the rule.
func prescan(s string) error {
	var quote byte
	parenDepth, bracketDepth := 0, 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return types.E(types.CodeInvalidCharacter,
				"non-printable character 0x%02x at offset %d", c, i)
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			parenDepth++
			if parenDepth > 1 {
				return types.E(types.CodeNestedParens,
					"nested parenthesis at offset %d", i)
			}
		case ')':
			parenDepth--
			if parenDepth < 0 {
				return types.E(types.CodeUnbalancedParens,
					"unmatched ')' at offset %d", i)
			}
		case '[':
			bracketDepth++
			if bracketDepth > 1 {
				return types.E(types.CodeUnbalancedBrackets,
					"nested '[' at offset %d", i)
			}
		case ']':
			bracketDepth--
			if bracketDepth < 0 {
				return types.E(types.CodeUnbalancedBrackets,
					"unmatched ']' at offset %d", i)
			}
		}
	}
	if parenDepth != 0 {
		return types.E(types.CodeDanglingParen, "unclosed '(' at end of rule")
	}
	if bracketDepth != 0 {
		return types.E(types.CodeUnbalancedBrackets, "unclosed '[' at end of rule")
	}
	return nil
}

// scan runs the clause state machine over the whole rule.
func (c *compiler) scan() error {
	c.skipSpaces()
	for {
		if err := c.openClause(); err != nil {
			return err
		}
		clause, err := c.parseClause()
		if err != nil {
			return err
		}
		done, err := c.sealClause(clause)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// skipSpaces advances over spaces. The character set is printable ASCII, so
// space is the only whitespace a valid rule can carry.
func (c *compiler) skipSpaces() {
	for c.pos < len(c.src) && c.src[c.pos] == ' ' {
		c.pos++
	}
}

// openClause handles the position right before an LHS: group opening
// parentheses and the grouped-vs-plain consistency rule.
func (c *compiler) openClause() error {
	if c.pos >= len(c.src) {
		// Only reachable after a trailing logical operator.
		return types.E(types.CodeDanglingLogicalOp,
			"rule ends after a logical operator")
	}
	if c.src[c.pos] == '(' {
		switch c.parenMode {
		case parenUndecided:
			c.parenMode = parenGrouped
		case parenPlain:
			return types.E(types.CodeInconsistentParens,
				"'(' at offset %d after an unparenthesized group", c.pos)
		}
		if c.inParen {
			// Depth is pre-checked; a second '(' here is placement abuse.
			return types.E(types.CodeParenPlacement,
				"unexpected '(' at offset %d", c.pos)
		}
		c.inParen = true
		c.pos++
		if c.pos >= len(c.src) || c.src[c.pos] == ' ' || c.src[c.pos] == '(' {
			return types.E(types.CodeParenPlacement,
				"'(' at offset %d must directly precede an attribute", c.pos-1)
		}
		return nil
	}

	switch c.parenMode {
	case parenUndecided:
		c.parenMode = parenPlain
	case parenGrouped:
		if !c.inParen {
			return types.E(types.CodeInconsistentParens,
				"expected '(' at offset %d in a parenthesized rule", c.pos)
		}
	}
	return nil
}

// parseClause consumes LHS, optional subscript, operator (with embedded
// arithmetic operand and post-comparator for arithmetic verbs), and RHS.
func (c *compiler) parseClause() (Clause, error) {
	var clause Clause

	path, declared, err := c.matchLHS()
	if err != nil {
		return clause, err
	}
	clause.Path = path
	clause.Type = declared
	clause.Effective = declared

	// Subscript directly follows the attribute name, no space allowed.
	if c.pos < len(c.src) && c.src[c.pos] == '[' {
		sub, effective, err := c.parseSubscript(path, declared)
		if err != nil {
			return clause, err
		}
		clause.Subscript = sub
		clause.Effective = effective
	}

	c.skipSpaces()
	if c.pos >= len(c.src) {
		return clause, types.E(types.CodeDanglingLHS,
			"rule ends after attribute %q", path)
	}
	op, n, ok := matchOperator(c.src, c.pos)
	if !ok {
		return clause, types.E(types.CodeDanglingLHS,
			"expected operator after attribute %q at offset %d", path, c.pos)
	}
	c.pos += n
	clause.Op = op

	// Lists and maps without a subscript only work with the contains family.
	if !clause.Subscript.Present && (declared.IsList() || declared.IsMap()) && !op.IsContainsFamily() {
		return clause, types.E(types.CodeMissingSubscript,
			"attribute %q of type %s requires a [...] subscript for operator %s", path, declared, op)
	}

	if err := checkCompatibility(op, declared, clause.Effective, clause.Subscript); err != nil {
		return clause, err
	}

	if op.IsArithmetic() {
		arith, err := c.parseArith(clause.Effective)
		if err != nil {
			return clause, err
		}
		clause.Arith = arith
	}

	c.skipSpaces()
	if c.pos >= len(c.src) {
		return clause, types.E(types.CodeDanglingOperator,
			"rule ends after operator %s", clause.Op)
	}
	rhs, err := c.parseRHS(clause)
	if err != nil {
		return clause, err
	}
	clause.RHS = rhs
	return clause, nil
}

// matchLHS greedily matches catalog attribute paths at the current
// position. Only an exact token bounded by whitespace, '[', ')' or a symbol
// operator character counts; this rejects partial-name collisions such as
// "idx" matching inside "index".
func (c *compiler) matchLHS() (string, schema.AttrType, error) {
	rest := c.src[c.pos:]
	for _, path := range c.sorted {
		if !strings.HasPrefix(rest, path) {
			continue
		}
		if len(rest) > len(path) {
			next := rest[len(path)]
			if next != ' ' && next != '[' && next != ')' && !isSymbolOperatorLead(next) {
				continue
			}
		}
		c.pos += len(path)
		return path, c.attrs[path], nil
	}

	// Distinguish a name truncated by end of input from an unknown name.
	for _, path := range c.sorted {
		if len(rest) < len(path) && strings.HasPrefix(path, rest) {
			return "", schema.TypeInvalid, types.E(types.CodeTruncatedAttribute,
				"rule ends inside attribute name %q", rest)
		}
	}
	return "", schema.TypeInvalid, types.E(types.CodeUnknownAttribute,
		"no attribute matches at offset %d", c.pos)
}

// isSymbolOperatorLead reports whether c begins a symbol verb. Word verbs
// (contains, startsWith, ...) must be space-separated from the attribute,
// so their lead letters do not bound an attribute token.
func isSymbolOperatorLead(b byte) bool {
	switch b {
	case '=', '!', '<', '>', '+', '-', '*', '/', '%':
		return true
	default:
		return false
	}
}

// parseSubscript consumes '[...]' after a list or map attribute and returns
// the subscript plus the clause's effective type.
func (c *compiler) parseSubscript(path string, declared schema.AttrType) (Subscript, schema.AttrType, error) {
	c.pos++ // consume '['

	switch {
	case declared.IsList():
		start := c.pos
		for c.pos < len(c.src) && c.src[c.pos] >= '0' && c.src[c.pos] <= '9' {
			c.pos++
		}
		if c.pos == start {
			return Subscript{}, schema.TypeInvalid, types.E(types.CodeBadListSubscript,
				"attribute %q requires a non-negative integer index", path)
		}
		idx, err := strconv.Atoi(c.src[start:c.pos])
		if err != nil {
			return Subscript{}, schema.TypeInvalid, types.E(types.CodeBadListSubscript,
				"index %q for attribute %q is out of range", c.src[start:c.pos], path)
		}
		if err := c.expectCloseBracket(types.CodeBadListSubscript, path); err != nil {
			return Subscript{}, schema.TypeInvalid, err
		}
		return Subscript{Present: true, Index: idx}, declared.Elem(), nil

	case declared.IsMap():
		keyLit, end, err := parseScalarLiteral(c.src, c.pos, declared.Key())
		if err != nil {
			return Subscript{}, schema.TypeInvalid, types.E(types.CodeBadMapSubscript,
				"attribute %q: %v", path, err)
		}
		c.pos = end
		if err := c.expectCloseBracket(types.CodeBadMapSubscript, path); err != nil {
			return Subscript{}, schema.TypeInvalid, err
		}
		return Subscript{Present: true, IsKey: true, Key: canonicalKeyText(keyLit)}, declared.Value(), nil

	default:
		return Subscript{}, schema.TypeInvalid, types.E(types.CodeBadListSubscript,
			"attribute %q of type %s does not take a subscript", path, declared)
	}
}

// expectCloseBracket consumes the mandatory ']' after a subscript literal.
func (c *compiler) expectCloseBracket(code types.Code, path string) error {
	if c.pos >= len(c.src) || c.src[c.pos] != ']' {
		return types.E(code, "missing ']' after subscript for attribute %q", path)
	}
	c.pos++
	return nil
}

// parseArith consumes the embedded numeric operand and the mandatory
// post-arithmetic comparison verb of an arithmetic clause.
func (c *compiler) parseArith(effective schema.AttrType) (Arith, error) {
	c.skipSpaces()
	if c.pos >= len(c.src) {
		return Arith{}, types.E(types.CodeBadArithOperand,
			"rule ends before the arithmetic operand")
	}
	operand, end, err := c.parseOperand(effective)
	if err != nil {
		return Arith{}, err
	}
	c.pos = end

	c.skipSpaces()
	if c.pos >= len(c.src) {
		return Arith{}, types.E(types.CodeMissingPostComparator,
			"arithmetic clause ends without a comparison verb")
	}
	post, n, ok := matchOperator(c.src, c.pos)
	if !ok || !post.IsComparison() {
		return Arith{}, types.E(types.CodeMissingPostComparator,
			"expected comparison verb after arithmetic operand at offset %d", c.pos)
	}
	c.pos += n
	return Arith{Present: true, Operand: operand, Compare: post}, nil
}

// parseOperand parses the embedded arithmetic operand. The shape rules are
// laxer than RHS float literals: a float operand may omit the decimal
// point, but sign and decimal validity still follow the attribute type.
func (c *compiler) parseOperand(effective schema.AttrType) (Literal, int, error) {
	tok, end := scanNumberToken(c.src, c.pos)
	sh := shapeOf(tok)
	if sh.digits == 0 || sh.dots > 1 {
		return Literal{}, c.pos, types.E(types.CodeBadArithOperand,
			"malformed arithmetic operand %q at offset %d", tok, c.pos)
	}
	if sh.negative && effective.IsUnsigned() {
		return Literal{}, c.pos, types.E(types.CodeBadArithOperand,
			"sign not allowed in operand for unsigned type %s", effective)
	}
	if sh.dots > 0 && effective.IsInteger() {
		return Literal{}, c.pos, types.E(types.CodeBadArithOperand,
			"decimal point not allowed in operand for integer type %s", effective)
	}
	if effective.IsFloat() {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Literal{}, c.pos, types.E(types.CodeBadArithOperand,
				"operand %q out of range for %s", tok, effective)
		}
		return Literal{Kind: effective, Float: f, Text: tok}, end, nil
	}
	if effective.IsUnsigned() {
		u, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return Literal{}, c.pos, types.E(types.CodeBadArithOperand,
				"operand %q out of range for %s", tok, effective)
		}
		return Literal{Kind: effective, Uint: u, Text: tok}, end, nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return Literal{}, c.pos, types.E(types.CodeBadArithOperand,
			"operand %q out of range for %s", tok, effective)
	}
	return Literal{Kind: effective, Int: i, Text: tok}, end, nil
}

// parseRHS parses the right-hand-side literal for the clause and verifies
// the token is cleanly bounded (space, ')' or end of input). A glued '&' or
// '|' also bounds the literal: that position belongs to the logical
// operator, whose spacing check reports the error.
func (c *compiler) parseRHS(clause Clause) (Literal, error) {
	kind := rhsKind(clause)
	lit, end, err := parseScalarLiteral(c.src, c.pos, kind)
	if err != nil {
		return Literal{}, err
	}
	if end < len(c.src) {
		switch c.src[end] {
		case ' ', ')', '&', '|':
		default:
			return Literal{}, types.E(literalCode(kind),
				"trailing characters after literal %q at offset %d", lit.Text, end)
		}
	}
	c.pos = end
	return lit, nil
}

// rhsKind selects the literal type the RHS must parse as.
func rhsKind(clause Clause) schema.AttrType {
	if clause.Op.IsContainsFamily() && !clause.Subscript.Present {
		switch {
		case clause.Type.IsList(), clause.Type.IsSet():
			return clause.Type.Elem()
		case clause.Type.IsMap():
			return clause.Type.Key()
		}
	}
	return clause.Effective
}

// literalCode maps a literal kind to its outcome code family.
func literalCode(kind schema.AttrType) types.Code {
	switch {
	case kind == schema.TypeBool:
		return types.CodeBadBoolLiteral
	case kind.IsInteger():
		return types.CodeBadIntLiteral
	case kind.IsFloat():
		return types.CodeBadFloatLiteral
	default:
		return types.CodeBadStringLiteral
	}
}

// sealClause finishes the clause: closing parenthesis, trailing logical
// operator, group transitions, and the homogeneity rules. Returns true when
// the rule is fully consumed.
func (c *compiler) sealClause(clause Clause) (bool, error) {
	// Clean end of an unparenthesized rule.
	if c.pos >= len(c.src) && !c.inParen {
		c.appendClause(clause)
		c.closeGroup()
		return true, nil
	}

	if c.inParen && c.pos < len(c.src) && c.src[c.pos] == ')' {
		c.pos++
		if c.pos < len(c.src) && c.src[c.pos] != ' ' {
			return false, types.E(types.CodeParenPlacement,
				"')' at offset %d must be followed by a space", c.pos-1)
		}
		c.appendClause(clause)
		c.closeGroup()
		c.inParen = false

		if c.pos >= len(c.src) {
			return true, nil
		}
		op, err := c.matchLogical()
		if err != nil {
			return false, err
		}
		if len(c.groupOps) > 0 && c.groupOps[0] != op {
			return false, types.E(types.CodeMixedLogicalBetweenGroups,
				"cannot mix '&&' and '||' between groups")
		}
		c.groupOps = append(c.groupOps, op)
		return false, nil
	}

	if c.pos >= len(c.src) {
		// Inside a paren with input exhausted; prescan guarantees balance,
		// so this is unreachable, kept as a defensive check.
		return false, types.E(types.CodeDanglingParen, "rule ends inside a group")
	}

	op, err := c.matchLogical()
	if err != nil {
		return false, err
	}
	clause.Trailing = op
	if c.cur.Op == LogicalNone {
		c.cur.Op = op
	} else if c.cur.Op != op {
		return false, types.E(types.CodeMixedLogicalInGroup,
			"cannot mix '&&' and '||' within a group")
	}
	c.appendClause(clause)
	return false, nil
}

// matchLogical consumes ' && ' or ' || ' with exactly one space on each
// side. The scanner sits directly after the RHS or ')' when called.
func (c *compiler) matchLogical() (LogicalOp, error) {
	s := c.src
	if c.pos >= len(s) || s[c.pos] != ' ' {
		return LogicalNone, types.E(types.CodeLogicalOpSpacing,
			"expected ' && ' or ' || ' at offset %d", c.pos)
	}
	opStart := c.pos + 1
	if opStart+2 > len(s) {
		return LogicalNone, types.E(types.CodeDanglingLogicalOp,
			"rule ends where a logical operator was expected")
	}
	var op LogicalOp
	switch s[opStart : opStart+2] {
	case "&&":
		op = LogicalAnd
	case "||":
		op = LogicalOr
	default:
		return LogicalNone, types.E(types.CodeLogicalOpSpacing,
			"expected '&&' or '||' with single-space padding at offset %d", opStart)
	}
	after := opStart + 2
	if after >= len(s) {
		return LogicalNone, types.E(types.CodeDanglingLogicalOp,
			"rule ends after logical operator")
	}
	if s[after] != ' ' {
		return LogicalNone, types.E(types.CodeLogicalOpSpacing,
			"logical operator at offset %d requires exactly one space on each side", opStart)
	}
	if after+1 >= len(s) {
		return LogicalNone, types.E(types.CodeDanglingLogicalOp,
			"rule ends after logical operator")
	}
	if s[after+1] == ' ' {
		return LogicalNone, types.E(types.CodeLogicalOpSpacing,
			"logical operator at offset %d requires exactly one space on each side", opStart)
	}
	c.pos = after + 1
	return op, nil
}

// appendClause adds the clause to the group being built.
func (c *compiler) appendClause(clause Clause) {
	c.cur.Clauses = append(c.cur.Clauses, clause)
}

// closeGroup finalizes the current group and starts the next sequence id.
// The child component is pinned at 1: it is reserved for nested grouping,
// which the grammar caps at a single level.
func (c *compiler) closeGroup() {
	c.groups = append(c.groups, c.cur)
	c.parent++
	c.cur = Group{ID: fmt.Sprintf("%d.1", c.parent)}
}
