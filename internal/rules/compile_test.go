package rules

import (
	"testing"

	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

// testSchema declares one attribute of every family the compiler must
// handle, plus the idx/index pair that exercises greedy name matching.
func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.New(map[string]schema.AttrType{
		"symbol":       schema.TypeString,
		"price":        schema.TypeFloat64,
		"ratio":        schema.TypeFloat32,
		"qty":          schema.TypeInt64,
		"count":        schema.TypeUint32,
		"active":       schema.TypeBool,
		"a":            schema.TypeInt64,
		"b":            schema.TypeInt64,
		"c":            schema.TypeInt64,
		"tags":         schema.TypeListString,
		"scores":       schema.TypeListInt64,
		"ids":          schema.TypeSetInt64,
		"counts":       schema.TypeMapStringInt,
		"ticks":        schema.TypeMapFloatFloat,
		"position":     schema.TypeRecord,
		"position.qty": schema.TypeInt64,
		"idx":          schema.TypeInt64,
		"index":        schema.TypeInt64,
	})
	if err != nil {
		t.Fatalf("schema.New() error = %v, want nil", err)
	}
	return sch
}

func TestCompile_SingleClause(t *testing.T) {
	sch := testSchema(t)

	plan, err := Compile(`price > 100.5`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if len(plan.Groups) != 1 || len(plan.GroupOps) != 0 {
		t.Fatalf("Compile() groups = %d, groupOps = %d, want 1 and 0",
			len(plan.Groups), len(plan.GroupOps))
	}
	g := plan.Groups[0]
	if g.ID != "1.1" {
		t.Errorf("group ID = %q, want 1.1", g.ID)
	}
	if g.Op != LogicalNone || len(g.Clauses) != 1 {
		t.Fatalf("group op = %v clauses = %d, want LogicalNone and 1", g.Op, len(g.Clauses))
	}
	cl := g.Clauses[0]
	if cl.Path != "price" || cl.Op != OpGt || cl.RHS.Float != 100.5 {
		t.Errorf("clause = %+v, want price > 100.5", cl)
	}
	if plan.SchemaFingerprint != sch.Fingerprint() {
		t.Error("plan fingerprint differs from schema fingerprint")
	}
}

func TestCompile_PlainGroup(t *testing.T) {
	plan, err := Compile(`a == 1 && b == 2 && c == 3`, testSchema(t))
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if len(plan.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(plan.Groups))
	}
	g := plan.Groups[0]
	if g.Op != LogicalAnd || len(g.Clauses) != 3 {
		t.Fatalf("group op = %v clauses = %d, want && and 3", g.Op, len(g.Clauses))
	}
	if g.Clauses[0].Trailing != LogicalAnd || g.Clauses[2].Trailing != LogicalNone {
		t.Errorf("trailing ops = %v/%v, want && then none",
			g.Clauses[0].Trailing, g.Clauses[2].Trailing)
	}
}

func TestCompile_ParenthesizedGroups(t *testing.T) {
	plan, err := Compile(`(a == 1) && (b == 2 || c == 3)`, testSchema(t))
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if len(plan.Groups) != 2 || len(plan.GroupOps) != 1 {
		t.Fatalf("groups = %d groupOps = %d, want 2 and 1",
			len(plan.Groups), len(plan.GroupOps))
	}
	if plan.Groups[0].ID != "1.1" || plan.Groups[1].ID != "2.1" {
		t.Errorf("group IDs = %q/%q, want 1.1/2.1", plan.Groups[0].ID, plan.Groups[1].ID)
	}
	if plan.GroupOps[0] != LogicalAnd {
		t.Errorf("group op = %v, want &&", plan.GroupOps[0])
	}
	if plan.Groups[1].Op != LogicalOr || len(plan.Groups[1].Clauses) != 2 {
		t.Errorf("second group op = %v clauses = %d, want || and 2",
			plan.Groups[1].Op, len(plan.Groups[1].Clauses))
	}
}

func TestCompile_Subscripts(t *testing.T) {
	sch := testSchema(t)

	plan, err := Compile(`scores[2] >= 50`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	cl := plan.Groups[0].Clauses[0]
	if !cl.Subscript.Present || cl.Subscript.IsKey || cl.Subscript.Index != 2 {
		t.Errorf("subscript = %+v, want list index 2", cl.Subscript)
	}
	if cl.Effective != schema.TypeInt64 {
		t.Errorf("effective type = %v, want int64", cl.Effective)
	}

	plan, err = Compile(`counts["a"] % 3 == 1`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	cl = plan.Groups[0].Clauses[0]
	if !cl.Subscript.IsKey || cl.Subscript.Key != "a" {
		t.Errorf("subscript = %+v, want map key a", cl.Subscript)
	}
	if !cl.Arith.Present || cl.Arith.Operand.Int != 3 || cl.Arith.Compare != OpEq {
		t.Errorf("arith = %+v, want %% 3 then ==", cl.Arith)
	}
	if cl.RHS.Int != 1 {
		t.Errorf("rhs = %+v, want 1", cl.RHS)
	}

	// Float map keys compile to canonical decimal key text.
	plan, err = Compile(`ticks[528000000.0] == 2.5`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if key := plan.Groups[0].Clauses[0].Subscript.Key; key != "528000000" {
		t.Errorf("float subscript key = %q, want 528000000", key)
	}
}

func TestCompile_GreedyAttributeMatch(t *testing.T) {
	sch := testSchema(t)

	plan, err := Compile(`position.qty == 1`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if path := plan.Groups[0].Clauses[0].Path; path != "position.qty" {
		t.Errorf("path = %q, want position.qty", path)
	}

	// "idx" must not match inside "index".
	plan, err = Compile(`index == 2`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if path := plan.Groups[0].Clauses[0].Path; path != "index" {
		t.Errorf("path = %q, want index", path)
	}

	// No-space symbol operators still bound the name.
	plan, err = Compile(`idx==1`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if path := plan.Groups[0].Clauses[0].Path; path != "idx" {
		t.Errorf("path = %q, want idx", path)
	}
}

func TestCompile_Rejections(t *testing.T) {
	sch := testSchema(t)

	tests := []struct {
		name string
		rule string
		want types.Code
	}{
		{"empty rule", ``, types.CodeEmptyExpression},
		{"blank rule", `   `, types.CodeEmptyExpression},
		{"control character", "price > 1.0\x01", types.CodeInvalidCharacter},
		{"non-ascii character", `symbol == "café"`, types.CodeInvalidCharacter},

		{"nested parens", `(a == 1 && (b == 2))`, types.CodeNestedParens},
		{"unclosed paren", `(a == 1`, types.CodeDanglingParen},
		{"unmatched close paren", `a == 1)`, types.CodeUnbalancedParens},
		{"unclosed bracket", `scores[1 == 1`, types.CodeUnbalancedBrackets},
		{"grouped then plain", `(a == 1) && b == 2`, types.CodeInconsistentParens},
		{"plain then grouped", `a == 1 && (b == 2)`, types.CodeInconsistentParens},
		{"space after open paren", `( a == 1)`, types.CodeParenPlacement},
		{"no space after close paren", `(a == 1)&& (b == 2)`, types.CodeParenPlacement},

		{"double space before op", `a == 1  && b == 2`, types.CodeLogicalOpSpacing},
		{"no space before op", `a == 1&& b == 2`, types.CodeLogicalOpSpacing},
		{"no space before or op", `a == 1|| b == 2`, types.CodeLogicalOpSpacing},
		{"no space before op in group", `(a == 1&& b == 2)`, types.CodeLogicalOpSpacing},
		{"double space after op", `a == 1 &&  b == 2`, types.CodeLogicalOpSpacing},
		{"mixed ops in group", `a == 1 && b == 2 || c == 3`, types.CodeMixedLogicalInGroup},
		{"mixed ops between groups", `(a == 1) && (b == 2) || (c == 3)`, types.CodeMixedLogicalBetweenGroups},

		{"trailing logical op", `a == 1 &&`, types.CodeDanglingLogicalOp},
		{"trailing logical op with space", `a == 1 && `, types.CodeDanglingLogicalOp},
		{"bare attribute", `price`, types.CodeDanglingLHS},
		{"attribute then end", `price `, types.CodeDanglingLHS},
		{"operator then end", `price >`, types.CodeDanglingOperator},
		{"truncated attribute", `pri`, types.CodeTruncatedAttribute},
		{"unknown attribute", `missing == 1`, types.CodeUnknownAttribute},

		{"list without subscript", `scores == 1`, types.CodeMissingSubscript},
		{"map without subscript", `counts == 1`, types.CodeMissingSubscript},
		{"empty list subscript", `scores[] == 1`, types.CodeBadListSubscript},
		{"non-numeric list subscript", `scores[x] == 1`, types.CodeBadListSubscript},
		{"subscript on scalar", `price[0] == 1.0`, types.CodeBadListSubscript},
		{"unquoted string map key", `counts[5] == 1`, types.CodeBadMapSubscript},

		{"equality on record", `position == 1`, types.CodeEqualityNotSupported},
		{"relational on bool", `active > true`, types.CodeRelationalNotSupported},
		{"relational on string", `symbol < "a"`, types.CodeRelationalNotSupported},
		{"arithmetic on string", `symbol + 1 == "a"`, types.CodeArithmeticNotSupported},
		{"contains on bool", `active contains true`, types.CodeContainsNotSupported},
		{"contains with map subscript", `counts["a"] contains 1`, types.CodeContainsWithSubscript},
		{"startsWith on number", `qty startsWith "a"`, types.CodeStartsWithNotSupported},
		{"endsWith on number", `qty endsWith "a"`, types.CodeEndsWithNotSupported},

		{"missing arith operand", `qty + == 1`, types.CodeBadArithOperand},
		{"decimal operand on integer", `qty + 1.5 == 1`, types.CodeBadArithOperand},
		{"signed operand on unsigned", `count + -1 == 1`, types.CodeBadArithOperand},
		{"arith without comparator", `qty + 1`, types.CodeMissingPostComparator},
		{"arith straight to logical op", `qty + 1 && b == 2`, types.CodeMissingPostComparator},

		{"bad bool literal", `active == yes`, types.CodeBadBoolLiteral},
		{"decimal int literal", `qty == 1.5`, types.CodeBadIntLiteral},
		{"signed unsigned literal", `count == -1`, types.CodeBadIntLiteral},
		{"float without decimal point", `price == 100`, types.CodeBadFloatLiteral},
		{"float with two decimal points", `price == 1.2.3`, types.CodeBadFloatLiteral},
		{"unquoted string literal", `symbol == IBM`, types.CodeBadStringLiteral},
		{"unterminated string literal", `symbol == "IBM`, types.CodeBadStringLiteral},
		{"trailing characters after literal", `qty == 1x`, types.CodeBadIntLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.rule, sch)
			if err == nil {
				t.Fatalf("Compile(%q) = nil, want %s", tt.rule, tt.want)
			}
			if got := types.CodeOf(err); got != tt.want {
				t.Errorf("Compile(%q) code = %s, want %s", tt.rule, got, tt.want)
			}
		})
	}
}

func TestCompile_WordVerbBoundary(t *testing.T) {
	sch := testSchema(t)

	// "containsX" is not a verb; with no operator found the clause dangles.
	_, err := Compile(`symbol containsX "a"`, sch)
	if err == nil {
		t.Fatal("Compile() = nil, want error for glued word verb")
	}
	if got := types.CodeOf(err); got != types.CodeDanglingLHS {
		t.Errorf("code = %s, want %s", got, types.CodeDanglingLHS)
	}

	// notContains must win over contains on the shared prefix.
	plan, err := Compile(`symbol notContains "a"`, sch)
	if err != nil {
		t.Fatalf("Compile() error = %v, want nil", err)
	}
	if op := plan.Groups[0].Clauses[0].Op; op != OpNotContains {
		t.Errorf("op = %v, want notContains", op)
	}
}

func TestCompile_LiteralWidths(t *testing.T) {
	sch := testSchema(t)

	tests := []struct {
		name string
		rule string
		want types.Code
	}{
		{"int64 max", `qty == 9223372036854775807`, types.CodeAllClear},
		{"int64 overflow", `qty == 9223372036854775808`, types.CodeBadIntLiteral},
		{"uint32 max", `count == 4294967295`, types.CodeAllClear},
		{"uint32 overflow", `count == 4294967296`, types.CodeBadIntLiteral},
		{"float32 in range", `ratio == 1.5`, types.CodeAllClear},
		{"float32 overflow", `ratio == 440282346638528859811704183484516925440.0`, types.CodeBadFloatLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.rule, sch)
			if got := types.CodeOf(err); tt.want == types.CodeAllClear {
				if err != nil {
					t.Fatalf("Compile(%q) error = %v, want nil", tt.rule, err)
				}
			} else if got != tt.want {
				t.Errorf("Compile(%q) code = %s, want %s", tt.rule, got, tt.want)
			}
		})
	}
}
