package rules

import (
	"testing"

	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
)

func TestCache_CompileOnce(t *testing.T) {
	sch := testSchema(t)
	cache := NewCache()

	first, err := cache.GetOrCompile(`price > 100.5`, sch)
	if err != nil {
		t.Fatalf("GetOrCompile() error = %v, want nil", err)
	}
	second, err := cache.GetOrCompile(`price > 100.5`, sch)
	if err != nil {
		t.Fatalf("GetOrCompile() error = %v, want nil", err)
	}

	if first != second {
		t.Error("GetOrCompile() returned different plans for the same rule")
	}
	if n := cache.Compilations(); n != 1 {
		t.Errorf("Compilations() = %d, want 1", n)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}

	// Both plans evaluate identically.
	rec := testRecord(t, sch)
	r1, err1 := Evaluate(first, rec)
	r2, err2 := Evaluate(second, rec)
	if r1 != r2 || (err1 == nil) != (err2 == nil) {
		t.Errorf("Evaluate() differs between hits: (%v,%v) vs (%v,%v)", r1, err1, r2, err2)
	}
}

func TestCache_SchemaMismatch(t *testing.T) {
	schA := testSchema(t)
	schB, err := schema.New(map[string]schema.AttrType{
		"price": schema.TypeFloat64,
	})
	if err != nil {
		t.Fatalf("schema.New() error = %v, want nil", err)
	}

	cache := NewCache()
	if _, err := cache.GetOrCompile(`price > 100.5`, schA); err != nil {
		t.Fatalf("GetOrCompile() error = %v, want nil", err)
	}

	_, err = cache.GetOrCompile(`price > 100.5`, schB)
	if err == nil {
		t.Fatal("GetOrCompile() = nil, want SCHEMA_MISMATCH")
	}
	if got := types.CodeOf(err); got != types.CodeSchemaMismatch {
		t.Errorf("code = %s, want %s", got, types.CodeSchemaMismatch)
	}
	// Never a silent recompile.
	if n := cache.Compilations(); n != 1 {
		t.Errorf("Compilations() = %d, want 1 after mismatch", n)
	}
}

func TestCache_FailureCachesNothing(t *testing.T) {
	sch := testSchema(t)
	cache := NewCache()

	for i := 0; i < 2; i++ {
		_, err := cache.GetOrCompile(`price >`, sch)
		if err == nil {
			t.Fatal("GetOrCompile() = nil, want error")
		}
		if got := types.CodeOf(err); got != types.CodeDanglingOperator {
			t.Errorf("code = %s, want %s", got, types.CodeDanglingOperator)
		}
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after failed compiles", cache.Len())
	}
	if n := cache.Compilations(); n != 0 {
		t.Errorf("Compilations() = %d, want 0", n)
	}
}

func TestCache_Uninitialized(t *testing.T) {
	var cache Cache
	_, err := cache.GetOrCompile(`price > 100.5`, testSchema(t))
	if got := types.CodeOf(err); err == nil || got != types.CodePlanAllocFailed {
		t.Fatalf("GetOrCompile() code = %v, want PLAN_ALLOCATION_FAILED", got)
	}
}

func TestEngine_Evaluate(t *testing.T) {
	sch := testSchema(t)
	rec := testRecord(t, sch)
	engine := NewEngine(NewCache(), nil)

	matched, code := engine.Evaluate(`symbol == "IBM" && price > 100.5`, rec, false)
	if code != types.CodeAllClear || !matched {
		t.Fatalf("Evaluate() = (%v, %s), want (true, ALL_CLEAR)", matched, code)
	}

	matched, code = engine.Evaluate(``, rec, false)
	if code != types.CodeEmptyExpression || matched {
		t.Errorf("Evaluate() = (%v, %s), want (false, EMPTY_EXPRESSION)", matched, code)
	}

	// Records without a schema binding cannot be checked against a plan.
	matched, code = engine.Evaluate(`price > 100.5`, schema.NewRecord(nil), false)
	if code != types.CodeSchemaMismatch || matched {
		t.Errorf("Evaluate() = (%v, %s), want (false, SCHEMA_MISMATCH)", matched, code)
	}

	matched, code = engine.Evaluate(`scores[9] == 1`, rec, true)
	if code != types.CodeIndexOutOfRange || matched {
		t.Errorf("Evaluate() = (%v, %s), want (false, INDEX_OUT_OF_RANGE)", matched, code)
	}

	// The runtime failure left the plan cached.
	matched, code = engine.Evaluate(`scores[2] >= 50`, rec, false)
	if code != types.CodeAllClear || !matched {
		t.Errorf("Evaluate() = (%v, %s), want (true, ALL_CLEAR)", matched, code)
	}
}
