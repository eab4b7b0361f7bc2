package schema

import (
	"testing"
)

func ingestSchema(t *testing.T) *Schema {
	t.Helper()
	sch, err := New(map[string]AttrType{
		"symbol":       TypeString,
		"price":        TypeFloat64,
		"qty":          TypeUint64,
		"active":       TypeBool,
		"tags":         TypeListString,
		"scores":       TypeListInt64,
		"counts":       TypeMapStringInt,
		"ticks":        TypeMapFloatFloat,
		"position":     TypeRecord,
		"position.qty": TypeInt64,
	})
	if err != nil {
		t.Fatalf("New() error = %v, want nil", err)
	}
	return sch
}

func TestRecordFromJSON(t *testing.T) {
	sch := ingestSchema(t)

	data := `{
		"symbol": "IBM",
		"price": 101.25,
		"qty": 18446744073709551615,
		"active": true,
		"tags": ["a", "x", "c"],
		"scores": [10, 20, 60],
		"counts": {"a": 7},
		"ticks": {"528000000.0": 1.5},
		"position": {"qty": -3}
	}`

	rec, err := RecordFromJSON(sch, []byte(data))
	if err != nil {
		t.Fatalf("RecordFromJSON() error = %v, want nil", err)
	}

	if v, _ := rec.Get("symbol"); v.Str != "IBM" {
		t.Errorf("symbol = %q, want IBM", v.Str)
	}
	// Max uint64 must survive ingestion exactly; a float64 detour would
	// round it.
	if v, _ := rec.Get("qty"); v.Uint != 18446744073709551615 {
		t.Errorf("qty = %d, want max uint64", v.Uint)
	}
	if v, _ := rec.Get("position.qty"); v.Int != -3 {
		t.Errorf("position.qty = %d, want -3", v.Int)
	}

	ticks, _ := rec.Get("ticks")
	if _, ok := ticks.Lookup("528000000"); !ok {
		t.Error("ticks stored under non-canonical key text")
	}

	scores, _ := rec.Get("scores")
	if len(scores.Elems) != 3 || scores.Elems[2].Int != 60 {
		t.Errorf("scores = %+v, want [10 20 60]", scores.Elems)
	}
}

func TestRecordFromJSON_Rejections(t *testing.T) {
	sch := ingestSchema(t)

	base := map[string]string{
		"symbol":   `"IBM"`,
		"price":    `101.25`,
		"qty":      `5`,
		"active":   `true`,
		"tags":     `["a"]`,
		"scores":   `[1]`,
		"counts":   `{"a": 1}`,
		"ticks":    `{"1.5": 1.0}`,
		"position": `{"qty": 1}`,
	}

	build := func(overrides map[string]string) string {
		out := "{"
		first := true
		for k, v := range base {
			if ov, ok := overrides[k]; ok {
				v = ov
			}
			if v == "" {
				continue
			}
			if !first {
				out += ","
			}
			out += `"` + k + `":` + v
			first = false
		}
		return out + "}"
	}

	tests := []struct {
		name      string
		overrides map[string]string
	}{
		{"missing attribute", map[string]string{"price": ""}},
		{"string where number expected", map[string]string{"price": `"1.5"`}},
		{"negative into unsigned", map[string]string{"qty": `-1`}},
		{"float into integer", map[string]string{"scores": `[1.5]`}},
		{"scalar where list expected", map[string]string{"tags": `"a"`}},
		{"non-numeric map key", map[string]string{"ticks": `{"abc": 1.0}`}},
		{"non-object nested record", map[string]string{"position": `5`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RecordFromJSON(sch, []byte(build(tt.overrides))); err == nil {
				t.Fatal("RecordFromJSON() = nil, want error")
			}
		})
	}
}

func TestFromYAML(t *testing.T) {
	data := []byte(`attributes:
  symbol: string
  price: float64
  position: record
  position.qty: int64
  tags: list<string>
  counts: map<string,int64>
`)
	sch, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML() error = %v, want nil", err)
	}
	if sch.Len() != 6 {
		t.Errorf("Len() = %d, want 6", sch.Len())
	}
	if typ, ok := sch.TypeOf("counts"); !ok || typ != TypeMapStringInt {
		t.Errorf("TypeOf(counts) = %v, want map<string,int64>", typ)
	}

	if _, err := FromYAML([]byte("attributes:\n  a: tuple\n")); err == nil {
		t.Fatal("FromYAML() = nil, want error for unknown type")
	}
	if _, err := FromYAML([]byte("attributes: {}\n")); err == nil {
		t.Fatal("FromYAML() = nil, want error for empty schema")
	}
}
