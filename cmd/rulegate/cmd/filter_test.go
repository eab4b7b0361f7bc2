package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/solatis/rulegate/internal/core/config"
	"github.com/solatis/rulegate/internal/schema"
	"go.uber.org/zap"
)

func filterTestSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.New(map[string]schema.AttrType{
		"symbol": schema.TypeString,
		"price":  schema.TypeFloat64,
	})
	if err != nil {
		t.Fatalf("schema.New() error = %v, want nil", err)
	}
	return sch
}

func runFilterStream(t *testing.T, input, rule, onError string) (string, error) {
	t.Helper()
	cfg := config.DefaultFilterConfig()
	cfg.OnError = onError

	var out bytes.Buffer
	err := filterStream(strings.NewReader(input), &out, filterTestSchema(t), rule, cfg, zap.NewNop(), nil)
	return out.String(), err
}

func TestFilterStream_MatchingLinesEmitted(t *testing.T) {
	input := `{"symbol": "IBM", "price": 101.25}
{"symbol": "AAPL", "price": 99.0}

{"symbol": "IBM", "price": 50.0}
`
	out, err := runFilterStream(t, input, `symbol == "IBM" && price > 100.5`, config.OnErrorFail)
	if err != nil {
		t.Fatalf("filterStream() error = %v, want nil", err)
	}

	want := `{"symbol": "IBM", "price": 101.25}` + "\n"
	if out != want {
		t.Errorf("filterStream() output = %q, want %q", out, want)
	}
}

func TestFilterStream_OnErrorPolicies(t *testing.T) {
	input := `{"symbol": "IBM", "price": 101.25}
not json at all
{"symbol": "IBM", "price": 200.0}
`

	t.Run("fail aborts the stream", func(t *testing.T) {
		_, err := runFilterStream(t, input, `price > 100.5`, config.OnErrorFail)
		if err == nil {
			t.Fatal("filterStream() = nil, want error on malformed record")
		}
	})

	t.Run("drop skips the record", func(t *testing.T) {
		out, err := runFilterStream(t, input, `price > 100.5`, config.OnErrorDrop)
		if err != nil {
			t.Fatalf("filterStream() error = %v, want nil", err)
		}
		if strings.Contains(out, "not json") {
			t.Error("dropped record still present in output")
		}
		if got := strings.Count(out, "\n"); got != 2 {
			t.Errorf("output lines = %d, want 2", got)
		}
	})

	t.Run("keep forwards the record", func(t *testing.T) {
		out, err := runFilterStream(t, input, `price > 100.5`, config.OnErrorKeep)
		if err != nil {
			t.Fatalf("filterStream() error = %v, want nil", err)
		}
		if !strings.Contains(out, "not json at all") {
			t.Error("kept record missing from output")
		}
	})
}

func TestFilterStream_CompileErrorRespectsPolicy(t *testing.T) {
	input := `{"symbol": "IBM", "price": 101.25}` + "\n"

	// A rule that never compiles fails every record.
	if _, err := runFilterStream(t, input, `price >`, config.OnErrorFail); err == nil {
		t.Fatal("filterStream() = nil, want error for uncompilable rule")
	}

	out, err := runFilterStream(t, input, `price >`, config.OnErrorDrop)
	if err != nil {
		t.Fatalf("filterStream() error = %v, want nil", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty under drop policy", out)
	}
}
