package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil error", nil, CodeAllClear},
		{"direct error", E(CodeDivideByZero, "remainder by zero"), CodeDivideByZero},
		{"wrapped error", fmt.Errorf("evaluating: %w", E(CodeMapKeyNotFound, "no key")), CodeMapKeyNotFound},
		{"foreign error never looks like success", errors.New("disk on fire"), CodeUnsupportedVerb},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := E(CodeSchemaMismatch, "fingerprint %.4s", "abcdef")
	if got := err.Error(); got != "SCHEMA_MISMATCH: fingerprint abcd" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodeCompiling(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeAllClear, false},
		{CodeEmptyExpression, true},
		{CodeMixedLogicalInGroup, true},
		{CodeBadFloatLiteral, true},
		{CodeIndexOutOfRange, false},
		{CodeMapKeyNotFound, false},
		{CodeDivideByZero, false},
	}

	for _, tt := range tests {
		if got := tt.code.Compiling(); got != tt.want {
			t.Errorf("%s.Compiling() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRuleIDRoundTrip(t *testing.T) {
	id := NewRuleID()
	parsed, err := ParseRuleID(string(id))
	if err != nil {
		t.Fatalf("ParseRuleID() error = %v, want nil", err)
	}
	if parsed != id {
		t.Errorf("ParseRuleID() = %v, want %v", parsed, id)
	}
	if RuleIDTime(id).IsZero() {
		t.Error("RuleIDTime() = zero, want embedded UUIDv7 timestamp")
	}

	if _, err := ParseRuleID("not-a-uuid"); err == nil {
		t.Fatal("ParseRuleID() = nil, want error")
	}
}
