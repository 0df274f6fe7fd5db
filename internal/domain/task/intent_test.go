package task

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizedAction(t *testing.T) {
	i := Intent{Action: "Extract Markdown Titles"}
	if got := i.NormalizedAction(); got != "extract markdown titles" {
		t.Errorf("unexpected action %q", got)
	}
}

func TestParam(t *testing.T) {
	i := Intent{Parameters: map[string]any{
		"day":    "Monday",
		"blank":  "  ",
		"number": float64(42),
		"flag":   true,
	}}

	tests := []struct {
		key  string
		def  string
		want string
	}{
		{"day", "wednesday", "Monday"},
		{"blank", "fallback", "fallback"},
		{"missing", "fallback", "fallback"},
		{"number", "", "42"},
		{"flag", "", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := i.Param(tt.key, tt.def); got != tt.want {
				t.Errorf("Param(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestParamNilParameters(t *testing.T) {
	var i Intent
	if got := i.Param("day", "wednesday"); got != "wednesday" {
		t.Errorf("expected default, got %q", got)
	}
	if got := i.IntParam("count", 10); got != 10 {
		t.Errorf("expected default, got %d", got)
	}
}

func TestIntParam(t *testing.T) {
	i := Intent{Parameters: map[string]any{
		"float":  float64(7),
		"string": " 12 ",
		"bad":    "many",
	}}
	if got := i.IntParam("float", 0); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := i.IntParam("string", 0); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
	if got := i.IntParam("bad", 3); got != 3 {
		t.Errorf("expected default 3, got %d", got)
	}
}

func TestBoolParam(t *testing.T) {
	i := Intent{Parameters: map[string]any{"a": true, "b": "true", "c": "nope"}}
	if !i.BoolParam("a") || !i.BoolParam("b") {
		t.Error("expected truthy parameters")
	}
	if i.BoolParam("c") || i.BoolParam("missing") {
		t.Error("expected falsy parameters")
	}
}

func TestStringsParam(t *testing.T) {
	def := []string{"last_name", "first_name"}
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"json list", []any{"email", "last_name"}, []string{"email", "last_name"}},
		{"comma string", "email, last_name", []string{"email", "last_name"}},
		{"empty list", []any{}, def},
		{"wrong type", float64(1), def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := Intent{Parameters: map[string]any{"sort_keys": tt.value}}
			if diff := cmp.Diff(tt.want, i.StringsParam("sort_keys", def)); diff != "" {
				t.Errorf("StringsParam mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResultConstructors(t *testing.T) {
	r := Failed("File %s not found.", "/data/x")
	if r.Status != StatusFailed || !strings.HasPrefix(r.Message, "Error: ") {
		t.Errorf("unexpected failed result %+v", r)
	}
	if r.IsValidation() || r.IsUnexpected() {
		t.Error("failed result must be neither validation nor unexpected")
	}
	if f := Failure("Error running Prettier."); f.Message != "Error running Prettier." || f.Status != StatusFailed {
		t.Errorf("unexpected verbatim failure %+v", f)
	}
	if !Rejected(MessageDeleteForbidden).IsValidation() {
		t.Error("rejected result must be a validation failure")
	}
	if !Errored("boom").IsUnexpected() {
		t.Error("errored result must be unexpected")
	}
	if u := Unhandled(); u.Message != MessageUnknownTask || u.Status != StatusUnhandled {
		t.Errorf("unexpected unhandled result %+v", u)
	}
}
