package validation

import (
	"strings"
	"testing"
)

type sample struct {
	From   string `json:"from" validate:"required,max=8"`
	Offset int    `json:"offset" validate:"min=0"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{From: "", Offset: -1})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "from is required") {
		t.Fatalf("missing required message: %q", msg)
	}
	if !strings.Contains(msg, "offset must be at least 0") {
		t.Fatalf("missing min message: %q", msg)
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{From: "a", Offset: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
