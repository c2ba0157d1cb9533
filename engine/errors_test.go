package engine_test

import (
	"errors"
	"testing"

	"github.com/ctcoding/hometracker/engine"
)

// The handlers construct *ValidationError directly, so the pointer
// form must satisfy error and unwrap to the validation sentinel.
func TestValidationError_SatisfiesErrorAndUnwraps(t *testing.T) {
	var err error = &engine.ValidationError{Field: "meterValue", Message: "is required"}

	if got := err.Error(); got != "meterValue: is required" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, engine.ErrValidation) {
		t.Error("expected errors.Is(err, ErrValidation)")
	}

	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected errors.As to match *ValidationError")
	}
	if ve.Field != "meterValue" {
		t.Errorf("Field = %q", ve.Field)
	}
}

func TestIsClientError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", &engine.ValidationError{Field: "amount", Message: "is required"}, true},
		{"not found sentinel", engine.ErrNotFound, true},
		{"arbitrary failure", errors.New("disk full"), false},
	}
	for _, tc := range cases {
		if got := engine.IsClientError(tc.err); got != tc.want {
			t.Errorf("%s: IsClientError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
