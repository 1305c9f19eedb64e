package moments_test

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	moments "github.com/momentkit/go-moments"
)

func TestFormatError(t *testing.T) {
	var nilRich *goerrors.Error

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "An unknown error occurred."},
		{"empty string", "", "An unknown error occurred."},
		{"string", "Email is taken", "Email is taken"},
		{"plain error", errors.New("boom"), "boom"},
		{"rich error", goerrors.New("Invalid credentials", goerrors.CategoryAuth), "Invalid credentials"},
		{"typed nil rich error", nilRich, "An unknown error occurred."},
		{"rich error without message", &goerrors.Error{}, "An unknown error occurred."},
		{"map with message", map[string]any{"message": "rate limited"}, "rate limited"},
		{"unmarshalable", make(chan int), "An error occurred (failed to parse)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moments.FormatError(tt.in))
		})
	}
}

func TestFormatError_ValidationErrors(t *testing.T) {
	verrs := validation.Errors{"email": errors.New("must be a valid email address")}

	assert.Contains(t, moments.FormatError(verrs), "must be a valid email address")
	assert.Contains(t, moments.FormatError(fmt.Errorf("payload: %w", verrs)), "must be a valid email address")
}

func TestFormatError_RichErrorMetadata(t *testing.T) {
	err := &goerrors.Error{Metadata: map[string]any{"attempts_left": 2}}

	assert.Contains(t, moments.FormatError(err), "attempts_left")
}

func TestFormatError_FallsBackToJSON(t *testing.T) {
	out := moments.FormatError(map[string]any{"errors": []string{"a", "b"}})
	assert.Contains(t, out, `"a"`)
	assert.Contains(t, out, `"b"`)

	assert.Equal(t, "42", moments.FormatError(42))
}
