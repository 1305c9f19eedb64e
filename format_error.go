package moments

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

const (
	unknownErrorMessage = "An unknown error occurred."
	unparsableErrorMsg  = "An error occurred (failed to parse)."
)

// FormatError extracts a message suitable for an error banner from
// whatever a failed operation produced.
func FormatError(err any) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = unparsableErrorMsg
		}
	}()

	switch e := err.(type) {
	case nil:
		return unknownErrorMessage
	case string:
		if e == "" {
			return unknownErrorMessage
		}
		return e
	case validation.Errors:
		return stringify(e)
	case *errors.Error:
		if e == nil {
			return unknownErrorMessage
		}
		if e.Message != "" {
			return e.Message
		}
		if len(e.Metadata) > 0 {
			return stringify(e.Metadata)
		}
		return unknownErrorMessage
	case error:
		var verrs validation.Errors
		if errors.As(e, &verrs) {
			return stringify(verrs)
		}
		if m := e.Error(); m != "" {
			return m
		}
		return fmt.Sprintf("%v", e)
	case map[string]any:
		if m, ok := e["message"]; ok && m != nil {
			return fmt.Sprint(m)
		}
		if m, ok := e["errors"]; ok && m != nil {
			return stringify(m)
		}
	}

	return stringify(err)
}

func stringify(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return unparsableErrorMsg
	}
	return string(out)
}
