package moments

import (
	goerrors "github.com/goliatone/go-errors"
)

const textCodeInvalidTransition = "INVALID_USER_STATE_TRANSITION"

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid user state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

var userStatusTransitions = map[UserStatus]map[UserStatus]struct{}{
	UserStatusPending: {
		UserStatusActive:   {},
		UserStatusDisabled: {},
	},
	UserStatusActive: {
		UserStatusDisabled: {},
	},
	UserStatusDisabled: {
		UserStatusActive: {},
	},
}

// CanTransition reports whether an account in status from may move to to.
// Staying in the same status is always allowed.
func CanTransition(from, to UserStatus) bool {
	if from == "" {
		from = UserStatusPending
	}
	if from == to {
		return true
	}
	_, ok := userStatusTransitions[from][to]
	return ok
}

// ValidateTransition returns an ErrInvalidTransition carrying both statuses
func ValidateTransition(from, to UserStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return goerrors.New(ErrInvalidTransition.Message, goerrors.CategoryValidation).
		WithTextCode(textCodeInvalidTransition).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(to),
		})
}
