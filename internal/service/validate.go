package service

import (
	"errors"
	"strings"
)

var (
	ErrMatchIDRequired  = errors.New("match id is required")
	ErrUserIDRequired   = errors.New("user id is required")
	ErrSlotIDRequired   = errors.New("slot id is required")
	ErrNicknameRequired = errors.New("nickname is required")
)

// requireID fails fast on a missing identifier before any store call.
func requireID(value string, missing error) error {
	if strings.TrimSpace(value) == "" {
		return missing
	}
	return nil
}

// IsValidationError reports whether err is one of the input-guard errors,
// as opposed to a store failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMatchIDRequired) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrSlotIDRequired) ||
		errors.Is(err, ErrNicknameRequired)
}
