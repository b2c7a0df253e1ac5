package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node and option identifiers accepted from the outside.
const maxIDLength = 64

// ValidateNodeID validates a node id received from the CLI or HTTP API.
// It only checks shape; whether the node exists is the builder's concern.
//
// Validation rules:
//   - No empty ids
//   - Maximum length of 64 characters
//   - No whitespace or control characters
func ValidateNodeID(id string) error {
	if err := validateIdent(id); err != nil {
		return New(ErrCodeInvalidInput, "node id %s", err.Message)
	}
	return nil
}

// ValidateOptionID validates an option id received from the CLI or HTTP API.
func ValidateOptionID(id string) error {
	if err := validateIdent(id); err != nil {
		return New(ErrCodeInvalidInput, "option id %s", err.Message)
	}
	return nil
}

func validateIdent(s string) *Error {
	if s == "" {
		return New(ErrCodeInvalidInput, "cannot be empty")
	}
	if len(s) > maxIDLength {
		return New(ErrCodeInvalidInput, "too long (max %d characters)", maxIDLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "contains invalid characters: %q", s)
		}
	}
	if strings.ContainsAny(s, "/\\") {
		return New(ErrCodeInvalidInput, "cannot contain path separators")
	}
	return nil
}
