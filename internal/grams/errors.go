package grams

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated is returned by actions that need a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrNotFound is returned when no gram has the requested id.
	ErrNotFound = errors.New("gram not found")
	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists the rejected fields and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
