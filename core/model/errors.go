package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every ConfigurationError through errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports an invalid bound, initial state or input series
// detected before any solver call.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// Is lets callers match any ConfigurationError with ErrInvalidConfig.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
