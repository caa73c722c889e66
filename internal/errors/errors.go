package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages. Provider-side failures carry
// their own types in the llm package; only cross-package conditions
// live here.
var (
	ErrMissingToken        = errors.New("API token is required")
	ErrUpstreamUnavailable = errors.New("upstream API unavailable")
	ErrUpstreamAuth        = errors.New("upstream API rejected credentials")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
