package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Tiny orders web app
var (
	// Configuration errors
	ErrMissingConfig = errors.New("missing configuration")

	// OAuth2 flow errors
	ErrInvalidState  = errors.New("invalid state parameter")
	ErrTokenExchange = errors.New("token exchange failed")
	ErrEmptyToken    = errors.New("token endpoint returned no access token")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidCookie   = errors.New("invalid session cookie")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
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
