package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/huddle/internal/logger"
)

// Domain sentinels. Callers wrap them with context via %w and test with Is.
var (
	ErrNotFound        = stderrors.New("not found")
	ErrForbidden       = stderrors.New("forbidden")
	ErrConflict        = stderrors.New("already exists")
	ErrGroupFull       = stderrors.New("group is full")
	ErrInvalidInput    = stderrors.New("invalid input")
	ErrEmptyText       = stderrors.New("text is empty")
	ErrUnauthenticated = stderrors.New("missing or invalid identity")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return stderrors.New(text)
}

// Invalid wraps ErrInvalidInput with a field-specific message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
