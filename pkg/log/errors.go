package log

import (
	"errors"
	"fmt"
)

// ConfigurationError reports invalid construction arguments, such as a
// decorator without an underlying sink.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Component, e.Reason)
}

// FormattingError reports a template that cannot be applied to its
// arguments.
type FormattingError struct {
	Template string
	Err      error
}

func (e *FormattingError) Error() string {
	return fmt.Sprintf("formatting %q: %v", e.Template, e.Err)
}

func (e *FormattingError) Unwrap() error {
	return e.Err
}

// BackendUnavailableError reports a backend that could not be initialized.
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("log backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsFormatting reports whether err is or wraps a FormattingError.
func IsFormatting(err error) bool {
	var target *FormattingError
	return errors.As(err, &target)
}

// IsBackendUnavailable reports whether err is or wraps a
// BackendUnavailableError.
func IsBackendUnavailable(err error) bool {
	var target *BackendUnavailableError
	return errors.As(err, &target)
}
