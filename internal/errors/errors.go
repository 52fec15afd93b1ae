// Package errors defines the CLI-facing error taxonomy: every error the
// waveorc command line surfaces is categorized so the user immediately
// knows whether it is their mistake (Argument, Configuration), an
// environment problem (Prerequisite), or an orchestrator failure
// (Runtime).
package errors

// ErrorCategory classifies a CLIError for display and exit-code mapping.
type ErrorCategory int

const (
	// Argument: the user passed a bad flag or positional argument.
	Argument ErrorCategory = iota
	// Configuration: the loaded configuration is invalid or incomplete.
	Configuration
	// Prerequisite: something the command needs (a file, a binary, a
	// git repo) is missing.
	Prerequisite
	// Runtime: the orchestrator itself failed while running.
	Runtime
)

// String renders the category's display heading.
func (c ErrorCategory) String() string {
	switch c {
	case Argument:
		return "Argument Error"
	case Configuration:
		return "Configuration Error"
	case Prerequisite:
		return "Prerequisite Error"
	case Runtime:
		return "Runtime Error"
	default:
		return "Error"
	}
}

// CLIError is a structured, user-facing error: a category, the message
// itself, optional remediation steps, and optional command usage text.
type CLIError struct {
	Category    ErrorCategory
	Message     string
	Remediation []string
	Usage       string
}

// Error implements the error interface with just the message, so
// CLIError composes cleanly with %w and errors.Is/As; FormatError is
// what produces the full user-facing rendering.
func (e *CLIError) Error() string {
	return e.Message
}

// NewArgumentError builds an Argument-category error with remediation
// steps.
func NewArgumentError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Argument, Message: message, Remediation: remediation}
}

// NewArgumentErrorWithUsage builds an Argument-category error that also
// carries the command's usage string.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	return &CLIError{Category: Argument, Message: message, Usage: usage, Remediation: remediation}
}

// NewConfigError builds a Configuration-category error.
func NewConfigError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Configuration, Message: message, Remediation: remediation}
}

// NewPrerequisiteError builds a Prerequisite-category error.
func NewPrerequisiteError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Prerequisite, Message: message, Remediation: remediation}
}

// NewRuntimeError builds a Runtime-category error, typically wrapping
// an underlying error from the wave engine.
func NewRuntimeError(message string, remediation ...string) *CLIError {
	return &CLIError{Category: Runtime, Message: message, Remediation: remediation}
}

// Wrap lifts an existing error into a CLIError under category, keeping
// its message unchanged. Returns nil for a nil err so callers can wrap
// inline without an extra nil check.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{Category: category, Message: err.Error(), Remediation: remediation}
}

// WrapWithMessage is Wrap but prefixes message ahead of err's own
// message, separated by ": ".
func WrapWithMessage(err error, category ErrorCategory, message string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{Category: category, Message: message + ": " + err.Error()}
}

// IsCLIError reports whether err is a *CLIError. Wrapped errors are not
// unwrapped.
func IsCLIError(err error) bool {
	_, ok := err.(*CLIError)
	return ok
}

// AsCLIError returns err as a *CLIError, or nil if it is not one.
func AsCLIError(err error) *CLIError {
	if ce, ok := err.(*CLIError); ok {
		return ce
	}
	return nil
}
