package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	colorHeading = color.New(color.FgRed, color.Bold)
	colorUsage   = color.New(color.FgYellow)
	colorStep    = color.New(color.FgCyan)
)

// FormatError renders err for a color-capable terminal: a category
// heading, the message, a Usage section if present, and a "To fix
// this:" remediation list if present. Returns "" for a nil err.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintln(&b, colorHeading.Sprintf("%s: %s", err.Category.String(), err.Message))
	if err.Usage != "" {
		fmt.Fprintln(&b, colorUsage.Sprint("Usage:"))
		fmt.Fprintf(&b, "  %s\n", err.Usage)
	}
	if len(err.Remediation) > 0 {
		fmt.Fprintln(&b, colorStep.Sprint("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	return b.String()
}

// FormatErrorPlain renders err the same way as FormatError but with no
// ANSI escape codes, for log files and non-tty output.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", err.Category.String(), err.Message)
	if err.Usage != "" {
		fmt.Fprintln(&b, "Usage:")
		fmt.Fprintf(&b, "  %s\n", err.Usage)
	}
	if len(err.Remediation) > 0 {
		fmt.Fprintln(&b, "To fix this:")
		for _, step := range err.Remediation {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	return b.String()
}

// PrintError writes err's colored rendering to stderr. No-op on nil.
func PrintError(err *CLIError) {
	if err == nil {
		return
	}
	fmt.Fprint(os.Stderr, FormatError(err))
}

// FprintError writes err's colored rendering to w. No-op on nil.
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}

// FormatSimpleError wraps an arbitrary error with a category heading,
// for errors that never went through the CLIError constructors.
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s\n", category.String(), err.Error())
}
