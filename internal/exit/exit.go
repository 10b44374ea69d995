package exit

import (
	"fmt"
	"io"
)

// Process exit codes.
const (
	CodeSuccess = 0
	CodeFailure = 1 // input, parse or write failure during a run
	CodeUsage   = 2 // invalid configuration, detected before any input is read
)

// Result is a message and exit code to terminate the program with.
type Result struct {
	ExitCode int
	Message  string
	Stderr   bool
}

// Print writes the message to stderr for error results and stdout otherwise.
func (r *Result) Print(stdout, stderr io.Writer) {
	w := stdout
	if r.Stderr {
		w = stderr
	}
	fmt.Fprint(w, r.Message)
}

// Success creates a result printed on stdout with exit code 0.
func Success(message string) *Result {
	return &Result{
		ExitCode: CodeSuccess,
		Message:  message,
	}
}

// Error creates a result printed on stderr with exit code 1.
func Error(message string) *Result {
	return &Result{
		ExitCode: CodeFailure,
		Message:  message,
		Stderr:   true,
	}
}

// Errorf creates an error result with formatted message.
func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usagef creates a configuration error result with exit code 2.
func Usagef(format string, a ...any) *Result {
	return &Result{
		ExitCode: CodeUsage,
		Message:  fmt.Sprintf(format, a...),
		Stderr:   true,
	}
}
