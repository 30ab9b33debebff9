package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryStructural Category = "structural"
	CategoryContract   Category = "contract"
	CategoryConfig     Category = "config"
	CategoryPublish    Category = "publish"
	CategorySnapshot   Category = "snapshot"
	CategoryCLI        Category = "cli"
)

// Location represents a position in a source or project file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// FiguraError is a structured error with a code, an optional location and
// a fix suggestion.
type FiguraError struct {
	// Code is a unique error identifier (e.g., "F001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Location is where the error occurred, when it is tied to a file.
	Location *Location

	// Context contains surrounding file lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FiguraError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FiguraError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location and the lines around it.
func (e *FiguraError) WithLocation(file string, line, column int) *FiguraError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FiguraError) WithSuggestion(s string) *FiguraError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *FiguraError) WithDetail(d string) *FiguraError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *FiguraError) WithDetailf(format string, args ...any) *FiguraError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *FiguraError) Wrap(err error) *FiguraError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around targetLine from filename.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a FiguraError from a registered error code.
func New(code string) *FiguraError {
	template, ok := registry[code]
	if !ok {
		return &FiguraError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FiguraError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new FiguraError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FiguraError {
	return &FiguraError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FiguraError.
func FromError(err error, code string) *FiguraError {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FiguraError); ok {
		return fe
	}
	return New(code).Wrap(err)
}
