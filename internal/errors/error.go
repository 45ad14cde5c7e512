package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouting Category = "routing"
	CategoryConfig  Category = "config"
	CategoryStore   Category = "store"
	CategoryCLI     Category = "cli"
	CategoryAPI     Category = "api"
)

// Location represents a position in a source or configuration file.
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

// RouteError is a structured error with location, suggestions, and examples.
type RouteError struct {
	// Code is a unique error identifier (e.g., "R001").
	Code string

	// Category is the error type (routing, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position where the error occurred.
	Location *Location

	// Context contains the surrounding file lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct approach.
	Example string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RouteError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file position to the error.
func (e *RouteError) WithLocation(file string, line, column int) *RouteError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RouteError) WithSuggestion(s string) *RouteError {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *RouteError) WithExample(ex string) *RouteError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *RouteError) WithDetail(d string) *RouteError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *RouteError) Wrap(err error) *RouteError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
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

// New creates a RouteError from a registered error code.
func New(code string) *RouteError {
	template, ok := registry[code]
	if !ok {
		return &RouteError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RouteError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new RouteError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RouteError {
	return &RouteError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a RouteError.
func FromError(err error, code string) *RouteError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*RouteError); ok {
		return re
	}
	return New(code).Wrap(err)
}
