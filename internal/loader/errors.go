package loader

import (
	"errors"
	"fmt"
)

// ParseError represents a bundle document parsing error.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown top-level bundle fields.
type UnknownFieldError struct {
	File  string
	Line  int
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in bundle document", e.Field)
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
		}
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}

// withFile stamps the file name on loader errors.
func withFile(err error, file string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.File = file
		return pe
	}
	var ue *UnknownFieldError
	if errors.As(err, &ue) {
		ue.File = file
		return ue
	}
	return fmt.Errorf("%s: %w", file, err)
}

// withLine stamps a line number on a ParseError that lacks one.
func withLine(err error, line int) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Line == 0 {
		pe.Line = line
	}
	return err
}
