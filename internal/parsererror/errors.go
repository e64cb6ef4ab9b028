// Package parsererror defines the typed errors raised while loading
// dictionaries and templates or parsing receipt fields. None of them escape
// an extraction; they are logged and the affected input is skipped.
package parsererror

import "fmt"

// ParseError represents a field value that could not be parsed.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TemplateError represents a merchant template that failed validation or
// whose pattern did not compile.
type TemplateError struct {
	Merchant string
	Field    string
	Pattern  string
	Err      error
}

func (e *TemplateError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("template '%s' is invalid: %v", e.Merchant, e.Err)
	}
	return fmt.Sprintf("template '%s': invalid %s '%s': %v",
		e.Merchant, e.Field, e.Pattern, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// DocumentError represents a dictionary or template document that could not
// be read or decoded from a source.
type DocumentError struct {
	Source   string
	Document string
	Reason   string
	Err      error
}

func (e *DocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s document '%s': %s: %v", e.Source, e.Document, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s document '%s': %s", e.Source, e.Document, e.Reason)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// InputError represents raw input that is not OCR text at all.
type InputError struct {
	Reason string
	Offset int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input at byte %d: %s", e.Offset, e.Reason)
}
