// Package parsererror defines the error types reported by the import
// pipeline. Per-row failures are absorbed by the driver; these types only
// cross package boundaries for file-level and pattern-level problems.
package parsererror

import "fmt"

// FileError reports an unreadable or missing input file. It aborts the whole
// import before any row is processed.
type FileError struct {
	FilePath string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("cannot read input file '%s': %v", e.FilePath, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// PatternError reports a user-supplied pattern that failed to compile. The
// extractor treats it as "no match"; the interactive tester surfaces the
// description inline.
type PatternError struct {
	Name    string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid pattern '%s' (%s): %v", e.Name, e.Pattern, e.Err)
	}
	return fmt.Sprintf("invalid pattern '%s': %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// DataExtractionError reports a field that could not be pulled out of a
// payment description even though the pattern itself is valid.
type DataExtractionError struct {
	FieldName string
	Text      string
	Reason    string
}

func (e *DataExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for field '%s': %s (text: '%s')",
		e.FieldName, e.Reason, e.Text)
}

// ValidationError reports a rejected apportionment batch or another
// consistency check failure.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, e.Reason)
}
