package document

import "fmt"

// ParseErrorKind classifies why an ingest attempt failed.
type ParseErrorKind string

const (
	ErrUnreadableFile        ParseErrorKind = "unreadable-file"
	ErrNoTextExtracted       ParseErrorKind = "no-text-extracted"
	ErrStructureUnrecognized ParseErrorKind = "structure-unrecognized"
)

// ParseError is fatal to the ingest call. The previously published
// document set must be left intact by callers.
type ParseError struct {
	Kind ParseErrorKind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("parse failed (%s)", e.Kind)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(kind ParseErrorKind, err error) *ParseError {
	return &ParseError{Kind: kind, Err: err}
}
