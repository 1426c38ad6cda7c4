package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// Extraction error classes. File-level and document-level failures wrap these
// sentinels so the multi-file driver can skip past them without aborting the
// run.
var (
	ErrSourceFormat      = errors.New("source file has unexpected format")
	ErrMalformedTable    = errors.New("award results table has unexpected shape")
	ErrUnexpectedContent = errors.New("detail page has unexpected content")
)

// SourceFormatError reports a CSV file whose header row does not carry the
// expected legacy columns. The whole file is skipped: a garbled export must
// not produce zero-value records mixed in with valid ones.
type SourceFormatError struct {
	File           string
	MissingHeaders []string
}

func (e *SourceFormatError) Error() string {
	msg := "source file has unexpected format"
	if e.File != "" {
		msg += ": " + e.File
	}

	if len(e.MissingHeaders) > 0 {
		msg += ": missing headers " + strings.Join(e.MissingHeaders, ", ")
	}

	return msg
}

func (e *SourceFormatError) Unwrap() error {
	return ErrSourceFormat
}

// MalformedTableError reports an award-results table that does not match the
// expected shape. It is fatal for the single document: a guessed partial
// awardee total is worse than no record at all.
type MalformedTableError struct {
	CID    string
	Reason string
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("award results table has unexpected shape (cid %s): %s", e.CID, e.Reason)
}

func (e *MalformedTableError) Unwrap() error {
	return ErrMalformedTable
}

// UnexpectedContentError reports detail-page content that is neither a
// labeled field nor a known table. Fatal for the single document.
type UnexpectedContentError struct {
	CID    string
	Reason string
}

func (e *UnexpectedContentError) Error() string {
	return fmt.Sprintf("detail page has unexpected content (cid %s): %s", e.CID, e.Reason)
}

func (e *UnexpectedContentError) Unwrap() error {
	return ErrUnexpectedContent
}
