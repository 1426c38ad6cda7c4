// Package locale parses Spanish-locale date and currency text from the legacy
// procurement sources.
package locale

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parsing errors.
var (
	ErrDateFormat        = errors.New("unrecognized date format")
	ErrUnparseableAmount = errors.New("unparseable amount")
)

// DateFormatError reports a date string the parser could not understand.
type DateFormatError struct {
	Input  string
	Reason string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("unrecognized date format %q: %s", e.Input, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrDateFormat).
func (e *DateFormatError) Unwrap() error {
	return ErrDateFormat
}

// months maps lowercase Spanish month names to their number. Both spellings of
// September appear in the source pages.
var months = map[string]int{
	"enero":      1,
	"febrero":    2,
	"marzo":      3,
	"abril":      4,
	"mayo":       5,
	"junio":      6,
	"julio":      7,
	"agosto":     8,
	"septiembre": 9,
	"setiembre":  9,
	"octubre":    10,
	"noviembre":  11,
	"diciembre":  12,
}

var numericDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)

// ParseAnnouncementDate converts a free-text Spanish date such as
// "3 de enero de 2019" (the "de" connectors are optional and the month may be
// capitalized) or a numeric "DD/MM/YYYY" embedded in surrounding words into
// ISO "YYYY-MM-DD". Callers decide whether a *DateFormatError aborts one
// record or the whole batch.
func ParseAnnouncementDate(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &DateFormatError{Input: text, Reason: "empty input"}
	}

	if m := numericDatePattern.FindStringSubmatch(trimmed); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		return isoDate(text, year, month, day)
	}

	var fields []string

	for _, f := range strings.Fields(trimmed) {
		// Drop the connector words of the long form.
		if strings.EqualFold(f, "de") || strings.EqualFold(f, "del") {
			continue
		}

		fields = append(fields, f)
	}

	if len(fields) != 3 {
		return "", &DateFormatError{Input: text, Reason: "expected day, month and year"}
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", &DateFormatError{Input: text, Reason: "day is not numeric"}
	}

	month, ok := months[strings.ToLower(fields[1])]
	if !ok {
		return "", &DateFormatError{Input: text, Reason: fmt.Sprintf("unknown month %q", fields[1])}
	}

	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", &DateFormatError{Input: text, Reason: "year is not numeric"}
	}

	return isoDate(text, year, month, day)
}

func isoDate(input string, year, month, day int) (string, error) {
	if month < 1 || month > 12 {
		return "", &DateFormatError{Input: input, Reason: "month out of range"}
	}

	if day < 1 || day > daysIn(year, month) {
		return "", &DateFormatError{Input: input, Reason: "day out of range"}
	}

	if year < 1900 || year > 2200 {
		return "", &DateFormatError{Input: input, Reason: "year out of range"}
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

func daysIn(year, month int) int {
	switch month {
	case 2:
		if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
			return 29
		}

		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// amountCleaner removes non-breaking-space artifacts and thousands separators.
var amountCleaner = strings.NewReplacer("&#160;", "", "\u00a0", "", ".", "")

// ParseAmount converts locale-formatted currency text ("." thousands
// separator, "," decimal separator, optional " euros" suffix) into an amount.
//
// A nil result with a nil error means the field is legitimately absent (empty
// or placeholder input). Malformed-but-present text yields 0 together with
// ErrUnparseableAmount: the spreadsheets contain stray artifacts in numeric
// columns and one bad cell must not sink the whole record.
func ParseAmount(text string) (*float64, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" || cleaned == "-" {
		return nil, nil
	}

	lowered := strings.ToLower(cleaned)
	if suffix := strings.Index(lowered, " euros"); suffix >= 0 {
		cleaned = cleaned[:suffix]
	}

	cleaned = amountCleaner.Replace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		zero := 0.0

		return &zero, fmt.Errorf("%w: %q", ErrUnparseableAmount, text)
	}

	return &value, nil
}
