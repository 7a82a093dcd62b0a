/*
dates.go - Slash-delimited date range parsing

PURPOSE:
  Converts the MM/DD/YYYY strings submitted with a leave request into
  naive calendar dates. The parser reassembles the three tokens
  year-first (token[2]-token[0]-token[1]) and parses the result as
  year-month-day, so the first two tokens keep their month/day meaning.

FAILURE MODES:
  - Fewer than three tokens         -> ErrMissingDateTokens (bounds error)
  - Non-numeric / empty / impossible -> ErrInvalidDate (value error)
  Both are wrapped in a DateError carrying the offending input.

NO TIMEZONES:
  Dates are naive calendar dates pinned to UTC midnight. There is no
  timezone concept anywhere in the domain.
*/
package leave

import (
	"strings"
	"time"
)

// dateLayout parses the year-first reassembly. Single-digit layout tokens
// accept both padded and unpadded month/day values.
const dateLayout = "2006-1-2"

// ParseDate converts one slash-delimited date string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	tokens := strings.Split(s, "/")
	if len(tokens) < 3 {
		return time.Time{}, &DateError{Input: s, Err: ErrMissingDateTokens}
	}

	rebuilt := tokens[2] + "-" + tokens[0] + "-" + tokens[1]
	t, err := time.Parse(dateLayout, rebuilt)
	if err != nil {
		return time.Time{}, &DateError{Input: s, Err: ErrInvalidDate}
	}
	return t, nil
}

// ParseDateRange parses a start and end date string into an ordered range.
// The end date must not precede the start date.
func ParseDateRange(startRaw, endRaw string) (start, end time.Time, err error) {
	start, err = ParseDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = ParseDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrEndBeforeStart
	}
	return start, end, nil
}
