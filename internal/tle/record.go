// Package tle parses two-line element sets into typed records.
package tle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned by Validate for element lines the propagator
// cannot decode.
var ErrMalformed = errors.New("malformed element set")

// minLineLen is the shortest element line that carries every field the
// propagator reads.
const minLineLen = 69

// Record is a single element set. It is immutable once parsed.
type Record struct {
	Name  string `json:"name" msgpack:"name"`
	Line1 string `json:"line1" msgpack:"line1"`
	Line2 string `json:"line2" msgpack:"line2"`
}

// Key identifies the orbital content of the record independent of its name.
func (r Record) Key() string {
	return r.Line1 + "\n" + r.Line2
}

// CatalogNumber returns the satellite catalog number from line 1, or ""
// when the line is too short.
func (r Record) CatalogNumber() string {
	if len(r.Line1) < 7 {
		return ""
	}
	return strings.TrimSpace(r.Line1[2:7])
}

// MeanMotion returns the mean motion in revolutions per day.
func (r Record) MeanMotion() (float64, bool) {
	if len(r.Line2) < 63 {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(r.Line2[52:63]), 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Period returns the orbital period derived from the mean motion.
func (r Record) Period() (time.Duration, bool) {
	n, ok := r.MeanMotion()
	if !ok {
		return 0, false
	}
	minutes := 1440.0 / n
	return time.Duration(minutes * float64(time.Minute)), true
}

// Epoch returns the reference epoch encoded in line 1.
func (r Record) Epoch() (time.Time, bool) {
	if len(r.Line1) < 32 {
		return time.Time{}, false
	}
	yy, err := strconv.Atoi(strings.TrimSpace(r.Line1[18:20]))
	if err != nil {
		return time.Time{}, false
	}
	days, err := strconv.ParseFloat(strings.TrimSpace(r.Line1[20:32]), 64)
	if err != nil || days < 1 {
		return time.Time{}, false
	}

	// Two-digit years: 57-99 → 1900s, 00-56 → 2000s
	year := 2000 + yy
	if yy >= 57 {
		year = 1900 + yy
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((days - 1) * float64(24*time.Hour))), true
}

// Validate checks that every field the SGP4 decoder reads is present and
// numeric. Records failing validation never reach the propagator.
func (r Record) Validate() error {
	l1, l2 := r.Line1, r.Line2
	if len(l1) < minLineLen || len(l2) < minLineLen {
		return fmt.Errorf("%w: line length %d/%d", ErrMalformed, len(l1), len(l2))
	}
	if l1[0] != '1' || l2[0] != '2' {
		return fmt.Errorf("%w: bad line numbers %q/%q", ErrMalformed, l1[0], l2[0])
	}

	intFields := []string{
		strings.TrimSpace(l1[2:7]),
		l1[18:20],
	}
	for _, f := range intFields {
		if _, err := strconv.ParseInt(f, 10, 0); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	floatFields := []string{
		l1[20:32],
		squeeze(l1[33:43]),
		squeeze(l1[44:45] + "." + l1[45:50] + "e" + l1[50:52]),
		squeeze(l1[53:54] + "." + l1[54:59] + "e" + l1[59:61]),
		squeeze(l2[8:16]),
		squeeze(l2[17:25]),
		squeeze("." + l2[26:33]),
		squeeze(l2[34:42]),
		squeeze(l2[43:51]),
		squeeze(l2[52:63]),
	}
	for _, f := range floatFields {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if _, ok := r.MeanMotion(); !ok {
		return fmt.Errorf("%w: non-positive mean motion", ErrMalformed)
	}
	return nil
}

// squeeze drops the embedded blanks the decoder strips from signed fields.
func squeeze(s string) string {
	return strings.Replace(s, " ", "", 2)
}
