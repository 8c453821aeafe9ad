package tle

import (
	"strings"
)

// DefaultMaxRecords bounds the catalog to the most recent element sets.
const DefaultMaxRecords = 1000

// Parse splits raw text into element sets. Non-empty trimmed lines are
// consumed in groups of three (name, line 1, line 2); a trailing incomplete
// group is discarded. When max > 0 only the last max records are kept.
// Empty input yields an empty slice, never an error.
func Parse(text string, max int) []Record {
	lines := nonEmptyLines(text)

	records := make([]Record, 0, len(lines)/3)
	for i := 0; i+2 < len(lines); i += 3 {
		records = append(records, Record{
			Name:  lines[i],
			Line1: lines[i+1],
			Line2: lines[i+2],
		})
	}

	if max > 0 && len(records) > max {
		records = records[len(records)-max:]
	}
	return records
}

// ParseElementSet parses a single element set given either in two-line form
// (the name is supplied by the caller) or in three-line form (the first line
// names the object).
func ParseElementSet(text, name string) (Record, bool) {
	lines := nonEmptyLines(text)
	switch {
	case len(lines) >= 2 && isElementLine(lines[0], '1') && isElementLine(lines[1], '2'):
		return Record{Name: name, Line1: lines[0], Line2: lines[1]}, true
	case len(lines) >= 3:
		return Record{Name: lines[0], Line1: lines[1], Line2: lines[2]}, true
	default:
		return Record{}, false
	}
}

// SplitValid partitions records into those that pass Validate and the count
// of dropped ones.
func SplitValid(records []Record) ([]Record, int) {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Validate() == nil {
			valid = append(valid, r)
		}
	}
	return valid, len(records) - len(valid)
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func isElementLine(line string, number byte) bool {
	return len(line) > 1 && line[0] == number && line[1] == ' '
}
