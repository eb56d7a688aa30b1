// Package codec holds the string codecs and format checkers used by
// materialization and validation.
package codec

import (
	"fmt"
	"time"
)

// ParseDateTime parses an RFC 3339 date-time. Fractional seconds are optional.
func ParseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, fmt.Errorf("codec: invalid RFC3339 date-time %q", s)
	}
	return t, nil
}

// FormatDateTime renders t in canonical form: UTC, RFC3339Nano with trailing
// zeros trimmed.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
