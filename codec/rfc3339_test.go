package codec

import (
	"testing"
	"time"
)

func TestParseDateTime_Basic(t *testing.T) {
	in := "2025-01-01T00:00:00Z"
	got, err := ParseDateTime(in)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}
	if out := FormatDateTime(got); out != in {
		t.Fatalf("roundtrip mismatch: %s != %s", out, in)
	}
}

func TestParseDateTime_OffsetAndFraction(t *testing.T) {
	got, err := ParseDateTime("2025-06-01T12:30:00.250+02:00")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if s := FormatDateTime(got); s != "2025-06-01T10:30:00.25Z" {
		t.Fatalf("unexpected canonical form: %s", s)
	}
}

func TestParseDateTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "2025-01-01", "2025-13-01T00:00:00Z", "yesterday"} {
		if _, err := ParseDateTime(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
