package ocppskema_test

import (
	"testing"

	"github.com/reoring/ocppskema"
)

func TestDetectDuplicateKeys_NoDup(t *testing.T) {
	ds, err := ocppskema.DetectDuplicateKeys([]byte(`{"a":1,"b":2}`), -1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(ds) != 0 {
		t.Fatalf("expected 0 diagnostics, got %d: %v", len(ds), ds)
	}
}

func TestDetectDuplicateKeys_ReportsEach(t *testing.T) {
	ds, err := ocppskema.DetectDuplicateKeys([]byte(`{"a":1,"a":2,"b":{"c":1,"c":2}}`), -1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d: %v", len(ds), ds)
	}
	if ds[0].Code != ocppskema.CodeDuplicateKey || ds[0].Path != "/a" {
		t.Fatalf("unexpected first diagnostic: %+v", ds[0])
	}
	if ds[1].Path != "/b/c" {
		t.Fatalf("expected /b/c, got %s", ds[1].Path)
	}
}

func TestDetectDuplicateKeys_Cap(t *testing.T) {
	ds, err := ocppskema.DetectDuplicateKeys([]byte(`{"a":1,"a":2,"a":3}`), 1)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(ds) != 1 {
		t.Fatalf("expected cap of 1, got %d", len(ds))
	}
}

func TestDetectDuplicateKeys_Malformed(t *testing.T) {
	if _, err := ocppskema.DetectDuplicateKeys([]byte(`{"a":`), -1); err == nil {
		t.Fatalf("expected parse error")
	}
}
