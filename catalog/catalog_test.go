package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/reoring/ocppskema/schema"
)

func TestDefault_LoadsAndIsShared(t *testing.T) {
	a := Default()
	b := Default()
	if a != b {
		t.Fatalf("Default must return the same registry")
	}
	for _, id := range []string{"BootNotificationRequest", "ChargingProfileType", "CustomDataType", "CurrencyCode"} {
		if _, ok := a.Lookup(id); !ok {
			t.Fatalf("missing %s", id)
		}
	}
}

func TestDefault_MessagesComeInPairs(t *testing.T) {
	reg := Default()
	for _, action := range reg.Actions() {
		req, ok := reg.Lookup(RequestType(action))
		if !ok || req.Kind != schema.KindMessage {
			t.Fatalf("%s: request missing", action)
		}
		if _, ok := reg.Lookup(ResponseType(action)); !ok {
			t.Fatalf("%s: response missing", action)
		}
	}
}

func TestDefault_CustomDataIsPassthrough(t *testing.T) {
	cd, _ := Default().Lookup("CustomDataType")
	if cd.Unknown != schema.UnknownPassthrough {
		t.Fatalf("customData must keep vendor members")
	}
}

func TestLoad_WithExtraTypes(t *testing.T) {
	extra := schema.Struct("VendorPayloadType").
		Field("customData", "CustomDataType").
		Field("code", schema.String).Required().MaxLength(8).
		MustBuild()
	reg, err := Load(extra)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := reg.Lookup("VendorPayloadType"); !ok {
		t.Fatalf("extra type not registered")
	}
	if _, ok := Default().Lookup("VendorPayloadType"); ok {
		t.Fatalf("extra type leaked into the default registry")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vendor.yaml")
	doc := `types:
  - id: AcmeMeterType
    fields:
      - {name: serial, type: string, required: true, maxLength: 20}
      - {name: phases, type: integer, minimum: 1, maximum: 3}
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadFiles(path)
	if err != nil {
		t.Fatalf("load files: %v", err)
	}
	if _, ok := reg.Lookup("AcmeMeterType"); !ok {
		t.Fatalf("vendor type not registered")
	}
	if _, ok := reg.Lookup("BootNotificationRequest"); !ok {
		t.Fatalf("embedded catalogue missing")
	}

	if _, err := LoadFiles(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}
