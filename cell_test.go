package ocppskema_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/catalog"
	"github.com/reoring/ocppskema/schema"
)

const bootOK = `{"chargingStation":{"model":"M1","vendorName":"Vendor"},"reason":"PowerUp"}`

func decode(t *testing.T, typeID, data string) *ocppskema.Cell {
	t.Helper()
	c, err := ocppskema.DecodeBytes(context.Background(), catalog.Default(), typeID, []byte(data))
	if err != nil {
		t.Fatalf("decode %s: %v", typeID, err)
	}
	return c
}

func countConversions(t *testing.T) *atomic.Int64 {
	t.Helper()
	var n atomic.Int64
	restore := ocppskema.SetMaterializeHook(func(*ocppskema.Cell) { n.Add(1) })
	t.Cleanup(restore)
	return &n
}

func TestDecode_IsLazy(t *testing.T) {
	n := countConversions(t)
	c := decode(t, "BootNotificationRequest", bootOK)
	if c.State() != ocppskema.Unresolved {
		t.Fatalf("expected unresolved root, got %s", c.State())
	}
	if n.Load() != 0 {
		t.Fatalf("decode must not materialize, got %d conversions", n.Load())
	}
}

func TestMaterialize_Memoized(t *testing.T) {
	n := countConversions(t)
	c := decode(t, "BootNotificationRequest", bootOK)

	v1, err := c.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	v2, _ := c.Materialize()
	v3, _ := c.Materialize()
	if v1 != v2 || v2 != v3 {
		t.Fatalf("expected the same value on every call")
	}
	if n.Load() != 1 {
		t.Fatalf("expected 1 conversion, got %d", n.Load())
	}
	if c.State() != ocppskema.Materialized {
		t.Fatalf("expected materialized, got %s", c.State())
	}
	if !v1.Has("chargingStation") || !v1.Has("reason") {
		t.Fatalf("missing fields: %v", v1.Fields())
	}
}

func TestMaterialize_FailureMemoized(t *testing.T) {
	n := countConversions(t)
	c := decode(t, "BootNotificationRequest", `[1,2]`)
	_, err1 := c.Materialize()
	_, err2 := c.Materialize()
	if err1 == nil || err1 != err2 {
		t.Fatalf("expected the same memoized error, got %v and %v", err1, err2)
	}
	if n.Load() != 1 {
		t.Fatalf("expected 1 conversion, got %d", n.Load())
	}
	if c.State() != ocppskema.Failed {
		t.Fatalf("expected failed, got %s", c.State())
	}
	ds, ok := ocppskema.AsDiagnostics(err1)
	if !ok || ds[0].Kind != ocppskema.TypeMismatch || ds[0].Path != "/" {
		t.Fatalf("unexpected diagnostics: %v", ds)
	}
}

func TestValidate_ShallowDoesNotTouchStructChildren(t *testing.T) {
	n := countConversions(t)
	c := decode(t, "BootNotificationRequest", bootOK)

	rep := c.Validate(ocppskema.Shallow)
	if !rep.IsValid() {
		t.Fatalf("unexpected findings: %s", rep)
	}
	// root and reason
	if n.Load() != 2 {
		t.Fatalf("expected 2 conversions after shallow, got %d", n.Load())
	}
	cs, err := c.Field("chargingStation")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if cs.State() != ocppskema.Unresolved {
		t.Fatalf("chargingStation materialized by shallow validation")
	}

	if !c.Validate(ocppskema.Deep).IsValid() {
		t.Fatalf("deep validation failed")
	}
	// chargingStation, model, vendorName
	if n.Load() != 5 {
		t.Fatalf("expected 5 conversions after deep, got %d", n.Load())
	}
}

func TestValidate_ReportMemoizedPerMode(t *testing.T) {
	n := countConversions(t)
	c := decode(t, "BootNotificationRequest", `{"chargingStation":{"model":1},"reason":"PowerUp"}`)
	s1 := c.Validate(ocppskema.Shallow)
	d1 := c.Validate(ocppskema.Deep)
	before := n.Load()
	s2 := c.Validate(ocppskema.Shallow)
	d2 := c.Validate(ocppskema.Deep)
	if s1 != s2 || d1 != d2 {
		t.Fatalf("reports must be memoized")
	}
	if n.Load() != before {
		t.Fatalf("repeated validation converted again")
	}
	if s1.Len() != 0 || d1.Len() != 2 {
		t.Fatalf("unexpected reports: shallow=%d deep=%d\n%s", s1.Len(), d1.Len(), d1)
	}
}

func TestCell_ConcurrentAccess(t *testing.T) {
	n := countConversions(t)
	c := decode(t, "BootNotificationRequest", bootOK)

	const workers = 32
	var wg sync.WaitGroup
	values := make([]*ocppskema.Value, workers)
	reports := make([]*ocppskema.Report, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			values[i], _ = c.Materialize()
			reports[i] = c.Validate(ocppskema.Deep)
		}(i)
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if values[i] != values[0] || reports[i] != reports[0] {
			t.Fatalf("worker %d observed a different outcome", i)
		}
	}
	if n.Load() != 5 {
		t.Fatalf("expected 5 conversions, got %d", n.Load())
	}
}

func TestCell_Navigation(t *testing.T) {
	c := decode(t, "SetChargingProfileRequest", chargingProfileDoc(`"recurrencyKind":"Daily"`))
	p, err := c.Lookup("/chargingProfile/chargingSchedule/0/chargingSchedulePeriod/0/limit")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.Path().Pointer() != "/chargingProfile/chargingSchedule/0/chargingSchedulePeriod/0/limit" {
		t.Fatalf("unexpected path %s", p.Path())
	}
	v, err := p.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if v.Kind() != ocppskema.ValueDecimal || v.Float() != 11000 {
		t.Fatalf("unexpected limit %v", v.Interface())
	}

	if _, err := c.Field("nope"); err == nil {
		t.Fatalf("expected error for undeclared field")
	}
	if _, err := c.Field("customData"); err == nil {
		t.Fatalf("expected error for absent field")
	}
	if _, err := c.Lookup("/chargingProfile/chargingSchedule/7"); err == nil {
		t.Fatalf("expected out of range error")
	}
	if _, err := c.Lookup("/chargingProfile/chargingSchedule/x"); err == nil {
		t.Fatalf("expected non-index error")
	}
}

func TestMaterialize_UnknownEnumTolerated(t *testing.T) {
	c := decode(t, "BootNotificationRequest", `{"chargingStation":{"model":"M","vendorName":"V"},"reason":"Bogus"}`)
	r, err := c.Lookup("/reason")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	v, err := r.Materialize()
	if err != nil {
		t.Fatalf("unknown enum must materialize: %v", err)
	}
	if e := v.Enum(); e.Token != "Bogus" || e.Known {
		t.Fatalf("unexpected enum value %+v", e)
	}
	rep := c.Validate(ocppskema.Shallow)
	if rep.Len() != 1 {
		t.Fatalf("expected one finding, got %s", rep)
	}
	d, _ := rep.First()
	if d.Kind != ocppskema.UnknownEnumValue || d.Code != ocppskema.CodeInvalidEnum || d.Path != "/reason" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestMaterialize_Scalars(t *testing.T) {
	cases := []struct {
		name     string
		doc      string
		pointer  string
		kind     ocppskema.DiagnosticKind
		code     string
		wantFail bool
	}{
		{name: "integer exponent", doc: `{"evseId":1e1,"chargingProfile":{}}`, pointer: "/evseId"},
		{name: "integer fraction", doc: `{"evseId":1.5,"chargingProfile":{}}`, pointer: "/evseId", wantFail: true, kind: ocppskema.MaterializationFailed, code: ocppskema.CodeInvalidValue},
		{name: "integer overflow", doc: `{"evseId":99999999999999999999,"chargingProfile":{}}`, pointer: "/evseId", wantFail: true, kind: ocppskema.MaterializationFailed, code: ocppskema.CodeOverflow},
		{name: "integer as string", doc: `{"evseId":"1","chargingProfile":{}}`, pointer: "/evseId", wantFail: true, kind: ocppskema.TypeMismatch, code: ocppskema.CodeInvalidType},
		{name: "null", doc: `{"evseId":null,"chargingProfile":{}}`, pointer: "/evseId", wantFail: true, kind: ocppskema.TypeMismatch, code: ocppskema.CodeInvalidType},
		{name: "struct as array", doc: `{"evseId":1,"chargingProfile":[]}`, pointer: "/chargingProfile", wantFail: true, kind: ocppskema.TypeMismatch, code: ocppskema.CodeInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := decode(t, "SetChargingProfileRequest", tc.doc)
			f, err := c.Lookup(tc.pointer)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			_, err = f.Materialize()
			if !tc.wantFail {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			ds, ok := ocppskema.AsDiagnostics(err)
			if !ok {
				t.Fatalf("expected materialization error, got %v", err)
			}
			if ds[0].Kind != tc.kind || ds[0].Code != tc.code || ds[0].Path != tc.pointer {
				t.Fatalf("unexpected diagnostic %+v", ds[0])
			}
		})
	}
}

func TestMaterialize_DateTime(t *testing.T) {
	c := decode(t, "HeartbeatResponse", `{"currentTime":"2025-01-02T03:04:05.5+09:00"}`)
	f, err := c.Field("currentTime")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	v, err := f.Materialize()
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if got := v.Time().UTC().Format("15:04:05.0"); got != "18:04:05.5" {
		t.Fatalf("unexpected time %s", got)
	}
	if v.Text() != "2025-01-02T03:04:05.5+09:00" {
		t.Fatalf("original text lost: %s", v.Text())
	}

	bad := decode(t, "HeartbeatResponse", `{"currentTime":"yesterday"}`)
	rep := bad.Validate(ocppskema.Shallow)
	d, ok := rep.First()
	if !ok || d.Kind != ocppskema.MaterializationFailed || d.Code != ocppskema.CodeInvalidFormat || d.Path != "/currentTime" {
		t.Fatalf("unexpected report %s", rep)
	}
}

// hidingRegistry forgets one type id of the wrapped registry.
type hidingRegistry struct {
	ocppskema.Registry
	hide string
}

func (h hidingRegistry) Lookup(id string) (*schema.Type, bool) {
	if id == h.hide {
		return nil, false
	}
	return h.Registry.Lookup(id)
}

func TestMaterialize_UnresolvedFieldType(t *testing.T) {
	reg := hidingRegistry{Registry: catalog.Default(), hide: "ChargingStationType"}
	c, err := ocppskema.DecodeBytes(context.Background(), reg, "BootNotificationRequest", []byte(bootOK))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cs, err := c.Field("chargingStation")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	_, err = cs.Materialize()
	ds, ok := ocppskema.AsDiagnostics(err)
	if !ok || ds[0].Code != ocppskema.CodeUnknownType || ds[0].Path != "/chargingStation" {
		t.Fatalf("expected unknown type failure, got %v", err)
	}

	rep := c.Validate(ocppskema.Deep)
	d, ok := rep.First()
	if !ok || rep.Len() != 1 || d.Code != ocppskema.CodeUnknownType || d.Kind != ocppskema.MaterializationFailed {
		t.Fatalf("unexpected report %s", rep)
	}
}
