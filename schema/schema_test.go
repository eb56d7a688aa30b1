package schema_test

import (
	"strings"
	"testing"

	"github.com/reoring/ocppskema/rules"
	"github.com/reoring/ocppskema/schema"
)

func TestBuilder_StructAndRegistry(t *testing.T) {
	status := schema.Struct("StatusInfoType").
		Field("reasonCode", schema.String).Required().MaxLength(20).
		Field("additionalInfo", schema.String).MaxLength(1024).
		MustBuild()
	reason := schema.Enum("BootReasonEnumType", "PowerUp", "Watchdog")
	msg := schema.Message("BootNotificationRequest", "BootNotification").
		Field("reason", "BootReasonEnumType").Required().
		Field("statusInfo", "StatusInfoType").
		MustBuild()

	reg, err := schema.NewRegistry(status, reason.MustBuild(), msg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	got, ok := reg.Lookup("StatusInfoType")
	if !ok || got != status {
		t.Fatalf("lookup returned %v %v", got, ok)
	}
	f, ok := got.Field("reasonCode")
	if !ok || f.Presence != schema.Required || f.Constraints.MaxLength != 20 {
		t.Fatalf("unexpected field: %+v", f)
	}
	if _, ok := reg.Lookup(schema.DateTime); !ok {
		t.Fatalf("builtin dateTime missing")
	}
	if acts := reg.Actions(); len(acts) != 1 || acts[0] != "BootNotification" {
		t.Fatalf("unexpected actions: %v", acts)
	}
}

func TestNewRegistry_ReportsAllProblems(t *testing.T) {
	bad := &schema.Type{
		ID:   "Broken",
		Kind: schema.KindStruct,
		Fields: []schema.Field{
			{Name: "a", Type: "Missing"},
			{Name: "b", Type: schema.String, Constraints: schema.Constraints{Format: "nope"}},
		},
		Rules: []rules.Rule{rules.AtLeastOne("r", "a", "ghost")},
	}
	_, err := schema.NewRegistry(bad)
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	for _, want := range []string{`unknown type "Missing"`, `unknown format "nope"`, `unknown field "ghost"`} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q does not mention %s", msg, want)
		}
	}
}

func TestBuilder_Errors(t *testing.T) {
	if _, err := schema.Struct("X").Required().Build(); err == nil {
		t.Fatalf("expected error for Required without field")
	}
	if _, err := schema.Struct("X").Field("a", schema.String).Pattern("(").Build(); err == nil {
		t.Fatalf("expected error for invalid pattern")
	}
	if _, err := schema.Enum("E").Build(); err == nil {
		t.Fatalf("expected error for empty enum")
	}
	if _, err := schema.Struct("X").Field("a", schema.String).Field("a", schema.Integer).Build(); err == nil {
		t.Fatalf("expected error for duplicate field")
	}
	if _, err := schema.Scalar("S", schema.KindStruct).Build(); err == nil {
		t.Fatalf("expected error for non-scalar kind")
	}
}

func TestRegistry_ConditionMustNameSibling(t *testing.T) {
	tp := schema.Struct("X").
		Field("a", schema.String).RequiredIf(rules.IsPresent("ghost")).
		MustBuild()
	if _, err := schema.NewRegistry(tp); err == nil {
		t.Fatalf("expected error for condition on unknown sibling")
	}
}

func TestRegistry_RuleArity(t *testing.T) {
	cases := []struct {
		name string
		rule rules.Rule
	}{
		{"ordered with one field", rules.Rule{Name: "o", Kind: rules.Ordered, Fields: []string{"a"}, Op: rules.Le}},
		{"ordered with three fields", rules.Rule{Name: "o", Kind: rules.Ordered, Fields: []string{"a", "b", "c"}, Op: rules.Le}},
		{"forbid with two fields", rules.Rule{Name: "f", Kind: rules.ForbiddenUnless, Fields: []string{"a", "b"}, When: rules.IsPresent("c")}},
		{"require with no fields", rules.Rule{Name: "r", Kind: rules.RequiredWhen, When: rules.IsPresent("c")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tp := schema.Struct("X").
				Field("a", schema.Integer).
				Field("b", schema.Integer).
				Field("c", schema.Integer).
				Rule(tc.rule).
				MustBuild()
			if _, err := schema.NewRegistry(tp); err == nil {
				t.Fatalf("expected arity error")
			}
		})
	}

	ok := schema.Struct("X").
		Field("a", schema.Integer).
		Field("b", schema.Integer).
		Rule(rules.Order("o", "a", rules.Le, "b")).
		Rule(rules.Exclusive("x", "a", "b")).
		MustBuild()
	if _, err := schema.NewRegistry(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	src := `
types:
  - id: ChargingProfilePurposeEnumType
    kind: enum
    values: [TxDefaultProfile, TxProfile]
  - id: CurrencyCode
    kind: string
    maxLength: 3
    format: iso4217
  - id: ChargingProfileType
    unknown: passthrough
    fields:
      - {name: id, type: integer, required: true}
      - {name: chargingProfilePurpose, type: ChargingProfilePurposeEnumType, required: true}
      - {name: transactionId, type: string, maxLength: 36}
      - name: limits
        type: decimal
        array: true
        minItems: 1
        maxItems: 3
        minimum: 0
      - name: validFrom
        type: dateTime
      - name: validTo
        type: dateTime
        requiredIf: {field: validFrom, op: present}
    rules:
      - name: txOnly
        kind: forbidden_unless
        fields: [transactionId]
        when: {field: chargingProfilePurpose, value: TxProfile}
      - name: validity
        kind: ordered
        fields: [validFrom, validTo]
        op: "<="
`
	types, err := schema.LoadYAML([]byte(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	reg, err := schema.NewRegistry(types...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cp, _ := reg.Lookup("ChargingProfileType")
	if cp.Unknown != schema.UnknownPassthrough {
		t.Fatalf("unknown policy not loaded")
	}
	lim, _ := cp.Field("limits")
	if !lim.Array || lim.MinItems != 1 || lim.MaxItems != 3 || lim.Constraints.Minimum == nil || *lim.Constraints.Minimum != 0 {
		t.Fatalf("unexpected limits field: %+v", lim)
	}
	vt, _ := cp.Field("validTo")
	if vt.Presence != schema.Conditional || vt.When.String() != "validFrom present" {
		t.Fatalf("unexpected validTo: %+v", vt)
	}
	if len(cp.Rules) != 2 || cp.Rules[0].Kind != rules.ForbiddenUnless || cp.Rules[1].Op != rules.Le {
		t.Fatalf("unexpected rules: %+v", cp.Rules)
	}
	cur, _ := reg.Lookup("CurrencyCode")
	if cur.Kind != schema.KindString || cur.Constraints.Format != "iso4217" {
		t.Fatalf("unexpected scalar: %+v", cur)
	}
}

func TestLoadYAML_RejectsUnknownKeys(t *testing.T) {
	if _, err := schema.LoadYAML([]byte("types:\n  - id: X\n    fieldz: []\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := schema.LoadYAML([]byte("types:\n  - id: X\n    kind: blob\n")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestConstraints_Merge(t *testing.T) {
	lo := 1.0
	base := schema.Constraints{MaxLength: 3, Format: "iso4217"}
	got := base.Merge(schema.Constraints{MaxLength: 5, Minimum: &lo})
	if got.MaxLength != 5 || got.Format != "iso4217" || got.Minimum == nil {
		t.Fatalf("unexpected merge: %+v", got)
	}
}
