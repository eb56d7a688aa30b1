// Package schema describes OCPP datatypes as data: composite types with
// ordered fields, enumerations, constrained scalars and the cross-field rules
// that bind sibling fields. Types reference each other by id and are resolved
// through a Registry, so recursive datatypes are representable.
package schema

import (
	"fmt"
	"regexp"

	"github.com/reoring/ocppskema/rules"
)

// Kind classifies a Type.
type Kind int

const (
	KindStruct Kind = iota
	KindMessage
	KindEnum
	KindString
	KindInteger
	KindDecimal
	KindBoolean
	KindDateTime
	KindAny
)

var kindNames = [...]string{
	KindStruct:   "struct",
	KindMessage:  "message",
	KindEnum:     "enum",
	KindString:   "string",
	KindInteger:  "integer",
	KindDecimal:  "decimal",
	KindBoolean:  "boolean",
	KindDateTime: "dateTime",
	KindAny:      "any",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind name as written in catalogue files.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Composite reports whether values of this kind are objects with fields.
func (k Kind) Composite() bool { return k == KindStruct || k == KindMessage }

// Scalar reports whether values of this kind are leaves.
func (k Kind) Scalar() bool { return !k.Composite() && k != KindAny }

// UnknownPolicy controls how members not declared by a composite type are
// handled.
type UnknownPolicy int

const (
	UnknownStrict      UnknownPolicy = iota // report as unknown_key
	UnknownStrip                            // accept, drop on re-encode
	UnknownPassthrough                      // accept, keep on re-encode
)

func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrip:
		return "strip"
	case UnknownPassthrough:
		return "passthrough"
	}
	return "strict"
}

// ParseUnknownPolicy accepts "strict", "strip" and "passthrough".
func ParseUnknownPolicy(s string) (UnknownPolicy, bool) {
	switch s {
	case "", "strict":
		return UnknownStrict, true
	case "strip":
		return UnknownStrip, true
	case "passthrough":
		return UnknownPassthrough, true
	}
	return 0, false
}

// Presence says whether a field must be present.
type Presence int

const (
	Optional Presence = iota
	Required
	Conditional // required when Field.When holds
)

// Constraints are value-level checks applied to a scalar or to each element
// of an array field. Zero values mean unconstrained.
type Constraints struct {
	MinLength int
	MaxLength int
	Pattern   string
	Minimum   *float64
	Maximum   *float64
	Format    string

	re *regexp.Regexp
}

// Regexp returns the compiled pattern, or nil when Pattern is empty.
func (c *Constraints) Regexp() *regexp.Regexp { return c.re }

// IsZero reports whether c carries no checks.
func (c Constraints) IsZero() bool {
	return c.MinLength == 0 && c.MaxLength == 0 && c.Pattern == "" &&
		c.Minimum == nil && c.Maximum == nil && c.Format == ""
}

// Merge returns base overlaid with the non-zero settings of over.
func (c Constraints) Merge(over Constraints) Constraints {
	out := c
	if over.MinLength != 0 {
		out.MinLength = over.MinLength
	}
	if over.MaxLength != 0 {
		out.MaxLength = over.MaxLength
	}
	if over.Pattern != "" {
		out.Pattern, out.re = over.Pattern, over.re
	}
	if over.Minimum != nil {
		out.Minimum = over.Minimum
	}
	if over.Maximum != nil {
		out.Maximum = over.Maximum
	}
	if over.Format != "" {
		out.Format = over.Format
	}
	return out
}

func (c *Constraints) compile() error {
	if c.Pattern == "" || c.re != nil {
		return nil
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", c.Pattern, err)
	}
	c.re = re
	return nil
}

// Field declares one member of a composite type.
type Field struct {
	Name        string
	Type        string // referenced type id
	Description string
	Presence    Presence
	When        rules.Cond // Conditional only

	Array    bool
	MinItems int
	MaxItems int // 0 = unbounded

	Constraints Constraints
}

// Type is an immutable datatype descriptor. Share it by pointer.
type Type struct {
	ID          string
	Kind        Kind
	Action      string // messages only
	Description string

	Fields  []Field
	Rules   []rules.Rule
	Unknown UnknownPolicy

	Values []string // enums, in declaration order

	// Constraints apply to scalar types derived from a builtin, e.g. a
	// currency code string with format iso4217.
	Constraints Constraints

	sealed     bool
	fieldIndex map[string]int
	valueSet   map[string]struct{}
}

// Field looks up a declared field by name.
func (t *Type) Field(name string) (*Field, bool) {
	i, ok := t.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return &t.Fields[i], true
}

// HasValue reports whether token is a member of the enum's value set.
func (t *Type) HasValue(token string) bool {
	_, ok := t.valueSet[token]
	return ok
}

// seal builds lookup indexes and compiles patterns. A sealed type is never
// modified again.
func (t *Type) seal() error {
	if t.sealed {
		return nil
	}
	if t.ID == "" {
		return fmt.Errorf("schema: type without id")
	}
	t.fieldIndex = make(map[string]int, len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("schema: %s: field %d has no name", t.ID, i)
		}
		if _, dup := t.fieldIndex[f.Name]; dup {
			return fmt.Errorf("schema: %s: duplicate field %q", t.ID, f.Name)
		}
		if f.Type == "" {
			return fmt.Errorf("schema: %s.%s: missing type", t.ID, f.Name)
		}
		if f.MaxItems != 0 && f.MaxItems < f.MinItems {
			return fmt.Errorf("schema: %s.%s: maxItems %d < minItems %d", t.ID, f.Name, f.MaxItems, f.MinItems)
		}
		if f.Presence == Conditional && f.When.IsZero() {
			return fmt.Errorf("schema: %s.%s: conditional presence without condition", t.ID, f.Name)
		}
		if err := f.Constraints.compile(); err != nil {
			return fmt.Errorf("schema: %s.%s: %w", t.ID, f.Name, err)
		}
		t.fieldIndex[f.Name] = i
	}
	if err := t.Constraints.compile(); err != nil {
		return fmt.Errorf("schema: %s: %w", t.ID, err)
	}
	t.valueSet = make(map[string]struct{}, len(t.Values))
	for _, v := range t.Values {
		t.valueSet[v] = struct{}{}
	}
	if t.Kind == KindEnum && len(t.Values) == 0 {
		return fmt.Errorf("schema: enum %s has no values", t.ID)
	}
	if t.Kind == KindMessage && t.Action == "" {
		return fmt.Errorf("schema: message %s has no action", t.ID)
	}
	t.sealed = true
	return nil
}
