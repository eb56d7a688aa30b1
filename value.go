package ocppskema

import (
	"time"

	"github.com/reoring/ocppskema/document"
	"github.com/reoring/ocppskema/schema"
)

// ValueKind classifies a materialized Value.
type ValueKind int

const (
	ValueStruct ValueKind = iota
	ValueArray
	ValueEnum
	ValueString
	ValueInteger
	ValueDecimal
	ValueBoolean
	ValueDateTime
	ValueAny
)

// EnumValue is a materialized enumeration member. Unknown tokens are kept
// with Known false and flagged only at validation.
type EnumValue struct {
	Token string
	Known bool
}

// Value is the typed, immutable result of materializing a cell. Composite
// values hold child cells, which are materialized on demand.
type Value struct {
	kind ValueKind
	typ  *schema.Type
	node *document.Node

	// struct
	fields  []*Cell // present declared fields, document order
	byName  map[string]*Cell
	unknown []document.Member

	// array
	items []*Cell

	// scalars
	str  string
	i    int64
	f    float64
	b    bool
	t    time.Time
	enum EnumValue
}

func (v *Value) Kind() ValueKind { return v.kind }

// Type returns the schema type of the value. For arrays it is the element type.
func (v *Value) Type() *schema.Type { return v.typ }

// Fields returns the present declared fields in document order.
func (v *Value) Fields() []*Cell { return append([]*Cell(nil), v.fields...) }

// Field returns the child cell of a present declared field.
func (v *Value) Field(name string) (*Cell, bool) {
	c, ok := v.byName[name]
	return c, ok
}

// Has reports whether the declared field is present.
func (v *Value) Has(name string) bool {
	_, ok := v.byName[name]
	return ok
}

// Unknown returns members not declared by the type, in document order.
func (v *Value) Unknown() []document.Member { return append([]document.Member(nil), v.unknown...) }

// Len returns the number of array elements, or of present fields for structs.
func (v *Value) Len() int {
	if v.kind == ValueArray {
		return len(v.items)
	}
	return len(v.fields)
}

// Items returns the element cells of an array value.
func (v *Value) Items() []*Cell { return append([]*Cell(nil), v.items...) }

// Item returns element i of an array value.
func (v *Value) Item(i int) (*Cell, bool) {
	if i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// Str returns the string payload of string values.
func (v *Value) Str() string { return v.str }

// Int returns the payload of integer values.
func (v *Value) Int() int64 { return v.i }

// Float returns the payload of decimal values, or the integer widened.
func (v *Value) Float() float64 {
	if v.kind == ValueInteger {
		return float64(v.i)
	}
	return v.f
}

func (v *Value) Bool() bool { return v.b }

// Time returns the payload of dateTime values.
func (v *Value) Time() time.Time { return v.t }

// Enum returns the payload of enum values.
func (v *Value) Enum() EnumValue { return v.enum }

// Text returns the original wire text of a scalar: the number literal, the
// string, the enum token or the date-time as received.
func (v *Value) Text() string {
	switch v.kind {
	case ValueInteger, ValueDecimal, ValueString, ValueDateTime:
		return v.node.Text()
	case ValueEnum:
		return v.enum.Token
	case ValueBoolean:
		if v.b {
			return "true"
		}
		return "false"
	}
	return ""
}

// Raw returns the node the value was materialized from.
func (v *Value) Raw() *document.Node { return v.node }

// Interface returns the scalar payload as a plain Go value: string for
// strings and enum tokens, int64, float64, bool, time.Time, or the raw
// node for any. Composite values return nil.
func (v *Value) Interface() any {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueEnum:
		return v.enum.Token
	case ValueInteger:
		return v.i
	case ValueDecimal:
		return v.f
	case ValueBoolean:
		return v.b
	case ValueDateTime:
		return v.t
	case ValueAny:
		return v.node
	}
	return nil
}
