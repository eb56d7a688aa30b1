// Package rules holds the predicate language used by conditional requiredness
// and the struct-scoped cross-field rules of schema types.
//
// Conditions and rules are plain data. They are evaluated against a Scope,
// which resolves sibling field names to primitive values: string (also enum
// tokens), int64, float64, bool and time.Time.
package rules

import (
	"fmt"
	"strings"
	"time"
)

// Scope resolves sibling fields of the struct being validated.
// ok is false when the field is absent. err is non-nil when the field is
// present but could not be converted.
type Scope interface {
	Lookup(field string) (v any, ok bool, err error)
}

// Op defines the comparison operators of a condition.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
	In
	Present
	Absent
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "=="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case In:
		return "in"
	case Present:
		return "present"
	case Absent:
		return "absent"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Cond is a boolean expression over sibling fields.
type Cond struct {
	field string
	op    Op
	want  []any
	all   []Cond // composite AND
	any   []Cond // composite OR
	not   []Cond // single negated operand
}

// If builds a condition comparing field against want.
func If(field string, op Op, want any) Cond {
	return Cond{field: field, op: op, want: []any{want}}
}

func Equal(field string, want any) Cond    { return If(field, Eq, want) }
func NotEqual(field string, want any) Cond { return If(field, Ne, want) }

// OneOf holds when field equals any of values.
func OneOf(field string, values ...any) Cond { return Cond{field: field, op: In, want: values} }

// IsPresent holds when field is present in the document.
func IsPresent(field string) Cond { return Cond{field: field, op: Present} }

// IsAbsent holds when field is not present in the document.
func IsAbsent(field string) Cond { return Cond{field: field, op: Absent} }

// IfAll requires all conditions to hold.
func IfAll(conds ...Cond) Cond { return Cond{all: conds} }

// IfAny requires any condition to hold.
func IfAny(conds ...Cond) Cond { return Cond{any: conds} }

// Not negates c.
func Not(c Cond) Cond { return Cond{not: []Cond{c}} }

// And combines the receiver with additional conditions using logical AND.
func (c Cond) And(others ...Cond) Cond { return IfAll(append([]Cond{c}, others...)...) }

// Or combines the receiver with additional conditions using logical OR.
func (c Cond) Or(others ...Cond) Cond { return IfAny(append([]Cond{c}, others...)...) }

// IsZero reports whether c is the empty condition.
func (c Cond) IsZero() bool {
	return c.field == "" && len(c.all) == 0 && len(c.any) == 0 && len(c.not) == 0
}

// Eval evaluates c against s. A value comparison on a field that failed
// conversion makes the whole condition false. Presence tests never convert
// and still apply.
func (c Cond) Eval(s Scope) bool {
	ok, failed := c.eval(s)
	return ok && !failed
}

func (c Cond) eval(s Scope) (result, failed bool) {
	switch {
	case len(c.not) > 0:
		r, f := c.not[0].eval(s)
		return !r, f
	case len(c.all) > 0:
		for _, it := range c.all {
			r, f := it.eval(s)
			if f {
				return false, true
			}
			if !r {
				return false, false
			}
		}
		return true, false
	case len(c.any) > 0:
		for _, it := range c.any {
			r, f := it.eval(s)
			if f {
				return false, true
			}
			if r {
				return true, false
			}
		}
		return false, false
	case c.field == "":
		return true, false
	}
	cur, ok, err := s.Lookup(c.field)
	switch c.op {
	case Present:
		return ok, false
	case Absent:
		return !ok, false
	}
	if err != nil {
		return false, true
	}
	if !ok {
		return false, false
	}
	switch c.op {
	case In:
		for _, w := range c.want {
			if equalValues(cur, w) {
				return true, false
			}
		}
		return false, false
	case Eq:
		return equalValues(cur, c.want[0]), false
	case Ne:
		return !equalValues(cur, c.want[0]), false
	default:
		return compareOrdered(cur, c.op, c.want[0]), false
	}
}

// Fields lists the field names referenced by c, in first-use order.
func (c Cond) Fields() []string {
	var out []string
	seen := map[string]struct{}{}
	var walk func(Cond)
	walk = func(x Cond) {
		if x.field != "" {
			if _, ok := seen[x.field]; !ok {
				seen[x.field] = struct{}{}
				out = append(out, x.field)
			}
		}
		for _, l := range [][]Cond{x.all, x.any, x.not} {
			for _, it := range l {
				walk(it)
			}
		}
	}
	walk(c)
	return out
}

func (c Cond) String() string {
	join := func(list []Cond, sep string) string {
		parts := make([]string, len(list))
		for i, it := range list {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
	switch {
	case len(c.not) > 0:
		return "!" + c.not[0].String()
	case len(c.all) > 0:
		return join(c.all, " && ")
	case len(c.any) > 0:
		return join(c.any, " || ")
	case c.field == "":
		return "true"
	}
	switch c.op {
	case Present, Absent:
		return c.field + " " + c.op.String()
	case In:
		return fmt.Sprintf("%s in %v", c.field, c.want)
	}
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.want[0])
}

// ---- comparison helpers ----

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := toTime(b); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return a == b
}

func compareOrdered(cur any, op Op, want any) bool {
	cmp, ok := compareValues(cur, want)
	if !ok {
		return false
	}
	switch op {
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Gt:
		return cmp > 0
	case Ge:
		return cmp >= 0
	}
	return false
}

// compareValues orders numbers numerically, times chronologically and
// strings lexically. ok is false for incomparable operands.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		tt, err := time.Parse(time.RFC3339Nano, t)
		return tt, err == nil
	}
	return time.Time{}, false
}
