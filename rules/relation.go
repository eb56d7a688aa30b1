package rules

import "fmt"

// RuleKind enumerates the cross-field relations a struct type can declare.
type RuleKind int

const (
	MutuallyExclusive RuleKind = iota
	AtLeastOneOf
	ExactlyOneOf
	Ordered
	ForbiddenUnless
	RequiredWhen
)

func (k RuleKind) String() string {
	switch k {
	case MutuallyExclusive:
		return "mutually_exclusive"
	case AtLeastOneOf:
		return "at_least_one_of"
	case ExactlyOneOf:
		return "exactly_one_of"
	case Ordered:
		return "ordered"
	case ForbiddenUnless:
		return "forbidden_unless"
	case RequiredWhen:
		return "required_when"
	}
	return fmt.Sprintf("rule(%d)", int(k))
}

// Rule is a struct-scoped relation between sibling fields.
type Rule struct {
	Name   string
	Kind   RuleKind
	Fields []string
	Op     Op   // Ordered only
	When   Cond // ForbiddenUnless, RequiredWhen
}

// Violation describes a failed rule. Field is the sibling the diagnostic is
// attached to.
type Violation struct {
	Field   string
	Message string
	Params  map[string]any
}

// Exclusive forbids more than one of fields being present.
func Exclusive(name string, fields ...string) Rule {
	return Rule{Name: name, Kind: MutuallyExclusive, Fields: fields}
}

// AtLeastOne requires at least one of fields to be present.
func AtLeastOne(name string, fields ...string) Rule {
	return Rule{Name: name, Kind: AtLeastOneOf, Fields: fields}
}

// ExactlyOne requires exactly one of fields to be present.
func ExactlyOne(name string, fields ...string) Rule {
	return Rule{Name: name, Kind: ExactlyOneOf, Fields: fields}
}

// Order requires lo op hi when both are present, e.g. Order("window", "start", Le, "end").
func Order(name, lo string, op Op, hi string) Rule {
	return Rule{Name: name, Kind: Ordered, Fields: []string{lo, hi}, Op: op}
}

// Forbid rejects field unless when holds.
func Forbid(name, field string, when Cond) Rule {
	return Rule{Name: name, Kind: ForbiddenUnless, Fields: []string{field}, When: when}
}

// Require demands field whenever when holds. Field-level RequiredIf reports
// the same condition at the field; this form keeps it with the struct rules.
func Require(name, field string, when Cond) Rule {
	return Rule{Name: name, Kind: RequiredWhen, Fields: []string{field}, When: when}
}

// Referenced lists every field name the rule depends on.
func (r Rule) Referenced() []string {
	out := append([]string{}, r.Fields...)
	for _, f := range r.When.Fields() {
		dup := false
		for _, g := range out {
			if g == f {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// Check evaluates r against s. Presence relations hold regardless of
// conversion failures. Value comparisons over an operand that failed
// conversion are skipped; the failure is reported on its own.
func (r Rule) Check(s Scope) (Violation, bool) {
	present := make([]string, 0, len(r.Fields))
	values := make(map[string]any, len(r.Fields))
	has := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		v, ok, err := s.Lookup(f)
		if !ok {
			continue
		}
		has[f] = true
		present = append(present, f)
		if err == nil {
			values[f] = v
		}
	}

	switch r.Kind {
	case MutuallyExclusive:
		if len(present) > 1 {
			return Violation{
				Field:   present[1],
				Message: fmt.Sprintf("%s cannot be combined with %s", present[1], present[0]),
				Params:  map[string]any{"fields": r.Fields, "present": present},
			}, false
		}
	case AtLeastOneOf:
		if len(present) == 0 {
			return Violation{
				Field:   r.Fields[0],
				Message: fmt.Sprintf("at least one of %v is required", r.Fields),
				Params:  map[string]any{"fields": r.Fields},
			}, false
		}
	case ExactlyOneOf:
		if len(present) != 1 {
			field := r.Fields[0]
			if len(present) > 1 {
				field = present[1]
			}
			return Violation{
				Field:   field,
				Message: fmt.Sprintf("exactly one of %v is required, got %d", r.Fields, len(present)),
				Params:  map[string]any{"fields": r.Fields, "present": present},
			}, false
		}
	case Ordered:
		lo, hi := r.Fields[0], r.Fields[1]
		a, okA := values[lo]
		b, okB := values[hi]
		if !okA || !okB {
			return Violation{}, true
		}
		if !compareOrdered(a, r.Op, b) {
			return Violation{
				Field:   hi,
				Message: fmt.Sprintf("%s must satisfy %s %s %s", hi, lo, r.Op, hi),
				Params:  map[string]any{"lo": lo, "hi": hi, "op": r.Op.String(), "lo_value": a, "hi_value": b},
			}, false
		}
	case ForbiddenUnless:
		f := r.Fields[0]
		if !has[f] {
			break
		}
		if holds, failed := r.When.eval(s); !failed && !holds {
			return Violation{
				Field:   f,
				Message: fmt.Sprintf("%s is only allowed when %s", f, r.When),
				Params:  map[string]any{"condition": r.When.String()},
			}, false
		}
	case RequiredWhen:
		f := r.Fields[0]
		if has[f] {
			break
		}
		if holds, failed := r.When.eval(s); !failed && holds {
			return Violation{
				Field:   f,
				Message: fmt.Sprintf("%s is required when %s", f, r.When),
				Params:  map[string]any{"condition": r.When.String()},
			}, false
		}
	}
	return Violation{}, true
}
