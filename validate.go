package ocppskema

import (
	"fmt"
	"unicode/utf8"

	"github.com/reoring/ocppskema/codec"
	"github.com/reoring/ocppskema/rules"
	"github.com/reoring/ocppskema/schema"
)

// Validate checks the cell and returns every finding in traversal order. The
// report for each mode is computed once and memoized. Validation never
// returns an error: materialization failures become diagnostics.
//
// Shallow materializes the cell and its scalar and array children. Deep
// additionally validates every struct-typed descendant.
func (c *Cell) Validate(mode Mode) *Report {
	if mode != Deep {
		mode = Shallow
	}
	if r := c.reports[mode].Load(); r != nil {
		return r
	}
	c.vmu[mode].Lock()
	defer c.vmu[mode].Unlock()
	if r := c.reports[mode].Load(); r != nil {
		return r
	}
	var r *Report
	if mode == Deep {
		r = c.deep()
	} else {
		r = &Report{diags: c.shallow()}
	}
	c.reports[mode].Store(r)
	return r
}

// IsValid is shorthand for Validate(mode).IsValid().
func (c *Cell) IsValid(mode Mode) bool { return c.Validate(mode).IsValid() }

func (c *Cell) shallow() []Diagnostic {
	switch {
	case c.array:
		return c.checkArray()
	case c.composite():
		return c.checkStruct()
	}
	var out []Diagnostic
	c.checkValue(c.constraints(), &out)
	return out
}

func (c *Cell) deep() *Report {
	r := c.Validate(Shallow)
	switch {
	case c.array:
		return r.Merge(c.deepItems()...)
	case c.composite():
		v, err := c.Materialize()
		if err != nil {
			return r
		}
		var nested []*Report
		for i := range c.typ.Fields {
			f := &c.typ.Fields[i]
			child, ok := v.byName[f.Name]
			if !ok {
				continue
			}
			switch {
			case child.array:
				nested = append(nested, child.deepItems()...)
			case child.composite():
				nested = append(nested, child.Validate(Deep))
			}
		}
		return r.Merge(nested...)
	}
	return r
}

// deepItems returns the deep reports of composite elements. Scalar elements
// are covered by the shallow array check.
func (c *Cell) deepItems() []*Report {
	if !c.typ.Kind.Composite() {
		return nil
	}
	v, err := c.Materialize()
	if err != nil {
		return nil
	}
	out := make([]*Report, 0, len(v.items))
	for _, it := range v.items {
		out = append(out, it.Validate(Deep))
	}
	return out
}

func (c *Cell) constraints() schema.Constraints {
	if c.field == nil {
		return c.typ.Constraints
	}
	return c.typ.Constraints.Merge(c.field.Constraints)
}

// checkStruct reports, in order: the struct's own materialization failure,
// field findings in declaration order, rule violations in declaration order
// and unknown members in document order.
func (c *Cell) checkStruct() []Diagnostic {
	v, err := c.Materialize()
	if err != nil {
		return []Diagnostic{materializationDiag(err)}
	}
	var out []Diagnostic
	scope := cellScope{v: v}
	for i := range c.typ.Fields {
		f := &c.typ.Fields[i]
		child, ok := v.byName[f.Name]
		if !ok {
			c.checkAbsent(f, scope, &out)
			continue
		}
		switch {
		case child.array:
			out = append(out, child.checkArray()...)
		case child.composite():
		default:
			child.checkValue(child.constraints(), &out)
		}
	}
	for _, r := range c.typ.Rules {
		viol, ok := r.Check(scope)
		if ok {
			continue
		}
		out = append(out, Diagnostic{
			Path:    c.path.Field(viol.Field).Pointer(),
			Kind:    ConditionalRuleViolation,
			Code:    r.Kind.String(),
			Message: viol.Message,
			Params:  viol.Params,
			Rule:    r.Name,
			Offset:  -1,
		})
	}
	if c.typ.Unknown == schema.UnknownStrict {
		for _, m := range v.unknown {
			out = append(out, Diagnostic{
				Path:    c.path.Field(m.Key).Pointer(),
				Kind:    ConstraintViolation,
				Code:    CodeUnknownKey,
				Message: fmt.Sprintf("unknown field %q in %s", m.Key, c.typ.ID),
				Raw:     rawText(m.Value),
				Params:  map[string]any{"key": m.Key, "type": c.typ.ID},
				Offset:  -1,
			})
		}
	}
	return out
}

func (c *Cell) checkAbsent(f *schema.Field, scope cellScope, out *[]Diagnostic) {
	path := c.path.Field(f.Name).Pointer()
	switch f.Presence {
	case schema.Required:
		*out = append(*out, Diagnostic{
			Path:    path,
			Kind:    MissingRequiredField,
			Code:    CodeRequired,
			Message: fmt.Sprintf("%s is required", f.Name),
			Params:  map[string]any{"field": f.Name},
			Offset:  -1,
		})
	case schema.Conditional:
		if f.When.Eval(scope) {
			*out = append(*out, Diagnostic{
				Path:    path,
				Kind:    ConditionalRuleViolation,
				Code:    CodeRequiredIf,
				Message: fmt.Sprintf("%s is required when %s", f.Name, f.When),
				Params:  map[string]any{"field": f.Name, "condition": f.When.String()},
				Offset:  -1,
			})
		}
	}
}

// checkArray covers the array shape, its cardinality and scalar elements.
func (c *Cell) checkArray() []Diagnostic {
	v, err := c.Materialize()
	if err != nil {
		return []Diagnostic{materializationDiag(err)}
	}
	var out []Diagnostic
	n := len(v.items)
	f := c.field
	switch {
	case n < f.MinItems:
		out = append(out, Diagnostic{
			Path:    c.path.Pointer(),
			Kind:    ConstraintViolation,
			Code:    CodeTooShort,
			Message: fmt.Sprintf("expected at least %d items, got %d", f.MinItems, n),
			Params:  map[string]any{"min": f.MinItems, "actual": n},
			Offset:  -1,
		})
	case f.MaxItems > 0 && n > f.MaxItems:
		out = append(out, Diagnostic{
			Path:    c.path.Pointer(),
			Kind:    ConstraintViolation,
			Code:    CodeTooLong,
			Message: fmt.Sprintf("expected at most %d items, got %d", f.MaxItems, n),
			Params:  map[string]any{"max": f.MaxItems, "actual": n},
			Offset:  -1,
		})
	}
	if c.typ.Kind.Composite() {
		return out
	}
	cons := c.constraints()
	for _, it := range v.items {
		it.checkValue(cons, &out)
	}
	return out
}

// checkValue materializes a leaf and applies enum membership and cons.
func (c *Cell) checkValue(cons schema.Constraints, out *[]Diagnostic) {
	v, err := c.Materialize()
	if err != nil {
		*out = append(*out, materializationDiag(err))
		return
	}
	diag := func(kind DiagnosticKind, code, msg string, params map[string]any) {
		*out = append(*out, Diagnostic{
			Path:    c.path.Pointer(),
			Kind:    kind,
			Code:    code,
			Message: msg,
			Raw:     rawText(c.node),
			Params:  params,
			Offset:  -1,
		})
	}

	switch v.kind {
	case ValueEnum:
		if !v.enum.Known {
			diag(UnknownEnumValue, CodeInvalidEnum,
				fmt.Sprintf("%q is not a value of %s", v.enum.Token, c.typ.ID),
				map[string]any{"value": v.enum.Token, "type": c.typ.ID, "allowed": c.typ.Values})
		}
	case ValueString:
		n := utf8.RuneCountInString(v.str)
		if cons.MinLength > 0 && n < cons.MinLength {
			diag(ConstraintViolation, CodeTooShort,
				fmt.Sprintf("length %d is shorter than %d", n, cons.MinLength),
				map[string]any{"min": cons.MinLength, "actual": n})
		}
		if cons.MaxLength > 0 && n > cons.MaxLength {
			diag(ConstraintViolation, CodeTooLong,
				fmt.Sprintf("length %d exceeds %d", n, cons.MaxLength),
				map[string]any{"max": cons.MaxLength, "actual": n})
		}
		if re := cons.Regexp(); re != nil && !re.MatchString(v.str) {
			diag(ConstraintViolation, CodePattern,
				fmt.Sprintf("value does not match %s", cons.Pattern),
				map[string]any{"pattern": cons.Pattern})
		}
	case ValueInteger, ValueDecimal:
		x := v.Float()
		if cons.Minimum != nil && x < *cons.Minimum {
			diag(ConstraintViolation, CodeTooSmall,
				fmt.Sprintf("%s is less than %v", v.Text(), *cons.Minimum),
				map[string]any{"min": *cons.Minimum, "actual": v.Text()})
		}
		if cons.Maximum != nil && x > *cons.Maximum {
			diag(ConstraintViolation, CodeTooBig,
				fmt.Sprintf("%s is greater than %v", v.Text(), *cons.Maximum),
				map[string]any{"max": *cons.Maximum, "actual": v.Text()})
		}
	}

	if cons.Format != "" && (v.kind == ValueString || v.kind == ValueDateTime) {
		if err := codec.CheckFormat(cons.Format, v.Text()); err != nil {
			diag(ConstraintViolation, CodeInvalidFormat,
				fmt.Sprintf("not a valid %s: %v", cons.Format, err),
				map[string]any{"format": cons.Format})
		}
	}
}

func materializationDiag(err error) Diagnostic {
	if me, ok := err.(*MaterializationError); ok {
		return me.Diagnostic()
	}
	return Diagnostic{Path: "/", Kind: MaterializationFailed, Code: CodeInvalidValue, Message: err.Error(), Offset: -1}
}

// cellScope exposes a materialized struct's siblings to conditions and rules.
// Composite and array siblings report presence only and are not materialized.
type cellScope struct {
	v *Value
}

var _ rules.Scope = cellScope{}

func (s cellScope) Lookup(field string) (any, bool, error) {
	child, ok := s.v.byName[field]
	if !ok {
		return nil, false, nil
	}
	if child.array || child.composite() {
		return nil, true, nil
	}
	v, err := child.Materialize()
	if err != nil {
		return nil, true, err
	}
	return v.Interface(), true, nil
}
