package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/reoring/ocppskema/codec"
	"github.com/reoring/ocppskema/rules"
)

// Registry resolves type ids. Implementations must be safe for concurrent
// readers and must not change after construction.
type Registry interface {
	Lookup(id string) (*Type, bool)
}

// Builtin type ids installed by NewRegistry.
const (
	String   = "string"
	Integer  = "integer"
	Decimal  = "decimal"
	Boolean  = "boolean"
	DateTime = "dateTime"
	Any      = "any"
)

func builtins() []*Type {
	return []*Type{
		{ID: String, Kind: KindString},
		{ID: Integer, Kind: KindInteger},
		{ID: Decimal, Kind: KindDecimal},
		{ID: Boolean, Kind: KindBoolean},
		{ID: DateTime, Kind: KindDateTime},
		{ID: Any, Kind: KindAny},
	}
}

// Catalog is the immutable Registry built by NewRegistry.
type Catalog struct {
	types map[string]*Type
	ids   []string
}

// NewRegistry validates the type graph and returns an immutable catalogue.
// Every field type must resolve, every rule and condition must name declared
// fields, and every format must be known to codec. All problems are
// reported together.
func NewRegistry(types ...*Type) (*Catalog, error) {
	c := &Catalog{types: make(map[string]*Type, len(types)+6)}
	var errs []error
	for _, t := range append(builtins(), types...) {
		if t == nil {
			continue
		}
		if err := t.seal(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.types[t.ID]; dup {
			errs = append(errs, fmt.Errorf("schema: duplicate type id %q", t.ID))
			continue
		}
		c.types[t.ID] = t
		c.ids = append(c.ids, t.ID)
	}
	for _, id := range c.ids {
		errs = append(errs, c.check(c.types[id])...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(c.ids)
	return c, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(types ...*Type) *Catalog {
	c, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) check(t *Type) []error {
	var errs []error
	checkFormat := func(where, f string) {
		if f == "" {
			return
		}
		if _, ok := codec.LookupFormat(f); !ok {
			errs = append(errs, fmt.Errorf("schema: %s: unknown format %q", where, f))
		}
	}
	checkFormat(t.ID, t.Constraints.Format)
	for _, f := range t.Fields {
		where := t.ID + "." + f.Name
		ft, ok := c.types[f.Type]
		if !ok {
			errs = append(errs, fmt.Errorf("schema: %s: unknown type %q", where, f.Type))
		} else if ft.Kind == KindMessage {
			errs = append(errs, fmt.Errorf("schema: %s: message %q cannot be nested", where, f.Type))
		}
		checkFormat(where, f.Constraints.Format)
		for _, ref := range f.When.Fields() {
			if _, ok := t.Field(ref); !ok {
				errs = append(errs, fmt.Errorf("schema: %s: condition references unknown field %q", where, ref))
			}
		}
	}
	for _, r := range t.Rules {
		switch want := ruleArity(r.Kind); {
		case len(r.Fields) == 0:
			errs = append(errs, fmt.Errorf("schema: %s: rule %q names no fields", t.ID, r.Name))
		case want > 0 && len(r.Fields) != want:
			errs = append(errs, fmt.Errorf("schema: %s: %s rule %q needs %d fields, got %d", t.ID, r.Kind, r.Name, want, len(r.Fields)))
		}
		for _, ref := range r.Referenced() {
			if _, ok := t.Field(ref); !ok {
				errs = append(errs, fmt.Errorf("schema: %s: rule %q references unknown field %q", t.ID, r.Name, ref))
			}
		}
	}
	return errs
}

// ruleArity is the exact field count a rule kind takes; zero means any.
func ruleArity(k rules.RuleKind) int {
	switch k {
	case rules.Ordered:
		return 2
	case rules.ForbiddenUnless, rules.RequiredWhen:
		return 1
	}
	return 0
}

// Lookup implements Registry.
func (c *Catalog) Lookup(id string) (*Type, bool) {
	t, ok := c.types[id]
	return t, ok
}

// IDs lists all type ids, builtins included, in ascending order.
func (c *Catalog) IDs() []string { return append([]string(nil), c.ids...) }

// Messages lists message types ordered by id.
func (c *Catalog) Messages() []*Type {
	var out []*Type
	for _, id := range c.ids {
		if t := c.types[id]; t.Kind == KindMessage {
			out = append(out, t)
		}
	}
	return out
}

// Actions lists the distinct actions of the message types, sorted.
func (c *Catalog) Actions() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range c.Messages() {
		if _, ok := seen[m.Action]; !ok {
			seen[m.Action] = struct{}{}
			out = append(out, m.Action)
		}
	}
	sort.Strings(out)
	return out
}
