package schema

import (
	"fmt"

	"github.com/reoring/ocppskema/rules"
)

// Builder assembles a Type fluently. Field modifiers apply to the most
// recently added field; before any field they apply to the type itself.
//
//	schema.Struct("StatusInfoType").
//		Field("reasonCode", schema.String).Required().MaxLength(20).
//		Field("additionalInfo", schema.String).MaxLength(1024).
//		MustBuild()
type Builder struct {
	t   *Type
	cur int
	err error
}

// Struct starts a composite datatype.
func Struct(id string) *Builder { return &Builder{t: &Type{ID: id, Kind: KindStruct}, cur: -1} }

// Message starts a top-level message payload bound to an action.
func Message(id, action string) *Builder {
	return &Builder{t: &Type{ID: id, Kind: KindMessage, Action: action}, cur: -1}
}

// Enum starts an enumeration with its closed value set.
func Enum(id string, values ...string) *Builder {
	return &Builder{t: &Type{ID: id, Kind: KindEnum, Values: append([]string(nil), values...)}, cur: -1}
}

// Scalar starts a constrained scalar derived from a builtin kind.
func Scalar(id string, kind Kind) *Builder {
	b := &Builder{t: &Type{ID: id, Kind: kind}, cur: -1}
	if !kind.Scalar() || kind == KindEnum {
		b.err = fmt.Errorf("schema: %s: %s is not a scalar kind", id, kind)
	}
	return b
}

// Describe sets the description of the current field or of the type.
func (b *Builder) Describe(s string) *Builder {
	if f := b.field(); f != nil {
		f.Description = s
	} else {
		b.t.Description = s
	}
	return b
}

// Unknown sets the unknown member policy of a composite type.
func (b *Builder) Unknown(p UnknownPolicy) *Builder {
	b.t.Unknown = p
	return b
}

// Field appends a field referencing typeID.
func (b *Builder) Field(name, typeID string) *Builder {
	if !b.t.Kind.Composite() {
		b.fail("field %q on non-composite type", name)
		return b
	}
	b.t.Fields = append(b.t.Fields, Field{Name: name, Type: typeID})
	b.cur = len(b.t.Fields) - 1
	return b
}

// Required marks the current field as always required.
func (b *Builder) Required() *Builder {
	if f := b.needField("Required"); f != nil {
		f.Presence = Required
	}
	return b
}

// RequiredIf marks the current field as required whenever cond holds.
func (b *Builder) RequiredIf(cond rules.Cond) *Builder {
	if f := b.needField("RequiredIf"); f != nil {
		f.Presence = Conditional
		f.When = cond
	}
	return b
}

// Array turns the current field into an array with cardinality bounds.
// max 0 means unbounded.
func (b *Builder) Array(min, max int) *Builder {
	if f := b.needField("Array"); f != nil {
		f.Array = true
		f.MinItems, f.MaxItems = min, max
	}
	return b
}

func (b *Builder) MinLength(n int) *Builder {
	b.constraints().MinLength = n
	return b
}

func (b *Builder) MaxLength(n int) *Builder {
	b.constraints().MaxLength = n
	return b
}

func (b *Builder) Pattern(p string) *Builder {
	b.constraints().Pattern = p
	return b
}

// Min sets an inclusive lower bound.
func (b *Builder) Min(x float64) *Builder {
	b.constraints().Minimum = &x
	return b
}

// Max sets an inclusive upper bound.
func (b *Builder) Max(x float64) *Builder {
	b.constraints().Maximum = &x
	return b
}

// Format names a codec format checker, e.g. "iso4217".
func (b *Builder) Format(name string) *Builder {
	b.constraints().Format = name
	return b
}

// Rule attaches a struct-scoped cross-field rule.
func (b *Builder) Rule(r rules.Rule) *Builder {
	if !b.t.Kind.Composite() {
		b.fail("rule %q on non-composite type", r.Name)
		return b
	}
	b.t.Rules = append(b.t.Rules, r)
	return b
}

// Build seals the type. The builder must not be used afterwards.
func (b *Builder) Build() (*Type, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.t.seal(); err != nil {
		return nil, err
	}
	return b.t, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Type {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

func (b *Builder) field() *Field {
	if b.cur < 0 {
		return nil
	}
	return &b.t.Fields[b.cur]
}

func (b *Builder) needField(op string) *Field {
	f := b.field()
	if f == nil {
		b.fail("%s without a field", op)
	}
	return f
}

func (b *Builder) constraints() *Constraints {
	if f := b.field(); f != nil {
		return &f.Constraints
	}
	return &b.t.Constraints
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("schema: %s: "+format, append([]any{b.t.ID}, args...)...)
	}
}
