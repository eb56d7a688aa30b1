package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reoring/ocppskema/rules"
)

// Catalogue file layout:
//
//	types:
//	  - id: ChargingProfileType
//	    kind: struct
//	    fields:
//	      - {name: id, type: integer, required: true}
//	      - {name: transactionId, type: string, maxLength: 36}
//	    rules:
//	      - name: txOnly
//	        kind: forbidden_unless
//	        fields: [transactionId]
//	        when: {field: chargingProfilePurpose, op: eq, value: TxProfile}
type yamlFile struct {
	Types []yamlType `yaml:"types"`
}

type yamlConstraints struct {
	MinLength int      `yaml:"minLength"`
	MaxLength int      `yaml:"maxLength"`
	Pattern   string   `yaml:"pattern"`
	Minimum   *float64 `yaml:"minimum"`
	Maximum   *float64 `yaml:"maximum"`
	Format    string   `yaml:"format"`
}

func (c yamlConstraints) build() Constraints {
	return Constraints{
		MinLength: c.MinLength,
		MaxLength: c.MaxLength,
		Pattern:   c.Pattern,
		Minimum:   c.Minimum,
		Maximum:   c.Maximum,
		Format:    c.Format,
	}
}

type yamlType struct {
	ID              string      `yaml:"id"`
	Kind            string      `yaml:"kind"`
	Action          string      `yaml:"action"`
	Description     string      `yaml:"description"`
	Unknown         string      `yaml:"unknown"`
	Values          []string    `yaml:"values"`
	Fields          []yamlField `yaml:"fields"`
	Rules           []yamlRule  `yaml:"rules"`
	yamlConstraints `yaml:",inline"`
}

type yamlField struct {
	Name            string    `yaml:"name"`
	Type            string    `yaml:"type"`
	Description     string    `yaml:"description"`
	Required        bool      `yaml:"required"`
	RequiredIf      *yamlCond `yaml:"requiredIf"`
	Array           bool      `yaml:"array"`
	MinItems        int       `yaml:"minItems"`
	MaxItems        int       `yaml:"maxItems"`
	yamlConstraints `yaml:",inline"`
}

type yamlRule struct {
	Name   string    `yaml:"name"`
	Kind   string    `yaml:"kind"`
	Fields []string  `yaml:"fields"`
	Op     string    `yaml:"op"`
	When   *yamlCond `yaml:"when"`
}

type yamlCond struct {
	Field  string     `yaml:"field"`
	Op     string     `yaml:"op"`
	Value  any        `yaml:"value"`
	Values []any      `yaml:"values"`
	All    []yamlCond `yaml:"all"`
	Any    []yamlCond `yaml:"any"`
	Not    *yamlCond  `yaml:"not"`
}

// LoadYAML decodes every YAML document in data into types. Unknown keys are
// rejected.
func LoadYAML(data []byte) ([]*Type, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var out []*Type
	for {
		var f yamlFile
		if err := dec.Decode(&f); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("schema: yaml: %w", err)
		}
		for _, yt := range f.Types {
			t, err := yt.build()
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
}

func (yt yamlType) build() (*Type, error) {
	kind := KindStruct
	if yt.Kind != "" {
		k, ok := ParseKind(yt.Kind)
		if !ok {
			return nil, fmt.Errorf("schema: %s: unknown kind %q", yt.ID, yt.Kind)
		}
		kind = k
	}
	unknown, ok := ParseUnknownPolicy(yt.Unknown)
	if !ok {
		return nil, fmt.Errorf("schema: %s: unknown policy %q", yt.ID, yt.Unknown)
	}
	t := &Type{
		ID:          yt.ID,
		Kind:        kind,
		Action:      yt.Action,
		Description: yt.Description,
		Unknown:     unknown,
		Values:      yt.Values,
		Constraints: yt.yamlConstraints.build(),
	}
	for _, yf := range yt.Fields {
		f := Field{
			Name:        yf.Name,
			Type:        yf.Type,
			Description: yf.Description,
			Array:       yf.Array,
			MinItems:    yf.MinItems,
			MaxItems:    yf.MaxItems,
			Constraints: yf.yamlConstraints.build(),
		}
		switch {
		case yf.RequiredIf != nil:
			c, err := yf.RequiredIf.build()
			if err != nil {
				return nil, fmt.Errorf("schema: %s.%s: %w", yt.ID, yf.Name, err)
			}
			f.Presence, f.When = Conditional, c
		case yf.Required:
			f.Presence = Required
		}
		t.Fields = append(t.Fields, f)
	}
	for _, yr := range yt.Rules {
		r, err := yr.build()
		if err != nil {
			return nil, fmt.Errorf("schema: %s: rule %q: %w", yt.ID, yr.Name, err)
		}
		t.Rules = append(t.Rules, r)
	}
	if err := t.seal(); err != nil {
		return nil, err
	}
	return t, nil
}

var ruleKinds = map[string]rules.RuleKind{
	"mutually_exclusive": rules.MutuallyExclusive,
	"at_least_one_of":    rules.AtLeastOneOf,
	"exactly_one_of":     rules.ExactlyOneOf,
	"ordered":            rules.Ordered,
	"forbidden_unless":   rules.ForbiddenUnless,
	"required_when":      rules.RequiredWhen,
}

func (yr yamlRule) build() (rules.Rule, error) {
	k, ok := ruleKinds[yr.Kind]
	if !ok {
		return rules.Rule{}, fmt.Errorf("unknown rule kind %q", yr.Kind)
	}
	r := rules.Rule{Name: yr.Name, Kind: k, Fields: yr.Fields}
	switch k {
	case rules.Ordered:
		if len(yr.Fields) != 2 {
			return rules.Rule{}, fmt.Errorf("ordered rule needs exactly two fields")
		}
		op := rules.Le
		if yr.Op != "" {
			var ok bool
			if op, ok = parseOp(yr.Op); !ok || op > rules.Ge || op < rules.Lt {
				return rules.Rule{}, fmt.Errorf("invalid ordering op %q", yr.Op)
			}
		}
		r.Op = op
	case rules.ForbiddenUnless, rules.RequiredWhen:
		if len(yr.Fields) != 1 || yr.When == nil {
			return rules.Rule{}, fmt.Errorf("%s rule needs one field and a condition", yr.Kind)
		}
		c, err := yr.When.build()
		if err != nil {
			return rules.Rule{}, err
		}
		r.When = c
	}
	return r, nil
}

func parseOp(s string) (rules.Op, bool) {
	switch s {
	case "eq", "==":
		return rules.Eq, true
	case "ne", "!=":
		return rules.Ne, true
	case "lt", "<":
		return rules.Lt, true
	case "le", "<=":
		return rules.Le, true
	case "gt", ">":
		return rules.Gt, true
	case "ge", ">=":
		return rules.Ge, true
	case "in":
		return rules.In, true
	case "present":
		return rules.Present, true
	case "absent":
		return rules.Absent, true
	}
	return 0, false
}

func (yc yamlCond) build() (rules.Cond, error) {
	list := func(in []yamlCond) ([]rules.Cond, error) {
		out := make([]rules.Cond, 0, len(in))
		for _, it := range in {
			c, err := it.build()
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	}
	switch {
	case yc.Not != nil:
		c, err := yc.Not.build()
		if err != nil {
			return rules.Cond{}, err
		}
		return rules.Not(c), nil
	case len(yc.All) > 0:
		cs, err := list(yc.All)
		if err != nil {
			return rules.Cond{}, err
		}
		return rules.IfAll(cs...), nil
	case len(yc.Any) > 0:
		cs, err := list(yc.Any)
		if err != nil {
			return rules.Cond{}, err
		}
		return rules.IfAny(cs...), nil
	}
	if yc.Field == "" {
		return rules.Cond{}, fmt.Errorf("condition without field")
	}
	op := rules.Eq
	if yc.Op != "" {
		var ok bool
		if op, ok = parseOp(yc.Op); !ok {
			return rules.Cond{}, fmt.Errorf("unknown op %q", yc.Op)
		}
	}
	switch op {
	case rules.Present:
		return rules.IsPresent(yc.Field), nil
	case rules.Absent:
		return rules.IsAbsent(yc.Field), nil
	case rules.In:
		return rules.OneOf(yc.Field, normalizeYAMLScalars(yc.Values)...), nil
	}
	return rules.If(yc.Field, op, normalizeYAMLScalar(yc.Value)), nil
}

// normalizeYAMLScalar maps yaml.v3 integer decodings onto the numeric types
// conditions compare.
func normalizeYAMLScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case uint64:
		return float64(t)
	}
	return v
}

func normalizeYAMLScalars(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = normalizeYAMLScalar(v)
	}
	return out
}
