package jsonschema

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/ocppskema/schema"
)

// Export renders typeID as a self-contained root schema. Referenced
// non-builtin types are placed under definitions and linked with $ref.
// Conditional requiredness and cross-field rules have no direct draft-07
// form; they are described in $comment.
func Export(reg schema.Registry, typeID string) (*Schema, error) {
	t, ok := reg.Lookup(typeID)
	if !ok {
		return nil, fmt.Errorf("jsonschema: unknown type %q", typeID)
	}
	e := &exporter{reg: reg, defs: map[string]*Schema{}}
	root, err := e.body(t)
	if err != nil {
		return nil, err
	}
	root.Schema = Draft
	root.ID = "urn:OCPP:Cp:2:2025:1:" + t.ID
	if len(e.defs) > 0 {
		root.Definitions = e.defs
	}
	return root, nil
}

// Marshal renders s as indented JSON. The document is encoded compact and
// indented afterwards, since goccy's MarshalIndent output grows without
// bound on nested additionalProperties values.
func Marshal(s *Schema) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type exporter struct {
	reg  schema.Registry
	defs map[string]*Schema
}

func isBuiltin(id string) bool {
	switch id {
	case schema.String, schema.Integer, schema.Decimal, schema.Boolean, schema.DateTime, schema.Any:
		return true
	}
	return false
}

// ref returns the schema used at a reference site: builtins inline, all
// other types by $ref into definitions.
func (e *exporter) ref(id string) (*Schema, error) {
	t, ok := e.reg.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("jsonschema: unknown type %q", id)
	}
	if isBuiltin(id) {
		return e.body(t)
	}
	if _, done := e.defs[id]; !done {
		e.defs[id] = &Schema{} // placeholder breaks cycles
		body, err := e.body(t)
		if err != nil {
			return nil, err
		}
		e.defs[id] = body
	}
	return &Schema{Ref: "#/definitions/" + id}, nil
}

func (e *exporter) body(t *schema.Type) (*Schema, error) {
	s := &Schema{Description: t.Description}
	switch t.Kind {
	case schema.KindStruct, schema.KindMessage:
		return e.object(t, s)
	case schema.KindEnum:
		s.Type = "string"
		for _, v := range t.Values {
			s.Enum = append(s.Enum, v)
		}
		return s, nil
	case schema.KindString:
		s.Type = "string"
	case schema.KindInteger:
		s.Type = "integer"
	case schema.KindDecimal:
		s.Type = "number"
	case schema.KindBoolean:
		s.Type = "boolean"
	case schema.KindDateTime:
		s.Type = "string"
		s.Format = "date-time"
	case schema.KindAny:
	}
	applyConstraints(s, t.Constraints)
	return s, nil
}

func (e *exporter) object(t *schema.Type, s *Schema) (*Schema, error) {
	s.Type = "object"
	s.AdditionalProperties = t.Unknown != schema.UnknownStrict
	s.Properties = make(map[string]*Schema, len(t.Fields))
	var notes []string
	for i := range t.Fields {
		f := &t.Fields[i]
		prop, err := e.ref(f.Type)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: %s.%s: %w", t.ID, f.Name, err)
		}
		if !f.Constraints.IsZero() {
			prop = withConstraints(prop, f.Constraints)
		}
		if f.Array {
			arr := &Schema{Type: "array", Items: prop, MinItems: intPtr(f.MinItems)}
			if f.MaxItems > 0 {
				arr.MaxItems = intPtr(f.MaxItems)
			}
			prop = arr
		}
		if f.Description != "" {
			prop.Description = f.Description
		}
		s.Properties[f.Name] = prop
		switch f.Presence {
		case schema.Required:
			s.Required = append(s.Required, f.Name)
		case schema.Conditional:
			notes = append(notes, fmt.Sprintf("%s required when %s", f.Name, f.When))
		}
	}
	for _, r := range t.Rules {
		notes = append(notes, fmt.Sprintf("%s: %s %v", r.Name, r.Kind, r.Fields))
	}
	s.Comment = strings.Join(notes, "; ")
	return s, nil
}

// withConstraints attaches field-level constraints. Draft-07 ignores
// siblings of $ref, so references are wrapped in allOf.
func withConstraints(prop *Schema, c schema.Constraints) *Schema {
	if prop.Ref == "" {
		applyConstraints(prop, c)
		return prop
	}
	out := &Schema{AllOf: []*Schema{prop}}
	applyConstraints(out, c)
	return out
}

func applyConstraints(s *Schema, c schema.Constraints) {
	if c.MinLength > 0 {
		s.MinLength = intPtr(c.MinLength)
	}
	if c.MaxLength > 0 {
		s.MaxLength = intPtr(c.MaxLength)
	}
	s.Pattern = c.Pattern
	s.Minimum = c.Minimum
	s.Maximum = c.Maximum
	if c.Format != "" {
		s.Format = c.Format
	}
}

func intPtr(n int) *int { return &n }
