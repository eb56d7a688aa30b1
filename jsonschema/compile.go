package jsonschema

import (
	"bytes"
	"fmt"

	jsv "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reoring/ocppskema/document"
)

// Compiled is an exported schema compiled by an independent JSON Schema
// validator. It is used to cross-check exports against documents.
type Compiled struct {
	s *jsv.Schema
}

// Compile compiles s with santhosh-tekuri/jsonschema.
func Compile(s *Schema) (*Compiled, error) {
	// References are document-local, so the schema is compiled under a
	// fixed resource URL instead of its $id.
	cp := *s
	cp.ID = ""
	b, err := Marshal(&cp)
	if err != nil {
		return nil, err
	}
	const url = "mem://ocppskema/schema.json"
	c := jsv.NewCompiler()
	c.Draft = jsv.Draft7
	if err := c.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	cs, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	return &Compiled{s: cs}, nil
}

// Validate checks a document against the compiled schema.
func (c *Compiled) Validate(n *document.Node) error {
	return c.s.Validate(document.Plain(n))
}
