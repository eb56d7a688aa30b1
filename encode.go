package ocppskema

import (
	"github.com/reoring/ocppskema/codec"
	"github.com/reoring/ocppskema/document"
	"github.com/reoring/ocppskema/schema"
)

// EncodeNode rebuilds the document for c. Scalars reuse their original node,
// so number literals and date-time text are reproduced exactly. Composite
// cells are materialized and their members re-emitted in input order; members
// unknown to a strip-policy type are dropped.
func (c *Cell) EncodeNode() (*document.Node, error) {
	if !c.array && !c.composite() {
		return c.node, nil
	}
	v, err := c.Materialize()
	if err != nil {
		return nil, err
	}
	if c.array {
		items := make([]*document.Node, len(v.items))
		for i, it := range v.items {
			n, err := it.EncodeNode()
			if err != nil {
				return nil, err
			}
			items[i] = n
		}
		return document.Array(items...), nil
	}

	members := make([]document.Member, 0, len(c.node.Members()))
	for _, m := range c.node.Members() {
		child, declared := v.byName[m.Key]
		if !declared {
			if c.typ.Unknown == schema.UnknownStrip {
				continue
			}
			members = append(members, m)
			continue
		}
		n, err := child.EncodeNode()
		if err != nil {
			return nil, err
		}
		members = append(members, document.Member{Key: m.Key, Value: n})
	}
	return document.Object(members...), nil
}

// Encode renders c as compact JSON.
func (c *Cell) Encode() ([]byte, error) {
	n, err := c.EncodeNode()
	if err != nil {
		return nil, err
	}
	return document.Marshal(n)
}

// Node renders the typed payload as a document tree. Unlike EncodeNode it
// rebuilds scalars from their converted form: numbers from the parsed value,
// date-times in canonical UTC form and enums from their token. Child cells
// are materialized as needed. Passthrough members and any-typed values are
// copied unchanged.
func (v *Value) Node() (*document.Node, error) {
	switch v.kind {
	case ValueStruct:
		members := make([]document.Member, 0, len(v.node.Members()))
		for _, m := range v.node.Members() {
			child, declared := v.byName[m.Key]
			if !declared {
				if v.typ.Unknown == schema.UnknownStrip {
					continue
				}
				members = append(members, m)
				continue
			}
			n, err := child.typedNode()
			if err != nil {
				return nil, err
			}
			members = append(members, document.Member{Key: m.Key, Value: n})
		}
		return document.Object(members...), nil
	case ValueArray:
		items := make([]*document.Node, len(v.items))
		for i, it := range v.items {
			n, err := it.typedNode()
			if err != nil {
				return nil, err
			}
			items[i] = n
		}
		return document.Array(items...), nil
	case ValueEnum:
		return document.String(v.enum.Token), nil
	case ValueString:
		return document.String(v.str), nil
	case ValueInteger:
		return document.Int(v.i), nil
	case ValueDecimal:
		return document.Float(v.f), nil
	case ValueBoolean:
		return document.Bool(v.b), nil
	case ValueDateTime:
		return document.String(codec.FormatDateTime(v.t)), nil
	}
	return v.node, nil
}

func (c *Cell) typedNode() (*document.Node, error) {
	v, err := c.Materialize()
	if err != nil {
		return nil, err
	}
	return v.Node()
}
