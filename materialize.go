package ocppskema

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/reoring/ocppskema/codec"
	"github.com/reoring/ocppskema/document"
	"github.com/reoring/ocppskema/schema"
)

// convert performs the one-time node to Value conversion of a cell. Child
// cells are created unresolved.
func (c *Cell) convert() (*Value, *MaterializationError) {
	n := c.node
	if c.unresolved {
		return nil, c.failure(CodeUnknownType, c.typ.ID, fmt.Errorf("type %q is not registered", c.typ.ID))
	}
	if c.array {
		if n.Kind() != document.KindArray {
			return nil, c.mismatch("array")
		}
		items := n.Items()
		v := &Value{kind: ValueArray, typ: c.typ, node: n, items: make([]*Cell, len(items))}
		for i, it := range items {
			v.items[i] = c.child(c.field, false, it, c.path.Index(i))
		}
		return v, nil
	}

	switch c.typ.Kind {
	case schema.KindStruct, schema.KindMessage:
		if n.Kind() != document.KindObject {
			return nil, c.mismatch("object")
		}
		members := n.Members()
		v := &Value{kind: ValueStruct, typ: c.typ, node: n, byName: make(map[string]*Cell, len(members))}
		for _, m := range members {
			f, ok := c.typ.Field(m.Key)
			if !ok {
				v.unknown = append(v.unknown, m)
				continue
			}
			child := c.child(f, f.Array, m.Value, c.path.Field(m.Key))
			v.fields = append(v.fields, child)
			v.byName[m.Key] = child
		}
		return v, nil

	case schema.KindEnum:
		if n.Kind() != document.KindString {
			return nil, c.mismatch("string")
		}
		tok := n.Text()
		return &Value{kind: ValueEnum, typ: c.typ, node: n, enum: EnumValue{Token: tok, Known: c.typ.HasValue(tok)}}, nil

	case schema.KindString:
		if n.Kind() != document.KindString {
			return nil, c.mismatch("string")
		}
		return &Value{kind: ValueString, typ: c.typ, node: n, str: n.Text()}, nil

	case schema.KindInteger:
		if n.Kind() != document.KindNumber {
			return nil, c.mismatch("integer")
		}
		i, err := parseInteger(n.Text())
		if err != nil {
			code := CodeInvalidValue
			if errors.Is(err, strconv.ErrRange) {
				code = CodeOverflow
			}
			return nil, c.failure(code, "integer", err)
		}
		return &Value{kind: ValueInteger, typ: c.typ, node: n, i: i}, nil

	case schema.KindDecimal:
		if n.Kind() != document.KindNumber {
			return nil, c.mismatch("decimal")
		}
		f, err := strconv.ParseFloat(n.Text(), 64)
		if err != nil {
			code := CodeInvalidValue
			if errors.Is(err, strconv.ErrRange) {
				code = CodeOverflow
			}
			return nil, c.failure(code, "decimal", err)
		}
		return &Value{kind: ValueDecimal, typ: c.typ, node: n, f: f}, nil

	case schema.KindBoolean:
		if n.Kind() != document.KindBool {
			return nil, c.mismatch("boolean")
		}
		return &Value{kind: ValueBoolean, typ: c.typ, node: n, b: n.AsBool()}, nil

	case schema.KindDateTime:
		if n.Kind() != document.KindString {
			return nil, c.mismatch("dateTime")
		}
		t, err := codec.ParseDateTime(n.Text())
		if err != nil {
			return nil, c.failure(CodeInvalidFormat, "dateTime", err)
		}
		return &Value{kind: ValueDateTime, typ: c.typ, node: n, t: t}, nil
	}
	return &Value{kind: ValueAny, typ: c.typ, node: n}, nil
}

// parseInteger accepts integral literals, including exponent forms such as
// 1e3 and 2.0, within int64 range.
func parseInteger(text string) (int64, error) {
	i, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return i, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, err
	}
	f, ferr := strconv.ParseFloat(text, 64)
	if ferr != nil {
		return 0, ferr
	}
	if f != math.Trunc(f) {
		return 0, errors.New("not an integral number")
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, strconv.ErrRange
	}
	return int64(f), nil
}

func (c *Cell) mismatch(expected string) *MaterializationError {
	return &MaterializationError{
		Path:     c.path.Pointer(),
		Kind:     TypeMismatch,
		Code:     CodeInvalidType,
		Expected: expected,
		Got:      c.node.Kind().String(),
		Raw:      rawText(c.node),
	}
}

func (c *Cell) failure(code, expected string, err error) *MaterializationError {
	return &MaterializationError{
		Path:     c.path.Pointer(),
		Kind:     MaterializationFailed,
		Code:     code,
		Expected: expected,
		Got:      c.node.Kind().String(),
		Raw:      rawText(c.node),
		Err:      err,
	}
}

const maxRawLen = 128

// rawText renders a node as JSON, truncated for diagnostics.
func rawText(n *document.Node) string {
	b, err := document.Marshal(n)
	if err != nil {
		return ""
	}
	if len(b) > maxRawLen {
		return string(b[:maxRawLen]) + "..."
	}
	return string(b)
}
