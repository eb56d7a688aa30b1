package document

import (
	"strconv"
)

// Kind identifies the shape of a Node.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is an immutable document tree node. Numbers keep their literal text so
// that re-encoding reproduces the input. A nil *Node behaves like null.
type Node struct {
	kind    Kind
	b       bool
	text    string
	items   []*Node
	members []Member
	index   map[string]int
}

var nullNode = &Node{kind: KindNull}

// Null returns the shared null node.
func Null() *Node { return nullNode }

// Bool returns a boolean node.
func Bool(b bool) *Node { return &Node{kind: KindBool, b: b} }

// Number returns a number node holding the literal text as-is. Callers are
// responsible for passing a valid JSON number literal.
func Number(literal string) *Node { return &Node{kind: KindNumber, text: literal} }

// Int returns a number node for an integer.
func Int(i int64) *Node { return Number(strconv.FormatInt(i, 10)) }

// Float returns a number node using the shortest round-trippable form.
func Float(f float64) *Node { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

// String returns a string node.
func String(s string) *Node { return &Node{kind: KindString, text: s} }

// Array returns an array node. The slice is retained.
func Array(items ...*Node) *Node {
	for i, it := range items {
		if it == nil {
			items[i] = nullNode
		}
	}
	return &Node{kind: KindArray, items: items}
}

// Object returns an object node. Member order is preserved; when a key is
// repeated the first position is kept and the last value wins.
func Object(members ...Member) *Node {
	n := &Node{kind: KindObject}
	if len(members) == 0 {
		return n
	}
	n.members = make([]Member, 0, len(members))
	n.index = make(map[string]int, len(members))
	for _, m := range members {
		v := m.Value
		if v == nil {
			v = nullNode
		}
		if at, dup := n.index[m.Key]; dup {
			n.members[at].Value = v
			continue
		}
		n.index[m.Key] = len(n.members)
		n.members = append(n.members, Member{Key: m.Key, Value: v})
	}
	return n
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsNull reports whether the node is null (or nil).
func (n *Node) IsNull() bool { return n.Kind() == KindNull }

// AsBool returns the boolean payload (false for non-boolean nodes).
func (n *Node) AsBool() bool { return n != nil && n.kind == KindBool && n.b }

// Text returns the string payload of a string node or the literal of a
// number node. Other kinds yield "".
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text
}

// Int64 parses a number node as a base-10 integer.
func (n *Node) Int64() (int64, error) {
	if n.Kind() != KindNumber {
		return 0, &KindError{Want: KindNumber, Got: n.Kind()}
	}
	return strconv.ParseInt(n.text, 10, 64)
}

// Float64 parses a number node as float64.
func (n *Node) Float64() (float64, error) {
	if n.Kind() != KindNumber {
		return 0, &KindError{Want: KindNumber, Got: n.Kind()}
	}
	return strconv.ParseFloat(n.text, 64)
}

// Len returns the number of items (array) or members (object).
func (n *Node) Len() int {
	switch n.Kind() {
	case KindArray:
		return len(n.items)
	case KindObject:
		return len(n.members)
	default:
		return 0
	}
}

// Index returns the i-th array item, or nil when out of range.
func (n *Node) Index(i int) *Node {
	if n.Kind() != KindArray || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Items returns the array items. The returned slice must not be modified.
func (n *Node) Items() []*Node {
	if n.Kind() != KindArray {
		return nil
	}
	return n.items
}

// Get looks up an object member by key.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != KindObject || n.index == nil {
		return nil, false
	}
	at, ok := n.index[key]
	if !ok {
		return nil, false
	}
	return n.members[at].Value, true
}

// Members returns the object members in document order. The returned slice
// must not be modified.
func (n *Node) Members() []Member {
	if n.Kind() != KindObject {
		return nil
	}
	return n.members
}

// Keys returns the object keys in document order.
func (n *Node) Keys() []string {
	ms := n.Members()
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Key
	}
	return out
}

// Equal reports structural equality. Object member order is ignored and
// numbers are compared by value when both literals parse as float64.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.text == b.text
	case KindNumber:
		if a.text == b.text {
			return true
		}
		fa, ea := a.Float64()
		fb, eb := b.Float64()
		return ea == nil && eb == nil && fa == fb
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for _, m := range a.members {
			bv, ok := b.Get(m.Key)
			if !ok || !Equal(m.Value, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// KindError reports a node of an unexpected kind.
type KindError struct {
	Want Kind
	Got  Kind
}

func (e *KindError) Error() string {
	return "document: expected " + e.Want.String() + ", got " + e.Got.String()
}
