package ocppskema

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/reoring/ocppskema/document"
	"github.com/reoring/ocppskema/schema"
)

// CellState is the materialization state of a Cell. It only moves forward:
// Unresolved to Materialized or Failed.
type CellState int32

const (
	Unresolved CellState = iota
	Materialized
	Failed
)

func (s CellState) String() string {
	switch s {
	case Materialized:
		return "materialized"
	case Failed:
		return "failed"
	}
	return "unresolved"
}

// Mode selects how far validation descends.
type Mode int

const (
	// Shallow validates the cell and its scalar and array children without
	// materializing struct-typed children.
	Shallow Mode = iota
	// Deep additionally validates every struct-typed descendant.
	Deep
)

func (m Mode) String() string {
	if m == Deep {
		return "deep"
	}
	return "shallow"
}

// ParseMode accepts "shallow" and "deep".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "shallow":
		return Shallow, true
	case "deep":
		return Deep, true
	}
	return 0, false
}

type outcome struct {
	v   *Value
	err *MaterializationError
}

// Cell is a lazily materialized, memoizing slot binding a document node to
// a schema type at a path. Materialization and each validation mode run at
// most once; concurrent callers wait for the first to publish.
type Cell struct {
	reg   schema.Registry
	typ   *schema.Type
	field *schema.Field // declaring field, nil for the root
	array bool          // holds a whole array field; typ is the element type
	node  *document.Node
	path  Path

	unresolved bool // the registry does not know typ.ID

	mu      sync.Mutex
	settled atomic.Pointer[outcome]

	vmu     [2]sync.Mutex
	reports [2]atomic.Pointer[Report]
}

// materializeHook observes every conversion. Tests use it to count them.
var materializeHook func(*Cell)

// NewCell binds node to the registered type typeID at the document root.
func NewCell(reg schema.Registry, typeID string, node *document.Node) (*Cell, error) {
	if reg == nil {
		return nil, fmt.Errorf("ocppskema: nil registry")
	}
	t, ok := reg.Lookup(typeID)
	if !ok {
		return nil, fmt.Errorf("ocppskema: unknown type %q", typeID)
	}
	return &Cell{reg: reg, typ: t, node: node}, nil
}

// child creates an unresolved cell for a member of c. A field type the
// registry cannot resolve gets a placeholder type and fails to materialize.
func (c *Cell) child(f *schema.Field, array bool, node *document.Node, path Path) *Cell {
	t, ok := c.reg.Lookup(f.Type)
	if !ok {
		t = &schema.Type{ID: f.Type, Kind: schema.KindAny}
	}
	return &Cell{reg: c.reg, typ: t, field: f, array: array, node: node, path: path, unresolved: !ok}
}

// Type returns the schema type. For array cells it is the element type.
func (c *Cell) Type() *schema.Type { return c.typ }

// Declaration returns the declaring field, or nil for the root cell.
func (c *Cell) Declaration() *schema.Field { return c.field }

// IsArray reports whether the cell holds a whole array field.
func (c *Cell) IsArray() bool { return c.array }

// Node returns the immutable document node the cell was created from.
func (c *Cell) Node() *document.Node { return c.node }

// Path returns the absolute location of the cell.
func (c *Cell) Path() Path { return c.path }

// State reports the materialization state without triggering it.
func (c *Cell) State() CellState {
	o := c.settled.Load()
	switch {
	case o == nil:
		return Unresolved
	case o.err != nil:
		return Failed
	}
	return Materialized
}

// composite reports whether the cell materializes into a struct value.
func (c *Cell) composite() bool { return !c.array && c.typ.Kind.Composite() }

// Materialize converts the node into a typed Value exactly once. Later calls
// return the memoized outcome.
func (c *Cell) Materialize() (*Value, error) {
	if o := c.settled.Load(); o != nil {
		return o.result()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if o := c.settled.Load(); o != nil {
		return o.result()
	}
	if materializeHook != nil {
		materializeHook(c)
	}
	v, err := c.convert()
	o := &outcome{v: v, err: err}
	c.settled.Store(o)
	return o.result()
}

func (o *outcome) result() (*Value, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.v, nil
}

// Field navigates to a present declared field without materializing it.
// The receiver is materialized.
func (c *Cell) Field(name string) (*Cell, error) {
	v, err := c.Materialize()
	if err != nil {
		return nil, err
	}
	if v.kind != ValueStruct {
		return nil, fmt.Errorf("ocppskema: %s is not a struct", c.path)
	}
	if _, declared := c.typ.Field(name); !declared {
		return nil, fmt.Errorf("ocppskema: %s has no field %q", c.typ.ID, name)
	}
	child, ok := v.byName[name]
	if !ok {
		return nil, fmt.Errorf("ocppskema: field %q absent at %s", name, c.path)
	}
	return child, nil
}

// Index navigates to element i of an array cell without materializing it.
func (c *Cell) Index(i int) (*Cell, error) {
	v, err := c.Materialize()
	if err != nil {
		return nil, err
	}
	if v.kind != ValueArray {
		return nil, fmt.Errorf("ocppskema: %s is not an array", c.path)
	}
	item, ok := v.Item(i)
	if !ok {
		return nil, fmt.Errorf("ocppskema: index %d out of range at %s (len %d)", i, c.path, len(v.items))
	}
	return item, nil
}

// Lookup resolves a JSON Pointer relative to c, materializing each cell on
// the way but not the target.
func (c *Cell) Lookup(pointer string) (*Cell, error) {
	cur := c
	for _, seg := range ParsePath(pointer).Segments() {
		var err error
		if cur.array {
			i, convErr := strconv.Atoi(seg)
			if convErr != nil {
				return nil, fmt.Errorf("ocppskema: %q is not an index at %s", seg, cur.path)
			}
			cur, err = cur.Index(i)
		} else {
			cur, err = cur.Field(seg)
		}
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}
