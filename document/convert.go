package document

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// FromAny converts a JSON-like Go value into a Node. Maps are emitted with
// keys in ascending order so the result is deterministic.
func FromAny(v any) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		if t == nil {
			return Null(), nil
		}
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint32:
		return Int(int64(t)), nil
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	case time.Time:
		return String(t.UTC().Format(time.RFC3339Nano)), nil
	case []any:
		items := make([]*Node, len(t))
		for i := range t {
			n, err := FromAny(t[i])
			if err != nil {
				return nil, fmt.Errorf("document: index %d: %w", i, err)
			}
			items[i] = n
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(t))
		for _, k := range keys {
			n, err := FromAny(t[k])
			if err != nil {
				return nil, fmt.Errorf("document: key %q: %w", k, err)
			}
			members = append(members, Member{Key: k, Value: n})
		}
		return Object(members...), nil
	default:
		return nil, fmt.Errorf("document: unsupported value of type %T", v)
	}
}

func fromFloat(f float64) (*Node, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("document: non-finite number %v", f)
	}
	return Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// Plain converts the node back into JSON-like Go values: map[string]any,
// []any, string, bool, nil and json.Number.
func Plain(n *Node) any {
	switch n.Kind() {
	case KindBool:
		return n.b
	case KindNumber:
		return json.Number(n.text)
	case KindString:
		return n.text
	case KindArray:
		out := make([]any, len(n.items))
		for i, it := range n.items {
			out[i] = Plain(it)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(n.members))
		for _, m := range n.members {
			out[m.Key] = Plain(m.Value)
		}
		return out
	default:
		return nil
	}
}
