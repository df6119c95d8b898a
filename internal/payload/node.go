package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotObject is returned by Decode when the body parses but is not a JSON object.
var ErrNotObject = errors.New("body is not a JSON object")

// Node is a read-only view over a loosely-typed JSON tree. Lookups on missing
// keys or on the wrong kind of value return an absent Node instead of failing,
// so callers can chain accessors freely.
type Node struct {
	v       any
	present bool
}

// Decode parses a webhook body. Numbers are kept as json.Number so integer
// timestamps survive without float rounding.
func Decode(body []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Node{}, fmt.Errorf("decode body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Node{}, errors.New("decode body: unexpected data after top-level value")
	}
	if _, ok := v.(map[string]any); !ok {
		return Node{}, ErrNotObject
	}
	return Node{v: v, present: true}, nil
}

// Exists reports whether the node was present in the tree (a JSON null counts).
func (n Node) Exists() bool { return n.present }

// Value returns the underlying decoded value.
func (n Node) Value() any { return n.v }

// Get returns the child at key, or an absent Node.
func (n Node) Get(key string) Node {
	m, ok := n.v.(map[string]any)
	if !ok {
		return Node{}
	}
	v, ok := m[key]
	if !ok {
		return Node{}
	}
	return Node{v: v, present: true}
}

// Path walks nested objects.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if !cur.present {
			return Node{}
		}
	}
	return cur
}

// IsObject reports whether the node holds a JSON object.
func (n Node) IsObject() bool {
	_, ok := n.v.(map[string]any)
	return ok
}

// Str returns the node as a string when it holds one.
func (n Node) Str() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

// Number returns the node as a float64 when it holds a JSON number.
func (n Node) Number() (float64, bool) {
	switch x := n.v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// NumberLike is Number, but also accepts a string holding a number.
func (n Node) NumberLike() (float64, bool) {
	if f, ok := n.Number(); ok {
		return f, true
	}
	if s, ok := n.v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return 0, false
}

// Array returns the elements when the node holds a JSON array.
func (n Node) Array() ([]Node, bool) {
	arr, ok := n.v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Node, len(arr))
	for i, v := range arr {
		out[i] = Node{v: v, present: true}
	}
	return out, true
}

// Render produces a string form of the node: strings as-is, null and absent
// nodes as "", everything else as compact JSON.
func (n Node) Render() string {
	if !n.present || n.v == nil {
		return ""
	}
	if s, ok := n.v.(string); ok {
		return s
	}
	b, err := json.Marshal(n.v)
	if err != nil {
		return fmt.Sprint(n.v)
	}
	return string(b)
}
