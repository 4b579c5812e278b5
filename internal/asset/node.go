// Package asset models the node trees stored in template and composite
// document files, and reads and writes them.
package asset

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var (
	// ErrLinked is returned when mutating a node that is part of a linked
	// template instance.
	ErrLinked = errors.New("node is linked to a template")
	// ErrNotLinked is returned by Disconnect on a node without a link.
	ErrNotLinked = errors.New("node has no template link")
	// ErrAlreadyLinked is returned by Connect on a node that still has a link.
	ErrAlreadyLinked = errors.New("node is already linked to a template")
)

// TemplateLink points from an instance root back to the template it was
// instantiated from.
type TemplateLink struct {
	Template string `yaml:"template"`
	GUID     string `yaml:"guid,omitempty"`
}

// Node is one element of an asset tree.
type Node struct {
	Name string

	link      *TemplateLink
	behaviors []*Behavior
	children  []*Node
	parent    *Node
}

// NewNode returns a detached node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// AddChild appends c and returns it.
func (n *Node) AddChild(c *Node) *Node {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

// AddBehavior attaches a behavior of the given type. Field values are
// normalised the same way Set normalises them.
func (n *Node) AddBehavior(typ string, fields map[string]any) (*Behavior, error) {
	b := &Behavior{Type: typ, node: n, fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		nv, err := normalize(v)
		if err != nil {
			return nil, fmt.Errorf("behavior %s field %s: %w", typ, k, err)
		}
		b.fields[k] = nv
	}
	n.behaviors = append(n.behaviors, b)
	return b, nil
}

func (n *Node) Behaviors() []*Behavior { return n.behaviors }
func (n *Node) Children() []*Node      { return n.children }
func (n *Node) Parent() *Node          { return n.parent }

// Behavior returns the first behavior of typ on this node, or nil.
func (n *Node) Behavior(typ string) *Behavior {
	for _, b := range n.behaviors {
		if b.Type == typ {
			return b
		}
	}
	return nil
}

// Link returns a copy of the node's own template link, if any.
func (n *Node) Link() *TemplateLink {
	if n.link == nil {
		return nil
	}
	l := *n.link
	return &l
}

// TemplateOrigin resolves the template link governing n: the link of the
// nearest ancestor-or-self instance root, together with that root.
func (n *Node) TemplateOrigin() (*TemplateLink, *Node) {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.link != nil {
			return cur.Link(), cur
		}
	}
	return nil, nil
}

// Disconnect removes the link from an instance root, turning the instance
// into a free-standing copy, and returns the removed link.
func (n *Node) Disconnect() (TemplateLink, error) {
	if n.link == nil {
		return TemplateLink{}, fmt.Errorf("%w: %s", ErrNotLinked, n.Path())
	}
	l := *n.link
	n.link = nil
	return l, nil
}

// Connect links n to a template. Behavior fields are left untouched, so
// overrides made while disconnected persist.
func (n *Node) Connect(link TemplateLink) error {
	if n.link != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyLinked, n.Path())
	}
	if link.Template == "" {
		return fmt.Errorf("connect %s: empty template path", n.Path())
	}
	n.link = &link
	return nil
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Path is the slash-joined chain of names from the tree root to n.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Revision sums the revisions of the node's own behaviors. It grows
// whenever one of them is modified.
func (n *Node) Revision() uint64 {
	var r uint64
	for _, b := range n.behaviors {
		r += b.revision
	}
	return r
}

// Changed reports whether any behavior in the subtree has changed data.
func (n *Node) Changed() bool {
	changed := false
	_ = n.Walk(func(x *Node) error {
		for _, b := range x.behaviors {
			if b.changed {
				changed = true
			}
		}
		return nil
	})
	return changed
}

// ResetChanged clears the change flag of every behavior in the subtree.
func (n *Node) ResetChanged() {
	_ = n.Walk(func(x *Node) error {
		for _, b := range x.behaviors {
			b.changed = false
		}
		return nil
	})
}

// Behavior is a typed component attached to a node. Its data is a map of
// normalised values: numbers are float64, maps are map[string]any and
// lists are []any.
type Behavior struct {
	Type string

	node     *Node
	fields   map[string]any
	changed  bool
	revision uint64
}

// Node returns the owning node.
func (b *Behavior) Node() *Node { return b.node }

// Get returns a field value.
func (b *Behavior) Get(key string) (any, bool) {
	v, ok := b.fields[key]
	return v, ok
}

// Fields returns a copy of the behavior data.
func (b *Behavior) Fields() map[string]any {
	out := make(map[string]any, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// Decode copies the behavior data into a struct using mapstructure tags.
func (b *Behavior) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(b.fields)
}

// Set stores a field value. Setting a value equal to the current one is a
// no-op; anything else marks the behavior changed. Nodes that belong to a
// linked template instance cannot be mutated.
func (b *Behavior) Set(key string, value any) error {
	if b.node != nil {
		if link, root := b.node.TemplateOrigin(); link != nil {
			return fmt.Errorf("%w: set %s.%s on %s (instance of %s at %s)",
				ErrLinked, b.Type, key, b.node.Path(), link.Template, root.Path())
		}
	}
	nv, err := normalize(value)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", b.Type, key, err)
	}
	if cur, ok := b.fields[key]; ok && reflect.DeepEqual(cur, nv) {
		return nil
	}
	if b.fields == nil {
		b.fields = make(map[string]any)
	}
	b.fields[key] = nv
	b.changed = true
	b.revision++
	return nil
}

// Changed reports whether Set modified the data since the last reset.
func (b *Behavior) Changed() bool { return b.changed }

// Revision counts effective modifications over the behavior's lifetime.
func (b *Behavior) Revision() uint64 { return b.revision }

// normalize maps a value onto the canonical representation used for
// comparison and encoding.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = ne
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Struct:
		m := map[string]any{}
		if err := mapstructure.Decode(v, &m); err != nil {
			return nil, err
		}
		return normalize(m)
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ne, err := normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = ne
		}
		return out, nil
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			ne, err := normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case reflect.String:
		return rv.String(), nil
	}
	return nil, fmt.Errorf("unsupported field value of type %T", v)
}
