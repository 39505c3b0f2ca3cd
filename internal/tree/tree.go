package tree

import (
	"slices"

	"github.com/samber/lo"
)

// RawNode is the serializable unit of a classification tree. Title is set
// only when non-empty and Children is nil for leaves, so both drop out of
// the encoded form.
type RawNode struct {
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Children Forest `json:"children,omitempty" yaml:"children,omitempty"`
}

// Forest maps classification symbols to their subtrees.
type Forest map[string]*RawNode

// Node is a loaded classification node. Children is never nil.
type Node struct {
	Code     string // Symbol this node was keyed under in its parent
	Title    string
	HasTitle bool
	Children map[string]*Node
}

// Raw converts n back into the builder's shape.
func (n *Node) Raw() *RawNode {
	if n == nil {
		return nil
	}
	raw := &RawNode{}
	if n.HasTitle && n.Title != "" {
		raw.Title = n.Title
	}
	if len(n.Children) > 0 {
		raw.Children = ToForest(n.Children)
	}
	return raw
}

// ToForest converts a loaded tree back into a Forest.
func ToForest(nodes map[string]*Node) Forest {
	out := make(Forest, len(nodes))
	for code, n := range nodes {
		if n == nil {
			continue
		}
		out[code] = n.Raw()
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// Walk visits every node of nodes depth-first in sorted key order. depth is
// 0 for top-level nodes.
func Walk(nodes map[string]*Node, fn func(n *Node, depth int)) {
	var walk func(m map[string]*Node, depth int)
	walk = func(m map[string]*Node, depth int) {
		for _, code := range SortedKeys(m) {
			n := m[code]
			if n == nil {
				continue
			}
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
}

// Count returns the number of nodes in f, at every depth.
func (f Forest) Count() int {
	total := 0
	for _, n := range f {
		total++
		if n != nil {
			total += n.Children.Count()
		}
	}
	return total
}

// Lookup follows path from the top of f and returns the node it ends on.
func (f Forest) Lookup(path ...string) (*RawNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := f
	var n *RawNode
	for _, code := range path {
		var ok bool
		n, ok = cur[code]
		if !ok || n == nil {
			return nil, false
		}
		cur = n.Children
	}
	return n, true
}
