package tree

// Load builds a Node from a loosely typed value such as decoded JSON or YAML.
// Anything that is not mapping-like yields nil. A title is taken only when it
// is a string; children are loaded only when they are mapping-like, and
// children that load to nil are dropped.
func Load(v any) *Node {
	return loadNode("", v)
}

// LoadForest loads a top-level mapping of symbol to node data. Non-mapping
// input yields an empty map.
func LoadForest(v any) map[string]*Node {
	m, ok := asMapping(v)
	if !ok {
		return map[string]*Node{}
	}
	return loadChildren(m)
}

func loadNode(code string, v any) *Node {
	switch raw := v.(type) {
	case *RawNode:
		if raw == nil {
			return nil
		}
		return fromRaw(code, raw)
	case RawNode:
		return fromRaw(code, &raw)
	}

	m, ok := asMapping(v)
	if !ok {
		return nil
	}
	n := &Node{Code: code, Children: map[string]*Node{}}
	if title, ok := m["title"].(string); ok {
		n.Title = title
		n.HasTitle = true
	}
	if children, ok := asMapping(m["children"]); ok {
		n.Children = loadChildren(children)
	}
	return n
}

func loadChildren(m map[string]any) map[string]*Node {
	out := make(map[string]*Node, len(m))
	for code, v := range m {
		if n := loadNode(code, v); n != nil {
			out[code] = n
		}
	}
	return out
}

func fromRaw(code string, raw *RawNode) *Node {
	n := &Node{
		Code:     code,
		Title:    raw.Title,
		HasTitle: raw.Title != "",
		Children: make(map[string]*Node, len(raw.Children)),
	}
	for child, sub := range raw.Children {
		if sub == nil {
			continue
		}
		n.Children[child] = fromRaw(child, sub)
	}
	return n
}

// asMapping normalizes the mapping shapes produced by encoding/json,
// gopkg.in/yaml.v3 and this package. Keys that are not strings are ignored.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return out, true
	case Forest:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]*RawNode:
		return asMapping(Forest(m))
	}
	return nil, false
}
