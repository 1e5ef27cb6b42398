package doctree

// PlainNode is a comparable snapshot of a subtree.
type PlainNode struct {
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Length     int                    `json:"length"`
	Children   []PlainNode            `json:"children,omitempty"`
}

// Plain snapshots n and its descendants.
func Plain(n Node) PlainNode {
	p := PlainNode{Type: n.Type(), Length: n.ContentLength()}
	if e, ok := n.Element(); ok && len(e.Attributes) > 0 {
		p.Attributes = e.Attributes
	}
	for _, c := range n.Children() {
		p.Children = append(p.Children, Plain(c))
	}
	return p
}

// Walk calls fn for n and every descendant in document order until fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}
