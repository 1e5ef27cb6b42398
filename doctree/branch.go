package doctree

import (
	"linmodel/linear"
)

// BranchNode is a node with children. A branch without an element is a document root
// and has no wrappers in the linear data.
type BranchNode struct {
	base
	children []Node
}

// NewBranchNode creates a branch for element.
func NewBranchNode(element linear.Element) *BranchNode {
	n := &BranchNode{base: newBase(element.Type, &element)}
	n.self = n
	return n
}

// NewDocumentNode creates a root branch without wrappers.
func NewDocumentNode(children []Node) *BranchNode {
	n := &BranchNode{base: newBase("document", nil)}
	n.self = n
	n.SpliceChildren(0, 0, 0, children...)
	n.version = 0
	return n
}

// Bind makes self the identity the branch reports to its children and siblings. Types
// embedding *BranchNode call it from their constructor.
func (n *BranchNode) Bind(self Node) {
	n.self = self
	for _, child := range n.children {
		child.SetParent(self)
	}
}

// Children returns the children. The slice must not be modified.
func (n *BranchNode) Children() []Node {
	return n.children
}

// CanHaveChildren reports true.
func (n *BranchNode) CanHaveChildren() bool {
	return true
}

// IndexOf returns the index of child, or -1.
func (n *BranchNode) IndexOf(child Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// SpliceChildren removes remove children at index and inserts nodes there, moving at
// most batchSize nodes per step (all at once when batchSize <= 0). Content lengths of
// the branch and its ancestors follow the change, the structural version is bumped and
// a splice event is emitted. It returns the removed nodes.
func (n *BranchNode) SpliceChildren(index, remove, batchSize int, nodes ...Node) []Node {
	var removed []Node
	n.children, removed = linear.SpliceBatched(n.children, index, remove, nodes, batchSize)

	delta := 0
	for _, r := range removed {
		delta -= r.OuterLength()
		r.SetParent(nil)
	}
	for _, c := range nodes {
		delta += c.OuterLength()
		c.SetParent(n.self)
	}
	if delta != 0 {
		n.self.AdjustContentLength(delta, true)
	}
	n.self.BumpVersion()
	n.self.Emit(EventSplice, index, removed, nodes)
	return removed
}
