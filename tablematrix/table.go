package tablematrix

import (
	"linmodel/doctree"
	"linmodel/linear"
)

// TableNode is a table branch owning the matrix of its cells.
type TableNode struct {
	*doctree.BranchNode
	matrix *Matrix
}

// NewTableNode creates a table node for element.
func NewTableNode(element linear.Element) *TableNode {
	n := &TableNode{BranchNode: doctree.NewBranchNode(element)}
	n.Bind(n)
	n.matrix = New(n)
	n.On(doctree.EventSplice, func(...interface{}) {
		n.matrix.Invalidate()
	})
	return n
}

// Matrix returns the matrix of the table.
func (n *TableNode) Matrix() *Matrix {
	return n.matrix
}

// Register makes r build TableNodes for table elements.
func Register(r *doctree.Registry) {
	r.Register(TypeTable, func(element linear.Element) doctree.Node {
		return NewTableNode(element)
	}, false)
}

// NewRegistry returns the default registry with table support.
func NewRegistry() *doctree.Registry {
	r := doctree.NewDefaultRegistry()
	Register(r)
	return r
}
