package doctree

import (
	"linmodel/common"
	"linmodel/linear"
)

// Builder turns balanced linear data into nodes.
type Builder interface {
	BuildNodes(items []linear.Item) ([]Node, error)
}

// TreeBuilder builds nodes through a Factory.
type TreeBuilder struct {
	factory Factory
}

// NewTreeBuilder creates a TreeBuilder.
func NewTreeBuilder(factory Factory) *TreeBuilder {
	return &TreeBuilder{factory: factory}
}

// Factory returns the factory used for elements.
func (b *TreeBuilder) Factory() Factory {
	return b.factory
}

type frame struct {
	node     Node
	children []Node
}

// BuildNodes builds the nodes for items. Consecutive characters become one TextNode.
func (b *TreeBuilder) BuildNodes(items []linear.Item) ([]Node, error) {
	stack := []*frame{{}}
	text := 0

	flush := func() {
		if text > 0 {
			top := stack[len(stack)-1]
			top.children = append(top.children, NewTextNode(text))
			text = 0
		}
	}

	for i, item := range items {
		element, ok := item.(linear.Element)
		if !ok {
			text++
			continue
		}
		flush()

		if linear.IsOpenElementData(element) {
			node, err := b.factory.Create(element)
			if err != nil {
				return nil, err
			}
			stack = append(stack, &frame{node: node})
			continue
		}

		if len(stack) == 1 {
			return nil, common.ErrUnbalanced{Offset: i, Message: "close without open"}
		}
		top := stack[len(stack)-1]
		if top.node.Type() != linear.GetType(element) {
			return nil, common.ErrUnbalanced{Offset: i, Message: "expected close of " + top.node.Type()}
		}
		stack = stack[:len(stack)-1]
		if err := attach(top); err != nil {
			return nil, common.ErrUnbalanced{Offset: i, Message: err.Error()}
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, top.node)
	}
	flush()

	if len(stack) != 1 {
		return nil, common.ErrUnbalanced{Offset: len(items), Message: "unclosed " + stack[len(stack)-1].node.Type()}
	}
	return stack[0].children, nil
}

type childLengthError struct {
	typ string
}

func (e childLengthError) Error() string {
	return "leaf " + e.typ + " cannot have content"
}

func attach(f *frame) error {
	branch, ok := f.node.(interface {
		SpliceChildren(index, remove, batchSize int, nodes ...Node) []Node
	})
	if !ok {
		if len(f.children) > 0 {
			return childLengthError{typ: f.node.Type()}
		}
		return nil
	}
	if len(f.children) > 0 {
		branch.SpliceChildren(0, 0, 0, f.children...)
	}
	return nil
}
