// Package doctree is the node tree derived from linear data: branch nodes wrap
// children between an opening and closing element, leaf nodes are childless elements
// and text nodes stand for runs of characters.
//
// Nodes only know lengths, never absolute offsets; OuterRange walks up to the root.
package doctree

import (
	"linmodel/docrange"
	"linmodel/linear"
)

// Node events.
const (
	EventUpdate          = "update"
	EventSplice          = "splice"
	EventAttributeChange = "attributeChange"
	EventAnnotation      = "annotation"
)

// Handler receives node events.
type Handler func(args ...interface{})

// Node is the capability the transaction processor needs from the tree.
type Node interface {
	// Type returns the element type, "text" for text nodes.
	Type() string

	// Element returns the opening element, false for text and the document root.
	Element() (linear.Element, bool)

	// SetElement replaces the opening element after an attribute change.
	SetElement(element linear.Element)

	// Parent returns the parent node, nil for a root.
	Parent() Node

	// SetParent is called by the parent when the node is attached or detached.
	SetParent(parent Node)

	// Children returns the child nodes; nil for leaves.
	Children() []Node

	// IndexOf returns the position of child, or -1.
	IndexOf(child Node) int

	// CanHaveChildren reports whether the node is a branch.
	CanHaveChildren() bool

	// ContentLength is the number of items between the wrappers.
	ContentLength() int

	// OuterLength includes the wrappers.
	OuterLength() int

	// AdjustContentLength changes the content length, and the ancestors' when propagate
	// is set.
	AdjustContentLength(delta int, propagate bool)

	// OuterRange is the absolute range including wrappers.
	OuterRange() docrange.Range

	// Range is the absolute range between the wrappers.
	Range() docrange.Range

	// Version increases on every structural change of the node or its descendants.
	Version() uint64

	// BumpVersion records a structural change here and in every ancestor.
	BumpVersion()

	// On registers a handler for event.
	On(event string, handler Handler)

	// Emit calls the handlers of event.
	Emit(event string, args ...interface{})
}

// base carries what every node kind shares.
type base struct {
	self       Node
	typ        string
	element    linear.Element
	hasElement bool
	parent     Node
	length     int
	version    uint64
	handlers   map[string][]Handler
}

func newBase(typ string, element *linear.Element) base {
	b := base{typ: typ}
	if element != nil {
		b.element = *element
		b.hasElement = true
	}
	return b
}

func (b *base) Type() string {
	return b.typ
}

func (b *base) Element() (linear.Element, bool) {
	return b.element, b.hasElement
}

func (b *base) SetElement(element linear.Element) {
	b.element = element
	b.BumpVersion()
}

func (b *base) Parent() Node {
	return b.parent
}

func (b *base) SetParent(parent Node) {
	b.parent = parent
}

func (b *base) IndexOf(Node) int {
	return -1
}

func (b *base) Children() []Node {
	return nil
}

func (b *base) CanHaveChildren() bool {
	return false
}

func (b *base) ContentLength() int {
	return b.length
}

func (b *base) OuterLength() int {
	if b.hasElement {
		return b.length + 2
	}
	return b.length
}

func (b *base) AdjustContentLength(delta int, propagate bool) {
	b.length += delta
	if propagate && b.parent != nil {
		b.parent.AdjustContentLength(delta, true)
	}
}

func (b *base) OuterRange() docrange.Range {
	start := 0
	if b.parent != nil {
		start = b.parent.Range().Start
		for _, sibling := range b.parent.Children() {
			if sibling == b.self {
				break
			}
			start += sibling.OuterLength()
		}
	}
	return docrange.New(start, start+b.self.OuterLength())
}

func (b *base) Range() docrange.Range {
	outer := b.OuterRange()
	if b.hasElement {
		return docrange.New(outer.Start+1, outer.End-1)
	}
	return outer
}

func (b *base) Version() uint64 {
	return b.version
}

func (b *base) BumpVersion() {
	b.version++
	if b.parent != nil {
		b.parent.BumpVersion()
	}
}

func (b *base) On(event string, handler Handler) {
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *base) Emit(event string, args ...interface{}) {
	for _, h := range b.handlers[event] {
		h(args...)
	}
}

// LeafNode is an element without children, such as an image.
type LeafNode struct {
	base
}

// NewLeafNode creates a leaf for element.
func NewLeafNode(element linear.Element) *LeafNode {
	n := &LeafNode{base: newBase(element.Type, &element)}
	n.self = n
	return n
}

// TextNode is a run of characters.
type TextNode struct {
	base
}

// NewTextNode creates a text node of length characters.
func NewTextNode(length int) *TextNode {
	n := &TextNode{base: newBase("text", nil)}
	n.length = length
	n.self = n
	return n
}
