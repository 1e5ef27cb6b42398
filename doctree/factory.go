package doctree

import (
	"github.com/pkg/errors"

	"linmodel/linear"
)

// Constructor creates a node for an opening element.
type Constructor func(element linear.Element) Node

// Factory creates nodes for element types. It is injected wherever trees are built so
// no registry is global.
type Factory interface {
	// Create returns a node for element.
	Create(element linear.Element) (Node, error)

	// CanContainContent reports whether nodes of typ hold characters directly.
	CanContainContent(typ string) bool
}

// Registry is a Factory backed by per-type constructors.
type Registry struct {
	constructors map[string]Constructor
	content      map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
		content:      make(map[string]bool),
	}
}

// NewDefaultRegistry returns a registry with the common rich-text node types.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, typ := range []string{"paragraph", "heading", "preformatted"} {
		r.RegisterContentBranch(typ)
	}
	for _, typ := range []string{
		"list", "listItem", "div", "blockquote", "internalList", "internalItem",
		"table", "tableSection", "tableRow", "tableCell", "tableCaption",
	} {
		r.RegisterBranch(typ)
	}
	for _, typ := range []string{"image", "alienInline", "alienBlock", "comment", "break"} {
		r.RegisterLeaf(typ)
	}
	return r
}

// Register sets the constructor for typ.
func (r *Registry) Register(typ string, ctor Constructor, canContainContent bool) {
	r.constructors[typ] = ctor
	r.content[typ] = canContainContent
}

// RegisterBranch registers typ as a plain branch.
func (r *Registry) RegisterBranch(typ string) {
	r.Register(typ, func(e linear.Element) Node { return NewBranchNode(e) }, false)
}

// RegisterContentBranch registers typ as a branch holding characters.
func (r *Registry) RegisterContentBranch(typ string) {
	r.Register(typ, func(e linear.Element) Node { return NewBranchNode(e) }, true)
}

// RegisterLeaf registers typ as a leaf.
func (r *Registry) RegisterLeaf(typ string) {
	r.Register(typ, func(e linear.Element) Node { return NewLeafNode(e) }, false)
}

// Create returns a node for element.
func (r *Registry) Create(element linear.Element) (Node, error) {
	ctor, ok := r.constructors[element.Type]
	if !ok {
		return nil, errors.Errorf("unknown node type %q", element.Type)
	}
	return ctor(element), nil
}

// CanContainContent reports whether typ holds characters.
func (r *Registry) CanContainContent(typ string) bool {
	return r.content[typ]
}
