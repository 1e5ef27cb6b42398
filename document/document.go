// Package document binds linear data, its per-offset metadata channel and the node tree
// derived from it.
package document

import (
	"github.com/pkg/errors"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/doctree"
	"linmodel/hashstore"
	"linmodel/linear"
)

// Document is a live document. Its data and tree are only changed by the transaction
// processor.
type Document struct {
	// ID identifies the document for persistence.
	ID common.DocumentID

	data     *linear.Data
	metadata [][]linear.Item
	root     *doctree.BranchNode
	factory  doctree.Factory
	builder  doctree.Builder
}

// Option configures a Document.
type Option func(*Document)

// WithID sets the document id.
func WithID(id common.DocumentID) Option {
	return func(d *Document) {
		d.ID = id
	}
}

// WithFactory sets the node factory, and the tree builder when none is given.
func WithFactory(factory doctree.Factory) Option {
	return func(d *Document) {
		d.factory = factory
	}
}

// WithBuilder sets the tree builder.
func WithBuilder(builder doctree.Builder) Option {
	return func(d *Document) {
		d.builder = builder
	}
}

// WithMetadata sets the metadata slots. There must be one slot per offset, that is
// one more than there are items.
func WithMetadata(slots [][]linear.Item) Option {
	return func(d *Document) {
		d.metadata = slots
	}
}

// New creates a document over data and builds its tree.
func New(data *linear.Data, opts ...Option) (*Document, error) {
	d := &Document{data: data}
	for _, opt := range opts {
		opt(d)
	}
	if d.ID == common.NilDocumentID {
		d.ID = common.NewDocumentID()
	}
	if d.factory == nil {
		d.factory = doctree.NewDefaultRegistry()
	}
	if d.builder == nil {
		d.builder = doctree.NewTreeBuilder(d.factory)
	}
	if d.metadata == nil {
		d.metadata = make([][]linear.Item, data.Len()+1)
	}
	if len(d.metadata) != data.Len()+1 {
		return nil, errors.Errorf("expected %d metadata slots, got %d", data.Len()+1, len(d.metadata))
	}

	nodes, err := d.builder.BuildNodes(data.Items())
	if err != nil {
		return nil, errors.Wrap(err, "failed to build document tree")
	}
	d.root = doctree.NewDocumentNode(nodes)
	return d, nil
}

// NewFromItems creates a document with a fresh store.
func NewFromItems(items []linear.Item, opts ...Option) (*Document, error) {
	data, err := linear.New(hashstore.New(), items)
	if err != nil {
		return nil, err
	}
	return New(data, opts...)
}

// Data returns the linear data.
func (d *Document) Data() *linear.Data {
	return d.data
}

// Store returns the hash store of the data.
func (d *Document) Store() *hashstore.Store {
	return d.data.Store()
}

// Root returns the document node.
func (d *Document) Root() *doctree.BranchNode {
	return d.root
}

// Factory returns the node factory.
func (d *Document) Factory() doctree.Factory {
	return d.factory
}

// Builder returns the tree builder.
func (d *Document) Builder() doctree.Builder {
	return d.builder
}

// BranchPath returns the element nodes enclosing offset, root first. The node at index
// k holds positions of depth k; offsets directly after an opening element or directly
// before a closing one are inside that element.
func (d *Document) BranchPath(offset int) []doctree.Node {
	path := []doctree.Node{d.root}
	var node doctree.Node = d.root
	start := 0
	for {
		var next doctree.Node
		pos := start
		for _, child := range node.Children() {
			length := child.OuterLength()
			if _, isElement := child.Element(); isElement && offset > pos && offset < pos+length {
				next = child
				start = pos + 1
				break
			}
			pos += length
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		node = next
	}
}

// NodeFromOffset returns the deepest element node enclosing offset, or the root.
func (d *Document) NodeFromOffset(offset int) doctree.Node {
	path := d.BranchPath(offset)
	return path[len(path)-1]
}

// TextNodeAt returns the text node covering [offset, offset+length] inside the deepest
// enclosing branch, or nil when no single text node does.
func (d *Document) TextNodeAt(offset, length int) doctree.Node {
	parent := d.NodeFromOffset(offset)
	pos := parent.Range().Start
	for _, child := range parent.Children() {
		end := pos + child.OuterLength()
		if _, isElement := child.Element(); !isElement && pos <= offset && offset+length <= end {
			return child
		}
		if pos > offset {
			break
		}
		pos = end
	}
	return nil
}

// InternalListNode returns the top-level internal list, if any.
func (d *Document) InternalListNode() doctree.Node {
	for _, child := range d.root.Children() {
		if child.Type() == "internalList" {
			return child
		}
	}
	return nil
}

// DocumentRange covers the document content, excluding the internal list.
func (d *Document) DocumentRange() docrange.Range {
	if list := d.InternalListNode(); list != nil {
		return docrange.New(0, list.OuterRange().Start)
	}
	return docrange.New(0, d.data.Len())
}

// MetadataAt returns the metadata items at offset. The slice must not be modified.
func (d *Document) MetadataAt(offset int) []linear.Item {
	if offset < 0 || offset >= len(d.metadata) {
		return nil
	}
	return d.metadata[offset]
}

// MetadataSlots returns a copy of the metadata slots.
func (d *Document) MetadataSlots() [][]linear.Item {
	out := make([][]linear.Item, len(d.metadata))
	for i, slot := range d.metadata {
		if len(slot) > 0 {
			out[i] = append([]linear.Item(nil), slot...)
		}
	}
	return out
}

// SpliceMetadata replaces remove metadata items at index in the slot at offset with
// insert. It returns the removed items.
func (d *Document) SpliceMetadata(offset, index, remove int, insert []linear.Item) ([]linear.Item, error) {
	if offset < 0 || offset >= len(d.metadata) {
		return nil, common.ErrOutOfBounds{Index: offset, Length: len(d.metadata)}
	}
	slot := d.metadata[offset]
	if index < 0 || index+remove > len(slot) {
		return nil, common.ErrOutOfBounds{Index: index + remove, Length: len(slot)}
	}
	slot, removed := linear.SpliceBatched(slot, index, remove, insert, 0)
	if len(slot) == 0 {
		slot = nil
	}
	d.metadata[offset] = slot
	return removed, nil
}

// SpliceMetadataSlots keeps the slots aligned with a data splice at offset: the slots
// after the removed items go away and empty slots are added for inserted items.
// Removing a slot that still holds metadata is an error.
func (d *Document) SpliceMetadataSlots(offset, remove, insert int) error {
	if offset < 0 || offset+remove >= len(d.metadata) {
		return common.ErrOutOfBounds{Index: offset + remove, Length: len(d.metadata)}
	}
	for i := offset + 1; i <= offset+remove; i++ {
		if len(d.metadata[i]) > 0 {
			return common.ErrInvalidTransaction{Message: "removal would discard metadata"}
		}
	}
	d.metadata, _ = linear.SpliceBatched(d.metadata, offset+1, remove, make([][]linear.Item, insert), 0)
	return nil
}

// ReplaceMetadataSlots replaces the remove+1 slots starting at offset with slots, which
// must hold one more slot than the number of items the matching data splice inserts.
func (d *Document) ReplaceMetadataSlots(offset, remove int, slots [][]linear.Item) error {
	if offset < 0 || offset+remove >= len(d.metadata) {
		return common.ErrOutOfBounds{Index: offset + remove, Length: len(d.metadata)}
	}
	if len(slots) == 0 {
		return common.ErrInvalidTransaction{Message: "replacement keeps no metadata slot"}
	}
	insert := make([][]linear.Item, len(slots))
	for i, slot := range slots {
		if len(slot) > 0 {
			insert[i] = append([]linear.Item(nil), slot...)
		}
	}
	d.metadata, _ = linear.SpliceBatched(d.metadata, offset, remove+1, insert, 0)
	return nil
}

// Plain is a comparable snapshot of a document.
type Plain struct {
	Items    []linear.Item
	Metadata [][]linear.Item
	Tree     doctree.PlainNode
}

// Plain snapshots the data, metadata and tree.
func (d *Document) Plain() Plain {
	return Plain{
		Items:    d.data.Items(),
		Metadata: d.MetadataSlots(),
		Tree:     doctree.Plain(d.root),
	}
}
