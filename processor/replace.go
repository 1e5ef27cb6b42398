package processor

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"

	"linmodel/common"
	"linmodel/doctree"
	"linmodel/hashstore"
	"linmodel/linear"
)

// splicer is implemented by branch nodes, including types embedding *doctree.BranchNode.
type splicer interface {
	SpliceChildren(index, remove, batchSize int, nodes ...doctree.Node) []doctree.Node
}

// slotEdit holds the metadata slots a replace rewrites. Both are nil for a plain replace.
type slotEdit struct {
	remove [][]linear.Item
	insert [][]linear.Item
}

func (e slotEdit) empty() bool {
	return e.remove == nil && e.insert == nil
}

// replace removes len(remove) items at the cursor and inserts insert. Content-only edits
// adjust the length of the text node in place; edits touching element markers rebuild
// the affected children of the closest node enclosing the whole edit.
func (r *run) replace(remove, insert []linear.Item, slots slotEdit) error {
	data := r.doc.Data()
	offset := r.cursor
	if offset+len(remove) > data.Len() {
		return common.ErrOutOfBounds{Index: offset + len(remove), Length: data.Len()}
	}
	for i, item := range remove {
		if !sameItem(data.At(offset+i), item) {
			return common.ErrInvalidTransaction{Message: fmt.Sprintf("removed item at offset %d does not match the document", offset+i)}
		}
	}
	slots, err := r.checkSlots(offset, len(remove), len(insert), slots)
	if err != nil {
		return err
	}
	insert, err = linear.CloneItems(insert)
	if err != nil {
		return err
	}

	if linear.ContainsElementData(remove) || linear.ContainsElementData(insert) {
		err = r.replaceStructure(offset, remove, insert, slots)
	} else {
		err = r.replaceContent(offset, remove, insert, slots)
	}
	if err != nil {
		return err
	}
	r.cursor += len(insert)
	return nil
}

// checkSlots verifies the slots a replace removes against the document and returns a
// copy of the slots it inserts.
func (r *run) checkSlots(offset, remove, insert int, slots slotEdit) (slotEdit, error) {
	if slots.empty() {
		return slots, nil
	}
	if len(slots.remove) != remove+1 || len(slots.insert) != insert+1 {
		return slots, common.ErrInvalidTransaction{Message: fmt.Sprintf("replace at offset %d carries the wrong number of metadata slots", offset)}
	}
	for i, slot := range slots.remove {
		current := r.doc.MetadataAt(offset + i)
		if len(current) != len(slot) {
			return slots, common.ErrInvalidTransaction{Message: fmt.Sprintf("removed metadata at offset %d does not match the document", offset+i)}
		}
		for j := range slot {
			if !sameItem(current[j], slot[j]) {
				return slots, common.ErrInvalidTransaction{Message: fmt.Sprintf("removed metadata at offset %d does not match the document", offset+i)}
			}
		}
	}
	inserted := make([][]linear.Item, len(slots.insert))
	for i, slot := range slots.insert {
		items, err := linear.CloneItems(slot)
		if err != nil {
			return slots, err
		}
		inserted[i] = items
	}
	slots.insert = inserted
	return slots, nil
}

func (r *run) replaceContent(offset int, remove, insert []linear.Item, slots slotEdit) error {
	text := r.doc.TextNodeAt(offset, len(remove))
	if text == nil {
		// No text node to grow, for example when typing into an empty paragraph.
		return r.replaceStructure(offset, remove, insert, slots)
	}
	if err := r.spliceData(offset, len(remove), insert, slots); err != nil {
		return err
	}

	text.AdjustContentLength(len(insert)-len(remove), true)
	if text.ContentLength() == 0 {
		parent := text.Parent()
		s, ok := parent.(splicer)
		if !ok {
			return common.ErrInvalidTransaction{Message: fmt.Sprintf("cannot remove empty text node from %s", parent.Type())}
		}
		s.SpliceChildren(parent.IndexOf(text), 1, r.p.batchSize)
		parent.Emit(doctree.EventUpdate, offset)
		return nil
	}
	text.Emit(doctree.EventUpdate, offset)
	return nil
}

func (r *run) replaceStructure(offset int, remove, insert []linear.Item, slots slotEdit) error {
	_, removeLowest := linear.DepthProfile(remove)
	_, insertLowest := linear.DepthProfile(insert)
	climb := removeLowest
	if insertLowest < climb {
		climb = insertLowest
	}

	path := r.doc.BranchPath(offset)
	depth := len(path) - 1 + climb
	if depth < 0 {
		return common.ErrUnbalanced{Offset: offset, Message: "edit closes more elements than enclose it"}
	}
	node := path[depth]
	s, ok := node.(splicer)
	if !ok || !node.CanHaveChildren() {
		return common.ErrInvalidTransaction{Message: fmt.Sprintf("cannot rebuild children of %s", node.Type())}
	}

	// Rebuild the children touching the edited span, neighbours included so adjacent
	// text merges.
	removeEnd := offset + len(remove)
	first, count := -1, 0
	rawStart, rawEnd := node.Range().Start, node.Range().Start
	pos := node.Range().Start
	for i, child := range node.Children() {
		end := pos + child.OuterLength()
		if end >= offset && pos <= removeEnd {
			if first < 0 {
				first = i
				rawStart = pos
			}
			count++
			rawEnd = end
		}
		pos = end
	}
	if first < 0 {
		first = 0
		rawStart, rawEnd = offset, removeEnd
	}
	if rawStart > offset || rawEnd < removeEnd {
		return common.ErrUnbalanced{Offset: offset, Message: "edit is not covered by the rebuilt children"}
	}

	if err := r.spliceData(offset, len(remove), insert, slots); err != nil {
		return err
	}
	delta := len(insert) - len(remove)
	items, err := r.doc.Data().Slice(rawStart, rawEnd+delta)
	if err != nil {
		return err
	}
	nodes, err := r.doc.Builder().BuildNodes(items)
	if err != nil {
		return errors.Wrapf(err, "failed to rebuild %s at offset %d", node.Type(), rawStart)
	}
	s.SpliceChildren(first, count, r.p.batchSize, nodes...)
	node.Emit(doctree.EventUpdate, offset)
	r.p.metrics.ObserveRebuild(len(nodes))
	return nil
}

// spliceData splices the metadata slots and then the data. The slot check runs first so
// a refused removal leaves the document untouched.
func (r *run) spliceData(offset, remove int, insert []linear.Item, slots slotEdit) error {
	var err error
	if slots.empty() {
		err = r.doc.SpliceMetadataSlots(offset, remove, len(insert))
	} else {
		err = r.doc.ReplaceMetadataSlots(offset, remove, slots.insert)
	}
	if err != nil {
		return err
	}
	_, err = r.doc.Data().BatchSplice(offset, remove, insert, r.p.batchSize)
	return err
}

// sameItem reports whether a removed item matches the document. Characters must carry
// the same annotations in the same order; elements are compared by their canonical
// hash, so attribute numbers decoded from JSON match their integer originals.
func sameItem(a, b linear.Item) bool {
	if linear.IsElementData(a) || linear.IsElementData(b) {
		ea, okA := a.(linear.Element)
		eb, okB := b.(linear.Element)
		if !okA || !okB || ea.Type != eb.Type {
			return false
		}
		ha, errA := hashstore.HashOf(ea)
		hb, errB := hashstore.HashOf(eb)
		return errA == nil && errB == nil && ha == hb
	}
	ca, okA := linear.GetCharacter(a)
	cb, okB := linear.GetCharacter(b)
	return okA && okB && ca == cb && slices.Equal(linear.GetAnnotations(a), linear.GetAnnotations(b))
}

func (r *run) replaceMetadata(index int, remove, insert []linear.Item) error {
	slot := r.doc.MetadataAt(r.cursor)
	if index < 0 || index+len(remove) > len(slot) {
		return common.ErrOutOfBounds{Index: index + len(remove), Length: len(slot)}
	}
	for i, item := range remove {
		if !sameItem(slot[index+i], item) {
			return common.ErrInvalidTransaction{Message: fmt.Sprintf("removed metadata at offset %d does not match the document", r.cursor)}
		}
	}
	insert, err := linear.CloneItems(insert)
	if err != nil {
		return err
	}
	_, err = r.doc.SpliceMetadata(r.cursor, index, len(remove), insert)
	return err
}
