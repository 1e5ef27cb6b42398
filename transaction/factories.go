package transaction

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/document"
	"linmodel/hashstore"
	"linmodel/linear"
)

func checkOffset(doc *document.Document, offset int) error {
	if offset < 0 || offset > doc.Data().Len() {
		return common.ErrOutOfBounds{Index: offset, Length: doc.Data().Len()}
	}
	return nil
}

func checkRange(doc *document.Document, r docrange.Range) error {
	if err := checkOffset(doc, r.Start); err != nil {
		return err
	}
	return checkOffset(doc, r.End)
}

// NewFromInsertion inserts items at offset.
func NewFromInsertion(doc *document.Document, offset int, items []linear.Item) (*Transaction, error) {
	if err := checkOffset(doc, offset); err != nil {
		return nil, err
	}
	b := NewBuilder()
	if err := b.PushRetain(offset); err != nil {
		return nil, err
	}
	b.PushReplace(nil, items)
	if err := b.PushFinalRetain(doc, offset); err != nil {
		return nil, err
	}
	return b.Build()
}

// NewFromRemoval removes the content of r. Element markers whose partner lies outside r
// are kept, so nodes that are only partially covered keep their wrappers around the
// surviving content. Metadata in the slots of a removed run is collected into the slot
// at the start of the run.
func NewFromRemoval(doc *document.Document, r docrange.Range) (*Transaction, error) {
	if err := checkRange(doc, r); err != nil {
		return nil, err
	}
	data := doc.Data()
	partners, err := elementPartners(data)
	if err != nil {
		return nil, err
	}

	b := NewBuilder()
	if err := b.PushRetain(r.Start); err != nil {
		return nil, err
	}
	var run []linear.Item
	runStart := r.Start
	for i := r.Start; i < r.End; i++ {
		item := data.At(i)
		if linear.IsElementData(item) {
			if partner := partners[i]; partner < r.Start || partner >= r.End {
				if err := pushRemoval(b, doc, runStart, run); err != nil {
					return nil, err
				}
				run = nil
				runStart = i + 1
				if err := b.PushRetain(1); err != nil {
					return nil, err
				}
				continue
			}
		}
		removed, err := linear.CloneItem(item)
		if err != nil {
			return nil, err
		}
		run = append(run, removed)
	}
	if err := pushRemoval(b, doc, runStart, run); err != nil {
		return nil, err
	}
	if err := b.PushFinalRetain(doc, r.End); err != nil {
		return nil, err
	}
	return b.Build()
}

// pushRemoval removes run at offset. When a slot the removal would drop holds metadata,
// the replace carries the slots of the run and merges them into one.
func pushRemoval(b *Builder, doc *document.Document, offset int, run []linear.Item) error {
	if len(run) == 0 {
		return nil
	}
	keep := false
	for i := offset + 1; i <= offset+len(run); i++ {
		if len(doc.MetadataAt(i)) > 0 {
			keep = true
			break
		}
	}
	if !keep {
		b.PushReplace(run, nil)
		return nil
	}
	removed := make([][]linear.Item, len(run)+1)
	var merged []linear.Item
	for i := range removed {
		slot, err := linear.CloneItems(doc.MetadataAt(offset + i))
		if err != nil {
			return err
		}
		if len(slot) > 0 {
			removed[i] = slot
			merged = append(merged, slot...)
		}
	}
	return b.PushReplaceWithMetadata(run, nil, removed, [][]linear.Item{merged})
}

// elementPartners maps the offset of every element marker to the offset of its partner.
func elementPartners(data *linear.Data) (map[int]int, error) {
	partners := make(map[int]int)
	var stack []int
	for i := 0; i < data.Len(); i++ {
		item := data.At(i)
		switch {
		case linear.IsOpenElementData(item):
			stack = append(stack, i)
		case linear.IsCloseElementData(item):
			if len(stack) == 0 {
				return nil, common.ErrUnbalanced{Offset: i, Message: "close without open"}
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			partners[open] = i
			partners[i] = open
		}
	}
	if len(stack) > 0 {
		return nil, common.ErrUnbalanced{Offset: stack[len(stack)-1], Message: "element is never closed"}
	}
	return partners, nil
}

// NewFromAttributeChanges sets the attributes of the element opening at offset. A nil
// value removes the attribute. Unchanged attributes produce no operation.
func NewFromAttributeChanges(doc *document.Document, offset int, attributes map[string]interface{}) (*Transaction, error) {
	if err := checkOffset(doc, offset); err != nil {
		return nil, err
	}
	element, ok := doc.Data().At(offset).(linear.Element)
	if !ok || !linear.IsOpenElementData(element) {
		return nil, common.ErrNotElement{Offset: offset}
	}

	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	b := NewBuilder()
	if err := b.PushRetain(offset); err != nil {
		return nil, err
	}
	for _, key := range keys {
		from, _ := element.Attribute(key)
		to := attributes[key]
		if reflect.DeepEqual(from, to) {
			continue
		}
		if err := b.PushReplaceElementAttribute(key, from, to); err != nil {
			return nil, err
		}
	}
	if err := b.PushFinalRetain(doc, offset); err != nil {
		return nil, err
	}
	return b.Build()
}

// NewFromAnnotation sets or clears annotation over the characters of r. Element markers
// are skipped, as are characters that already carry the annotation when setting or lack
// it when clearing.
func NewFromAnnotation(doc *document.Document, r docrange.Range, method common.AnnotationMethod, annotation interface{}) (*Transaction, error) {
	if err := checkRange(doc, r); err != nil {
		return nil, err
	}
	if !method.Valid() {
		return nil, common.ErrAnnotation{Message: "invalid annotation method " + string(method)}
	}
	hash, err := hashstore.HashOf(annotation)
	if err != nil {
		return nil, err
	}

	data := doc.Data()
	covered := func(offset int) bool {
		item := data.At(offset)
		if !linear.IsContentData(item) {
			return false
		}
		return linear.HasAnnotation(item, hash) == (method == common.AnnotationMethodClear)
	}

	b := NewBuilder()
	cursor := 0
	for i := r.Start; i < r.End; {
		if !covered(i) {
			i++
			continue
		}
		runStart := i
		for i < r.End && covered(i) {
			i++
		}
		if err := b.PushRetain(runStart - cursor); err != nil {
			return nil, err
		}
		if err := b.PushStartAnnotating(method, annotation); err != nil {
			return nil, err
		}
		if err := b.PushRetain(i - runStart); err != nil {
			return nil, err
		}
		if err := b.PushStopAnnotating(method, annotation); err != nil {
			return nil, err
		}
		cursor = i
	}
	if err := b.PushFinalRetain(doc, cursor); err != nil {
		return nil, err
	}
	return b.Build()
}

// NewFromMetadataInsertion inserts items at index of the metadata slot at offset.
func NewFromMetadataInsertion(doc *document.Document, offset, index int, items []linear.Item) (*Transaction, error) {
	if err := checkOffset(doc, offset); err != nil {
		return nil, err
	}
	if index < 0 || index > len(doc.MetadataAt(offset)) {
		return nil, common.ErrOutOfBounds{Index: index, Length: len(doc.MetadataAt(offset))}
	}
	b := NewBuilder()
	if err := b.PushRetain(offset); err != nil {
		return nil, err
	}
	if err := b.PushReplaceMetadata(index, nil, items); err != nil {
		return nil, err
	}
	if err := b.PushFinalRetain(doc, offset); err != nil {
		return nil, err
	}
	return b.Build()
}

// NewFromMetadataRemoval removes the items in r from the metadata slot at offset.
func NewFromMetadataRemoval(doc *document.Document, offset int, r docrange.Range) (*Transaction, error) {
	if err := checkOffset(doc, offset); err != nil {
		return nil, err
	}
	slot := doc.MetadataAt(offset)
	if r.Start < 0 || r.End > len(slot) {
		return nil, common.ErrOutOfBounds{Index: r.End, Length: len(slot)}
	}
	removed, err := linear.CloneItems(slot[r.Start:r.End])
	if err != nil {
		return nil, errors.Wrap(err, "failed to copy metadata")
	}
	b := NewBuilder()
	if err := b.PushRetain(offset); err != nil {
		return nil, err
	}
	if err := b.PushReplaceMetadata(r.Start, removed, nil); err != nil {
		return nil, err
	}
	if err := b.PushFinalRetain(doc, offset); err != nil {
		return nil, err
	}
	return b.Build()
}
