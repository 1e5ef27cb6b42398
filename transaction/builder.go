package transaction

import (
	"fmt"

	"linmodel/common"
	"linmodel/document"
	"linmodel/hashstore"
	"linmodel/linear"
)

// openAnnotation is an annotation span started but not yet stopped.
type openAnnotation struct {
	method common.AnnotationMethod
	hash   string
}

// Builder accumulates operations for a transaction. Consecutive retains and consecutive
// replaces are merged, and annotation spans must be balanced.
type Builder struct {
	operations []Operation
	open       []openAnnotation
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		operations: make([]Operation, 0),
	}
}

func (b *Builder) last() Operation {
	if len(b.operations) == 0 {
		return nil
	}
	return b.operations[len(b.operations)-1]
}

// PushRetain advances the cursor by length.
func (b *Builder) PushRetain(length int) error {
	if length < 0 {
		return common.ErrInvalidOperation{Message: fmt.Sprintf("negative retain length %d", length)}
	}
	if length == 0 {
		return nil
	}
	if retain, ok := b.last().(*Retain); ok {
		retain.Length += length
		return nil
	}
	b.operations = append(b.operations, &Retain{Length: length})
	return nil
}

// PushReplace removes the items in remove at the cursor and inserts insert.
func (b *Builder) PushReplace(remove, insert []linear.Item) {
	if len(remove) == 0 && len(insert) == 0 {
		return
	}
	if replace, ok := b.last().(*Replace); ok && !replace.HasMetadata() {
		replace.Remove = append(append([]linear.Item(nil), replace.Remove...), remove...)
		replace.Insert = append(append([]linear.Item(nil), replace.Insert...), insert...)
		return
	}
	b.operations = append(b.operations, &Replace{Remove: remove, Insert: insert})
}

// PushReplaceWithMetadata is PushReplace for a replacement that also rewrites the
// metadata slots of the span. It is never merged with a neighbouring replace.
func (b *Builder) PushReplaceWithMetadata(remove, insert []linear.Item, removeMetadata, insertMetadata [][]linear.Item) error {
	if len(removeMetadata) != len(remove)+1 || len(insertMetadata) != len(insert)+1 {
		return common.ErrInvalidOperation{Message: "replace metadata must hold one slot per offset of the span"}
	}
	b.operations = append(b.operations, &Replace{
		Remove:         remove,
		Insert:         insert,
		RemoveMetadata: removeMetadata,
		InsertMetadata: insertMetadata,
	})
	return nil
}

// PushReplaceMetadata replaces items at index of the metadata slot at the cursor.
func (b *Builder) PushReplaceMetadata(index int, remove, insert []linear.Item) error {
	if index < 0 {
		return common.ErrInvalidOperation{Message: fmt.Sprintf("negative metadata index %d", index)}
	}
	if len(remove) == 0 && len(insert) == 0 {
		return nil
	}
	b.operations = append(b.operations, &ReplaceMetadata{Index: index, Remove: remove, Insert: insert})
	return nil
}

// PushReplaceElementAttribute changes attribute key of the element at the cursor.
func (b *Builder) PushReplaceElementAttribute(key string, from, to interface{}) error {
	if key == "" {
		return common.ErrInvalidOperation{Message: "attribute key cannot be empty"}
	}
	b.operations = append(b.operations, &ReplaceElementAttribute{Key: key, From: from, To: to})
	return nil
}

// PushStartAnnotating opens an annotation span.
func (b *Builder) PushStartAnnotating(method common.AnnotationMethod, annotation interface{}) error {
	if !method.Valid() {
		return common.ErrAnnotation{Message: fmt.Sprintf("invalid annotation method %q", method)}
	}
	hash, err := hashstore.HashOf(annotation)
	if err != nil {
		return err
	}
	for _, open := range b.open {
		if open.hash == hash {
			return common.ErrAnnotation{Message: fmt.Sprintf("annotation %s is already being %s", hash, open.method)}
		}
	}
	b.open = append(b.open, openAnnotation{method: method, hash: hash})
	b.operations = append(b.operations, StartAnnotating(method, annotation))
	return nil
}

// PushStopAnnotating closes a span opened with the same method and annotation.
func (b *Builder) PushStopAnnotating(method common.AnnotationMethod, annotation interface{}) error {
	if !method.Valid() {
		return common.ErrAnnotation{Message: fmt.Sprintf("invalid annotation method %q", method)}
	}
	hash, err := hashstore.HashOf(annotation)
	if err != nil {
		return err
	}
	for i := len(b.open) - 1; i >= 0; i-- {
		if b.open[i].method == method && b.open[i].hash == hash {
			b.open = append(b.open[:i], b.open[i+1:]...)
			b.operations = append(b.operations, StopAnnotating(method, annotation))
			return nil
		}
	}
	return common.ErrAnnotation{Message: fmt.Sprintf("stopping %s of %s which was not started", method, hash)}
}

// PushFinalRetain retains from offset to the end of doc.
func (b *Builder) PushFinalRetain(doc *document.Document, offset int) error {
	remaining := doc.Data().Len() - offset
	if remaining < 0 {
		return common.ErrOutOfBounds{Index: offset, Length: doc.Data().Len()}
	}
	return b.PushRetain(remaining)
}

// Build returns the transaction. Every annotation span must have been stopped.
func (b *Builder) Build() (*Transaction, error) {
	if len(b.open) > 0 {
		return nil, common.ErrAnnotation{Message: fmt.Sprintf("%d annotation spans left open", len(b.open))}
	}
	return New(b.operations...), nil
}
