package transaction

import (
	"linmodel/common"
	"linmodel/linear"
)

// Operation is one step of a transaction. The set of operations is closed: Retain,
// Replace, ReplaceMetadata, ReplaceElementAttribute and Annotate.
type Operation interface {
	// Type returns the type of the operation.
	Type() common.OperationType

	// Reversed returns the operation that undoes this one when applied at the same
	// cursor position.
	Reversed() Operation

	isOperation()
}

// Retain advances the cursor by Length positions. Characters passed over while an
// annotation is open are annotated.
type Retain struct {
	Length int
}

// Type returns the type of the operation.
func (o *Retain) Type() common.OperationType {
	return common.OperationTypeRetain
}

// Reversed returns the operation itself, retaining is symmetric.
func (o *Retain) Reversed() Operation {
	return &Retain{Length: o.Length}
}

func (*Retain) isOperation() {}

// Replace removes len(Remove) items at the cursor and inserts Insert in their place.
// Remove holds the exact items being removed so the operation can be reversed.
//
// RemoveMetadata and InsertMetadata are set together or not at all. When set they cover
// the slots from the cursor to the end of the replaced span inclusive, so they hold
// len(Remove)+1 and len(Insert)+1 slots. Without them the slots inside the removed span
// must be empty.
type Replace struct {
	Remove []linear.Item
	Insert []linear.Item

	RemoveMetadata [][]linear.Item
	InsertMetadata [][]linear.Item
}

// HasMetadata reports whether the operation carries the slots it replaces.
func (o *Replace) HasMetadata() bool {
	return o.RemoveMetadata != nil || o.InsertMetadata != nil
}

// Type returns the type of the operation.
func (o *Replace) Type() common.OperationType {
	return common.OperationTypeReplace
}

// Reversed swaps the removed and inserted items.
func (o *Replace) Reversed() Operation {
	return &Replace{
		Remove:         o.Insert,
		Insert:         o.Remove,
		RemoveMetadata: o.InsertMetadata,
		InsertMetadata: o.RemoveMetadata,
	}
}

func (*Replace) isOperation() {}

// ReplaceMetadata replaces len(Remove) items at Index of the metadata slot at the cursor.
type ReplaceMetadata struct {
	Index  int
	Remove []linear.Item
	Insert []linear.Item
}

// Type returns the type of the operation.
func (o *ReplaceMetadata) Type() common.OperationType {
	return common.OperationTypeReplaceMetadata
}

// Reversed swaps the removed and inserted items.
func (o *ReplaceMetadata) Reversed() Operation {
	return &ReplaceMetadata{Index: o.Index, Remove: o.Insert, Insert: o.Remove}
}

func (*ReplaceMetadata) isOperation() {}

// ReplaceElementAttribute changes attribute Key of the element at the cursor from From
// to To. A nil From adds the attribute, a nil To removes it.
type ReplaceElementAttribute struct {
	Key  string
	From interface{}
	To   interface{}
}

// Type returns the type of the operation.
func (o *ReplaceElementAttribute) Type() common.OperationType {
	return common.OperationTypeAttribute
}

// Reversed swaps From and To.
func (o *ReplaceElementAttribute) Reversed() Operation {
	return &ReplaceElementAttribute{Key: o.Key, From: o.To, To: o.From}
}

func (*ReplaceElementAttribute) isOperation() {}

// Annotate starts or stops applying Annotation with Method to the characters retained
// in between.
type Annotate struct {
	Method     common.AnnotationMethod
	Bias       common.AnnotationBias
	Annotation interface{}
}

// Type returns the type of the operation.
func (o *Annotate) Type() common.OperationType {
	return common.OperationTypeAnnotate
}

// Reversed flips the method, so a span that was set gets cleared and vice versa.
func (o *Annotate) Reversed() Operation {
	return &Annotate{Method: o.Method.Inverse(), Bias: o.Bias, Annotation: o.Annotation}
}

func (*Annotate) isOperation() {}

// StartAnnotating returns the operation opening an annotation span.
func StartAnnotating(method common.AnnotationMethod, annotation interface{}) *Annotate {
	return &Annotate{Method: method, Bias: common.AnnotationBiasStart, Annotation: annotation}
}

// StopAnnotating returns the operation closing an annotation span.
func StopAnnotating(method common.AnnotationMethod, annotation interface{}) *Annotate {
	return &Annotate{Method: method, Bias: common.AnnotationBiasStop, Annotation: annotation}
}
