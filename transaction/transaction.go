// Package transaction defines the invertible operation language used to edit linear
// documents, a builder that keeps operation lists well formed and factories for common
// edits.
package transaction

import (
	"linmodel/common"
	"linmodel/docrange"
	"linmodel/document"
)

// Transaction is an ordered list of operations describing one atomic edit. Once built it
// is not modified, apart from the applied flag maintained by the processor.
type Transaction struct {
	// ID identifies the transaction.
	ID common.TransactionID

	// Operations are applied strictly in order.
	Operations []Operation

	applied bool
}

// New creates a transaction over ops.
func New(ops ...Operation) *Transaction {
	return &Transaction{
		ID:         common.NewTransactionID(),
		Operations: ops,
	}
}

// HasBeenApplied reports whether the transaction is currently committed.
func (t *Transaction) HasBeenApplied() bool {
	return t.applied
}

// MarkApplied records whether the transaction is committed.
func (t *Transaction) MarkApplied(applied bool) {
	t.applied = applied
}

// IsNoOp reports whether the transaction only retains.
func (t *Transaction) IsNoOp() bool {
	for _, op := range t.Operations {
		if _, ok := op.(*Retain); !ok {
			return false
		}
	}
	return true
}

// HasOperationsOfType reports whether any operation has type typ.
func (t *Transaction) HasOperationsOfType(typ common.OperationType) bool {
	for _, op := range t.Operations {
		if op.Type() == typ {
			return true
		}
	}
	return false
}

// Reversed returns a new transaction that undoes t. Committing it is equivalent to
// rolling back t.
func (t *Transaction) Reversed() *Transaction {
	ops := make([]Operation, len(t.Operations))
	for i, op := range t.Operations {
		ops[i] = op.Reversed()
	}
	return New(ops...)
}

// TranslateOffset maps an offset in the document before the transaction to the
// corresponding offset after it. An offset at an insertion point maps past the inserted
// content, or before it when excludeInsertion is set.
func (t *Transaction) TranslateOffset(offset int, excludeInsertion bool) int {
	cursor, adjustment := 0, 0
	for _, op := range t.Operations {
		switch op := op.(type) {
		case *Retain:
			if offset >= cursor && offset < cursor+op.Length {
				return offset + adjustment
			}
			cursor += op.Length
		case *Replace:
			insertLength, removeLength := len(op.Insert), len(op.Remove)
			prevAdjustment := adjustment
			adjustment += insertLength - removeLength
			switch {
			case offset == cursor+removeLength:
				// Right after the removal, which is also right before the insertion.
				if excludeInsertion && insertLength > removeLength {
					return offset + adjustment - insertLength + removeLength
				}
				return offset + adjustment
			case offset == cursor:
				if insertLength == 0 {
					return cursor + removeLength + adjustment
				}
				return cursor + prevAdjustment
			case offset > cursor && offset < cursor+removeLength:
				// Inside the removal.
				return cursor + removeLength + adjustment
			}
			cursor += removeLength
		}
	}
	return offset + adjustment
}

// TranslateRange maps r through the transaction, keeping its direction. The start moves
// past insertions at its position unless excludeInsertion is set, the end only when it is.
func (t *Transaction) TranslateRange(r docrange.Range, excludeInsertion bool) docrange.Range {
	start := t.TranslateOffset(r.Start, !excludeInsertion)
	end := t.TranslateOffset(r.End, excludeInsertion)
	if r.IsBackwards() {
		return docrange.New(end, start)
	}
	return docrange.New(start, end)
}

// GetModifiedRange returns the range of the post-transaction document touched by the
// transaction, or nil when nothing changed. Operations beyond the start of the internal
// list are ignored. A metadata change touches the collapsed range at its offset.
func (t *Transaction) GetModifiedRange(doc *document.Document) *docrange.Range {
	docEnd := doc.DocumentRange().End
	oldOffset, offset := 0, 0
	start, end := -1, -1
	annotating := 0

	touch := func(from, to int) {
		if start < 0 {
			start = from
		}
		end = to
	}

loop:
	for _, op := range t.Operations {
		switch op := op.(type) {
		case *Retain:
			if oldOffset+op.Length > docEnd {
				break loop
			}
			if annotating > 0 && op.Length > 0 {
				touch(offset, offset+op.Length)
			}
			offset += op.Length
			oldOffset += op.Length
		case *Replace:
			touch(offset, offset+len(op.Insert))
			offset += len(op.Insert)
			oldOffset += len(op.Remove)
		case *ReplaceMetadata:
			touch(offset, offset)
		case *ReplaceElementAttribute:
			touch(offset, offset+1)
		case *Annotate:
			if op.Bias == common.AnnotationBiasStart {
				annotating++
			} else {
				annotating--
			}
		}
	}
	if start < 0 {
		return nil
	}
	r := docrange.New(start, end)
	return &r
}
