// Package history keeps undo and redo stacks of committed transactions.
package history

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"linmodel/core/doclog"
	"linmodel/document"
	"linmodel/processor"
	"linmodel/transaction"
)

// History commits transactions to one document and can roll them back in reverse order.
// It is not safe for concurrent use.
type History struct {
	doc       *document.Document
	processor *processor.Processor
	maxDepth  int
	logger    *zap.Logger

	undo    []*transaction.Transaction
	redo    []*transaction.Transaction
	version int64
}

// Option configures a History.
type Option func(*History)

// WithMaxDepth bounds the undo stack; the oldest entries are dropped first. 0 keeps
// everything.
func WithMaxDepth(depth int) Option {
	return func(h *History) {
		h.maxDepth = depth
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *History) {
		h.logger = logger
	}
}

// New creates an empty history for doc.
func New(doc *document.Document, p *processor.Processor, opts ...Option) *History {
	h := &History{doc: doc, processor: p}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = doclog.Named("history")
	}
	return h
}

// Document returns the edited document.
func (h *History) Document() *document.Document {
	return h.doc
}

// Version counts the changes made through the history, undo and redo included.
func (h *History) Version() int64 {
	return h.version
}

// Push commits tx and records it for undo. The redo stack is cleared. No-op
// transactions are committed but not recorded.
func (h *History) Push(tx *transaction.Transaction) error {
	if err := h.processor.Commit(h.doc, tx); err != nil {
		return err
	}
	h.version++
	if tx.IsNoOp() {
		return nil
	}
	h.undo = append(h.undo, tx)
	if h.maxDepth > 0 && len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
	h.redo = nil
	return nil
}

// CanUndo reports whether there is a transaction to undo.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether there is a transaction to redo.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo rolls back the last pushed or redone transaction. It reports false when there is
// nothing to undo.
func (h *History) Undo() (bool, error) {
	if len(h.undo) == 0 {
		return false, nil
	}
	i := len(h.undo) - 1
	tx := h.undo[i]
	if err := h.processor.Rollback(h.doc, tx); err != nil {
		return false, errors.Wrap(err, "undo failed")
	}
	h.undo = h.undo[:i]
	h.redo = append(h.redo, tx)
	h.version++
	h.logger.Debug("undo", zap.String("id", tx.ID.String()), zap.Int("remaining", len(h.undo)))
	return true, nil
}

// Redo commits the last undone transaction again. It reports false when there is
// nothing to redo.
func (h *History) Redo() (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}
	i := len(h.redo) - 1
	tx := h.redo[i]
	if err := h.processor.Commit(h.doc, tx); err != nil {
		return false, errors.Wrap(err, "redo failed")
	}
	h.redo = h.redo[:i]
	h.undo = append(h.undo, tx)
	h.version++
	h.logger.Debug("redo", zap.String("id", tx.ID.String()), zap.Int("remaining", len(h.redo)))
	return true, nil
}
