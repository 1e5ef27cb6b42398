// Package processor applies transactions to documents and rolls them back, keeping the
// linear data, metadata slots and node tree in lockstep.
package processor

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"linmodel/common"
	"linmodel/core/doclog"
	"linmodel/document"
	"linmodel/linear"
	"linmodel/metrics"
	"linmodel/transaction"
)

const (
	directionCommit   = "commit"
	directionRollback = "rollback"
)

// Processor commits and rolls back transactions. It holds no per-document state, so one
// processor may serve many documents, but each document must only be edited by one
// call at a time.
type Processor struct {
	logger    *zap.Logger
	batchSize int
	metrics   *metrics.Collector
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithBatchSize sets how many items or nodes are spliced per batch.
func WithBatchSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithMetrics reports applied transactions and operations to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Processor) {
		p.metrics = c
	}
}

// New creates a processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		batchSize: linear.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = doclog.Named("processor")
	}
	return p
}

// Commit applies tx to doc. A transaction that is already applied cannot be committed
// again. When an error is returned doc may be partially modified and must be discarded.
func (p *Processor) Commit(doc *document.Document, tx *transaction.Transaction) error {
	if tx.HasBeenApplied() {
		return common.ErrInvalidTransaction{Message: fmt.Sprintf("transaction %s is already applied", tx.ID)}
	}
	if err := p.apply(doc, tx, false); err != nil {
		return err
	}
	tx.MarkApplied(true)
	return nil
}

// Rollback reverts a committed tx on doc, restoring the data and tree exactly.
func (p *Processor) Rollback(doc *document.Document, tx *transaction.Transaction) error {
	if !tx.HasBeenApplied() {
		return common.ErrInvalidTransaction{Message: fmt.Sprintf("transaction %s is not applied", tx.ID)}
	}
	if err := p.apply(doc, tx, true); err != nil {
		return err
	}
	tx.MarkApplied(false)
	return nil
}

func (p *Processor) apply(doc *document.Document, tx *transaction.Transaction, reversed bool) error {
	direction := directionCommit
	if reversed {
		direction = directionRollback
	}

	r := &run{p: p, doc: doc, reversed: reversed}
	for i, op := range tx.Operations {
		if err := r.execute(op); err != nil {
			p.logger.Error("failed to apply transaction",
				zap.String("id", tx.ID.String()),
				zap.String("direction", direction),
				zap.Int("operation", i),
				zap.Error(err))
			return errors.Wrapf(err, "%s of transaction %s failed at operation %d", direction, tx.ID, i)
		}
		p.metrics.ObserveOperation(string(op.Type()))
	}
	if len(r.toSet) > 0 || len(r.toClear) > 0 {
		return common.ErrAnnotation{Message: "annotation spans left open at end of transaction"}
	}

	p.metrics.ObserveTransaction(direction)
	p.logger.Debug("applied transaction",
		zap.String("id", tx.ID.String()),
		zap.String("direction", direction),
		zap.Int("operations", len(tx.Operations)))
	return nil
}

// run is the state of one pass over a transaction.
type run struct {
	p        *Processor
	doc      *document.Document
	reversed bool
	cursor   int

	// Annotation hashes being set or cleared over retained characters.
	toSet   []string
	toClear []string
}

func (r *run) execute(op transaction.Operation) error {
	switch op := op.(type) {
	case *transaction.Retain:
		return r.retain(op)
	case *transaction.Replace:
		remove, insert := op.Remove, op.Insert
		slots := slotEdit{remove: op.RemoveMetadata, insert: op.InsertMetadata}
		if r.reversed {
			remove, insert = insert, remove
			slots.remove, slots.insert = slots.insert, slots.remove
		}
		return r.replace(remove, insert, slots)
	case *transaction.ReplaceMetadata:
		remove, insert := op.Remove, op.Insert
		if r.reversed {
			remove, insert = insert, remove
		}
		return r.replaceMetadata(op.Index, remove, insert)
	case *transaction.ReplaceElementAttribute:
		from, to := op.From, op.To
		if r.reversed {
			from, to = to, from
		}
		return r.attribute(op.Key, from, to)
	case *transaction.Annotate:
		return r.annotate(op)
	case nil:
		return common.ErrInvalidOperation{Message: "nil operation"}
	}
	return common.ErrInvalidOperation{Message: fmt.Sprintf("unknown operation %T", op)}
}

func (r *run) retain(op *transaction.Retain) error {
	end := r.cursor + op.Length
	if op.Length < 0 || end > r.doc.Data().Len() {
		return common.ErrOutOfBounds{Index: end, Length: r.doc.Data().Len()}
	}
	if len(r.toSet) > 0 || len(r.toClear) > 0 {
		if err := r.applyAnnotations(r.cursor, end); err != nil {
			return err
		}
	}
	r.cursor = end
	return nil
}
