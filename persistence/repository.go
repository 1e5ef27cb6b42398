package persistence

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"linmodel/common"
	"linmodel/document"
)

// Repository saves documents as snapshots through an Adapter.
type Repository struct {
	adapter    Adapter
	serializer Serializer
	logger     *zap.Logger
}

// NewRepository creates a repository over adapter.
func NewRepository(adapter Adapter, opts ...Option) *Repository {
	options := buildOptions(opts)
	return &Repository{
		adapter:    adapter,
		serializer: options.Serializer,
		logger:     options.Logger,
	}
}

// Adapter returns the underlying adapter.
func (r *Repository) Adapter() Adapter {
	return r.adapter
}

// Save stores a snapshot of doc at version.
func (r *Repository) Save(ctx context.Context, doc *document.Document, version int64) (*Snapshot, error) {
	snapshot, err := NewSnapshot(doc, version)
	if err != nil {
		return nil, err
	}
	data, err := r.serializer.Serialize(snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize document %s", doc.ID)
	}
	if err := r.adapter.Save(ctx, doc.ID, data); err != nil {
		r.logger.Error("failed to save snapshot", zap.Stringer("id", doc.ID), zap.Error(err))
		return nil, errors.Wrapf(err, "failed to save document %s", doc.ID)
	}
	r.logger.Debug("saved snapshot",
		zap.Stringer("id", doc.ID),
		zap.Int64("version", version),
		zap.Int("bytes", len(data)))
	return snapshot, nil
}

// LoadSnapshot returns the stored snapshot of id.
func (r *Repository) LoadSnapshot(ctx context.Context, id common.DocumentID) (*Snapshot, error) {
	data, err := r.adapter.Load(ctx, id)
	if err != nil {
		if errors.Cause(err) != common.ErrNotFound {
			r.logger.Error("failed to load snapshot", zap.Stringer("id", id), zap.Error(err))
		}
		return nil, err
	}
	snapshot, err := r.serializer.Deserialize(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize document %s", id)
	}
	r.logger.Debug("loaded snapshot", zap.Stringer("id", id), zap.Int64("version", snapshot.Version))
	return snapshot, nil
}

// Load restores the stored document id and returns it with its version.
func (r *Repository) Load(ctx context.Context, id common.DocumentID, opts ...document.Option) (*document.Document, int64, error) {
	snapshot, err := r.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	doc, err := Restore(snapshot, opts...)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to restore document %s", id)
	}
	return doc, snapshot.Version, nil
}

// List returns the stored document ids.
func (r *Repository) List(ctx context.Context) ([]common.DocumentID, error) {
	return r.adapter.List(ctx)
}

// Delete removes the stored document id.
func (r *Repository) Delete(ctx context.Context, id common.DocumentID) error {
	return r.adapter.Delete(ctx, id)
}

// Close closes the adapter.
func (r *Repository) Close() error {
	return r.adapter.Close()
}
