package persistence

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"linmodel/common"
)

// MemoryAdapter keeps snapshots in a map.
type MemoryAdapter struct {
	mu        sync.RWMutex
	documents map[common.DocumentID][]byte
	closed    bool
}

// NewMemoryAdapter creates an empty memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{documents: make(map[common.DocumentID][]byte)}
}

// Save implements Adapter.
func (a *MemoryAdapter) Save(ctx context.Context, id common.DocumentID, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return common.ErrClosed
	}
	a.documents[id] = append([]byte(nil), data...)
	return nil
}

// Load implements Adapter.
func (a *MemoryAdapter) Load(ctx context.Context, id common.DocumentID) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, common.ErrClosed
	}
	data, ok := a.documents[id]
	if !ok {
		return nil, errors.Wrapf(common.ErrNotFound, "document %s", id)
	}
	return append([]byte(nil), data...), nil
}

// List implements Adapter.
func (a *MemoryAdapter) List(ctx context.Context) ([]common.DocumentID, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, common.ErrClosed
	}
	ids := make([]common.DocumentID, 0, len(a.documents))
	for id := range a.documents {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete implements Adapter.
func (a *MemoryAdapter) Delete(ctx context.Context, id common.DocumentID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return common.ErrClosed
	}
	delete(a.documents, id)
	return nil
}

// Close implements Adapter.
func (a *MemoryAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.documents = nil
	return nil
}
