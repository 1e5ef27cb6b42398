// Package linear holds the flat array representation of a document: element markers
// interleaved with characters, bound to a hash store for annotation values.
package linear

import (
	"github.com/pkg/errors"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/hashstore"
)

// DefaultBatchSize is the number of items moved per step by BatchSplice.
const DefaultBatchSize = 1024

// Data is a sequence of items sharing a store. Items are copied on write; mutation goes
// through Set, Modify and the splice family.
type Data struct {
	store *hashstore.Store
	items []Item
}

// New creates linear data over items. The items are deep copied.
func New(store *hashstore.Store, items []Item) (*Data, error) {
	if store == nil {
		store = hashstore.New()
	}
	copied, err := CloneItems(items)
	if err != nil {
		return nil, err
	}
	return &Data{store: store, items: copied}, nil
}

func wrap(store *hashstore.Store, items []Item) *Data {
	return &Data{store: store, items: items}
}

// Store returns the store bound to the data.
func (d *Data) Store() *hashstore.Store {
	return d.store
}

// Len returns the number of items.
func (d *Data) Len() int {
	return len(d.items)
}

// Items returns every item. The slice is a copy but the items must not be modified.
func (d *Data) Items() []Item {
	return append([]Item(nil), d.items...)
}

func (d *Data) checkOffset(offset int) error {
	if offset < 0 || offset >= len(d.items) {
		return common.ErrOutOfBounds{Index: offset, Length: len(d.items)}
	}
	return nil
}

// Get returns the item at offset.
func (d *Data) Get(offset int) (Item, error) {
	if err := d.checkOffset(offset); err != nil {
		return nil, err
	}
	return d.items[offset], nil
}

// At returns the item at offset, or nil when offset is out of range.
func (d *Data) At(offset int) Item {
	if offset < 0 || offset >= len(d.items) {
		return nil
	}
	return d.items[offset]
}

// Set replaces the item at offset with a private copy of item.
func (d *Data) Set(offset int, item Item) error {
	if err := d.checkOffset(offset); err != nil {
		return err
	}
	copied, err := CloneItem(item)
	if err != nil {
		return err
	}
	d.items[offset] = copied
	return nil
}

// Modify clones the item at offset, hands the clone to fn and stores the result.
func (d *Data) Modify(offset int, fn func(Item) (Item, error)) error {
	if err := d.checkOffset(offset); err != nil {
		return err
	}
	clone, err := CloneItem(d.items[offset])
	if err != nil {
		return err
	}
	updated, err := fn(clone)
	if err != nil {
		return err
	}
	if updated == nil {
		return errors.Errorf("modify at %d produced no item", offset)
	}
	d.items[offset] = updated
	return nil
}

func (d *Data) checkSpan(start, end int) error {
	if start < 0 || start > len(d.items) {
		return common.ErrOutOfBounds{Index: start, Length: len(d.items)}
	}
	if end < start || end > len(d.items) {
		return common.ErrOutOfBounds{Index: end, Length: len(d.items)}
	}
	return nil
}

// Slice returns the items in [start, end).
func (d *Data) Slice(start, end int) ([]Item, error) {
	if err := d.checkSpan(start, end); err != nil {
		return nil, err
	}
	return append([]Item(nil), d.items[start:end]...), nil
}

// SliceObject is Slice wrapped in Data sharing the same store.
func (d *Data) SliceObject(start, end int) (*Data, error) {
	items, err := d.Slice(start, end)
	if err != nil {
		return nil, err
	}
	return wrap(d.store, items), nil
}

// GetDataSlice returns the items covered by r, deep copied when deep is set.
func (d *Data) GetDataSlice(r docrange.Range, deep bool) ([]Item, error) {
	items, err := d.Slice(r.Start, r.End)
	if err != nil {
		return nil, err
	}
	if deep {
		return CloneItems(items)
	}
	return items, nil
}

// Splice removes remove items at offset, inserts insert there and returns the removed
// items. Inserted items are stored as given and must not be modified afterwards.
func (d *Data) Splice(offset, remove int, insert ...Item) ([]Item, error) {
	if err := d.checkSpan(offset, offset+remove); err != nil {
		return nil, err
	}
	var removed []Item
	d.items, removed = SpliceBatched(d.items, offset, remove, insert, 0)
	return removed, nil
}

// SpliceObject is Splice returning the removed items as Data.
func (d *Data) SpliceObject(offset, remove int, insert ...Item) (*Data, error) {
	removed, err := d.Splice(offset, remove, insert...)
	if err != nil {
		return nil, err
	}
	return wrap(d.store, removed), nil
}

// BatchSplice is Splice for large insertions, moving at most batchSize items per step.
func (d *Data) BatchSplice(offset, remove int, insert []Item, batchSize int) ([]Item, error) {
	if err := d.checkSpan(offset, offset+remove); err != nil {
		return nil, err
	}
	var removed []Item
	d.items, removed = SpliceBatched(d.items, offset, remove, insert, batchSize)
	return removed, nil
}

// BatchSpliceObject is BatchSplice returning the removed items as Data.
func (d *Data) BatchSpliceObject(offset, remove int, insert []Item, batchSize int) (*Data, error) {
	removed, err := d.BatchSplice(offset, remove, insert, batchSize)
	if err != nil {
		return nil, err
	}
	return wrap(d.store, removed), nil
}

// Clone deep copies the items. The store is shared.
func (d *Data) Clone() (*Data, error) {
	items, err := CloneItems(d.items)
	if err != nil {
		return nil, err
	}
	return wrap(d.store, items), nil
}

// SpliceBatched removes remove elements at offset and inserts insert in chunks of at
// most batchSize (all at once when batchSize <= 0). It returns the new slice and the
// removed elements. The caller validates bounds.
func SpliceBatched[T any](s []T, offset, remove int, insert []T, batchSize int) ([]T, []T) {
	removed := append([]T(nil), s[offset:offset+remove]...)
	tail := append([]T(nil), s[offset+remove:]...)
	s = s[:offset]
	if batchSize <= 0 {
		batchSize = len(insert)
	}
	for start := 0; start < len(insert); start += batchSize {
		end := min(start+batchSize, len(insert))
		s = append(s, insert[start:end]...)
	}
	return append(s, tail...), removed
}
