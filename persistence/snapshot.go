package persistence

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"linmodel/common"
	"linmodel/document"
	"linmodel/hashstore"
	"linmodel/linear"
)

// Snapshot is the persisted state of a document: its items, the values behind their
// annotation hashes and the non-empty metadata slots.
type Snapshot struct {
	ID       common.DocumentID
	Items    []linear.Item
	Store    *hashstore.Serialized
	Metadata [][]linear.Item
	Version  int64
	SavedAt  time.Time
}

// NewSnapshot captures doc at version.
func NewSnapshot(doc *document.Document, version int64) (*Snapshot, error) {
	store, err := doc.Store().Serialize(nil)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:       doc.ID,
		Items:    doc.Data().Items(),
		Store:    store,
		Metadata: doc.MetadataSlots(),
		Version:  version,
		SavedAt:  time.Now().UTC(),
	}, nil
}

// Restore rebuilds the document held by s. opts are passed to document.New after the
// id and metadata, so a custom node factory can be supplied.
func Restore(s *Snapshot, opts ...document.Option) (*document.Document, error) {
	store, err := hashstore.Deserialize(nil, s.Store)
	if err != nil {
		return nil, err
	}
	data, err := linear.New(store, s.Items)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid items in snapshot %s", s.ID)
	}
	metadata := s.Metadata
	if metadata == nil {
		metadata = make([][]linear.Item, data.Len()+1)
	}
	all := append([]document.Option{document.WithID(s.ID), document.WithMetadata(metadata)}, opts...)
	return document.New(data, all...)
}

// Serializer converts snapshots to and from the bytes handed to an Adapter.
type Serializer interface {
	Serialize(s *Snapshot) ([]byte, error)
	Deserialize(data []byte) (*Snapshot, error)
}

// JSONSerializer encodes snapshots as JSON, items in their exchange format and metadata
// as a map from offset to the items of that slot.
type JSONSerializer struct{}

// NewJSONSerializer creates a JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

type jsonSnapshot struct {
	ID       common.DocumentID       `json:"id"`
	Version  int64                   `json:"version"`
	SavedAt  time.Time               `json:"savedAt"`
	Length   int                     `json:"length"`
	Items    json.RawMessage         `json:"items"`
	Store    *hashstore.Serialized   `json:"store,omitempty"`
	Metadata map[int]json.RawMessage `json:"metadata,omitempty"`
}

// Serialize implements Serializer.
func (JSONSerializer) Serialize(s *Snapshot) ([]byte, error) {
	items, err := linear.MarshalItems(s.Items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal items")
	}
	out := jsonSnapshot{
		ID:      s.ID,
		Version: s.Version,
		SavedAt: s.SavedAt,
		Length:  len(s.Items),
		Items:   items,
		Store:   s.Store,
	}
	for offset, slot := range s.Metadata {
		if len(slot) == 0 {
			continue
		}
		raw, err := linear.MarshalItems(slot)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal metadata at offset %d", offset)
		}
		if out.Metadata == nil {
			out.Metadata = make(map[int]json.RawMessage)
		}
		out.Metadata[offset] = raw
	}
	return json.Marshal(out)
}

// Deserialize implements Serializer.
func (JSONSerializer) Deserialize(data []byte) (*Snapshot, error) {
	var in jsonSnapshot
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(err, "failed to decode snapshot")
	}
	items, err := linear.UnmarshalItems(in.Items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode items")
	}
	if len(items) != in.Length {
		return nil, errors.Errorf("snapshot %s declares %d items, found %d", in.ID, in.Length, len(items))
	}
	s := &Snapshot{
		ID:       in.ID,
		Items:    items,
		Store:    in.Store,
		Metadata: make([][]linear.Item, len(items)+1),
		Version:  in.Version,
		SavedAt:  in.SavedAt,
	}
	for offset, raw := range in.Metadata {
		if offset < 0 || offset > len(items) {
			return nil, common.ErrOutOfBounds{Index: offset, Length: len(items) + 1}
		}
		slot, err := linear.UnmarshalItems(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode metadata at offset %d", offset)
		}
		if len(slot) > 0 {
			s.Metadata[offset] = slot
		}
	}
	return s, nil
}
