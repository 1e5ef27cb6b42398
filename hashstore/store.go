// Package hashstore implements an append-only, content-addressed store of shared
// immutable values such as annotations.
//
// A value is stored once under the hash of its canonical JSON form and referenced
// elsewhere by that hash. Equal hashes imply equal values, but two stores built
// independently (or deserialized from different sources) may hold equal values under
// different hashes, so merging never assumes the converse.
package hashstore

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"

	"linmodel/common"
)

// Store holds values keyed by content hash, remembering insertion order.
type Store struct {
	// hashes is the insertion order.
	hashes []string

	// values maps hashes to their stored value.
	values map[string]interface{}

	// positions maps hashes to their index in hashes.
	positions map[string]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		hashes:    make([]string, 0),
		values:    make(map[string]interface{}),
		positions: make(map[string]int),
	}
}

// HashOf computes the hash a value would be stored under.
func HashOf(value interface{}) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode value for hashing")
	}
	return fmt.Sprintf("h%016x", xxhash.Sum64(data)), nil
}

// Len returns the number of distinct hashes in the store.
func (s *Store) Len() int {
	return len(s.hashes)
}

// Hash stores value if no equal value is present and returns its hash. The stored value
// is a deep copy, so later changes to value never reach the store.
func (s *Store) Hash(value interface{}) (string, error) {
	hash, err := HashOf(value)
	if err != nil {
		return "", err
	}
	if _, ok := s.values[hash]; ok {
		return hash, nil
	}
	stored, err := copystructure.Copy(value)
	if err != nil {
		return "", errors.Wrap(err, "failed to copy value")
	}
	s.add(hash, stored)
	return hash, nil
}

// HashAll hashes every value in order.
func (s *Store) HashAll(values []interface{}) ([]string, error) {
	hashes := make([]string, len(values))
	for i, v := range values {
		h, err := s.Hash(v)
		if err != nil {
			return nil, err
		}
		hashes[i] = h
	}
	return hashes, nil
}

func (s *Store) add(hash string, value interface{}) {
	s.positions[hash] = len(s.hashes)
	s.hashes = append(s.hashes, hash)
	s.values[hash] = value
}

// Has reports whether hash is stored.
func (s *Store) Has(hash string) bool {
	_, ok := s.values[hash]
	return ok
}

// Value returns the value stored under hash.
func (s *Store) Value(hash string) (interface{}, bool) {
	v, ok := s.values[hash]
	return v, ok
}

// Values looks up several hashes. It fails on the first unknown hash.
func (s *Store) Values(hashes []string) ([]interface{}, error) {
	values := make([]interface{}, len(hashes))
	for i, h := range hashes {
		v, ok := s.values[h]
		if !ok {
			return nil, common.ErrHashNotFound{Hash: h}
		}
		values[i] = v
	}
	return values, nil
}

// IndexOf returns the insertion position of hash, or -1.
func (s *Store) IndexOf(hash string) int {
	if i, ok := s.positions[hash]; ok {
		return i
	}
	return -1
}

// Hashes returns a copy of the insertion order.
func (s *Store) Hashes() []string {
	return append([]string(nil), s.hashes...)
}

// ReplaceHash swaps the value stored under oldHash for value and returns the new hash.
// The new hash takes the old one's position unless it is already stored, in which case
// the old entry is simply dropped.
func (s *Store) ReplaceHash(oldHash string, value interface{}) (string, error) {
	pos, ok := s.positions[oldHash]
	if !ok {
		return "", common.ErrHashNotFound{Hash: oldHash}
	}
	newHash, err := HashOf(value)
	if err != nil {
		return "", err
	}
	if newHash == oldHash {
		return newHash, nil
	}
	stored, err := copystructure.Copy(value)
	if err != nil {
		return "", errors.Wrap(err, "failed to copy value")
	}

	delete(s.values, oldHash)
	delete(s.positions, oldHash)
	if _, exists := s.values[newHash]; exists {
		s.hashes = append(s.hashes[:pos], s.hashes[pos+1:]...)
		s.reindex(pos)
		return newHash, nil
	}
	s.hashes[pos] = newHash
	s.values[newHash] = stored
	s.positions[newHash] = pos
	return newHash, nil
}

func (s *Store) reindex(from int) {
	for i := from; i < len(s.hashes); i++ {
		s.positions[s.hashes[i]] = i
	}
}

// Slice returns a new store with the hashes at positions [start, end). Values are shared
// with s, not copied.
func (s *Store) Slice(start, end int) (*Store, error) {
	if start < 0 || start > len(s.hashes) {
		return nil, common.ErrOutOfBounds{Index: start, Length: len(s.hashes)}
	}
	if end < start || end > len(s.hashes) {
		return nil, common.ErrOutOfBounds{Index: end, Length: len(s.hashes)}
	}
	sliced := New()
	for _, h := range s.hashes[start:end] {
		sliced.add(h, s.values[h])
	}
	return sliced, nil
}

// Truncate drops every hash from position start onward.
func (s *Store) Truncate(start int) error {
	if start < 0 || start > len(s.hashes) {
		return common.ErrOutOfBounds{Index: start, Length: len(s.hashes)}
	}
	for _, h := range s.hashes[start:] {
		delete(s.values, h)
		delete(s.positions, h)
	}
	s.hashes = s.hashes[:start]
	return nil
}

// Merge appends every hash of other that s does not have yet. Existing entries win.
func (s *Store) Merge(other *Store) {
	for _, h := range other.hashes {
		if _, ok := s.values[h]; !ok {
			s.add(h, other.values[h])
		}
	}
}

// Difference returns a new store with the entries of s whose hash is not in omit.
func (s *Store) Difference(omit *Store) *Store {
	diff := New()
	for _, h := range s.hashes {
		if omit != nil && omit.Has(h) {
			continue
		}
		diff.add(h, s.values[h])
	}
	return diff
}

// Clone returns a store with the same entries. Values are shared.
func (s *Store) Clone() *Store {
	return s.Difference(nil)
}
