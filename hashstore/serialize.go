package hashstore

import (
	"github.com/pkg/errors"
)

// Serialized is the exchange form of a store.
type Serialized struct {
	Hashes    []string               `json:"hashes"`
	HashStore map[string]interface{} `json:"hashStore"`
}

// ValueFunc converts a value while serializing or deserializing.
type ValueFunc func(value interface{}) (interface{}, error)

// Serialize converts the store to its exchange form, passing each value through fn
// (identity when fn is nil). An empty store serializes to nil.
func (s *Store) Serialize(fn ValueFunc) (*Serialized, error) {
	if len(s.hashes) == 0 {
		return nil, nil
	}
	out := &Serialized{
		Hashes:    append([]string(nil), s.hashes...),
		HashStore: make(map[string]interface{}, len(s.hashes)),
	}
	for _, h := range s.hashes {
		v := s.values[h]
		if fn != nil {
			converted, err := fn(v)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to serialize value %s", h)
			}
			v = converted
		}
		out.HashStore[h] = v
	}
	return out, nil
}

// Deserialize rebuilds a store from its exchange form. Hashes are taken as given and
// not recomputed. A nil input yields an empty store.
func Deserialize(fn ValueFunc, data *Serialized) (*Store, error) {
	s := New()
	if data == nil {
		return s, nil
	}
	for _, h := range data.Hashes {
		if _, dup := s.values[h]; dup {
			continue
		}
		v, ok := data.HashStore[h]
		if !ok {
			return nil, errors.Errorf("serialized store is missing value for %s", h)
		}
		if fn != nil {
			converted, err := fn(v)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to deserialize value %s", h)
			}
			v = converted
		}
		s.add(h, v)
	}
	return s, nil
}
