package linear

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MarshalItem encodes an item in the exchange format: elements as objects, characters
// as strings and annotated characters as [char, [hash, ...]].
func MarshalItem(item Item) ([]byte, error) {
	switch v := item.(type) {
	case Element:
		type element Element
		return json.Marshal(element(v))
	case Char:
		return json.Marshal(string(v))
	case AnnotatedChar:
		annotations := v.Annotations
		if annotations == nil {
			annotations = []string{}
		}
		return json.Marshal([]interface{}{v.Char, annotations})
	}
	return nil, errors.Errorf("cannot encode item of type %T", item)
}

// UnmarshalItem decodes one item in the exchange format.
func UnmarshalItem(data []byte) (Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty item")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		if err := checkCharacter(s); err != nil {
			return nil, err
		}
		return Char(s), nil
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return nil, err
		}
		if len(parts) != 2 {
			return nil, errors.Errorf("annotated character needs 2 parts, got %d", len(parts))
		}
		var ch string
		if err := json.Unmarshal(parts[0], &ch); err != nil {
			return nil, errors.Wrap(err, "invalid annotated character")
		}
		if err := checkCharacter(ch); err != nil {
			return nil, err
		}
		var hashes []string
		if err := json.Unmarshal(parts[1], &hashes); err != nil {
			return nil, errors.Wrap(err, "invalid annotation hashes")
		}
		return WithAnnotations(ch, hashes), nil
	case '{':
		var e Element
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		if e.Type == "" {
			return nil, errors.New("element without type")
		}
		return e, nil
	}
	return nil, errors.Errorf("cannot decode item %s", string(data))
}

// checkCharacter requires s to hold exactly one rune.
func checkCharacter(s string) error {
	if utf8.RuneCountInString(s) != 1 {
		return errors.Errorf("character must be a single rune, got %q", s)
	}
	return nil
}

// MarshalItems encodes items as a JSON array.
func MarshalItems(items []Item) ([]byte, error) {
	raw := make([]json.RawMessage, len(items))
	for i, item := range items {
		data, err := MarshalItem(item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		raw[i] = data
	}
	return json.Marshal(raw)
}

// UnmarshalItems decodes a JSON array of items.
func UnmarshalItems(data []byte) ([]Item, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	items := make([]Item, len(raw))
	for i, r := range raw {
		item, err := UnmarshalItem(r)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		items[i] = item
	}
	return items, nil
}

// MarshalJSON implements the json.Marshaler interface.
func (d *Data) MarshalJSON() ([]byte, error) {
	return MarshalItems(d.items)
}
