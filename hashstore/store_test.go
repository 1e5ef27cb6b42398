package hashstore

import (
	"encoding/json"
	"testing"

	"linmodel/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bold() map[string]interface{} {
	return map[string]interface{}{"type": "textStyle/bold"}
}

func italic() map[string]interface{} {
	return map[string]interface{}{"type": "textStyle/italic"}
}

func TestHashIsIdempotent(t *testing.T) {
	s := New()

	h1, err := s.Hash("x")
	require.NoError(t, err)
	h2, err := s.Hash("x")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, s.Len())

	v, ok := s.Value(h1)
	require.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestHashStoresDeepCopy(t *testing.T) {
	s := New()
	value := map[string]interface{}{
		"type":       "link",
		"attributes": map[string]interface{}{"href": "a"},
	}

	h, err := s.Hash(value)
	require.NoError(t, err)

	value["attributes"].(map[string]interface{})["href"] = "b"

	stored, ok := s.Value(h)
	require.True(t, ok)
	assert.Equal(t, "a", stored.(map[string]interface{})["attributes"].(map[string]interface{})["href"])
}

func TestHashIgnoresKeyOrder(t *testing.T) {
	a, err := HashOf(map[string]interface{}{"x": 1, "y": 2})
	require.NoError(t, err)
	b, err := HashOf(map[string]interface{}{"y": 2, "x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHashUnencodable(t *testing.T) {
	s := New()
	_, err := s.Hash(func() {})
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestValues(t *testing.T) {
	s := New()
	hashes, err := s.HashAll([]interface{}{bold(), italic()})
	require.NoError(t, err)

	values, err := s.Values(hashes)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{bold(), italic()}, values)

	_, err = s.Values([]string{"nope"})
	assert.IsType(t, common.ErrHashNotFound{}, err)

	assert.Equal(t, 0, s.IndexOf(hashes[0]))
	assert.Equal(t, 1, s.IndexOf(hashes[1]))
	assert.Equal(t, -1, s.IndexOf("nope"))
}

func TestReplaceHash(t *testing.T) {
	s := New()
	hb, _ := s.Hash(bold())
	hi, _ := s.Hash(italic())

	underline := map[string]interface{}{"type": "textStyle/underline"}
	hu, err := s.ReplaceHash(hb, underline)
	require.NoError(t, err)

	assert.False(t, s.Has(hb))
	assert.Equal(t, []string{hu, hi}, s.Hashes())
	assert.Equal(t, 0, s.IndexOf(hu))

	// Replacing with a value that is already stored drops the old entry.
	hi2, err := s.ReplaceHash(hu, italic())
	require.NoError(t, err)
	assert.Equal(t, hi, hi2)
	assert.Equal(t, []string{hi}, s.Hashes())
	assert.Equal(t, 0, s.IndexOf(hi))

	_, err = s.ReplaceHash("missing", bold())
	assert.IsType(t, common.ErrHashNotFound{}, err)
}

func TestSliceAndTruncate(t *testing.T) {
	s := New()
	hashes, _ := s.HashAll([]interface{}{"a", "b", "c", "d"})

	sliced, err := s.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, hashes[1:3], sliced.Hashes())

	_, err = s.Slice(3, 1)
	assert.Error(t, err)
	_, err = s.Slice(0, 9)
	assert.Error(t, err)

	require.NoError(t, s.Truncate(2))
	assert.Equal(t, hashes[:2], s.Hashes())
	assert.False(t, s.Has(hashes[2]))
	assert.Error(t, s.Truncate(5))
}

func TestMerge(t *testing.T) {
	a := New()
	b := New()
	ha, _ := a.Hash("a")
	hs, _ := a.Hash("shared")
	b.Hash("shared")
	hb, _ := b.Hash("b")

	a.Merge(b)
	assert.Equal(t, []string{ha, hs, hb}, a.Hashes())
	assert.Equal(t, 2, b.Len())
}

func TestMergeKeepsExistingValue(t *testing.T) {
	a, err := Deserialize(nil, &Serialized{
		Hashes:    []string{"h1"},
		HashStore: map[string]interface{}{"h1": "first"},
	})
	require.NoError(t, err)
	b, err := Deserialize(nil, &Serialized{
		Hashes:    []string{"h1", "h2"},
		HashStore: map[string]interface{}{"h1": "second", "h2": "other"},
	})
	require.NoError(t, err)

	a.Merge(b)
	v, _ := a.Value("h1")
	assert.Equal(t, "first", v)
	assert.Equal(t, 2, a.Len())
}

func TestDifference(t *testing.T) {
	a := New()
	b := New()
	ha, _ := a.Hash("a")
	a.Hash("b")
	b.Hash("b")

	diff := a.Difference(b)
	assert.Equal(t, []string{ha}, diff.Hashes())
	assert.Equal(t, 2, a.Len())
}

func TestSerialize(t *testing.T) {
	empty, err := New().Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	s := New()
	hb, _ := s.Hash(bold())
	hi, _ := s.Hash(italic())

	serialized, err := s.Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{hb, hi}, serialized.Hashes)

	data, err := json.Marshal(serialized)
	require.NoError(t, err)

	var decoded Serialized
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := Deserialize(nil, &decoded)
	require.NoError(t, err)
	assert.Equal(t, s.Hashes(), restored.Hashes())
	v, _ := restored.Value(hb)
	assert.Equal(t, bold(), v)

	none, err := Deserialize(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())
}

func TestSerializeWithFunc(t *testing.T) {
	s := New()
	h, _ := s.Hash("x")

	wrap := func(v interface{}) (interface{}, error) {
		return map[string]interface{}{"wrapped": v}, nil
	}
	serialized, err := s.Serialize(wrap)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"wrapped": "x"}, serialized.HashStore[h])

	unwrap := func(v interface{}) (interface{}, error) {
		return v.(map[string]interface{})["wrapped"], nil
	}
	restored, err := Deserialize(unwrap, serialized)
	require.NoError(t, err)
	v, _ := restored.Value(h)
	assert.Equal(t, "x", v)
}

func TestDeserializeMissingValue(t *testing.T) {
	_, err := Deserialize(nil, &Serialized{Hashes: []string{"h1"}, HashStore: map[string]interface{}{}})
	assert.Error(t, err)
}
