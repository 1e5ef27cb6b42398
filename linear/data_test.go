package linear

import (
	"encoding/json"
	"testing"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/hashstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraph(text string) []Item {
	items := []Item{NewElement("paragraph", nil)}
	items = append(items, TextToItems(text)...)
	return append(items, CloseElement("paragraph"))
}

func TestClassification(t *testing.T) {
	open := NewElement("heading", map[string]interface{}{"level": 1})
	closing := CloseElement("heading")

	assert.True(t, IsElementData(open))
	assert.True(t, IsOpenElementData(open))
	assert.False(t, IsCloseElementData(open))
	assert.True(t, IsCloseElementData(closing))
	assert.Equal(t, "heading", GetType(open))
	assert.Equal(t, "heading", GetType(closing))

	assert.False(t, IsElementData(Char("a")))
	assert.Equal(t, "", GetType(Char("a")))
	assert.True(t, IsContentData(Char("a")))
	assert.True(t, IsContentData(AnnotatedChar{Char: "a", Annotations: []string{"h"}}))
	assert.False(t, IsContentData(open))

	assert.Equal(t, 1, DepthChange(open))
	assert.Equal(t, -1, DepthChange(closing))
	assert.Equal(t, 0, DepthChange(Char("x")))
}

func TestWithAnnotations(t *testing.T) {
	assert.Equal(t, Char("a"), WithAnnotations("a", nil))
	item := WithAnnotations("a", []string{"h1"})
	assert.Equal(t, AnnotatedChar{Char: "a", Annotations: []string{"h1"}}, item)
	assert.True(t, HasAnnotation(item, "h1"))
	assert.False(t, HasAnnotation(item, "h2"))

	ch, ok := GetCharacter(item)
	assert.True(t, ok)
	assert.Equal(t, "a", ch)
}

func TestDepthProfile(t *testing.T) {
	net, lowest := DepthProfile([]Item{Char("x"), CloseElement("p"), NewElement("p", nil), Char("y")})
	assert.Equal(t, 0, net)
	assert.Equal(t, -1, lowest)

	net, lowest = DepthProfile(paragraph("ab"))
	assert.Equal(t, 0, net)
	assert.Equal(t, 0, lowest)
}

func TestGetAndSet(t *testing.T) {
	d, err := New(nil, paragraph("ab"))
	require.NoError(t, err)
	assert.Equal(t, 4, d.Len())

	item, err := d.Get(1)
	require.NoError(t, err)
	assert.Equal(t, Char("a"), item)

	_, err = d.Get(4)
	assert.IsType(t, common.ErrOutOfBounds{}, err)
	assert.Nil(t, d.At(-1))

	attrs := map[string]interface{}{"style": "x"}
	require.NoError(t, d.Set(0, NewElement("heading", attrs)))
	attrs["style"] = "changed"

	stored, _ := d.Get(0)
	assert.Equal(t, "x", stored.(Element).Attributes["style"])
}

func TestModifyCopiesOnWrite(t *testing.T) {
	d, err := New(nil, []Item{NewElement("heading", map[string]interface{}{"level": 1}), CloseElement("heading")})
	require.NoError(t, err)

	before := d.Items()

	err = d.Modify(0, func(item Item) (Item, error) {
		e := item.(Element)
		e.Attributes["level"] = 2
		return e, nil
	})
	require.NoError(t, err)

	after, _ := d.Get(0)
	assert.Equal(t, 2, after.(Element).Attributes["level"])
	assert.Equal(t, 1, before[0].(Element).Attributes["level"])

	err = d.Modify(0, func(item Item) (Item, error) { return nil, nil })
	assert.Error(t, err)
}

func TestSplice(t *testing.T) {
	d, err := New(nil, paragraph("abc"))
	require.NoError(t, err)

	removed, err := d.Splice(2, 1, Char("x"), Char("y"))
	require.NoError(t, err)
	assert.Equal(t, []Item{Char("b")}, removed)
	assert.Equal(t, paragraph("axyc"), d.Items())

	_, err = d.Splice(5, 3)
	assert.Error(t, err)

	obj, err := d.SpliceObject(1, 2)
	require.NoError(t, err)
	assert.Equal(t, []Item{Char("a"), Char("x")}, obj.Items())
	assert.Same(t, d.Store(), obj.Store())
}

func TestBatchSplice(t *testing.T) {
	d, err := New(nil, paragraph("ab"))
	require.NoError(t, err)

	insert := TextToItems("0123456789")
	removed, err := d.BatchSplice(2, 0, insert, 3)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Equal(t, paragraph("a0123456789b"), d.Items())

	obj, err := d.BatchSpliceObject(1, 11, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, obj.Len())
	assert.Equal(t, paragraph("b"), d.Items())
}

func TestSpliceBatched(t *testing.T) {
	s, removed := SpliceBatched([]int{1, 2, 3, 4}, 1, 2, []int{7, 8, 9}, 2)
	assert.Equal(t, []int{1, 7, 8, 9, 4}, s)
	assert.Equal(t, []int{2, 3}, removed)

	s, removed = SpliceBatched([]int{1, 2}, 2, 0, nil, 0)
	assert.Equal(t, []int{1, 2}, s)
	assert.Empty(t, removed)
}

func TestSliceAndClone(t *testing.T) {
	store := hashstore.New()
	d, err := New(store, paragraph("abc"))
	require.NoError(t, err)

	items, err := d.GetDataSlice(docrange.New(4, 1), true)
	require.NoError(t, err)
	assert.Equal(t, TextToItems("abc"), items)

	obj, err := d.SliceObject(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, obj.Len())
	assert.Same(t, store, obj.Store())

	_, err = d.Slice(3, 1)
	assert.Error(t, err)

	clone, err := d.Clone()
	require.NoError(t, err)
	assert.Same(t, store, clone.Store())
	require.NoError(t, clone.Set(1, Char("z")))
	first, _ := d.Get(1)
	assert.Equal(t, Char("a"), first)
}

func TestItemJSON(t *testing.T) {
	items := []Item{
		NewElement("paragraph", map[string]interface{}{"align": "left"}),
		Char("a"),
		AnnotatedChar{Char: "b", Annotations: []string{"h1", "h2"}},
		CloseElement("paragraph"),
	}

	data, err := MarshalItems(items)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"paragraph","attributes":{"align":"left"}},"a",["b",["h1","h2"]],{"type":"/paragraph"}]`, string(data))

	decoded, err := UnmarshalItems(data)
	require.NoError(t, err)
	assert.Equal(t, items, decoded)

	d, err := New(nil, items)
	require.NoError(t, err)
	encoded, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(encoded))
}

func TestItemJSONErrors(t *testing.T) {
	_, err := UnmarshalItems([]byte(`[{"attributes":{}}]`))
	assert.Error(t, err)

	_, err = UnmarshalItems([]byte(`[["a"]]`))
	assert.Error(t, err)

	_, err = UnmarshalItems([]byte(`[42]`))
	assert.Error(t, err)
}

func TestItemJSONSingleRune(t *testing.T) {
	item, err := UnmarshalItem([]byte(`"é"`))
	require.NoError(t, err)
	assert.Equal(t, Char("é"), item)

	for _, data := range []string{`""`, `"ab"`, `["", ["h1"]]`, `["ab", ["h1"]]`} {
		_, err := UnmarshalItem([]byte(data))
		assert.Error(t, err, data)
	}
}
