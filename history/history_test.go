package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/document"
	"linmodel/linear"
	"linmodel/processor"
	"linmodel/transaction"
)

func newHistory(t *testing.T, text string, opts ...Option) *History {
	items := []linear.Item{linear.NewElement("paragraph", nil)}
	items = append(items, linear.TextToItems(text)...)
	items = append(items, linear.CloseElement("paragraph"))
	doc, err := document.NewFromItems(items)
	require.NoError(t, err)
	return New(doc, processor.New(), opts...)
}

func text(h *History) string {
	out := ""
	for _, item := range h.Document().Data().Items() {
		if ch, ok := linear.GetCharacter(item); ok {
			out += ch
		}
	}
	return out
}

func insert(t *testing.T, h *History, offset int, s string) {
	tx, err := transaction.NewFromInsertion(h.Document(), offset, linear.TextToItems(s))
	require.NoError(t, err)
	require.NoError(t, h.Push(tx))
}

func TestUndoRedo(t *testing.T) {
	h := newHistory(t, "ab")
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	initial := h.Document().Plain()
	insert(t, h, 2, "X")
	insert(t, h, 4, "Y")
	assert.Equal(t, "aXbY", text(h))
	assert.True(t, h.CanUndo())

	ok, err := h.Undo()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "aXb", text(h))
	assert.True(t, h.CanRedo())

	ok, err = h.Undo()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, initial, h.Document().Plain())

	ok, err = h.Undo()
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.Redo()
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.Redo()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "aXbY", text(h))

	ok, err = h.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(6), h.Version())
}

func TestPushClearsRedo(t *testing.T) {
	h := newHistory(t, "ab")
	insert(t, h, 1, "X")
	_, err := h.Undo()
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	insert(t, h, 3, "Z")
	assert.False(t, h.CanRedo())
	assert.Equal(t, "abZ", text(h))
}

func TestMaxDepth(t *testing.T) {
	h := newHistory(t, "", WithMaxDepth(2))
	insert(t, h, 1, "a")
	insert(t, h, 2, "b")
	insert(t, h, 3, "c")

	for h.CanUndo() {
		_, err := h.Undo()
		require.NoError(t, err)
	}
	// The first insertion fell off the stack.
	assert.Equal(t, "a", text(h))
}

func TestNoOpIsNotRecorded(t *testing.T) {
	h := newHistory(t, "ab")
	tx, err := transaction.NewFromAnnotation(h.Document(), docrange.New(1, 1), common.AnnotationMethodSet, "bold")
	require.NoError(t, err)
	require.True(t, tx.IsNoOp())
	require.NoError(t, h.Push(tx))
	assert.False(t, h.CanUndo())
}

func TestAnnotationUndo(t *testing.T) {
	h := newHistory(t, "abc")
	before := h.Document().Plain()

	tx, err := transaction.NewFromAnnotation(h.Document(), docrange.New(1, 4), common.AnnotationMethodSet, map[string]interface{}{"type": "textStyle/italic"})
	require.NoError(t, err)
	require.NoError(t, h.Push(tx))
	assert.NotEqual(t, before, h.Document().Plain())

	_, err = h.Undo()
	require.NoError(t, err)
	assert.Equal(t, before, h.Document().Plain())
}

func TestFailedPushIsNotRecorded(t *testing.T) {
	h := newHistory(t, "ab")
	tx := transaction.New(&transaction.Retain{Length: 100})
	assert.Error(t, h.Push(tx))
	assert.False(t, h.CanUndo())
	assert.Equal(t, int64(0), h.Version())
}
