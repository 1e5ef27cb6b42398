package doctree

import (
	"testing"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/linear"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(text string) []linear.Item {
	items := []linear.Item{linear.NewElement("paragraph", nil)}
	items = append(items, linear.TextToItems(text)...)
	return append(items, linear.CloseElement("paragraph"))
}

func build(t *testing.T, items []linear.Item) *BranchNode {
	nodes, err := NewTreeBuilder(NewDefaultRegistry()).BuildNodes(items)
	require.NoError(t, err)
	return NewDocumentNode(nodes)
}

func TestBuildNodes(t *testing.T) {
	items := para("ab")
	items = append(items, linear.NewElement("image", nil), linear.CloseElement("image"))
	items = append(items, para("")...)

	root := build(t, items)
	require.Len(t, root.Children(), 3)
	assert.Equal(t, len(items), root.ContentLength())

	p := root.Children()[0]
	assert.Equal(t, "paragraph", p.Type())
	assert.Equal(t, 2, p.ContentLength())
	assert.Equal(t, 4, p.OuterLength())
	require.Len(t, p.Children(), 1)
	assert.Equal(t, "text", p.Children()[0].Type())

	img := root.Children()[1]
	assert.Equal(t, docrange.New(4, 6), img.OuterRange())
	assert.Nil(t, img.Children())

	empty := root.Children()[2]
	assert.Empty(t, empty.Children())
	assert.Equal(t, docrange.New(7, 7), empty.Range())
}

func TestBuildNodesUnbalanced(t *testing.T) {
	b := NewTreeBuilder(NewDefaultRegistry())

	_, err := b.BuildNodes([]linear.Item{linear.CloseElement("paragraph")})
	assert.IsType(t, common.ErrUnbalanced{}, err)

	_, err = b.BuildNodes([]linear.Item{linear.NewElement("paragraph", nil)})
	assert.IsType(t, common.ErrUnbalanced{}, err)

	_, err = b.BuildNodes([]linear.Item{linear.NewElement("paragraph", nil), linear.CloseElement("heading")})
	assert.IsType(t, common.ErrUnbalanced{}, err)

	_, err = b.BuildNodes([]linear.Item{linear.NewElement("image", nil), linear.Char("x"), linear.CloseElement("image")})
	assert.IsType(t, common.ErrUnbalanced{}, err)

	_, err = b.BuildNodes([]linear.Item{linear.NewElement("mystery", nil), linear.CloseElement("mystery")})
	assert.Error(t, err)
}

func TestRanges(t *testing.T) {
	items := []linear.Item{linear.NewElement("list", nil)}
	items = append(items, linear.NewElement("listItem", nil))
	items = append(items, para("abc")...)
	items = append(items, linear.CloseElement("listItem"), linear.CloseElement("list"))

	root := build(t, items)
	list := root.Children()[0]
	item := list.Children()[0]
	p := item.Children()[0]
	text := p.Children()[0]

	assert.Equal(t, docrange.New(0, 9), list.OuterRange())
	assert.Equal(t, docrange.New(1, 8), list.Range())
	assert.Equal(t, docrange.New(2, 7), p.OuterRange())
	assert.Equal(t, docrange.New(3, 6), text.OuterRange())
	assert.Equal(t, 0, item.IndexOf(p))
	assert.Equal(t, -1, item.IndexOf(text))
	assert.Same(t, item, p.Parent())
}

func TestAdjustContentLength(t *testing.T) {
	root := build(t, para("abc"))
	p := root.Children()[0]
	text := p.Children()[0]

	updates := 0
	text.On(EventUpdate, func(args ...interface{}) { updates++ })

	text.AdjustContentLength(2, true)
	text.Emit(EventUpdate, 3)

	assert.Equal(t, 5, text.ContentLength())
	assert.Equal(t, 5, p.ContentLength())
	assert.Equal(t, 7, root.ContentLength())
	assert.Equal(t, 1, updates)

	text.AdjustContentLength(-1, false)
	assert.Equal(t, 5, p.ContentLength())
}

func TestSpliceChildren(t *testing.T) {
	root := build(t, para("abc"))
	before := root.Version()

	var spliced bool
	root.On(EventSplice, func(args ...interface{}) { spliced = true })

	nodes, err := NewTreeBuilder(NewDefaultRegistry()).BuildNodes(append(para("x"), para("yz")...))
	require.NoError(t, err)

	removed := root.SpliceChildren(0, 1, 1, nodes...)
	require.Len(t, removed, 1)
	assert.Nil(t, removed[0].Parent())
	assert.Len(t, root.Children(), 2)
	assert.Equal(t, 7, root.ContentLength())
	assert.Greater(t, root.Version(), before)
	assert.True(t, spliced)
	assert.Same(t, root, nodes[1].Parent())
}

func TestVersionPropagates(t *testing.T) {
	items := []linear.Item{linear.NewElement("div", nil)}
	items = append(items, para("a")...)
	items = append(items, linear.CloseElement("div"))
	root := build(t, items)

	div := root.Children()[0]
	p := div.Children()[0]
	rootVersion := root.Version()
	divVersion := div.Version()

	p.SetElement(linear.NewElement("paragraph", map[string]interface{}{"align": "center"}))
	assert.Equal(t, rootVersion+1, root.Version())
	assert.Equal(t, divVersion+1, div.Version())

	e, ok := p.Element()
	require.True(t, ok)
	assert.Equal(t, "center", e.Attributes["align"])
}

func TestPlainAndWalk(t *testing.T) {
	root := build(t, append(para("a"), linear.NewElement("image", map[string]interface{}{"src": "x"}), linear.CloseElement("image")))

	plain := Plain(root)
	assert.Equal(t, PlainNode{
		Type:   "document",
		Length: 5,
		Children: []PlainNode{
			{Type: "paragraph", Length: 1, Children: []PlainNode{{Type: "text", Length: 1}}},
			{Type: "image", Attributes: map[string]interface{}{"src": "x"}},
		},
	}, plain)

	var types []string
	Walk(root, func(n Node) bool {
		types = append(types, n.Type())
		return n.Type() != "paragraph"
	})
	assert.Equal(t, []string{"document", "paragraph"}, types)
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.True(t, r.CanContainContent("paragraph"))
	assert.False(t, r.CanContainContent("list"))

	r.RegisterContentBranch("caption")
	n, err := r.Create(linear.NewElement("caption", nil))
	require.NoError(t, err)
	assert.True(t, n.CanHaveChildren())
	assert.True(t, r.CanContainContent("caption"))

	_, err = r.Create(linear.NewElement("unknownWidget", nil))
	assert.EqualError(t, err, `unknown node type "unknownWidget"`)
}
