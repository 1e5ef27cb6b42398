package document

import (
	"unicode"
	"unicode/utf8"

	"linmodel/common"
	"linmodel/docrange"
	"linmodel/doctree"
	"linmodel/linear"
)

// Expansion scopes accepted by ExpandRange.
const (
	ScopeWord = "word"
	ScopeNode = "node"
	ScopeRoot = "root"
)

// ExpandRange grows r to the given scope, keeping its direction:
//   - word: the run of word characters around r inside its enclosing node
//   - node: the content of the deepest node enclosing both ends
//   - root: the whole document content, excluding the internal list
func (d *Document) ExpandRange(r docrange.Range, scope string) (docrange.Range, error) {
	var expanded docrange.Range
	switch scope {
	case ScopeWord:
		bound := d.NodeFromOffset(r.Start).Range()
		expanded = r.ExpandCallback(d.isWordOffset, bound)
	case ScopeNode:
		expanded = d.commonNode(r).Range()
	case ScopeRoot:
		expanded = d.DocumentRange()
	default:
		return docrange.Range{}, common.ErrInvalidScope{Scope: scope}
	}
	if r.IsBackwards() != expanded.IsBackwards() {
		return expanded.Flip(), nil
	}
	return expanded, nil
}

func (d *Document) isWordOffset(offset int) bool {
	ch, ok := linear.GetCharacter(d.data.At(offset))
	if !ok {
		return false
	}
	c, _ := utf8.DecodeRuneInString(ch)
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}

func (d *Document) commonNode(r docrange.Range) doctree.Node {
	a := d.BranchPath(r.Start)
	b := d.BranchPath(r.End)
	shared := a[0]
	for i := 0; i < len(a) && i < len(b) && a[i] == b[i]; i++ {
		shared = a[i]
	}
	return shared
}
