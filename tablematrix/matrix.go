// Package tablematrix projects a table node tree onto a dense grid, resolving row and
// column spans into placeholder cells.
package tablematrix

import (
	"fmt"
	"math"
	"strconv"

	"linmodel/doctree"
)

// Node types walked when building a matrix.
const (
	TypeTable   = "table"
	TypeSection = "tableSection"
	TypeRow     = "tableRow"
	TypeCell    = "tableCell"
)

// Cell is a position in the matrix. A real cell owns itself; a placeholder is covered
// by the span of its Owner and shares the owner's node.
type Cell struct {
	Node  doctree.Node
	Row   int
	Col   int
	Owner *Cell
}

// IsPlaceholder reports whether the position is covered by another cell's span.
func (c *Cell) IsPlaceholder() bool {
	return c.Owner != c
}

// Key identifies the position, for use as a map key.
func (c *Cell) Key() string {
	return fmt.Sprintf("%d_%d", c.Row, c.Col)
}

// Equals compares positions.
func (c *Cell) Equals(other *Cell) bool {
	return other != nil && c.Row == other.Row && c.Col == other.Col
}

// SortDescending orders cells bottom to top and right to left, so rows and columns can
// be deleted in order without shifting the positions still to visit. It fits
// slices.SortFunc.
func SortDescending(a, b *Cell) int {
	if a.Row != b.Row {
		return b.Row - a.Row
	}
	return b.Col - a.Col
}

// Matrix is a memoized grid over a table node. It is rebuilt on the next read after the
// table's structural version changes or Invalidate is called.
type Matrix struct {
	table doctree.Node

	built    bool
	version  uint64
	matrix   [][]*Cell
	rowNodes []doctree.Node
}

// New creates a matrix over table. Nothing is built until first read.
func New(table doctree.Node) *Matrix {
	return &Matrix{table: table}
}

// Invalidate drops the cached grid.
func (m *Matrix) Invalidate() {
	m.built = false
	m.matrix = nil
	m.rowNodes = nil
}

func (m *Matrix) ensure() {
	if m.built && m.version == m.table.Version() {
		return
	}
	m.update()
}

func (m *Matrix) update() {
	var matrix [][]*Cell
	var rowNodes []doctree.Node

	grow := func(row int) {
		for len(matrix) <= row {
			matrix = append(matrix, nil)
		}
	}
	set := func(row, col int, cell *Cell) {
		grow(row)
		for len(matrix[row]) <= col {
			matrix[row] = append(matrix[row], nil)
		}
		matrix[row][col] = cell
	}

	for row, rowNode := range rows(m.table) {
		rowNodes = append(rowNodes, rowNode)
		grow(row)
		col := 0
		for _, cellNode := range rowNode.Children() {
			if cellNode.Type() != TypeCell {
				continue
			}
			for col < len(matrix[row]) && matrix[row][col] != nil {
				col++
			}
			cell := &Cell{Node: cellNode, Row: row, Col: col}
			cell.Owner = cell
			rowSpan, colSpan := spans(cellNode)
			for i := 0; i < rowSpan; i++ {
				for j := 0; j < colSpan; j++ {
					if i == 0 && j == 0 {
						set(row, col, cell)
						continue
					}
					set(row+i, col+j, &Cell{Node: cellNode, Row: row + i, Col: col + j, Owner: cell})
				}
			}
			col += colSpan
		}
	}

	m.matrix = matrix
	m.rowNodes = rowNodes
	m.version = m.table.Version()
	m.built = true
}

// rows returns the table rows in document order, looking through sections but not into
// cells, so nested tables are left out.
func rows(table doctree.Node) []doctree.Node {
	var out []doctree.Node
	for _, child := range table.Children() {
		switch child.Type() {
		case TypeRow:
			out = append(out, child)
		case TypeSection:
			for _, row := range child.Children() {
				if row.Type() == TypeRow {
					out = append(out, row)
				}
			}
		}
	}
	return out
}

func spans(cellNode doctree.Node) (rowSpan, colSpan int) {
	element, _ := cellNode.Element()
	return span(element.Attributes["rowspan"]), span(element.Attributes["colspan"])
}

// span reads a span attribute, which JSON input may carry as a number or a string.
// Missing or invalid spans count as 1.
func span(v interface{}) int {
	n := 1
	switch v := v.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n = int(v)
		}
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}
	if n < 1 {
		return 1
	}
	return n
}

// GetMatrix returns the grid, rows first. A position inside a row may be nil only in a
// malformed table where a span reaches past the cells of a shorter row.
func (m *Matrix) GetMatrix() [][]*Cell {
	m.ensure()
	return m.matrix
}

// GetRowNodes returns the row nodes in matrix order.
func (m *Matrix) GetRowNodes() []doctree.Node {
	m.ensure()
	return m.rowNodes
}

// GetCell returns the cell at row, col or nil.
func (m *Matrix) GetCell(row, col int) *Cell {
	r := m.GetRow(row)
	if col < 0 || col >= len(r) {
		return nil
	}
	return r[col]
}

// GetRow returns the cells of row.
func (m *Matrix) GetRow(row int) []*Cell {
	matrix := m.GetMatrix()
	if row < 0 || row >= len(matrix) {
		return nil
	}
	return matrix[row]
}

// GetColumn returns the cell at col of every row, nil where a row is shorter.
func (m *Matrix) GetColumn(col int) []*Cell {
	matrix := m.GetMatrix()
	column := make([]*Cell, len(matrix))
	for row := range matrix {
		if col >= 0 && col < len(matrix[row]) {
			column[row] = matrix[row][col]
		}
	}
	return column
}

// GetRowNode returns the node of row. Rows created only by spans reaching past the last
// row node have none, and nil is returned.
func (m *Matrix) GetRowNode(row int) doctree.Node {
	nodes := m.GetRowNodes()
	if row < 0 || row >= len(nodes) {
		return nil
	}
	return nodes[row]
}

// GetRowCount returns the number of matrix rows.
func (m *Matrix) GetRowCount() int {
	return len(m.GetMatrix())
}

// GetColCount returns the number of positions in row.
func (m *Matrix) GetColCount(row int) int {
	return len(m.GetRow(row))
}

// GetMaxColCount returns the length of the longest row.
func (m *Matrix) GetMaxColCount() int {
	longest := 0
	for _, row := range m.GetMatrix() {
		if len(row) > longest {
			longest = len(row)
		}
	}
	return longest
}

// LookupCell returns the real cell for a cell node, or nil if the node is not a cell of
// this table.
func (m *Matrix) LookupCell(cellNode doctree.Node) *Cell {
	rowNodes := m.GetRowNodes()
	row := -1
	for i, rowNode := range rowNodes {
		if rowNode == cellNode.Parent() {
			row = i
			break
		}
	}
	if row < 0 {
		return nil
	}
	for _, cell := range m.matrix[row] {
		if cell != nil && cell.Node == cellNode {
			return cell
		}
	}
	return nil
}

// FindClosestCell returns the nearest real cell in the row of cell, looking left first
// and then right. It is nil when the row only holds placeholders.
func (m *Matrix) FindClosestCell(cell *Cell) *Cell {
	row := m.GetRow(cell.Row)
	for col := cell.Col; col >= 0; col-- {
		if col < len(row) && row[col] != nil && !row[col].IsPlaceholder() {
			return row[col]
		}
	}
	for col := cell.Col + 1; col < len(row); col++ {
		if row[col] != nil && !row[col].IsPlaceholder() {
			return row[col]
		}
	}
	return nil
}
