package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const columnGap = "  "

// Table lays rows out under a header row. Columns are sized by printed
// width, so styled and accented cells line up.
type Table struct {
	headers []string
	align   []lipgloss.Position
	widths  []int
	rows    [][]string
}

// NewTable creates a table with left-aligned columns.
func NewTable(headers ...string) *Table {
	t := &Table{
		headers: headers,
		align:   make([]lipgloss.Position, len(headers)),
		widths:  make([]int, len(headers)),
	}
	for i, h := range headers {
		t.align[i] = lipgloss.Left
		t.widths[i] = lipgloss.Width(h)
	}
	return t
}

// AlignRight right-aligns the given zero-based columns. Out of range
// indexes are ignored.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.align) {
			t.align[c] = lipgloss.Right
		}
	}
	return t
}

// AddRow appends a row. Missing values render empty and extra values are
// dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	for i, cell := range row {
		t.widths[i] = max(t.widths[i], lipgloss.Width(cell))
	}
	t.rows = append(t.rows, row)
}

// WriteTo writes the rendered table to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.String())
	return int64(n), err
}

// String renders the header, a rule and every row. A table without
// columns renders empty.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var sb strings.Builder
	t.writeLine(&sb, t.headers, StyleHeader.Render)

	rule := make([]string, len(t.widths))
	for i, w := range t.widths {
		rule[i] = strings.Repeat("─", w)
	}
	t.writeLine(&sb, rule, StyleMuted.Render)

	for _, row := range t.rows {
		t.writeLine(&sb, row, nil)
	}
	return sb.String()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string, style func(...string) string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString(columnGap)
		}
		cell = lipgloss.PlaceHorizontal(t.widths[i], t.align[i], cell)
		if style != nil {
			cell = style(cell)
		}
		sb.WriteString(cell)
	}
	sb.WriteString("\n")
}
