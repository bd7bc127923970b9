package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a bold header with aligned columns
type Table struct {
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given column headers
func NewTable(noColor bool, headers ...string) *Table {
	return &Table{headers: headers, noColor: noColor}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Render writes the table to w
func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	header := paint(t.noColor, color.Bold, color.FgCyan)
	rule := paint(t.noColor, color.FgHiBlack)

	writeLine(w, t.headers, widths, header)
	separators := make([]string, len(widths))
	for i, width := range widths {
		separators[i] = strings.Repeat("─", width)
	}
	writeLine(w, separators, widths, rule)
	for _, row := range t.rows {
		writeLine(w, row, widths, nil)
	}
}

func writeLine(w io.Writer, cells []string, widths []int, c *color.Color) {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(padRight(cell, widths[i]))
	}
	if c == nil {
		fmt.Fprintln(w, b.String())
		return
	}
	c.Fprintln(w, b.String())
}

// Details renders "key: value" lines with the keys aligned
type Details struct {
	keys    []string
	values  []string
	noColor bool
}

// NewDetails creates an empty key-value listing
func NewDetails(noColor bool) *Details {
	return &Details{noColor: noColor}
}

// Add appends a key-value pair. Empty values are skipped.
func (d *Details) Add(key, value string) {
	if value == "" {
		return
	}
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
}

// Render writes the listing to w
func (d *Details) Render(w io.Writer) {
	width := 0
	for _, k := range d.keys {
		width = max(width, utf8.RuneCountInString(k)+1)
	}
	key := paint(d.noColor, color.FgCyan)
	for i, k := range d.keys {
		key.Fprint(w, padRight(k+":", width))
		fmt.Fprintf(w, " %s\n", d.values[i])
	}
}

// Heading writes a bold section title
func Heading(w io.Writer, title string, noColor bool) {
	paint(noColor, color.Bold, color.FgCyan).Fprintln(w, title)
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
