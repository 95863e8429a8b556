package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

var (
	green     = color.New(color.FgGreen).SprintFunc()
	red       = color.New(color.FgRed).SprintFunc()
	yellow    = color.New(color.FgYellow).SprintFunc()
	cyan      = color.New(color.FgCyan).SprintFunc()
	gray      = color.New(color.FgHiBlack).SprintFunc()
	bold      = color.New(color.Bold).SprintFunc()
	boldGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldRed   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// configureColors disables color for non-terminals and when NO_COLOR is
// set; FORCE_COLOR wins over both.
func configureColors(noColor bool) {
	switch {
	case noColor || os.Getenv("NO_COLOR") != "":
		color.NoColor = true
	case os.Getenv("FORCE_COLOR") != "":
		color.NoColor = false
	}
}

// table renders rows with a compact, borderless layout.
type table struct {
	out     io.Writer
	headers []string
	rows    [][]string
}

func newTable(out io.Writer, headers ...string) *table {
	return &table{out: out, headers: headers}
}

func (t *table) append(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *table) render() {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLength(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visualLength(cell) > widths[i] {
				widths[i] = visualLength(cell)
			}
		}
	}

	t.renderRow(t.headers, widths, true)
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	fmt.Fprintln(t.out, strings.Repeat("─", total))
	for _, row := range t.rows {
		t.renderRow(row, widths, false)
	}
}

func (t *table) renderRow(row []string, widths []int, header bool) {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if header {
			cell = bold(cell)
		}
		b.WriteString(cell)
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", width-visualLength(cell)+2))
		}
	}
	fmt.Fprintln(t.out, b.String())
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// visualLength is the printed width of s, ignoring ANSI codes.
func visualLength(s string) int {
	return utf8.RuneCountInString(ansiRegex.ReplaceAllString(s, ""))
}
