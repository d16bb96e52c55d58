package types

import (
	"fmt"
	"strings"
)

// Outputter renders a completed audit result. Implementations are pure
// presentation over the result's precomputed fields.
type Outputter interface {
	Write(result *AuditResult) error
}

type MarkdownTable struct {
	TableHeading string
	Headers      []string
	Rows         [][]string
}

// ToString converts the MarkdownTable to a markdown string
func (t MarkdownTable) ToString() string {
	var result strings.Builder

	if t.TableHeading != "" {
		result.WriteString("# " + t.TableHeading + "\n\n")
	}

	if len(t.Headers) == 0 {
		return result.String()
	}

	widths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		widths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) {
		result.WriteString("|")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			result.WriteString(fmt.Sprintf(" %-*s |", w, cell))
		}
		result.WriteString("\n")
	}

	writeRow(t.Headers)
	result.WriteString("|")
	for _, w := range widths {
		result.WriteString(fmt.Sprintf(" %s |", strings.Repeat("-", w)))
	}
	result.WriteString("\n")

	for _, row := range t.Rows {
		writeRow(row)
	}
	result.WriteString("\n")

	return result.String()
}
