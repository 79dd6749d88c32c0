package records

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	viewTitle     = "Today's Attendance Records:"
	noRecordsText = "No records found for today."
)

// FormatTable renders entries as a right-aligned table with a leading row index
func FormatTable(entries []Entry) string {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, append([]string{""}, Header...))
	for i, entry := range entries {
		rows = append(rows, append([]string{strconv.Itoa(i)}, entry.row()...))
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for col, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[col] {
				widths[col] = w
			}
		}
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for col, cell := range row {
			if col > 0 {
				b.WriteString("  ")
			}
			b.WriteString(runewidth.FillLeft(cell, widths[col]))
		}
	}
	return b.String()
}

// RenderView produces the text shown for a day's records. A missing store and
// a read failure are rendered inline rather than returned.
func RenderView(entries []Entry, err error) string {
	switch {
	case errors.Is(err, ErrNoRecords):
		return noRecordsText
	case err != nil:
		return "Error reading records: " + err.Error()
	}

	var b strings.Builder
	b.WriteString(viewTitle)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("=", 50))
	b.WriteByte('\n')
	b.WriteString(FormatTable(entries))
	return b.String()
}
