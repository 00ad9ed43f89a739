package navigate

import (
	"slices"
	"strings"

	"gridflow/internal/grid"
	"gridflow/internal/schema"
)

// ParseMatrix splits spreadsheet clipboard text into rows of cells. Rows end
// at newlines and cells at tabs; a cell starting with a quote that closes
// before a delimiter may span lines, and doubled quotes inside it unescape.
// The second result is false for text with neither tab nor newline, which
// should be pasted as plain text.
func ParseMatrix(text string) ([][]string, bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if !strings.ContainsAny(text, "\t\n") {
		return nil, false
	}

	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
		atStart  = true
	)
	endCell := func() {
		row = append(row, cell.String())
		cell.Reset()
		atStart = true
	}

	rs := []rune(text)
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		switch {
		case inQuotes:
			if c == '"' {
				if i+1 < len(rs) && rs[i+1] == '"' {
					cell.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cell.WriteRune(c)
		case c == '"' && atStart && closesBeforeDelimiter(rs, i):
			inQuotes = true
			atStart = false
		case c == '\t':
			endCell()
		case c == '\n':
			endCell()
			rows = append(rows, row)
			row = nil
		default:
			cell.WriteRune(c)
			atStart = false
		}
	}
	endCell()
	rows = append(rows, row)
	return rows, true
}

// closesBeforeDelimiter looks ahead from an opening quote for its closing
// quote and checks that a tab, newline or end of text follows it.
func closesBeforeDelimiter(rs []rune, open int) bool {
	for j := open + 1; j < len(rs); j++ {
		if rs[j] != '"' {
			continue
		}
		if j+1 < len(rs) && rs[j+1] == '"' {
			j++
			continue
		}
		return j+1 == len(rs) || rs[j+1] == '\t' || rs[j+1] == '\n'
	}
	return false
}

// Target is one cell write produced by a paste.
type Target struct {
	Pos   grid.Pos
	Field schema.Field
	Value string
}

// Targets maps a parsed matrix onto the grid starting at start. Columns step
// through the navigable set and are truncated at its end; rows stop at
// maxRows when it is positive.
func Targets(s schema.Schema, navigable []int, start grid.Pos, matrix [][]string, maxRows int) []Target {
	first := slices.Index(navigable, start.Col)
	if first < 0 {
		return nil
	}
	var out []Target
	for r, cells := range matrix {
		row := start.Row + r
		if maxRows > 0 && row >= maxRows {
			break
		}
		for c, v := range cells {
			idx := first + c
			if idx >= len(navigable) {
				break
			}
			col := navigable[idx]
			field, ok := s.FieldAt(col)
			if !ok {
				continue
			}
			out = append(out, Target{Pos: grid.Pos{Row: row, Col: col}, Field: field, Value: v})
		}
	}
	return out
}
