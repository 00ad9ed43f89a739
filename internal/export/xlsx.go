// Package export renders a stored document as a spreadsheet. Rendering is
// read-only: the document is never modified.
package export

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gridflow/internal/domain"
	"gridflow/internal/grid"
	"gridflow/internal/pricing"
	"gridflow/internal/schema"

	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/schema/soo/sml"
	"github.com/unidoc/unioffice/spreadsheet"
	"github.com/unidoc/unioffice/spreadsheet/reference"
)

var ErrNoColumns = errors.New("document has no visible columns")

// ContentType is the media type of the output of WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// cellStyle is the rendered formatting of one grid cell.
type cellStyle struct {
	align  grid.Align
	weight grid.Weight
	edges  grid.Edges
}

// styles hands out one workbook style per distinct cellStyle.
type styles struct {
	wb    *spreadsheet.Workbook
	cache map[cellStyle]spreadsheet.CellStyle
}

func (s *styles) get(cs cellStyle) spreadsheet.CellStyle {
	if st, ok := s.cache[cs]; ok {
		return st
	}
	st := s.wb.StyleSheet.AddCellStyle()
	st.SetHorizontalAlignment(horizontal(cs.align))
	if cs.weight == grid.WeightBold {
		f := s.wb.StyleSheet.AddFont()
		f.SetBold(true)
		st.SetFont(f)
	}
	if !cs.edges.IsZero() {
		b := s.wb.StyleSheet.AddBorder()
		b.SetTop(lineStyle(cs.edges.Top), color.Black)
		b.SetBottom(lineStyle(cs.edges.Bottom), color.Black)
		b.SetLeft(lineStyle(cs.edges.Left), color.Black)
		b.SetRight(lineStyle(cs.edges.Right), color.Black)
		st.SetBorder(b)
	}
	s.cache[cs] = st
	return st
}

func horizontal(a grid.Align) sml.ST_HorizontalAlignment {
	switch a {
	case grid.AlignRight:
		return sml.ST_HorizontalAlignmentRight
	case grid.AlignCenter:
		return sml.ST_HorizontalAlignmentCenter
	}
	return sml.ST_HorizontalAlignmentLeft
}

func lineStyle(l grid.LineStyle) sml.ST_BorderStyle {
	switch l {
	case grid.LineSolid:
		return sml.ST_BorderStyleThin
	case grid.LineDotted:
		return sml.ST_BorderStyleDotted
	}
	return sml.ST_BorderStyleNone
}

func ref(col, row int) string {
	return fmt.Sprintf("%s%d", reference.IndexToColumn(uint32(col)), row)
}

// WriteXLSX writes doc as a single-sheet workbook: the header block, the
// grid with its merges, alignment, weight and borders, the totals and the
// notes. Hidden columns are left out. Soft-deleted rows keep their place so
// formatting stays aligned, but their values are not printed. fixedVAT is the
// rate for types without a per-document one.
func WriteXLSX(w io.Writer, doc *domain.Document, fixedVAT int) error {
	sc, err := schema.Lookup(doc.Type)
	if err != nil {
		return err
	}
	c := doc.Form()

	// out maps a visible schema column index to its spreadsheet column.
	var visible []int
	out := map[int]int{}
	for i, col := range sc.Columns {
		if col.Optional && slices.Contains(c.HiddenFields, col.Field) {
			continue
		}
		out[i] = len(visible)
		visible = append(visible, i)
	}
	if len(visible) == 0 {
		return ErrNoColumns
	}
	lastCol := len(visible) - 1

	wb := spreadsheet.New()
	sheet := wb.AddSheet()
	sheet.SetName(sheetName(c.Header.Title, doc.ID))
	st := &styles{wb: wb, cache: map[cellStyle]spreadsheet.CellStyle{}}

	line := 1
	title := sheet.Cell(ref(0, line))
	title.SetString(c.Header.Title)
	title.SetStyle(st.get(cellStyle{align: grid.AlignCenter, weight: grid.WeightBold}))
	if lastCol > 0 {
		sheet.AddMergedCells(ref(0, line), ref(lastCol, line))
	}
	line++

	for _, kv := range [][2]string{
		{"Recipient", c.Header.Recipient},
		{"Reference", c.Header.Reference},
		{"Sender", c.Header.Sender},
		{"Date", c.Header.Date},
	} {
		if strings.TrimSpace(kv[1]) == "" {
			continue
		}
		sheet.Cell(ref(0, line)).SetString(kv[0])
		sheet.Cell(ref(1, line)).SetString(kv[1])
		line++
	}
	line++

	head := st.get(cellStyle{align: grid.AlignCenter, weight: grid.WeightBold, edges: grid.Edges{
		Top: grid.LineSolid, Bottom: grid.LineSolid, Left: grid.LineSolid, Right: grid.LineSolid,
	}})
	for i, idx := range visible {
		cell := sheet.Cell(ref(i, line))
		cell.SetString(string(sc.Columns[idx].Field))
		cell.SetStyle(head)
	}
	line++

	first := line
	for r, row := range c.Sheet.Rows {
		for _, idx := range visible {
			p := grid.Pos{Row: r, Col: idx}
			if c.Sheet.Covered(p) {
				continue
			}
			cell := sheet.Cell(ref(out[idx], first+r))
			if !row.Deleted {
				cell.SetString(row.Get(sc.Columns[idx].Field))
			}
			cell.SetStyle(st.get(cellStyle{
				align:  c.Sheet.EffectiveAlign(p, sc.Columns[idx].Kind),
				weight: c.Sheet.EffectiveWeight(p),
				edges:  c.Sheet.EffectiveBorder(p),
			}))
		}
	}
	for anchor, span := range c.Sheet.Overlays.Merges {
		from, to, ok := mergeRange(span.Rect(anchor), visible, out)
		if !ok || anchor.Row >= len(c.Sheet.Rows) {
			continue
		}
		sheet.AddMergedCells(ref(from.Col, first+from.Row), ref(to.Col, first+to.Row))
	}
	line = first + len(c.Sheet.Rows) + 1

	if sc.DerivesAmount {
		totals := pricing.Compute(c.Sheet.Rows, pricing.RatePercent(sc, c.VATPercent, fixedVAT))
		right := st.get(cellStyle{align: grid.AlignRight})
		for _, kv := range []struct {
			label string
			value string
		}{
			{"Subtotal", totals.Subtotal.String()},
			{"VAT", totals.VAT.String()},
			{"Total", totals.Total.String()},
		} {
			sheet.Cell(ref(lastCol-1, line)).SetString(kv.label)
			v := sheet.Cell(ref(lastCol, line))
			v.SetString(kv.value)
			v.SetStyle(right)
			line++
		}
		line++
	}

	for _, n := range c.Notes {
		sheet.Cell(ref(0, line)).SetString(n.Label)
		sheet.Cell(ref(1, line)).SetString(n.Content)
		line++
	}

	return wb.Save(w)
}

// mergeRange clips a merged block to the visible columns and reports
// whether anything larger than one cell is left.
func mergeRange(rect grid.Rect, visible []int, out map[int]int) (grid.Pos, grid.Pos, bool) {
	lo, hi := rect.Min(), rect.Max()
	start, end := -1, -1
	for _, idx := range visible {
		if idx < lo.Col || idx > hi.Col {
			continue
		}
		if start < 0 {
			start = out[idx]
		}
		end = out[idx]
	}
	if start < 0 || (start == end && lo.Row == hi.Row) {
		return grid.Pos{}, grid.Pos{}, false
	}
	return grid.Pos{Row: lo.Row, Col: start}, grid.Pos{Row: hi.Row, Col: end}, true
}

// sheetName fits title into the spreadsheet limits: at most 31 characters
// and none of []:*?/\.
func sheetName(title string, id uint64) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = fmt.Sprintf("Document %d", id)
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
