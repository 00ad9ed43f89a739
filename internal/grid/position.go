package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Pos addresses a cell by row index and physical column index.
type Pos struct {
	Row int
	Col int
}

func (p Pos) String() string {
	return strconv.Itoa(p.Row) + "-" + strconv.Itoa(p.Col)
}

// MarshalText lets Pos key JSON objects as "row-col".
func (p Pos) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pos) UnmarshalText(b []byte) error {
	r, c, ok := strings.Cut(string(b), "-")
	if !ok {
		return fmt.Errorf("invalid cell position %q", b)
	}
	row, err := strconv.Atoi(r)
	if err != nil {
		return fmt.Errorf("invalid cell position %q: %w", b, err)
	}
	col, err := strconv.Atoi(c)
	if err != nil {
		return fmt.Errorf("invalid cell position %q: %w", b, err)
	}
	p.Row, p.Col = row, col
	return nil
}

// Rect is a selection between two anchor cells in any order.
type Rect struct {
	Start Pos
	End   Pos
}

func NewRect(start, end Pos) Rect {
	return Rect{Start: start, End: end}
}

// Cell is a one-cell selection.
func Cell(row, col int) Rect {
	p := Pos{Row: row, Col: col}
	return Rect{Start: p, End: p}
}

// Min returns the top-left corner.
func (r Rect) Min() Pos {
	return Pos{Row: min(r.Start.Row, r.End.Row), Col: min(r.Start.Col, r.End.Col)}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Pos {
	return Pos{Row: max(r.Start.Row, r.End.Row), Col: max(r.Start.Col, r.End.Col)}
}

func (r Rect) IsSingle() bool {
	return r.Min() == r.Max()
}

func (r Rect) Contains(p Pos) bool {
	lo, hi := r.Min(), r.Max()
	return p.Row >= lo.Row && p.Row <= hi.Row && p.Col >= lo.Col && p.Col <= hi.Col
}

// Intersects reports whether two rectangles share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	a, b := r.Min(), r.Max()
	c, d := o.Min(), o.Max()
	return a.Row <= d.Row && c.Row <= b.Row && a.Col <= d.Col && c.Col <= b.Col
}

// Each visits every cell row by row.
func (r Rect) Each(fn func(Pos)) {
	lo, hi := r.Min(), r.Max()
	for row := lo.Row; row <= hi.Row; row++ {
		for col := lo.Col; col <= hi.Col; col++ {
			fn(Pos{Row: row, Col: col})
		}
	}
}
