package grid

import (
	"errors"
	"fmt"

	"gridflow/internal/schema"
)

var (
	ErrRowNotFound = errors.New("row not found")
	ErrBadOverlay  = errors.New("overlay outside the sheet")
)

// Sheet is the row sequence of a document plus its cell overlays.
type Sheet struct {
	Rows     []Row    `json:"rows"`
	Overlays Overlays `json:"overlays"`
}

func NewSheet() Sheet {
	return Sheet{Rows: []Row{}, Overlays: NewOverlays()}
}

func (s Sheet) Clone() Sheet {
	rows := make([]Row, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r.Clone()
	}
	return Sheet{Rows: rows, Overlays: s.Overlays.Clone()}
}

// CheckOverlays verifies that every overlay sits inside a sheet of cols
// columns and that merges span at least one cell without running off it.
func (s Sheet) CheckOverlays(cols int) error {
	inside := func(p Pos) bool {
		return p.Row >= 0 && p.Row < len(s.Rows) && p.Col >= 0 && p.Col < cols
	}
	for p, span := range s.Overlays.Merges {
		if span.RowSpan < 1 || span.ColSpan < 1 {
			return fmt.Errorf("%w: merge at %s spans %dx%d", ErrBadOverlay, p, span.RowSpan, span.ColSpan)
		}
		if !inside(p) || !inside(span.Rect(p).End) {
			return fmt.Errorf("%w: merge at %s", ErrBadOverlay, p)
		}
	}
	for p := range s.Overlays.Aligns {
		if !inside(p) {
			return fmt.Errorf("%w: align at %s", ErrBadOverlay, p)
		}
	}
	for p := range s.Overlays.Weights {
		if !inside(p) {
			return fmt.Errorf("%w: weight at %s", ErrBadOverlay, p)
		}
	}
	for p := range s.Overlays.Borders {
		if !inside(p) {
			return fmt.Errorf("%w: border at %s", ErrBadOverlay, p)
		}
	}
	return nil
}

// RowIndex returns the index of the row with the given id, or -1.
func (s Sheet) RowIndex(id string) int {
	for i := range s.Rows {
		if s.Rows[i].ID == id {
			return i
		}
	}
	return -1
}

// Row returns a pointer into the sheet so callers can mutate in place.
func (s *Sheet) Row(id string) (*Row, error) {
	i := s.RowIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return &s.Rows[i], nil
}

// SetField replaces one field of a row. It does not snapshot.
func (s *Sheet) SetField(rowID string, field schema.Field, value string) (Row, error) {
	r, err := s.Row(rowID)
	if err != nil {
		return Row{}, err
	}
	r.Set(field, value)
	return *r, nil
}

// Merge turns rect into one merged block anchored at its top-left cell.
// Any merge intersecting rect is dropped first, so the last merge wins.
// A single-cell rect is a no-op and returns false.
func (s *Sheet) Merge(rect Rect) bool {
	if rect.IsSingle() {
		return false
	}
	s.Overlays.ensure()
	s.dropMerges(rect)

	lo, hi := rect.Min(), rect.Max()
	s.Overlays.Merges[lo] = Span{RowSpan: hi.Row - lo.Row + 1, ColSpan: hi.Col - lo.Col + 1}
	return true
}

// Unmerge removes every merge anchored inside rect, anchor included.
func (s *Sheet) Unmerge(rect Rect) {
	for p := range s.Overlays.Merges {
		if rect.Contains(p) {
			delete(s.Overlays.Merges, p)
		}
	}
}

func (s *Sheet) dropMerges(rect Rect) {
	for p, span := range s.Overlays.Merges {
		if span.Rect(p).Intersects(rect) {
			delete(s.Overlays.Merges, p)
		}
	}
}

// AnchorOf finds the merge covering p, if any.
func (s Sheet) AnchorOf(p Pos) (Pos, Span, bool) {
	if span, ok := s.Overlays.Merges[p]; ok {
		return p, span, true
	}
	for a, span := range s.Overlays.Merges {
		if span.Rect(a).Contains(p) {
			return a, span, true
		}
	}
	return Pos{}, Span{}, false
}

// Covered reports whether p lies inside a merge without being its anchor.
// Covered cells are not rendered.
func (s Sheet) Covered(p Pos) bool {
	a, _, ok := s.AnchorOf(p)
	return ok && a != p
}

func (s *Sheet) ApplyAlign(rect Rect, a Align) {
	s.Overlays.ensure()
	rect.Each(func(p Pos) { s.Overlays.Aligns[p] = a })
}

func (s *Sheet) ApplyWeight(rect Rect, w Weight) {
	s.Overlays.ensure()
	rect.Each(func(p Pos) { s.Overlays.Weights[p] = w })
}

// ApplyBorder stamps border edges. Outer mode draws the rectangle boundary;
// inner mode draws every shared edge on both of its sides.
func (s *Sheet) ApplyBorder(rect Rect, mode BorderMode, style LineStyle) {
	s.Overlays.ensure()
	lo, hi := rect.Min(), rect.Max()
	outer := mode == BorderOuter || mode == BorderAll
	inner := mode == BorderInner || mode == BorderAll

	rect.Each(func(p Pos) {
		e := s.Overlays.Borders[p]
		if outer {
			if p.Row == lo.Row {
				e.Top = style
			}
			if p.Row == hi.Row {
				e.Bottom = style
			}
			if p.Col == lo.Col {
				e.Left = style
			}
			if p.Col == hi.Col {
				e.Right = style
			}
		}
		if inner {
			if p.Row > lo.Row {
				e.Top = style
			}
			if p.Row < hi.Row {
				e.Bottom = style
			}
			if p.Col > lo.Col {
				e.Left = style
			}
			if p.Col < hi.Col {
				e.Right = style
			}
		}
		if e.IsZero() {
			delete(s.Overlays.Borders, p)
			return
		}
		s.Overlays.Borders[p] = e
	})
}

// ClearStyles removes alignment, weight and border entries inside rect.
func (s *Sheet) ClearStyles(rect Rect) {
	rect.Each(func(p Pos) {
		delete(s.Overlays.Aligns, p)
		delete(s.Overlays.Weights, p)
		delete(s.Overlays.Borders, p)
	})
}

// DefaultAlign is the alignment of a cell with no explicit entry.
func DefaultAlign(kind schema.ColumnKind) Align {
	switch kind {
	case schema.KindAmount:
		return AlignRight
	case schema.KindName:
		return AlignLeft
	default:
		return AlignCenter
	}
}

func (s Sheet) EffectiveAlign(p Pos, kind schema.ColumnKind) Align {
	if a, ok := s.Overlays.Aligns[p]; ok {
		return a
	}
	return DefaultAlign(kind)
}

func (s Sheet) EffectiveWeight(p Pos) Weight {
	if w, ok := s.Overlays.Weights[p]; ok {
		return w
	}
	return WeightNormal
}

func (s Sheet) EffectiveBorder(p Pos) Edges {
	return s.Overlays.Borders[p]
}

// Live returns the rows that are not soft-deleted.
func (s Sheet) Live() []Row {
	out := make([]Row, 0, len(s.Rows))
	for _, r := range s.Rows {
		if !r.Deleted {
			out = append(out, r)
		}
	}
	return out
}
