package grid

import "slices"

// InsertRow places row at index and moves every overlay at or below index
// down by one. A merge that straddles index grows to include the new row.
func (s *Sheet) InsertRow(index int, row Row) {
	index = max(0, min(index, len(s.Rows)))
	s.Rows = slices.Insert(s.Rows, index, row)

	s.Overlays.ensure()
	merges := make(map[Pos]Span, len(s.Overlays.Merges))
	for p, span := range s.Overlays.Merges {
		switch {
		case p.Row >= index:
			p.Row++
		case p.Row+span.RowSpan > index:
			span.RowSpan++
		}
		merges[p] = span
	}
	s.Overlays.Merges = merges
	s.Overlays.Aligns = shiftDown(s.Overlays.Aligns, index)
	s.Overlays.Weights = shiftDown(s.Overlays.Weights, index)
	s.Overlays.Borders = shiftDown(s.Overlays.Borders, index)
}

// RemoveRow deletes the row at index. Overlays on that row are dropped and
// overlays below move up by one. Merges crossing the row shrink, and a merge
// anchored on it moves its anchor to the row that takes its place.
func (s *Sheet) RemoveRow(index int) bool {
	if index < 0 || index >= len(s.Rows) {
		return false
	}
	s.Rows = slices.Delete(s.Rows, index, index+1)

	s.Overlays.ensure()
	merges := make(map[Pos]Span, len(s.Overlays.Merges))
	for p, span := range s.Overlays.Merges {
		switch {
		case p.Row > index:
			p.Row--
		case p.Row+span.RowSpan > index:
			span.RowSpan--
		}
		if span.RowSpan < 1 || (span.RowSpan == 1 && span.ColSpan == 1) {
			continue
		}
		merges[p] = span
	}
	s.Overlays.Merges = merges
	s.Overlays.Aligns = shiftUp(s.Overlays.Aligns, index)
	s.Overlays.Weights = shiftUp(s.Overlays.Weights, index)
	s.Overlays.Borders = shiftUp(s.Overlays.Borders, index)
	return true
}

func shiftDown[V any](m map[Pos]V, index int) map[Pos]V {
	out := make(map[Pos]V, len(m))
	for p, v := range m {
		if p.Row >= index {
			p.Row++
		}
		out[p] = v
	}
	return out
}

func shiftUp[V any](m map[Pos]V, index int) map[Pos]V {
	out := make(map[Pos]V, len(m))
	for p, v := range m {
		switch {
		case p.Row == index:
			continue
		case p.Row > index:
			p.Row--
		}
		out[p] = v
	}
	return out
}
