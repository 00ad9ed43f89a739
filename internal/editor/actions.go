package editor

import (
	"fmt"

	"gridflow/internal/grid"
	"gridflow/internal/navigate"
	"gridflow/internal/schema"
)

func (s *Session) newRow() grid.Row {
	if s.opts.Mode == ModeAmend {
		return grid.NewLateRow()
	}
	return grid.NewRow()
}

// InsertRow adds an empty row at index. Overlays at or below it move down.
func (s *Session) InsertRow(index int) (grid.Row, error) {
	if index < 0 || index > len(s.content.Sheet.Rows) {
		return grid.Row{}, fmt.Errorf("%w: row %d", ErrIndexOutRange, index)
	}
	if len(s.content.Sheet.Rows) >= s.opts.MaxRows {
		return grid.Row{}, ErrRowLimit
	}
	r := s.newRow()
	s.snapshot()
	s.content.Sheet.InsertRow(index, r)
	return r, nil
}

// RemoveRow physically drops a row and shifts overlays below it up. Rows of
// a submitted document are never removed, only soft-deleted; late rows of an
// archived document may be removed.
func (s *Session) RemoveRow(rowID string) error {
	i := s.content.Sheet.RowIndex(rowID)
	if i < 0 {
		return fmt.Errorf("%w: %s", grid.ErrRowNotFound, rowID)
	}
	r := s.content.Sheet.Rows[i]
	switch {
	case s.opts.Mode == ModeDraft:
	case s.opts.Mode == ModeAmend && r.IsLate():
	default:
		return fmt.Errorf("%w: %s", ErrReadOnly, rowID)
	}
	s.snapshot()
	s.content.Sheet.RemoveRow(i)
	return nil
}

// DeleteRow soft-deletes a row. It keeps its position so overlays stay put.
func (s *Session) DeleteRow(rowID string) error {
	r, err := s.content.Sheet.Row(rowID)
	if err != nil {
		return err
	}
	if err := s.writable(*r); err != nil {
		return err
	}
	if r.Deleted {
		return nil
	}
	s.snapshot()
	r.Deleted = true
	if s.opts.Mode != ModeDraft {
		r.Record(s.opts.ActorID, grid.ModDelete, s.opts.Now())
	}
	return nil
}

// Merge merges the current selection. A single cell is left alone.
func (s *Session) Merge() (bool, error) {
	if err := s.formattable(); err != nil {
		return false, err
	}
	if s.selection.IsSingle() {
		return false, nil
	}
	s.snapshot()
	return s.content.Sheet.Merge(s.selection), nil
}

func (s *Session) Unmerge() error {
	return s.format(func(sh *grid.Sheet) { sh.Unmerge(s.selection) })
}

func (s *Session) ApplyAlign(a grid.Align) error {
	return s.format(func(sh *grid.Sheet) { sh.ApplyAlign(s.selection, a) })
}

func (s *Session) ApplyWeight(w grid.Weight) error {
	return s.format(func(sh *grid.Sheet) { sh.ApplyWeight(s.selection, w) })
}

func (s *Session) ApplyBorder(mode grid.BorderMode, style grid.LineStyle) error {
	return s.format(func(sh *grid.Sheet) { sh.ApplyBorder(s.selection, mode, style) })
}

// ResetFormatting drops alignment, weight and border overlays in the selection.
func (s *Session) ResetFormatting() error {
	return s.format(func(sh *grid.Sheet) { sh.ClearStyles(s.selection) })
}

// Archived documents keep the layout they were approved with.
func (s *Session) formattable() error {
	if s.opts.Mode == ModeAmend {
		return fmt.Errorf("%w: formatting is locked", ErrReadOnly)
	}
	return nil
}

func (s *Session) format(apply func(*grid.Sheet)) error {
	if err := s.formattable(); err != nil {
		return err
	}
	s.snapshot()
	apply(&s.content.Sheet)
	return nil
}

// ClearSelection blanks every writable cell of the selection. Each cleared
// field goes through the same diff tracking as a typed edit.
func (s *Session) ClearSelection() int {
	type cell struct {
		row   int
		field schema.Field
	}
	var cells []cell
	s.selection.Each(func(p grid.Pos) {
		if p.Row < 0 || p.Row >= len(s.content.Sheet.Rows) {
			return
		}
		f, ok := s.schema.FieldAt(p.Col)
		if !ok {
			return
		}
		r := s.content.Sheet.Rows[p.Row]
		if r.Get(f) == "" || s.writable(r) != nil || s.checkField(f, r) != nil {
			return
		}
		cells = append(cells, cell{row: p.Row, field: f})
	})
	if len(cells) == 0 {
		return 0
	}
	s.snapshot()
	for _, c := range cells {
		s.write(&s.content.Sheet.Rows[c.row], c.field, "")
	}
	return len(cells)
}

// Paste writes clipboard text at the cursor. Text without a tab or newline
// is not handled and the caller pastes it as plain text. Missing rows are
// created up to the row limit. The whole matrix is one undo step.
func (s *Session) Paste(text string) (bool, error) {
	matrix, ok := navigate.ParseMatrix(text)
	if !ok {
		return false, nil
	}
	targets := navigate.Targets(s.schema, s.schema.Navigable(s.content.HiddenFields), s.cursor, matrix, s.opts.MaxRows)
	if len(targets) == 0 {
		return true, nil
	}

	rows := len(s.content.Sheet.Rows)
	for _, t := range targets {
		if t.Pos.Row >= rows {
			continue
		}
		if err := s.writable(s.content.Sheet.Rows[t.Pos.Row]); err != nil {
			return true, err
		}
	}

	s.snapshot()
	for _, t := range targets {
		for t.Pos.Row >= len(s.content.Sheet.Rows) {
			s.content.Sheet.InsertRow(len(s.content.Sheet.Rows), s.newRow())
		}
		r := &s.content.Sheet.Rows[t.Pos.Row]
		if s.checkField(t.Field, *r) != nil {
			continue
		}
		s.write(r, t.Field, t.Value)
	}
	return true, nil
}
