package editor

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gridflow/internal/diff"
	"gridflow/internal/form"
	"gridflow/internal/grid"
	"gridflow/internal/history"
	"gridflow/internal/navigate"
	"gridflow/internal/pricing"
	"gridflow/internal/schema"

	"github.com/rs/zerolog"
)

// Mode is the editing context a session was opened in.
type Mode int

const (
	// ModeDraft edits a new or temporarily saved document.
	ModeDraft Mode = iota
	// ModeResubmit edits a rejected document; changes against it are tracked.
	ModeResubmit
	// ModeAmend edits an archived document. Only late rows are writable.
	ModeAmend
)

func (m Mode) String() string {
	switch m {
	case ModeResubmit:
		return "resubmit"
	case ModeAmend:
		return "amend"
	}
	return "draft"
}

var (
	ErrReadOnly      = errors.New("row is read-only")
	ErrUnknownField  = errors.New("field is not part of this document type")
	ErrDerivedField  = errors.New("amount is derived from qty and unit price")
	ErrRowLimit      = errors.New("row limit reached")
	ErrNotHideable   = errors.New("column cannot be hidden")
	ErrIndexOutRange = errors.New("index out of range")
)

const DefaultMaxRows = 200

type Options struct {
	Mode         Mode
	ActorID      uint64
	UndoCapacity int
	MaxRows      int
	// VATPercent is the fixed rate used unless the type takes a per-document rate.
	VATPercent int
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Session is one user's editing pass over a document form. Every mutating
// method is one undo step: it snapshots the state before it changes anything
// and leaves no snapshot behind when it fails validation.
type Session struct {
	schema    schema.Schema
	content   form.Content
	history   *history.Stack
	diff      *diff.Highlighter
	opts      Options
	cursor    grid.Pos
	selection grid.Rect
}

func New(docType schema.DocType, content form.Content, opts Options) (*Session, error) {
	s, err := schema.Lookup(docType)
	if err != nil {
		return nil, err
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.VATPercent < 0 {
		opts.VATPercent = pricing.FixedVATPercent
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	sess := &Session{
		schema:  s,
		content: content.Clone(),
		history: history.New(opts.UndoCapacity, opts.Logger),
		diff:    diff.Disabled(),
		opts:    opts,
	}
	if opts.Mode == ModeResubmit {
		sess.diff = diff.New(content)
	}
	return sess, nil
}

func (s *Session) Mode() Mode {
	return s.opts.Mode
}

func (s *Session) Schema() schema.Schema {
	return s.schema
}

// Content returns a copy of the current form.
func (s *Session) Content() form.Content {
	return s.content.Clone()
}

func (s *Session) Cursor() grid.Pos {
	return s.cursor
}

func (s *Session) Selection() grid.Rect {
	return s.selection
}

func (s *Session) UndoDepth() int {
	return s.history.Len()
}

// Focus moves the cursor without recording history.
func (s *Session) Focus(p grid.Pos) {
	s.cursor = p
	s.selection = grid.NewRect(p, p)
}

// Select sets the selection rectangle from two corner cells in any order.
func (s *Session) Select(start, end grid.Pos) grid.Rect {
	s.selection = grid.NewRect(start, end)
	s.cursor = start
	return s.selection
}

func (s *Session) snapshot() {
	s.history.Take(s.content)
}

// Undo restores the state before the last action. It reports false when
// there is nothing to restore.
func (s *Session) Undo() bool {
	c, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.content = c
	return true
}

// Commit ends the session and returns the final form. History does not
// outlive a session.
func (s *Session) Commit() form.Content {
	s.history.Clear()
	return s.content.Clone()
}

// Cancel ends the session without committing.
func (s *Session) Cancel() {
	s.history.Clear()
}

// Rebase makes the current form the new diff baseline, as after a resubmission.
func (s *Session) Rebase() {
	if s.opts.Mode != ModeResubmit {
		return
	}
	s.diff.Rebase(s.content)
}

func (s *Session) Totals() pricing.Totals {
	rate := pricing.RatePercent(s.schema, s.content.VATPercent, s.opts.VATPercent)
	return pricing.Compute(s.content.Sheet.Rows, rate)
}

func (s *Session) writable(r grid.Row) error {
	if s.opts.Mode == ModeAmend && !r.IsLate() {
		return fmt.Errorf("%w: %s", ErrReadOnly, r.ID)
	}
	return nil
}

func (s *Session) checkField(f schema.Field, r grid.Row) error {
	if !s.schema.Has(f) {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	if f == schema.FieldAmount && s.schema.DerivesAmount && !pricing.IsFreeTextAmount(r) {
		return ErrDerivedField
	}
	return nil
}

// write applies one field value without snapshotting and keeps derived
// amount, diff flags and the modification log in step.
func (s *Session) write(r *grid.Row, f schema.Field, v string) {
	if r.Get(f) == v {
		return
	}
	r.Set(f, v)
	s.diff.Track(r, f)
	if s.schema.DerivesAmount && (f == schema.FieldQty || f == schema.FieldUnitPrice) {
		if pricing.DeriveAmount(r) {
			s.diff.Track(r, schema.FieldAmount)
		}
	}
	if s.opts.Mode != ModeDraft {
		r.Record(s.opts.ActorID, grid.ModEdit, s.opts.Now())
	}
}

// SetField writes one cell and returns the updated row.
func (s *Session) SetField(rowID string, f schema.Field, v string) (grid.Row, error) {
	r, err := s.content.Sheet.Row(rowID)
	if err != nil {
		return grid.Row{}, err
	}
	if err := s.writable(*r); err != nil {
		return grid.Row{}, err
	}
	if err := s.checkField(f, *r); err != nil {
		return grid.Row{}, err
	}
	s.snapshot()
	s.write(r, f, v)
	return r.Clone(), nil
}

// SetHeader writes a header value and reports whether it now differs from
// the rejected original.
func (s *Session) SetHeader(f form.HeaderField, v string) (bool, error) {
	if s.opts.Mode == ModeAmend {
		return false, ErrReadOnly
	}
	probe := s.content.Header
	if !probe.Set(f, v) {
		return false, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	s.snapshot()
	s.content.Header = probe
	return s.diff.HeaderChanged(f, v), nil
}

func (s *Session) HeaderChanged(f form.HeaderField) bool {
	return s.diff.HeaderChanged(f, s.content.Header.Get(f))
}

func (s *Session) ChangedHeaders() []form.HeaderField {
	return s.diff.ChangedHeaders(s.content.Header)
}

// SetNote replaces note line i, or appends when i equals the number of lines.
func (s *Session) SetNote(i int, n form.Note) error {
	if s.opts.Mode == ModeAmend {
		return ErrReadOnly
	}
	if i < 0 || i > len(s.content.Notes) {
		return fmt.Errorf("%w: note %d", ErrIndexOutRange, i)
	}
	s.snapshot()
	if i == len(s.content.Notes) {
		s.content.Notes = append(s.content.Notes, n)
	} else {
		s.content.Notes[i] = n
	}
	return nil
}

// NoteChanged reports label and content changes of note line i.
func (s *Session) NoteChanged(i int) (label, content bool) {
	if i < 0 || i >= len(s.content.Notes) {
		return false, false
	}
	return s.diff.NoteChanged(i, s.content.Notes[i])
}

// SetVATPercent sets the per-document rate. Types with a fixed rate refuse it.
func (s *Session) SetVATPercent(p int) error {
	if s.schema.VAT != schema.VATPerDocument {
		return fmt.Errorf("%w: vat is fixed for %s", ErrReadOnly, s.schema.Type)
	}
	if p < 0 || p > 100 {
		return fmt.Errorf("%w: vat %d", ErrIndexOutRange, p)
	}
	s.snapshot()
	s.content.VATPercent = &p
	return nil
}

// HideField toggles an optional column, which drops it from navigation.
func (s *Session) HideField(f schema.Field, hidden bool) error {
	i := s.schema.IndexOf(f)
	if i < 0 || !s.schema.Columns[i].Optional {
		return fmt.Errorf("%w: %s", ErrNotHideable, f)
	}
	if slices.Contains(s.content.HiddenFields, f) == hidden {
		return nil
	}
	s.snapshot()
	if hidden {
		s.content.HiddenFields = append(s.content.HiddenFields, f)
	} else {
		s.content.HiddenFields = slices.DeleteFunc(s.content.HiddenFields, func(h schema.Field) bool { return h == f })
	}
	return nil
}

func (s *Session) layout() navigate.Layout {
	return navigate.Layout{
		Navigable: s.schema.Navigable(s.content.HiddenFields),
		Rows:      len(s.content.Sheet.Rows),
		CanGrow:   s.opts.Mode == ModeDraft && len(s.content.Sheet.Rows) < s.opts.MaxRows,
	}
}

// Press moves the cursor for a navigation key. Enter on the last cell of a
// draft appends an empty row, which counts as one undo step.
func (s *Session) Press(key navigate.Key) (grid.Pos, bool) {
	mv, ok := s.layout().Press(key, s.cursor)
	if !ok {
		return s.cursor, false
	}
	if mv.AppendRow {
		s.snapshot()
		s.content.Sheet.InsertRow(len(s.content.Sheet.Rows), grid.NewRow())
	}
	s.Focus(mv.To)
	return mv.To, true
}

// Row returns a copy of the row with the given id.
func (s *Session) Row(id string) (grid.Row, error) {
	r, err := s.content.Sheet.Row(id)
	if err != nil {
		return grid.Row{}, err
	}
	return r.Clone(), nil
}

// SetFileRef links an attachment reference to a row.
func (s *Session) SetFileRef(rowID, ref string) error {
	r, err := s.content.Sheet.Row(rowID)
	if err != nil {
		return err
	}
	if err := s.writable(*r); err != nil {
		return err
	}
	if r.FileRef == ref {
		return nil
	}
	s.snapshot()
	r.FileRef = ref
	if s.opts.Mode != ModeDraft {
		r.Record(s.opts.ActorID, grid.ModEdit, s.opts.Now())
	}
	return nil
}
