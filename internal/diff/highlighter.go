package diff

import (
	"strings"

	"gridflow/internal/form"
	"gridflow/internal/grid"
	"gridflow/internal/schema"
)

// Highlighter flags values that differ from the content a document had when
// it was rejected. An inactive highlighter never flags anything, which is the
// case for fresh drafts and temporary saves.
type Highlighter struct {
	active bool
	rows   map[string]grid.Row
	header form.Header
	notes  []form.Note
}

func Disabled() *Highlighter {
	return &Highlighter{}
}

// New captures baseline as the rejected original.
func New(baseline form.Content) *Highlighter {
	h := &Highlighter{}
	h.Rebase(baseline)
	return h
}

func (h *Highlighter) Active() bool {
	return h.active
}

// Rebase replaces the original with c and activates the highlighter.
func (h *Highlighter) Rebase(c form.Content) {
	c = c.Clone()
	h.active = true
	h.header = c.Header
	h.notes = c.Notes
	h.rows = make(map[string]grid.Row, len(c.Sheet.Rows))
	for _, r := range c.Sheet.Rows {
		h.rows[r.ID] = r
	}
}

func same(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// Track compares one field of r with the original row of the same id and
// updates r.ChangedFields. A row unknown to the original is never flagged.
func (h *Highlighter) Track(r *grid.Row, f schema.Field) bool {
	if !h.active {
		return false
	}
	orig, ok := h.rows[r.ID]
	changed := ok && !same(r.Get(f), orig.Get(f))
	r.MarkChanged(f, changed)
	return changed
}

// TrackRow runs Track over every field present on either side.
func (h *Highlighter) TrackRow(r *grid.Row) {
	if !h.active {
		return
	}
	for f := range r.Values {
		h.Track(r, f)
	}
	if orig, ok := h.rows[r.ID]; ok {
		for f := range orig.Values {
			if _, seen := r.Values[f]; !seen {
				h.Track(r, f)
			}
		}
	}
}

// Apply recomputes the changed set of every row in c.
func (h *Highlighter) Apply(c *form.Content) {
	for i := range c.Sheet.Rows {
		h.TrackRow(&c.Sheet.Rows[i])
	}
}

func (h *Highlighter) HeaderChanged(f form.HeaderField, v string) bool {
	return h.active && !same(v, h.header.Get(f))
}

// ChangedHeaders lists the header fields of hdr that differ from the original.
func (h *Highlighter) ChangedHeaders(hdr form.Header) []form.HeaderField {
	var out []form.HeaderField
	for _, f := range []form.HeaderField{form.HeaderTitle, form.HeaderRecipient, form.HeaderReference, form.HeaderSender, form.HeaderDate} {
		if h.HeaderChanged(f, hdr.Get(f)) {
			out = append(out, f)
		}
	}
	return out
}

// NoteChanged compares note line i positionally. Lines past the end of the
// original compare against blanks.
func (h *Highlighter) NoteChanged(i int, n form.Note) (label, content bool) {
	if !h.active {
		return false, false
	}
	var orig form.Note
	if i >= 0 && i < len(h.notes) {
		orig = h.notes[i]
	}
	return !same(n.Label, orig.Label), !same(n.Content, orig.Content)
}
