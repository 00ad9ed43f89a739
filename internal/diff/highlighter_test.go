package diff

import (
	"testing"

	"gridflow/internal/form"
	"gridflow/internal/grid"
	"gridflow/internal/schema"

	"github.com/stretchr/testify/assert"
)

func rejected() form.Content {
	c := form.New()
	c.Header = form.Header{Title: "Widget (1)", Recipient: "HQ"}
	c.Notes = []form.Note{{Label: "Delivery", Content: "Friday"}}
	r := grid.NewRow()
	r.Set(schema.FieldQty, "3")
	c.Sheet.Rows = append(c.Sheet.Rows, r)
	return c
}

func TestTrack_FlagLifecycle(t *testing.T) {
	base := rejected()
	h := New(base)
	live := base.Clone()
	row := &live.Sheet.Rows[0]

	row.Set(schema.FieldQty, "4")
	assert.True(t, h.Track(row, schema.FieldQty))
	assert.True(t, row.IsChanged(schema.FieldQty))

	row.Set(schema.FieldQty, " 3 ")
	assert.False(t, h.Track(row, schema.FieldQty))
	assert.False(t, row.IsChanged(schema.FieldQty))
}

func TestTrack_DoesNotAliasBaseline(t *testing.T) {
	base := rejected()
	h := New(base)
	base.Sheet.Rows[0].Set(schema.FieldQty, "99")

	live := rejected()
	live.Sheet.Rows[0].ID = base.Sheet.Rows[0].ID
	assert.False(t, h.Track(&live.Sheet.Rows[0], schema.FieldQty))
}

func TestTrack_UnknownRowIsUnchanged(t *testing.T) {
	h := New(rejected())
	r := grid.NewRow()
	r.Set(schema.FieldQty, "10")

	assert.False(t, h.Track(&r, schema.FieldQty))
	assert.Empty(t, r.ChangedFields)
}

func TestDisabled_NeverFlags(t *testing.T) {
	h := Disabled()
	base := rejected()
	row := &base.Sheet.Rows[0]
	row.Set(schema.FieldQty, "100")

	assert.False(t, h.Track(row, schema.FieldQty))
	assert.False(t, h.HeaderChanged(form.HeaderTitle, "other"))
	l, c := h.NoteChanged(0, form.Note{Label: "x"})
	assert.False(t, l || c)
}

func TestTrackRow_ClearedFieldIsChanged(t *testing.T) {
	base := rejected()
	h := New(base)
	live := base.Clone()
	row := &live.Sheet.Rows[0]
	delete(row.Values, schema.FieldQty)
	row.Set(schema.FieldRemarks, "")

	h.TrackRow(row)

	assert.Equal(t, []schema.Field{schema.FieldQty}, row.ChangedFields)
}

func TestHeaderAndNotes(t *testing.T) {
	h := New(rejected())

	assert.False(t, h.HeaderChanged(form.HeaderRecipient, "HQ "))
	assert.True(t, h.HeaderChanged(form.HeaderRecipient, "Branch"))
	assert.Equal(t, []form.HeaderField{form.HeaderTitle}, h.ChangedHeaders(form.Header{Title: "Widget", Recipient: "HQ"}))

	label, content := h.NoteChanged(0, form.Note{Label: "Delivery", Content: "Monday"})
	assert.False(t, label)
	assert.True(t, content)

	label, content = h.NoteChanged(3, form.Note{Label: "New"})
	assert.True(t, label)
	assert.False(t, content)
}
