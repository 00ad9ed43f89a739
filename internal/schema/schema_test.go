package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_UnknownType(t *testing.T) {
	_, err := Lookup(DocType("memo"))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNavigable_HidesOptionalColumnsOnly(t *testing.T) {
	s, err := Lookup(PurchaseOrder)
	require.NoError(t, err)

	all := s.Navigable(nil)
	assert.Len(t, all, len(s.Columns))

	withoutVendor := s.Navigable([]Field{FieldVendor, FieldItemName})
	assert.Len(t, withoutVendor, len(s.Columns)-1)
	assert.Equal(t, 0, withoutVendor[0], "required columns cannot be hidden")
	assert.NotContains(t, withoutVendor, s.IndexOf(FieldVendor))
}

func TestFieldAt(t *testing.T) {
	s, _ := Lookup(ShipmentOrder)

	f, ok := s.FieldAt(0)
	assert.True(t, ok)
	assert.Equal(t, FieldDept, f)

	_, ok = s.FieldAt(len(s.Columns))
	assert.False(t, ok)
	assert.Equal(t, KindText, s.KindAt(-1))
	assert.False(t, s.DerivesAmount)
}
