package navigate

import (
	"testing"

	"gridflow/internal/grid"
	"gridflow/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPress_EnterMovesAcrossThenDown(t *testing.T) {
	l := Layout{Navigable: []int{0, 2, 3}, Rows: 2, CanGrow: true}

	m, ok := l.Press(KeyEnter, grid.Pos{Row: 0, Col: 0})
	require.True(t, ok)
	assert.Equal(t, grid.Pos{Row: 0, Col: 2}, m.To)

	m, ok = l.Press(KeyEnter, grid.Pos{Row: 0, Col: 3})
	require.True(t, ok)
	assert.Equal(t, grid.Pos{Row: 1, Col: 0}, m.To)
	assert.False(t, m.AppendRow)
}

func TestPress_EnterOnLastCellGrowsDraftOnly(t *testing.T) {
	at := grid.Pos{Row: 1, Col: 3}

	m, ok := Layout{Navigable: []int{0, 3}, Rows: 2, CanGrow: true}.Press(KeyEnter, at)
	require.True(t, ok)
	assert.True(t, m.AppendRow)
	assert.Equal(t, grid.Pos{Row: 2, Col: 0}, m.To)

	_, ok = Layout{Navigable: []int{0, 3}, Rows: 2}.Press(KeyEnter, at)
	assert.False(t, ok, "locked documents never grow")

	_, ok = Layout{Navigable: []int{0, 3}, Rows: 2, CanGrow: true}.Press(KeyTab, at)
	assert.False(t, ok)
}

func TestPress_ArrowsDoNotWrap(t *testing.T) {
	l := Layout{Navigable: []int{0, 1, 2}, Rows: 3}

	_, ok := l.Press(KeyLeft, grid.Pos{Row: 1, Col: 0})
	assert.False(t, ok)
	_, ok = l.Press(KeyRight, grid.Pos{Row: 1, Col: 2})
	assert.False(t, ok)
	_, ok = l.Press(KeyUp, grid.Pos{Row: 0, Col: 1})
	assert.False(t, ok)
	_, ok = l.Press(KeyDown, grid.Pos{Row: 2, Col: 1})
	assert.False(t, ok)

	m, ok := l.Press(KeyDown, grid.Pos{Row: 0, Col: 1})
	require.True(t, ok)
	assert.Equal(t, grid.Pos{Row: 1, Col: 1}, m.To)

	m, ok = l.Press(KeyShiftTab, grid.Pos{Row: 1, Col: 0})
	require.True(t, ok)
	assert.Equal(t, grid.Pos{Row: 0, Col: 2}, m.To)
}

func TestParseMatrix(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][]string
		ok   bool
	}{
		{"plain text", "hello", nil, false},
		{"tabs", "a\tb\tc", [][]string{{"a", "b", "c"}}, true},
		{"rows with trailing newline", "a\tb\r\nc\td\r\n", [][]string{{"a", "b"}, {"c", "d"}}, true},
		{"quoted multi-line cell", "\"line1\nline2\"\tx\ny\tz", [][]string{{"line1\nline2", "x"}, {"y", "z"}}, true},
		{"doubled quotes", "\"say \"\"hi\"\"\"\tb", [][]string{{`say "hi"`, "b"}}, true},
		{"unbalanced leading quote is literal", "\"5 inch\tb", [][]string{{`"5 inch`, "b"}}, true},
		{"single column blanks kept", "a\n\nb", [][]string{{"a"}, {""}, {"b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMatrix(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargets_MapsThroughColumnTable(t *testing.T) {
	s, err := schema.Lookup(schema.Invoice)
	require.NoError(t, err)
	matrix, ok := ParseMatrix("pen\tP-1\t3\nink\tI-2\t5")
	require.True(t, ok)

	got := Targets(s, s.Navigable(nil), grid.Pos{}, matrix, 0)

	require.Len(t, got, 6)
	assert.Equal(t, Target{Pos: grid.Pos{Row: 0, Col: 0}, Field: schema.FieldItemName, Value: "pen"}, got[0])
	assert.Equal(t, Target{Pos: grid.Pos{Row: 1, Col: 2}, Field: schema.FieldQty, Value: "5"}, got[5])
}

func TestTargets_TruncatesPastLastColumn(t *testing.T) {
	s, _ := schema.Lookup(schema.Invoice)
	nav := s.Navigable(nil)
	start := grid.Pos{Row: 0, Col: nav[len(nav)-2]}

	got := Targets(s, nav, start, [][]string{{"a", "b", "c", "d"}}, 0)

	require.Len(t, got, 2)
	assert.Equal(t, schema.FieldRemarks, got[1].Field)
}

func TestTargets_StopsAtMaxRows(t *testing.T) {
	s, _ := schema.Lookup(schema.Invoice)

	got := Targets(s, s.Navigable(nil), grid.Pos{Row: 1}, [][]string{{"a"}, {"b"}, {"c"}}, 2)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Pos.Row)
}
