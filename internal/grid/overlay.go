package grid

import "maps"

// Span is the extent of a merged block, stored at its anchor cell.
type Span struct {
	RowSpan int `json:"rowSpan"`
	ColSpan int `json:"colSpan"`
}

// Rect returns the block a span covers when anchored at p.
func (s Span) Rect(anchor Pos) Rect {
	return Rect{
		Start: anchor,
		End:   Pos{Row: anchor.Row + s.RowSpan - 1, Col: anchor.Col + s.ColSpan - 1},
	}
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type Weight string

const (
	WeightNormal Weight = "normal"
	WeightBold   Weight = "bold"
)

type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDotted LineStyle = "dotted"
	LineNone   LineStyle = "none"
)

// Edges holds the border style of each side of a cell. Empty means unset.
type Edges struct {
	Top    LineStyle `json:"top,omitempty"`
	Bottom LineStyle `json:"bottom,omitempty"`
	Left   LineStyle `json:"left,omitempty"`
	Right  LineStyle `json:"right,omitempty"`
}

func (e Edges) IsZero() bool {
	return e == Edges{}
}

// BorderMode selects which edges of a selection receive a border.
type BorderMode string

const (
	BorderOuter BorderMode = "outer"
	BorderInner BorderMode = "inner"
	BorderAll   BorderMode = "all"
)

// Overlays are the per-cell formatting maps of a sheet.
type Overlays struct {
	Merges  map[Pos]Span   `json:"merges,omitempty"`
	Aligns  map[Pos]Align  `json:"aligns,omitempty"`
	Weights map[Pos]Weight `json:"weights,omitempty"`
	Borders map[Pos]Edges  `json:"borders,omitempty"`
}

func NewOverlays() Overlays {
	return Overlays{
		Merges:  map[Pos]Span{},
		Aligns:  map[Pos]Align{},
		Weights: map[Pos]Weight{},
		Borders: map[Pos]Edges{},
	}
}

// Clone returns a deep copy; nil maps come back empty.
func (o Overlays) Clone() Overlays {
	c := NewOverlays()
	maps.Copy(c.Merges, o.Merges)
	maps.Copy(c.Aligns, o.Aligns)
	maps.Copy(c.Weights, o.Weights)
	maps.Copy(c.Borders, o.Borders)
	return c
}

func (o *Overlays) ensure() {
	if o.Merges == nil {
		o.Merges = map[Pos]Span{}
	}
	if o.Aligns == nil {
		o.Aligns = map[Pos]Align{}
	}
	if o.Weights == nil {
		o.Weights = map[Pos]Weight{}
	}
	if o.Borders == nil {
		o.Borders = map[Pos]Edges{}
	}
}
