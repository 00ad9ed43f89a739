package navigate

import (
	"slices"

	"gridflow/internal/grid"
)

type Key string

const (
	KeyEnter    Key = "enter"
	KeyTab      Key = "tab"
	KeyShiftTab Key = "shift+tab"
	KeyUp       Key = "up"
	KeyDown     Key = "down"
	KeyLeft     Key = "left"
	KeyRight    Key = "right"
)

// Layout is what the cursor needs to know about the grid it moves over.
type Layout struct {
	Navigable []int // physical column indices in visiting order
	Rows      int
	CanGrow   bool // draft documents grow a row when Enter leaves the last one
}

// Move is the result of a key press.
type Move struct {
	To        grid.Pos
	AppendRow bool
}

// Press resolves a key at the given cursor. The second result is false when
// the key is not handled or the move would leave the grid.
func (l Layout) Press(key Key, at grid.Pos) (Move, bool) {
	if len(l.Navigable) == 0 || l.Rows == 0 {
		return Move{}, false
	}
	idx := l.column(at.Col)

	switch key {
	case KeyEnter:
		return l.forward(at, idx, l.CanGrow)
	case KeyTab:
		return l.forward(at, idx, false)
	case KeyShiftTab:
		if idx > 0 {
			return Move{To: grid.Pos{Row: at.Row, Col: l.Navigable[idx-1]}}, true
		}
		if at.Row > 0 {
			return Move{To: grid.Pos{Row: at.Row - 1, Col: l.Navigable[len(l.Navigable)-1]}}, true
		}
	case KeyUp:
		if at.Row > 0 {
			return Move{To: grid.Pos{Row: at.Row - 1, Col: l.Navigable[idx]}}, true
		}
	case KeyDown:
		if at.Row < l.Rows-1 {
			return Move{To: grid.Pos{Row: at.Row + 1, Col: l.Navigable[idx]}}, true
		}
	case KeyLeft:
		if idx > 0 {
			return Move{To: grid.Pos{Row: at.Row, Col: l.Navigable[idx-1]}}, true
		}
	case KeyRight:
		if idx < len(l.Navigable)-1 {
			return Move{To: grid.Pos{Row: at.Row, Col: l.Navigable[idx+1]}}, true
		}
	}
	return Move{}, false
}

func (l Layout) forward(at grid.Pos, idx int, grow bool) (Move, bool) {
	if idx < len(l.Navigable)-1 {
		return Move{To: grid.Pos{Row: at.Row, Col: l.Navigable[idx+1]}}, true
	}
	next := grid.Pos{Row: at.Row + 1, Col: l.Navigable[0]}
	if at.Row < l.Rows-1 {
		return Move{To: next}, true
	}
	if grow {
		return Move{To: next, AppendRow: true}, true
	}
	return Move{}, false
}

// column finds the navigable slot of a physical column. A hidden or unknown
// column snaps to the first navigable one.
func (l Layout) column(col int) int {
	if i := slices.Index(l.Navigable, col); i >= 0 {
		return i
	}
	return 0
}
