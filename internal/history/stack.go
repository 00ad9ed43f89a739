package history

import (
	"bytes"
	"encoding/json"

	"gridflow/internal/form"

	"github.com/rs/zerolog"
)

const (
	MinCapacity = 50
	MaxCapacity = 100
)

// Stack is a bounded undo history of serialized form states.
// The oldest entry is dropped once capacity is reached.
type Stack struct {
	entries  [][]byte
	capacity int
	log      zerolog.Logger
}

func New(capacity int, log zerolog.Logger) *Stack {
	return &Stack{capacity: min(max(capacity, MinCapacity), MaxCapacity), log: log}
}

// Take records the state as it is before a mutation. A state equal to the
// current top is not pushed again. Returns whether an entry was added.
func (s *Stack) Take(c form.Content) bool {
	b, err := json.Marshal(c)
	if err != nil {
		s.log.Warn().Err(err).Msg("history: failed to serialize snapshot")
		return false
	}
	if n := len(s.entries); n > 0 && bytes.Equal(s.entries[n-1], b) {
		return false
	}
	if len(s.entries) == s.capacity {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, b)
	return true
}

// Undo pops the most recent state. A corrupt entry is discarded and reported
// as nothing to undo so the live state is never touched.
func (s *Stack) Undo() (form.Content, bool) {
	n := len(s.entries)
	if n == 0 {
		return form.Content{}, false
	}
	top := s.entries[n-1]
	s.entries = s.entries[:n-1]

	var c form.Content
	if err := json.Unmarshal(top, &c); err != nil {
		s.log.Warn().Err(err).Int("depth", n).Msg("history: dropping unreadable snapshot")
		return form.Content{}, false
	}
	return c, true
}

func (s *Stack) Len() int {
	return len(s.entries)
}

func (s *Stack) Capacity() int {
	return s.capacity
}

// Clear forgets all history, e.g. once a draft is submitted or cancelled.
func (s *Stack) Clear() {
	s.entries = nil
}
