package grid

import (
	"maps"
	"slices"
	"strings"
	"time"

	"gridflow/internal/schema"

	"github.com/google/uuid"
)

// LatePrefix marks rows inserted after a document was archived.
const LatePrefix = "late-"

type ModKind string

const (
	ModEdit   ModKind = "EDIT"
	ModDelete ModKind = "DELETE"
)

// Modification is one entry of a row's change log.
type Modification struct {
	UserID    uint64    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Type      ModKind   `json:"type"`
}

// Row is one line item. Its ID is stable across edits.
type Row struct {
	ID            string                  `json:"id"`
	Values        map[schema.Field]string `json:"values"`
	FileRef       string                  `json:"fileRef,omitempty"`
	Deleted       bool                    `json:"deleted,omitempty"`
	Log           []Modification          `json:"log,omitempty"`
	ChangedFields []schema.Field          `json:"changedFields,omitempty"`
}

func NewRow() Row {
	return Row{ID: uuid.NewString(), Values: map[schema.Field]string{}}
}

// NewLateRow creates a row that stays editable on an archived document.
func NewLateRow() Row {
	return Row{ID: LatePrefix + uuid.NewString(), Values: map[schema.Field]string{}}
}

func (r Row) IsLate() bool {
	return strings.HasPrefix(r.ID, LatePrefix)
}

func (r Row) Get(f schema.Field) string {
	return r.Values[f]
}

// Set writes a value, allocating the map on first use.
func (r *Row) Set(f schema.Field, v string) {
	if r.Values == nil {
		r.Values = map[schema.Field]string{}
	}
	r.Values[f] = v
}

// IsEmpty reports whether every field is blank.
func (r Row) IsEmpty() bool {
	for _, v := range r.Values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (r Row) IsChanged(f schema.Field) bool {
	return slices.Contains(r.ChangedFields, f)
}

// MarkChanged adds or removes f from the changed set, keeping it sorted.
func (r *Row) MarkChanged(f schema.Field, changed bool) {
	i, found := slices.BinarySearch(r.ChangedFields, f)
	switch {
	case changed && !found:
		r.ChangedFields = slices.Insert(r.ChangedFields, i, f)
	case !changed && found:
		r.ChangedFields = slices.Delete(r.ChangedFields, i, i+1)
		if len(r.ChangedFields) == 0 {
			r.ChangedFields = nil
		}
	}
}

func (r *Row) Record(userID uint64, kind ModKind, at time.Time) {
	r.Log = append(r.Log, Modification{UserID: userID, Timestamp: at, Type: kind})
}

func (r Row) Clone() Row {
	c := r
	c.Values = maps.Clone(r.Values)
	if c.Values == nil {
		c.Values = map[schema.Field]string{}
	}
	c.Log = slices.Clone(r.Log)
	c.ChangedFields = slices.Clone(r.ChangedFields)
	return c
}
