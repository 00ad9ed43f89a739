package domain

import (
	"time"

	"gridflow/internal/form"
	"gridflow/internal/schema"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusTemporary Status = "TEMPORARY"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusTemporary, StatusPending, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// Slot is a named position in an approval chain.
type Slot string

const (
	SlotWriter   Slot = "writer"
	SlotManager  Slot = "manager"
	SlotHead     Slot = "head"
	SlotDirector Slot = "director"
	SlotDesign   Slot = "design"
	SlotCEO      Slot = "ceo"
	SlotFinal    Slot = "final"
)

// Stamp is written once per slot per submission cycle.
type Stamp struct {
	UserID    uint64    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type Stamps map[Slot]Stamp

func (s Stamps) Has(slot Slot) bool {
	_, ok := s[slot]
	return ok
}

type Rejection struct {
	Reason     string    `json:"reason"`
	RejectedBy uint64    `json:"rejectedBy"`
	Timestamp  time.Time `json:"timestamp"`
}

type Document struct {
	ID        uint64         `gorm:"primaryKey" json:"id"`
	Type      schema.DocType `gorm:"size:32;index;not null" json:"type"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Date      string         `gorm:"size:32" json:"date"`
	Recipient string         `gorm:"size:128" json:"recipient"`
	// Location is the shipment destination; it selects the approval chain.
	Location string `gorm:"size:128" json:"location,omitempty"`

	Content datatypes.JSONType[form.Content] `json:"content"`
	Stamps  datatypes.JSONType[Stamps]       `json:"stamps"`
	Status  Status                           `gorm:"size:16;index;not null" json:"status"`

	AuthorID       uint64                                 `gorm:"index;not null" json:"authorId"`
	RejectReason   string                                 `gorm:"type:text" json:"rejectReason,omitempty"`
	RejectLog      datatypes.JSONType[[]Rejection]        `json:"rejectLog"`
	IsResubmitted  bool                                   `json:"isResubmitted,omitempty"`
	ChangedHeaders datatypes.JSONType[[]form.HeaderField] `json:"changedHeaders"`
	ChangedNotes   datatypes.JSONType[[]form.NoteChange]  `json:"changedNotes"`

	// ArchiveBucket is the destination an archived document is filed under.
	ArchiveBucket string `gorm:"size:128;index" json:"archiveBucket,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Form returns a private copy of the editable content.
func (d *Document) Form() form.Content {
	return d.Content.Data().Clone()
}

// SetForm stores c and mirrors its header into the listing columns.
func (d *Document) SetForm(c form.Content) {
	d.Content = datatypes.NewJSONType(c.Clone())
	d.Title = c.Header.Title
	d.Recipient = c.Header.Recipient
	d.Date = c.Header.Date
}

// StampMap returns a copy of the stamps that is safe to modify.
func (d *Document) StampMap() Stamps {
	out := Stamps{}
	for k, v := range d.Stamps.Data() {
		out[k] = v
	}
	return out
}

func (d *Document) SetStamps(s Stamps) {
	d.Stamps = datatypes.NewJSONType(s)
}

func (d *Document) Rejections() []Rejection {
	return d.RejectLog.Data()
}

func (d *Document) AppendRejection(r Rejection) {
	d.RejectLog = datatypes.NewJSONType(append(d.Rejections(), r))
	d.RejectReason = r.Reason
}

func (d *Document) SetChangedHeaders(f []form.HeaderField) {
	d.ChangedHeaders = datatypes.NewJSONType(f)
}

func (d *Document) SetChangedNotes(n []form.NoteChange) {
	d.ChangedNotes = datatypes.NewJSONType(n)
}
