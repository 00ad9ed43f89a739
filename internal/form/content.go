package form

import (
	"slices"

	"gridflow/internal/grid"
	"gridflow/internal/schema"
)

// HeaderField names a scalar header value.
type HeaderField string

const (
	HeaderTitle     HeaderField = "title"
	HeaderRecipient HeaderField = "recipient"
	HeaderReference HeaderField = "reference"
	HeaderSender    HeaderField = "sender"
	HeaderDate      HeaderField = "date"
)

type Header struct {
	Title     string `json:"title" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Reference string `json:"reference,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Date      string `json:"date,omitempty"`
}

func (h Header) Get(f HeaderField) string {
	switch f {
	case HeaderTitle:
		return h.Title
	case HeaderRecipient:
		return h.Recipient
	case HeaderReference:
		return h.Reference
	case HeaderSender:
		return h.Sender
	case HeaderDate:
		return h.Date
	}
	return ""
}

// Set writes a header value and reports whether the field is known.
func (h *Header) Set(f HeaderField, v string) bool {
	switch f {
	case HeaderTitle:
		h.Title = v
	case HeaderRecipient:
		h.Recipient = v
	case HeaderReference:
		h.Reference = v
	case HeaderSender:
		h.Sender = v
	case HeaderDate:
		h.Date = v
	default:
		return false
	}
	return true
}

// Note is one free-form line under the grid.
type Note struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// NoteChange marks which parts of note line Line differ from a baseline.
type NoteChange struct {
	Line    int  `json:"line"`
	Label   bool `json:"label,omitempty"`
	Content bool `json:"content,omitempty"`
}

// Content is everything a user edits on a document form.
type Content struct {
	Header       Header         `json:"header"`
	Notes        []Note         `json:"notes,omitempty"`
	Sheet        grid.Sheet     `json:"sheet"`
	HiddenFields []schema.Field `json:"hiddenFields,omitempty"`
	// VATPercent is used by types whose VAT rate is set per document.
	VATPercent *int `json:"vatPercent,omitempty"`
}

func New() Content {
	return Content{Sheet: grid.NewSheet()}
}

func (c Content) Clone() Content {
	out := c
	out.Notes = slices.Clone(c.Notes)
	out.Sheet = c.Sheet.Clone()
	out.HiddenFields = slices.Clone(c.HiddenFields)
	if c.VATPercent != nil {
		v := *c.VATPercent
		out.VATPercent = &v
	}
	return out
}
