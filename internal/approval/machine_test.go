package approval

import (
	"testing"
	"time"

	"gridflow/internal/domain"
	"gridflow/internal/form"
	"gridflow/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// claims authorizes an actor when they hold the slot.
type claims struct{}

func (claims) IsAuthorizedForSlot(actor domain.Actor, slot domain.Slot) bool {
	return actor.Holds(slot)
}

var (
	author   = domain.Actor{ID: 1, Name: "Writer"}
	head     = domain.Actor{ID: 2, Name: "Head", Slots: []domain.Slot{domain.SlotHead}}
	director = domain.Actor{ID: 3, Name: "Director", Slots: []domain.Slot{domain.SlotDirector}}
	archiver = domain.Actor{ID: 4, Name: "Clerk", Slots: []domain.Slot{domain.SlotFinal}}
	outsider = domain.Actor{ID: 5, Name: "Outsider"}
)

func newMachine() *Machine {
	m := NewMachine(Policy{CEORecipient: "Chief", DomesticLocations: []string{"Seoul"}}, claims{})
	m.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return m
}

func newInvoice(t *testing.T, m *Machine) *domain.Document {
	t.Helper()
	c := form.New()
	c.Header.Title = "Widget"
	c.Header.Recipient = "Acme"
	doc := &domain.Document{Type: schema.Invoice}
	doc.SetForm(c)
	require.NoError(t, m.Submit(doc, author))
	return doc
}

func TestPolicy_Slots(t *testing.T) {
	p := Policy{CEORecipient: "Chief", DomesticLocations: []string{"Seoul"}}

	tests := []struct {
		name string
		doc  domain.Document
		want []domain.Slot
	}{
		{"domestic shipment", domain.Document{Type: schema.ShipmentOrder, Location: " seoul "},
			[]domain.Slot{domain.SlotWriter, domain.SlotManager, domain.SlotHead, domain.SlotDirector}},
		{"foreign shipment", domain.Document{Type: schema.ShipmentOrder, Location: "Busan"},
			[]domain.Slot{domain.SlotWriter, domain.SlotHead}},
		{"purchase order", domain.Document{Type: schema.PurchaseOrder, Recipient: "Acme"},
			[]domain.Slot{domain.SlotWriter, domain.SlotDesign, domain.SlotDirector}},
		{"purchase order to ceo", domain.Document{Type: schema.PurchaseOrder, Recipient: "chief"},
			[]domain.Slot{domain.SlotWriter, domain.SlotDesign, domain.SlotDirector, domain.SlotCEO}},
		{"invoice", domain.Document{Type: schema.Invoice},
			[]domain.Slot{domain.SlotWriter, domain.SlotHead, domain.SlotDirector}},
		{"payment request", domain.Document{Type: schema.PaymentRequest},
			[]domain.Slot{domain.SlotWriter, domain.SlotHead, domain.SlotCEO}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Slots(&tt.doc))
		})
	}
}

func TestPolicy_Bucket(t *testing.T) {
	p := Policy{}
	assert.Equal(t, "Busan", p.Bucket(&domain.Document{Type: schema.ShipmentOrder, Location: "Busan", Recipient: "Acme"}))
	assert.Equal(t, "Acme", p.Bucket(&domain.Document{Type: schema.Invoice, Recipient: "Acme"}))
	assert.Equal(t, "unassigned", p.Bucket(&domain.Document{Type: schema.Invoice, Recipient: "  "}))
}

func TestBumpTitle(t *testing.T) {
	assert.Equal(t, "Widget (1)", BumpTitle("Widget"))
	assert.Equal(t, "Widget (2)", BumpTitle("Widget (1)"))
	assert.Equal(t, "Widget (10)", BumpTitle("Widget(9)"))
	assert.Equal(t, "(3) (1)", BumpTitle("(3)"))
}

func TestSubmit_WritesWriterStamp(t *testing.T) {
	m := newMachine()
	doc := newInvoice(t, m)

	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.Equal(t, author.ID, doc.AuthorID)
	assert.True(t, doc.Stamps.Data().Has(domain.SlotWriter))

	next, ok := m.NextSlot(doc)
	require.True(t, ok)
	assert.Equal(t, domain.SlotHead, next)

	assert.ErrorIs(t, m.Submit(doc, author), ErrInvalidTransition)
}

func TestStamp_ApprovesInSameCall(t *testing.T) {
	m := newMachine()
	doc := newInvoice(t, m)

	approved, err := m.Stamp(doc, domain.SlotHead, head)
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Equal(t, domain.StatusPending, doc.Status)

	approved, err = m.Stamp(doc, domain.SlotDirector, director)
	require.NoError(t, err)
	assert.True(t, approved)
	assert.Equal(t, domain.StatusApproved, doc.Status)

	_, ok := m.NextSlot(doc)
	assert.False(t, ok)
}

func TestStamp_Errors(t *testing.T) {
	m := newMachine()
	doc := newInvoice(t, m)

	_, err := m.Stamp(doc, domain.SlotCEO, head)
	assert.ErrorIs(t, err, ErrUnknownSlot)

	_, err = m.Stamp(doc, domain.SlotHead, outsider)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = m.Stamp(doc, domain.SlotDirector, director)
	assert.ErrorIs(t, err, ErrOutOfOrder)

	_, err = m.Stamp(doc, domain.SlotWriter, author)
	assert.ErrorIs(t, err, ErrAlreadyStamped)

	assert.Len(t, doc.Stamps.Data(), 1)
	assert.Equal(t, domain.StatusPending, doc.Status)
}

func TestReject_CounterAndLog(t *testing.T) {
	m := newMachine()
	doc := newInvoice(t, m)

	assert.ErrorIs(t, m.Reject(doc, "   ", head), ErrEmptyReason)
	assert.ErrorIs(t, m.Reject(doc, "wrong", outsider), ErrNotAuthorized)

	require.NoError(t, m.Reject(doc, "wrong qty", head))
	assert.Equal(t, domain.StatusRejected, doc.Status)
	assert.Equal(t, "Widget (1)", doc.Title)
	assert.Equal(t, "Widget (1)", doc.Form().Header.Title)
	assert.Equal(t, "wrong qty", doc.RejectReason)

	tracked, err := m.Resubmit(doc, author)
	require.NoError(t, err)
	assert.True(t, tracked)

	require.NoError(t, m.Reject(doc, "still wrong", director))
	assert.Equal(t, "Widget (2)", doc.Title)
	require.Len(t, doc.Rejections(), 2)
	assert.Equal(t, director.ID, doc.Rejections()[1].RejectedBy)
}

func TestResubmit_ResetsNonWriterStamps(t *testing.T) {
	m := newMachine()
	doc := newInvoice(t, m)
	_, err := m.Stamp(doc, domain.SlotHead, head)
	require.NoError(t, err)
	require.NoError(t, m.Reject(doc, "no", director))

	_, err = m.Resubmit(doc, outsider)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	tracked, err := m.Resubmit(doc, author)
	require.NoError(t, err)
	assert.True(t, tracked)
	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.True(t, doc.IsResubmitted)
	assert.Empty(t, doc.RejectReason)
	assert.Len(t, doc.Rejections(), 1)

	stamps := doc.Stamps.Data()
	assert.True(t, stamps.Has(domain.SlotWriter))
	assert.False(t, stamps.Has(domain.SlotHead))
}

func TestResubmit_FromTemporaryIsUntracked(t *testing.T) {
	m := newMachine()
	doc := &domain.Document{Type: schema.Invoice, Status: domain.StatusTemporary}
	doc.SetForm(form.New())

	tracked, err := m.Resubmit(doc, author)
	require.NoError(t, err)
	assert.False(t, tracked)
	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.False(t, doc.IsResubmitted)

	_, err = m.Resubmit(doc, author)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestArchive(t *testing.T) {
	m := newMachine()
	doc := newInvoice(t, m)

	assert.ErrorIs(t, m.Archive(doc, archiver), ErrInvalidTransition)

	_, err := m.Stamp(doc, domain.SlotHead, head)
	require.NoError(t, err)
	_, err = m.Stamp(doc, domain.SlotDirector, director)
	require.NoError(t, err)

	assert.ErrorIs(t, m.Archive(doc, head), ErrNotAuthorized)
	require.NoError(t, m.Archive(doc, archiver))
	assert.Equal(t, domain.StatusArchived, doc.Status)
	assert.Equal(t, "Acme", doc.ArchiveBucket)
	assert.Equal(t, archiver.ID, doc.Stamps.Data()[domain.SlotFinal].UserID)
}
