package approval

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gridflow/internal/domain"
)

var (
	ErrNotAuthorized     = errors.New("actor is not authorized for slot")
	ErrOutOfOrder        = errors.New("preceding slot is not stamped")
	ErrAlreadyStamped    = errors.New("slot is already stamped")
	ErrUnknownSlot       = errors.New("slot is not part of the approval chain")
	ErrInvalidTransition = errors.New("operation is not allowed in the current status")
	ErrEmptyReason       = errors.New("reject reason is required")
)

// Authorizer answers whether an actor may stamp a slot. The writer slot is
// decided by authorship and never reaches it.
type Authorizer interface {
	IsAuthorizedForSlot(actor domain.Actor, slot domain.Slot) bool
}

type Machine struct {
	policy Policy
	auth   Authorizer
	now    func() time.Time
}

func NewMachine(policy Policy, auth Authorizer) *Machine {
	return &Machine{policy: policy, auth: auth, now: func() time.Time { return time.Now().UTC() }}
}

func (m *Machine) Policy() Policy {
	return m.policy
}

// Slots returns the required chain of doc.
func (m *Machine) Slots(doc *domain.Document) []domain.Slot {
	return m.policy.Slots(doc)
}

// NextSlot returns the first unstamped slot of the chain.
func (m *Machine) NextSlot(doc *domain.Document) (domain.Slot, bool) {
	stamps := doc.Stamps.Data()
	for _, s := range m.policy.Slots(doc) {
		if !stamps.Has(s) {
			return s, true
		}
	}
	return "", false
}

// Submit moves a draft or temporary document into the chain with the
// author's writer stamp.
func (m *Machine) Submit(doc *domain.Document, author domain.Actor) error {
	switch doc.Status {
	case "", domain.StatusDraft, domain.StatusTemporary:
	default:
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, doc.Status)
	}
	doc.AuthorID = author.ID
	doc.SetStamps(domain.Stamps{domain.SlotWriter: {UserID: author.ID, Timestamp: m.now()}})
	doc.Status = domain.StatusPending
	m.completeIfStamped(doc)
	return nil
}

// Stamp writes actor's stamp into slot. When every required slot is stamped
// the document becomes APPROVED in the same call; the result reports that.
func (m *Machine) Stamp(doc *domain.Document, slot domain.Slot, actor domain.Actor) (bool, error) {
	if doc.Status != domain.StatusPending {
		return false, fmt.Errorf("%w: stamp on %s document", ErrInvalidTransition, doc.Status)
	}
	slots := m.policy.Slots(doc)
	idx := slices.Index(slots, slot)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrUnknownSlot, slot)
	}
	stamps := doc.StampMap()
	if stamps.Has(slot) {
		return false, fmt.Errorf("%w: %s", ErrAlreadyStamped, slot)
	}
	if !m.authorized(doc, slot, actor) {
		return false, fmt.Errorf("%w: %s", ErrNotAuthorized, slot)
	}
	for _, prev := range slots[:idx] {
		if !stamps.Has(prev) {
			return false, fmt.Errorf("%w: %s", ErrOutOfOrder, prev)
		}
	}

	stamps[slot] = domain.Stamp{UserID: actor.ID, Timestamp: m.now()}
	doc.SetStamps(stamps)
	return m.completeIfStamped(doc), nil
}

func (m *Machine) completeIfStamped(doc *domain.Document) bool {
	stamps := doc.Stamps.Data()
	for _, s := range m.policy.Slots(doc) {
		if !stamps.Has(s) {
			return false
		}
	}
	doc.Status = domain.StatusApproved
	return true
}

// Reject sends a pending document back to its author and bumps the title counter.
// Any actor holding a non-writer slot of the chain may reject.
func (m *Machine) Reject(doc *domain.Document, reason string, actor domain.Actor) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrEmptyReason
	}
	if doc.Status != domain.StatusPending {
		return fmt.Errorf("%w: reject %s document", ErrInvalidTransition, doc.Status)
	}
	if !m.canReject(doc, actor) {
		return fmt.Errorf("%w: reject", ErrNotAuthorized)
	}

	c := doc.Form()
	c.Header.Title = BumpTitle(c.Header.Title)
	doc.SetForm(c)
	doc.AppendRejection(domain.Rejection{Reason: reason, RejectedBy: actor.ID, Timestamp: m.now()})
	doc.Status = domain.StatusRejected
	return nil
}

// Resubmit returns a rejected or temporarily saved document to PENDING with
// only the writer stamp kept. It reports whether the document came from a
// real rejection, which is when changed values are tracked.
func (m *Machine) Resubmit(doc *domain.Document, author domain.Actor) (bool, error) {
	switch doc.Status {
	case domain.StatusTemporary:
		return false, m.Submit(doc, author)
	case domain.StatusRejected:
	default:
		return false, fmt.Errorf("%w: resubmit %s document", ErrInvalidTransition, doc.Status)
	}
	if author.ID != doc.AuthorID {
		return false, fmt.Errorf("%w: %s", ErrNotAuthorized, domain.SlotWriter)
	}

	kept := domain.Stamps{}
	if w, ok := doc.Stamps.Data()[domain.SlotWriter]; ok {
		kept[domain.SlotWriter] = w
	} else {
		kept[domain.SlotWriter] = domain.Stamp{UserID: author.ID, Timestamp: m.now()}
	}
	doc.SetStamps(kept)
	doc.RejectReason = ""
	doc.IsResubmitted = true
	doc.Status = domain.StatusPending
	return true, nil
}

// Archive writes the final stamp on an approved document and files it under
// its destination bucket.
func (m *Machine) Archive(doc *domain.Document, actor domain.Actor) error {
	if doc.Status != domain.StatusApproved {
		return fmt.Errorf("%w: archive %s document", ErrInvalidTransition, doc.Status)
	}
	if !m.auth.IsAuthorizedForSlot(actor, domain.SlotFinal) {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, domain.SlotFinal)
	}
	stamps := doc.StampMap()
	stamps[domain.SlotFinal] = domain.Stamp{UserID: actor.ID, Timestamp: m.now()}
	doc.SetStamps(stamps)
	doc.ArchiveBucket = m.policy.Bucket(doc)
	doc.Status = domain.StatusArchived
	return nil
}

func (m *Machine) authorized(doc *domain.Document, slot domain.Slot, actor domain.Actor) bool {
	if slot == domain.SlotWriter {
		return actor.ID == doc.AuthorID
	}
	return m.auth.IsAuthorizedForSlot(actor, slot)
}

func (m *Machine) canReject(doc *domain.Document, actor domain.Actor) bool {
	if actor.Privileged {
		return true
	}
	for _, s := range m.policy.Slots(doc) {
		if s != domain.SlotWriter && m.auth.IsAuthorizedForSlot(actor, s) {
			return true
		}
	}
	return false
}
