package approval

import (
	"slices"
	"strings"

	"gridflow/internal/domain"
	"gridflow/internal/schema"
)

const unassignedBucket = "unassigned"

// Policy decides the approval chain of a document from its type and, for
// some types, its recipient or location.
type Policy struct {
	// CEORecipient is the internal recipient whose purchase orders need a ceo stamp.
	CEORecipient string
	// DomesticLocations get the long shipment chain.
	DomesticLocations []string
}

// Slots returns the ordered required slots. The final slot is never part of it.
func (p Policy) Slots(doc *domain.Document) []domain.Slot {
	switch doc.Type {
	case schema.ShipmentOrder:
		if p.isDomestic(doc.Location) {
			return []domain.Slot{domain.SlotWriter, domain.SlotManager, domain.SlotHead, domain.SlotDirector}
		}
		return []domain.Slot{domain.SlotWriter, domain.SlotHead}
	case schema.PurchaseOrder:
		slots := []domain.Slot{domain.SlotWriter, domain.SlotDesign, domain.SlotDirector}
		if p.CEORecipient != "" && sameName(doc.Recipient, p.CEORecipient) {
			slots = append(slots, domain.SlotCEO)
		}
		return slots
	case schema.Invoice:
		return []domain.Slot{domain.SlotWriter, domain.SlotHead, domain.SlotDirector}
	case schema.PaymentRequest:
		return []domain.Slot{domain.SlotWriter, domain.SlotHead, domain.SlotCEO}
	}
	return []domain.Slot{domain.SlotWriter, domain.SlotHead}
}

// Bucket is where an archived document is filed.
func (p Policy) Bucket(doc *domain.Document) string {
	dest := doc.Recipient
	if doc.Type == schema.ShipmentOrder && doc.Location != "" {
		dest = doc.Location
	}
	if dest = strings.TrimSpace(dest); dest == "" {
		return unassignedBucket
	}
	return dest
}

func (p Policy) isDomestic(location string) bool {
	return slices.ContainsFunc(p.DomesticLocations, func(l string) bool {
		return sameName(l, location)
	})
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
