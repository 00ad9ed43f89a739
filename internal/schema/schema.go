package schema

import (
	"errors"
	"fmt"
)

// DocType identifies one of the business document forms.
type DocType string

const (
	PurchaseOrder  DocType = "purchase_order"
	Invoice        DocType = "invoice"
	ShipmentOrder  DocType = "shipment_order"
	PaymentRequest DocType = "payment_request"
)

// Field is the name of a row field.
type Field string

const (
	FieldDept      Field = "dept"
	FieldModel     Field = "model"
	FieldItemName  Field = "itemName"
	FieldQty       Field = "qty"
	FieldPrice     Field = "price"
	FieldUnitPrice Field = "unitPrice"
	FieldAmount    Field = "amount"
	FieldRemarks   Field = "remarks"
	FieldVendor    Field = "vendor"
)

// ColumnKind drives the default alignment of a column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindName
	KindAmount
)

// VATPolicy tells where the VAT rate of a document comes from.
type VATPolicy int

const (
	VATFixed VATPolicy = iota
	VATPerDocument
)

type Column struct {
	Field    Field
	Kind     ColumnKind
	Optional bool // may be hidden at runtime
}

// Schema is the static column table of a document type.
type Schema struct {
	Type          DocType
	Columns       []Column
	DerivesAmount bool
	VAT           VATPolicy
}

var ErrUnknownType = errors.New("unknown document type")

var pricedColumns = []Column{
	{Field: FieldItemName, Kind: KindName},
	{Field: FieldModel, Kind: KindText},
	{Field: FieldQty, Kind: KindText},
	{Field: FieldUnitPrice, Kind: KindAmount},
	{Field: FieldAmount, Kind: KindAmount},
	{Field: FieldRemarks, Kind: KindText},
}

var schemas = map[DocType]Schema{
	PurchaseOrder: {
		Type:          PurchaseOrder,
		Columns:       append(append([]Column{}, pricedColumns...), Column{Field: FieldVendor, Kind: KindName, Optional: true}),
		DerivesAmount: true,
		VAT:           VATFixed,
	},
	Invoice: {
		Type:          Invoice,
		Columns:       pricedColumns,
		DerivesAmount: true,
		VAT:           VATFixed,
	},
	PaymentRequest: {
		Type:          PaymentRequest,
		Columns:       pricedColumns,
		DerivesAmount: true,
		VAT:           VATPerDocument,
	},
	ShipmentOrder: {
		Type: ShipmentOrder,
		Columns: []Column{
			{Field: FieldDept, Kind: KindText},
			{Field: FieldModel, Kind: KindText},
			{Field: FieldItemName, Kind: KindName},
			{Field: FieldPrice, Kind: KindAmount},
			{Field: FieldUnitPrice, Kind: KindAmount},
			{Field: FieldRemarks, Kind: KindText},
			{Field: FieldVendor, Kind: KindName, Optional: true},
		},
		VAT: VATFixed,
	},
}

// Types lists every known document type in a stable order.
func Types() []DocType {
	return []DocType{PurchaseOrder, Invoice, ShipmentOrder, PaymentRequest}
}

func (t DocType) Valid() bool {
	_, ok := schemas[t]
	return ok
}

// Lookup returns the schema of a document type.
func Lookup(t DocType) (Schema, error) {
	s, ok := schemas[t]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return s, nil
}

// FieldAt maps a physical column index to its field.
func (s Schema) FieldAt(col int) (Field, bool) {
	if col < 0 || col >= len(s.Columns) {
		return "", false
	}
	return s.Columns[col].Field, true
}

// IndexOf returns the physical column index of a field, or -1.
func (s Schema) IndexOf(f Field) int {
	for i, c := range s.Columns {
		if c.Field == f {
			return i
		}
	}
	return -1
}

func (s Schema) Has(f Field) bool {
	return s.IndexOf(f) >= 0
}

// KindAt returns the column kind, KindText when out of range.
func (s Schema) KindAt(col int) ColumnKind {
	if col < 0 || col >= len(s.Columns) {
		return KindText
	}
	return s.Columns[col].Kind
}

// Navigable returns the physical indices of the columns the cursor may visit.
// Only optional columns can be hidden.
func (s Schema) Navigable(hidden []Field) []int {
	out := make([]int, 0, len(s.Columns))
	for i, c := range s.Columns {
		if c.Optional && contains(hidden, c.Field) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func contains(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
