package models

import "time"

// Payment statuses for a point-of-sale invoice.
const (
	PaymentPaid    = "paid"
	PaymentPartial = "partial"
	PaymentCredit  = "credit"
)

// Entry kinds. Manual entries are ledger records created directly rather than
// from a checkout; the kind is set at creation time. Rows written before the
// column existed carry an empty kind and are disambiguated from their notes.
const (
	EntrySale       = "sale"
	EntryManualGave = "manual_gave"
	EntryManualTook = "manual_took"
)

// Sale represents a point-of-sale invoice or a manual ledger entry.
// A record with no items is a manual entry.
type Sale struct {
	ID            int        `json:"id" db:"id"`
	SaleID        string     `json:"saleId" db:"sale_id"`
	CustomerID    *int       `json:"customerId,omitempty" db:"customer_id"`
	EmployeeID    int        `json:"employeeId" db:"employee_id"`
	Total         float64    `json:"total" db:"total"`
	AmountPaid    float64    `json:"amountPaid" db:"amount_paid"`
	PaymentStatus string     `json:"paymentStatus" db:"payment_status"`
	EntryKind     string     `json:"entryKind" db:"entry_kind"`
	Notes         string     `json:"notes,omitempty" db:"notes"`
	Items         []SaleItem `json:"items"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// SaleItem is a line item snapshot (name and price copied from the product at
// sale time).
type SaleItem struct {
	ID        int     `json:"id" db:"id"`
	SaleID    int     `json:"saleId" db:"sale_id"`
	ProductID int     `json:"productId" db:"product_id"`
	Name      string  `json:"name" db:"name"`
	UnitPrice float64 `json:"unitPrice" db:"unit_price"`
	Quantity  int     `json:"quantity" db:"quantity"`
	LineTotal float64 `json:"lineTotal" db:"line_total"`
}
