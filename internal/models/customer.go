package models

import "time"

// Customer represents a shop customer tracked in the credit ledger.
// CreditBalance and TotalPurchases are write-time denormalizations; the
// transaction log is the authority (see internal/ledger).
type Customer struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Phone          string    `json:"phone,omitempty" db:"phone"`
	Email          string    `json:"email,omitempty" db:"email"`
	Address        string    `json:"address,omitempty" db:"address"`
	CreditBalance  float64   `json:"creditBalance" db:"credit_balance"`
	TotalPurchases float64   `json:"totalPurchases" db:"total_purchases"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
