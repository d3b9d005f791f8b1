// Package ledger derives a customer's running credit balance from their full
// transaction history. Positive balances mean the customer owes the shop
// ("J'ai donné"), negative balances mean the shop owes the customer
// ("J'ai pris").
package ledger

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/boutikpay/backend/internal/models"
)

// Balance labels shown to the cashier.
const (
	LabelGave    = "J'ai donné"
	LabelTook    = "J'ai pris"
	LabelSettled = "Équilibré"
)

// Tone classifies a balance for display.
type Tone string

const (
	ToneDebt    Tone = "debt"
	ToneCredit  Tone = "credit"
	ToneNeutral Tone = "neutral"
)

// Entry is a transaction annotated with the running balance as of and
// including it, in chronological replay order.
type Entry struct {
	Sale           models.Sale `json:"sale"`
	Contribution   float64     `json:"contribution"`
	RunningBalance float64     `json:"runningBalance"`
}

// Result is the outcome of folding a customer's transaction history.
// Entries are ordered newest first for display.
type Result struct {
	Balance float64 `json:"balance"`
	Entries []Entry `json:"entries"`
}

// Presentation maps a balance to its label and tone.
type Presentation struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// InvalidTransactionError reports a record whose numeric fields cannot be
// folded (non-finite or negative). It is returned before any accumulation so
// a bad value never poisons the running balance.
type InvalidTransactionError struct {
	SaleID string
	Field  string
	Value  float64
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction %s: field %s has unusable value %v", e.SaleID, e.Field, e.Value)
}

// Contribution computes the signed amount a single record adds to the
// customer's balance.
//
// Manual entries (no line items) follow their direction: "gave" increases the
// debt, "took" decreases it. Invoices follow payment status: credit adds the
// full total, partial adds the unpaid remainder, paid contributes nothing
// unless the customer overpaid, in which case the excess becomes credit.
func Contribution(s models.Sale) (float64, error) {
	if err := validateAmounts(s); err != nil {
		return 0, err
	}

	switch s.EntryKind {
	case models.EntryManualGave:
		return s.Total, nil
	case models.EntryManualTook:
		return -s.Total, nil
	}

	// Legacy rows predate the entry_kind column: an empty item list marks a
	// manual entry and the direction lives in the notes text.
	if s.EntryKind == "" && len(s.Items) == 0 {
		if strings.Contains(s.Notes, LabelGave) {
			return s.Total, nil
		}
		if strings.Contains(s.Notes, LabelTook) {
			return -s.Total, nil
		}
	}

	switch s.PaymentStatus {
	case models.PaymentCredit:
		return s.Total, nil
	case models.PaymentPartial:
		return s.Total - s.AmountPaid, nil
	case models.PaymentPaid:
		if s.AmountPaid > s.Total {
			return -(s.AmountPaid - s.Total), nil
		}
		return 0, nil
	}

	return 0, fmt.Errorf("transaction %s: unknown payment status %q", s.SaleID, s.PaymentStatus)
}

// Compute folds a customer's full transaction snapshot into a final balance
// and a newest-first sequence of annotated entries.
//
// The snapshot is replayed oldest to newest. Records sharing a timestamp keep
// their source order; that only affects the intermediate running balances,
// never the final balance. An empty snapshot yields a zero balance and no
// entries.
func Compute(sales []models.Sale) (Result, error) {
	if len(sales) == 0 {
		return Result{Entries: []Entry{}}, nil
	}

	ordered := make([]models.Sale, len(sales))
	copy(ordered, sales)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	// Reject bad input before touching the accumulator.
	deltas := make([]float64, len(ordered))
	for i, s := range ordered {
		delta, err := Contribution(s)
		if err != nil {
			return Result{}, err
		}
		deltas[i] = delta
	}

	entries := make([]Entry, len(ordered))
	var balance float64
	for i, s := range ordered {
		balance += deltas[i]
		entries[i] = Entry{Sale: s, Contribution: deltas[i], RunningBalance: balance}
	}

	// Newest first for display.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return Result{Balance: balance, Entries: entries}, nil
}

// Present maps a balance to its display label and tone. It never fails for
// finite input; callers are expected to have validated the balance (Compute
// never produces a non-finite one).
func Present(balance float64) Presentation {
	switch {
	case balance > 0:
		return Presentation{Label: LabelGave, Tone: ToneDebt}
	case balance < 0:
		return Presentation{Label: LabelTook, Tone: ToneCredit}
	}
	return Presentation{Label: LabelSettled, Tone: ToneNeutral}
}

func validateAmounts(s models.Sale) error {
	if !isValidAmount(s.Total) {
		return &InvalidTransactionError{SaleID: s.SaleID, Field: "total", Value: s.Total}
	}
	if !isValidAmount(s.AmountPaid) {
		return &InvalidTransactionError{SaleID: s.SaleID, Field: "amountPaid", Value: s.AmountPaid}
	}
	return nil
}

func isValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
