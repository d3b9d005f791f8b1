package ledger

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/boutikpay/backend/internal/models"
)

func saleAt(t time.Time, status string, total, paid float64) models.Sale {
	return models.Sale{
		SaleID:        "S-" + t.Format("150405.000"),
		Total:         total,
		AmountPaid:    paid,
		PaymentStatus: status,
		EntryKind:     models.EntrySale,
		Items:         []models.SaleItem{{ProductID: 1, Quantity: 1, UnitPrice: total, LineTotal: total}},
		CreatedAt:     t,
	}
}

func manualAt(t time.Time, kind string, total float64, notes string) models.Sale {
	return models.Sale{
		SaleID:    "M-" + t.Format("150405.000"),
		Total:     total,
		EntryKind: kind,
		Notes:     notes,
		CreatedAt: t,
	}
}

func TestCompute_EmptySnapshot(t *testing.T) {
	result, err := Compute(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, result.Balance)
	assert.Empty(t, result.Entries)
	assert.NotNil(t, result.Entries)
}

func TestCompute_SignConventions(t *testing.T) {
	now := time.Now()

	t.Run("credit sale adds full total", func(t *testing.T) {
		result, err := Compute([]models.Sale{saleAt(now, models.PaymentCredit, 5000, 0)})
		assert.NoError(t, err)
		assert.Equal(t, 5000.0, result.Balance)
		assert.Equal(t, LabelGave, Present(result.Balance).Label)
	})

	t.Run("overpayment becomes customer credit", func(t *testing.T) {
		result, err := Compute([]models.Sale{saleAt(now, models.PaymentPaid, 3000, 3500)})
		assert.NoError(t, err)
		assert.Equal(t, -500.0, result.Balance)
		assert.Equal(t, LabelTook, Present(result.Balance).Label)
	})

	t.Run("exact payment contributes nothing", func(t *testing.T) {
		result, err := Compute([]models.Sale{saleAt(now, models.PaymentPaid, 2000, 2000)})
		assert.NoError(t, err)
		assert.Equal(t, 0.0, result.Balance)
		assert.Equal(t, LabelSettled, Present(result.Balance).Label)
	})

	t.Run("partial payment adds unpaid remainder", func(t *testing.T) {
		result, err := Compute([]models.Sale{saleAt(now, models.PaymentPartial, 10000, 4000)})
		assert.NoError(t, err)
		assert.Equal(t, 6000.0, result.Balance)
	})
}

func TestCompute_ManualEntries(t *testing.T) {
	now := time.Now()

	t.Run("explicit kinds", func(t *testing.T) {
		gave, err := Compute([]models.Sale{manualAt(now, models.EntryManualGave, 2000, "")})
		assert.NoError(t, err)
		assert.Equal(t, 2000.0, gave.Balance)

		took, err := Compute([]models.Sale{manualAt(now, models.EntryManualTook, 1000, "")})
		assert.NoError(t, err)
		assert.Equal(t, -1000.0, took.Balance)
	})

	t.Run("legacy rows disambiguated from notes", func(t *testing.T) {
		gave, err := Compute([]models.Sale{manualAt(now, "", 2000, "J'ai donné 2000")})
		assert.NoError(t, err)
		assert.Equal(t, 2000.0, gave.Balance)

		took, err := Compute([]models.Sale{manualAt(now, "", 1000, "J'ai pris 1000")})
		assert.NoError(t, err)
		assert.Equal(t, -1000.0, took.Balance)
	})
}

func TestCompute_RunningBalanceScenario(t *testing.T) {
	t1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)
	t3 := t1.Add(4 * time.Hour)

	sales := []models.Sale{
		saleAt(t1, models.PaymentCredit, 5000, 0),
		saleAt(t2, models.PaymentPaid, 2000, 2000),
		manualAt(t3, models.EntryManualTook, 1000, "J'ai pris 1000"),
	}

	result, err := Compute(sales)
	assert.NoError(t, err)
	assert.Equal(t, 4000.0, result.Balance)
	assert.Equal(t, LabelGave, Present(result.Balance).Label)

	// Newest first: t3, t2, t1.
	assert.Len(t, result.Entries, 3)
	assert.Equal(t, 4000.0, result.Entries[0].RunningBalance)
	assert.Equal(t, 5000.0, result.Entries[1].RunningBalance)
	assert.Equal(t, 5000.0, result.Entries[2].RunningBalance)
	assert.Equal(t, t3, result.Entries[0].Sale.CreatedAt)
	assert.Equal(t, t1, result.Entries[2].Sale.CreatedAt)
}

func TestCompute_FinalBalanceOrderIndependent(t *testing.T) {
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	sales := []models.Sale{
		saleAt(base, models.PaymentCredit, 5000, 0),
		saleAt(base.Add(time.Hour), models.PaymentPartial, 10000, 4000),
		saleAt(base.Add(2*time.Hour), models.PaymentPaid, 3000, 3500),
		manualAt(base.Add(3*time.Hour), models.EntryManualGave, 2500, ""),
		manualAt(base.Add(4*time.Hour), models.EntryManualTook, 750, ""),
		saleAt(base.Add(4*time.Hour), models.PaymentPaid, 1200, 1200),
	}

	expected, err := Compute(sales)
	assert.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Sale, len(sales))
		copy(shuffled, sales)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		result, err := Compute(shuffled)
		assert.NoError(t, err)
		assert.Equal(t, expected.Balance, result.Balance)
	}
}

func TestCompute_StableTieBreak(t *testing.T) {
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	a := manualAt(ts, models.EntryManualGave, 100, "")
	a.SaleID = "first"
	b := manualAt(ts, models.EntryManualGave, 200, "")
	b.SaleID = "second"

	result, err := Compute([]models.Sale{a, b})
	assert.NoError(t, err)
	// Source order preserved on identical timestamps; newest-first output puts
	// the later source record on top.
	assert.Equal(t, "second", result.Entries[0].Sale.SaleID)
	assert.Equal(t, 300.0, result.Entries[0].RunningBalance)
	assert.Equal(t, "first", result.Entries[1].Sale.SaleID)
	assert.Equal(t, 100.0, result.Entries[1].RunningBalance)
}

func TestCompute_RejectsInvalidAmounts(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		sale  models.Sale
		field string
	}{
		{"NaN total", saleAt(now, models.PaymentCredit, math.NaN(), 0), "total"},
		{"negative total", saleAt(now, models.PaymentCredit, -500, 0), "total"},
		{"infinite amount paid", saleAt(now, models.PaymentPaid, 1000, math.Inf(1)), "amountPaid"},
		{"NaN amount paid", saleAt(now, models.PaymentPartial, 1000, math.NaN()), "amountPaid"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute([]models.Sale{saleAt(now, models.PaymentCredit, 5000, 0), tc.sale})
			assert.Error(t, err)

			var invalid *InvalidTransactionError
			assert.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestCompute_UnknownPaymentStatus(t *testing.T) {
	s := saleAt(time.Now(), "refunded", 1000, 0)
	_, err := Compute([]models.Sale{s})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown payment status")
}

func TestPresent(t *testing.T) {
	t.Run("debt", func(t *testing.T) {
		p := Present(4000)
		assert.Equal(t, LabelGave, p.Label)
		assert.Equal(t, ToneDebt, p.Tone)
	})

	t.Run("credit", func(t *testing.T) {
		p := Present(-500)
		assert.Equal(t, LabelTook, p.Label)
		assert.Equal(t, ToneCredit, p.Tone)
	})

	t.Run("settled", func(t *testing.T) {
		p := Present(0)
		assert.Equal(t, LabelSettled, p.Label)
		assert.Equal(t, ToneNeutral, p.Tone)
	})
}
