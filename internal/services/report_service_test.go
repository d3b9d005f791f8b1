package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestReportService_GetDailySummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReportService(db, testPOSConfig())

	t.Run("aggregates checkout activity", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count", "revenue", "collected", "outstanding", "paid", "partial", "credit"}).
				AddRow(12, 45000.0, 38000.0, 7000.0, 8, 2, 2))

		r := httptest.NewRequest("GET", "/reports/summary?date=2026-08-28", nil)
		w := httptest.NewRecorder()

		service.GetDailySummary(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"date":"2026-08-28"`)
		assert.Contains(t, w.Body.String(), `"currency":"XOF"`)
		assert.Contains(t, w.Body.String(), `"revenue":45000`)
		assert.Contains(t, w.Body.String(), `"outstandingCredit":7000`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("counts pre-migration invoices with an empty kind", func(t *testing.T) {
		// Rows written before entry_kind existed are checkouts iff they
		// carry line items, mirroring the ledger's fallback.
		mock.ExpectQuery(`entry_kind = 'sale' OR \(entry_kind = '' AND EXISTS`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"count", "revenue", "collected", "outstanding", "paid", "partial", "credit"}).
				AddRow(3, 9000.0, 9000.0, 0.0, 3, 0, 0))

		r := httptest.NewRequest("GET", "/reports/summary?date=2024-01-15", nil)
		w := httptest.NewRecorder()

		service.GetDailySummary(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"saleCount":3`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/reports/summary?date=28-08-2026", nil)
		w := httptest.NewRecorder()

		service.GetDailySummary(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportService_GetTopProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReportService(db, testPOSConfig())

	mock.ExpectQuery("SELECT si.product_id, si.name").
		WithArgs(sqlmock.AnyArg(), 10).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "name", "quantity", "revenue"}).
			AddRow(3, "Riz 5kg", 24, 60000.0).
			AddRow(5, "Huile 1L", 15, 22500.0))

	r := httptest.NewRequest("GET", "/reports/top-products", nil)
	w := httptest.NewRecorder()

	service.GetTopProducts(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Riz 5kg")
	assert.Contains(t, w.Body.String(), `"days":7`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_GetCreditOverview(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewReportService(db, testPOSConfig())

	mock.ExpectQuery("SELECT id, name, phone, credit_balance").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone", "credit_balance"}).
			AddRow(7, "Fatou Sarr", "+221761112233", 4000.0).
			AddRow(8, "Omar Ba", "", -1500.0))

	r := httptest.NewRequest("GET", "/reports/credit-overview", nil)
	w := httptest.NewRecorder()

	service.GetCreditOverview(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalDebt":4000`)
	assert.Contains(t, w.Body.String(), `"totalCredit":1500`)
	assert.Contains(t, w.Body.String(), "J'ai donné")
	assert.Contains(t, w.Body.String(), "J'ai pris")
	assert.NoError(t, mock.ExpectationsWereMet())
}
