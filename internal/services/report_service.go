package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/boutikpay/backend/internal/config"
	"github.com/boutikpay/backend/internal/ledger"
)

type ReportService struct {
	db  *sql.DB
	cfg *config.POSConfig
}

// DailySummary aggregates one day of checkout activity. Manual ledger
// entries are excluded; they move balances, not revenue. Rows written before
// the entry_kind column existed count as checkouts when they carry line items.
type DailySummary struct {
	Date              string  `json:"date"`
	Currency          string  `json:"currency"`
	SaleCount         int     `json:"saleCount"`
	Revenue           float64 `json:"revenue"`
	Collected         float64 `json:"collected"`
	OutstandingCredit float64 `json:"outstandingCredit"`
	PaidCount         int     `json:"paidCount"`
	PartialCount      int     `json:"partialCount"`
	CreditCount       int     `json:"creditCount"`
}

type TopProduct struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

type CustomerBalanceLine struct {
	CustomerID   int                 `json:"customerId"`
	Name         string              `json:"name"`
	Phone        string              `json:"phone,omitempty"`
	Balance      float64             `json:"balance"`
	Presentation ledger.Presentation `json:"presentation"`
}

func NewReportService(db *sql.DB, cfg *config.POSConfig) *ReportService {
	return &ReportService{db: db, cfg: cfg}
}

// GetDailySummary aggregates sales for one day
// @Summary Daily sales summary
// @Description Revenue, collected cash and outstanding credit for a day
// @Tags reports
// @Produce json
// @Param date query string false "Day in YYYY-MM-DD form (default: today)"
// @Success 200 {object} DailySummary
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /reports/summary [get]
func (rs *ReportService) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	summary := DailySummary{
		Date:     start.Format("2006-01-02"),
		Currency: rs.cfg.Currency,
	}

	err := rs.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(amount_paid), 0),
			COALESCE(SUM(CASE WHEN payment_status = 'credit' THEN total
				WHEN payment_status = 'partial' THEN total - amount_paid
				ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_status = 'paid' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_status = 'partial' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_status = 'credit' THEN 1 ELSE 0 END), 0)
		FROM sales
		WHERE (entry_kind = 'sale' OR (entry_kind = '' AND EXISTS (
			SELECT 1 FROM sale_items si WHERE si.sale_id = sales.id)))
			AND created_at >= $1 AND created_at < $2`, start, end).
		Scan(&summary.SaleCount, &summary.Revenue, &summary.Collected, &summary.OutstandingCredit,
			&summary.PaidCount, &summary.PartialCount, &summary.CreditCount)
	if err != nil {
		log.Printf("[REPORT] Failed to compute daily summary for %s: %v", summary.Date, err)
		http.Error(w, "Failed to compute summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// GetTopProducts ranks products by revenue over a period
// @Summary Top selling products
// @Tags reports
// @Produce json
// @Param days query int false "Lookback window in days (default: 7)"
// @Param limit query int false "Number of products (default: 10, max: 50)"
// @Success 200 {object} object{products=[]TopProduct,days=int}
// @Failure 500 {object} map[string]string
// @Router /reports/top-products [get]
func (rs *ReportService) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 && d <= 365 {
			days = d
		}
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	since := time.Now().AddDate(0, 0, -days)

	rows, err := rs.db.Query(`
		SELECT si.product_id, si.name, SUM(si.quantity), SUM(si.line_total)
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.created_at >= $1
		GROUP BY si.product_id, si.name
		ORDER BY SUM(si.line_total) DESC
		LIMIT $2`, since, limit)
	if err != nil {
		log.Printf("[REPORT] Failed to rank products: %v", err)
		http.Error(w, "Failed to compute report", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	products := []TopProduct{}
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity, &p.Revenue); err != nil {
			http.Error(w, "Failed to compute report", http.StatusInternalServerError)
			return
		}
		products = append(products, p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"products": products,
		"days":     days,
	})
}

// GetCreditOverview lists customers with open balances
// @Summary Credit overview
// @Description Customers with nonzero balances, split into debt owed to the shop and credit owed to customers
// @Tags reports
// @Produce json
// @Success 200 {object} object{customers=[]CustomerBalanceLine,totalDebt=float64,totalCredit=float64}
// @Failure 500 {object} map[string]string
// @Router /reports/credit-overview [get]
func (rs *ReportService) GetCreditOverview(w http.ResponseWriter, r *http.Request) {
	rows, err := rs.db.Query(`
		SELECT id, name, phone, credit_balance
		FROM customers
		WHERE credit_balance <> 0
		ORDER BY credit_balance DESC`)
	if err != nil {
		log.Printf("[REPORT] Failed to load credit overview: %v", err)
		http.Error(w, "Failed to compute report", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	lines := []CustomerBalanceLine{}
	var totalDebt, totalCredit float64
	for rows.Next() {
		var line CustomerBalanceLine
		if err := rows.Scan(&line.CustomerID, &line.Name, &line.Phone, &line.Balance); err != nil {
			http.Error(w, "Failed to compute report", http.StatusInternalServerError)
			return
		}
		line.Presentation = ledger.Present(line.Balance)
		if line.Balance > 0 {
			totalDebt += line.Balance
		} else {
			totalCredit += -line.Balance
		}
		lines = append(lines, line)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"customers":   lines,
		"totalDebt":   totalDebt,
		"totalCredit": totalCredit,
	})
}
