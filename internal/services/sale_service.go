package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/boutikpay/backend/internal/audit"
	"github.com/boutikpay/backend/internal/config"
	"github.com/boutikpay/backend/internal/ledger"
	"github.com/boutikpay/backend/internal/models"
)

type SaleService struct {
	db        *sql.DB
	redis     *redis.Client
	cfg       *config.POSConfig
	audit     *audit.Logger
	validator *ValidationHelper
}

type SaleItemRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

type CreateSaleRequest struct {
	CustomerID *int              `json:"customerId" validate:"omitempty,gt=0"`
	Items      []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
	AmountPaid float64           `json:"amountPaid" validate:"gte=0"`
	Notes      string            `json:"notes" validate:"max=500"`
	Reference  string            `json:"reference" validate:"omitempty,max=64"`
}

type ManualEntryRequest struct {
	CustomerID int     `json:"customerId" validate:"required,gt=0"`
	Kind       string  `json:"kind" validate:"required,oneof=gave took"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Notes      string  `json:"notes" validate:"max=500"`
}

func NewSaleService(db *sql.DB, redisClient *redis.Client, cfg *config.POSConfig) *SaleService {
	return &SaleService{
		db:        db,
		redis:     redisClient,
		cfg:       cfg,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// CreateSale captures a point-of-sale checkout
// @Summary Create a new sale
// @Description Capture a sale: decrement stock, derive payment status and update the customer's credit balance in one transaction
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body CreateSaleRequest true "Sale data"
// @Success 201 {object} models.Sale
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sales [post]
func (ss *SaleService) CreateSale(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CreateSaleRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ss.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if len(req.Items) > ss.cfg.MaxBatchItems {
		SendErrorResponse(w, fmt.Sprintf("Sale exceeds item limit (%d)", ss.cfg.MaxBatchItems), http.StatusBadRequest, nil)
		return
	}

	employeeID := employeeIDFromContext(r)
	if employeeID == 0 {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	// Idempotency: a replayed reference returns the stored sale
	var existingID int
	err := ss.db.QueryRow(`SELECT id FROM sales WHERE sale_id = $1`, reference).Scan(&existingID)
	switch {
	case err == nil:
		log.Printf("[SALE] Duplicate sale reference detected: %s", reference)
		sale, fetchErr := ss.fetchSale(reference)
		if fetchErr != nil {
			SendErrorResponse(w, "Failed to fetch sale", http.StatusInternalServerError, nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sale":    sale,
			"message": "Sale already processed",
		})
		return
	case err != sql.ErrNoRows:
		// Without a definitive answer the reference may already be used;
		// inserting anyway would defeat replay protection.
		log.Printf("[SALE] Reference lookup failed for %s: %v", reference, err)
		SendErrorResponse(w, "Failed to process sale", http.StatusInternalServerError, nil)
		return
	}

	dbTx, err := ss.db.Begin()
	if err != nil {
		log.Printf("[SALE] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to process sale", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	items, total, err := ss.reserveStockTx(dbTx, req.Items)
	if err != nil {
		ss.audit.LogError(reference, customerRef(req.CustomerID), err)
		SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
		return
	}

	status := derivePaymentStatus(total, req.AmountPaid)

	sale := models.Sale{
		SaleID:        reference,
		CustomerID:    req.CustomerID,
		EmployeeID:    employeeID,
		Total:         total,
		AmountPaid:    req.AmountPaid,
		PaymentStatus: status,
		EntryKind:     models.EntrySale,
		Notes:         req.Notes,
		Items:         items,
		CreatedAt:     time.Now(),
	}

	// Credit sales require a customer to owe the debt to
	if req.CustomerID == nil && status != models.PaymentPaid {
		SendErrorResponse(w, "Credit and partial sales require a customer", http.StatusBadRequest, nil)
		return
	}

	if req.CustomerID != nil {
		if err := ss.applyCustomerDeltaTx(dbTx, *req.CustomerID, sale, total); err != nil {
			ss.audit.LogError(reference, customerRef(req.CustomerID), err)
			SendErrorResponse(w, "Failed to update customer balance", http.StatusInternalServerError, nil)
			return
		}
	}

	if err := ss.storeSaleTx(dbTx, &sale); err != nil {
		ss.audit.LogError(reference, customerRef(req.CustomerID), err)
		SendErrorResponse(w, "Failed to store sale", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[SALE] Failed to commit sale %s: %v", reference, err)
		ss.audit.LogError(reference, customerRef(req.CustomerID), err)
		SendErrorResponse(w, "Failed to process sale", http.StatusInternalServerError, nil)
		return
	}

	ss.invalidateBalanceCache(r, req.CustomerID)
	ss.audit.LogSale(reference, customerRef(req.CustomerID), total, status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"sale":    sale,
	})
}

// CreateManualEntry records a standalone gave/took ledger entry
// @Summary Create a manual ledger entry
// @Description Record a "J'ai donné" or "J'ai pris" entry against a customer without a checkout
// @Tags sales
// @Accept json
// @Produce json
// @Param entry body ManualEntryRequest true "Manual entry data"
// @Success 201 {object} models.Sale
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /sales/manual [post]
func (ss *SaleService) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ManualEntryRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ss.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	employeeID := employeeIDFromContext(r)
	if employeeID == 0 {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	kind := models.EntryManualGave
	if req.Kind == "took" {
		kind = models.EntryManualTook
	}

	customerID := req.CustomerID
	sale := models.Sale{
		SaleID:     uuid.NewString(),
		CustomerID: &customerID,
		EmployeeID: employeeID,
		Total:      req.Amount,
		EntryKind:  kind,
		Notes:      req.Notes,
		CreatedAt:  time.Now(),
	}

	dbTx, err := ss.db.Begin()
	if err != nil {
		log.Printf("[SALE] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to record entry", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	if err := ss.applyCustomerDeltaTx(dbTx, customerID, sale, 0); err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Customer not found", http.StatusNotFound, nil)
			return
		}
		ss.audit.LogError(sale.SaleID, strconv.Itoa(customerID), err)
		SendErrorResponse(w, "Failed to update customer balance", http.StatusInternalServerError, nil)
		return
	}

	if err := ss.storeSaleTx(dbTx, &sale); err != nil {
		ss.audit.LogError(sale.SaleID, strconv.Itoa(customerID), err)
		SendErrorResponse(w, "Failed to store entry", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[SALE] Failed to commit manual entry %s: %v", sale.SaleID, err)
		SendErrorResponse(w, "Failed to record entry", http.StatusInternalServerError, nil)
		return
	}

	ss.invalidateBalanceCache(r, &customerID)
	ss.audit.LogManualEntry(sale.SaleID, strconv.Itoa(customerID), kind, req.Amount)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"sale":    sale,
	})
}

// GetSale retrieves a specific sale
// @Summary Get sale by reference
// @Description Retrieve a sale and its line items by reference
// @Tags sales
// @Produce json
// @Param saleId path string true "Sale reference"
// @Success 200 {object} models.Sale
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /sales/{saleId} [get]
func (ss *SaleService) GetSale(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "saleId")

	sale, err := ss.fetchSale(saleID)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Sale not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch sale", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sale)
}

// ListSales retrieves sales with optional filters
// @Summary List sales
// @Description Get a list of sales with optional filtering
// @Tags sales
// @Produce json
// @Param customerId query int false "Filter by customer ID"
// @Param status query string false "Filter by payment status"
// @Param limit query int false "Maximum number of rows (default: 50)"
// @Success 200 {object} object{sales=[]models.Sale,count=int}
// @Failure 500 {object} map[string]string
// @Router /sales [get]
func (ss *SaleService) ListSales(w http.ResponseWriter, r *http.Request) {
	var customerID int
	if v := r.URL.Query().Get("customerId"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			customerID = id
		}
	}
	status := r.URL.Query().Get("status")

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}

	sales, err := ss.fetchSales(customerID, status, limit)
	if err != nil {
		log.Printf("[SALE] Failed to fetch sales: %v", err)
		http.Error(w, "Failed to fetch sales", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sales": sales,
		"count": len(sales),
	})
}

// GetRecentSales retrieves the most recent sales
// @Summary Get recent sales
// @Description Get a list of recent sales with configurable limit
// @Tags sales
// @Produce json
// @Param limit query int false "Number of sales to return (default: 10, max: 100)"
// @Success 200 {array} models.Sale
// @Failure 500 {object} map[string]string
// @Router /sales/recent [get]
func (ss *SaleService) GetRecentSales(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit int `validate:"omitempty,min=1,max=100"`
	}
	req.Limit = ss.cfg.RecentSalesLimit

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			req.Limit = l
		}
	}

	if err := ss.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	sales, err := ss.fetchSales(0, "", req.Limit)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch recent sales", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sales)
}

// reserveStockTx locks each product row, checks stock and decrements it,
// returning the priced line items and the sale total.
func (ss *SaleService) reserveStockTx(tx *sql.Tx, items []SaleItemRequest) ([]models.SaleItem, float64, error) {
	result := make([]models.SaleItem, 0, len(items))
	var total float64

	for _, item := range items {
		var (
			name  string
			price float64
			stock int
		)
		err := tx.QueryRow(`SELECT name, price, stock FROM products WHERE id = $1 AND active = TRUE FOR UPDATE`,
			item.ProductID).Scan(&name, &price, &stock)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, 0, fmt.Errorf("product %d not found", item.ProductID)
			}
			return nil, 0, err
		}

		if stock < item.Quantity {
			return nil, 0, fmt.Errorf("insufficient stock for product %d", item.ProductID)
		}

		if _, err := tx.Exec(`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3`,
			item.Quantity, time.Now(), item.ProductID); err != nil {
			return nil, 0, err
		}

		lineTotal := price * float64(item.Quantity)
		total += lineTotal
		result = append(result, models.SaleItem{
			ProductID: item.ProductID,
			Name:      name,
			UnitPrice: price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
	}

	return result, total, nil
}

// applyCustomerDeltaTx folds the new record's contribution into the
// customer's denormalized balance. The transaction log stays authoritative;
// this column only exists so customer lists render without replaying ledgers.
func (ss *SaleService) applyCustomerDeltaTx(tx *sql.Tx, customerID int, sale models.Sale, purchaseTotal float64) error {
	delta, err := ledger.Contribution(sale)
	if err != nil {
		return err
	}

	var balance float64
	if err := tx.QueryRow(`SELECT credit_balance FROM customers WHERE id = $1 FOR UPDATE`, customerID).Scan(&balance); err != nil {
		return err
	}

	newBalance := balance + delta
	if _, err := tx.Exec(`UPDATE customers SET credit_balance = $1, total_purchases = total_purchases + $2, updated_at = $3 WHERE id = $4`,
		newBalance, purchaseTotal, time.Now(), customerID); err != nil {
		return err
	}

	ss.audit.LogBalanceChange(strconv.Itoa(customerID), balance, newBalance)
	return nil
}

func (ss *SaleService) storeSaleTx(tx *sql.Tx, sale *models.Sale) error {
	err := tx.QueryRow(`
		INSERT INTO sales (sale_id, customer_id, employee_id, total, amount_paid, payment_status, entry_kind, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		sale.SaleID, sale.CustomerID, sale.EmployeeID, sale.Total, sale.AmountPaid,
		sale.PaymentStatus, sale.EntryKind, sale.Notes, sale.CreatedAt).Scan(&sale.ID)
	if err != nil {
		return err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		if err := tx.QueryRow(`
			INSERT INTO sale_items (sale_id, product_id, name, unit_price, quantity, line_total)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			item.SaleID, item.ProductID, item.Name, item.UnitPrice, item.Quantity, item.LineTotal).Scan(&item.ID); err != nil {
			return err
		}
	}

	return nil
}

func (ss *SaleService) fetchSale(saleID string) (*models.Sale, error) {
	var sale models.Sale
	err := ss.db.QueryRow(`
		SELECT id, sale_id, customer_id, employee_id, total, amount_paid, payment_status, entry_kind, notes, created_at
		FROM sales WHERE sale_id = $1`, saleID).
		Scan(&sale.ID, &sale.SaleID, &sale.CustomerID, &sale.EmployeeID, &sale.Total,
			&sale.AmountPaid, &sale.PaymentStatus, &sale.EntryKind, &sale.Notes, &sale.CreatedAt)
	if err != nil {
		return nil, err
	}

	items, err := ss.fetchSaleItems(sale.ID)
	if err != nil {
		return nil, err
	}
	sale.Items = items

	return &sale, nil
}

func (ss *SaleService) fetchSales(customerID int, status string, limit int) ([]models.Sale, error) {
	query := `
		SELECT id, sale_id, customer_id, employee_id, total, amount_paid, payment_status, entry_kind, notes, created_at
		FROM sales WHERE 1=1`
	args := []interface{}{}

	if customerID > 0 {
		args = append(args, customerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var sale models.Sale
		if err := rows.Scan(&sale.ID, &sale.SaleID, &sale.CustomerID, &sale.EmployeeID, &sale.Total,
			&sale.AmountPaid, &sale.PaymentStatus, &sale.EntryKind, &sale.Notes, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	return sales, rows.Err()
}

func (ss *SaleService) fetchSaleItems(saleID int) ([]models.SaleItem, error) {
	rows, err := ss.db.Query(`
		SELECT id, sale_id, product_id, name, unit_price, quantity, line_total
		FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.SaleItem{}
	for rows.Next() {
		var item models.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (ss *SaleService) invalidateBalanceCache(r *http.Request, customerID *int) {
	if ss.redis == nil || customerID == nil {
		return
	}
	key := fmt.Sprintf("customer_balance:%d", *customerID)
	if err := ss.redis.Del(r.Context(), key).Err(); err != nil {
		log.Printf("[SALE] Failed to invalidate balance cache for customer %d: %v", *customerID, err)
	}
}

func derivePaymentStatus(total, amountPaid float64) string {
	switch {
	case amountPaid >= total:
		return models.PaymentPaid
	case amountPaid > 0:
		return models.PaymentPartial
	}
	return models.PaymentCredit
}

func customerRef(customerID *int) string {
	if customerID == nil {
		return ""
	}
	return strconv.Itoa(*customerID)
}

func employeeIDFromContext(r *http.Request) int {
	v, ok := r.Context().Value("userID").(string)
	if !ok || v == "" {
		return 0
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return id
}
