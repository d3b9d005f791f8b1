package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"

	"github.com/boutikpay/backend/internal/config"
	"github.com/boutikpay/backend/internal/ledger"
	"github.com/boutikpay/backend/internal/models"
)

type CustomerService struct {
	db        *sql.DB
	redis     *redis.Client
	cfg       *config.POSConfig
	validator *ValidationHelper
}

type CustomerRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"omitempty,max=255"`
}

// LedgerResponse is the customers/{id}/ledger payload: the replayed balance,
// its display presentation and the annotated history, newest first.
type LedgerResponse struct {
	CustomerID   int                 `json:"customerId"`
	Balance      float64             `json:"balance"`
	Presentation ledger.Presentation `json:"presentation"`
	Entries      []ledger.Entry      `json:"entries"`
}

func NewCustomerService(db *sql.DB, redisClient *redis.Client, cfg *config.POSConfig) *CustomerService {
	return &CustomerService{
		db:        db,
		redis:     redisClient,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

// CreateCustomer registers a new customer
// @Summary Create customer
// @Description Register a new customer for credit tracking
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body CustomerRequest true "Customer data"
// @Success 201 {object} models.Customer
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /customers [post]
func (cs *CustomerService) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CustomerRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	customer := models.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}

	err := cs.db.QueryRow(`
		INSERT INTO customers (name, phone, email, address, credit_balance, total_purchases)
		VALUES ($1, $2, $3, $4, 0, 0) RETURNING id, created_at, updated_at`,
		req.Name, req.Phone, req.Email, req.Address).
		Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		log.Printf("[CUSTOMER] Creation failed for %s: %v", req.Name, err)
		SendErrorResponse(w, "Customer already exists", http.StatusConflict, nil)
		return
	}

	log.Printf("[CUSTOMER] Created customer %d (%s)", customer.ID, customer.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(customer)
}

// ListCustomers lists customers with optional search
// @Summary List customers
// @Description List customers, optionally filtered by a name or phone search term
// @Tags customers
// @Produce json
// @Param q query string false "Search term matched against name and phone"
// @Success 200 {object} object{customers=[]models.Customer,count=int}
// @Failure 500 {object} map[string]string
// @Router /customers [get]
func (cs *CustomerService) ListCustomers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")

	query := `
		SELECT id, name, phone, email, address, credit_balance, total_purchases, created_at, updated_at
		FROM customers`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR phone ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name LIMIT 200`

	rows, err := cs.db.Query(query, args...)
	if err != nil {
		log.Printf("[CUSTOMER] Failed to list customers: %v", err)
		http.Error(w, "Failed to fetch customers", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
			&c.CreditBalance, &c.TotalPurchases, &c.CreatedAt, &c.UpdatedAt); err != nil {
			http.Error(w, "Failed to fetch customers", http.StatusInternalServerError)
			return
		}
		customers = append(customers, c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"customers": customers,
		"count":     len(customers),
	})
}

// GetCustomer retrieves a customer
// @Summary Get customer by ID
// @Tags customers
// @Produce json
// @Param customerId path int true "Customer ID"
// @Success 200 {object} models.Customer
// @Failure 404 {object} map[string]string
// @Router /customers/{customerId} [get]
func (cs *CustomerService) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "customerId"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	var c models.Customer
	err = cs.db.QueryRow(`
		SELECT id, name, phone, email, address, credit_balance, total_purchases, created_at, updated_at
		FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
			&c.CreditBalance, &c.TotalPurchases, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Customer not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch customer", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// UpdateCustomer updates a customer's contact details
// @Summary Update customer
// @Tags customers
// @Accept json
// @Produce json
// @Param customerId path int true "Customer ID"
// @Param customer body CustomerRequest true "Customer data"
// @Success 200 {object} models.Customer
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} map[string]string
// @Router /customers/{customerId} [put]
func (cs *CustomerService) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "customerId"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CustomerRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := cs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var c models.Customer
	err = cs.db.QueryRow(`
		UPDATE customers SET name = $1, phone = $2, email = $3, address = $4, updated_at = $5
		WHERE id = $6
		RETURNING id, name, phone, email, address, credit_balance, total_purchases, created_at, updated_at`,
		req.Name, req.Phone, req.Email, req.Address, time.Now(), id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
			&c.CreditBalance, &c.TotalPurchases, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Customer not found", http.StatusNotFound)
		} else {
			log.Printf("[CUSTOMER] Update failed for %d: %v", id, err)
			http.Error(w, "Failed to update customer", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// GetLedger replays the customer's full transaction history
// @Summary Get customer ledger
// @Description Replay the customer's transaction history into a running balance with "J'ai donné / J'ai pris" presentation
// @Tags customers
// @Produce json
// @Param customerId path int true "Customer ID"
// @Success 200 {object} LedgerResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} map[string]string
// @Router /customers/{customerId}/ledger [get]
func (cs *CustomerService) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "customerId"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	sales, err := cs.fetchCustomerSales(id)
	if err != nil {
		log.Printf("[LEDGER] Failed to load transactions for customer %d: %v", id, err)
		http.Error(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}

	result, err := ledger.Compute(sales)
	if err != nil {
		var invalid *ledger.InvalidTransactionError
		if errors.As(err, &invalid) {
			log.Printf("[LEDGER] Corrupt transaction data for customer %d: %v", id, err)
			SendErrorResponse(w, "Transaction data is invalid", http.StatusUnprocessableEntity, nil)
			return
		}
		log.Printf("[LEDGER] Failed to compute ledger for customer %d: %v", id, err)
		http.Error(w, "Failed to compute ledger", http.StatusInternalServerError)
		return
	}

	cs.cacheBalance(r, id, result.Balance)

	response := LedgerResponse{
		CustomerID:   id,
		Balance:      result.Balance,
		Presentation: ledger.Present(result.Balance),
		Entries:      result.Entries,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetBalance returns the customer's current balance
// @Summary Get customer balance
// @Description Return the customer's balance scalar, served from the Redis cache when a prior ledger fold is still fresh
// @Tags customers
// @Produce json
// @Param customerId path int true "Customer ID"
// @Success 200 {object} object{customerId=int,balance=float64,presentation=ledger.Presentation}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} map[string]string
// @Router /customers/{customerId}/balance [get]
func (cs *CustomerService) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "customerId"))
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	if balance, ok := cs.cachedBalance(r, id); ok {
		cs.writeBalance(w, id, balance)
		return
	}

	sales, err := cs.fetchCustomerSales(id)
	if err != nil {
		log.Printf("[LEDGER] Failed to load transactions for customer %d: %v", id, err)
		http.Error(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}

	result, err := ledger.Compute(sales)
	if err != nil {
		var invalid *ledger.InvalidTransactionError
		if errors.As(err, &invalid) {
			SendErrorResponse(w, "Transaction data is invalid", http.StatusUnprocessableEntity, nil)
			return
		}
		http.Error(w, "Failed to compute balance", http.StatusInternalServerError)
		return
	}

	cs.cacheBalance(r, id, result.Balance)
	cs.writeBalance(w, id, result.Balance)
}

func (cs *CustomerService) writeBalance(w http.ResponseWriter, customerID int, balance float64) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"customerId":   customerID,
		"balance":      balance,
		"presentation": ledger.Present(balance),
	})
}

// fetchCustomerSales loads the customer's full transaction snapshot, line
// items included so manual entries can be told apart from invoices.
func (cs *CustomerService) fetchCustomerSales(customerID int) ([]models.Sale, error) {
	rows, err := cs.db.Query(`
		SELECT id, sale_id, customer_id, employee_id, total, amount_paid, payment_status, entry_kind, notes, created_at
		FROM sales WHERE customer_id = $1 ORDER BY created_at`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []models.Sale{}
	index := map[int]int{}
	for rows.Next() {
		var sale models.Sale
		if err := rows.Scan(&sale.ID, &sale.SaleID, &sale.CustomerID, &sale.EmployeeID, &sale.Total,
			&sale.AmountPaid, &sale.PaymentStatus, &sale.EntryKind, &sale.Notes, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.Items = []models.SaleItem{}
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(sales) == 0 {
		return sales, nil
	}

	itemRows, err := cs.db.Query(`
		SELECT si.id, si.sale_id, si.product_id, si.name, si.unit_price, si.quantity, si.line_total
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.customer_id = $1`, customerID)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.SaleItem
		if err := itemRows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Name,
			&item.UnitPrice, &item.Quantity, &item.LineTotal); err != nil {
			return nil, err
		}
		if i, ok := index[item.SaleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}

	return sales, itemRows.Err()
}

// cachedBalance reads the fold result left behind by a previous ledger or
// balance request. Writes for the customer delete the key, so a hit is
// always current.
func (cs *CustomerService) cachedBalance(r *http.Request, customerID int) (float64, bool) {
	if cs.redis == nil {
		return 0, false
	}
	key := fmt.Sprintf("customer_balance:%d", customerID)
	balance, err := cs.redis.Get(r.Context(), key).Float64()
	if err != nil {
		return 0, false
	}
	return balance, true
}

func (cs *CustomerService) cacheBalance(r *http.Request, customerID int, balance float64) {
	if cs.redis == nil {
		return
	}
	key := fmt.Sprintf("customer_balance:%d", customerID)
	if err := cs.redis.Set(r.Context(), key, balance, cs.cfg.BalanceCacheTTL).Err(); err != nil {
		log.Printf("[LEDGER] Failed to cache balance for customer %d: %v", customerID, err)
	}
}
