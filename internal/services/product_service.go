package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/boutikpay/backend/internal/config"
	"github.com/boutikpay/backend/internal/models"
)

type ProductService struct {
	db        *sql.DB
	cfg       *config.POSConfig
	validator *ValidationHelper
}

type ProductRequest struct {
	SKU       string  `json:"sku" validate:"required,max=64"`
	Name      string  `json:"name" validate:"required,min=2,max=200"`
	Category  string  `json:"category" validate:"omitempty,max=100"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	CostPrice float64 `json:"costPrice" validate:"gte=0"`
	Stock     int     `json:"stock" validate:"gte=0"`
	ImageURL  string  `json:"imageUrl" validate:"omitempty,max=255"`
}

type StockAdjustmentRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

func NewProductService(db *sql.DB, cfg *config.POSConfig) *ProductService {
	return &ProductService{
		db:        db,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

// CreateProduct adds a catalog item
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Param product body ProductRequest true "Product data"
// @Success 201 {object} models.Product
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /products [post]
func (ps *ProductService) CreateProduct(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ProductRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	product := models.Product{
		SKU:       req.SKU,
		Name:      req.Name,
		Category:  req.Category,
		Price:     req.Price,
		CostPrice: req.CostPrice,
		Stock:     req.Stock,
		ImageURL:  req.ImageURL,
		Active:    true,
	}

	err := ps.db.QueryRow(`
		INSERT INTO products (sku, name, category, price, cost_price, stock, image_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE) RETURNING id, created_at, updated_at`,
		req.SKU, req.Name, req.Category, req.Price, req.CostPrice, req.Stock, req.ImageURL).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		log.Printf("[PRODUCT] Creation failed for SKU %s: %v", req.SKU, err)
		SendErrorResponse(w, "SKU already exists", http.StatusConflict, nil)
		return
	}

	log.Printf("[PRODUCT] Created product %d (%s)", product.ID, product.SKU)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

// ListProducts lists active products
// @Summary List products
// @Tags products
// @Produce json
// @Param q query string false "Search term matched against name and SKU"
// @Param category query string false "Filter by category"
// @Success 200 {object} object{products=[]models.Product,count=int}
// @Failure 500 {object} map[string]string
// @Router /products [get]
func (ps *ProductService) ListProducts(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	query := `
		SELECT id, sku, name, category, price, cost_price, stock, image_url, active, created_at, updated_at
		FROM products WHERE active = TRUE`
	args := []interface{}{}

	if search != "" {
		args = append(args, "%"+search+"%")
		query += ` AND (name ILIKE $1 OR sku ILIKE $1)`
	}
	if category != "" {
		args = append(args, category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY name LIMIT 500`

	products, err := ps.queryProducts(query, args...)
	if err != nil {
		log.Printf("[PRODUCT] Failed to list products: %v", err)
		http.Error(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// GetLowStock lists products at or below the restock threshold
// @Summary List low-stock products
// @Tags products
// @Produce json
// @Success 200 {object} object{products=[]models.Product,threshold=int}
// @Failure 500 {object} map[string]string
// @Router /products/low-stock [get]
func (ps *ProductService) GetLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := ps.queryProducts(`
		SELECT id, sku, name, category, price, cost_price, stock, image_url, active, created_at, updated_at
		FROM products WHERE active = TRUE AND stock <= $1 ORDER BY stock`, ps.cfg.LowStockThreshold)
	if err != nil {
		log.Printf("[PRODUCT] Failed to list low-stock products: %v", err)
		http.Error(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"products":  products,
		"threshold": ps.cfg.LowStockThreshold,
	})
}

// GetProduct retrieves a product
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param productId path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Router /products/{productId} [get]
func (ps *ProductService) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	products, err := ps.queryProducts(`
		SELECT id, sku, name, category, price, cost_price, stock, image_url, active, created_at, updated_at
		FROM products WHERE id = $1`, id)
	if err != nil {
		http.Error(w, "Failed to fetch product", http.StatusInternalServerError)
		return
	}
	if len(products) == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(products[0])
}

// UpdateProduct updates a catalog item
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Param productId path int true "Product ID"
// @Param product body ProductRequest true "Product data"
// @Success 200 {object} models.Product
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} map[string]string
// @Router /products/{productId} [put]
func (ps *ProductService) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ProductRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var product models.Product
	err = ps.db.QueryRow(`
		UPDATE products SET sku = $1, name = $2, category = $3, price = $4, cost_price = $5, stock = $6, image_url = $7, updated_at = $8
		WHERE id = $9
		RETURNING id, sku, name, category, price, cost_price, stock, image_url, active, created_at, updated_at`,
		req.SKU, req.Name, req.Category, req.Price, req.CostPrice, req.Stock, req.ImageURL, time.Now(), id).
		Scan(&product.ID, &product.SKU, &product.Name, &product.Category, &product.Price, &product.CostPrice,
			&product.Stock, &product.ImageURL, &product.Active, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Product not found", http.StatusNotFound)
		} else {
			log.Printf("[PRODUCT] Update failed for %d: %v", id, err)
			http.Error(w, "Failed to update product", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

// DeleteProduct soft deletes a product
// @Summary Delete product
// @Description Mark a product inactive; past sales keep their line-item snapshots
// @Tags products
// @Produce json
// @Param productId path int true "Product ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{productId} [delete]
func (ps *ProductService) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	result, err := ps.db.Exec(`UPDATE products SET active = FALSE, updated_at = $1 WHERE id = $2 AND active = TRUE`,
		time.Now(), id)
	if err != nil {
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	log.Printf("[PRODUCT] Deactivated product %d", id)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// AdjustStock applies a manual stock correction
// @Summary Adjust stock
// @Description Apply a signed stock correction (restock or shrinkage)
// @Tags products
// @Accept json
// @Produce json
// @Param productId path int true "Product ID"
// @Param adjustment body StockAdjustmentRequest true "Stock adjustment"
// @Success 200 {object} object{productId=int,stock=int}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} ErrorResponse
// @Router /products/{productId}/stock [put]
func (ps *ProductService) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "productId"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req StockAdjustmentRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var stock int
	err = ps.db.QueryRow(`
		UPDATE products SET stock = stock + $1, updated_at = $2
		WHERE id = $3 AND stock + $1 >= 0
		RETURNING stock`, req.Delta, time.Now(), id).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Product not found or stock would go negative", http.StatusConflict, nil)
		} else {
			SendErrorResponse(w, "Failed to adjust stock", http.StatusInternalServerError, nil)
		}
		return
	}

	log.Printf("[PRODUCT] Adjusted stock for product %d by %d (%s)", id, req.Delta, req.Reason)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"productId": id,
		"stock":     stock,
	})
}

func (ps *ProductService) queryProducts(query string, args ...interface{}) ([]models.Product, error) {
	rows, err := ps.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Category, &p.Price, &p.CostPrice,
			&p.Stock, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	return products, rows.Err()
}
