package services

import (
	"bytes"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/boutikpay/backend/internal/config"
)

type ReceiptService struct {
	db        *sql.DB
	redis     *redis.Client
	cfg       *config.POSConfig
	validator *ValidationHelper
}

type GenerateReceiptRequest struct {
	SaleID string `json:"saleId" validate:"required,max=64"`
}

type VerifyReceiptRequest struct {
	Token string `json:"token" validate:"required"`
}

func NewReceiptService(db *sql.DB, redisClient *redis.Client, cfg *config.POSConfig) *ReceiptService {
	return &ReceiptService{
		db:        db,
		redis:     redisClient,
		cfg:       cfg,
		validator: NewValidationHelper(),
	}
}

// GenerateReceipt produces a scannable QR receipt for a sale
// @Summary Generate receipt QR
// @Description Generate a QR code encoding a short-lived receipt token for a sale
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body GenerateReceiptRequest true "Receipt request"
// @Success 200 {object} object{token=string,qrImage=string,expiresIn=string}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /receipts/generate [post]
func (s *ReceiptService) GenerateReceipt(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req GenerateReceiptRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if s.redis == nil {
		SendErrorResponse(w, "Receipts unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	var total float64
	var createdAt time.Time
	err := s.db.QueryRow(`SELECT total, created_at FROM sales WHERE sale_id = $1`, req.SaleID).
		Scan(&total, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Sale not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to fetch sale", http.StatusInternalServerError, nil)
		}
		return
	}

	payload := map[string]any{
		"saleId":   req.SaleID,
		"total":    total,
		"currency": s.cfg.Currency,
		"issuedAt": time.Now().Unix(),
		"nonce":    generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		SendErrorResponse(w, "Failed to generate receipt", http.StatusInternalServerError, nil)
		return
	}

	token := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("receipt:%s", token)
	if err := s.redis.Set(r.Context(), key, jsonData, s.cfg.ReceiptTTL).Err(); err != nil {
		log.Printf("[RECEIPT] Failed to store receipt token for sale %s: %v", req.SaleID, err)
		SendErrorResponse(w, "Failed to generate receipt", http.StatusInternalServerError, nil)
		return
	}

	qr, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		SendErrorResponse(w, "Failed to render QR code", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[RECEIPT] Generated receipt for sale %s", req.SaleID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token":     token,
		"qrImage":   base64.StdEncoding.EncodeToString(buf.Bytes()),
		"expiresIn": s.cfg.ReceiptTTL.String(),
	})
}

// VerifyReceipt resolves a scanned receipt token
// @Summary Verify receipt
// @Description Resolve a scanned receipt token back to its sale details
// @Tags receipts
// @Accept json
// @Produce json
// @Param request body VerifyReceiptRequest true "Verification request"
// @Success 200 {object} object{valid=bool,receipt=object}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /receipts/verify [post]
func (s *ReceiptService) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req VerifyReceiptRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if s.redis == nil {
		SendErrorResponse(w, "Receipts unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	key := fmt.Sprintf("receipt:%s", req.Token)
	data, err := s.redis.Get(r.Context(), key).Bytes()
	if err == redis.Nil {
		SendErrorResponse(w, "Invalid or expired receipt", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		SendErrorResponse(w, "Failed to verify receipt", http.StatusInternalServerError, nil)
		return
	}

	var receipt map[string]any
	if err := json.Unmarshal(data, &receipt); err != nil {
		SendErrorResponse(w, "Failed to verify receipt", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"valid":   true,
		"receipt": receipt,
	})
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
