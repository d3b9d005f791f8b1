package services

import (
	"bytes"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestReceiptService_GenerateReceipt(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewReceiptService(db, redisClient, testPOSConfig())

	t.Run("issues a QR receipt", func(t *testing.T) {
		mock.ExpectQuery("SELECT total, created_at FROM sales").
			WithArgs("ref-1").
			WillReturnRows(sqlmock.NewRows([]string{"total", "created_at"}).AddRow(5000.0, time.Now()))

		redisMock.Regexp().ExpectSet(`receipt:.+`, `.+`, 24*time.Hour).SetVal("OK")

		body, _ := json.Marshal(GenerateReceiptRequest{SaleID: "ref-1"})
		r := httptest.NewRequest("POST", "/receipts/generate", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.GenerateReceipt(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Token   string `json:"token"`
			QRImage string `json:"qrImage"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.NotEmpty(t, response.QRImage)

		// The token decodes back to the receipt payload
		payload, err := base64.URLEncoding.DecodeString(response.Token)
		assert.NoError(t, err)
		assert.Contains(t, string(payload), `"saleId":"ref-1"`)
		assert.Contains(t, string(payload), `"currency":"XOF"`)

		assert.NoError(t, mock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("unknown sale", func(t *testing.T) {
		mock.ExpectQuery("SELECT total, created_at FROM sales").
			WithArgs("ref-missing").
			WillReturnError(sql.ErrNoRows)

		body, _ := json.Marshal(GenerateReceiptRequest{SaleID: "ref-missing"})
		r := httptest.NewRequest("POST", "/receipts/generate", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.GenerateReceipt(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("receipts unavailable without redis", func(t *testing.T) {
		offline := NewReceiptService(db, nil, testPOSConfig())

		body, _ := json.Marshal(GenerateReceiptRequest{SaleID: "ref-1"})
		r := httptest.NewRequest("POST", "/receipts/generate", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		offline.GenerateReceipt(w, r)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestReceiptService_VerifyReceipt(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewReceiptService(db, redisClient, testPOSConfig())

	t.Run("valid token", func(t *testing.T) {
		payload := `{"saleId":"ref-1","total":5000,"currency":"XOF"}`
		token := base64.URLEncoding.EncodeToString([]byte(payload))

		redisMock.ExpectGet("receipt:" + token).SetVal(payload)

		body, _ := json.Marshal(VerifyReceiptRequest{Token: token})
		r := httptest.NewRequest("POST", "/receipts/verify", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.VerifyReceipt(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":true`)
		assert.Contains(t, w.Body.String(), "ref-1")
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("expired token", func(t *testing.T) {
		redisMock.ExpectGet("receipt:expired-token").RedisNil()

		body, _ := json.Marshal(VerifyReceiptRequest{Token: "expired-token"})
		r := httptest.NewRequest("POST", "/receipts/verify", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.VerifyReceipt(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
