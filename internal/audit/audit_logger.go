package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"`
	SaleID     string    `json:"sale_id"`
	CustomerID string    `json:"customer_id"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	Details    any       `json:"details"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogSale(saleID, customerID string, amount float64, paymentStatus string) {
	event := Event{
		Timestamp:  time.Now(),
		EventType:  "SALE",
		SaleID:     saleID,
		CustomerID: customerID,
		Amount:     amount,
		Status:     "SUCCESS",
		Details: map[string]string{
			"payment_status": paymentStatus,
		},
	}
	a.log(event)
}

func (a *Logger) LogManualEntry(saleID, customerID, kind string, amount float64) {
	event := Event{
		Timestamp:  time.Now(),
		EventType:  "MANUAL_ENTRY",
		SaleID:     saleID,
		CustomerID: customerID,
		Amount:     amount,
		Status:     "SUCCESS",
		Details:    map[string]string{"kind": kind},
	}
	a.log(event)
}

func (a *Logger) LogBalanceChange(customerID string, previous, next float64) {
	event := Event{
		Timestamp:  time.Now(),
		EventType:  "BALANCE_CHANGE",
		CustomerID: customerID,
		Amount:     next - previous,
		Status:     "SUCCESS",
		Details: map[string]float64{
			"previous_balance": previous,
			"new_balance":      next,
		},
	}
	a.log(event)
}

func (a *Logger) LogError(saleID, customerID string, err error) {
	event := Event{
		Timestamp:  time.Now(),
		EventType:  "ERROR",
		SaleID:     saleID,
		CustomerID: customerID,
		Status:     "FAILED",
		Details:    map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
