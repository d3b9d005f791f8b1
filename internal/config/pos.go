package config

import (
	"os"
	"strconv"
	"time"
)

type POSConfig struct {
	Currency          string
	LowStockThreshold int
	ReceiptTTL        time.Duration
	BalanceCacheTTL   time.Duration
	RecentSalesLimit  int
	MaxBatchItems     int
}

func LoadPOSConfig() *POSConfig {
	return &POSConfig{
		Currency:          getEnv("POS_CURRENCY", "XOF"),
		LowStockThreshold: getEnvAsInt("POS_LOW_STOCK_THRESHOLD", 5),
		ReceiptTTL:        getEnvAsDuration("POS_RECEIPT_TTL", 24*time.Hour),
		BalanceCacheTTL:   getEnvAsDuration("POS_BALANCE_CACHE_TTL", 10*time.Minute),
		RecentSalesLimit:  getEnvAsInt("POS_RECENT_SALES_LIMIT", 10),
		MaxBatchItems:     getEnvAsInt("POS_MAX_BATCH_ITEMS", 50),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
