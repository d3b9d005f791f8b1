package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/boutikpay/backend/docs"
	"github.com/boutikpay/backend/internal/config"
	"github.com/boutikpay/backend/internal/database"
	mW "github.com/boutikpay/backend/internal/middleware"
	"github.com/boutikpay/backend/internal/models"
	"github.com/boutikpay/backend/internal/services"
)

// @title BoutikPay POS Backend API
// @version 1.0
// @description API for the BoutikPay point-of-sale backend
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	// Set environment variable prefix
	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "BoutikPay POS Backend API"
	docs.SwaggerInfo.Description = "API for the BoutikPay point-of-sale backend"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	posConfig := config.LoadPOSConfig()

	authService := services.NewAuthService(db, redisClient)
	employeeService := services.NewEmployeeService(db)
	customerService := services.NewCustomerService(db, redisClient, posConfig)
	productService := services.NewProductService(db, posConfig)
	saleService := services.NewSaleService(db, redisClient, posConfig)
	reportService := services.NewReportService(db, posConfig)
	receiptService := services.NewReceiptService(db, redisClient, posConfig)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for product images
	r.Handle("/static/product-images/*", http.StripPrefix("/static/product-images/",
		mW.StaticFileServer("./static/product-images")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetAccount)

			// Employee management (admin only)
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(models.RoleAdmin))

				r.Post("/employees", employeeService.CreateEmployee)
				r.Get("/employees", employeeService.ListEmployees)
				r.Get("/employees/{employeeId}", employeeService.GetEmployee)
				r.Put("/employees/{employeeId}/deactivate", employeeService.DeactivateEmployee)
				r.Put("/employees/{employeeId}/reinstate", employeeService.ReinstateEmployee)
				r.Put("/employees/{employeeId}/role", employeeService.ChangeRole)
			})

			// Customer and credit-ledger endpoints
			r.Post("/customers", customerService.CreateCustomer)
			r.Get("/customers", customerService.ListCustomers)
			r.Get("/customers/{customerId}", customerService.GetCustomer)
			r.Put("/customers/{customerId}", customerService.UpdateCustomer)
			r.Get("/customers/{customerId}/ledger", customerService.GetLedger)
			r.Get("/customers/{customerId}/balance", customerService.GetBalance)

			// Product catalog
			r.Get("/products", productService.ListProducts)
			r.Get("/products/low-stock", productService.GetLowStock)
			r.Get("/products/{productId}", productService.GetProduct)
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(models.RoleAdmin, models.RoleManager))

				r.Post("/products", productService.CreateProduct)
				r.Put("/products/{productId}", productService.UpdateProduct)
				r.Delete("/products/{productId}", productService.DeleteProduct)
				r.Put("/products/{productId}/stock", productService.AdjustStock)
			})

			// Sales capture
			r.Post("/sales", saleService.CreateSale)
			r.Post("/sales/manual", saleService.CreateManualEntry)
			r.Get("/sales", saleService.ListSales)
			r.Get("/sales/recent", saleService.GetRecentSales)
			r.Get("/sales/{saleId}", saleService.GetSale)

			// Reports
			r.Get("/reports/summary", reportService.GetDailySummary)
			r.Get("/reports/top-products", reportService.GetTopProducts)
			r.Get("/reports/credit-overview", reportService.GetCreditOverview)

			// Receipts
			r.Post("/receipts/generate", receiptService.GenerateReceipt)
			r.Post("/receipts/verify", receiptService.VerifyReceipt)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
