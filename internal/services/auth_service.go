package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/boutikpay/backend/internal/models"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *validator.Validate
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required" example:"+221771234567"` // Employee phone number
	Password    string `json:"password" validate:"required,min=6" example:"password123"` // Employee password
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Email       string `json:"Email" validate:"required,email" example:"awa@boutik.shop"`          // Employee email address
	Password    string `json:"Password" validate:"required,min=6" example:"password123"`           // Employee password
	FirstName   string `json:"FirstName" validate:"required,min=2" example:"Awa"`                  // Employee first name
	LastName    string `json:"LastName" validate:"required,min=2" example:"Diallo"`                // Employee last name
	PhoneNumber string `json:"PhoneNumber" validate:"required" example:"+221771234567"`            // Phone number
	Role        string `json:"Role" validate:"omitempty,oneof=admin manager cashier" example:"cashier"` // Employee role
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token    string          `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	Employee models.Employee `json:"employee"`                                                // Employee information
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: validator.New(),
	}
}

func (s *AuthService) sendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	SendErrorResponse(w, message, statusCode, validationErr)
}

// Register handles employee registration
// @Summary Register a new employee
// @Description Register a new employee with email, password, name and role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} AuthResponse "Registration successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 409 {string} string "Email already exists"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RegisterRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Registration failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	log.Printf("[AUTH] Registration request for email: %s", req.Email)

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleCashier
	}

	var employeeID int
	err = s.db.QueryRow("INSERT INTO employees (email, password, first_name, last_name, phone_number, role, active) VALUES ($1, $2, $3, $4, $5, $6, TRUE) RETURNING id",
		strings.ToLower(req.Email), hashedPassword, req.FirstName, req.LastName, req.PhoneNumber, role).Scan(&employeeID)
	if err != nil {
		log.Printf("[AUTH] Employee creation failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "Email Already Exists", http.StatusConflict, nil)
		return
	}

	log.Printf("[AUTH] Employee created successfully - ID: %d, Email: %s", employeeID, req.Email)

	token, err := generateJWT(employeeID, role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for employee %d: %v", employeeID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	response := AuthResponse{
		Token: token,
		Employee: models.Employee{
			ID:          employeeID,
			Email:       strings.ToLower(req.Email),
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			Role:        role,
			Active:      true,
		},
	}

	log.Printf("[AUTH] Registration successful for employee %d", employeeID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Login handles employee authentication
// @Summary Login employee
// @Description Authenticate an employee with phone number and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid credentials"
// @Failure 403 {string} string "Account deactivated"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	log.Printf("[AUTH] Login request for phone number: %s", req.PhoneNumber)

	var employee models.Employee
	var hashedPassword string
	err := s.db.QueryRow("SELECT id, email, first_name, last_name, password, role, active FROM employees WHERE phone_number = $1",
		req.PhoneNumber).Scan(&employee.ID, &employee.Email, &employee.FirstName, &employee.LastName, &hashedPassword, &employee.Role, &employee.Active)
	if err != nil {
		log.Printf("[AUTH] Employee not found for phone number: %s", req.PhoneNumber)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !employee.Active {
		log.Printf("[AUTH] Deactivated employee attempted login: %d", employee.ID)
		s.sendErrorResponse(w, "Account deactivated", http.StatusForbidden, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for employee: %s", req.PhoneNumber)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	log.Printf("[AUTH] Password verified for employee ID: %d", employee.ID)

	token, err := generateJWT(employee.ID, employee.Role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for employee %d: %v", employee.ID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	employee.PhoneNumber = req.PhoneNumber

	response := AuthResponse{
		Token:    token,
		Employee: employee,
	}

	log.Printf("[AUTH] Login successful for employee %d", employee.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Logout handles employee logout
// @Summary Logout employee
// @Description Logout employee and blacklist token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			// Blacklist token until its expiration
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// GetAccount retrieves employee account details from auth token
// @Summary Get employee account details
// @Description Get the authenticated employee's account information
// @Tags auth
// @Produce json
// @Success 200 {object} models.Employee "Employee account details"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/account [get]
func (s *AuthService) GetAccount(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Account request from IP: %s", r.RemoteAddr)

	userID := r.Context().Value("userID")
	if userID == nil {
		log.Printf("[AUTH] Unauthorized account request - no user ID in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	log.Printf("[AUTH] Fetching account details for employee ID: %v", userID)
	var employee models.Employee
	err := s.db.QueryRow("SELECT id, email, first_name, last_name, phone_number, role, active FROM employees WHERE id = $1",
		userID).Scan(&employee.ID, &employee.Email, &employee.FirstName, &employee.LastName, &employee.PhoneNumber, &employee.Role, &employee.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[AUTH] Employee not found for ID: %v", userID)
			http.Error(w, "Employee not found", http.StatusNotFound)
		} else {
			log.Printf("[AUTH] Failed to fetch employee details for ID %v: %v", userID, err)
			http.Error(w, "Failed to fetch employee details", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("[AUTH] Successfully fetched account details for employee: %s (ID: %d)", employee.Email, employee.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(employee)
}

func generateJWT(employeeID int, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": employeeID,
		"role":    role,
		"exp":     time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
