package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/boutikpay/backend/internal/models"
)

type EmployeeService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// EmployeeRequest represents an employee creation request
type EmployeeRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"firstName" validate:"required,min=2"`
	LastName    string `json:"lastName" validate:"required,min=2"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Role        string `json:"role" validate:"required,oneof=admin manager cashier"`
}

// RoleChangeRequest represents a role change request
type RoleChangeRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager cashier"`
}

func NewEmployeeService(db *sql.DB) *EmployeeService {
	return &EmployeeService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// CreateEmployee creates a new employee account
// @Summary Create employee
// @Description Create a new employee account (admin only)
// @Tags employees
// @Accept json
// @Produce json
// @Param employee body EmployeeRequest true "Employee data"
// @Success 201 {object} models.Employee
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /employees [post]
func (es *EmployeeService) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req EmployeeRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := es.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[EMPLOYEE] Password hashing failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	employee := models.Employee{
		Email:       strings.ToLower(req.Email),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		Active:      true,
	}

	err = es.db.QueryRow(`
		INSERT INTO employees (email, password, first_name, last_name, phone_number, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE) RETURNING id, created_at, updated_at`,
		employee.Email, hashedPassword, req.FirstName, req.LastName, req.PhoneNumber, req.Role).
		Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		log.Printf("[EMPLOYEE] Creation failed for %s: %v", req.Email, err)
		SendErrorResponse(w, "Email or phone number already exists", http.StatusConflict, nil)
		return
	}

	log.Printf("[EMPLOYEE] Created employee %d (%s, %s)", employee.ID, employee.Email, employee.Role)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(employee)
}

// ListEmployees lists all employees
// @Summary List employees
// @Tags employees
// @Produce json
// @Success 200 {object} object{employees=[]models.Employee,count=int}
// @Failure 500 {object} map[string]string
// @Router /employees [get]
func (es *EmployeeService) ListEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := es.db.Query(`
		SELECT id, email, first_name, last_name, phone_number, role, active, last_login, created_at, updated_at
		FROM employees ORDER BY last_name, first_name`)
	if err != nil {
		log.Printf("[EMPLOYEE] Failed to list employees: %v", err)
		http.Error(w, "Failed to fetch employees", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Email, &e.FirstName, &e.LastName, &e.PhoneNumber,
			&e.Role, &e.Active, &e.LastLogin, &e.CreatedAt, &e.UpdatedAt); err != nil {
			http.Error(w, "Failed to fetch employees", http.StatusInternalServerError)
			return
		}
		employees = append(employees, e)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"employees": employees,
		"count":     len(employees),
	})
}

// GetEmployee retrieves an employee
// @Summary Get employee by ID
// @Tags employees
// @Produce json
// @Param employeeId path int true "Employee ID"
// @Success 200 {object} models.Employee
// @Failure 404 {object} map[string]string
// @Router /employees/{employeeId} [get]
func (es *EmployeeService) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "employeeId"))
	if err != nil {
		http.Error(w, "Invalid employee ID", http.StatusBadRequest)
		return
	}

	var e models.Employee
	err = es.db.QueryRow(`
		SELECT id, email, first_name, last_name, phone_number, role, active, last_login, created_at, updated_at
		FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Email, &e.FirstName, &e.LastName, &e.PhoneNumber,
			&e.Role, &e.Active, &e.LastLogin, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "Employee not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch employee", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(e)
}

// DeactivateEmployee deactivates an employee account
// @Summary Deactivate employee
// @Description Deactivate an employee account to block logins
// @Tags employees
// @Produce json
// @Param employeeId path int true "Employee ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /employees/{employeeId}/deactivate [put]
func (es *EmployeeService) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	es.setActive(w, r, false, "deactivated")
}

// ReinstateEmployee reactivates a deactivated employee account
// @Summary Reinstate employee
// @Tags employees
// @Produce json
// @Param employeeId path int true "Employee ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /employees/{employeeId}/reinstate [put]
func (es *EmployeeService) ReinstateEmployee(w http.ResponseWriter, r *http.Request) {
	es.setActive(w, r, true, "active")
}

// ChangeRole changes an employee's role
// @Summary Change employee role
// @Tags employees
// @Accept json
// @Produce json
// @Param employeeId path int true "Employee ID"
// @Param role body RoleChangeRequest true "New role"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} map[string]string
// @Router /employees/{employeeId}/role [put]
func (es *EmployeeService) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "employeeId"))
	if err != nil {
		http.Error(w, "Invalid employee ID", http.StatusBadRequest)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RoleChangeRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := es.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := es.db.Exec(`UPDATE employees SET role = $1, updated_at = $2 WHERE id = $3`,
		req.Role, time.Now(), id)
	if err != nil {
		http.Error(w, "Failed to change role", http.StatusInternalServerError)
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		http.Error(w, "Employee not found", http.StatusNotFound)
		return
	}

	log.Printf("[EMPLOYEE] Changed role for employee %d to %s", id, req.Role)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"employeeId": strconv.Itoa(id), "role": req.Role})
}

func (es *EmployeeService) setActive(w http.ResponseWriter, r *http.Request, active bool, status string) {
	id, err := strconv.Atoi(chi.URLParam(r, "employeeId"))
	if err != nil {
		http.Error(w, "Invalid employee ID", http.StatusBadRequest)
		return
	}

	result, err := es.db.Exec(`UPDATE employees SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), id)
	if err != nil {
		http.Error(w, "Failed to update employee", http.StatusInternalServerError)
		return
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		http.Error(w, "Employee not found", http.StatusNotFound)
		return
	}

	log.Printf("[EMPLOYEE] Employee %d is now %s", id, status)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"employeeId": strconv.Itoa(id), "status": status})
}
