package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/boutikpay/backend/internal/models"
)

func TestEmployeeService_CreateEmployee(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()

	service := NewEmployeeService(db)

	t.Run("successful creation", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery("INSERT INTO employees").
			WithArgs("ibrahima@boutik.shop", sqlmock.AnyArg(), "Ibrahima", "Fall", "+221770000010", models.RoleManager).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(4, now, now))

		body, _ := json.Marshal(EmployeeRequest{
			Email:       "Ibrahima@boutik.shop",
			Password:    "password123",
			FirstName:   "Ibrahima",
			LastName:    "Fall",
			PhoneNumber: "+221770000010",
			Role:        models.RoleManager,
		})
		r := httptest.NewRequest("POST", "/employees", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateEmployee(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var employee models.Employee
		json.Unmarshal(w.Body.Bytes(), &employee)
		assert.Equal(t, 4, employee.ID)
		assert.Equal(t, "ibrahima@boutik.shop", employee.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing role fails validation", func(t *testing.T) {
		body, _ := json.Marshal(EmployeeRequest{
			Email:       "x@boutik.shop",
			Password:    "password123",
			FirstName:   "Test",
			LastName:    "Person",
			PhoneNumber: "+221770000011",
		})
		r := httptest.NewRequest("POST", "/employees", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateEmployee(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEmployeeService_Deactivation(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewEmployeeService(db)

	t.Run("deactivate blocks the account", func(t *testing.T) {
		mock.ExpectExec("UPDATE employees SET active").
			WithArgs(false, sqlmock.AnyArg(), 4).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		service.DeactivateEmployee(w, requestWithURLParam("PUT", "/employees/4/deactivate", "employeeId", "4"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"deactivated"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reinstate restores access", func(t *testing.T) {
		mock.ExpectExec("UPDATE employees SET active").
			WithArgs(true, sqlmock.AnyArg(), 4).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := httptest.NewRecorder()
		service.ReinstateEmployee(w, requestWithURLParam("PUT", "/employees/4/reinstate", "employeeId", "4"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"active"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown employee", func(t *testing.T) {
		mock.ExpectExec("UPDATE employees SET active").
			WithArgs(false, sqlmock.AnyArg(), 999).
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := httptest.NewRecorder()
		service.DeactivateEmployee(w, requestWithURLParam("PUT", "/employees/999/deactivate", "employeeId", "999"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEmployeeService_ChangeRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewEmployeeService(db)

	t.Run("promote cashier to manager", func(t *testing.T) {
		mock.ExpectExec("UPDATE employees SET role").
			WithArgs(models.RoleManager, sqlmock.AnyArg(), 4).
			WillReturnResult(sqlmock.NewResult(0, 1))

		body, _ := json.Marshal(RoleChangeRequest{Role: models.RoleManager})
		r := requestWithURLParamAndBody("PUT", "/employees/4/role", "employeeId", "4", body)
		w := httptest.NewRecorder()

		service.ChangeRole(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		body, _ := json.Marshal(RoleChangeRequest{Role: "owner"})
		r := requestWithURLParamAndBody("PUT", "/employees/4/role", "employeeId", "4", body)
		w := httptest.NewRecorder()

		service.ChangeRole(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
