package models

import "time"

// Employee roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

type Employee struct {
	ID                  int    `json:"id" example:"1"`                       // Employee ID
	Email               string `json:"email" example:"awa@boutik.shop"`      // Employee email
	FirstName           string `json:"FirstName" example:"Awa"`              // Employee first name
	LastName            string `json:"LastName" example:"Diallo"`            // Employee last name
	PhoneNumber         string `json:"PhoneNumber" example:"+221771234567"` // Employee phone number
	Role                string `json:"role" example:"cashier"`               // admin, manager or cashier
	Active              bool   `json:"active"`
	FailedLoginAttempts int    `json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}
