package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// EmployeeRole represents a staff member's role inside an academy.
type EmployeeRole string

const (
	RoleDirector EmployeeRole = "DIRECTOR"
	RoleManager  EmployeeRole = "MANAGER"
	RoleTeacher  EmployeeRole = "TEACHER"
)

// CanManageAdmission reports whether the role may mutate enrollments,
// waitlists, discounts and payments. Teaching staff are read-only.
func (r EmployeeRole) CanManageAdmission() bool {
	return r == RoleDirector || r == RoleManager
}

// Employee is a staff account scoped to one academy.
type Employee struct {
	ID           string       `db:"id" json:"id"`
	AcademyID    string       `db:"academy_id" json:"academy_id"`
	Account      string       `db:"account" json:"account"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Name         string       `db:"name" json:"name"`
	Role         EmployeeRole `db:"role" json:"role"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
	RetiredAt    *time.Time   `db:"retired_at" json:"-"`
}

// Principal is the authenticated staff identity resolved once per
// request and passed explicitly into every service call.
type Principal struct {
	EmployeeID string       `json:"employee_id"`
	AcademyID  string       `json:"academy_id"`
	Account    string       `json:"account"`
	Role       EmployeeRole `json:"role"`
}

// LoginRequest holds credentials for authenticating an employee.
type LoginRequest struct {
	Account  string `json:"account" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and employee info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Employee    Principal `json:"employee"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	EmployeeID string       `json:"employee_id"`
	AcademyID  string       `json:"academy_id"`
	Account    string       `json:"account"`
	Role       EmployeeRole `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts claims into the request-scoped principal value.
func (c *JWTClaims) Principal() Principal {
	return Principal{
		EmployeeID: c.EmployeeID,
		AcademyID:  c.AcademyID,
		Account:    c.Account,
		Role:       c.Role,
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
