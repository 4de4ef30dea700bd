package model

import (
	"errors"
	"time"
)

// User is an operator account.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleProduction = "production"
	RoleCashier    = "cashier"
)

// Roles lists every role from most to least privileged.
var Roles = []string{RoleAdmin, RoleManager, RoleProduction, RoleCashier}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ErrPasswordTooShort is returned by ValidatePassword.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:      4,
		RoleManager:    3,
		RoleProduction: 2,
		RoleCashier:    1,
	}
	r, m := levels[role], levels[minimum]
	return r > 0 && m > 0 && r >= m
}

// ValidRole reports whether role is known.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleProduction, RoleCashier:
		return true
	}
	return false
}

// ValidatePassword checks password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
