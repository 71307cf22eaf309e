// Package user holds accounts, roles and the account forms.
package user

import (
	"time"

	"github.com/xenking/foodhub-client/internal/validate"
)

// Role decides which parts of the storefront a user can reach.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleProvider Role = "PROVIDER"
	RoleAdmin    Role = "ADMIN"
)

// Status is the account status an admin controls.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusSuspended
}

// User is an account as returned by the API and the auth service.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status,omitempty"`
	Image     string    `json:"image,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the signed-in user.
type Session struct {
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginForm signs a user in.
type LoginForm struct {
	Email    string `json:"email" validate:"email" msg:"Invalid email address"`
	Password string `json:"password" validate:"min=6" msg:"Password must be at least 6 characters"`
}

// Validate checks the form rules.
func (f LoginForm) Validate() error { return validate.Struct(f) }

// RegisterForm creates an account. Admins are never self-registered.
type RegisterForm struct {
	Name            string `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Email           string `json:"email" validate:"email" msg:"Invalid email address"`
	Password        string `json:"password" validate:"min=6" msg:"Password must be at least 6 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password" msg:"Passwords do not match"`
	Role            Role   `json:"role" validate:"oneof=CUSTOMER PROVIDER" msg:"Please select a role"`
	Image           string `json:"image,omitempty"`
}

// Validate checks the form rules.
func (f RegisterForm) Validate() error { return validate.Struct(f) }

// ChangePasswordForm replaces the password and revokes other sessions.
type ChangePasswordForm struct {
	CurrentPassword string `json:"currentPassword" validate:"required" msg:"Current password is required"`
	NewPassword     string `json:"newPassword" validate:"min=8" msg:"Password must be at least 8 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"min=8,eqfield=NewPassword" msg:"Passwords do not match" msg_min:"Password must be at least 8 characters"`
}

// Validate checks the form rules.
func (f ChangePasswordForm) Validate() error { return validate.Struct(f) }

// ProfileForm edits the display profile.
type ProfileForm struct {
	Name    string `json:"name" validate:"min=2" msg:"Name must be at least 2 characters"`
	Image   string `json:"image,omitempty" validate:"omitempty,url" msg:"Please enter a valid image URL"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Validate checks the form rules.
func (f ProfileForm) Validate() error { return validate.Struct(f) }
