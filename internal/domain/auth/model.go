// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/entity"
	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/id"
)

// Well-known roles. Station scoping is carried separately on the user.
const (
	RoleManager    = "manager"
	RolePompiste   = "pompiste"
	RoleAccountant = "accountant"
)

// User is a back-office account.
type User struct {
	entity.BaseEntity

	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	FirstName    string `db:"first_name" json:"firstName"`
	LastName     string `db:"last_name" json:"lastName"`

	IsActive bool `db:"is_active" json:"isActive"`
	IsAdmin  bool `db:"is_admin" json:"isAdmin"`

	Roles []string `db:"roles" json:"roles"`

	// StationIDs limits the user to specific stations; admins see all.
	StationIDs []id.ID `db:"station_ids" json:"stationIds"`

	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
}

// NewUser creates an active user without a password.
func NewUser(email, firstName, lastName string) *User {
	return &User{
		BaseEntity: entity.NewBaseEntity(),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		FirstName:  firstName,
		LastName:   lastName,
		IsActive:   true,
	}
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsLocked reports whether the account is temporarily locked out.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// StationIDStrings returns station IDs in string form for claims.
func (u *User) StationIDStrings() []string {
	out := make([]string, 0, len(u.StationIDs))
	for _, sid := range u.StationIDs {
		out = append(out, sid.String())
	}
	return out
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return apperror.NewValidation("valid email is required").
			WithDetail("field", "email")
	}
	if u.PasswordHash == "" {
		return apperror.NewValidation("password is required").
			WithDetail("field", "password")
	}
	return nil
}
