package models

import (
	"time"
)

// AuthProvider represents the login mechanism a user account authenticates with.
type AuthProvider string

const (
	// ProviderDirect indicates the user authenticates with a local username/password credential.
	ProviderDirect AuthProvider = "direct"
	// ProviderMicrosoft indicates the user authenticates via Microsoft OIDC.
	ProviderMicrosoft AuthProvider = "microsoft"
	// ProviderReplit indicates the user authenticates via the Replit OIDC provider.
	ProviderReplit AuthProvider = "replit"
)

// User represents one login identity. A user is created on first successful
// authentication via any provider and may be linked to an Employee record by
// email. The employee record is authoritative HR data and outlives the user.
type User struct {
	// ID is an opaque provider-prefixed identifier,
	// e.g. "direct_jane_1714989931", "replit_8f41c1d2".
	ID string `gorm:"primaryKey;size:191" json:"id"`
	// Email is unique across users but optional (a provider may not supply one).
	Email *string `gorm:"size:255;uniqueIndex" json:"email"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100" json:"firstName"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100" json:"lastName"`
	// AuthProvider indicates how this user authenticates (direct, microsoft or replit).
	AuthProvider AuthProvider `gorm:"type:varchar(20);not null;default:'direct'" json:"authProvider"`
	// IsAdmin marks a super-user. Operator-set only, never derived from a
	// provider callback, and bypasses all role checks.
	IsAdmin bool `gorm:"not null;default:false" json:"isAdmin"`
	// EmployeeID is a weak reference to the linked employee record.
	// The employee may outlive the user that references it.
	EmployeeID *uint64 `gorm:"index" json:"employeeId"`
	// ImpersonatingID is the employee an admin is currently viewing through.
	ImpersonatingID *uint64 `json:"impersonatingId,omitempty"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// EmailString returns the user's email or "" when none is set.
func (u *User) EmailString() string {
	if u.Email == nil {
		return ""
	}

	return *u.Email
}
