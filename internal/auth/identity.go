package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/uniuri"
)

// NormalizedClaims is the provider-agnostic identity shape every adapter
// produces from its native token or response format.
type NormalizedClaims struct {
	// Subject is the provider's stable identifier for the caller.
	Subject   string
	Email     string
	FirstName string
	LastName  string
}

// Resolver finds or creates the application user for a normalized claim set
// and links it to an employee record by email when one exists.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a new identity resolver.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// UserID builds the opaque provider-prefixed user id for a subject.
func UserID(provider models.AuthProvider, subject string) string {
	return fmt.Sprintf("%s_%s", provider, subject)
}

// DirectUserID builds the id for a new direct-provider user.
func DirectUserID(username string) string {
	return fmt.Sprintf("%s_%s_%d", models.ProviderDirect, username, time.Now().Unix())
}

// Upsert finds the user for the claim set, creating it on first login.
// Lookup order: provider-prefixed id, then email. IsAdmin is never touched
// here; a provider callback cannot self-escalate an account.
func (r *Resolver) Upsert(provider models.AuthProvider, claims NormalizedClaims) (*models.User, error) {
	if claims.Subject == "" {
		claims.Subject = uniuri.New()
	}

	id := UserID(provider, claims.Subject)

	var user models.User

	err := r.db.First(&user, "id = ?", id).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) && claims.Email != "" {
		// fall back to email so a user keeps one account across providers
		err = r.db.First(&user, "email = ?", claims.Email).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to query user by email: %w", err)
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ID:           id,
			FirstName:    claims.FirstName,
			LastName:     claims.LastName,
			AuthProvider: provider,
			IsAdmin:      false,
		}
		if claims.Email != "" {
			email := claims.Email
			user.Email = &email
		}

		if err = r.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	} else {
		if claims.Email != "" && user.EmailString() != claims.Email {
			email := claims.Email
			user.Email = &email
		}

		if claims.FirstName != "" {
			user.FirstName = claims.FirstName
		}

		if claims.LastName != "" {
			user.LastName = claims.LastName
		}
	}

	if err = r.linkEmployee(&user); err != nil {
		return nil, err
	}

	if err = r.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return &user, nil
}

// linkEmployee attaches the employee record matching the user's email and
// synchronizes profile fields from it. The employee is the source of truth
// for profile data; synchronization never flows the other way.
func (r *Resolver) linkEmployee(user *models.User) error {
	if user.EmployeeID == nil && user.Email != nil {
		var employee models.Employee

		err := r.db.First(&employee, "email = ?", *user.Email).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to look up employee: %w", err)
		}

		user.EmployeeID = &employee.ID
	}

	if user.EmployeeID == nil {
		return nil
	}

	var employee models.Employee
	if err := r.db.First(&employee, *user.EmployeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// employee was removed; keep the weak reference cleared
			user.EmployeeID = nil
			return nil
		}

		return fmt.Errorf("failed to load linked employee: %w", err)
	}

	user.FirstName = employee.FirstName
	user.LastName = employee.LastName

	if employee.Email != "" && user.EmailString() != employee.Email {
		email := employee.Email
		user.Email = &email
	}

	return nil
}
