package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/db/models"
)

const whereUserID = "user_id = ?"

// CredentialStore manages username/password records for direct-provider users.
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore creates a new credential store.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Verify authenticates a username/password pair and returns the owning user.
//
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
// The enabled flag is checked after existence but before the hash compare,
// so a disabled credential rejects even a correct password.
func (s *CredentialStore) Verify(username, password string) (*models.User, error) {
	var cred models.Credential

	err := s.db.Where("username = ?", username).First(&cred).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	if !cred.IsEnabled {
		return nil, ErrAccountDisabled
	}

	if !cred.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	cred.LastLoginAt = &now

	if err = s.db.Save(&cred).Error; err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	var user models.User
	if err = s.db.First(&user, "id = ?", cred.UserID).Error; err != nil {
		return nil, fmt.Errorf("failed to load credential owner: %w", err)
	}

	return &user, nil
}

// Create stores a new credential for the given user.
func (s *CredentialStore) Create(userID, username, password string) (*models.Credential, error) {
	var existing models.Credential

	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateUsername
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing credential: %w", err)
	}

	cred := models.Credential{
		UserID:       userID,
		Username:     username,
		PasswordHash: models.HashPassword(password),
		IsEnabled:    true,
	}

	if err := s.db.Create(&cred).Error; err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return &cred, nil
}

// ChangePassword re-hashes and stores a new password for the user.
// Other active sessions of the user are not revoked.
func (s *CredentialStore) ChangePassword(userID, newPassword string) error {
	result := s.db.Model(&models.Credential{}).
		Where(whereUserID, userID).
		Updates(map[string]interface{}{
			"password_hash": models.HashPassword(newPassword),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to change password: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// VerifyCurrent checks the user's current password, for self-service password changes.
func (s *CredentialStore) VerifyCurrent(userID, password string) error {
	var cred models.Credential
	if err := s.db.Where(whereUserID, userID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}

		return fmt.Errorf("failed to query credential: %w", err)
	}

	if !cred.VerifyPassword(password) {
		return ErrInvalidOldPassword
	}

	return nil
}

// SetEnabled toggles login eligibility for the user's credential.
// Sessions established before the toggle are unaffected.
func (s *CredentialStore) SetEnabled(userID string, enabled bool) error {
	result := s.db.Model(&models.Credential{}).
		Where(whereUserID, userID).
		Update("is_enabled", enabled)
	if result.Error != nil {
		return fmt.Errorf("failed to toggle credential: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteForUser removes the user's credential rows. Called when the owning
// user account is deleted.
func (s *CredentialStore) DeleteForUser(userID string) error {
	return s.db.Where(whereUserID, userID).Delete(&models.Credential{}).Error
}
