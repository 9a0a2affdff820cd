package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// Credential holds the username/password record for a direct-provider user.
// Exactly one credential exists per direct user; it is deleted together with
// its owning user.
type Credential struct {
	ID uint64 `gorm:"primaryKey"`
	// UserID is the owning user (1:1).
	UserID string `gorm:"size:191;not null;uniqueIndex"`
	// Username is the unique login name.
	Username string `gorm:"size:100;not null;uniqueIndex"`
	// PasswordHash is the Argon2id hash of the password.
	PasswordHash string `gorm:"size:255;not null"`
	// IsEnabled gates login. A disabled credential rejects authentication
	// even with a correct password.
	IsEnabled   bool `gorm:"not null;default:true"`
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the database table name for the Credential model.
func (Credential) TableName() string {
	return "credentials"
}

// hashParams is the Argon2id baseline: 19 MiB memory, time cost 2.
var hashParams = &argon2id.Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, hashParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the stored hash.
// It uses constant-time comparison to prevent timing attacks.
func (c *Credential) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, c.PasswordHash)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
