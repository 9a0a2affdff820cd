// Package authsettings manages the login provider toggle row.
//
// The auth_settings table is singleton-per-row: reads take the newest row,
// writes insert a new row. Toggles gate new logins only; sessions that are
// already established keep working until they expire.
package authsettings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/db/models"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Get retrieves the effective auth settings (latest row wins).
// A missing row means every provider is enabled.
func Get(db *gorm.DB) (*models.AuthSettings, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings models.AuthSettings

	result := db.Order("id DESC").First(&settings)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &models.AuthSettings{
				DirectLoginEnabled:    true,
				MicrosoftLoginEnabled: true,
				ReplitLoginEnabled:    true,
			}, nil
		}

		return nil, result.Error
	}

	return &settings, nil
}

// Set replaces the effective auth settings by inserting a new row.
func Set(db *gorm.DB, direct, microsoft, replit bool) (*models.AuthSettings, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	settings := &models.AuthSettings{
		DirectLoginEnabled:    direct,
		MicrosoftLoginEnabled: microsoft,
		ReplitLoginEnabled:    replit,
	}

	if result := db.Create(settings); result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}
