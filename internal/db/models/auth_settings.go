package models

import "time"

// AuthSettings toggles the login providers. Singleton-per-row: the latest
// row wins. Toggles gate new logins only; established sessions are untouched.
type AuthSettings struct {
	ID                    uint64    `gorm:"primaryKey" json:"id"`
	DirectLoginEnabled    bool      `gorm:"not null;default:true" json:"directLoginEnabled"`
	MicrosoftLoginEnabled bool      `gorm:"not null;default:true" json:"microsoftLoginEnabled"`
	ReplitLoginEnabled    bool      `gorm:"not null;default:true" json:"replitLoginEnabled"`
	CreatedAt             time.Time `json:"createdAt"`
}

// TableName specifies the database table name for the AuthSettings model.
func (AuthSettings) TableName() string {
	return "auth_settings"
}
