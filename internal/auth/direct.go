package auth

import (
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/db/controller/authsettings"
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// DirectProvider authenticates against the local credential store.
// Login is a single synchronous call; there is no callback leg.
type DirectProvider struct {
	db    *gorm.DB
	creds *CredentialStore
}

// NewDirectProvider creates a new direct authentication provider.
func NewDirectProvider(db *gorm.DB) *DirectProvider {
	return &DirectProvider{
		db:    db,
		creds: NewCredentialStore(db),
	}
}

// Login verifies the username/password pair and returns the owning user.
// The provider toggle is checked before the credential is touched.
func (p *DirectProvider) Login(username, password string) (*models.User, error) {
	settings, err := authsettings.Get(p.db)
	if err != nil {
		return nil, err
	}

	if !settings.DirectLoginEnabled {
		return nil, ErrProviderDisabled
	}

	return p.creds.Verify(username, password)
}

// Credentials exposes the underlying credential store for account management.
func (p *DirectProvider) Credentials() *CredentialStore {
	return p.creds
}

// CreateAccount creates a user plus credential for direct login.
func (p *DirectProvider) CreateAccount(username, email, password, firstName, lastName string, isAdmin bool) (*models.User, error) {
	user := models.User{
		ID:           DirectUserID(username),
		FirstName:    firstName,
		LastName:     lastName,
		AuthProvider: models.ProviderDirect,
		IsAdmin:      isAdmin,
	}

	if email != "" {
		user.Email = &email
	}

	if err := p.db.Create(&user).Error; err != nil {
		return nil, err
	}

	if _, err := p.creds.Create(user.ID, username, password); err != nil {
		// keep users and credentials consistent when the username is taken
		p.db.Delete(&user)
		return nil, err
	}

	return &user, nil
}
