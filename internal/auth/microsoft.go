package auth

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/controller/authsettings"
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// MicrosoftProvider handles Microsoft OIDC login with the authorization-code
// flow and PKCE. The client is constructed once at process start and injected
// here; its lifecycle is the process lifetime.
type MicrosoftProvider struct {
	db       *gorm.DB
	client   *oidcClient
	resolver *Resolver
}

// MicrosoftLogin is the session identity a completed Microsoft login yields.
type MicrosoftLogin struct {
	User *models.User
	// ExpiresOn bounds the validity of the login; requests after this time
	// are redirected back to BeginLogin.
	ExpiresOn time.Time
}

// NewMicrosoftProvider discovers the Microsoft issuer and builds the provider.
func NewMicrosoftProvider(ctx context.Context, cfg config.OIDCAuth, db *gorm.DB) (*MicrosoftProvider, error) {
	client, err := newOIDCClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &MicrosoftProvider{
		db:       db,
		client:   client,
		resolver: NewResolver(db),
	}, nil
}

// BeginLogin checks the provider toggle, generates PKCE material and returns
// the challenge to store in the session before redirecting.
func (p *MicrosoftProvider) BeginLogin() (LoginChallenge, error) {
	settings, err := authsettings.Get(p.db)
	if err != nil {
		return LoginChallenge{}, err
	}

	if !settings.MicrosoftLoginEnabled {
		return LoginChallenge{}, ErrProviderDisabled
	}

	return p.client.beginLogin(), nil
}

// CompleteLogin validates the callback state against the stored challenge,
// exchanges the code and upserts the user.
func (p *MicrosoftProvider) CompleteLogin(ctx context.Context, code, state string, pending *LoginChallenge) (*MicrosoftLogin, error) {
	if pending == nil || pending.State == "" || pending.State != state {
		return nil, ErrInvalidState
	}

	claims, token, err := p.client.exchange(ctx, code, pending.Verifier)
	if err != nil {
		return nil, err
	}

	user, err := p.resolver.Upsert(models.ProviderMicrosoft, claims)
	if err != nil {
		return nil, err
	}

	return &MicrosoftLogin{
		User:      user,
		ExpiresOn: token.Expiry,
	}, nil
}
