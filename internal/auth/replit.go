package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/controller/authsettings"
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// ReplitProvider handles Replit OIDC login with refresh-token support.
// An expired access token is refreshed transparently on the next
// authenticated request; only when no refresh token is available or the
// grant fails is the caller sent back to re-authenticate.
type ReplitProvider struct {
	db       *gorm.DB
	client   *oidcClient
	resolver *Resolver
}

// ReplitLogin is the session identity a completed Replit login yields.
type ReplitLogin struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// NewReplitProvider discovers the Replit issuer and builds the provider.
func NewReplitProvider(ctx context.Context, cfg config.OIDCAuth, db *gorm.DB) (*ReplitProvider, error) {
	client, err := newOIDCClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &ReplitProvider{
		db:       db,
		client:   client,
		resolver: NewResolver(db),
	}, nil
}

// BeginLogin checks the provider toggle and generates the PKCE challenge.
// offline_access is requested so a refresh token is issued.
func (p *ReplitProvider) BeginLogin() (LoginChallenge, error) {
	settings, err := authsettings.Get(p.db)
	if err != nil {
		return LoginChallenge{}, err
	}

	if !settings.ReplitLoginEnabled {
		return LoginChallenge{}, ErrProviderDisabled
	}

	return p.client.beginLogin(oauth2.AccessTypeOffline), nil
}

// CompleteLogin validates state, exchanges the code and upserts the user
// keyed by "replit_<subject>".
func (p *ReplitProvider) CompleteLogin(ctx context.Context, code, state string, pending *LoginChallenge) (*ReplitLogin, error) {
	if pending == nil || pending.State == "" || pending.State != state {
		return nil, ErrInvalidState
	}

	claims, token, err := p.client.exchange(ctx, code, pending.Verifier)
	if err != nil {
		return nil, err
	}

	user, err := p.resolver.Upsert(models.ProviderReplit, claims)
	if err != nil {
		return nil, err
	}

	return &ReplitLogin{
		User:         user,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Refresh runs a refresh-token grant and returns the new token set.
// Returns ErrUnauthenticated when no refresh token is available or the
// upstream grant fails, so callers redirect to re-authentication instead of
// surfacing a bare 401.
func (p *ReplitProvider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	token, err := p.client.refresh(ctx, refreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	return token, nil
}
