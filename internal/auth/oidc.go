package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/uniuri"
)

// stateLen is the length of the random OIDC state token.
const stateLen = 32

// LoginChallenge is the per-login PKCE material produced by BeginLogin.
// It must be kept in the caller's session until the callback arrives.
type LoginChallenge struct {
	// URL is the provider's authorization endpoint with all parameters set.
	URL string
	// State is the CSRF token to match against the callback.
	State string
	// Verifier is the PKCE code verifier for the token exchange.
	Verifier string
}

// oidcClient wraps provider discovery, the authorization-code flow with PKCE
// and ID token verification for one upstream identity provider.
//
// Clients are constructed once at process start and injected into the
// adapters; there is no package-level provider state.
type oidcClient struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
}

// newOIDCClient discovers the provider and builds the OAuth2 configuration.
func newOIDCClient(ctx context.Context, cfg config.OIDCAuth) (*oidcClient, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return &oidcClient{
		provider: provider,
		verifier: verifier,
		oauth2:   oauth2Config,
	}, nil
}

// beginLogin creates PKCE material and the authorization URL.
func (c *oidcClient) beginLogin(opts ...oauth2.AuthCodeOption) LoginChallenge {
	state := uniuri.NewLen(stateLen)
	verifier := oauth2.GenerateVerifier()

	opts = append(opts, oauth2.S256ChallengeOption(verifier))

	return LoginChallenge{
		URL:      c.oauth2.AuthCodeURL(state, opts...),
		State:    state,
		Verifier: verifier,
	}
}

// exchange trades the authorization code plus PKCE verifier for tokens and
// returns the verified claim set together with the raw token.
func (c *oidcClient) exchange(ctx context.Context, code, verifier string) (NormalizedClaims, *oauth2.Token, error) {
	token, err := c.oauth2.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return NormalizedClaims{}, nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return NormalizedClaims{}, nil, ErrNoIDToken
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return NormalizedClaims{}, nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims struct {
		Sub        string `json:"sub"`
		Email      string `json:"email"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return NormalizedClaims{}, nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	normalized := NormalizedClaims{
		Subject:   claims.Sub,
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}

	if normalized.FirstName == "" && claims.Name != "" {
		normalized.FirstName = claims.Name
	}

	return normalized, token, nil
}

// refresh obtains a new access token using a refresh token.
func (c *oidcClient) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	tokenSource := c.oauth2.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
	})

	return tokenSource.Token()
}
