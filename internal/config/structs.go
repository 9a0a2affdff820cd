package config

import (
	"time"

	"github.com/staffdesk/staffdesk/internal/logger"
)

// Session settings.
type Session struct {
	// ExpiryTime is the absolute lifetime of a session and its cookie.
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Auth groups the login provider settings.
// Provider enablement at runtime is controlled by the auth_settings table;
// these entries carry the static upstream coordinates.
type Auth struct {
	Microsoft OIDCAuth
	Replit    OIDCAuth
}

// OIDCAuth holds the settings for one OIDC/OAuth2 login provider.
type OIDCAuth struct {
	// IssuerURL is the provider discovery URL
	// (e.g. "https://login.microsoftonline.com/<tenant>/v2.0").
	IssuerURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret (empty for public PKCE clients).
	ClientSecret string
	// RedirectURL is the OAuth2 callback URL.
	RedirectURL string
	// Scopes are the OAuth2 scopes to request (default: openid profile email).
	Scopes []string
}
