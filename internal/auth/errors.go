package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong
	// password. The two cases are deliberately indistinguishable to the
	// caller to prevent username enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled is returned when authenticating a disabled credential.
	// Client-facing handlers map this to the same generic message as
	// ErrInvalidCredentials; the distinct value exists for logging and tests.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrDuplicateUsername is returned when creating a credential with a username that is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrProviderDisabled is returned when a login provider is switched off in the auth settings.
	ErrProviderDisabled = errors.New("login provider is disabled")

	// ErrInvalidState is returned when an OIDC callback arrives without a matching
	// PKCE state in the session (expired session or CSRF).
	ErrInvalidState = errors.New("invalid or missing oidc state")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrUnauthenticated is returned when no provider yields a valid session identity.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden is returned when a role or ownership check failed.
	ErrForbidden = errors.New("forbidden")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidOldPassword is returned when the provided current password does not match.
	ErrInvalidOldPassword = errors.New("invalid current password")
)
