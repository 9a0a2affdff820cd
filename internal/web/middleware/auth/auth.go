package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web/handler/msauth"
	"github.com/staffdesk/staffdesk/internal/web/handler/replitauth"
	"github.com/staffdesk/staffdesk/internal/web/session"
)

// currentUserKey is the fiber.Ctx locals key the unifier stores the resolved
// identity under.
const currentUserKey = "current_user"

// ExpiredLoginError marks a session whose identity lapsed: an expired
// Microsoft login, or a Replit login whose refresh failed. The middleware
// answers it by sending the caller back through the provider's login leg,
// unlike an absent session which simply stays unauthenticated.
type ExpiredLoginError struct {
	Provider models.AuthProvider
}

func (e *ExpiredLoginError) Error() string {
	return fmt.Sprintf("%s login expired", e.Provider)
}

// LoginPath is the route that restarts authentication with the provider.
func (e *ExpiredLoginError) LoginPath() string {
	if e.Provider == models.ProviderReplit {
		return replitauth.LoginPath
	}

	return msauth.LoginPath
}

// Unifier resolves a session cookie into one CurrentUser regardless of which
// provider created the session. Providers are checked in a fixed order:
// direct, then Microsoft, then Replit. The first identity present wins and
// later ones are not consulted.
type Unifier struct {
	db      *gorm.DB
	service *auth.Service
	replit  *auth.ReplitProvider
	expiry  time.Duration
}

// NewUnifier creates a session unifier. replit may be nil when the Replit
// provider is not configured; refresh then degrades to re-authentication.
func NewUnifier(db *gorm.DB, replit *auth.ReplitProvider, expiry time.Duration) *Unifier {
	return &Unifier{
		db:      db,
		service: auth.NewService(db),
		replit:  replit,
		expiry:  expiry,
	}
}

// Resolve reads the session cookie and returns the authenticated requester.
// Returns auth.ErrUnauthenticated when there is no usable identity.
func (u *Unifier) Resolve(c *fiber.Ctx) (*auth.CurrentUser, error) {
	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return nil, auth.ErrUnauthenticated
	}

	data := new(session.Data)
	if err := data.Read(sessionID); err != nil {
		return nil, auth.ErrUnauthenticated
	}

	switch {
	case data.Direct != nil:
		return u.currentUser(data.Direct.UserID, models.ProviderDirect)

	case data.Microsoft != nil:
		// an expired Microsoft login is not refreshed; the user goes back
		// through the authorization flow
		if !data.Microsoft.ExpiresOn.IsZero() && time.Now().After(data.Microsoft.ExpiresOn) {
			return nil, &ExpiredLoginError{Provider: models.ProviderMicrosoft}
		}
		return u.currentUser(data.Microsoft.UserID, models.ProviderMicrosoft)

	case data.Replit != nil:
		if !data.Replit.ExpiresAt.IsZero() && time.Now().After(data.Replit.ExpiresAt) {
			if err := u.refreshReplit(c, sessionID, data); err != nil {
				return nil, &ExpiredLoginError{Provider: models.ProviderReplit}
			}
		}
		return u.currentUser(data.Replit.UserID, models.ProviderReplit)
	}

	return nil, auth.ErrUnauthenticated
}

// refreshReplit runs the refresh-token grant and rewrites the session in
// place. This is the only point where resolving a request mutates a session.
func (u *Unifier) refreshReplit(c *fiber.Ctx, sessionID string, data *session.Data) error {
	if u.replit == nil {
		return auth.ErrUnauthenticated
	}

	token, err := u.replit.Refresh(c.UserContext(), data.Replit.RefreshToken)
	if err != nil {
		return err
	}

	data.Replit.AccessToken = token.AccessToken
	data.Replit.ExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		data.Replit.RefreshToken = token.RefreshToken
	}

	if err := data.Write(sessionID, u.expiry); err != nil {
		log.Error().Err(err).Msg("failed to persist refreshed session")
		return err
	}

	return nil
}

func (u *Unifier) currentUser(userID string, provider models.AuthProvider) (*auth.CurrentUser, error) {
	var user models.User

	err := u.db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	current := &auth.CurrentUser{
		ID:           user.ID,
		IsAdmin:      user.IsAdmin,
		EmployeeID:   user.EmployeeID,
		AuthProvider: provider,
		User:         user,
	}

	if user.EmployeeID != nil {
		roles, err := u.service.RolesOf(*user.EmployeeID)
		if err != nil {
			return nil, err
		}
		current.Roles = roles
	}

	return current, nil
}

// Middleware resolves the requester once per request and stores the result in
// the request locals. Sessions that lapsed are redirected through their
// provider's login leg; requests without any session pass through and route
// guards decide whether that is acceptable.
func (u *Unifier) Middleware(c *fiber.Ctx) error {
	current, err := u.Resolve(c)
	if err == nil {
		c.Locals(currentUserKey, current)
		return c.Next()
	}

	var expired *ExpiredLoginError
	if errors.As(err, &expired) {
		return c.Redirect(expired.LoginPath(), fiber.StatusFound)
	}

	return c.Next()
}

// CurrentUser returns the identity the unifier stored for this request, or
// nil when the request is unauthenticated.
func CurrentUser(c *fiber.Ctx) *auth.CurrentUser {
	current, _ := c.Locals(currentUserKey).(*auth.CurrentUser)
	return current
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(c *fiber.Ctx) error {
	if CurrentUser(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	return c.Next()
}

// RequireAdmin rejects requests whose user does not carry the admin flag.
func RequireAdmin(c *fiber.Ctx) error {
	current := CurrentUser(c)
	if current == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	if !current.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden",
		})
	}

	return c.Next()
}

// RequireRole builds a guard that admits admins and holders of the named
// role.
func RequireRole(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current := CurrentUser(c)
		if current == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Unauthorized",
			})
		}

		if !current.IsAdmin && !current.HasRole(name) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Forbidden",
			})
		}

		return c.Next()
	}
}
