package replitauth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web/handler"
	"github.com/staffdesk/staffdesk/internal/web/session"
)

const (
	// LoginPath starts the Replit authorization-code flow.
	LoginPath = "/replit/login"
	// CallbackPath receives the provider redirect.
	CallbackPath = "/replit/callback"
	// LogoutPath ends the session.
	LogoutPath = "/replit/logout"
)

// Service is the Replit login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	provider *auth.ReplitProvider
}

// Handler is the Replit login handler.
var Handler = Service{}

// Init initializes the Replit login handler. provider may be nil when the
// issuer is not configured; login and callback then answer 403.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, provider *auth.ReplitProvider) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.provider = provider

	app.Get(LoginPath, s.Begin)
	app.Get(CallbackPath, s.Callback)
	app.Get(LogoutPath, s.Logout)

	return nil
}

// Begin generates PKCE material, parks it in a fresh session and redirects to
// the provider.
func (s *Service) Begin(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Replit login is not configured",
		})
	}

	challenge, err := s.provider.BeginLogin()
	if errors.Is(err, auth.ErrProviderDisabled) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Replit login is disabled",
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to begin replit login")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	data := new(session.Data)
	data.SetPending(string(models.ProviderReplit), challenge.State, challenge.Verifier)

	if _, err := handler.EstablishSession(c, s.cfg, data); err != nil {
		log.Error().Err(err).Msg("failed to establish session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.Redirect(challenge.URL, fiber.StatusFound)
}

// Callback completes the flow and stores the Replit identity together with
// its token set, so expired access tokens can be refreshed later without
// another round trip through the provider UI.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Replit login is not configured",
		})
	}

	sessionID := c.Cookies(session.CookieName)
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid login state",
		})
	}

	data := new(session.Data)
	if err := data.Read(sessionID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid login state",
		})
	}

	var challenge *auth.LoginChallenge
	if pending := data.TakePending(string(models.ProviderReplit)); pending != nil {
		challenge = &auth.LoginChallenge{
			State:    pending.State,
			Verifier: pending.Verifier,
		}
	}

	login, err := s.provider.CompleteLogin(c.UserContext(), c.Query("code"), c.Query("state"), challenge)
	if errors.Is(err, auth.ErrInvalidState) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid login state",
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("replit login failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	*data = session.Data{
		Replit: &session.ReplitIdentity{
			UserID:       login.User.ID,
			AccessToken:  login.AccessToken,
			RefreshToken: login.RefreshToken,
			ExpiresAt:    login.ExpiresAt,
		},
	}

	// the id issued before authentication is discarded with the old session
	if _, err := handler.RotateSession(c, s.cfg, sessionID, data); err != nil {
		log.Error().Err(err).Msg("failed to rotate session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.Redirect(handler.RootPath, fiber.StatusFound)
}

// Logout destroys the session regardless of which provider created it.
func (s *Service) Logout(c *fiber.Ctx) error {
	if sessionID := c.Cookies(session.CookieName); sessionID != "" {
		if err := session.Destroy(sessionID); err != nil {
			log.Error().Err(err).Msg("failed to destroy session")
		}
	}

	handler.ClearSessionCookie(c, s.cfg)

	return c.Redirect(handler.RootPath, fiber.StatusFound)
}
