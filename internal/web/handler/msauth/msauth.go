package msauth

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
	// LoginPath starts the Microsoft authorization-code flow.
	LoginPath = "/login/microsoft"
	// CallbackPath receives the provider redirect. Registered for both GET
	// and POST because the form_post response mode delivers the code in a
	// form body.
	CallbackPath = "/auth/microsoft/callback"
)

// Service is the Microsoft login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	provider *auth.MicrosoftProvider
}

// Handler is the Microsoft login handler.
var Handler = Service{}

// Init initializes the Microsoft login handler. provider may be nil when the
// issuer is not configured; the routes then answer 403.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, provider *auth.MicrosoftProvider) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.provider = provider

	app.Get(LoginPath, s.Begin)
	app.Get(CallbackPath, s.Callback)
	app.Post(CallbackPath, s.Callback)

	return nil
}

// Begin generates PKCE material, parks it in a fresh session and redirects to
// the provider.
func (s *Service) Begin(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Microsoft login is not configured",
		})
	}

	challenge, err := s.provider.BeginLogin()
	if errors.Is(err, auth.ErrProviderDisabled) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Microsoft login is disabled",
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to begin microsoft login")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	data := new(session.Data)
	data.SetPending(string(models.ProviderMicrosoft), challenge.State, challenge.Verifier)

	if _, err := handler.EstablishSession(c, s.cfg, data); err != nil {
		log.Error().Err(err).Msg("failed to establish session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.Redirect(challenge.URL, fiber.StatusFound)
}

// Callback completes the flow: state is matched against the parked challenge,
// the code is exchanged and the session is rewritten with the Microsoft
// identity.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Microsoft login is not configured",
		})
	}

	code, state := callbackParams(c)

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
	if pending := data.TakePending(string(models.ProviderMicrosoft)); pending != nil {
		challenge = &auth.LoginChallenge{
			State:    pending.State,
			Verifier: pending.Verifier,
		}
	}

	login, err := s.provider.CompleteLogin(c.UserContext(), code, state, challenge)
	if errors.Is(err, auth.ErrInvalidState) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid login state",
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("microsoft login failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	// the fresh session holds only the Microsoft identity; the id issued
	// before authentication is discarded
	*data = session.Data{
		Microsoft: &session.MicrosoftIdentity{
			UserID:    login.User.ID,
			ExpiresOn: login.ExpiresOn,
		},
	}

	if _, err := handler.RotateSession(c, s.cfg, sessionID, data); err != nil {
		log.Error().Err(err).Msg("failed to rotate session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.Redirect(handler.RootPath, fiber.StatusFound)
}

// callbackParams reads code and state from the query or, for form_post, from
// the form body.
func callbackParams(c *fiber.Ctx) (code, state string) {
	code = c.Query("code")
	state = c.Query("state")

	if code == "" && c.Method() == fiber.MethodPost {
		code = c.FormValue("code")
		state = c.FormValue("state")
	}

	return code, state
}
