package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/web/handler"
	"github.com/staffdesk/staffdesk/internal/web/session"
)

const (
	// Path is the path of the direct login endpoint.
	Path = "/login/direct"
)

// Service is the direct login handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	provider *auth.DirectProvider
}

// Handler is the direct login handler.
var Handler = Service{}

// request is the login request body.
type request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Init initializes the direct login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.provider = auth.NewDirectProvider(db)

	app.Post(Path, s.Post)

	return nil
}

// Post handles the username/password login. All credential failures answer
// with the same generic message regardless of cause.
func (s *Service) Post(c *fiber.Ctx) error {
	var req request

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid request body",
		})
	}

	if msg := handler.Validate(&req); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": msg,
		})
	}

	user, err := s.provider.Login(req.Username, req.Password)

	switch {
	case errors.Is(err, auth.ErrProviderDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Direct login is disabled",
		})

	case errors.Is(err, auth.ErrAccountDisabled):
		// same body as a bad password; only the status differs
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": handler.MsgInvalidCredentials,
		})

	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": handler.MsgInvalidCredentials,
		})

	case err != nil:
		log.Error().Err(err).Msg("direct login failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	data := &session.Data{
		Direct: &session.DirectIdentity{
			UserID: user.ID,
		},
	}

	if _, err := handler.EstablishSession(c, s.cfg, data); err != nil {
		log.Error().Err(err).Msg("failed to establish session")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.JSON(fiber.Map{
		"user": handler.NewUserResponse(user),
	})
}
