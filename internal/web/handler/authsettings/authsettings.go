package authsettings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/controller/authsettings"
	"github.com/staffdesk/staffdesk/internal/web/handler"
	authmiddleware "github.com/staffdesk/staffdesk/internal/web/middleware/auth"
)

const (
	// Path is the path of the auth settings endpoint.
	Path = "/auth/settings"
)

// Service is the auth settings handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the auth settings handler.
var Handler = Service{}

// request is the settings update body. Pointers distinguish "leave as is"
// from an explicit false.
type request struct {
	DirectLoginEnabled    *bool `json:"directLoginEnabled"`
	MicrosoftLoginEnabled *bool `json:"microsoftLoginEnabled"`
	ReplitLoginEnabled    *bool `json:"replitLoginEnabled"`
}

// Init initializes the auth settings handler. Both routes are admin-only.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, authmiddleware.RequireAdmin, s.Get)
	app.Post(Path, authmiddleware.RequireAdmin, s.Post)

	return nil
}

// Get returns the effective provider toggles.
func (s *Service) Get(c *fiber.Ctx) error {
	settings, err := authsettings.Get(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to read auth settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.JSON(settings)
}

// Post updates the provider toggles. Omitted fields keep their current
// value. Disabling a provider only gates new logins; established sessions
// keep working until they expire.
func (s *Service) Post(c *fiber.Ctx) error {
	var req request

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid request body",
		})
	}

	current, err := authsettings.Get(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to read auth settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	direct := current.DirectLoginEnabled
	if req.DirectLoginEnabled != nil {
		direct = *req.DirectLoginEnabled
	}

	microsoft := current.MicrosoftLoginEnabled
	if req.MicrosoftLoginEnabled != nil {
		microsoft = *req.MicrosoftLoginEnabled
	}

	replit := current.ReplitLoginEnabled
	if req.ReplitLoginEnabled != nil {
		replit = *req.ReplitLoginEnabled
	}

	settings, err := authsettings.Set(s.db, direct, microsoft, replit)
	if err != nil {
		log.Error().Err(err).Msg("failed to write auth settings")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.JSON(settings)
}
