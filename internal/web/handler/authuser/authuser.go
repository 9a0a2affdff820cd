package authuser

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web/handler"
	authmiddleware "github.com/staffdesk/staffdesk/internal/web/middleware/auth"
)

const (
	// Path is the path of the current-user endpoint.
	Path = "/auth/user"
)

// Service is the current-user handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the current-user handler.
var Handler = Service{}

// Init initializes the current-user handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, s.Get)

	return nil
}

// Get returns the authenticated requester, enriched with department and
// position from the linked employee record when one exists.
func (s *Service) Get(c *fiber.Ctx) error {
	current := authmiddleware.CurrentUser(c)
	if current == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": handler.MsgUnauthorized,
		})
	}

	resp := handler.NewCurrentUserResponse(current)

	if current.EmployeeID != nil {
		var employee models.Employee

		err := s.db.Preload("Department").
			Where("id = ?", *current.EmployeeID).
			First(&employee).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Msg("failed to load linked employee")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": handler.MsgInternalError,
			})
		}

		if err == nil {
			resp.Position = employee.Position
			if employee.Department != nil {
				resp.Department = employee.Department.Name
			}
		}
	}

	return c.JSON(resp)
}
