package changerequests

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/changerequest"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web/handler"
	authmiddleware "github.com/staffdesk/staffdesk/internal/web/middleware/auth"
)

const (
	// SubmitPath is the path for submitting a request against an employee.
	SubmitPath = "/employees/:id/requests"
	// Path is the base path of the change request endpoints.
	Path = "/change_requests"
)

// Service is the change request handler service.
type Service struct {
	handler.Service
	cfg      *config.Config
	db       *gorm.DB
	requests *changerequest.Service
}

// Handler is the change request handler.
var Handler = Service{}

// decideRequest is the decision body.
type decideRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// Init initializes the change request handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.requests = changerequest.NewService(db)

	app.Post(SubmitPath, authmiddleware.RequireAuth, s.Submit)
	app.Get(Path, authmiddleware.RequireAdmin, s.List)
	app.Patch(Path+"/:id", authmiddleware.RequireAdmin, s.Decide)

	return nil
}

// Submit creates a pending change request for the employee in the path.
func (s *Service) Submit(c *fiber.Ctx) error {
	current := authmiddleware.CurrentUser(c)

	employeeID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid employee id",
		})
	}

	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid request body",
		})
	}

	request, err := s.requests.Submit(current, employeeID, payload)

	switch {
	case errors.Is(err, changerequest.ErrInvalidPayload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})

	case errors.Is(err, changerequest.ErrEmployeeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "employee not found",
		})

	case errors.Is(err, changerequest.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": handler.MsgForbidden,
		})

	case err != nil:
		log.Error().Err(err).Msg("failed to submit change request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

// List returns change requests, optionally filtered with ?status=pending.
func (s *Service) List(c *fiber.Ctx) error {
	status := models.ChangeRequestStatus(c.Query("status"))

	switch status {
	case "", models.ChangeRequestPending, models.ChangeRequestApproved, models.ChangeRequestRejected:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid status filter",
		})
	}

	requests, err := s.requests.List(status)
	if err != nil {
		log.Error().Err(err).Msg("failed to list change requests")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.JSON(requests)
}

// Decide approves or rejects a pending request. Deciding a request twice
// fails with 409 and changes nothing.
func (s *Service) Decide(c *fiber.Ctx) error {
	current := authmiddleware.CurrentUser(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid change request id",
		})
	}

	var req decideRequest

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

	request, err := s.requests.Decide(id, models.ChangeRequestStatus(req.Decision), current.ID)

	switch {
	case errors.Is(err, changerequest.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "change request not found",
		})

	case errors.Is(err, changerequest.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "change request has already been decided",
		})

	case errors.Is(err, changerequest.ErrInvalidPayload):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": err.Error(),
		})

	case err != nil:
		log.Error().Err(err).Msg("failed to decide change request")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.JSON(request)
}
