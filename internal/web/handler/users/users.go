package users

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web/handler"
	authmiddleware "github.com/staffdesk/staffdesk/internal/web/middleware/auth"
)

const (
	// Path is the base path of the user management endpoints.
	Path = "/users"
)

// Service is the user management handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	creds *auth.CredentialStore
}

// Handler is the user management handler.
var Handler = Service{}

// changePasswordRequest is the password change body. CurrentPassword is
// required for self-service changes and ignored for admin changes.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// Init initializes the user management handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.creds = auth.NewCredentialStore(db)

	app.Post(Path+"/:id/change-password", authmiddleware.RequireAuth, s.ChangePassword)
	app.Post(Path+"/:id/toggle-status", authmiddleware.RequireAdmin, s.ToggleStatus)
	app.Delete(Path+"/:id", authmiddleware.RequireAdmin, s.Delete)

	return nil
}

// ChangePassword sets a new password for a direct-provider user. Admins may
// change any password; everyone else only their own, and only with the
// current password.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	current := authmiddleware.CurrentUser(c)
	targetID := c.Params("id")

	if !current.IsAdmin && current.ID != targetID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": handler.MsgForbidden,
		})
	}

	var req changePasswordRequest

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

	if !current.IsAdmin {
		err := s.creds.VerifyCurrent(targetID, req.CurrentPassword)
		if errors.Is(err, auth.ErrInvalidOldPassword) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "current password is incorrect",
			})
		}
		if err != nil {
			return s.credentialError(c, err, "failed to verify current password")
		}
	}

	if err := s.creds.ChangePassword(targetID, req.NewPassword); err != nil {
		return s.credentialError(c, err, "failed to change password")
	}

	return c.JSON(fiber.Map{
		"message": "password changed",
	})
}

// ToggleStatus flips the enabled flag of the user's credential. Sessions
// established before the flip keep working until they expire; only new
// logins are gated.
func (s *Service) ToggleStatus(c *fiber.Ctx) error {
	targetID := c.Params("id")

	var cred models.Credential

	err := s.db.Where("user_id = ?", targetID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "user not found",
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load credential")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	if err := s.creds.SetEnabled(targetID, !cred.IsEnabled); err != nil {
		return s.credentialError(c, err, "failed to toggle credential")
	}

	return c.JSON(fiber.Map{
		"enabled": !cred.IsEnabled,
	})
}

// Delete removes a user and their credentials. A linked employee record is
// kept; it simply no longer has a login.
func (s *Service) Delete(c *fiber.Ctx) error {
	current := authmiddleware.CurrentUser(c)
	targetID := c.Params("id")

	if current.ID == targetID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "cannot delete your own account",
		})
	}

	var user models.User

	err := s.db.Where("id = ?", targetID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "user not found",
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", targetID).Delete(&models.Credential{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to delete user")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": handler.MsgInternalError,
		})
	}

	return c.JSON(fiber.Map{
		"message": "user deleted",
	})
}

func (s *Service) credentialError(c *fiber.Ctx, err error, logMsg string) error {
	if errors.Is(err, auth.ErrUserNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "user not found",
		})
	}

	log.Error().Err(err).Msg(logMsg)

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": handler.MsgInternalError,
	})
}
