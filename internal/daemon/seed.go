package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/models"
)

// seed creates the initial admin account, the manager role with its baseline
// permissions and the provider toggle row. Each block only fires when its
// table is empty, so restarting never duplicates rows or resets passwords.
func seed(_ *config.Config, db *gorm.DB) {
	seedAdmin(db)
	seedManagerRole(db)
	seedAuthSettings(db)
}

func seedAdmin(db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	// password must be changed after first login
	direct := auth.NewDirectProvider(db)

	if _, err := direct.CreateAccount("admin", "", "changeme", "Admin", "", true); err != nil {
		log.Error().Err(err).Msg("failed to seed admin user")
		return
	}

	log.Info().Msg("seeded default admin user")
}

func seedManagerRole(db *gorm.DB) {
	var count int64

	db.Model(&models.Role{}).Count(&count)
	if count > 0 {
		return
	}

	role := models.Role{
		Name:        auth.RoleManager,
		Description: "Team lead: sees the team and proposes changes for direct reports",
		IsSystem:    true,
	}

	if err := db.Create(&role).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed manager role")
		return
	}

	permissions := []models.Permission{
		{
			Resource:    auth.ResourceEmployees,
			Action:      auth.ActionRead,
			Scope:       auth.ScopeTeam,
			Description: "Read employee records of direct reports",
		},
		{
			Resource:    auth.ResourceEmployees,
			Action:      auth.ActionUpdate,
			Scope:       auth.ScopeTeam,
			FieldLevel:  []byte(`{"position":true,"departmentId":true,"status":false}`),
			Description: "Propose position and department changes for direct reports",
		},
		{
			Resource:    auth.ResourceChangeRequests,
			Action:      auth.ActionCreate,
			Scope:       auth.ScopeTeam,
			Description: "Submit change requests for direct reports",
		},
	}

	for i := range permissions {
		if err := db.Create(&permissions[i]).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed permission")
			return
		}

		mapping := models.RolePermission{
			RoleID:       role.ID,
			PermissionID: permissions[i].ID,
		}

		if err := db.Create(&mapping).Error; err != nil {
			log.Error().Err(err).Msg("failed to seed role permission")
			return
		}
	}

	log.Info().Msg("seeded manager role")
}

func seedAuthSettings(db *gorm.DB) {
	var count int64

	db.Model(&models.AuthSettings{}).Count(&count)
	if count > 0 {
		return
	}

	settings := models.AuthSettings{
		DirectLoginEnabled:    true,
		MicrosoftLoginEnabled: true,
		ReplitLoginEnabled:    true,
	}

	if err := db.Create(&settings).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed auth settings")
	}
}
