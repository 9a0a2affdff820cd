package daemon

import (
	"context"
	"fmt"

	sessionmysql "github.com/gofiber/storage/mysql"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	"github.com/staffdesk/staffdesk/internal/db/dsn"
	"github.com/staffdesk/staffdesk/internal/db/models"
	"github.com/staffdesk/staffdesk/internal/web"
	"github.com/staffdesk/staffdesk/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	addr       string
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(d.addr)
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	dbDriver := gormmysql.Open(dsn.Create(cfg))

	db, err := gorm.Open(dbDriver, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Credential{},
		&models.Employee{},
		&models.Department{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.EmployeeRole{},
		&models.ChangeRequest{},
		&models.AuditLog{},
		&models.AuthSettings{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	// Initialize fiber session store
	sessionStorage := sessionmysql.New(sessionmysql.Config{
		ConnectionURI: dsn.Create(cfg),
		Table:         "sessions",
	})

	session.Init(sessionStorage)

	return &Daemon{
		webService: web.New(cfg, db, microsoftProvider(cfg, db), replitProvider(cfg, db)),
		addr:       fmt.Sprintf(":%d", cfg.Webserver.Port),
	}
}

// microsoftProvider builds the Microsoft OIDC adapter when an issuer is
// configured. Discovery talks to the issuer, so a misconfigured URL fails at
// boot rather than at first login.
func microsoftProvider(cfg *config.Config, db *gorm.DB) *auth.MicrosoftProvider {
	if cfg.Auth.Microsoft.IssuerURL == "" {
		log.Info().Msg("microsoft login not configured")
		return nil
	}

	provider, err := auth.NewMicrosoftProvider(context.Background(), cfg.Auth.Microsoft, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up microsoft login")
	}

	return provider
}

// replitProvider builds the Replit OIDC adapter when an issuer is configured.
func replitProvider(cfg *config.Config, db *gorm.DB) *auth.ReplitProvider {
	if cfg.Auth.Replit.IssuerURL == "" {
		log.Info().Msg("replit login not configured")
		return nil
	}

	provider, err := auth.NewReplitProvider(context.Background(), cfg.Auth.Replit, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up replit login")
	}

	return provider
}
