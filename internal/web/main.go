package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	recovermw "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/config"
	loggeradapter "github.com/staffdesk/staffdesk/internal/logger/adapter/fiber"
	"github.com/staffdesk/staffdesk/internal/web/handler/authsettings"
	"github.com/staffdesk/staffdesk/internal/web/handler/authuser"
	"github.com/staffdesk/staffdesk/internal/web/handler/changerequests"
	"github.com/staffdesk/staffdesk/internal/web/handler/login"
	"github.com/staffdesk/staffdesk/internal/web/handler/msauth"
	"github.com/staffdesk/staffdesk/internal/web/handler/replitauth"
	"github.com/staffdesk/staffdesk/internal/web/handler/users"
	authmiddleware "github.com/staffdesk/staffdesk/internal/web/middleware/auth"
	"github.com/staffdesk/staffdesk/internal/web/middleware/requestid"
)

// HealthzPath is the liveness endpoint.
const HealthzPath = "/healthz"

// MetricsPath is the Prometheus scrape endpoint.
const MetricsPath = "/metrics"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: report not-alive first, so the
	// LB removes this pod from active targets before the listener stops.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration. The OIDC
// providers may be nil when their issuer is not configured.
func New(cfg *config.Config, db *gorm.DB, microsoft *auth.MicrosoftProvider, replit *auth.ReplitProvider) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recovermw.New())
	}

	app.Use(requestid.New())

	app.Use(loggeradapter.New(loggeradapter.Config{
		Config:     cfg.Log,
		HealthzURI: HealthzPath,
	}))

	// resolve the requester once per request, whatever provider logged them in
	unifier := authmiddleware.NewUnifier(db, replit, cfg.Webserver.Session.ExpiryTime)
	app.Use(unifier.Middleware)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}

	service.fastShutDown = cfg.Webserver.ShutDownTime == 0

	// init handlers (they register their own routes and guards)
	if err := login.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	if err := msauth.Handler.Init(app, cfg, db, microsoft); err != nil {
		log.Fatal().Err(err).Msg("failed to init microsoft auth handler")
	}

	if err := replitauth.Handler.Init(app, cfg, db, replit); err != nil {
		log.Fatal().Err(err).Msg("failed to init replit auth handler")
	}

	if err := authuser.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init auth user handler")
	}

	if err := authsettings.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init auth settings handler")
	}

	if err := users.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init users handler")
	}

	if err := changerequests.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("failed to init change requests handler")
	}

	app.Get(HealthzPath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("ok")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	return service
}
