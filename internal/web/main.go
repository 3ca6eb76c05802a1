// Package web assembles the fiber application: templates, static files, middleware and handlers.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	fiberlog "github.com/panelkit/panelkit/internal/logger/adapter/fiber"
	"github.com/panelkit/panelkit/internal/web/handler"
	admindashboard "github.com/panelkit/panelkit/internal/web/handler/admin/dashboard"
	adminsettings "github.com/panelkit/panelkit/internal/web/handler/admin/settings"
	adminuser "github.com/panelkit/panelkit/internal/web/handler/admin/user"
	"github.com/panelkit/panelkit/internal/web/handler/appearance"
	"github.com/panelkit/panelkit/internal/web/handler/avatar"
	"github.com/panelkit/panelkit/internal/web/handler/dashboard"
	"github.com/panelkit/panelkit/internal/web/handler/login"
	"github.com/panelkit/panelkit/internal/web/handler/logout"
	"github.com/panelkit/panelkit/internal/web/handler/notification"
	"github.com/panelkit/panelkit/internal/web/handler/password"
	"github.com/panelkit/panelkit/internal/web/handler/profile"
	"github.com/panelkit/panelkit/internal/web/handler/register"
	"github.com/panelkit/panelkit/internal/web/handler/twofactor"
	"github.com/panelkit/panelkit/internal/web/middleware"
	"github.com/panelkit/panelkit/internal/web/session"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic, 503 while shutting down.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)

// Services lists every handler registered on the application.
func Services() []handler.Service {
	return []handler.Service{
		&dashboard.Handler,
		&login.Handler,
		&logout.Handler,
		&register.Handler,
		&password.Handler,
		&profile.Handler,
		&appearance.Handler,
		&twofactor.Handler,
		&avatar.Handler,
		&notification.Handler,
		&admindashboard.Handler,
		&adminuser.Handler,
		&adminsettings.Handler,
	}
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	deps         *handler.Deps
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the configured port.
func (s *Service) Start() error {
	var doneFiber = make(chan error, 1)

	addr := ":" + strconv.Itoa(s.deps.Cfg.Webserver.Port)

	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")

		err := s.App.Listen(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}

		doneFiber <- err
	}()

	return <-doneFiber
}

// WaitShutdown waits for SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.deps.Cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.deps.Cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers the liveness probe.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

func newTemplateEngine(devMode bool) *html.Engine {
	if devMode {
		engine := html.New("./internal/web/templates", ".gohtml")
		engine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")

		return engine
	}

	return html.NewFileSystem(assetDir("templates"), ".gohtml")
}

// New creates the web service with all handlers registered.
func New(deps *handler.Deps, sessions *session.Manager) (*Service, error) {
	if deps == nil || deps.Cfg == nil || sessions == nil {
		return nil, handler.ErrNilDeps
	}

	cfg := deps.Cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      avatar.MaxSize + 1<<20,
			Views:          newTemplateEngine(cfg.DevMode),
			ErrorHandler:   middleware.ErrorHandler(deps.Pages),
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		App:  app,
		deps: deps,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:   assetDir("static"),
				Browse: cfg.Webserver.BrowseStatic,
			},
		),
	)

	middleware.Use(app, deps, sessions)

	for _, svc := range Services() {
		if err := svc.Init(app, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}
