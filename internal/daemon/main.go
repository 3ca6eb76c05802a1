// Package daemon assembles the application services and runs the web server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/panelkit/panelkit/internal/activity"
	"github.com/panelkit/panelkit/internal/appconfig"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/cache"
	"github.com/panelkit/panelkit/internal/config"
	"github.com/panelkit/panelkit/internal/db/controller/setting"
	"github.com/panelkit/panelkit/internal/db/dsn"
	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/feature"
	"github.com/panelkit/panelkit/internal/logger/adapter/stdlogger"
	"github.com/panelkit/panelkit/internal/media"
	"github.com/panelkit/panelkit/internal/notification"
	"github.com/panelkit/panelkit/internal/validation"
	"github.com/panelkit/panelkit/internal/web"
	"github.com/panelkit/panelkit/internal/web/handler"
	"github.com/panelkit/panelkit/internal/web/inertia"
	"github.com/panelkit/panelkit/internal/web/session"
)

// ErrConfigNil is returned when no configuration was given.
var ErrConfigNil = errors.New("config is nil")

const (
	// CacheDriverMemory keeps settings in process memory.
	CacheDriverMemory = "memory"
	// CacheDriverValkey shares settings between instances through valkey.
	CacheDriverValkey = "valkey"

	sessionTable      = "sessions"
	slowQueryDuration = 200 * time.Millisecond
)

// Daemon represents the main application daemon.
type Daemon struct {
	webService *web.Service
	res        *resources
}

// resources are the handles opened while assembling the daemon.
type resources struct {
	db       *gorm.DB
	cache    cache.Cache
	sessions fiber.Storage

	once sync.Once
}

// release closes every opened handle once, newest first.
func (r *resources) release() {
	r.once.Do(func() {
		if r.sessions != nil {
			if err := r.sessions.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close session storage")
			}
		}

		if r.cache != nil {
			if err := r.cache.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close settings cache")
			}
		}

		if r.db != nil {
			if err := closeDB(r.db); err != nil {
				log.Error().Err(err).Msg("failed to close database")
			}
		}
	})
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Start runs the web service until a shutdown signal was handled or listening failed.
func (d *Daemon) Start() error {
	defer d.close()

	errCh := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		errCh <- d.webService.Start()
	}()

	go func() {
		d.webService.WaitShutdown()
		close(done)
	}()

	if err := <-errCh; err != nil {
		return err
	}

	<-done

	return nil
}

func (d *Daemon) close() {
	d.res.release()
}

// OpenDB connects to the configured database and migrates the schema.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.DevMode {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(stdlogger.New("gorm"), gormlogger.Config{
			SlowThreshold:             slowQueryDuration,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = models.Migrate(db); err != nil {
		if closeErr := closeDB(db); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close database")
		}

		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// NewCache creates the configured settings cache backend.
func NewCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Driver {
	case CacheDriverMemory, "":
		return cache.Instrument(cache.NewMemory(), CacheDriverMemory), nil
	case CacheDriverValkey:
		v, err := cache.NewValkey(cache.ValkeyConfig{
			Address:        cfg.Cache.Valkey.Address,
			Password:       cfg.Cache.Valkey.Password,
			DB:             cfg.Cache.Valkey.DB,
			KeyPrefix:      cfg.Cache.Valkey.KeyPrefix,
			ConnectTimeout: cfg.Cache.Valkey.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}

		return cache.Instrument(v, CacheDriverValkey), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownCacheDriver, cfg.Cache.Driver)
	}
}

// NewSessionStorage creates the session storage for the configured database engine.
// SQLite deployments keep sessions in memory.
func NewSessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL, "":
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.CreatePostgres(cfg),
			Table:         sessionTable,
		})
	default:
		log.Warn().Str("engine", cfg.DB.GormEngine).Msg("sessions are kept in memory")

		return memory.New()
	}
}

// New creates a new Daemon instance with the provided configuration. The settings runtime
// is seeded before the web service is built. Handles opened before a failure are closed.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	res := &resources{}

	d, err := assemble(ctx, cfg, res)
	if err != nil {
		res.release()

		return nil, err
	}

	return d, nil
}

// assemble builds the daemon, recording every opened handle in res.
func assemble(ctx context.Context, cfg *config.Config, res *resources) (*Daemon, error) {
	env, err := config.LoadEnvironment(cfg.EnvFiles...)
	if err != nil {
		return nil, err
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	res.db = db

	settingsCache, err := NewCache(cfg)
	if err != nil {
		return nil, err
	}

	res.cache = settingsCache

	authService := auth.NewService(db)
	activityLogger := activity.NewLogger(db)
	users := auth.NewLocalProvider(db, activityLogger)

	if err = seed(ctx, cfg, authService, users); err != nil {
		return nil, err
	}

	store := setting.NewStore(db, settingsCache)
	settingsService := appconfig.NewService(store, env, appconfig.NewRuntime())

	disks := media.NewManager(media.NewLocalDisk(cfg.Media.Root), env.AWSEndpoint)
	disks.Watch(settingsService.Runtime())

	resolved, err := settingsService.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	log.Info().
		Str("app", resolved.AppName).
		Bool("debug", resolved.AppDebug).
		Str("disk", disks.Default().Name()).
		Msg("settings loaded")

	issuer := cfg.Auth.TOTPIssuer
	if issuer == "" {
		issuer = resolved.AppName
	}

	deps := &handler.Deps{
		Cfg:           cfg,
		Env:           env,
		DB:            db,
		Pages:         inertia.New(cfg.Webserver.AssetVersion),
		Store:         store,
		Settings:      settingsService,
		Features:      feature.NewGate(settingsService.Runtime()),
		Auth:          authService,
		Users:         users,
		TwoFactor:     auth.NewTwoFactor(users, issuer),
		Throttle:      auth.NewThrottle(int64(cfg.Auth.LoginMaxAttempts), cfg.Auth.LoginDecay),
		Activity:      activityLogger,
		Notifications: notification.NewService(db),
		Media:         media.NewService(db, disks),
		Validator:     validation.New(),
	}

	res.sessions = NewSessionStorage(cfg)

	sessions, err := session.NewManager(res.sessions, cfg.Webserver.Session.ExpiryTime, cfg.DevMode)
	if err != nil {
		return nil, err
	}

	webService, err := web.New(deps, sessions)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		webService: webService,
		res:        res,
	}, nil
}
