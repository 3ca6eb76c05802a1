package config

import (
	"time"

	"github.com/panelkit/panelkit/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Cache     Cache
	Media     Media
	Auth      Auth

	// EnvFiles are loaded with godotenv before the environment layer is parsed.
	EnvFiles []string
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool    // enable static file browsing (for development purposes only)
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	AssetVersion   string  // page bridge asset version, a mismatch forces a full reload
	Session        Session // session settings
}

// Cache selects the settings cache backend.
type Cache struct {
	Driver string // memory or valkey
	Valkey Valkey
}

// Valkey connection settings for the shared cache backend.
type Valkey struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Media holds the local avatar disk settings.
type Media struct {
	Root string // local disk root, used when no bucket is configured
}

// Auth holds login and confirmation settings.
type Auth struct {
	LoginMaxAttempts int           // failed logins allowed per email and ip
	LoginDecay       time.Duration // window for LoginMaxAttempts
	PasswordTimeout  time.Duration // how long a password confirmation stays valid
	TOTPIssuer       string        // issuer shown in authenticator apps, defaults to the app name
}
