// Package config handles input from etc/*.toml files and the process environment.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// JSONOverrideEnv names the environment variable holding a JSON config overlay.
const JSONOverrideEnv = "PANELKIT_CONFIG_JSON"

const (
	defaultShutDownTime     = 5
	defaultSessionExpiry    = 2 * time.Hour
	defaultLoginMaxAttempts = 5
	defaultLoginDecay       = time.Minute
	defaultPasswordTimeout  = 3 * time.Hour
	defaultMediaRoot        = "./storage/media"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(JSONOverrideEnv)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+JSONOverrideEnv)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings needed to boot and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineMySQL
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	switch c.Cache.Driver {
	case "":
		c.Cache.Driver = "memory"
	case "memory":
	case "valkey":
		if c.Cache.Valkey.Address == "" {
			return errors.Wrap(ErrEmptyValkeyAddress, invalidErrMessage)
		}
	default:
		return errors.Wrap(ErrUnknownCacheDriver, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Auth.LoginMaxAttempts == 0 {
		c.Auth.LoginMaxAttempts = defaultLoginMaxAttempts
	}

	if c.Auth.LoginDecay == 0 {
		c.Auth.LoginDecay = defaultLoginDecay
	}

	if c.Auth.PasswordTimeout == 0 {
		c.Auth.PasswordTimeout = defaultPasswordTimeout
	}

	if c.Media.Root == "" {
		c.Media.Root = defaultMediaRoot
	}

	return nil
}
