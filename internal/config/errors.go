package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")

	// ErrUnknownCacheDriver error if config cache.driver is not supported.
	ErrUnknownCacheDriver = errors.New("toml config cache.driver must be memory or valkey")

	// ErrEmptyValkeyAddress error if the valkey driver is selected without an address.
	ErrEmptyValkeyAddress = errors.New("toml config cache.valkey.address can not be empty")
)
