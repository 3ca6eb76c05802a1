package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
)

// Environment is the process environment layer of the application settings.
// Values are kept raw; an empty string means the variable is unset.
type Environment struct {
	AppName           string `env:"APP_NAME"`
	AppEnv            string `env:"APP_ENV"`
	AppDebug          string `env:"APP_DEBUG"`
	AppURL            string `env:"APP_URL"`
	AppLocale         string `env:"APP_LOCALE"`
	AppFallbackLocale string `env:"APP_FALLBACK_LOCALE"`
	AppFakerLocale    string `env:"APP_FAKER_LOCALE"`

	AWSAccessKeyID          string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey      string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSDefaultRegion        string `env:"AWS_DEFAULT_REGION"`
	AWSBucket               string `env:"AWS_BUCKET"`
	AWSUsePathStyleEndpoint string `env:"AWS_USE_PATH_STYLE_ENDPOINT"`
	AWSEndpoint             string `env:"AWS_ENDPOINT"`

	UserRegistrationEnabled    string `env:"USER_REGISTRATION_ENABLED"`
	UserAccountDeletionEnabled string `env:"USER_ACCOUNT_DELETION_ENABLED"`
	FeatureTwoFactor           string `env:"FEATURE_TWO_FACTOR"`
	FeatureAppearanceSettings  string `env:"FEATURE_APPEARANCE_SETTINGS"`
	DefaultAppearance          string `env:"DEFAULT_APPEARANCE"`
	ShowPasswordToggle         string `env:"SHOW_PASSWORD_TOGGLE"`
	DisableWelcomePage         string `env:"DISABLE_WELCOME_PAGE"`
}

// EnvVar is a single named environment value.
type EnvVar struct {
	Name  string
	Value string
}

// LoadEnvironment reads the given dotenv files, skipping missing ones, and parses the environment.
// Variables already present in the process environment win over dotenv values.
func LoadEnvironment(files ...string) (Environment, error) {
	var e Environment

	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return e, pkgerrors.Wrapf(err, "failed to load env file %s", file)
		}
	}

	if err := env.Parse(&e); err != nil {
		return e, pkgerrors.Wrap(err, "failed to parse environment")
	}

	return e, nil
}

// Vars lists the environment layer in display order.
func (e Environment) Vars() []EnvVar {
	return []EnvVar{
		{"APP_NAME", e.AppName},
		{"APP_ENV", e.AppEnv},
		{"APP_DEBUG", e.AppDebug},
		{"APP_URL", e.AppURL},
		{"APP_LOCALE", e.AppLocale},
		{"APP_FALLBACK_LOCALE", e.AppFallbackLocale},
		{"APP_FAKER_LOCALE", e.AppFakerLocale},
		{"AWS_ACCESS_KEY_ID", e.AWSAccessKeyID},
		{"AWS_SECRET_ACCESS_KEY", e.AWSSecretAccessKey},
		{"AWS_DEFAULT_REGION", e.AWSDefaultRegion},
		{"AWS_BUCKET", e.AWSBucket},
		{"AWS_USE_PATH_STYLE_ENDPOINT", e.AWSUsePathStyleEndpoint},
		{"AWS_ENDPOINT", e.AWSEndpoint},
		{"USER_REGISTRATION_ENABLED", e.UserRegistrationEnabled},
		{"USER_ACCOUNT_DELETION_ENABLED", e.UserAccountDeletionEnabled},
		{"FEATURE_TWO_FACTOR", e.FeatureTwoFactor},
		{"FEATURE_APPEARANCE_SETTINGS", e.FeatureAppearanceSettings},
		{"DEFAULT_APPEARANCE", e.DefaultAppearance},
		{"SHOW_PASSWORD_TOGGLE", e.ShowPasswordToggle},
		{"DISABLE_WELCOME_PAGE", e.DisableWelcomePage},
	}
}

// Lookup returns the raw value of the named variable, or "" when unknown or unset.
func (e Environment) Lookup(name string) string {
	for _, v := range e.Vars() {
		if v.Name == name {
			return v.Value
		}
	}

	return ""
}
