// Package appconfig resolves the effective application configuration from persisted settings,
// the process environment and literal defaults, and holds the live copy used at request time.
package appconfig

// Setting keys resolved by the policy.
const (
	KeyAppName           = "app.name"
	KeyAppURL            = "app.url"
	KeyAppDebug          = "app.debug"
	KeyAppLocale         = "app.locale"
	KeyAppFallbackLocale = "app.fallback_locale"

	KeyAWSAccessKeyID          = "aws.access_key_id"
	KeyAWSSecretAccessKey      = "aws.secret_access_key"
	KeyAWSDefaultRegion        = "aws.default_region"
	KeyAWSBucket               = "aws.bucket"
	KeyAWSUsePathStyleEndpoint = "aws.use_path_style_endpoint"

	KeyRegistrationEnabled    = "user.registration_enabled"
	KeyAccountDeletionEnabled = "user.account_deletion_enabled"
	KeyTwoFactor              = "features.two_factor_authentication"
	KeyAppearanceSettings     = "features.appearance_settings"
	KeyDefaultAppearance      = "features.default_appearance"

	KeyShowPasswordToggle = "ui.show_password_toggle"
	KeyDisableWelcomePage = "ui.disable_welcome_page"
)

// Source names the layer a resolved value came from.
type Source string

const (
	// SourceDatabase means a persisted setting supplied the value.
	SourceDatabase Source = "database"
	// SourceEnvironment means the process environment supplied the value.
	SourceEnvironment Source = "environment"
	// SourceDefault means the literal fallback was used.
	SourceDefault Source = "default"
)

type definition struct {
	key      string
	env      string
	fallback string
	boolean  bool
}

// definitions is the resolution table in display order.
var definitions = []definition{ //nolint:gochecknoglobals
	{key: KeyAppName, env: "APP_NAME", fallback: "Laravel"},
	{key: KeyAppURL, env: "APP_URL", fallback: "http://localhost"},
	{key: KeyAppDebug, env: "APP_DEBUG", fallback: "false", boolean: true},
	{key: KeyAppLocale, env: "APP_LOCALE", fallback: "en"},
	{key: KeyAppFallbackLocale, env: "APP_FALLBACK_LOCALE", fallback: "en"},
	{key: KeyAWSAccessKeyID, env: "AWS_ACCESS_KEY_ID", fallback: ""},
	{key: KeyAWSSecretAccessKey, env: "AWS_SECRET_ACCESS_KEY", fallback: ""},
	{key: KeyAWSDefaultRegion, env: "AWS_DEFAULT_REGION", fallback: "us-east-1"},
	{key: KeyAWSBucket, env: "AWS_BUCKET", fallback: ""},
	{key: KeyAWSUsePathStyleEndpoint, env: "AWS_USE_PATH_STYLE_ENDPOINT", fallback: "false", boolean: true},
	{key: KeyRegistrationEnabled, env: "USER_REGISTRATION_ENABLED", fallback: "true", boolean: true},
	{key: KeyAccountDeletionEnabled, env: "USER_ACCOUNT_DELETION_ENABLED", fallback: "true", boolean: true},
	{key: KeyTwoFactor, env: "FEATURE_TWO_FACTOR", fallback: "true", boolean: true},
	{key: KeyAppearanceSettings, env: "FEATURE_APPEARANCE_SETTINGS", fallback: "true", boolean: true},
	{key: KeyDefaultAppearance, env: "DEFAULT_APPEARANCE", fallback: "system"},
	{key: KeyShowPasswordToggle, env: "SHOW_PASSWORD_TOGGLE", fallback: "true", boolean: true},
	{key: KeyDisableWelcomePage, env: "DISABLE_WELCOME_PAGE", fallback: "false", boolean: true},
}

// Keys lists every setting key the policy resolves.
func Keys() []string {
	keys := make([]string, len(definitions))
	for i, d := range definitions {
		keys[i] = d.key
	}

	return keys
}

// IsBool reports whether key holds a boolean.
func IsBool(key string) bool {
	for _, d := range definitions {
		if d.key == key {
			return d.boolean
		}
	}

	return false
}
