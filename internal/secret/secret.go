// Package secret decides how secret settings are displayed and when a submitted value is written.
package secret

// Mask is displayed in place of a stored secret. Submitting it back means "keep the stored value".
const Mask = "********"

// keys holds the setting keys and environment variable names treated as secrets.
var keys = map[string]struct{}{ //nolint:gochecknoglobals
	"aws.secret_access_key":       {},
	"AWS_SECRET_ACCESS_KEY":       {},
	"filesystems.disks.s3.secret": {},
}

// Present returns the display form of a stored secret: Mask when one is set, "" otherwise.
func Present(stored string) string {
	if stored == "" {
		return ""
	}

	return Mask
}

// Accept decides whether a submitted secret replaces the stored one.
// Empty submissions and the mask itself keep the stored value.
func Accept(submitted string) (string, bool) {
	if submitted == "" || submitted == Mask {
		return "", false
	}

	return submitted, true
}

// IsSecret reports whether the named setting or variable holds a secret.
func IsSecret(name string) bool {
	_, ok := keys[name]

	return ok
}

// Display returns value unchanged unless name is a secret, in which case it is presented masked.
func Display(name, value string) string {
	if IsSecret(name) {
		return Present(value)
	}

	return value
}
