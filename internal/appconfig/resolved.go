package appconfig

import (
	"github.com/panelkit/panelkit/internal/db/controller/setting"
)

// Resolved is an immutable snapshot of the effective configuration.
type Resolved struct {
	AppName           string
	AppURL            string
	AppDebug          bool
	AppLocale         string
	AppFallbackLocale string

	AWS AWS

	RegistrationEnabled    bool
	AccountDeletionEnabled bool
	TwoFactor              bool
	AppearanceSettings     bool
	DefaultAppearance      string
	ShowPasswordToggle     bool
	DisableWelcomePage     bool

	values  map[string]string
	sources map[string]Source
}

// AWS holds the object storage block.
type AWS struct {
	AccessKeyID          string
	SecretAccessKey      string //nolint:gosec
	DefaultRegion        string
	Bucket               string
	UsePathStyleEndpoint bool
}

// Configured reports whether an S3 bucket is set.
func (a AWS) Configured() bool {
	return a.Bucket != ""
}

func (r *Resolved) fill() {
	r.AppName = r.values[KeyAppName]
	r.AppURL = r.values[KeyAppURL]
	r.AppDebug = r.Bool(KeyAppDebug)
	r.AppLocale = r.values[KeyAppLocale]
	r.AppFallbackLocale = r.values[KeyAppFallbackLocale]

	r.AWS = AWS{
		AccessKeyID:          r.values[KeyAWSAccessKeyID],
		SecretAccessKey:      r.values[KeyAWSSecretAccessKey],
		DefaultRegion:        r.values[KeyAWSDefaultRegion],
		Bucket:               r.values[KeyAWSBucket],
		UsePathStyleEndpoint: r.Bool(KeyAWSUsePathStyleEndpoint),
	}

	r.RegistrationEnabled = r.Bool(KeyRegistrationEnabled)
	r.AccountDeletionEnabled = r.Bool(KeyAccountDeletionEnabled)
	r.TwoFactor = r.Bool(KeyTwoFactor)
	r.AppearanceSettings = r.Bool(KeyAppearanceSettings)
	r.DefaultAppearance = r.values[KeyDefaultAppearance]
	r.ShowPasswordToggle = r.Bool(KeyShowPasswordToggle)
	r.DisableWelcomePage = r.Bool(KeyDisableWelcomePage)
}

// Value returns the resolved raw value of key. Booleans are "0" or "1".
func (r *Resolved) Value(key string) string {
	return r.values[key]
}

// Bool returns the resolved value of key as a boolean.
func (r *Resolved) Bool(key string) bool {
	b, _ := setting.ParseBool(r.values[key])

	return b
}

// Source returns which layer supplied key.
func (r *Resolved) Source(key string) Source {
	return r.sources[key]
}

// Entry is one resolved key for diagnostics.
type Entry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// Entries lists all resolved keys in display order.
func (r *Resolved) Entries() []Entry {
	out := make([]Entry, len(definitions))
	for i, d := range definitions {
		out[i] = Entry{Key: d.key, Value: r.values[d.key], Source: r.sources[d.key]}
	}

	return out
}
