// Package session keeps per-visitor state in a fiber storage backend keyed by a random cookie.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"
	// LocalKey is the fiber local holding the request *Session.
	LocalKey = "session"
	// DefaultExpiry is used when no expiry is configured.
	DefaultExpiry = 2 * time.Hour
)

// Flash kinds shared with every page.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashStatus  = "status"
)

// ErrStorageNil is returned by NewManager without a storage backend.
var ErrStorageNil = errors.New("session storage is nil")

// Data is the persisted session payload.
type Data struct {
	UserID              uint64            `json:"user_id,omitempty"`
	TwoFactorUserID     uint64            `json:"two_factor_user_id,omitempty"`
	PasswordConfirmedAt *time.Time        `json:"password_confirmed_at,omitempty"`
	Intended            string            `json:"intended,omitempty"`
	Flash               map[string]string `json:"flash,omitempty"`
	Errors              map[string]string `json:"errors,omitempty"`
	Old                 map[string]string `json:"old,omitempty"`
}

// Write writes the session data for the given session ID with an expiration duration.
func (d *Data) Write(storage fiber.Storage, sessionID string, exp time.Duration) error {
	out, err := json.Marshal(d)
	if err != nil {
		return err
	}

	return storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID. A missing session leaves d empty.
func (d *Data) Read(storage fiber.Storage, sessionID string) error {
	byteData, err := storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return nil
	}

	return json.Unmarshal(byteData, d)
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Manager loads and saves sessions around each request.
type Manager struct {
	storage fiber.Storage
	expiry  time.Duration
	secure  bool
}

// NewManager creates a Manager. Cookies are marked secure unless devMode is set.
func NewManager(storage fiber.Storage, expiry time.Duration, devMode bool) (*Manager, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	return &Manager{storage: storage, expiry: expiry, secure: !devMode}, nil
}

// Middleware loads the session of the request, exposes it through From and persists it
// after the handler chain when it changed.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := m.load(c.Cookies(CookieName))
		c.Locals(LocalKey, sess)

		err := c.Next()

		if saveErr := m.save(c, sess); saveErr != nil {
			log.Error().Err(saveErr).Msg("failed to save session")

			if err == nil {
				err = saveErr
			}
		}

		return err
	}
}

func (m *Manager) load(id string) *Session {
	sess := &Session{data: &Data{}}

	if id == "" {
		return sess
	}

	if err := sess.data.Read(m.storage, id); err != nil {
		log.Warn().Err(err).Msg("failed to read session, starting a new one")

		return sess
	}

	sess.id = id

	// flash data lives for exactly one request
	sess.flash, sess.errors, sess.old = sess.data.Flash, sess.data.Errors, sess.data.Old
	if sess.flash != nil || sess.errors != nil || sess.old != nil {
		sess.data.Flash, sess.data.Errors, sess.data.Old = nil, nil, nil
		sess.dirty = true
	}

	return sess
}

func (m *Manager) save(c *fiber.Ctx, sess *Session) error {
	for _, id := range sess.stale {
		if err := m.storage.Delete(id); err != nil {
			log.Warn().Err(err).Msg("failed to delete replaced session")
		}
	}

	if !sess.dirty {
		return nil
	}

	if sess.id == "" {
		if sess.data.empty() {
			if len(sess.stale) > 0 {
				c.ClearCookie(CookieName)
			}

			return nil
		}

		id, err := GenerateSessionID()
		if err != nil {
			return err
		}

		sess.id = id
	}

	if err := sess.data.Write(m.storage, sess.id, m.expiry); err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    sess.id,
		Path:     "/",
		MaxAge:   int(m.expiry.Seconds()),
		Secure:   m.secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return nil
}

func (d *Data) empty() bool {
	return d.UserID == 0 && d.TwoFactorUserID == 0 && d.PasswordConfirmedAt == nil && d.Intended == "" &&
		len(d.Flash) == 0 && len(d.Errors) == 0 && len(d.Old) == 0
}

// From returns the session of the request. Outside the middleware it returns a detached
// session whose changes are discarded.
func From(c *fiber.Ctx) *Session {
	if sess, ok := c.Locals(LocalKey).(*Session); ok {
		return sess
	}

	sess := &Session{data: &Data{}}
	c.Locals(LocalKey, sess)

	return sess
}
