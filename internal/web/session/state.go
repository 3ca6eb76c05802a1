package session

import "time"

// Session is the state of one request's session.
type Session struct {
	id    string
	data  *Data
	dirty bool
	stale []string

	// values flashed by the previous request
	flash  map[string]string
	errors map[string]string
	old    map[string]string
}

// ID returns the current session id, "" before the first save.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the authenticated user, 0 for guests.
func (s *Session) UserID() uint64 {
	return s.data.UserID
}

// regenerate drops the current id so the next save issues a fresh one.
func (s *Session) regenerate() {
	if s.id != "" {
		s.stale = append(s.stale, s.id)
		s.id = ""
	}

	s.dirty = true
}

// Login authenticates userID under a new session id.
func (s *Session) Login(userID uint64) {
	s.regenerate()
	s.data.UserID = userID
	s.data.TwoFactorUserID = 0
	s.data.PasswordConfirmedAt = nil
}

// Logout clears all state and invalidates the session id.
func (s *Session) Logout() {
	s.regenerate()
	s.data = &Data{}
}

// SetTwoFactorUser remembers a user that passed the password step and owes a second factor.
func (s *Session) SetTwoFactorUser(userID uint64) {
	s.data.TwoFactorUserID = userID
	s.dirty = true
}

// TwoFactorUser returns the user awaiting the two factor challenge.
func (s *Session) TwoFactorUser() uint64 {
	return s.data.TwoFactorUserID
}

// ConfirmPassword stamps a successful password confirmation.
func (s *Session) ConfirmPassword(at time.Time) {
	s.data.PasswordConfirmedAt = &at
	s.dirty = true
}

// PasswordConfirmedWithin reports whether the password was confirmed within timeout of now.
func (s *Session) PasswordConfirmedWithin(now time.Time, timeout time.Duration) bool {
	at := s.data.PasswordConfirmedAt

	return at != nil && now.Sub(*at) < timeout
}

// SetIntended remembers where to go after authentication.
func (s *Session) SetIntended(url string) {
	s.data.Intended = url
	s.dirty = true
}

// PullIntended returns and forgets the intended url, or def when none is set.
func (s *Session) PullIntended(def string) string {
	url := s.data.Intended
	if url == "" {
		return def
	}

	s.data.Intended = ""
	s.dirty = true

	return url
}

// Flash stores a message for the next request.
func (s *Session) Flash(kind, message string) {
	if s.data.Flash == nil {
		s.data.Flash = map[string]string{}
	}

	s.data.Flash[kind] = message
	s.dirty = true
}

// Flashes returns the messages flashed by the previous request.
func (s *Session) Flashes() map[string]string {
	return s.flash
}

// FlashErrors stores validation errors and the submitted input for the next request.
func (s *Session) FlashErrors(errs, old map[string]string) {
	s.data.Errors = errs
	s.data.Old = old
	s.dirty = true
}

// Errors returns the validation errors flashed by the previous request.
func (s *Session) Errors() map[string]string {
	return s.errors
}

// Old returns the input flashed by the previous request.
func (s *Session) Old() map[string]string {
	return s.old
}
