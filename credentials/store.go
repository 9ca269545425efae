// Package credentials provides the credential store consulted at login.
// Storage-at-rest mechanics live with the host; the serving engine only
// reads the configured pair and the process-wide auth toggle.
package credentials

// Store exposes the configured credential pair. When auth is disabled every
// login succeeds and protected endpoints stop requiring a token.
type Store interface {
	IsAuthEnabled() bool
	Username() string
	Password() string
}

// StaticStore serves a fixed credential pair loaded from configuration.
type StaticStore struct {
	Enabled bool
	User    string
	Pass    string
}

// NewStaticStore creates a store from configuration values. Auth is only
// considered enabled when a username is actually set.
func NewStaticStore(enabled bool, user, pass string) *StaticStore {
	return &StaticStore{Enabled: enabled && user != "", User: user, Pass: pass}
}

var _ Store = (*StaticStore)(nil)

func (s *StaticStore) IsAuthEnabled() bool { return s.Enabled }
func (s *StaticStore) Username() string    { return s.User }
func (s *StaticStore) Password() string    { return s.Pass }
