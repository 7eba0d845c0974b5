// Package websession holds the server-side browser session: the transient
// OAuth state nonce during login and the access token after it.
package websession

import "time"

// Session is the typed per-browser session record. Fields are zero-valued
// rather than absent: an empty OAuthState means no login is pending, an
// empty AccessToken means the browser is anonymous.
type Session struct {
	// OAuthState is the anti-CSRF nonce set on /login and cleared on a
	// successful callback
	OAuthState string

	// AccessToken authorizes calls to the orders API
	AccessToken string

	// TokenType is the Authorization header scheme, normally "Bearer"
	TokenType string

	CreatedAt time.Time
}

// Authenticated reports whether a callback has completed for this session
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

type Repo interface {
	Upsert(sessionID string, session Session) error
	Get(sessionID string) (Session, error)
	Delete(sessionID string) error
}
