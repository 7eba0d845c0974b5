package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/tiny-orders-web/server/websession"
)

// sessionCookieName is the name of the cookie that carries the signed
// session ID
const sessionCookieName = "tinySessionId"

// currentSession resolves the browser's session from its cookie. A missing
// cookie, a cookie that fails signature verification, or a session ID with
// no server-side record all report ok=false: the browser is anonymous.
func (s *Server) currentSession(r *http.Request) (sessionID string, session websession.Session, ok bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", websession.Session{}, false
	}

	sessionID, err = s.cookies.Decode(cookie.Value)
	if err != nil {
		return "", websession.Session{}, false
	}

	session, err = s.sessions.Get(sessionID)
	if err != nil {
		return "", websession.Session{}, false
	}

	return sessionID, session, true
}

// sessionOrNew returns the browser's existing session or a fresh one when
// none is usable. The caller is responsible for persisting it and, for new
// sessions, setting the cookie.
func (s *Server) sessionOrNew(r *http.Request) (sessionID string, session websession.Session, isNew bool) {
	if sessionID, session, ok := s.currentSession(r); ok {
		return sessionID, session, false
	}
	return uuid.NewString(), websession.Session{
		TokenType: "Bearer",
		CreatedAt: time.Now(),
	}, true
}

// SetSessionCookie writes the signed session cookie. The session lives
// until logout; no MaxAge is set so the cookie is scoped to the browser
// session.
func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) error {
	value, err := s.cookies.Encode(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSessionCookie expires the session cookie
func (s *Server) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// saveSession persists a session, logging rather than failing the request
// when the repo rejects it
func (s *Server) saveSession(sessionID string, session websession.Session) bool {
	if err := s.sessions.Upsert(sessionID, session); err != nil {
		log.Err(err).Str("session_id", sessionID).Msg("failed to persist session")
		return false
	}
	return true
}
