package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/tiny-orders-web/authflow"
	"github.com/jrsteele09/tiny-orders-web/orders"
)

const contentTypeHTML = "text/html; charset=utf-8"

// IndexPageData is the template model for the home page
type IndexPageData struct {
	AppName  string
	LoggedIn bool
}

// OrdersPageData is the template model for the orders page. Orders holds
// each record rendered as indented JSON; Error is set instead when the
// fetch did not produce a page of orders.
type OrdersPageData struct {
	AppName    string
	FilterDate string
	Orders     []string
	Error      string
}

// IndexHandler renders the home page with the login status
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("index.html")
	if err != nil {
		panic("Failed to parse index template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		_, session, ok := s.currentSession(r)

		data := IndexPageData{
			AppName:  s.config.GetAppName(),
			LoggedIn: ok && session.Authenticated(),
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render index template")
		}
	}
}

// LoginHandler starts the authorization-code flow: it stores a fresh state
// nonce in the session and redirects the browser to the Tiny authorization
// page
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, session, isNew := s.sessionOrNew(r)

		session.OAuthState = authflow.NewState()
		if !s.saveSession(sessionID, session) {
			http.Error(w, "Failed to start login", http.StatusInternalServerError)
			return
		}

		if isNew {
			if err := s.SetSessionCookie(w, r, sessionID); err != nil {
				log.Err(err).Msg("failed to sign session cookie")
				http.Error(w, "Failed to start login", http.StatusInternalServerError)
				return
			}
		}

		http.Redirect(w, r, s.flow.AuthCodeURL(session.OAuthState), http.StatusFound)
	}
}

// CallbackHandler completes the flow: it validates the round-tripped state
// nonce, exchanges the authorization code for a token, stores the token in
// the session and redirects home.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		code := r.URL.Query().Get("code")

		sessionID, session, ok := s.currentSession(r)
		if !ok || state == "" || session.OAuthState == "" || state != session.OAuthState {
			log.Warn().Str("query_state", state).Msg("callback state does not match session state")
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		token, err := s.flow.Exchange(r.Context(), code)
		if err != nil {
			// The state nonce stays in the session so a retried
			// callback can still be validated
			log.Err(err).Msg("Error fetching token")
			http.Error(w, fmt.Sprintf("Error fetching token: %s", err), http.StatusInternalServerError)
			return
		}

		session.AccessToken = token.AccessToken
		session.TokenType = token.TokenType
		session.OAuthState = ""
		if !s.saveSession(sessionID, session) {
			http.Error(w, "Failed to store token", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, RouteIndex, http.StatusFound)
	}
}

// FetchOrdersHandler fetches orders from the Tiny API with the session's
// token and renders them. Remote failures are rendered inline in the
// orders view; only an unauthenticated browser is redirected away.
func (s *Server) FetchOrdersHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("orders.html")
	if err != nil {
		panic("Failed to parse orders template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		_, session, ok := s.currentSession(r)
		if !ok || !session.Authenticated() {
			http.Redirect(w, r, RouteLogin, http.StatusFound)
			return
		}

		filterDate := r.URL.Query().Get("date")
		if filterDate == "" {
			filterDate = time.Now().Format("2006-01-02")
		}

		result := s.orders.FetchOrders(r.Context(), session.AccessToken, session.TokenType, filterDate)

		data := OrdersPageData{
			AppName:    s.config.GetAppName(),
			FilterDate: filterDate,
		}
		switch result.Kind {
		case orders.KindSuccess:
			data.Orders = renderOrders(result.Orders)
		case orders.KindAPIError:
			data.Error = "API Error: " + result.Message
		default:
			data.Error = result.Message
		}
		if data.Error != "" {
			log.Warn().Str("kind", result.Kind.String()).Str("detail", result.Message).Msg("order fetch did not succeed")
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if err := tmpl.Execute(w, data); err != nil {
			log.Err(err).Msg("Failed to render orders template")
		}
	}
}

// LogoutHandler clears the whole session and expires the cookie. No remote
// token revocation is performed.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, _, ok := s.currentSession(r); ok {
			if err := s.sessions.Delete(sessionID); err != nil {
				log.Err(err).Msg("failed to delete session")
			}
		}
		s.ClearSessionCookie(w, r)
		http.Redirect(w, r, RouteIndex, http.StatusFound)
	}
}

// renderOrders pretty-prints each opaque order record for the template
func renderOrders(records []orders.Order) []string {
	rendered := make([]string, 0, len(records))
	for _, record := range records {
		buf, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			buf = []byte(record)
		}
		rendered = append(rendered, string(buf))
	}
	return rendered
}
