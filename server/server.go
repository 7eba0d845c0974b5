package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/tiny-orders-web/authflow"
	"github.com/jrsteele09/tiny-orders-web/internal/config"
	"github.com/jrsteele09/tiny-orders-web/orders"
	"github.com/jrsteele09/tiny-orders-web/server/websession"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	flow     *authflow.Flow
	orders   *orders.Client
	sessions websession.Repo
	cookies  *websession.CookieCodec
}

func New(config config.Config, sessionRepo websession.Repo) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		sessions: sessionRepo,
		cookies:  websession.NewCookieCodec(config.GetSessionSecret()),
		flow: authflow.New(
			config.GetClientID(),
			config.GetClientSecret(),
			config.GetRedirectURI(),
			config.GetAuthorizationURL(),
			config.GetTokenURL(),
		),
		orders: orders.NewClient(config.GetAPIBaseURL()),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
