package http

//go:generate swag init -g router.go -d .,../../../pkg/authsdk -o ../../../api/auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/pkg/authsdk"
	"github.com/aussiebroadwan/sessionauth/pkg/httpx"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/sessionauth/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig carries the dependencies and options of the HTTP surface.
type RouterConfig struct {
	Auth   *service.AuthService
	Store  store.Store
	Logger *slog.Logger

	BuildVersion string

	// EnableAPI mounts the account endpoints under APIBaseURL. Health,
	// metrics and docs are always served.
	EnableAPI  bool
	APIBaseURL string

	// CORSAllowedOrigins enables CORS for the listed origins. Empty disables it.
	CORSAllowedOrigins []string

	// Gatherer is scraped by /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux *chi.Mux

	cfg       RouterConfig
	startTime time.Time
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = authsdk.DefaultAPIBase
	}
	cfg.APIBaseURL = "/" + strings.Trim(cfg.APIBaseURL, "/")
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	r := &Router{
		Mux:       chi.NewRouter(),
		cfg:       cfg,
		startTime: time.Now(),
	}

	r.Mux.Use(middleware.RequestID)
	r.Mux.Use(middleware.RealIP)
	r.Mux.Use(slogx.HTTPMiddleware(cfg.Logger))
	r.Mux.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		authsdk.ErrNotFound.WriteError(w)
	})
	r.Mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		authsdk.ErrMethodNotAllowed.WriteError(w)
	})

	return r
}

func (r *Router) ApplyRoutes() {
	if r.cfg.EnableAPI {
		r.registerAccount()
	}
	r.registerSystem()

	r.Mux.Get("/swagger/*", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router.
//
//	@title			Session Authentication Service API
//	@version		0.1.0
//	@description	Account registration and opaque bearer-token sessions.
//	@description
//	@description				Tokens carry no structure. Each authenticated request slides the token's expiry forward.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/sessionauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Mux.ServeHTTP(w, req)
}

func (r *Router) registerAccount() {
	auth := r.cfg.Auth

	r.Mux.Route(r.cfg.APIBaseURL, func(api chi.Router) {
		api.Use(SessionMiddleware(auth))

		api.Method(http.MethodPost, "/register", &RegisterHandler{Auth: auth})
		api.Method(http.MethodPost, "/login", &LoginHandler{Auth: auth})
		api.Method(http.MethodGet, "/me", &MeHandler{})
		api.Method(http.MethodPost, "/revoke", &RevokeHandler{Auth: auth})
		api.Method(http.MethodPost, "/logout",
			httpx.Chain(&LogoutHandler{Auth: auth}, httpx.RequireBearer()))
	})
}

func (r *Router) registerSystem() {
	r.Mux.Method(http.MethodGet, "/livez", LivezHandler(r.startTime, r.cfg.BuildVersion))
	r.Mux.Method(http.MethodGet, "/readyz", ReadyzHandler(r.startTime, r.cfg.BuildVersion, r.cfg.Store))
	r.Mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(r.cfg.Gatherer, promhttp.HandlerOpts{}))
}
