package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/issuedesk/internal/featureflags"
	"github.com/aryan0dhankhar/issuedesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/issuedesk/internal/security/middleware"
	"github.com/aryan0dhankhar/issuedesk/internal/service"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	Auth   *service.AuthService
	Teams  *service.TeamService
	Sites  *service.SiteService
	Issues *service.IssueService

	Database Pinger
	Redis    Pinger

	Flags              featureflags.Flags
	CORSAllowedOrigins []string
	Logger             *slog.Logger

	// AdminUserIDs may use the admin routes when they are enabled.
	AdminUserIDs []int64
}

// intakePath is the only route the widget calls from customer sites.
const intakePath = "/api/issues"

// PublicRoutes are reachable without a bearer token
var PublicRoutes = []middleware.PublicRoute{
	{Method: http.MethodPost, Path: "/api/auth/register"},
	{Method: http.MethodPost, Path: "/api/auth/login"},
	{Method: http.MethodPost, Path: intakePath},
	{Method: http.MethodOptions, Path: intakePath},
	{Method: http.MethodGet, Path: "/healthz"},
	{Method: http.MethodGet, Path: "/readyz"},
	{Method: http.MethodGet, Path: "/metrics"},
}

// NewRouter registers every route and wraps the mux in the middleware chain:
// request ID -> metrics -> CORS -> input checks -> JWT.
func NewRouter(cfg RouterConfig) (http.Handler, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	authHandler := NewAuthHandler(cfg.Auth, log)
	teamHandler := NewTeamHandler(cfg.Teams, log)
	siteHandler := NewSiteHandler(cfg.Sites, cfg.Issues, log)
	issueHandler := NewIssueHandler(cfg.Issues, log)
	healthHandler := NewHealthHandler(cfg.Database, cfg.Redis, log)

	var submit http.Handler = http.HandlerFunc(issueHandler.Submit)
	if cfg.Flags.SchemaValidation {
		validateReport, err := middleware.ValidateJSONSchema(IssueReportSchema, log)
		if err != nil {
			return nil, err
		}
		submit = validateReport(submit)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)
	mux.HandleFunc("PUT /api/users/me", authHandler.UpdateMe)
	mux.HandleFunc("DELETE /api/users/me", authHandler.DeleteMe)

	mux.HandleFunc("GET /api/teams", teamHandler.List)
	mux.HandleFunc("POST /api/teams", teamHandler.Create)
	mux.HandleFunc("GET /api/teams/{id}/members", teamHandler.ListMembers)
	mux.HandleFunc("POST /api/teams/{id}/members", teamHandler.AddMember)

	mux.HandleFunc("GET /api/sites", siteHandler.List)
	mux.HandleFunc("POST /api/sites", siteHandler.Create)
	mux.HandleFunc("GET /api/sites/{id}", siteHandler.Get)
	mux.HandleFunc("PUT /api/sites/{id}", siteHandler.Update)
	mux.HandleFunc("DELETE /api/sites/{id}", siteHandler.Delete)
	mux.HandleFunc("GET /api/sites/{id}/issues", siteHandler.ListIssues)
	mux.HandleFunc("POST /api/sites/{id}/issues", siteHandler.CreateIssue)

	mux.Handle("POST "+intakePath, submit)
	mux.HandleFunc("GET "+intakePath, issueHandler.List)
	mux.HandleFunc("GET /api/issues/{id}", issueHandler.Get)
	mux.HandleFunc("PUT /api/issues/{id}", issueHandler.Update)
	mux.HandleFunc("DELETE /api/issues/{id}", issueHandler.Delete)

	if cfg.Flags.AdminRoutes {
		adminHandler := NewAdminHandler(cfg.Auth, cfg.Sites, cfg.Issues, log)
		adminOnly := middleware.RequireAdmin(cfg.AdminUserIDs, log)
		mux.Handle("GET /api/admin/sites", adminOnly(http.HandlerFunc(adminHandler.Sites)))
		mux.Handle("GET /api/admin/issues", adminOnly(http.HandlerFunc(adminHandler.Issues)))
		mux.Handle("GET /api/admin/users", adminOnly(http.HandlerFunc(adminHandler.Users)))
		log.Warn("admin routes enabled", slog.Int("admins", len(cfg.AdminUserIDs)))
	}

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	h = middleware.JWTMiddleware(cfg.Auth, PublicRoutes, log)(h)
	h = middleware.ValidateJSONContentType(log, intakePath)(h)
	h = middleware.SanitizeInputs(log)(h)
	h = middleware.CORS(cfg.CORSAllowedOrigins, []string{intakePath})(h)
	h = metrics.HTTPMetricsMiddleware(mux)(h)
	h = middleware.RequestID(log)(h)
	return h, nil
}
