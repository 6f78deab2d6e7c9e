// Package app wires configuration, adapters, and routes into runnable
// server and worker processes.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/pathfinderhq/pathfinder-backend/internal/adapter/httpserver"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
// submitLimit, when non-nil, additionally guards the quiz submit endpoint
// with the distributed limiter.
func BuildRouter(cfg config.Config, srv *httpserver.Server, inter domain.InteractionRepository, submitLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	// Security & instrumentation middleware
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(30 * time.Second))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	// WithSession must run before InteractionLog so recorded interactions
	// carry the authenticated user ID.
	r.Use(srv.Sessions.WithSession)
	if inter != nil {
		r.Use(httpserver.InteractionLog(inter))
	}

	// CORS: credentials are required because the session rides in a cookie.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))

		api.Group(func(submit chi.Router) {
			if submitLimit != nil {
				submit.Use(submitLimit)
			}
			submit.Post("/quiz/submit", srv.SubmitHandler())
		})
		api.Get("/quiz/results", srv.ResultsHandler())

		api.Post("/auth/signup", srv.SignupHandler())
		api.Post("/auth/login", srv.LoginHandler())
		api.Post("/auth/logout", srv.LogoutHandler())
		api.Get("/auth/me", srv.MeHandler())

		api.Group(func(admin chi.Router) {
			admin.Use(srv.Sessions.AdminRequired)
			admin.Get("/analytics/admin-stats", srv.AdminStatsHandler())
			admin.Get("/analytics/system-health", srv.SystemHealthHandler())
			admin.Patch("/admin/users/{id}", srv.ModerateUserHandler())
		})
	})

	// Health and metrics
	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
