package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/account"
	"github.com/elskow/account-service/internal/api"
	"github.com/elskow/account-service/internal/auth"
	"github.com/elskow/account-service/internal/config"
	"github.com/elskow/account-service/internal/httputil"
)

// NewRouter builds the HTTP API. All routes live under the configured prefix.
func NewRouter(cfg *config.AppConfig, handler *account.Handler, mw *auth.AuthMiddleware, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	if len(cfg.HTTP.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.HTTP.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))

	r.Route(prefix(cfg.HTTP.Prefix), func(r chi.Router) {
		r.Get(api.Health, handleHealth)
		handler.Mount(r, mw)
	})

	return r
}

func prefix(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
