package router

import (
	"context"
	"net/http"
	"time"

	"retail-pos/internal/handler"
	"retail-pos/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served under /api.
type Handlers struct {
	Product   *handler.ProductHandler
	Order     *handler.OrderHandler
	Dashboard *handler.DashboardHandler
	Auth      *handler.AuthHandler
	Report    *handler.ReportHandler
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the cross-cutting parts of the router.
type Options struct {
	// Tokens verifies bearer tokens on protected routes.
	Tokens middleware.TokenVerifier
	// ProtectAPI puts every business route behind bearer auth. The profile
	// route is always protected.
	ProtectAPI bool
	// UploadDir is served read-only under /uploads/.
	UploadDir string
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// Database, when set, is pinged by /health.
	Database Pinger
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Order: Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", healthHandler(opts.Database))

	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	if opts.UploadDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadDir)))
		r.Handle("/uploads/*", files)
	}

	requireToken := middleware.BearerAuth(opts.Tokens, logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.With(requireToken).Get("/profile", h.Auth.Profile)
		})

		r.Group(func(r chi.Router) {
			if opts.ProtectAPI {
				r.Use(requireToken)
			}

			r.Get("/dashboard", h.Dashboard.Get)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Product.List)
				r.Post("/", h.Product.Create)
				r.Get("/{id}", h.Product.GetByID)
				r.Put("/{id}", h.Product.Update)
				r.Delete("/{id}", h.Product.Delete)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Order.Create)
				r.Get("/{orderId}", h.Order.GetByID)
			})

			r.Get("/reports/monthly", h.Report.Monthly)
		})
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}
}
