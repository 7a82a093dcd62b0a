/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:       Request logging
  2. Recoverer:    Panic recovery (500 instead of crash)
  3. RequestID:    Unique ID per request for tracing
  4. CORS:         Cross-origin requests for the frontend
  5. withIdentity: Bearer-token resolution to a request-scoped user

ROUTE GATES:
  Anonymous:      /, /login/authorized, /logout, /healthz, /metrics
  Signed-in:      /account, /save_request, /handle_acc, /report
  Administrator:  /admin, /requests, /handle_request, /handle_cat

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Identity middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions toggle optional surfaces.
type RouterOptions struct {
	Metrics        bool
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Post("/login/authorized", h.Authorized)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.withIdentity)

		r.Get("/", h.Landing)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Get("/account", h.Account)
			r.Post("/save_request", h.SubmitRequest)
			r.Post("/handle_acc", h.HandleAccount)
			r.Post("/report", h.Report)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAdmin)

				r.Get("/admin", h.AdminConsole)
				r.Get("/requests", h.ListRequests)
				r.Post("/handle_request", h.HandleRequest)
				r.Post("/handle_cat", h.HandleCategory)
			})
		})
	})

	return r
}
