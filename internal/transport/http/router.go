package http

import (
	"net/http"
	"time"

	"handoff/internal/observability/middleware"
	"handoff/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Production        bool
	TrustProxy        bool
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginInterval     time.Duration
	LoginBurst        int
}

type handlers struct {
	auth      service.AuthService
	receivers service.ReceiverService
	tokens    service.TokenService
	throttle  *loginThrottle
	errs      errorWriter
	opts      Options
}

func NewRouter(auth service.AuthService, receivers service.ReceiverService, tokens service.TokenService, denylist service.Denylist, opts Options) http.Handler {
	h := &handlers{
		auth:      auth,
		receivers: receivers,
		tokens:    tokens,
		throttle:  newLoginThrottle(opts.LoginInterval, opts.LoginBurst),
		errs:      errorWriter{production: opts.Production},
		opts:      opts,
	}
	gate := NewGate(tokens, auth, denylist, opts.Production)

	r := chi.NewRouter()
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.WithRequestAndTrace)
	r.Use(chimw.Recoverer)
	r.Use(middleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsOrAny(opts.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: len(opts.CORSOrigins) > 0,
		MaxAge:           300,
	}))
	if opts.RateLimitRequests > 0 && opts.RateLimitWindow > 0 {
		r.Use(httprate.Limit(opts.RateLimitRequests, opts.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				h.errs.write(w, r, errRateLimited)
			}),
		))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Error: &errorBody{Message: "route not found"}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Error: &errorBody{Message: "method not allowed"}})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, "ok", map[string]any{"time": time.Now().UTC()})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/oauth/jwks", h.jwks)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)

			r.Group(func(pr chi.Router) {
				pr.Use(gate.Middleware)
				pr.Get("/profile", h.profile)
				pr.Patch("/profile/availability", h.setAvailability)
				pr.Post("/logout", h.logout)
			})
		})

		r.Route("/receivers", func(r chi.Router) {
			r.Use(gate.Middleware)
			r.Post("/search", h.search)
			r.Get("/{receiverID}", h.getReceiver)
		})
	})

	return r
}

func originsOrAny(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
