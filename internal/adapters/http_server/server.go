package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Options struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxy lets X-Forwarded-For / X-Real-IP replace the peer address.
	TrustProxy bool
}

type Server struct {
	mux         *chi.Mux
	scrapeLimit func(http.Handler) http.Handler
}

func New(opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 75 * time.Second
	}
	m := chi.NewRouter()

	// All middlewares go here (before any routes are added)
	if opts.TrustProxy {
		m.Use(chimw.RealIP)
	}
	m.Use(chimw.RequestID)
	m.Use(Recoverer)
	m.Use(CORS(opts.AllowedOrigins))
	// outside Timeout so a timed-out request is recorded with its 503
	m.Use(Metrics(m))
	m.Use(Logger(log.Logger, m))
	m.Use(Timeout(opts.RequestTimeout))

	m.NotFound(endpointNotFound)
	m.MethodNotAllowed(endpointNotFound)

	return &Server{mux: m, scrapeLimit: RateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
