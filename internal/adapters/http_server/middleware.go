package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_monitor/internal/adapters/observability"
)

// Timeout bounds every request. The inner context is cancelled when d elapses.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	const body = `{"success":false,"error":"Request timed out"}`
	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, d, body)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// overwritten by the inner handler's headers when it finishes in time
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}

// Recoverer turns a panic into the 500 envelope.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error().
				Interface("panic", rec).
				Str("path", r.URL.Path).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("handler panicked")
			writeFail(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS sets allow headers for the configured origins and answers preflights.
func CORS(origins []string) func(http.Handler) http.Handler {
	wildcard := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if wildcard {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ---- per-client rate limiting ----

const limiterIdle = 10 * time.Minute

// ipLimiters hands out one token bucket per client IP. Idle buckets expire.
type ipLimiters struct {
	items *gocache.Cache
	r     rate.Limit
	b     int
}

func newIPLimiters(r rate.Limit, b int) *ipLimiters {
	return &ipLimiters{items: gocache.New(limiterIdle, limiterIdle), r: r, b: b}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	if v, ok := l.items.Get(ip); ok {
		lim := v.(*rate.Limiter)
		l.items.SetDefault(ip, lim)
		return lim
	}
	lim := rate.NewLimiter(l.r, l.b)
	// Add fails when another request created the bucket first; use theirs.
	if err := l.items.Add(ip, lim, gocache.DefaultExpiration); err != nil {
		if v, ok := l.items.Get(ip); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// RateLimiter answers 429 once a peer IP exceeds rps (burst b). rps <= 0 disables it.
func RateLimiter(rps float64, b int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if b < 1 {
		b = 1
	}
	limiters := newIPLimiters(rate.Limit(rps), b)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := peerIP(r)
			if !limiters.get(ip).Allow() {
				log.Warn().Str("remote", ip).Str("path", r.URL.Path).Msg("rate limited")
				writeFail(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routePattern matches r against routes with a fresh context. The request's own
// route context belongs to a handler that may still run after Timeout answered.
func routePattern(routes chi.Routes, r *http.Request) string {
	rctx := chi.NewRouteContext()
	if routes.Match(rctx, r.Method, r.URL.Path) {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ---- Metrics middleware ----

func Metrics(routes chi.Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routePattern(routes, r)
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			observability.ObserveHTTP(route, r.Method, sw.Status(), time.Since(start))
		})
	}
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger, routes chi.Routes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := routePattern(routes, r)
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			l.Info().
				Str("route", route).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", peerIP(r)).
				Str("ua", r.UserAgent()).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("http_request")
		})
	}
}

// peerIP is the host of RemoteAddr. Forwarding headers only reach it through
// chimw.RealIP, which the server installs when proxy headers are trusted.
func peerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
