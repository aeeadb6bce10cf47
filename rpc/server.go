// Package rpc hosts the node's read-only HTTP surface: reserve, position,
// and auction lookups for any deployed pool. Grounded on the teacher's
// services/otc-gateway/server package (chi.Router + Config-struct
// construction + writeJSON helper) and on rpc/modules/lending.go's
// dispatch-table split between route wiring and handler bodies. Mutating
// operations are not exposed here; they run through the Go API directly
// (cmd/corelendd), matching the spec's framing of request dispatch and
// auth as an external collaborator's responsibility.
package rpc

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"corelend/observability"
	"corelend/storage"
)

var errTooManyRequests = errors.New("rate limit exceeded")

// Config captures the dependencies required to construct the server.
// RatePerSecond/Burst bound the per-client token bucket applied to every
// route; a zero RatePerSecond disables throttling entirely.
type Config struct {
	Pools         Registry
	Clock         storage.Clock
	RatePerSecond float64
	Burst         int
}

// Server is the read-only query surface over one node's deployed pools.
type Server struct {
	pools   Registry
	clock   storage.Clock
	router  http.Handler
	limiter *clientLimiter
}

// New constructs a configured HTTP router.
func New(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = storage.SystemClock{}
	}
	s := &Server{pools: cfg.Pools, clock: cfg.Clock}
	if cfg.RatePerSecond > 0 {
		s.limiter = newClientLimiter(cfg.RatePerSecond, cfg.Burst)
	}
	s.router = s.buildRouter()
	return s
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(s.observe)
	if s.limiter != nil {
		r.Use(s.throttle)
	}

	r.Route("/pools/{poolID}", func(pr chi.Router) {
		pr.Get("/reserves/{asset}", s.getReserve)
		pr.Get("/positions/{address}", s.getPositions)
		pr.Get("/auctions/{type}/{subject}", s.getAuction)
	})

	return r
}

// observe wraps every request with the module metrics registry, segmented by
// the mounted chi route pattern (not the raw path, to keep cardinality
// bounded).
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		observability.ModuleMetrics().Observe("rpc", route, rw.status, time.Since(start))
	})
}

// clientLimiter hands out one token-bucket limiter per client, keyed by
// remote address. Grounded on the teacher's gateway/middleware.RateLimiter,
// narrowed to a single rate/burst pair since this surface has one route
// class (read-only pool queries) rather than a per-route config map.
type clientLimiter struct {
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	visitors map[string]*rate.Limiter
}

func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		visitors:  make(map[string]*rate.Limiter),
	}
}

func (c *clientLimiter) allow(client string) bool {
	c.mu.Lock()
	limiter, ok := c.visitors[client]
	if !ok {
		limiter = rate.NewLimiter(c.perSecond, c.burst)
		c.visitors[client] = limiter
	}
	c.mu.Unlock()
	return limiter.Allow()
}

// throttle rejects requests once a client's token bucket is empty, recording
// the rejection against the rpc module's throttle counter.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientID(r)) {
			observability.ModuleMetrics().RecordThrottle("rpc", "rate_limit")
			s.writeError(w, http.StatusTooManyRequests, errTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		if comma := strings.IndexByte(ip, ','); comma > 0 {
			ip = strings.TrimSpace(ip[:comma])
		}
		if parsed := net.ParseIP(ip); parsed != nil {
			return parsed.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) now() uint64 {
	return uint64(s.clock.Now().Unix())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
