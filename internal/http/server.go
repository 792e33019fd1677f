// Package http exposes the ledger and the earnings-vs-spending chart over a
// small JSON API.
package http

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"smartspend/internal/ledger"
	applog "smartspend/internal/log"
	"smartspend/internal/services"
)

// Deps are the collaborators the server routes requests to. Ready may be nil.
type Deps struct {
	Transactions ledger.TransactionWriter
	Chart        *services.ChartService
	Registration *services.RegistrationService
	Ready        func(ctx context.Context) error
	Logger       *applog.Logger
	// RateLimit is the number of POSTs allowed per client IP per minute.
	RateLimit int
}

type appMetrics struct {
	uptime               time.Time
	transactionsRecorded int64
	usersRegistered      int64
	chartRequests        int64
	chartFailures        int64
}

type Server struct {
	http.Server
	transactions ledger.TransactionWriter
	chart        *services.ChartService
	registration *services.RegistrationService
	ready        func(ctx context.Context) error
	logger       *applog.Logger
	rateLimiter  *rateLimiter
	security     *securityMetrics
	appMetrics   *appMetrics
	now          func() time.Time
}

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

// NewServer wires the routes and middleware.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		transactions: deps.Transactions,
		chart:        deps.Chart,
		registration: deps.Registration,
		ready:        deps.Ready,
		logger:       logger,
		rateLimiter:  newRateLimiter(deps.RateLimit),
		security:     &securityMetrics{},
		appMetrics:   &appMetrics{uptime: time.Now()},
		now:          time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /api/chart", s.handleChart)

	s.Addr = addr
	s.Handler = applog.RequestIDMiddleware(logger, requestIDFor)(s.withSecurityHeaders(mux))
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

// requestIDFor keeps a well-formed inbound X-Request-ID and otherwise
// generates one, storing it back on the request for later middleware.
func requestIDFor(r *http.Request) string {
	id := r.Header.Get("X-Request-ID")
	if !requestIDPattern.MatchString(id) {
		id = generateRequestID()
		r.Header.Set("X-Request-ID", id)
	}
	return id
}

func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r, s.security)

		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		if reason := detectSuspiciousRequest(r, s.security); reason != "" {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldPath, r.URL.Path,
				"reason", reason)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.security) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.").
				Header("Retry-After", "60").
				Write(rw)
		} else {
			next.ServeHTTP(rw, r)
		}

		applog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
