package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"smartspend/internal/core"
	applog "smartspend/internal/log"
	"smartspend/internal/services"
)

const readyTimeout = 5 * time.Second

// chartResponse is the chart model plus an error code when the stored data
// could not be plotted.
type chartResponse struct {
	core.AlignedSeriesPair
	Error string `json:"error,omitempty"`
}

type transactionCreated struct {
	Ref    string    `json:"ref"`
	Kind   core.Kind `json:"kind"`
	Period string    `json:"period"`
}

type userCreated struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady runs the backend readiness check, if any.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"backend": "ok"}
	status, code := "ready", http.StatusOK

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
			checks["backend"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":         status,
		"checks":         checks,
		"active_clients": s.rateLimiter.activeClients(),
	}).Write(w)
}

// handleMetrics writes counters in plain text, one "name value" per line.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "uptime_seconds %d\n", int64(time.Since(s.appMetrics.uptime).Seconds()))
	fmt.Fprintf(w, "transactions_recorded_total %d\n", atomic.LoadInt64(&s.appMetrics.transactionsRecorded))
	fmt.Fprintf(w, "users_registered_total %d\n", atomic.LoadInt64(&s.appMetrics.usersRegistered))
	fmt.Fprintf(w, "chart_requests_total %d\n", atomic.LoadInt64(&s.appMetrics.chartRequests))
	fmt.Fprintf(w, "chart_failures_total %d\n", atomic.LoadInt64(&s.appMetrics.chartFailures))
	fmt.Fprintf(w, "rate_limit_hits_total %d\n", atomic.LoadInt64(&s.security.rateLimitHits))
	fmt.Fprintf(w, "invalid_ip_attempts_total %d\n", atomic.LoadInt64(&s.security.invalidIPAttempts))
	fmt.Fprintf(w, "suspicious_requests_total %d\n", atomic.LoadInt64(&s.security.suspiciousRequests))
	fmt.Fprintf(w, "rate_limit_active_clients %d\n", s.rateLimiter.activeClients())
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse transaction body failed", applog.FieldError, err)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	kind, tx, err := ParseTransaction(parser, s.now())
	if err != nil {
		UnprocessableEntityError(validationCode(err), err.Error()).Write(w)
		return
	}

	ref, err := s.transactions.Submit(ctx, kind, tx)
	if err != nil {
		if code := validationCode(err); code != "invalid" {
			UnprocessableEntityError(code, err.Error()).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Transaction submit failed",
			applog.NewFields().WithTransaction(kind, tx).WithError(err).ToSlice()...)
		InternalServerError("Failed to save transaction").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.transactionsRecorded, 1)
	logger.InfoContext(ctx, "Transaction recorded",
		append(applog.NewFields().WithTransaction(kind, tx).ToSlice(), applog.FieldRef, ref)...)
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(transactionCreated{Ref: ref, Kind: kind, Period: tx.Period().Label()}).
		Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	reg := ParseRegistration(parser)
	if err := reg.Validate(); err != nil {
		UnprocessableEntityError(validationCode(err), err.Error()).Write(w)
		return
	}

	user, err := s.registration.Register(ctx, reg)
	switch {
	case errors.Is(err, core.ErrEmailTaken):
		ErrorResponse(http.StatusConflict, "email_taken", "Email already registered").Write(w)
		return
	case err != nil:
		logger.ErrorContext(ctx, "User registration failed", applog.FieldError, err)
		InternalServerError("Failed to register user").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.usersRegistered, 1)
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(userCreated{ID: user.ID, Name: user.Name, Email: user.Email}).
		Write(w)
}

// handleChart serves the aligned chart. Bad stored data yields the empty
// chart with a 422 so the client can still render an empty state.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	atomic.AddInt64(&s.appMetrics.chartRequests, 1)

	chart, err := s.chart.Chart(ctx)
	if err == nil {
		NewJSONResponse().Body(chartResponse{AlignedSeriesPair: chart}).Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.chartFailures, 1)
	logger := applog.FromContext(ctx)
	empty := core.EmptyChart()

	var srcErr *services.SourceError
	if errors.As(err, &srcErr) {
		logger.ErrorContext(ctx, "Chart source unavailable",
			applog.FieldKind, srcErr.Kind,
			applog.FieldError, err)
		NewJSONResponse().
			Status(http.StatusBadGateway).
			Body(chartResponse{AlignedSeriesPair: empty, Error: "source_unavailable"}).
			Write(w)
		return
	}

	code := validationCode(err)
	status := http.StatusUnprocessableEntity
	if code == "invalid" {
		code, status = "internal", http.StatusInternalServerError
	}
	logger.WarnContext(ctx, "Chart data rejected", "code", code, applog.FieldError, err)
	NewJSONResponse().
		Status(status).
		Body(chartResponse{AlignedSeriesPair: empty, Error: code}).
		Write(w)
}

// validationCode maps domain errors to stable API error codes. Unknown
// errors map to "invalid".
func validationCode(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, core.ErrDuplicatePeriod):
		return "duplicate_period"
	case errors.Is(err, core.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, core.ErrInvalidDay):
		return "invalid_day"
	case errors.Is(err, core.ErrInvalidKind):
		return "invalid_kind"
	case errors.Is(err, core.ErrEmptyName):
		return "empty_name"
	case errors.Is(err, core.ErrInvalidEmail):
		return "invalid_email"
	case errors.Is(err, core.ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, core.ErrPasswordTooLong):
		return "password_too_long"
	}
	return "invalid"
}
