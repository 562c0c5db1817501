package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/security"
	"familyconnect/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey      ContextKey = "user"
	RequestIDContextKey ContextKey = "request_id"
	loggerContextKey    ContextKey = "logger"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService  *service.AuthService
	loginLimiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. loginLimiter may be nil.
func NewMiddleware(authService *service.AuthService, loginLimiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// RequireAuth is middleware that requires a valid session. Invalid sessions
// are destroyed by the auth service and their cookie is cleared.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := security.SessionIDFromRequest(r)
		if sessionID == "" {
			respondWithMessage(w, r, http.StatusUnauthorized, ErrNotAuthenticated)
			return
		}

		user, err := m.authService.ValidateSession(r.Context(), sessionID)
		if err != nil {
			http.SetCookie(w, security.CreateDeleteCookie(r))
			switch {
			case errors.Is(err, service.ErrSessionUserGone):
				respondWithMessage(w, r, http.StatusUnauthorized, ErrUserNotFound)
			case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
				respondWithMessage(w, r, http.StatusUnauthorized, ErrNotAuthenticated)
			default:
				respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "validating session", err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.loginLimiter != nil && !m.loginLimiter.Allow(security.GetClientIP(r)) {
			LoggerFromContext(r.Context()).Warn("rate limit exceeded", zap.String("ip", security.GetClientIP(r)))
			respondWithMessage(w, r, http.StatusTooManyRequests, ErrTooManyRequests)
			return
		}
		next(w, r)
	}
}

// enforceJSON checks the Content-Type header and that the body is valid JSON.
// A blank Content-Type is treated as application/json and an empty body as {}.
func enforceJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if contentType != "" {
			mt, _, err := mime.ParseMediaType(contentType)
			if err != nil {
				respondWithMessage(w, r, http.StatusBadRequest, "Malformed Content-Type header")
				return
			}
			if mt != "application/json" {
				respondWithMessage(w, r, http.StatusUnsupportedMediaType, "Content-Type header must be application/json")
				return
			}
		} else {
			r.Header.Set("Content-Type", "application/json")
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondWithMessage(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			respondWithMessage(w, r, http.StatusBadRequest, "Can not read request body")
			return
		}

		if len(bytes.TrimSpace(body)) == 0 {
			body = []byte("{}")
		}

		if err := fastjson.ValidateBytes(body); err != nil {
			respondWithMessage(w, r, http.StatusBadRequest, "Malformed JSON")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Logging stamps each request with an xid request id and logs it on completion
func Logging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := xid.New().String()

		reqLogger := logger.With(zap.String("request_id", id))
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		ctx = context.WithValue(ctx, loggerContextKey, reqLogger)

		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		reqLogger.Info("http request",
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", r.RemoteAddr),
		)
	})
}

// Recover turns a panicking handler into a 500
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				LoggerFromContext(r.Context()).Error("panic serving request",
					zap.Any("panic", rv),
					zap.Stack("stack"),
				)
				respondWithMessage(w, r, http.StatusInternalServerError, ErrInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequestIDFromContext returns the id assigned by Logging
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDContextKey).(string)
	return id, ok
}

// LoggerFromContext returns the request-scoped logger, or the global one
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok {
		return logger
	}
	return zap.L()
}
