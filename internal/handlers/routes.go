package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"familyconnect/internal/security"
	"familyconnect/internal/service"
)

// RouterDeps are the services the HTTP surface is built on
type RouterDeps struct {
	Auth   *service.AuthService
	Safety *service.SafetyService
	// LoginLimiter throttles POST /api/auth/login per client IP; nil disables it
	LoginLimiter *security.RateLimiter
	Logger       *zap.Logger
}

// NewRouter wires every route. The returned handler logs and recovers.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	middleware := NewMiddleware(deps.Auth, deps.LoginLimiter)
	authHandler := NewAuthHandler(deps.Auth)
	safetyHandler := NewSafetyHandler(deps.Safety)
	familyHandler := NewFamilyHandler(deps.Safety)
	pageHandler := NewPageHandler(deps.Auth, deps.Safety, templates)

	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", pageHandler.Dashboard)
	mux.HandleFunc("GET /login", pageHandler.ShowLogin)
	mux.HandleFunc("GET /health", pageHandler.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))

	// Own status, location and check-ins
	mux.HandleFunc("GET /api/status", middleware.RequireAuth(safetyHandler.GetStatus))
	mux.HandleFunc("POST /api/status", middleware.RequireAuth(enforceJSON(safetyHandler.PostStatus)))
	mux.HandleFunc("GET /api/location", middleware.RequireAuth(safetyHandler.GetLocation))
	mux.HandleFunc("POST /api/location", middleware.RequireAuth(enforceJSON(safetyHandler.PostLocation)))
	mux.HandleFunc("GET /api/location/history", middleware.RequireAuth(safetyHandler.GetLocationHistory))
	mux.HandleFunc("GET /api/check-in", middleware.RequireAuth(safetyHandler.GetCheckIns))
	mux.HandleFunc("POST /api/check-in", middleware.RequireAuth(enforceJSON(safetyHandler.PostCheckIn)))

	// Family
	mux.HandleFunc("GET /api/family", middleware.RequireAuth(familyHandler.GetFamily))
	mux.HandleFunc("GET /api/family/{id}/location", middleware.RequireAuth(familyHandler.GetMemberLocation))
	mux.HandleFunc("GET /api/family/{id}/check-in", middleware.RequireAuth(familyHandler.GetMemberCheckIns))
	mux.HandleFunc("GET /api/family-checkins", middleware.RequireAuth(familyHandler.GetFamilyCheckIns))

	return Logging(deps.Logger, Recover(mux)), nil
}
