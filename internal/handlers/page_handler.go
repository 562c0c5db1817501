package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"familyconnect/internal/models"
	"familyconnect/internal/repository"
	"familyconnect/internal/security"
	"familyconnect/internal/service"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 15:04")
		},
		"deref": func(i *int) int {
			if i == nil {
				return 0
			}
			return *i
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// PageHandler serves the HTML pages and the health check
type PageHandler struct {
	authService *service.AuthService
	safety      *service.SafetyService
	templates   *template.Template
}

// NewPageHandler creates a new page handler
func NewPageHandler(authService *service.AuthService, safety *service.SafetyService, templates *template.Template) *PageHandler {
	return &PageHandler{
		authService: authService,
		safety:      safety,
		templates:   templates,
	}
}

func (h *PageHandler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ShowLogin renders the login form, or sends signed-in users home
func (h *PageHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, r, "login.tmpl", map[string]any{
		"Title": "Family Connect - Login",
	})
}

// Dashboard renders the signed-in user's home page
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		http.SetCookie(w, security.CreateDeleteCookie(r))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx := r.Context()
	data := map[string]any{
		"Title": "Family Connect - Home",
		"User":  user,
	}

	status, err := h.safety.GetStatus(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.fail(w, r, "loading status", err)
		return
	}
	data["Status"] = status

	location, err := h.safety.GetLocation(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.fail(w, r, "loading location", err)
		return
	}
	data["Location"] = location

	family, err := h.safety.GetFamily(ctx, user.ID)
	if err != nil {
		h.fail(w, r, "loading family", err)
		return
	}
	data["Family"] = family

	checkIns, err := h.safety.GetFamilyCheckIns(ctx, user.ID)
	if err != nil {
		h.fail(w, r, "loading family check-ins", err)
		return
	}
	data["CheckIns"] = checkIns

	h.render(w, r, "dashboard.tmpl", data)
}

func (h *PageHandler) currentUser(r *http.Request) *models.User {
	sessionID := security.SessionIDFromRequest(r)
	if sessionID == "" {
		return nil
	}
	user, err := h.authService.ValidateSession(r.Context(), sessionID)
	if err != nil {
		return nil
	}
	return user
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		LoggerFromContext(r.Context()).Error("rendering template", zap.String("template", name), zap.Error(err))
		http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
	}
}

func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	LoggerFromContext(r.Context()).Error(logMsg, zap.Error(err))
	http.Error(w, ErrInternalServerError, http.StatusInternalServerError)
}
