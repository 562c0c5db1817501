package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/valyala/fastjson"

	"familyconnect/internal/models"
	"familyconnect/internal/security"
	"familyconnect/internal/service"
	"familyconnect/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	loginPool   fastjson.ParserPool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginResponse struct {
	models.User
	Message string `json:"message"`
}

// Login accepts JSON or form-encoded credentials. Form logins, and JSON
// logins carrying "Redirect-After-Login: true", are answered with a redirect to /.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	input, isForm, err := h.readCredentials(w, r)
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	session, user, err := h.authService.Login(r.Context(), input.Username, input.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondWithMessage(w, r, http.StatusUnauthorized, ErrInvalidCredentials)
		return
	}
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "login failed", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, session.ID, session.ExpiresAt))

	if isForm || r.Header.Get("Redirect-After-Login") == "true" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	respondJSON(w, r, http.StatusOK, loginResponse{User: *user, Message: "Login successful"})
}

func (h *AuthHandler) readCredentials(w http.ResponseWriter, r *http.Request) (validation.LoginInput, bool, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			return validation.LoginInput{}, false, validation.ValidationError{Field: "body", Message: "Can not read request body"}
		}
		p := h.loginPool.Get()
		defer h.loginPool.Put(p)
		input, err := validation.ParseLogin(p, body)
		return input, false, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return validation.LoginInput{}, true, validation.ValidationError{Field: "body", Message: "Invalid form data"}
	}
	input, err := validation.ValidateLogin(r.PostFormValue("username"), r.PostFormValue("password"))
	return input, true, err
}

// Logout destroys the session, if any, and clears the cookie. Forms posting
// _redirect are sent back to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), security.SessionIDFromRequest(r)); err != nil {
		respondWithError(w, r, http.StatusInternalServerError, "Failed to logout", "", err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))

	if r.PostFormValue("_redirect") != "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	respondWithMessage(w, r, http.StatusOK, "Logged out successfully")
}

// Me returns the session's user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, GetUserFromContext(r.Context()))
}
