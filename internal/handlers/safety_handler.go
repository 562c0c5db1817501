package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/valyala/fastjson"

	"familyconnect/internal/repository"
	"familyconnect/internal/service"
	"familyconnect/internal/validation"
)

type parsers struct {
	statusPool   fastjson.ParserPool
	locationPool fastjson.ParserPool
	checkInPool  fastjson.ParserPool
}

// SafetyHandler serves the caller's own status, location and check-ins
type SafetyHandler struct {
	safety  *service.SafetyService
	parsers parsers
}

// NewSafetyHandler creates a new safety handler
func NewSafetyHandler(safety *service.SafetyService) *SafetyHandler {
	return &SafetyHandler{safety: safety}
}

func (h *SafetyHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	status, err := h.safety.GetStatus(r.Context(), user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		respondWithMessage(w, r, http.StatusNotFound, ErrNoStatus)
		return
	}
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting status", err)
		return
	}

	respondJSON(w, r, http.StatusOK, status)
}

// PostStatus records a status update. Emergencies alert the caller's watchers.
func (h *SafetyHandler) PostStatus(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	body, _ := io.ReadAll(r.Body)

	p := h.parsers.statusPool.Get()
	input, err := validation.ParseStatusUpdate(p, body)
	h.parsers.statusPool.Put(p)
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	status, err := h.safety.UpdateStatus(r.Context(), user, input)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "creating status", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, status)
}

func (h *SafetyHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	location, err := h.safety.GetLocation(r.Context(), user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		respondWithMessage(w, r, http.StatusNotFound, ErrNoLocation)
		return
	}
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting location", err)
		return
	}

	respondJSON(w, r, http.StatusOK, location)
}

func (h *SafetyHandler) PostLocation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	body, _ := io.ReadAll(r.Body)

	p := h.parsers.locationPool.Get()
	input, err := validation.ParseLocation(p, body)
	h.parsers.locationPool.Put(p)
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	location, err := h.safety.ShareLocation(r.Context(), user.ID, input)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "creating location", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, location)
}

// GetLocationHistory returns the caller's last 24 hours of locations, newest first
func (h *SafetyHandler) GetLocationHistory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	history, err := h.safety.GetLocationHistory(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting location history", err)
		return
	}

	respondJSON(w, r, http.StatusOK, history)
}

func (h *SafetyHandler) PostCheckIn(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	body, _ := io.ReadAll(r.Body)

	p := h.parsers.checkInPool.Get()
	input, err := validation.ParseCheckIn(p, body)
	h.parsers.checkInPool.Put(p)
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	checkIn, err := h.safety.CheckIn(r.Context(), user.ID, input)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "creating check-in", err)
		return
	}

	respondJSON(w, r, http.StatusCreated, checkIn)
}

// GetCheckIns returns the caller's most recent check-ins, ?limit defaulting to 10
func (h *SafetyHandler) GetCheckIns(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	limit, err := validation.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	checkIns, err := h.safety.GetCheckIns(r.Context(), user.ID, limit)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting check-ins", err)
		return
	}

	respondJSON(w, r, http.StatusOK, checkIns)
}
