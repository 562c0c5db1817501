package handlers

import (
	"errors"
	"net/http"

	"familyconnect/internal/repository"
	"familyconnect/internal/service"
	"familyconnect/internal/validation"
)

// FamilyHandler serves data about the caller's family members. Access to a
// member requires an outgoing connection from the caller to that member.
type FamilyHandler struct {
	safety *service.SafetyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(safety *service.SafetyService) *FamilyHandler {
	return &FamilyHandler{safety: safety}
}

func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	members, err := h.safety.GetFamily(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting family members", err)
		return
	}

	respondJSON(w, r, http.StatusOK, members)
}

func (h *FamilyHandler) GetMemberLocation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	memberID, err := validation.ParseFamilyMemberID(r.PathValue("id"))
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	location, err := h.safety.GetFamilyMemberLocation(r.Context(), user.ID, memberID)
	switch {
	case errors.Is(err, service.ErrNotFamilyMember):
		respondWithMessage(w, r, http.StatusForbidden, ErrNotFamilyLocation)
	case errors.Is(err, repository.ErrNotFound):
		respondWithMessage(w, r, http.StatusNotFound, ErrNoMemberLocation)
	case err != nil:
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting family member location", err)
	default:
		respondJSON(w, r, http.StatusOK, location)
	}
}

func (h *FamilyHandler) GetMemberCheckIns(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	memberID, err := validation.ParseFamilyMemberID(r.PathValue("id"))
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}
	limit, err := validation.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondWithValidationError(w, r, err)
		return
	}

	checkIns, err := h.safety.GetFamilyMemberCheckIns(r.Context(), user.ID, memberID, limit)
	switch {
	case errors.Is(err, service.ErrNotFamilyMember):
		respondWithMessage(w, r, http.StatusForbidden, ErrNotFamilyCheckIns)
	case err != nil:
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting family member check-ins", err)
	default:
		respondJSON(w, r, http.StatusOK, checkIns)
	}
}

// GetFamilyCheckIns returns each family member's latest check-in, newest first
func (h *FamilyHandler) GetFamilyCheckIns(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	checkIns, err := h.safety.GetFamilyCheckIns(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "getting family check-ins", err)
		return
	}

	respondJSON(w, r, http.StatusOK, checkIns)
}
