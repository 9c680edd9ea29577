package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogdenik/bankcore/internal/adapter/http/dto"
	"github.com/ogdenik/bankcore/internal/adapter/http/middleware"
	"github.com/ogdenik/bankcore/internal/usecase"
)

// UserHandler handles profile and contact management.
type UserHandler struct {
	userUC *usecase.UserUseCase
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userUC *usecase.UserUseCase) *UserHandler {
	return &UserHandler{userUC: userUC}
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	user, err := h.userUC.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get user", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

// AddEmail attaches a new email to the caller.
func (h *UserHandler) AddEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.userUC.AddEmail(r.Context(), userID, req.Address); err != nil {
		writeError(w, mapDomainError(err), "failed to add email", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateEmail replaces one of the caller's email addresses.
func (h *UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.userUC.UpdateEmail(r.Context(), userID, chi.URLParam(r, "id"), req.Address); err != nil {
		writeError(w, mapDomainError(err), "failed to update email", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteEmail removes one of the caller's email addresses.
func (h *UserHandler) DeleteEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	if err := h.userUC.DeleteEmail(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, mapDomainError(err), "failed to delete email", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddPhone attaches a new phone to the caller.
func (h *UserHandler) AddPhone(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.PhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.userUC.AddPhone(r.Context(), userID, req.Number); err != nil {
		writeError(w, mapDomainError(err), "failed to add phone", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdatePhone replaces one of the caller's phone numbers.
func (h *UserHandler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	var req dto.PhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.userUC.UpdatePhone(r.Context(), userID, chi.URLParam(r, "id"), req.Number); err != nil {
		writeError(w, mapDomainError(err), "failed to update phone", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePhone removes one of the caller's phone numbers.
func (h *UserHandler) DeletePhone(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return
	}

	if err := h.userUC.DeletePhone(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, mapDomainError(err), "failed to delete phone", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Search finds users by name prefix, birth date, email or phone.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter := usecase.UserSearchFilter{
		NamePrefix: r.URL.Query().Get("name"),
		Email:      r.URL.Query().Get("email"),
		Phone:      r.URL.Query().Get("phone"),
		Limit:      parseIntQuery(r, "limit", 20),
		Offset:     parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("born_after"); raw != "" {
		bornAfter, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid born_after", err.Error())
			return
		}

		filter.BornAfter = &bornAfter
	}

	users, err := h.userUC.Search(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to search users", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.UsersFromDomain(users))
}
