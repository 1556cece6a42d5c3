package handler

import (
	"net/http"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// GetProfile возвращает профиль текущего партнёра.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetProfile(r.Context(), partnerID)
	if err != nil {
		h.handleError(w, r, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProfile меняет разрешённые поля профиля текущего партнёра.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}

	var patch model.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	p, err := h.service.UpdateProfile(r.Context(), partnerID, patch)
	if err != nil {
		h.handleError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetPartner возвращает публичные сведения о партнёре.
func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.service.GetPublicPartner(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "get partner", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
