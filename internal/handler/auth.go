package handler

import (
	"net/http"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

type registerRequest struct {
	BusinessName string            `json:"businessName"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Password     string            `json:"password"`
	Address      model.Address     `json:"address"`
	BankDetails  model.BankDetails `json:"bankDetails"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type partnerBrief struct {
	ID           int64  `json:"id"`
	BusinessName string `json:"businessName"`
	Email        string `json:"email"`
	IsVerified   bool   `json:"isVerified"`
}

type authResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	Partner partnerBrief `json:"partner"`
}

// Register регистрирует нового партнёра и выдаёт ему токен.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	partner, err := h.service.Register(r.Context(), model.Registration{
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Address:      req.Address,
		BankDetails:  req.BankDetails,
	})
	if err != nil {
		h.handleError(w, r, "register partner", err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, "Partner registered successfully", partner)
}

// Login аутентифицирует партнёра по email и паролю.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	partner, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(w, r, "login partner", err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, "Login successful", partner)
}

func (h *Handler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, message string, p *model.Partner) {
	token, err := h.authMiddleware.IssueToken(p.ID)
	if err != nil {
		h.handleError(w, r, "issue token", err)
		return
	}

	writeJSON(w, status, authResponse{
		Message: message,
		Token:   token,
		Partner: partnerBrief{
			ID:           p.ID,
			BusinessName: p.BusinessName,
			Email:        p.Email,
			IsVerified:   p.IsVerified,
		},
	})
}
