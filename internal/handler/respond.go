package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/ysrap-etpe/internal/middleware"
	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/repository"
	"github.com/mmeshcher/ysrap-etpe/internal/service"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// Сообщения для известных ошибок. Порядок важен: конкретные ошибки проверяются раньше общих.
var errorMessages = []struct {
	err     error
	message string
}{
	{repository.ErrPartnerExists, "Partner already exists with this email"},
	{repository.ErrPartnerNotFound, "Partner not found"},
	{repository.ErrBagNotFound, "Bag not found"},
	{repository.ErrOrderNotFound, "Order not found"},
	{model.ErrBagUnavailable, "Bag is not available"},
	{model.ErrInsufficientInventory, "Not enough quantity available"},
	{model.ErrInvalidTransition, "Invalid status transition"},
	{model.ErrBagHasOrders, "Cannot update bag with existing orders"},
	{model.ErrPartnerInactive, "Account is deactivated"},
	{service.ErrInvalidCredentials, "Invalid credentials"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func writeValidation(w http.ResponseWriter, errs validation.Errors) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: errs})
}

func errorStatus(err error) int {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func errorMessage(err error, status int) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return http.StatusText(status)
}

// handleError переводит ошибку сервиса в HTTP-ответ. Ошибки сервера пишутся в лог.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeValidation(w, verrs)
		return
	}

	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error", zap.Error(err), zap.String("path", r.URL.Path))
		writeMessage(w, status, "Server error")
		return
	}
	writeMessage(w, status, errorMessage(err, status))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		var errs validation.Errors
		errs.Add(name, "Must be a positive integer")
		writeValidation(w, errs)
		return 0, false
	}
	return id, true
}

func currentPartner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := middleware.GetPartnerIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "No token, authorization denied")
	}
	return id, ok
}

// queryInt читает целый параметр запроса; отсутствующий параметр даёт def.
func queryInt(r *http.Request, errs *validation.Errors, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		errs.Add(name, "Must be an integer")
		return def
	}
	return v
}

func queryID(r *http.Request, errs *validation.Errors, name string) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		errs.Add(name, "Must be a positive integer")
		return 0
	}
	return v
}

func queryFloat(r *http.Request, errs *validation.Errors, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs.Add(name, "Must be a number")
		return nil
	}
	return &v
}

// queryDate разбирает дату YYYY-MM-DD в местном часовом поясе.
func queryDate(r *http.Request, errs *validation.Errors, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		errs.Add(name, "Must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func queryPage(r *http.Request, errs *validation.Errors, defLimit int) model.Page {
	return model.Page{
		Number: queryInt(r, errs, "page", 1),
		Limit:  queryInt(r, errs, "limit", defLimit),
	}
}

type pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int64 `json:"totalPages"`
}

func newPagination(page model.Page, total int64) pagination {
	return pagination{Total: total, CurrentPage: page.Number, TotalPages: page.TotalPages(total)}
}
