package handler

import (
	"net/http"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

const (
	defaultPartnersLimit = 10
	defaultOrdersLimit   = 20
)

type partnersPage struct {
	Partners []model.Partner `json:"partners"`
	pagination
}

type ordersPage struct {
	Orders []model.Order `json:"orders"`
	pagination
}

type partnerStatusRequest struct {
	IsActive   *bool `json:"isActive"`
	IsVerified *bool `json:"isVerified"`
}

type partnerStatusResponse struct {
	Message string         `json:"message"`
	Partner *model.Partner `json:"partner"`
}

// Dashboard возвращает сводку для админ-панели.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.handleError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ListPartners возвращает страницу партнёров с фильтром по статусу.
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request) {
	var errs validation.Errors
	page := queryPage(r, &errs, defaultPartnersLimit)
	if err := errs.Err(); err != nil {
		h.handleError(w, r, "list partners", err)
		return
	}

	filter := model.PartnerStatusFilter(r.URL.Query().Get("status"))
	partners, total, err := h.service.ListPartners(r.Context(), filter, page)
	if err != nil {
		h.handleError(w, r, "list partners", err)
		return
	}
	writeJSON(w, http.StatusOK, partnersPage{Partners: partners, pagination: newPagination(page, total)})
}

// PartnerDetails возвращает карточку партнёра с последними заказами и боксами.
func (h *Handler) PartnerDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	d, err := h.service.PartnerDetails(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "partner details", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SetPartnerStatus меняет флаги активности и верификации партнёра.
func (h *Handler) SetPartnerStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req partnerStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.service.SetPartnerStatus(r.Context(), id, req.IsActive, req.IsVerified)
	if err != nil {
		h.handleError(w, r, "set partner status", err)
		return
	}
	writeJSON(w, http.StatusOK, partnerStatusResponse{Message: "Partner status updated", Partner: p})
}

// ListOrders возвращает страницу заказов всех партнёров.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var errs validation.Errors
	page := queryPage(r, &errs, defaultOrdersLimit)
	filter := model.OrderFilter{
		PartnerID: queryID(r, &errs, "partner"),
		Status:    model.OrderStatus(r.URL.Query().Get("status")),
		Day:       queryDate(r, &errs, "date"),
	}
	if err := errs.Err(); err != nil {
		h.handleError(w, r, "list orders", err)
		return
	}

	orders, total, err := h.service.ListOrders(r.Context(), filter, page)
	if err != nil {
		h.handleError(w, r, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, ordersPage{Orders: orders, pagination: newPagination(page, total)})
}

// CommissionReport возвращает комиссии по партнёрам за период.
// endDate включает весь указанный день.
func (h *Handler) CommissionReport(w http.ResponseWriter, r *http.Request) {
	var errs validation.Errors
	filter := model.CommissionFilter{
		From:      queryDate(r, &errs, "startDate"),
		To:        queryDate(r, &errs, "endDate"),
		PartnerID: queryID(r, &errs, "partner"),
	}
	if err := errs.Err(); err != nil {
		h.handleError(w, r, "commission report", err)
		return
	}
	if filter.To != nil {
		end := model.EndOfDay(*filter.To)
		filter.To = &end
	}

	report, err := h.service.CommissionReport(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, "commission report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
