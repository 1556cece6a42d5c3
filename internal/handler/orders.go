package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

type placeOrderRequest struct {
	Customer      model.Customer      `json:"customer"`
	BagID         int64               `json:"bagId"`
	Quantity      int                 `json:"quantity"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	Notes         string              `json:"notes"`
}

type placedOrder struct {
	ID         int64             `json:"id"`
	PickupCode string            `json:"pickupCode"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
	PickupTime time.Time         `json:"pickupTime"`
	Status     model.OrderStatus `json:"status"`
}

type placeOrderResponse struct {
	Message string      `json:"message"`
	Order   placedOrder `json:"order"`
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

type orderResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

type verifyPickupRequest struct {
	PickupCode string `json:"pickupCode"`
}

type pickupResponse struct {
	Message string                    `json:"message"`
	Order   *model.PickupConfirmation `json:"order"`
}

// PlaceOrder оформляет заказ покупателя на бокс.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), model.PlaceOrder{
		Customer:      req.Customer,
		BagID:         req.BagID,
		Quantity:      req.Quantity,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		h.handleError(w, r, "place order", err)
		return
	}

	writeJSON(w, http.StatusCreated, placeOrderResponse{
		Message: "Order created successfully",
		Order: placedOrder{
			ID:         order.ID,
			PickupCode: order.PickupCode,
			TotalPrice: order.TotalPrice,
			PickupTime: order.PickupTime,
			Status:     order.Status,
		},
	})
}

// GetOrder возвращает заказ с боксом и партнёром.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListPartnerOrders возвращает заказы текущего партнёра, опционально за день и по статусу.
func (h *Handler) ListPartnerOrders(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}

	var errs validation.Errors
	day := queryDate(r, &errs, "date")
	if err := errs.Err(); err != nil {
		h.handleError(w, r, "list partner orders", err)
		return
	}

	orders, err := h.service.ListPartnerOrders(r.Context(), model.OrderFilter{
		PartnerID: partnerID,
		Status:    model.OrderStatus(r.URL.Query().Get("status")),
		Day:       day,
	})
	if err != nil {
		h.handleError(w, r, "list partner orders", err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus переводит заказ текущего партнёра в новый статус.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), partnerID, orderID, req.Status)
	if err != nil {
		h.handleError(w, r, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Message: "Order status updated", Order: order})
}

// VerifyPickup выдаёт готовый заказ по коду покупателя.
func (h *Handler) VerifyPickup(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}

	var req verifyPickupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pc, err := h.service.VerifyPickup(r.Context(), partnerID, req.PickupCode)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Invalid pickup code or order not ready")
			return
		}
		h.handleError(w, r, "verify pickup", err)
		return
	}
	writeJSON(w, http.StatusOK, pickupResponse{Message: "Pickup verified successfully", Order: pc})
}
