package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

type bagRequest struct {
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	OriginalPrice   decimal.Decimal    `json:"originalPrice"`
	DiscountedPrice decimal.Decimal    `json:"discountedPrice"`
	Quantity        int                `json:"quantity"`
	PickupTime      model.PickupWindow `json:"pickupTime"`
	Category        model.Category     `json:"category"`
	Tags            []string           `json:"tags"`
	Image           string             `json:"image"`
}

type soldOutResponse struct {
	Message string     `json:"message"`
	Bag     *model.Bag `json:"bag"`
}

// ListBags возвращает публичный каталог доступных боксов.
func (h *Handler) ListBags(w http.ResponseWriter, r *http.Request) {
	var errs validation.Errors
	lat := queryFloat(r, &errs, "latitude")
	lon := queryFloat(r, &errs, "longitude")
	radius := queryFloat(r, &errs, "radius")
	if radius != nil && *radius <= 0 {
		errs.Add("radius", "Radius must be a positive number")
	}
	if err := errs.Err(); err != nil {
		h.handleError(w, r, "list bags", err)
		return
	}

	filter := model.BagFilter{Category: model.Category(r.URL.Query().Get("category"))}
	if lat != nil && lon != nil {
		filter.Near = &model.Coordinates{Latitude: *lat, Longitude: *lon}
		if radius != nil {
			filter.RadiusKm = *radius
		}
	}
	if err := validation.BagFilter(filter); err != nil {
		h.handleError(w, r, "list bags", err)
		return
	}

	bags, err := h.service.ListBags(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, "list bags", err)
		return
	}
	writeJSON(w, http.StatusOK, bags)
}

// GetBag возвращает бокс со сведениями о партнёре.
func (h *Handler) GetBag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	bag, err := h.service.GetBag(r.Context(), id)
	if err != nil {
		h.handleError(w, r, "get bag", err)
		return
	}
	writeJSON(w, http.StatusOK, bag)
}

// ListPartnerBags возвращает боксы текущего партнёра.
func (h *Handler) ListPartnerBags(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}

	bags, err := h.service.ListPartnerBags(r.Context(), partnerID)
	if err != nil {
		h.handleError(w, r, "list partner bags", err)
		return
	}
	writeJSON(w, http.StatusOK, bags)
}

// CreateBag выставляет новый бокс текущего партнёра.
func (h *Handler) CreateBag(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}

	var req bagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	bag, err := h.service.CreateBag(r.Context(), partnerID, model.NewBag{
		Title:           req.Title,
		Description:     req.Description,
		OriginalPrice:   req.OriginalPrice,
		DiscountedPrice: req.DiscountedPrice,
		Quantity:        req.Quantity,
		PickupTime:      req.PickupTime,
		Category:        req.Category,
		Tags:            req.Tags,
		Image:           req.Image,
	})
	if err != nil {
		h.handleError(w, r, "create bag", err)
		return
	}
	writeJSON(w, http.StatusCreated, bag)
}

// UpdateBag изменяет бокс текущего партнёра.
func (h *Handler) UpdateBag(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}
	bagID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var patch model.BagPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	bag, err := h.service.UpdateBag(r.Context(), partnerID, bagID, patch)
	if err != nil {
		h.handleError(w, r, "update bag", err)
		return
	}
	writeJSON(w, http.StatusOK, bag)
}

// MarkBagSoldOut снимает бокс текущего партнёра с продажи.
func (h *Handler) MarkBagSoldOut(w http.ResponseWriter, r *http.Request) {
	partnerID, ok := currentPartner(w, r)
	if !ok {
		return
	}
	bagID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	bag, err := h.service.MarkBagSoldOut(r.Context(), partnerID, bagID)
	if err != nil {
		h.handleError(w, r, "mark bag sold out", err)
		return
	}
	writeJSON(w, http.StatusOK, soldOutResponse{Message: "Bag marked as sold out", Bag: bag})
}
