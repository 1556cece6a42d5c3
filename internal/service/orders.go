package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/mmeshcher/ysrap-etpe/internal/broker"
	"github.com/mmeshcher/ysrap-etpe/internal/metrics"
	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/tracing"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

// Статусы, которые партнёр может выставить заказу вручную.
var settableStatuses = map[model.OrderStatus]bool{
	model.OrderStatusConfirmed: true,
	model.OrderStatusReady:     true,
	model.OrderStatusPickedUp:  true,
	model.OrderStatusCancelled: true,
}

func rejectReason(err error) string {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrBagUnavailable):
		return "unavailable"
	case errors.Is(err, model.ErrInsufficientInventory):
		return "insufficient_inventory"
	}
	return "error"
}

// PlaceOrder оформляет заказ покупателя на бокс.
func (s *Service) PlaceOrder(ctx context.Context, req model.PlaceOrder) (*model.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "service.PlaceOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("bag.id", req.BagID), attribute.Int("order.quantity", req.Quantity))

	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	req.Customer.Phone = strings.TrimSpace(req.Customer.Phone)
	req.Customer.Email = strings.TrimSpace(req.Customer.Email)

	order, err := s.placeOrder(ctx, req)
	if err != nil {
		reason := rejectReason(err)
		metrics.OrdersRejectedTotal.WithLabelValues(reason).Inc()
		span.SetStatus(codes.Error, reason)
		return nil, err
	}

	metrics.OrdersPlacedTotal.Inc()
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.logger.Info("order placed",
		zap.Int64("orderId", order.ID),
		zap.Int64("bagId", order.BagID),
		zap.Int("quantity", order.Quantity),
		zap.String("totalPrice", order.TotalPrice.String()),
	)

	s.publish(ctx, broker.EventTypeOrderPlaced, func(ctx context.Context) error {
		return s.events.OrderPlaced(ctx, order)
	})
	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, req model.PlaceOrder) (*model.Order, error) {
	if err := validation.PlaceOrder(req); err != nil {
		return nil, err
	}
	return s.repo.PlaceOrder(ctx, req, s.nextCode)
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListPartnerOrders возвращает заказы партнёра по фильтру.
func (s *Service) ListPartnerOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		var errs validation.Errors
		errs.Add("status", "Unknown status")
		return nil, errs
	}
	return s.repo.ListPartnerOrders(ctx, filter, 0)
}

// UpdateOrderStatus переводит заказ партнёра в новый статус.
func (s *Service) UpdateOrderStatus(ctx context.Context, partnerID, orderID int64, next model.OrderStatus) (*model.Order, error) {
	ctx, span := tracing.StartSpan(ctx, "service.UpdateOrderStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID), attribute.String("order.status", string(next)))

	if !settableStatuses[next] {
		var errs validation.Errors
		errs.Add("status", "Invalid status")
		return nil, errs
	}

	order, prev, err := s.repo.UpdateOrderStatus(ctx, partnerID, orderID, next)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.OrderStatusTransitionsTotal.WithLabelValues(string(next)).Inc()
	s.publish(ctx, broker.EventTypeOrderStatusChanged, func(ctx context.Context) error {
		return s.events.OrderStatusChanged(ctx, order, prev)
	})
	return order, nil
}

// VerifyPickup выдаёт готовый заказ по коду, который предъявил покупатель.
func (s *Service) VerifyPickup(ctx context.Context, partnerID int64, code string) (*model.PickupConfirmation, error) {
	ctx, span := tracing.StartSpan(ctx, "service.VerifyPickup")
	defer span.End()

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		var errs validation.Errors
		errs.Add("pickupCode", "Pickup code is required")
		return nil, errs
	}

	pc, err := s.repo.VerifyPickup(ctx, partnerID, code)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.PickupsVerifiedTotal.Inc()
	s.publish(ctx, broker.EventTypeOrderPickedUp, func(ctx context.Context) error {
		return s.events.OrderPickedUp(ctx, partnerID, pc)
	})
	return pc, nil
}
