package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// Типы событий заказов.
const (
	EventTypeOrderPlaced        = "order.placed"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderPickedUp      = "order.picked_up"
)

// BaseEvent содержит общие поля всех событий.
type BaseEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

func newBase(eventType string, at time.Time) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: at.UTC(),
	}
}

// OrderPlacedEvent публикуется после создания заказа.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID    int64           `json:"orderId"`
	BagID      int64           `json:"bagId"`
	PartnerID  int64           `json:"partnerId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Commission decimal.Decimal `json:"commission"`
}

// OrderStatusChangedEvent публикуется после смены статуса партнёром.
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64             `json:"orderId"`
	PartnerID int64             `json:"partnerId"`
	From      model.OrderStatus `json:"from"`
	To        model.OrderStatus `json:"to"`
}

// OrderPickedUpEvent публикуется после выдачи заказа по коду.
type OrderPickedUpEvent struct {
	BaseEvent
	OrderID   int64 `json:"orderId"`
	PartnerID int64 `json:"partnerId"`
	Quantity  int   `json:"quantity"`
}

// Publisher публикует доменные события заказов.
type Publisher interface {
	OrderPlaced(ctx context.Context, o *model.Order) error
	OrderStatusChanged(ctx context.Context, o *model.Order, from model.OrderStatus) error
	OrderPickedUp(ctx context.Context, partnerID int64, pc *model.PickupConfirmation) error
}

type eventWriter interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

// EventPublisher публикует события заказов через продюсер.
type EventPublisher struct {
	producer eventWriter
	now      func() time.Time
}

// NewEventPublisher создаёт публикатор событий поверх продюсера.
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer, now: time.Now}
}

func orderKey(id int64) string {
	return fmt.Sprintf("order-%d", id)
}

// OrderPlaced публикует событие order.placed.
func (ep *EventPublisher) OrderPlaced(ctx context.Context, o *model.Order) error {
	return ep.producer.PublishEvent(ctx, orderKey(o.ID), &OrderPlacedEvent{
		BaseEvent:  newBase(EventTypeOrderPlaced, ep.now()),
		OrderID:    o.ID,
		BagID:      o.BagID,
		PartnerID:  o.PartnerID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		Commission: o.Commission,
	})
}

// OrderStatusChanged публикует событие order.status_changed.
func (ep *EventPublisher) OrderStatusChanged(ctx context.Context, o *model.Order, from model.OrderStatus) error {
	return ep.producer.PublishEvent(ctx, orderKey(o.ID), &OrderStatusChangedEvent{
		BaseEvent: newBase(EventTypeOrderStatusChanged, ep.now()),
		OrderID:   o.ID,
		PartnerID: o.PartnerID,
		From:      from,
		To:        o.Status,
	})
}

// OrderPickedUp публикует событие order.picked_up.
func (ep *EventPublisher) OrderPickedUp(ctx context.Context, partnerID int64, pc *model.PickupConfirmation) error {
	return ep.producer.PublishEvent(ctx, orderKey(pc.OrderID), &OrderPickedUpEvent{
		BaseEvent: newBase(EventTypeOrderPickedUp, ep.now()),
		OrderID:   pc.OrderID,
		PartnerID: partnerID,
		Quantity:  pc.Quantity,
	})
}

// NopPublisher отбрасывает события. Используется, когда брокеры не настроены.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, *model.Order) error { return nil }

func (NopPublisher) OrderStatusChanged(context.Context, *model.Order, model.OrderStatus) error {
	return nil
}

func (NopPublisher) OrderPickedUp(context.Context, int64, *model.PickupConfirmation) error {
	return nil
}
