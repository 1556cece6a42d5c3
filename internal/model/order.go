package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает этап жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusPickedUp},
	OrderStatusPickedUp:  {},
	OrderStatusCancelled: {},
}

// Valid сообщает, является ли s известным статусом.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo сообщает, разрешён ли переход из s в next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// RevenueStatuses перечисляет статусы заказов, учитываемые в выручке и комиссии.
var RevenueStatuses = []OrderStatus{OrderStatusReady, OrderStatusPickedUp}

// PaymentMethod описывает способ оплаты заказа.
type PaymentMethod string

const (
	PaymentCard  PaymentMethod = "card"
	PaymentCash  PaymentMethod = "cash"
	PaymentKaspi PaymentMethod = "kaspi"
	PaymentHalyk PaymentMethod = "halyk"
)

// Valid сообщает, поддерживается ли способ оплаты.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentCash, PaymentKaspi, PaymentHalyk:
		return true
	}
	return false
}

// PaymentStatus описывает состояние оплаты. Ни одна операция сервиса его не меняет.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Customer содержит контактные данные покупателя, сохраняемые в заказе.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// BagSummary содержит краткие сведения о боксе, присоединяемые к заказу.
type BagSummary struct {
	ID              int64            `json:"id"`
	Title           string           `json:"title"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
}

// Order описывает покупку бокса с зафиксированными на момент создания суммами.
type Order struct {
	ID            int64           `json:"id"`
	Customer      Customer        `json:"customer"`
	BagID         int64           `json:"bagId"`
	Bag           *BagSummary     `json:"bag,omitempty"`
	PartnerID     int64           `json:"partnerId"`
	Partner       *PartnerSummary `json:"partner,omitempty"`
	Quantity      int             `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Commission    decimal.Decimal `json:"commission"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	PickupCode    string          `json:"pickupCode"`
	PickupTime    time.Time       `json:"pickupTime"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PlaceOrder описывает запрос покупателя на покупку бокса.
type PlaceOrder struct {
	Customer      Customer
	BagID         int64
	Quantity      int
	PaymentMethod PaymentMethod
	Notes         string
}

// PickupConfirmation возвращается партнёру после выдачи заказа.
type PickupConfirmation struct {
	OrderID      int64  `json:"id"`
	CustomerName string `json:"customerName"`
	BagTitle     string `json:"bagTitle"`
	Quantity     int    `json:"quantity"`
}

// OrderFilter задаёт отбор заказов. Нулевые поля не ограничивают выборку.
type OrderFilter struct {
	PartnerID int64
	Status    OrderStatus
	Day       *time.Time
}
