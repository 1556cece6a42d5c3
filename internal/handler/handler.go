// Package handler содержит HTTP-обработчики API сервиса ysrap-etpe.
package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/mmeshcher/ysrap-etpe/internal/middleware"
	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	Register(ctx context.Context, reg model.Registration) (*model.Partner, error)
	Login(ctx context.Context, email, password string) (*model.Partner, error)

	GetProfile(ctx context.Context, partnerID int64) (*model.Partner, error)
	UpdateProfile(ctx context.Context, partnerID int64, patch model.ProfilePatch) (*model.Partner, error)
	GetPublicPartner(ctx context.Context, id int64) (*model.PartnerSummary, error)

	ListBags(ctx context.Context, filter model.BagFilter) ([]model.Bag, error)
	GetBag(ctx context.Context, id int64) (*model.Bag, error)
	ListPartnerBags(ctx context.Context, partnerID int64) ([]model.Bag, error)
	CreateBag(ctx context.Context, partnerID int64, nb model.NewBag) (*model.Bag, error)
	UpdateBag(ctx context.Context, partnerID, bagID int64, patch model.BagPatch) (*model.Bag, error)
	MarkBagSoldOut(ctx context.Context, partnerID, bagID int64) (*model.Bag, error)

	PlaceOrder(ctx context.Context, req model.PlaceOrder) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListPartnerOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, partnerID, orderID int64, next model.OrderStatus) (*model.Order, error)
	VerifyPickup(ctx context.Context, partnerID int64, code string) (*model.PickupConfirmation, error)

	Dashboard(ctx context.Context) (*model.Dashboard, error)
	ListPartners(ctx context.Context, filter model.PartnerStatusFilter, page model.Page) ([]model.Partner, int64, error)
	PartnerDetails(ctx context.Context, id int64) (*model.PartnerDetails, error)
	SetPartnerStatus(ctx context.Context, id int64, isActive, isVerified *bool) (*model.Partner, error)
	ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int64, error)
	CommissionReport(ctx context.Context, filter model.CommissionFilter) (*model.CommissionReport, error)
}

// Handler реализует HTTP-обработчики API сервиса ysrap-etpe.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}
