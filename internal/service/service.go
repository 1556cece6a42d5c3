// Package service реализует бизнес-логику маркетплейса ysrap-etpe.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/ysrap-etpe/internal/broker"
	"github.com/mmeshcher/ysrap-etpe/internal/metrics"
	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// RecentLimit ограничивает число последних заказов и боксов в сводках.
const RecentLimit = 10

const publishTimeout = 5 * time.Second

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error

	CreatePartner(ctx context.Context, p *model.Partner) error
	GetPartnerByEmail(ctx context.Context, email string) (*model.Partner, error)
	GetPartner(ctx context.Context, id int64) (*model.Partner, error)
	UpdatePartnerProfile(ctx context.Context, id int64, patch model.ProfilePatch) (*model.Partner, error)
	SetPartnerStatus(ctx context.Context, id int64, isActive, isVerified *bool) (*model.Partner, error)
	ListPartners(ctx context.Context, filter model.PartnerStatusFilter, page model.Page) ([]model.Partner, int64, error)

	CreateBag(ctx context.Context, partnerID int64, nb model.NewBag) (*model.Bag, error)
	GetBag(ctx context.Context, id int64) (*model.Bag, error)
	ListAvailableBags(ctx context.Context, filter model.BagFilter) ([]model.Bag, error)
	ListPartnerBags(ctx context.Context, partnerID int64, limit int) ([]model.Bag, error)
	UpdateBag(ctx context.Context, partnerID, bagID int64, mutate func(*model.Bag) error) (*model.Bag, error)
	MarkBagSoldOut(ctx context.Context, partnerID, bagID int64) (*model.Bag, error)

	PlaceOrder(ctx context.Context, req model.PlaceOrder, nextCode func() (string, error)) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListPartnerOrders(ctx context.Context, filter model.OrderFilter, limit int) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, partnerID, orderID int64, next model.OrderStatus) (*model.Order, model.OrderStatus, error)
	VerifyPickup(ctx context.Context, partnerID int64, code string) (*model.PickupConfirmation, error)

	Dashboard(ctx context.Context, since time.Time, recent int) (*model.Dashboard, error)
	ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int64, error)
	PartnerDetails(ctx context.Context, id int64, recent int) (*model.PartnerDetails, error)
	CommissionReport(ctx context.Context, filter model.CommissionFilter) ([]model.CommissionRow, error)
}

// Service содержит бизнес-логику маркетплейса.
type Service struct {
	repo   Repository
	events broker.Publisher
	logger *zap.Logger

	now        func() time.Time
	nextCode   func() (string, error)
	bcryptCost int
}

// NewService создаёт сервис поверх репозитория. events может быть nil, тогда события не публикуются.
func NewService(repo Repository, events broker.Publisher, logger *zap.Logger) *Service {
	if events == nil {
		events = broker.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		events:     events,
		logger:     logger,
		now:        time.Now,
		nextCode:   GeneratePickupCode,
		bcryptCost: defaultBcryptCost,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// publish отправляет событие после фиксации изменений. Ошибка публикации не
// отменяет операцию и только попадает в лог и метрики.
func (s *Service) publish(ctx context.Context, eventType string, send func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		metrics.EventPublishFailuresTotal.WithLabelValues(eventType).Inc()
		s.logger.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
