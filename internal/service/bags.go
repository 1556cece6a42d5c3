package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

// ListBags возвращает каталог доступных боксов. По умолчанию используется радиус model.DefaultRadiusKm.
func (s *Service) ListBags(ctx context.Context, filter model.BagFilter) ([]model.Bag, error) {
	if err := validation.BagFilter(filter); err != nil {
		return nil, err
	}
	if filter.Near != nil && filter.RadiusKm == 0 {
		filter.RadiusKm = model.DefaultRadiusKm
	}

	filter.Now = s.now()
	return s.repo.ListAvailableBags(ctx, filter)
}

// GetBag возвращает бокс со сведениями о партнёре.
func (s *Service) GetBag(ctx context.Context, id int64) (*model.Bag, error) {
	return s.repo.GetBag(ctx, id)
}

// ListPartnerBags возвращает все боксы партнёра.
func (s *Service) ListPartnerBags(ctx context.Context, partnerID int64) ([]model.Bag, error) {
	return s.repo.ListPartnerBags(ctx, partnerID, 0)
}

// CreateBag выставляет новый бокс партнёра.
func (s *Service) CreateBag(ctx context.Context, partnerID int64, nb model.NewBag) (*model.Bag, error) {
	nb.Title = strings.TrimSpace(nb.Title)
	if nb.Category == "" {
		nb.Category = model.CategoryOther
	}
	if err := validation.NewBag(nb, s.now()); err != nil {
		return nil, err
	}
	return s.repo.CreateBag(ctx, partnerID, nb)
}

// UpdateBag изменяет бокс партнёра, пока по нему нет заказов.
func (s *Service) UpdateBag(ctx context.Context, partnerID, bagID int64, patch model.BagPatch) (*model.Bag, error) {
	return s.repo.UpdateBag(ctx, partnerID, bagID, func(b *model.Bag) error {
		patch.Apply(b)
		return validation.Bag(*b)
	})
}

// MarkBagSoldOut снимает бокс партнёра с продажи.
func (s *Service) MarkBagSoldOut(ctx context.Context, partnerID, bagID int64) (*model.Bag, error) {
	return s.repo.MarkBagSoldOut(ctx, partnerID, bagID)
}
