package service

import (
	"context"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

// GetProfile возвращает профиль партнёра.
func (s *Service) GetProfile(ctx context.Context, partnerID int64) (*model.Partner, error) {
	return s.repo.GetPartner(ctx, partnerID)
}

// UpdateProfile применяет к профилю партнёра разрешённые изменения.
func (s *Service) UpdateProfile(ctx context.Context, partnerID int64, patch model.ProfilePatch) (*model.Partner, error) {
	if err := validation.ProfilePatch(patch); err != nil {
		return nil, err
	}
	return s.repo.UpdatePartnerProfile(ctx, partnerID, patch)
}

// GetPublicPartner возвращает публичные сведения о партнёре.
func (s *Service) GetPublicPartner(ctx context.Context, id int64) (*model.PartnerSummary, error) {
	p, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.PartnerSummary{
		ID:           p.ID,
		BusinessName: p.BusinessName,
		Address:      &p.Address,
		Rating:       &p.Rating,
		TotalOrders:  &p.TotalOrders,
	}, nil
}
