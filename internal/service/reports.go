package service

import (
	"context"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

// Dashboard возвращает сводку для админ-панели. «Сегодня» отсчитывается от местной полуночи.
func (s *Service) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	return s.repo.Dashboard(ctx, startOfDay(s.now()), RecentLimit)
}

// ListPartners возвращает страницу партнёров по фильтру статуса.
func (s *Service) ListPartners(ctx context.Context, filter model.PartnerStatusFilter, page model.Page) ([]model.Partner, int64, error) {
	var errs validation.Errors
	if !filter.Valid() {
		errs.Add("status", "Unknown status filter")
	}
	if err := validation.PageParams(page); err != nil {
		errs = append(errs, err.(validation.Errors)...)
	}
	if err := errs.Err(); err != nil {
		return nil, 0, err
	}
	return s.repo.ListPartners(ctx, filter, page)
}

// PartnerDetails возвращает карточку партнёра с последними заказами и боксами.
func (s *Service) PartnerDetails(ctx context.Context, id int64) (*model.PartnerDetails, error) {
	return s.repo.PartnerDetails(ctx, id, RecentLimit)
}

// SetPartnerStatus меняет флаги активности и верификации партнёра.
func (s *Service) SetPartnerStatus(ctx context.Context, id int64, isActive, isVerified *bool) (*model.Partner, error) {
	if isActive == nil && isVerified == nil {
		var errs validation.Errors
		errs.Add("isActive", "Either isActive or isVerified is required")
		return nil, errs
	}
	return s.repo.SetPartnerStatus(ctx, id, isActive, isVerified)
}

// ListOrders возвращает страницу заказов всех партнёров.
func (s *Service) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int64, error) {
	var errs validation.Errors
	if filter.Status != "" && !filter.Status.Valid() {
		errs.Add("status", "Unknown status")
	}
	if err := validation.PageParams(page); err != nil {
		errs = append(errs, err.(validation.Errors)...)
	}
	if err := errs.Err(); err != nil {
		return nil, 0, err
	}
	return s.repo.ListOrders(ctx, filter, page)
}

// CommissionReport строит отчёт по комиссиям с итогом по всем партнёрам.
func (s *Service) CommissionReport(ctx context.Context, filter model.CommissionFilter) (*model.CommissionReport, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		var errs validation.Errors
		errs.Add("endDate", "End date must not be before start date")
		return nil, errs
	}

	rows, err := s.repo.CommissionReport(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.CommissionReport{Rows: rows, Summary: model.Summarize(rows)}, nil
}
