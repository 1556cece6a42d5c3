package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

const defaultBcryptCost = bcrypt.DefaultCost

// ErrInvalidCredentials возвращается при неверном email или пароле.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", model.ErrUnauthorized)

// Register регистрирует нового партнёра с комиссией по умолчанию.
func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.Partner, error) {
	reg.Email = validation.NormalizeEmail(reg.Email)
	reg.BusinessName = strings.TrimSpace(reg.BusinessName)
	reg.Phone = strings.TrimSpace(reg.Phone)
	if err := validation.Registration(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	address := reg.Address
	if address.City == "" {
		address.City = model.DefaultCity
	}

	p := &model.Partner{
		BusinessName:   reg.BusinessName,
		Email:          reg.Email,
		Phone:          reg.Phone,
		PasswordHash:   hash,
		Address:        address,
		BankDetails:    reg.BankDetails,
		CommissionRate: model.DefaultCommissionRate,
	}
	if err := s.repo.CreatePartner(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("partner registered", zap.Int64("partnerId", p.ID))
	return p, nil
}

// Login проверяет учётные данные партнёра. Отсутствие партнёра и неверный
// пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Partner, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.Login(email, password); err != nil {
		return nil, err
	}

	p, err := s.repo.GetPartnerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !p.IsActive {
		return nil, model.ErrPartnerInactive
	}
	return p, nil
}

// ResolvePartner возвращает активного партнёра по идентификатору из токена.
func (s *Service) ResolvePartner(ctx context.Context, id int64) (*model.Partner, error) {
	p, err := s.repo.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, model.ErrPartnerInactive
	}
	return p, nil
}
