package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// CreatePartner сохраняет нового партнёра и заполняет его идентификатор и даты.
func (r *PostgresRepository) CreatePartner(ctx context.Context, p *model.Partner) error {
	lat, lon := coordinatesArgs(p.Address.Coordinates)

	var rating string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO partners (business_name, email, phone, password_hash, street, city, latitude, longitude,
		                       bank_account_number, bank_name, bank_bin, commission_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id, is_active, is_verified, rating::text, created_at, updated_at`,
		p.BusinessName, p.Email, p.Phone, p.PasswordHash, p.Address.Street, p.Address.City, lat, lon,
		p.BankDetails.AccountNumber, p.BankDetails.BankName, p.BankDetails.BIN, p.CommissionRate.String(),
	).Scan(&p.ID, &p.IsActive, &p.IsVerified, &rating, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrPartnerExists, p.Email)
		}
		return fmt.Errorf("create partner: %w", err)
	}

	p.Rating, err = parseDecimal(rating)
	return err
}

// GetPartnerByEmail возвращает партнёра по email вместе с хэшем пароля.
func (r *PostgresRepository) GetPartnerByEmail(ctx context.Context, email string) (*model.Partner, error) {
	p, err := scanPartner(r.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners p WHERE p.email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner by email: %w", err)
	}
	return p, nil
}

// GetPartner возвращает партнёра по идентификатору.
func (r *PostgresRepository) GetPartner(ctx context.Context, id int64) (*model.Partner, error) {
	p, err := scanPartner(r.pool.QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

// UpdatePartnerProfile применяет патч профиля под блокировкой строки партнёра.
func (r *PostgresRepository) UpdatePartnerProfile(ctx context.Context, id int64, patch model.ProfilePatch) (*model.Partner, error) {
	var updated *model.Partner

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		p, err := scanPartner(tx.QueryRow(ctx,
			`SELECT `+partnerColumns+` FROM partners p WHERE p.id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPartnerNotFound
			}
			return fmt.Errorf("lock partner: %w", err)
		}

		patch.Apply(p)
		lat, lon := coordinatesArgs(p.Address.Coordinates)

		err = tx.QueryRow(ctx,
			`UPDATE partners
			 SET business_name = $2, phone = $3, street = $4, city = $5, latitude = $6, longitude = $7,
			     bank_account_number = $8, bank_name = $9, bank_bin = $10, updated_at = NOW()
			 WHERE id = $1
			 RETURNING updated_at`,
			id, p.BusinessName, p.Phone, p.Address.Street, p.Address.City, lat, lon,
			p.BankDetails.AccountNumber, p.BankDetails.BankName, p.BankDetails.BIN,
		).Scan(&p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update partner: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetPartnerStatus меняет флаги активности и верификации. Nil оставляет флаг без изменений.
func (r *PostgresRepository) SetPartnerStatus(ctx context.Context, id int64, isActive, isVerified *bool) (*model.Partner, error) {
	p, err := scanPartner(r.pool.QueryRow(ctx,
		`UPDATE partners p
		 SET is_active = COALESCE($2, p.is_active),
		     is_verified = COALESCE($3, p.is_verified),
		     updated_at = NOW()
		 WHERE p.id = $1
		 RETURNING `+partnerColumns,
		id, isActive, isVerified,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("set partner status: %w", err)
	}
	return p, nil
}

func partnerFilterClause(f model.PartnerStatusFilter) string {
	switch f {
	case model.PartnerFilterActive:
		return ` WHERE p.is_active`
	case model.PartnerFilterInactive:
		return ` WHERE NOT p.is_active`
	case model.PartnerFilterVerified:
		return ` WHERE p.is_verified`
	case model.PartnerFilterUnverified:
		return ` WHERE NOT p.is_verified`
	}
	return ``
}

// ListPartners возвращает страницу партнёров, новые первыми, и общее число подходящих строк.
func (r *PostgresRepository) ListPartners(ctx context.Context, filter model.PartnerStatusFilter, page model.Page) ([]model.Partner, int64, error) {
	where := partnerFilterClause(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM partners p`+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count partners: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+partnerColumns+` FROM partners p`+where+`
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select partners: %w", err)
	}
	defer rows.Close()

	partners := make([]model.Partner, 0, page.Limit)
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return partners, total, nil
}
