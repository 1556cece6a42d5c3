package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// CreateBag сохраняет новый бокс партнёра. Остаток равен количеству.
func (r *PostgresRepository) CreateBag(ctx context.Context, partnerID int64, nb model.NewBag) (*model.Bag, error) {
	tags := nb.Tags
	if tags == nil {
		tags = []string{}
	}

	b, err := scanBag(r.pool.QueryRow(ctx,
		`INSERT INTO bags AS b (partner_id, title, description, original_price, discounted_price,
		                        quantity, available_quantity, pickup_start, pickup_end, category, tags, image)
		 VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9, $10, $11)
		 RETURNING `+bagColumns,
		partnerID, nb.Title, nb.Description, nb.OriginalPrice.String(), nb.DiscountedPrice.String(),
		nb.Quantity, nb.PickupTime.Start, nb.PickupTime.End, string(nb.Category), tags, nb.Image,
	))
	if err != nil {
		return nil, fmt.Errorf("create bag: %w", err)
	}
	return b, nil
}

// GetBag возвращает бокс с публичными сведениями о партнёре.
func (r *PostgresRepository) GetBag(ctx context.Context, id int64) (*model.Bag, error) {
	var (
		ps       model.PartnerSummary
		addr     model.Address
		lat, lon *float64
		rating   string
	)
	b, err := scanBag(r.pool.QueryRow(ctx,
		`SELECT `+bagColumns+`, p.business_name, p.street, p.city, p.latitude, p.longitude, p.phone, p.rating::text
		 FROM bags b
		 JOIN partners p ON p.id = b.partner_id
		 WHERE b.id = $1`, id),
		&ps.BusinessName, &addr.Street, &addr.City, &lat, &lon, &ps.Phone, &rating,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("get bag: %w", err)
	}

	rate, err := parseDecimal(rating)
	if err != nil {
		return nil, err
	}
	addr.Coordinates = coordinatesFrom(lat, lon)
	ps.ID = b.PartnerID
	ps.Address = &addr
	ps.Rating = &rate
	b.Partner = &ps
	return b, nil
}

// ListAvailableBags возвращает активные нераспроданные боксы с ещё не начавшейся выдачей,
// по возрастанию начала выдачи. При заданной точке отбираются партнёры в пределах радиуса.
func (r *PostgresRepository) ListAvailableBags(ctx context.Context, filter model.BagFilter) ([]model.Bag, error) {
	var category *string
	if filter.Category != "" {
		c := string(filter.Category)
		category = &c
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+bagColumns+`, p.business_name, p.street, p.city, p.latitude, p.longitude, p.rating::text
		 FROM bags b
		 JOIN partners p ON p.id = b.partner_id
		 WHERE b.is_active AND NOT b.is_sold_out
		   AND b.pickup_start >= $1
		   AND ($2::text IS NULL OR b.category = $2)
		 ORDER BY b.pickup_start ASC, b.id ASC`,
		filter.Now, category,
	)
	if err != nil {
		return nil, fmt.Errorf("select bags: %w", err)
	}
	defer rows.Close()

	bags := make([]model.Bag, 0)
	for rows.Next() {
		var (
			ps       model.PartnerSummary
			addr     model.Address
			lat, lon *float64
			rating   string
		)
		b, err := scanBag(rows, &ps.BusinessName, &addr.Street, &addr.City, &lat, &lon, &rating)
		if err != nil {
			return nil, fmt.Errorf("scan bag: %w", err)
		}

		addr.Coordinates = coordinatesFrom(lat, lon)
		if filter.Near != nil {
			if addr.Coordinates == nil || model.DistanceKm(*filter.Near, *addr.Coordinates) > filter.RadiusKm {
				continue
			}
		}

		rate, err := parseDecimal(rating)
		if err != nil {
			return nil, err
		}
		ps.ID = b.PartnerID
		ps.Address = &addr
		ps.Rating = &rate
		b.Partner = &ps
		bags = append(bags, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bags, nil
}

// ListPartnerBags возвращает все боксы партнёра, новые первыми.
func (r *PostgresRepository) ListPartnerBags(ctx context.Context, partnerID int64, limit int) ([]model.Bag, error) {
	query := `SELECT ` + bagColumns + ` FROM bags b WHERE b.partner_id = $1 ORDER BY b.created_at DESC, b.id DESC`
	args := []any{partnerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select partner bags: %w", err)
	}
	defer rows.Close()

	bags := make([]model.Bag, 0)
	for rows.Next() {
		b, err := scanBag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bag: %w", err)
		}
		bags = append(bags, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bags, nil
}

// UpdateBag блокирует бокс партнёра и передаёт его в mutate. Если по боксу уже
// есть заказы, изменение отклоняется с model.ErrBagHasOrders до вызова mutate.
func (r *PostgresRepository) UpdateBag(ctx context.Context, partnerID, bagID int64, mutate func(*model.Bag) error) (*model.Bag, error) {
	var updated *model.Bag

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		b, err := lockBag(ctx, tx, partnerID, bagID)
		if err != nil {
			return err
		}

		if b.HasOrders() {
			return model.ErrBagHasOrders
		}
		if err := mutate(b); err != nil {
			return err
		}

		b, err = scanBag(tx.QueryRow(ctx,
			`UPDATE bags AS b
			 SET title = $2, description = $3, original_price = $4, discounted_price = $5,
			     quantity = $6, available_quantity = $7, pickup_start = $8, pickup_end = $9,
			     category = $10, tags = $11, image = $12, updated_at = NOW()
			 WHERE b.id = $1
			 RETURNING `+bagColumns,
			b.ID, b.Title, b.Description, b.OriginalPrice.String(), b.DiscountedPrice.String(),
			b.Quantity, b.AvailableQuantity, b.PickupTime.Start, b.PickupTime.End,
			string(b.Category), b.Tags, b.Image,
		))
		if err != nil {
			return fmt.Errorf("update bag: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkBagSoldOut снимает бокс с продажи независимо от остатка.
func (r *PostgresRepository) MarkBagSoldOut(ctx context.Context, partnerID, bagID int64) (*model.Bag, error) {
	var sold *model.Bag

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		b, err := lockBag(ctx, tx, partnerID, bagID)
		if err != nil {
			return err
		}
		b.MarkSoldOut()

		b, err = scanBag(tx.QueryRow(ctx,
			`UPDATE bags AS b SET is_active = $2, is_sold_out = $3, updated_at = NOW()
			 WHERE b.id = $1
			 RETURNING `+bagColumns,
			b.ID, b.IsActive, b.IsSoldOut,
		))
		if err != nil {
			return fmt.Errorf("mark bag sold out: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		sold = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sold, nil
}

// lockBag блокирует строку бокса партнёра до конца транзакции.
func lockBag(ctx context.Context, tx pgx.Tx, partnerID, bagID int64) (*model.Bag, error) {
	b, err := scanBag(tx.QueryRow(ctx,
		`SELECT `+bagColumns+` FROM bags b WHERE b.id = $1 AND b.partner_id = $2 FOR UPDATE`,
		bagID, partnerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBagNotFound
		}
		return nil, fmt.Errorf("lock bag: %w", err)
	}
	return b, nil
}
