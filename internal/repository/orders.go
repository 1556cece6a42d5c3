package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// MaxPickupCodeAttempts ограничивает число попыток подобрать свободный код выдачи.
const MaxPickupCodeAttempts = 10

// ErrPickupCodeExhausted возвращается, если все сгенерированные коды выдачи оказались заняты.
var ErrPickupCodeExhausted = errors.New("could not allocate unique pickup code")

// PlaceOrder в одной транзакции проверяет бокс, списывает остаток, создаёт заказ
// и увеличивает счётчик заказов партнёра. nextCode выдаёт кандидатов в коды выдачи.
func (r *PostgresRepository) PlaceOrder(ctx context.Context, req model.PlaceOrder, nextCode func() (string, error)) (*model.Order, error) {
	var placed *model.Order

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var rateText string
		bag, err := scanBag(tx.QueryRow(ctx,
			`SELECT `+bagColumns+`, p.commission_rate::text
			 FROM bags b
			 JOIN partners p ON p.id = b.partner_id
			 WHERE b.id = $1
			 FOR UPDATE OF b`, req.BagID),
			&rateText,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrBagNotFound
			}
			return fmt.Errorf("lock bag: %w", err)
		}
		rate, err := parseDecimal(rateText)
		if err != nil {
			return err
		}

		if err := bag.Reserve(req.Quantity); err != nil {
			return err
		}
		total, commission := model.OrderAmounts(bag.DiscountedPrice, req.Quantity, rate)

		// Условное списание: при нулевом числе затронутых строк остатка не хватило.
		tag, err := tx.Exec(ctx,
			`UPDATE bags
			 SET available_quantity = available_quantity - $2,
			     is_sold_out = is_sold_out OR available_quantity - $2 = 0,
			     is_active = is_active AND available_quantity - $2 > 0,
			     updated_at = NOW()
			 WHERE id = $1 AND is_active AND NOT is_sold_out AND available_quantity >= $2`,
			bag.ID, req.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement bag: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrInsufficientInventory
		}

		order, err := insertOrder(ctx, tx, req, bag, total.String(), commission.String(), nextCode)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE partners SET total_orders = total_orders + 1, updated_at = NOW() WHERE id = $1`,
			bag.PartnerID,
		); err != nil {
			return fmt.Errorf("increment partner orders: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		order.Bag = &model.BagSummary{ID: bag.ID, Title: bag.Title, DiscountedPrice: &bag.DiscountedPrice}
		placed = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, req model.PlaceOrder, bag *model.Bag, total, commission string, nextCode func() (string, error)) (*model.Order, error) {
	for attempt := 0; attempt < MaxPickupCodeAttempts; attempt++ {
		code, err := nextCode()
		if err != nil {
			return nil, fmt.Errorf("generate pickup code: %w", err)
		}

		order, err := scanOrder(tx.QueryRow(ctx,
			`INSERT INTO orders AS o (bag_id, partner_id, customer_name, customer_phone, customer_email,
			                          quantity, total_price, commission, status, payment_status, payment_method,
			                          pickup_code, pickup_time, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 ON CONFLICT (pickup_code) DO NOTHING
			 RETURNING `+orderColumns,
			bag.ID, bag.PartnerID, req.Customer.Name, req.Customer.Phone, req.Customer.Email,
			req.Quantity, total, commission,
			string(model.OrderStatusPending), string(model.PaymentStatusPending), string(req.PaymentMethod),
			code, bag.PickupTime.Start, req.Notes,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		return order, nil
	}
	return nil, ErrPickupCodeExhausted
}

const orderSummaryJoins = `
	 FROM orders o
	 JOIN bags b ON b.id = o.bag_id
	 JOIN partners p ON p.id = o.partner_id`

// GetOrder возвращает заказ со сведениями о боксе и партнёре.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var (
		bag      model.BagSummary
		price    string
		ps       model.PartnerSummary
		addr     model.Address
		lat, lon *float64
	)
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+`, b.title, b.discounted_price::text,
		        p.business_name, p.street, p.city, p.latitude, p.longitude, p.phone`+
			orderSummaryJoins+`
		 WHERE o.id = $1`, id),
		&bag.Title, &price, &ps.BusinessName, &addr.Street, &addr.City, &lat, &lon, &ps.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	discounted, err := parseDecimal(price)
	if err != nil {
		return nil, err
	}
	bag.ID = o.BagID
	bag.DiscountedPrice = &discounted
	addr.Coordinates = coordinatesFrom(lat, lon)
	ps.ID = o.PartnerID
	ps.Address = &addr
	o.Bag = &bag
	o.Partner = &ps
	return o, nil
}

// orderWhere строит условие отбора заказов и его аргументы.
func orderWhere(f model.OrderFilter) (string, []any) {
	var w whereBuilder
	if f.PartnerID != 0 {
		w.add(`o.partner_id = ?`, f.PartnerID)
	}
	if f.Status != "" {
		w.add(`o.status = ?`, string(f.Status))
	}
	if f.Day != nil {
		start := time.Date(f.Day.Year(), f.Day.Month(), f.Day.Day(), 0, 0, 0, 0, f.Day.Location())
		w.add(`o.created_at >= ? AND o.created_at < ?`, start, start.AddDate(0, 0, 1))
	}
	return w.clause(), w.args
}

// ListPartnerOrders возвращает заказы партнёра с названием и ценой бокса, новые первыми.
func (r *PostgresRepository) ListPartnerOrders(ctx context.Context, filter model.OrderFilter, limit int) ([]model.Order, error) {
	where, args := orderWhere(filter)
	query := `SELECT ` + orderColumns + `, b.title, b.discounted_price::text, p.business_name` +
		orderSummaryJoins + where + ` ORDER BY o.created_at DESC, o.id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	orders := make([]model.Order, 0)
	for rows.Next() {
		var (
			bag         model.BagSummary
			price       string
			partnerName string
		)
		o, err := scanOrder(rows, &bag.Title, &price, &partnerName)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		discounted, err := parseDecimal(price)
		if err != nil {
			return nil, err
		}
		bag.ID = o.BagID
		bag.DiscountedPrice = &discounted
		o.Bag = &bag
		o.Partner = &model.PartnerSummary{ID: o.PartnerID, BusinessName: partnerName}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}

// UpdateOrderStatus переводит заказ партнёра в статус next, если переход разрешён.
// Заказ другого партнёра не отличается от отсутствующего.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, partnerID, orderID int64, next model.OrderStatus) (*model.Order, model.OrderStatus, error) {
	var (
		updated  *model.Order
		previous model.OrderStatus
	)

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		var status string
		err = tx.QueryRow(ctx,
			`SELECT status FROM orders WHERE id = $1 AND partner_id = $2 FOR UPDATE`,
			orderID, partnerID,
		).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		current := model.OrderStatus(status)
		if current.Terminal() {
			return fmt.Errorf("%w: order is already %s", model.ErrInvalidTransition, current)
		}
		if !current.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, current, next)
		}

		o, err := scanOrder(tx.QueryRow(ctx,
			`UPDATE orders AS o SET status = $2, updated_at = NOW()
			 WHERE o.id = $1
			 RETURNING `+orderColumns,
			orderID, string(next),
		))
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		updated, previous = o, current
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return updated, previous, nil
}

// VerifyPickup выдаёт заказ партнёра в статусе ready с указанным кодом.
// Неверный код, чужой заказ и неподходящий статус дают одну и ту же ErrOrderNotFound.
func (r *PostgresRepository) VerifyPickup(ctx context.Context, partnerID int64, code string) (*model.PickupConfirmation, error) {
	var pc model.PickupConfirmation

	err := r.pool.QueryRow(ctx,
		`WITH upd AS (
		     UPDATE orders SET status = $4, updated_at = NOW()
		     WHERE pickup_code = $1 AND partner_id = $2 AND status = $3
		     RETURNING id, bag_id, customer_name, quantity
		 )
		 SELECT upd.id, upd.customer_name, b.title, upd.quantity
		 FROM upd JOIN bags b ON b.id = upd.bag_id`,
		code, partnerID, string(model.OrderStatusReady), string(model.OrderStatusPickedUp),
	).Scan(&pc.OrderID, &pc.CustomerName, &pc.BagTitle, &pc.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("verify pickup: %w", err)
	}
	return &pc, nil
}
