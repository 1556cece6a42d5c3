package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

func revenueStatuses() []string {
	res := make([]string, 0, len(model.RevenueStatuses))
	for _, s := range model.RevenueStatuses {
		res = append(res, string(s))
	}
	return res
}

// Dashboard собирает сводку для админ-панели. since задаёт начало «сегодня».
func (r *PostgresRepository) Dashboard(ctx context.Context, since time.Time, recent int) (*model.Dashboard, error) {
	var (
		d                   model.Dashboard
		revenue, commission string
	)

	err := r.pool.QueryRow(ctx,
		`SELECT
		     COUNT(*) FILTER (WHERE created_at >= $1),
		     COUNT(*),
		     (SELECT COUNT(*) FROM partners WHERE is_active),
		     COALESCE(SUM(total_price) FILTER (WHERE status = ANY($2)), 0)::text,
		     COALESCE(SUM(commission) FILTER (WHERE status = ANY($2)), 0)::text
		 FROM orders`,
		since, revenueStatuses(),
	).Scan(&d.TodayOrders, &d.TotalOrders, &d.TotalPartners, &revenue, &commission)
	if err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	if d.TotalRevenue, err = parseDecimal(revenue); err != nil {
		return nil, err
	}
	if d.TotalCommission, err = parseDecimal(commission); err != nil {
		return nil, err
	}

	d.RecentOrders, err = r.ListPartnerOrders(ctx, model.OrderFilter{}, recent)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListOrders возвращает страницу заказов по фильтру и общее число подходящих заказов.
func (r *PostgresRepository) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int64, error) {
	where, args := orderWhere(filter)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	w := whereBuilder{args: args}
	query := `SELECT ` + orderColumns + `, b.title, b.discounted_price::text, p.business_name` +
		orderSummaryJoins + where +
		` ORDER BY o.created_at DESC, o.id DESC LIMIT ` + w.next(page.Limit) + ` OFFSET ` + w.next(page.Offset())

	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// PartnerDetails возвращает партнёра с последними заказами и боксами.
func (r *PostgresRepository) PartnerDetails(ctx context.Context, id int64, recent int) (*model.PartnerDetails, error) {
	p, err := r.GetPartner(ctx, id)
	if err != nil {
		return nil, err
	}

	orders, err := r.ListPartnerOrders(ctx, model.OrderFilter{PartnerID: id}, recent)
	if err != nil {
		return nil, err
	}

	bags, err := r.ListPartnerBags(ctx, id, recent)
	if err != nil {
		return nil, err
	}

	return &model.PartnerDetails{Partner: *p, RecentOrders: orders, RecentBags: bags}, nil
}

// CommissionReport группирует выручку и комиссию по партнёрам.
// Учитываются только заказы в статусах выручки; период применяется при обеих границах.
func (r *PostgresRepository) CommissionReport(ctx context.Context, filter model.CommissionFilter) ([]model.CommissionRow, error) {
	var w whereBuilder
	w.add(`o.status = ANY(?)`, revenueStatuses())
	if filter.From != nil && filter.To != nil {
		w.add(`o.created_at >= ? AND o.created_at <= ?`, *filter.From, *filter.To)
	}
	if filter.PartnerID != 0 {
		w.add(`o.partner_id = ?`, filter.PartnerID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.business_name, COUNT(*), SUM(o.total_price)::text, SUM(o.commission)::text
		 FROM orders o
		 JOIN partners p ON p.id = o.partner_id`+w.clause()+`
		 GROUP BY p.id, p.business_name
		 ORDER BY SUM(o.commission) DESC, p.id ASC`,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select commission report: %w", err)
	}
	defer rows.Close()

	report := make([]model.CommissionRow, 0)
	for rows.Next() {
		var (
			row                 model.CommissionRow
			revenue, commission string
		)
		if err := rows.Scan(&row.PartnerID, &row.PartnerName, &row.TotalOrders, &revenue, &commission); err != nil {
			return nil, fmt.Errorf("scan commission row: %w", err)
		}
		if row.TotalRevenue, err = parseDecimal(revenue); err != nil {
			return nil, err
		}
		if row.TotalCommission, err = parseDecimal(commission); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return report, nil
}
