package repository

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// Денежные поля читаются как text и разбираются в decimal без потерь.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func coordinatesFrom(lat, lon *float64) *model.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &model.Coordinates{Latitude: *lat, Longitude: *lon}
}

func coordinatesArgs(c *model.Coordinates) (lat, lon *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Latitude, &c.Longitude
}

const partnerColumns = `p.id, p.business_name, p.email, p.phone, p.password_hash,
	p.street, p.city, p.latitude, p.longitude,
	p.bank_account_number, p.bank_name, p.bank_bin,
	p.commission_rate::text, p.is_active, p.is_verified, p.rating::text, p.total_orders,
	p.created_at, p.updated_at`

func scanPartner(row pgx.Row) (*model.Partner, error) {
	var (
		p          model.Partner
		lat, lon   *float64
		rate, rank string
	)
	err := row.Scan(
		&p.ID, &p.BusinessName, &p.Email, &p.Phone, &p.PasswordHash,
		&p.Address.Street, &p.Address.City, &lat, &lon,
		&p.BankDetails.AccountNumber, &p.BankDetails.BankName, &p.BankDetails.BIN,
		&rate, &p.IsActive, &p.IsVerified, &rank, &p.TotalOrders,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Address.Coordinates = coordinatesFrom(lat, lon)
	if p.CommissionRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if p.Rating, err = parseDecimal(rank); err != nil {
		return nil, err
	}
	return &p, nil
}

const bagColumns = `b.id, b.partner_id, b.title, b.description,
	b.original_price::text, b.discounted_price::text, b.quantity, b.available_quantity,
	b.pickup_start, b.pickup_end, b.is_active, b.is_sold_out, b.category, b.tags, b.image,
	b.created_at, b.updated_at`

// scanBag читает колонки bagColumns и затем extra.
func scanBag(row pgx.Row, extra ...any) (*model.Bag, error) {
	var (
		b                    model.Bag
		original, discounted string
		category             string
	)
	dest := []any{
		&b.ID, &b.PartnerID, &b.Title, &b.Description,
		&original, &discounted, &b.Quantity, &b.AvailableQuantity,
		&b.PickupTime.Start, &b.PickupTime.End, &b.IsActive, &b.IsSoldOut, &category, &b.Tags, &b.Image,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if b.OriginalPrice, err = parseDecimal(original); err != nil {
		return nil, err
	}
	if b.DiscountedPrice, err = parseDecimal(discounted); err != nil {
		return nil, err
	}
	b.Category = model.Category(category)
	if b.Tags == nil {
		b.Tags = []string{}
	}
	return &b, nil
}

const orderColumns = `o.id, o.bag_id, o.partner_id, o.customer_name, o.customer_phone, o.customer_email,
	o.quantity, o.total_price::text, o.commission::text, o.status, o.payment_status, o.payment_method,
	o.pickup_code, o.pickup_time, o.notes, o.created_at, o.updated_at`

// scanOrder читает колонки orderColumns и затем extra.
func scanOrder(row pgx.Row, extra ...any) (*model.Order, error) {
	var (
		o                       model.Order
		total, commission       string
		status, payment, method string
	)
	dest := []any{
		&o.ID, &o.BagID, &o.PartnerID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Email,
		&o.Quantity, &total, &commission, &status, &payment, &method,
		&o.PickupCode, &o.PickupTime, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if o.TotalPrice, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if o.Commission, err = parseDecimal(commission); err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.PaymentStatus = model.PaymentStatus(payment)
	o.PaymentMethod = model.PaymentMethod(method)
	return &o, nil
}
