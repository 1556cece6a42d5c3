package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// Интеграционные тесты выполняются только при заданной TEST_DATABASE_URI.
func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URI")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URI is not set")
	}

	r, err := NewPostgresRepository(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.pool.Exec(context.Background(), `TRUNCATE orders, bags, partners RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return r
}

var codeSeq atomic.Int64

func sequentialCodes() (string, error) {
	return fmt.Sprintf("T%05d", codeSeq.Add(1)), nil
}

func seedPartner(t *testing.T, r *PostgresRepository, email string) *model.Partner {
	t.Helper()
	p := &model.Partner{
		BusinessName:   "Good Bakery",
		Email:          email,
		Phone:          "+77010000000",
		PasswordHash:   []byte("hash"),
		Address:        model.Address{Street: "Abay 1", City: model.DefaultCity, Coordinates: &model.Coordinates{Latitude: 43.238, Longitude: 76.945}},
		BankDetails:    model.BankDetails{AccountNumber: "KZ00", BankName: "Kaspi"},
		CommissionRate: model.DefaultCommissionRate,
	}
	require.NoError(t, r.CreatePartner(context.Background(), p))
	return p
}

func seedBag(t *testing.T, r *PostgresRepository, partnerID int64, quantity int, price int64) *model.Bag {
	t.Helper()
	start := time.Now().Add(time.Hour)
	b, err := r.CreateBag(context.Background(), partnerID, model.NewBag{
		Title:           "Pastry box",
		OriginalPrice:   decimal.NewFromInt(price * 3),
		DiscountedPrice: decimal.NewFromInt(price),
		Quantity:        quantity,
		PickupTime:      model.PickupWindow{Start: start, End: start.Add(2 * time.Hour)},
		Category:        model.CategoryBakery,
	})
	require.NoError(t, err)
	return b
}

func placeRequest(bagID int64, quantity int) model.PlaceOrder {
	return model.PlaceOrder{
		Customer:      model.Customer{Name: "Aigerim", Phone: "+77020000000", Email: "aigerim@mail.kz"},
		BagID:         bagID,
		Quantity:      quantity,
		PaymentMethod: model.PaymentKaspi,
	}
}

func TestCreatePartner_DuplicateEmail(t *testing.T) {
	r := newTestRepository(t)
	seedPartner(t, r, "owner@bakery.kz")

	err := r.CreatePartner(context.Background(), &model.Partner{
		BusinessName: "Copy", Email: "owner@bakery.kz", Phone: "1", PasswordHash: []byte("x"),
		CommissionRate: model.DefaultCommissionRate,
	})
	assert.ErrorIs(t, err, ErrPartnerExists)
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestPlaceOrder_Scenario(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := seedPartner(t, r, "owner@bakery.kz")
	b := seedBag(t, r, p.ID, 5, 1000)

	o, err := r.PlaceOrder(ctx, placeRequest(b.ID, 2), sequentialCodes)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(o.TotalPrice))
	assert.True(t, decimal.NewFromInt(300).Equal(o.Commission))
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)
	assert.WithinDuration(t, b.PickupTime.Start, o.PickupTime, time.Millisecond)

	got, err := r.GetBag(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableQuantity)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsSoldOut)

	partner, err := r.GetPartner(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, partner.TotalOrders)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 4), sequentialCodes)
	assert.ErrorIs(t, err, model.ErrInsufficientInventory)

	got, err = r.GetBag(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableQuantity)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 3), sequentialCodes)
	require.NoError(t, err)

	got, err = r.GetBag(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableQuantity)
	assert.False(t, got.IsActive)
	assert.True(t, got.IsSoldOut)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 1), sequentialCodes)
	assert.ErrorIs(t, err, model.ErrBagUnavailable)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID+100, 1), sequentialCodes)
	assert.ErrorIs(t, err, ErrBagNotFound)
}

func TestPlaceOrder_ConcurrentNoOversell(t *testing.T) {
	r := newTestRepository(t)
	p := seedPartner(t, r, "owner@bakery.kz")
	b := seedBag(t, r, p.ID, 5, 1000)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.PlaceOrder(context.Background(), placeRequest(b.ID, 3), sequentialCodes)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, model.ErrInsufficientInventory):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, succeeded.Load())
	assert.EqualValues(t, 1, rejected.Load())

	got, err := r.GetBag(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableQuantity)
}

func TestPlaceOrder_PickupCodeCollision(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := seedPartner(t, r, "owner@bakery.kz")
	b := seedBag(t, r, p.ID, 5, 500)

	fixed := func() (string, error) { return "AAAAAA", nil }
	_, err := r.PlaceOrder(ctx, placeRequest(b.ID, 1), fixed)
	require.NoError(t, err)

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	next := func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}
	o, err := r.PlaceOrder(ctx, placeRequest(b.ID, 1), next)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", o.PickupCode)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 1), fixed)
	assert.ErrorIs(t, err, ErrPickupCodeExhausted)

	got, err := r.GetBag(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableQuantity)
}

func TestOrderLifecycle(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := seedPartner(t, r, "owner@bakery.kz")
	other := seedPartner(t, r, "other@cafe.kz")
	b := seedBag(t, r, p.ID, 5, 1000)

	o, err := r.PlaceOrder(ctx, placeRequest(b.ID, 1), sequentialCodes)
	require.NoError(t, err)

	_, _, err = r.UpdateOrderStatus(ctx, p.ID, o.ID, model.OrderStatusReady)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, _, err = r.UpdateOrderStatus(ctx, other.ID, o.ID, model.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = r.VerifyPickup(ctx, p.ID, o.PickupCode)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	updated, prev, err := r.UpdateOrderStatus(ctx, p.ID, o.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, prev)
	assert.Equal(t, model.OrderStatusConfirmed, updated.Status)

	_, _, err = r.UpdateOrderStatus(ctx, p.ID, o.ID, model.OrderStatusReady)
	require.NoError(t, err)

	_, err = r.VerifyPickup(ctx, other.ID, o.PickupCode)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	pc, err := r.VerifyPickup(ctx, p.ID, o.PickupCode)
	require.NoError(t, err)
	assert.Equal(t, o.ID, pc.OrderID)
	assert.Equal(t, "Aigerim", pc.CustomerName)
	assert.Equal(t, "Pastry box", pc.BagTitle)
	assert.Equal(t, 1, pc.Quantity)

	_, err = r.VerifyPickup(ctx, p.ID, o.PickupCode)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, _, err = r.UpdateOrderStatus(ctx, p.ID, o.ID, model.OrderStatusCancelled)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.ErrorContains(t, err, "already picked_up")
}

func TestUpdateBag_RejectedAfterOrder(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := seedPartner(t, r, "owner@bakery.kz")
	b := seedBag(t, r, p.ID, 5, 1000)

	title := "Evening box"
	qty := 7
	updated, err := r.UpdateBag(ctx, p.ID, b.ID, func(bag *model.Bag) error {
		model.BagPatch{Title: &title, Quantity: &qty}.Apply(bag)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Evening box", updated.Title)
	assert.Equal(t, 7, updated.AvailableQuantity)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 1), sequentialCodes)
	require.NoError(t, err)

	_, err = r.UpdateBag(ctx, p.ID, b.ID, func(*model.Bag) error { return nil })
	assert.ErrorIs(t, err, model.ErrBagHasOrders)

	sold, err := r.MarkBagSoldOut(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, sold.IsSoldOut)
	assert.False(t, sold.IsActive)
	assert.Equal(t, 6, sold.AvailableQuantity)
}

func TestMarkBagSoldOut(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := seedPartner(t, r, "owner@bakery.kz")
	other := seedPartner(t, r, "other@cafe.kz")
	b := seedBag(t, r, p.ID, 3, 1000)

	_, err := r.MarkBagSoldOut(ctx, other.ID, b.ID)
	assert.ErrorIs(t, err, ErrBagNotFound)

	sold, err := r.MarkBagSoldOut(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, sold.IsSoldOut)
	assert.False(t, sold.IsActive)
	assert.Equal(t, 3, sold.AvailableQuantity)

	again, err := r.MarkBagSoldOut(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, again.IsSoldOut)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 1), sequentialCodes)
	assert.ErrorIs(t, err, model.ErrBagUnavailable)
}

func TestReports_RevenueStatusesOnly(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()
	p := seedPartner(t, r, "owner@bakery.kz")
	b := seedBag(t, r, p.ID, 10, 1000)

	ready, err := r.PlaceOrder(ctx, placeRequest(b.ID, 2), sequentialCodes)
	require.NoError(t, err)
	_, _, err = r.UpdateOrderStatus(ctx, p.ID, ready.ID, model.OrderStatusConfirmed)
	require.NoError(t, err)
	_, _, err = r.UpdateOrderStatus(ctx, p.ID, ready.ID, model.OrderStatusReady)
	require.NoError(t, err)

	_, err = r.PlaceOrder(ctx, placeRequest(b.ID, 1), sequentialCodes) // pending
	require.NoError(t, err)

	cancelled, err := r.PlaceOrder(ctx, placeRequest(b.ID, 1), sequentialCodes)
	require.NoError(t, err)
	_, _, err = r.UpdateOrderStatus(ctx, p.ID, cancelled.ID, model.OrderStatusCancelled)
	require.NoError(t, err)

	today := time.Now().Truncate(24 * time.Hour).Add(-24 * time.Hour)
	d, err := r.Dashboard(ctx, today, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, d.TotalOrders)
	assert.EqualValues(t, 3, d.TodayOrders)
	assert.EqualValues(t, 1, d.TotalPartners)
	assert.True(t, decimal.NewFromInt(2000).Equal(d.TotalRevenue))
	assert.True(t, decimal.NewFromInt(300).Equal(d.TotalCommission))
	assert.Len(t, d.RecentOrders, 3)

	rows, err := r.CommissionReport(ctx, model.CommissionFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0].TotalOrders)
	assert.True(t, decimal.NewFromInt(300).Equal(rows[0].TotalCommission))

	orders, total, err := r.ListOrders(ctx, model.OrderFilter{Status: model.OrderStatusPending}, model.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, orders, 1)
	assert.Equal(t, "Good Bakery", orders[0].Partner.BusinessName)
}
