package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
	"github.com/mmeshcher/ysrap-etpe/internal/repository"
	"github.com/mmeshcher/ysrap-etpe/internal/validation"
)

type stubRepo struct {
	createPartnerErr error
	createdPartner   *model.Partner

	partner    *model.Partner
	partnerErr error

	bag        *model.Bag
	bagErr     error
	createdBag model.NewBag
	bagFilter  model.BagFilter

	placeReq   model.PlaceOrder
	placed     *model.Order
	placeErr   error
	gotCodeGen bool

	statusOrder *model.Order
	statusPrev  model.OrderStatus
	statusErr   error

	pickup     *model.PickupConfirmation
	pickupErr  error
	pickupCode string

	dashboardSince time.Time
	commissionRows []model.CommissionRow

	partnerStatusCalled bool
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) Ping(ctx context.Context) error { return nil }

func (s *stubRepo) CreatePartner(ctx context.Context, p *model.Partner) error {
	if s.createPartnerErr != nil {
		return s.createPartnerErr
	}
	p.ID = 1
	p.IsActive = true
	s.createdPartner = p
	return nil
}

func (s *stubRepo) GetPartnerByEmail(ctx context.Context, email string) (*model.Partner, error) {
	return s.partner, s.partnerErr
}

func (s *stubRepo) GetPartner(ctx context.Context, id int64) (*model.Partner, error) {
	return s.partner, s.partnerErr
}

func (s *stubRepo) UpdatePartnerProfile(ctx context.Context, id int64, patch model.ProfilePatch) (*model.Partner, error) {
	patch.Apply(s.partner)
	return s.partner, nil
}

func (s *stubRepo) SetPartnerStatus(ctx context.Context, id int64, isActive, isVerified *bool) (*model.Partner, error) {
	s.partnerStatusCalled = true
	return s.partner, s.partnerErr
}

func (s *stubRepo) ListPartners(ctx context.Context, filter model.PartnerStatusFilter, page model.Page) ([]model.Partner, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) CreateBag(ctx context.Context, partnerID int64, nb model.NewBag) (*model.Bag, error) {
	s.createdBag = nb
	return &model.Bag{ID: 1, PartnerID: partnerID, Title: nb.Title, Category: nb.Category}, nil
}

func (s *stubRepo) GetBag(ctx context.Context, id int64) (*model.Bag, error) {
	return s.bag, s.bagErr
}

func (s *stubRepo) ListAvailableBags(ctx context.Context, filter model.BagFilter) ([]model.Bag, error) {
	s.bagFilter = filter
	return []model.Bag{}, nil
}

func (s *stubRepo) ListPartnerBags(ctx context.Context, partnerID int64, limit int) ([]model.Bag, error) {
	return nil, nil
}

func (s *stubRepo) UpdateBag(ctx context.Context, partnerID, bagID int64, mutate func(*model.Bag) error) (*model.Bag, error) {
	if s.bagErr != nil {
		return nil, s.bagErr
	}
	b := *s.bag
	if err := mutate(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *stubRepo) MarkBagSoldOut(ctx context.Context, partnerID, bagID int64) (*model.Bag, error) {
	return s.bag, s.bagErr
}

func (s *stubRepo) PlaceOrder(ctx context.Context, req model.PlaceOrder, nextCode func() (string, error)) (*model.Order, error) {
	s.placeReq = req
	s.gotCodeGen = nextCode != nil
	return s.placed, s.placeErr
}

func (s *stubRepo) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (s *stubRepo) ListPartnerOrders(ctx context.Context, filter model.OrderFilter, limit int) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, partnerID, orderID int64, next model.OrderStatus) (*model.Order, model.OrderStatus, error) {
	return s.statusOrder, s.statusPrev, s.statusErr
}

func (s *stubRepo) VerifyPickup(ctx context.Context, partnerID int64, code string) (*model.PickupConfirmation, error) {
	s.pickupCode = code
	return s.pickup, s.pickupErr
}

func (s *stubRepo) Dashboard(ctx context.Context, since time.Time, recent int) (*model.Dashboard, error) {
	s.dashboardSince = since
	return &model.Dashboard{}, nil
}

func (s *stubRepo) ListOrders(ctx context.Context, filter model.OrderFilter, page model.Page) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) PartnerDetails(ctx context.Context, id int64, recent int) (*model.PartnerDetails, error) {
	return nil, repository.ErrPartnerNotFound
}

func (s *stubRepo) CommissionReport(ctx context.Context, filter model.CommissionFilter) ([]model.CommissionRow, error) {
	return s.commissionRows, nil
}

type stubEvents struct {
	placed   int
	changed  []model.OrderStatus
	pickups  int
	failWith error
}

func (e *stubEvents) OrderPlaced(ctx context.Context, o *model.Order) error {
	e.placed++
	return e.failWith
}

func (e *stubEvents) OrderStatusChanged(ctx context.Context, o *model.Order, from model.OrderStatus) error {
	e.changed = append(e.changed, from, o.Status)
	return e.failWith
}

func (e *stubEvents) OrderPickedUp(ctx context.Context, partnerID int64, pc *model.PickupConfirmation) error {
	e.pickups++
	return e.failWith
}

func newTestService(repo *stubRepo, events *stubEvents) *Service {
	svc := NewService(repo, events, nil)
	svc.bcryptCost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC) }
	return svc
}

func validRegistration() model.Registration {
	return model.Registration{
		BusinessName: " Good Bakery ",
		Email:        " Owner@Bakery.KZ ",
		Phone:        "+77010000000",
		Password:     "secret1",
		Address:      model.Address{Street: "Abay 1"},
		BankDetails:  model.BankDetails{AccountNumber: "KZ00", BankName: "Kaspi"},
	}
}

func TestRegister_NormalizesAndDefaults(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubEvents{})

	p, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Email != "owner@bakery.kz" {
		t.Fatalf("email = %q, want normalized", p.Email)
	}
	if p.BusinessName != "Good Bakery" {
		t.Fatalf("business name = %q", p.BusinessName)
	}
	if p.Address.City != model.DefaultCity {
		t.Fatalf("city = %q, want %q", p.Address.City, model.DefaultCity)
	}
	if !p.CommissionRate.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("commission = %s, want 15", p.CommissionRate)
	}
	if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte("secret1")); err != nil {
		t.Fatalf("password hash does not match: %v", err)
	}
}

func TestRegister_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{createPartnerErr: repository.ErrPartnerExists}
	svc := newTestService(repo, &stubEvents{})

	_, err := svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, repository.ErrPartnerExists) {
		t.Fatalf("expected ErrPartnerExists, got %v", err)
	}
	if !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("duplicate email must be an invalid state error")
	}
}

func TestRegister_ValidationError(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubEvents{})

	reg := validRegistration()
	reg.Password = "123"
	_, err := svc.Register(context.Background(), reg)

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	tests := []struct {
		name     string
		repo     *stubRepo
		password string
		wantErr  error
	}{
		{
			name:     "ok",
			repo:     &stubRepo{partner: &model.Partner{ID: 1, PasswordHash: hash, IsActive: true}},
			password: "correct",
		},
		{
			name:     "wrong password",
			repo:     &stubRepo{partner: &model.Partner{ID: 1, PasswordHash: hash, IsActive: true}},
			password: "wrong",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			repo:     &stubRepo{partnerErr: repository.ErrPartnerNotFound},
			password: "correct",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "deactivated",
			repo:     &stubRepo{partner: &model.Partner{ID: 1, PasswordHash: hash, IsActive: false}},
			password: "correct",
			wantErr:  model.ErrPartnerInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.repo, &stubEvents{})
			p, err := svc.Login(context.Background(), "owner@bakery.kz", tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, model.ErrUnauthorized) {
					t.Fatalf("login failures must be unauthorized, got %v", err)
				}
				return
			}
			if err != nil || p.ID != 1 {
				t.Fatalf("Login() = %v, %v", p, err)
			}
		})
	}
}

func TestResolvePartner_Inactive(t *testing.T) {
	svc := newTestService(&stubRepo{partner: &model.Partner{ID: 3}}, &stubEvents{})

	_, err := svc.ResolvePartner(context.Background(), 3)
	if !errors.Is(err, model.ErrPartnerInactive) {
		t.Fatalf("expected ErrPartnerInactive, got %v", err)
	}
}

func TestPlaceOrder_PublishesEvent(t *testing.T) {
	repo := &stubRepo{placed: &model.Order{ID: 9, BagID: 7, Quantity: 2, TotalPrice: decimal.NewFromInt(2000)}}
	events := &stubEvents{}
	svc := newTestService(repo, events)

	o, err := svc.PlaceOrder(context.Background(), model.PlaceOrder{
		Customer:      model.Customer{Name: " Aigerim ", Phone: "+77020000000", Email: " aigerim@mail.kz "},
		BagID:         7,
		Quantity:      2,
		PaymentMethod: model.PaymentCash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID != 9 {
		t.Fatalf("order id = %d", o.ID)
	}
	if repo.placeReq.Customer.Name != "Aigerim" || repo.placeReq.Customer.Email != "aigerim@mail.kz" {
		t.Fatalf("customer not trimmed: %+v", repo.placeReq.Customer)
	}
	if !repo.gotCodeGen {
		t.Fatalf("pickup code generator not passed to repository")
	}
	if events.placed != 1 {
		t.Fatalf("order.placed published %d times", events.placed)
	}
}

func TestPlaceOrder_RejectedNotPublished(t *testing.T) {
	repo := &stubRepo{placeErr: model.ErrInsufficientInventory}
	events := &stubEvents{}
	svc := newTestService(repo, events)

	_, err := svc.PlaceOrder(context.Background(), model.PlaceOrder{
		Customer:      model.Customer{Name: "A", Phone: "1", Email: "a@b.kz"},
		BagID:         7,
		Quantity:      9,
		PaymentMethod: model.PaymentCard,
	})
	if !errors.Is(err, model.ErrInsufficientInventory) {
		t.Fatalf("expected ErrInsufficientInventory, got %v", err)
	}
	if events.placed != 0 {
		t.Fatalf("rejected order must not be published")
	}
}

func TestPlaceOrder_PublishFailureIgnored(t *testing.T) {
	repo := &stubRepo{placed: &model.Order{ID: 1}}
	svc := newTestService(repo, &stubEvents{failWith: errors.New("kafka down")})

	_, err := svc.PlaceOrder(context.Background(), model.PlaceOrder{
		Customer:      model.Customer{Name: "A", Phone: "1", Email: "a@b.kz"},
		BagID:         1,
		Quantity:      1,
		PaymentMethod: model.PaymentKaspi,
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the order: %v", err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := &stubRepo{
		statusOrder: &model.Order{ID: 5, Status: model.OrderStatusConfirmed},
		statusPrev:  model.OrderStatusPending,
	}
	events := &stubEvents{}
	svc := newTestService(repo, events)

	if _, err := svc.UpdateOrderStatus(context.Background(), 1, 5, model.OrderStatusConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.changed) != 2 || events.changed[0] != model.OrderStatusPending || events.changed[1] != model.OrderStatusConfirmed {
		t.Fatalf("status change event = %v", events.changed)
	}

	for _, status := range []model.OrderStatus{model.OrderStatusPending, "shipped", ""} {
		_, err := svc.UpdateOrderStatus(context.Background(), 1, 5, status)
		var verrs validation.Errors
		if !errors.As(err, &verrs) {
			t.Fatalf("status %q: expected validation error, got %v", status, err)
		}
	}

	repo.statusErr = model.ErrInvalidTransition
	_, err := svc.UpdateOrderStatus(context.Background(), 1, 5, model.OrderStatusPickedUp)
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestVerifyPickup_NormalizesCode(t *testing.T) {
	repo := &stubRepo{pickup: &model.PickupConfirmation{OrderID: 3}}
	events := &stubEvents{}
	svc := newTestService(repo, events)

	if _, err := svc.VerifyPickup(context.Background(), 1, " ab12cd "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.pickupCode != "AB12CD" {
		t.Fatalf("code = %q, want upper-cased", repo.pickupCode)
	}
	if events.pickups != 1 {
		t.Fatalf("order.picked_up published %d times", events.pickups)
	}

	repo.pickup, repo.pickupErr = nil, repository.ErrOrderNotFound
	_, err := svc.VerifyPickup(context.Background(), 1, "ZZZZZZ")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if events.pickups != 1 {
		t.Fatalf("failed verification must not be published")
	}
}

func TestCreateBag_DefaultsCategory(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubEvents{})
	now := svc.now()

	_, err := svc.CreateBag(context.Background(), 1, model.NewBag{
		Title:           "Surprise box",
		OriginalPrice:   decimal.NewFromInt(3000),
		DiscountedPrice: decimal.NewFromInt(1000),
		Quantity:        3,
		PickupTime:      model.PickupWindow{Start: now.Add(time.Hour), End: now.Add(3 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createdBag.Category != model.CategoryOther {
		t.Fatalf("category = %q, want other", repo.createdBag.Category)
	}

	_, err = svc.CreateBag(context.Background(), 1, model.NewBag{
		Title:      "Late box",
		Quantity:   1,
		PickupTime: model.PickupWindow{Start: now.Add(-time.Hour), End: now.Add(time.Hour)},
	})
	if err == nil || !strings.Contains(err.Error(), "pickupTime.start") {
		t.Fatalf("expected pickup start validation error, got %v", err)
	}
}

func TestUpdateBag_ValidatesPatchedBag(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	repo := &stubRepo{bag: &model.Bag{
		ID: 1, Title: "Box", Quantity: 5, AvailableQuantity: 5, Category: model.CategoryCafe,
		PickupTime: model.PickupWindow{Start: now, End: now.Add(time.Hour)},
	}}
	svc := newTestService(repo, &stubEvents{})

	qty := 8
	b, err := svc.UpdateBag(context.Background(), 1, 1, model.BagPatch{Quantity: &qty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.AvailableQuantity != 8 {
		t.Fatalf("available = %d, want 8", b.AvailableQuantity)
	}

	window := model.PickupWindow{Start: now, End: now}
	_, err = svc.UpdateBag(context.Background(), 1, 1, model.BagPatch{PickupTime: &window})
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation error, got %v", err)
	}

	repo.bagErr = model.ErrBagHasOrders
	_, err = svc.UpdateBag(context.Background(), 1, 1, model.BagPatch{Quantity: &qty})
	if !errors.Is(err, model.ErrBagHasOrders) {
		t.Fatalf("expected ErrBagHasOrders, got %v", err)
	}
}

func TestListBags_DefaultRadius(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubEvents{})

	_, err := svc.ListBags(context.Background(), model.BagFilter{Near: &model.Coordinates{Latitude: 43.2, Longitude: 76.9}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.bagFilter.RadiusKm != model.DefaultRadiusKm {
		t.Fatalf("radius = %v, want default", repo.bagFilter.RadiusKm)
	}
	if !repo.bagFilter.Now.Equal(svc.now()) {
		t.Fatalf("now not propagated")
	}

	if _, err := svc.ListBags(context.Background(), model.BagFilter{Category: "pizza"}); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}

func TestListBags_RejectsInvalidSearchArea(t *testing.T) {
	tests := []struct {
		name   string
		filter model.BagFilter
	}{
		{name: "latitude NaN", filter: model.BagFilter{Near: &model.Coordinates{Latitude: math.NaN(), Longitude: 76.9}}},
		{name: "latitude out of range", filter: model.BagFilter{Near: &model.Coordinates{Latitude: 91, Longitude: 76.9}}},
		{name: "radius NaN", filter: model.BagFilter{Near: &model.Coordinates{Latitude: 43.2, Longitude: 76.9}, RadiusKm: math.NaN()}},
		{name: "negative radius", filter: model.BagFilter{Near: &model.Coordinates{Latitude: 43.2, Longitude: 76.9}, RadiusKm: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{}
			svc := newTestService(repo, &stubEvents{})

			_, err := svc.ListBags(context.Background(), tt.filter)
			var verrs validation.Errors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want validation errors", err)
			}
			if !repo.bagFilter.Now.IsZero() {
				t.Fatalf("repository must not be queried")
			}
		})
	}
}

func TestDashboard_SinceLocalMidnight(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubEvents{})

	if _, err := svc.Dashboard(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	if !repo.dashboardSince.Equal(want) {
		t.Fatalf("since = %v, want %v", repo.dashboardSince, want)
	}
}

func TestCommissionReport_Summary(t *testing.T) {
	repo := &stubRepo{commissionRows: []model.CommissionRow{
		{PartnerID: 1, TotalOrders: 2, TotalRevenue: decimal.NewFromInt(2000), TotalCommission: decimal.NewFromInt(300)},
		{PartnerID: 2, TotalOrders: 1, TotalRevenue: decimal.RequireFromString("333.33"), TotalCommission: decimal.RequireFromString("50.00")},
	}}
	svc := newTestService(repo, &stubEvents{})

	report, err := svc.CommissionReport(context.Background(), model.CommissionFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary.TotalOrders != 3 {
		t.Fatalf("orders = %d", report.Summary.TotalOrders)
	}
	if !report.Summary.TotalCommission.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("commission = %s", report.Summary.TotalCommission)
	}

	from := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	if _, err := svc.CommissionReport(context.Background(), model.CommissionFilter{From: &from, To: &to}); err == nil {
		t.Fatalf("expected error for reversed range")
	}
}

func TestListPartners_Validation(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubEvents{})

	_, _, err := svc.ListPartners(context.Background(), "deleted", model.Page{Number: 0, Limit: 10})
	var verrs validation.Errors
	if !errors.As(err, &verrs) || len(verrs) != 2 {
		t.Fatalf("expected two validation errors, got %v", err)
	}
}

func TestSetPartnerStatus_RequiresFlag(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubEvents{})

	if _, err := svc.SetPartnerStatus(context.Background(), 1, nil, nil); err == nil {
		t.Fatalf("expected validation error")
	}
	if repo.partnerStatusCalled {
		t.Fatalf("repository must not be called without flags")
	}
}

func TestGeneratePickupCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GeneratePickupCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != PickupCodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(pickupAlphabet, c) {
				t.Fatalf("code %q contains %q", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 95 {
		t.Fatalf("too many collisions: %d unique of 100", len(seen))
	}
}
