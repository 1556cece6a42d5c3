// Package validation содержит функции валидации входных данных.
package validation

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/ysrap-etpe/internal/model"
)

// MinPasswordLength задаёт минимальную длину пароля партнёра.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError описывает ошибку в одном поле запроса.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors содержит ошибки валидации по полям.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add добавляет ошибку для поля.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Err возвращает nil, если ошибок нет.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsEmail выполняет упрощённую проверку формата email.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Registration проверяет заявку на регистрацию партнёра.
func Registration(r model.Registration) error {
	var errs Errors
	if blank(r.BusinessName) {
		errs.Add("businessName", "Business name is required")
	}
	if !IsEmail(r.Email) {
		errs.Add("email", "Valid email is required")
	}
	if blank(r.Phone) {
		errs.Add("phone", "Phone number is required")
	}
	if len(r.Password) < MinPasswordLength {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if blank(r.Address.Street) {
		errs.Add("address.street", "Street address is required")
	}
	if blank(r.BankDetails.AccountNumber) {
		errs.Add("bankDetails.accountNumber", "Account number is required")
	}
	if blank(r.BankDetails.BankName) {
		errs.Add("bankDetails.bankName", "Bank name is required")
	}
	coordinates(&errs, "address.coordinates", r.Address.Coordinates)
	return errs.Err()
}

// Login проверяет учётные данные на входе.
func Login(email, password string) error {
	var errs Errors
	if !IsEmail(email) {
		errs.Add("email", "Valid email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	return errs.Err()
}

// ProfilePatch проверяет изменения профиля партнёра.
func ProfilePatch(p model.ProfilePatch) error {
	var errs Errors
	if p.BusinessName != nil && blank(*p.BusinessName) {
		errs.Add("businessName", "Business name cannot be empty")
	}
	if p.Phone != nil && blank(*p.Phone) {
		errs.Add("phone", "Phone number cannot be empty")
	}
	if p.Address != nil {
		if blank(p.Address.Street) {
			errs.Add("address.street", "Street address is required")
		}
		coordinates(&errs, "address.coordinates", p.Address.Coordinates)
	}
	if p.BankDetails != nil {
		if blank(p.BankDetails.AccountNumber) {
			errs.Add("bankDetails.accountNumber", "Account number is required")
		}
		if blank(p.BankDetails.BankName) {
			errs.Add("bankDetails.bankName", "Bank name is required")
		}
	}
	return errs.Err()
}

func coordinates(errs *Errors, field string, c *model.Coordinates) {
	if c == nil {
		return
	}
	prefix := ""
	if field != "" {
		prefix = field + "."
	}
	if !finite(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		errs.Add(prefix+"latitude", "Latitude must be between -90 and 90")
	}
	if !finite(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		errs.Add(prefix+"longitude", "Longitude must be between -180 and 180")
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BagFilter проверяет параметры поиска в каталоге. Нулевой радиус означает
// радиус по умолчанию.
func BagFilter(f model.BagFilter) error {
	var errs Errors
	if f.Category != "" && !f.Category.Valid() {
		errs.Add("category", "Unknown category")
	}
	coordinates(&errs, "", f.Near)
	if !finite(f.RadiusKm) || f.RadiusKm < 0 {
		errs.Add("radius", "Radius must be a positive number")
	}
	return errs.Err()
}

// PlaceOrder проверяет запрос покупателя до обращения к хранилищу.
func PlaceOrder(o model.PlaceOrder) error {
	var errs Errors
	if blank(o.Customer.Name) {
		errs.Add("customer.name", "Customer name is required")
	}
	if blank(o.Customer.Phone) {
		errs.Add("customer.phone", "Customer phone is required")
	}
	if !IsEmail(strings.TrimSpace(o.Customer.Email)) {
		errs.Add("customer.email", "Valid customer email is required")
	}
	if o.BagID <= 0 {
		errs.Add("bagId", "Bag ID is required")
	}
	if o.Quantity < 1 {
		errs.Add("quantity", "Valid quantity is required")
	}
	if !o.PaymentMethod.Valid() {
		errs.Add("paymentMethod", "Valid payment method is required")
	}
	return errs.Err()
}

// NewBag проверяет новый бокс. Начало выдачи должно быть позже now.
func NewBag(b model.NewBag, now time.Time) error {
	var errs Errors
	bagFields(&errs, b.Title, b.OriginalPrice, b.DiscountedPrice, b.Quantity, b.Category)

	switch {
	case b.PickupTime.Start.IsZero():
		errs.Add("pickupTime.start", "Valid pickup start time is required")
	case !b.PickupTime.Start.After(now):
		errs.Add("pickupTime.start", "Pickup start time must be in the future")
	}
	switch {
	case b.PickupTime.End.IsZero():
		errs.Add("pickupTime.end", "Valid pickup end time is required")
	case !b.PickupTime.Start.IsZero() && !b.PickupTime.End.After(b.PickupTime.Start):
		errs.Add("pickupTime.end", "Pickup end time must be after start time")
	}
	return errs.Err()
}

// Bag проверяет бокс после применения изменений.
func Bag(b model.Bag) error {
	var errs Errors
	bagFields(&errs, b.Title, b.OriginalPrice, b.DiscountedPrice, b.Quantity, b.Category)
	if !b.PickupTime.End.After(b.PickupTime.Start) {
		errs.Add("pickupTime.end", "Pickup end time must be after start time")
	}
	return errs.Err()
}

func bagFields(errs *Errors, title string, original, discounted decimal.Decimal, quantity int, category model.Category) {
	if blank(title) {
		errs.Add("title", "Title is required")
	}
	price(errs, "originalPrice", "original price", original)
	discountedOK := price(errs, "discountedPrice", "discounted price", discounted)
	switch {
	case quantity < 1 || quantity > math.MaxInt32:
		errs.Add("quantity", "Valid quantity is required")
	case discountedOK && discounted.Mul(decimal.NewFromInt(int64(quantity))).GreaterThan(model.MaxAmount):
		errs.Add("quantity", "Total bag value is too large")
	}
	if !category.Valid() {
		errs.Add("category", "Unknown category")
	}
}

// price проверяет, что сумма неотрицательна, задана с точностью до копеек
// и помещается в хранилище.
func price(errs *Errors, field, name string, d decimal.Decimal) bool {
	switch {
	case d.IsNegative():
		errs.Add(field, "Valid "+name+" is required")
	case !d.Equal(d.Round(model.MoneyPlaces)):
		errs.Add(field, "Price must have at most 2 decimal places")
	case d.GreaterThan(model.MaxAmount):
		errs.Add(field, "Price is too large")
	default:
		return true
	}
	return false
}

// PageParams проверяет параметры пагинации.
func PageParams(p model.Page) error {
	var errs Errors
	if p.Number < 1 {
		errs.Add("page", "Page must be a positive number")
	}
	if p.Limit < 1 || p.Limit > 100 {
		errs.Add("limit", "Limit must be between 1 and 100")
	}
	return errs.Err()
}
