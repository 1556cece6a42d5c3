package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category описывает тип заведения, к которому относится бокс.
type Category string

const (
	CategoryBakery     Category = "bakery"
	CategoryRestaurant Category = "restaurant"
	CategoryCafe       Category = "cafe"
	CategoryGrocery    Category = "grocery"
	CategoryOther      Category = "other"
)

// Valid сообщает, входит ли c в перечень категорий.
func (c Category) Valid() bool {
	switch c {
	case CategoryBakery, CategoryRestaurant, CategoryCafe, CategoryGrocery, CategoryOther:
		return true
	}
	return false
}

// PickupWindow описывает интервал, в который покупатель забирает заказ.
type PickupWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Bag описывает бокс с излишками еды, выставленный партнёром.
type Bag struct {
	ID                int64           `json:"id"`
	PartnerID         int64           `json:"partnerId"`
	Partner           *PartnerSummary `json:"partner,omitempty"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	OriginalPrice     decimal.Decimal `json:"originalPrice"`
	DiscountedPrice   decimal.Decimal `json:"discountedPrice"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"availableQuantity"`
	PickupTime        PickupWindow    `json:"pickupTime"`
	IsActive          bool            `json:"isActive"`
	IsSoldOut         bool            `json:"isSoldOut"`
	Category          Category        `json:"category"`
	Tags              []string        `json:"tags"`
	Image             string          `json:"image,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// HasOrders сообщает, было ли продано хотя бы одно место в боксе.
func (b *Bag) HasOrders() bool {
	return b.AvailableQuantity != b.Quantity
}

// Reserve проверяет доступность бокса и списывает quantity из остатка.
// Проверки идут в порядке: активность, затем остаток. Когда остаток
// доходит до нуля, бокс становится распроданным и неактивным.
func (b *Bag) Reserve(quantity int) error {
	if !b.IsActive || b.IsSoldOut {
		return ErrBagUnavailable
	}
	if b.AvailableQuantity < quantity {
		return ErrInsufficientInventory
	}

	b.AvailableQuantity -= quantity
	if b.AvailableQuantity == 0 {
		b.IsSoldOut = true
		b.IsActive = false
	}
	return nil
}

// MarkSoldOut принудительно снимает бокс с продажи независимо от остатка.
func (b *Bag) MarkSoldOut() {
	b.IsSoldOut = true
	b.IsActive = false
}

// NewBag описывает данные для создания бокса.
type NewBag struct {
	Title           string
	Description     string
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal
	Quantity        int
	PickupTime      PickupWindow
	Category        Category
	Tags            []string
	Image           string
}

// BagPatch перечисляет изменяемые поля бокса. Владелец бокса не меняется.
type BagPatch struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	OriginalPrice   *decimal.Decimal `json:"originalPrice"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice"`
	Quantity        *int             `json:"quantity"`
	PickupTime      *PickupWindow    `json:"pickupTime"`
	Category        *Category        `json:"category"`
	Tags            []string         `json:"tags"`
	Image           *string          `json:"image"`
}

// Apply переносит заданные поля в бокс. Изменение количества возможно
// только до первого заказа, поэтому остаток выставляется равным новому количеству.
func (p BagPatch) Apply(b *Bag) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.OriginalPrice != nil {
		b.OriginalPrice = *p.OriginalPrice
	}
	if p.DiscountedPrice != nil {
		b.DiscountedPrice = *p.DiscountedPrice
	}
	if p.Quantity != nil {
		b.Quantity = *p.Quantity
		b.AvailableQuantity = *p.Quantity
	}
	if p.PickupTime != nil {
		b.PickupTime = *p.PickupTime
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.Tags != nil {
		b.Tags = p.Tags
	}
	if p.Image != nil {
		b.Image = *p.Image
	}
}

// BagFilter задаёт отбор боксов в публичном каталоге.
// Near и RadiusKm применяются только вместе.
type BagFilter struct {
	Category Category
	Near     *Coordinates
	RadiusKm float64
	Now      time.Time
}

// DefaultRadiusKm задаёт радиус поиска боксов по умолчанию.
const DefaultRadiusKm = 10.0
