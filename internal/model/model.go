// Package model содержит доменные сущности маркетплейса ysrap-etpe.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCity подставляется в адрес партнёра, если город не указан.
const DefaultCity = "Almaty"

// DefaultCommissionRate задаёт комиссию платформы в процентах для новых партнёров.
var DefaultCommissionRate = decimal.NewFromInt(15)

// Coordinates описывает точку в WGS84.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address описывает адрес точки выдачи партнёра.
type Address struct {
	Street      string       `json:"street"`
	City        string       `json:"city"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// BankDetails содержит реквизиты для выплат партнёру.
type BankDetails struct {
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	BIN           string `json:"bin"`
}

// Partner представляет зарегистрированное заведение, продающее излишки еды.
type Partner struct {
	ID             int64           `json:"id"`
	BusinessName   string          `json:"businessName"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	PasswordHash   []byte          `json:"-"`
	Address        Address         `json:"address"`
	BankDetails    BankDetails     `json:"bankDetails"`
	CommissionRate decimal.Decimal `json:"commission"`
	IsActive       bool            `json:"isActive"`
	IsVerified     bool            `json:"isVerified"`
	Rating         decimal.Decimal `json:"rating"`
	TotalOrders    int64           `json:"totalOrders"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PartnerSummary содержит публичные сведения о партнёре, присоединяемые к боксам и заказам.
type PartnerSummary struct {
	ID           int64            `json:"id"`
	BusinessName string           `json:"businessName"`
	Address      *Address         `json:"address,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Rating       *decimal.Decimal `json:"rating,omitempty"`
	TotalOrders  *int64           `json:"totalOrders,omitempty"`
}

// ProfilePatch перечисляет поля профиля, которые партнёр может менять сам.
// Email и комиссия сюда не входят.
type ProfilePatch struct {
	BusinessName *string      `json:"businessName"`
	Phone        *string      `json:"phone"`
	Address      *Address     `json:"address"`
	BankDetails  *BankDetails `json:"bankDetails"`
}

// Apply переносит заданные поля патча в профиль партнёра.
func (p ProfilePatch) Apply(partner *Partner) {
	if p.BusinessName != nil {
		partner.BusinessName = *p.BusinessName
	}
	if p.Phone != nil {
		partner.Phone = *p.Phone
	}
	if p.Address != nil {
		partner.Address = *p.Address
		if partner.Address.City == "" {
			partner.Address.City = DefaultCity
		}
	}
	if p.BankDetails != nil {
		partner.BankDetails = *p.BankDetails
	}
}

// PartnerStatusFilter задаёт отбор партнёров в админском списке.
type PartnerStatusFilter string

const (
	PartnerFilterAll        PartnerStatusFilter = ""
	PartnerFilterActive     PartnerStatusFilter = "active"
	PartnerFilterInactive   PartnerStatusFilter = "inactive"
	PartnerFilterVerified   PartnerStatusFilter = "verified"
	PartnerFilterUnverified PartnerStatusFilter = "unverified"
)

// Valid сообщает, является ли f известным значением фильтра.
func (f PartnerStatusFilter) Valid() bool {
	switch f {
	case PartnerFilterAll, PartnerFilterActive, PartnerFilterInactive,
		PartnerFilterVerified, PartnerFilterUnverified:
		return true
	}
	return false
}

// Page описывает параметры постраничной выборки.
type Page struct {
	Number int
	Limit  int
}

// Offset возвращает число строк, пропускаемых до начала страницы.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages возвращает количество страниц для total строк.
func (p Page) TotalPages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	return (total + limit - 1) / limit
}

// Registration содержит данные заявки на регистрацию партнёра.
type Registration struct {
	BusinessName string
	Email        string
	Phone        string
	Password     string
	Address      Address
	BankDetails  BankDetails
}
