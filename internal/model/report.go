package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard содержит сводные показатели для админ-панели.
type Dashboard struct {
	TodayOrders     int64           `json:"todayOrders"`
	TotalOrders     int64           `json:"totalOrders"`
	TotalPartners   int64           `json:"totalPartners"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	RecentOrders    []Order         `json:"recentOrders"`
}

// CommissionFilter задаёт период и партнёра для отчёта по комиссиям.
// Период применяется, только если заданы обе границы.
type CommissionFilter struct {
	From      *time.Time
	To        *time.Time
	PartnerID int64
}

// EndOfDay возвращает последний момент календарного дня day в его часовом поясе.
// Дата окончания периода в отчётах включается в период целиком.
func EndOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// CommissionRow содержит итоги отчёта по комиссиям для одного партнёра.
type CommissionRow struct {
	PartnerID       int64           `json:"partnerId"`
	PartnerName     string          `json:"partnerName"`
	TotalOrders     int64           `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
}

// CommissionSummary содержит итог отчёта по всем партнёрам.
type CommissionSummary struct {
	TotalOrders     int64           `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
}

// CommissionReport содержит отчёт по комиссиям.
type CommissionReport struct {
	Rows    []CommissionRow   `json:"commissionData"`
	Summary CommissionSummary `json:"summary"`
}

// Summarize складывает построчные итоги отчёта.
func Summarize(rows []CommissionRow) CommissionSummary {
	s := CommissionSummary{
		TotalRevenue:    decimal.Zero,
		TotalCommission: decimal.Zero,
	}
	for _, r := range rows {
		s.TotalOrders += r.TotalOrders
		s.TotalRevenue = s.TotalRevenue.Add(r.TotalRevenue)
		s.TotalCommission = s.TotalCommission.Add(r.TotalCommission)
	}
	return s
}

// PartnerDetails описывает карточку партнёра для администратора.
type PartnerDetails struct {
	Partner      Partner `json:"partner"`
	RecentOrders []Order `json:"recentOrders"`
	RecentBags   []Bag   `json:"recentBags"`
}
