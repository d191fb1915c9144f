package domain

import (
	"math"
	"time"
)

// RevenueRules are the platform-wide financial settings.
type RevenueRules struct {
	DefaultCurrency           string    `json:"default_currency" bson:"default_currency"`
	TaxPercent                float64   `json:"tax_percent" bson:"tax_percent"`
	PlatformCommissionPercent float64   `json:"platform_commission_percent" bson:"platform_commission_percent"`
	LastUpdated               time.Time `json:"last_updated" bson:"last_updated"`
}

// DefaultRevenueRules are written on first read.
func DefaultRevenueRules(now time.Time) RevenueRules {
	return RevenueRules{
		DefaultCurrency:           DefaultCurrency,
		TaxPercent:                0,
		PlatformCommissionPercent: 5,
		LastUpdated:               now,
	}
}

// Commission returns the platform's cut of amount, rounded to cents.
func (r RevenueRules) Commission(amount float64) float64 {
	return math.Round(amount*r.PlatformCommissionPercent) / 100
}
