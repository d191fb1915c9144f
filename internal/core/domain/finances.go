package domain

import (
	"math"
	"time"
)

// PeriodLayout formats a finance period key.
const PeriodLayout = "2006-01"

// PeriodAllTime identifies the aggregate over every period.
const PeriodAllTime = "all-time"

// PeriodOf returns the finance period key ("YYYY-MM") for t in UTC.
func PeriodOf(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// PreviousPeriod returns the period key of the month before t.
func PreviousPeriod(t time.Time) string {
	first := time.Date(t.UTC().Year(), t.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return PeriodOf(first.AddDate(0, -1, 0))
}

// CompanyFinances holds the revenue counters of one month. Counters only
// move through increments; a refund applies a negative amount.
type CompanyFinances struct {
	Period                  string    `json:"period" bson:"_id"`
	MembershipRevenueTotal  float64   `json:"membership_revenue_total" bson:"membership_revenue_total"`
	CommissionRevenueTotal  float64   `json:"commission_revenue_total" bson:"commission_revenue_total"`
	AdvertisingRevenueTotal float64   `json:"advertising_revenue_total" bson:"advertising_revenue_total"`
	FeaturedRevenueTotal    float64   `json:"featured_revenue_total" bson:"featured_revenue_total"`
	OtherRevenueTotal       float64   `json:"other_revenue_total" bson:"other_revenue_total"`
	TotalRevenue            float64   `json:"total_revenue" bson:"total_revenue"`
	TotalTransactions       int64     `json:"total_transactions" bson:"total_transactions"`
	Currency                string    `json:"currency" bson:"currency"`
	CreatedAt               time.Time `json:"created_at" bson:"created_at"`
	LastUpdated             time.Time `json:"last_updated" bson:"last_updated"`
}

// RevenueBucket names a revenue counter of CompanyFinances. The value is the
// stored field name, so repositories can increment it directly.
type RevenueBucket string

const (
	BucketMembership  RevenueBucket = "membership_revenue_total"
	BucketCommission  RevenueBucket = "commission_revenue_total"
	BucketAdvertising RevenueBucket = "advertising_revenue_total"
	BucketFeatured    RevenueBucket = "featured_revenue_total"
	BucketOther       RevenueBucket = "other_revenue_total"
)

// RevenueBuckets lists every bucket in display order.
var RevenueBuckets = []RevenueBucket{BucketMembership, BucketCommission, BucketAdvertising, BucketFeatured, BucketOther}

// BucketOf returns the counter a transaction of type t books into. Unknown
// types land in BucketOther.
func BucketOf(t TransactionType) RevenueBucket {
	switch t {
	case TxMembership:
		return BucketMembership
	case TxCommission:
		return BucketCommission
	case TxAdvertising:
		return BucketAdvertising
	case TxFeatured:
		return BucketFeatured
	default:
		return BucketOther
	}
}

// Apply adds amount to the bucket for t and to the totals. count is +1 for a
// booked transaction and -1 for a refund.
func (f *CompanyFinances) Apply(t TransactionType, amount float64, count int64) {
	*f.bucket(BucketOf(t)) += amount
	f.TotalRevenue += amount
	f.TotalTransactions += count
}

func (f *CompanyFinances) bucket(b RevenueBucket) *float64 {
	switch b {
	case BucketMembership:
		return &f.MembershipRevenueTotal
	case BucketCommission:
		return &f.CommissionRevenueTotal
	case BucketAdvertising:
		return &f.AdvertisingRevenueTotal
	case BucketFeatured:
		return &f.FeaturedRevenueTotal
	default:
		return &f.OtherRevenueTotal
	}
}

// GrowthPercent is the month-over-month revenue change in percent, rounded
// to two decimals. A zero baseline yields 100 when there is any revenue.
func GrowthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return math.Round((current-previous)/previous*10000) / 100
}
