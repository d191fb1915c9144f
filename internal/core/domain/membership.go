package domain

import "time"

// DefaultCurrency is used when a plan, transaction or settings record does not
// carry one.
const DefaultCurrency = "SAR"

// Plan is a purchasable premium membership offer.
type Plan struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	Price        float64   `json:"price" bson:"price"`
	Currency     string    `json:"currency" bson:"currency"`
	DurationDays int       `json:"duration_days" bson:"duration_days"`
	Features     []string  `json:"features" bson:"features"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultPlan is created when no plan exists yet.
func DefaultPlan(now time.Time) *Plan {
	return &Plan{
		Title:        "Premium membership",
		Description:  "Yearly premium membership for crafters",
		Price:        499,
		Currency:     DefaultCurrency,
		DurationDays: 365,
		Features: []string{
			"Featured placement eligibility",
			"Premium badge on profile",
			"Priority in crafter search",
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription links a user to a plan for a bounded period.
type Subscription struct {
	ID             string             `json:"id" bson:"_id"`
	UserID         string             `json:"user_id" bson:"user_id"`
	PlanID         string             `json:"plan_id" bson:"plan_id"`
	Status         SubscriptionStatus `json:"status" bson:"status"`
	StartedAt      time.Time          `json:"started_at" bson:"started_at"`
	ExpiresAt      time.Time          `json:"expires_at" bson:"expires_at"`
	AutoRenew      bool               `json:"auto_renew" bson:"auto_renew"`
	LastPaymentRef string             `json:"last_payment_ref,omitempty" bson:"last_payment_ref,omitempty"`
	PaymentCount   int                `json:"payment_count" bson:"payment_count"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// Expired reports whether an active subscription has run past its end date.
func (s *Subscription) Expired(now time.Time) bool {
	return s.Status == SubscriptionActive && !now.Before(s.ExpiresAt)
}
