package ports

import (
	"context"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// PlanInput creates or replaces a membership plan. A nil IsActive keeps the
// current flag on update and defaults to true on create.
type PlanInput struct {
	Title        string
	Description  string
	Price        float64
	Currency     string
	DurationDays int
	Features     []string
	IsActive     *bool
}

// MembershipStatus is the caller's current tier.
type MembershipStatus struct {
	Type         domain.MembershipType
	Subscription *domain.Subscription
	Plan         *domain.Plan
}

// MembershipService manages plans and subscriptions.
type MembershipService interface {
	Plans(ctx context.Context, activeOnly bool) ([]*domain.Plan, error)
	Plan(ctx context.Context, id string) (*domain.Plan, error)
	CreatePlan(ctx context.Context, actor domain.Actor, in PlanInput) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, actor domain.Actor, id string, in PlanInput) (*domain.Plan, error)
	Current(ctx context.Context, userID string) (*MembershipStatus, error)
	// Subscribe uses the cheapest active plan when planID is empty.
	Subscribe(ctx context.Context, actor domain.Actor, planID string) (*domain.Subscription, *domain.Transaction, error)
	CancelActive(ctx context.Context, actor domain.Actor) (*domain.Subscription, error)
	Cancel(ctx context.Context, actor domain.Actor, subscriptionID string) (*domain.Subscription, error)
	ListActive(ctx context.Context, actor domain.Actor, p Pagination) (*Page[*domain.Subscription], error)
}

// TransactionInput records a new ledger entry.
type TransactionInput struct {
	Type            domain.TransactionType
	UserID          string
	UserName        string
	PlanID          string
	OrderRef        string
	Amount          float64
	PlatformShare   float64
	Currency        string
	PaymentProvider string
	Details         string
	Notes           string
}

// Earnings sums completed entries of one revenue stream.
type Earnings struct {
	Type  domain.TransactionType `json:"type"`
	Total float64                `json:"total"`
	Count int64                  `json:"count"`
	From  *time.Time             `json:"from,omitempty"`
	To    *time.Time             `json:"to,omitempty"`
}

// LedgerService records transactions and keeps the finance counters current.
type LedgerService interface {
	Record(ctx context.Context, in TransactionInput) (*domain.Transaction, error)
	Complete(ctx context.Context, id string) (*domain.Transaction, error)
	Refund(ctx context.Context, actor domain.Actor, id string) (*domain.Transaction, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Transaction, error)
	List(ctx context.Context, actor domain.Actor, f TransactionFilter, p Pagination) (*Page[*domain.Transaction], error)
	CurrentFinances(ctx context.Context, actor domain.Actor) (*domain.CompanyFinances, error)
	TotalFinances(ctx context.Context, actor domain.Actor) (*domain.CompanyFinances, error)
	FinancesRange(ctx context.Context, actor domain.Actor, from, to string) ([]*domain.CompanyFinances, error)
	RecentFinances(ctx context.Context, actor domain.Actor, n int) ([]*domain.CompanyFinances, error)
	Earnings(ctx context.Context, actor domain.Actor, t domain.TransactionType, from, to time.Time) (*Earnings, error)
}

// RevenueRulesInput is a partial settings update.
type RevenueRulesInput struct {
	DefaultCurrency           *string
	TaxPercent                *float64
	PlatformCommissionPercent *float64
}

// SettingsService reads and edits platform settings.
type SettingsService interface {
	RevenueRules(ctx context.Context) (*domain.RevenueRules, error)
	UpdateRevenueRules(ctx context.Context, actor domain.Actor, in RevenueRulesInput) (*domain.RevenueRules, error)
}
