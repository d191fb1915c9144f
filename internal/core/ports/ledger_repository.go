package ports

import (
	"context"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// PlanRepository defines persistence operations for membership plans.
type PlanRepository interface {
	Create(ctx context.Context, p *domain.Plan) error
	FindByID(ctx context.Context, id string) (*domain.Plan, error)
	// List returns plans ordered by price ascending.
	List(ctx context.Context, activeOnly bool) ([]*domain.Plan, error)
	Update(ctx context.Context, p *domain.Plan) error
	Count(ctx context.Context) (int64, error)
}

// SubscriptionRepository defines persistence operations for subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *domain.Subscription) error
	FindByID(ctx context.Context, id string) (*domain.Subscription, error)
	FindActiveByUser(ctx context.Context, userID string) (*domain.Subscription, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error
	// RecordPayment links a payment and increments payment_count.
	RecordPayment(ctx context.Context, id, paymentRef string) error
	ListByStatus(ctx context.Context, status domain.SubscriptionStatus, p Pagination) ([]*domain.Subscription, int64, error)
}

// TransactionFilter narrows ledger queries. Zero fields are ignored.
type TransactionFilter struct {
	Type   domain.TransactionType
	Status domain.TransactionStatus
	UserID string
	From   time.Time
	To     time.Time
}

// TransactionRefs are back-references written once the related record exists.
type TransactionRefs struct {
	SubscriptionRef string
	OrderRef        string
}

// TransactionRepository defines persistence operations for the ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id string) (*domain.Transaction, error)
	// UpdateStatus moves a transaction from one status to another and stamps
	// completed_at or meta.refunded_at. It returns domain.ErrConflict when the
	// transaction is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, at time.Time) error
	SetRefs(ctx context.Context, id string, refs TransactionRefs) error
	List(ctx context.Context, f TransactionFilter, p Pagination) ([]*domain.Transaction, int64, error)
	// Sum returns the total platform share and the count of matching entries.
	Sum(ctx context.Context, f TransactionFilter) (float64, int64, error)
}

// FinanceRepository maintains the per-month revenue counters.
type FinanceRepository interface {
	// Apply increments the bucket for t, total_revenue and total_transactions
	// of period, creating the period document when absent.
	Apply(ctx context.Context, period string, t domain.TransactionType, amount float64, count int64, currency string) error
	// Get returns a zeroed record when the period has no activity.
	Get(ctx context.Context, period string) (*domain.CompanyFinances, error)
	Total(ctx context.Context) (*domain.CompanyFinances, error)
	// Range returns periods between from and to inclusive, oldest first.
	Range(ctx context.Context, from, to string) ([]*domain.CompanyFinances, error)
	// Recent returns the latest n periods, newest first.
	Recent(ctx context.Context, n int) ([]*domain.CompanyFinances, error)
}

// SettingsRepository persists platform settings.
type SettingsRepository interface {
	// RevenueRules returns domain.ErrSettingsNotFound before the first save.
	RevenueRules(ctx context.Context) (*domain.RevenueRules, error)
	SaveRevenueRules(ctx context.Context, rules domain.RevenueRules) error
}

// FeaturedRepository persists featured requests and the featured crafter list.
type FeaturedRepository interface {
	CreateRequest(ctx context.Context, r *domain.FeaturedRequest) error
	FindRequest(ctx context.Context, id string) (*domain.FeaturedRequest, error)
	LatestRequestByCrafter(ctx context.Context, crafterID string) (*domain.FeaturedRequest, error)
	// ListRequests returns pending requests first, then newest first.
	ListRequests(ctx context.Context, status domain.FeaturedRequestStatus) ([]*domain.FeaturedRequest, error)
	// ReviewRequest returns domain.ErrConflict when the request was already
	// reviewed.
	ReviewRequest(ctx context.Context, id string, status domain.FeaturedRequestStatus, adminNotes, reviewer string, at time.Time) error

	// AddCrafter returns domain.ErrAlreadyFeatured when the crafter is listed.
	AddCrafter(ctx context.Context, fc *domain.FeaturedCrafter) error
	RemoveCrafter(ctx context.Context, crafterID string) error
	ListCrafters(ctx context.Context) ([]*domain.FeaturedCrafter, error)
}
