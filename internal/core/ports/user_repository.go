package ports

import (
	"context"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// UserFilter narrows user listings. Empty fields are ignored.
type UserFilter struct {
	Type   domain.UserType
	Status domain.UserStatus
	Search string // case-insensitive match on name or email
}

// CrafterFilter narrows crafter search results.
type CrafterFilter struct {
	Specialty string // exact match
	Location  string // case-insensitive substring of location or service area
	Limit     int
}

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create assigns an ID when empty; returns domain.ErrUserExists when the
	// email is taken.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	// Update replaces the mutable profile fields of u.
	Update(ctx context.Context, u *domain.User) error
	SetStatus(ctx context.Context, id string, status domain.UserStatus, verified *bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// ApplyRating folds score into the crafter's running mean and increments
	// completed_orders in a single write.
	ApplyRating(ctx context.Context, crafterID string, score int) error
	SetMembership(ctx context.Context, crafterID string, tier domain.MembershipType, expiresAt *time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f UserFilter, p Pagination) ([]*domain.User, int64, error)
	Count(ctx context.Context, f UserFilter) (int64, error)
	SearchCrafters(ctx context.Context, f CrafterFilter) ([]*domain.User, error)
	// ListIDs returns the IDs of every user matching f.
	ListIDs(ctx context.Context, f UserFilter) ([]string, error)
}
