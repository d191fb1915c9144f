package ports

import (
	"context"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// FeaturedCrafterView joins a featured entry with the crafter's profile.
type FeaturedCrafterView struct {
	Crafter *domain.User
	AddedBy string
	AddedAt time.Time
	Notes   string
}

// FeaturedService manages the best-crafters list.
type FeaturedService interface {
	Request(ctx context.Context, actor domain.Actor, notes string) (*domain.FeaturedRequest, error)
	Mine(ctx context.Context, actor domain.Actor) (*domain.FeaturedRequest, error)
	ListRequests(ctx context.Context, actor domain.Actor, status domain.FeaturedRequestStatus) ([]*domain.FeaturedRequest, error)
	Review(ctx context.Context, actor domain.Actor, id string, approve bool, adminNotes string) (*domain.FeaturedRequest, error)
	BestCrafters(ctx context.Context) ([]FeaturedCrafterView, error)
	Add(ctx context.Context, actor domain.Actor, crafterID, notes string) (*domain.FeaturedCrafter, error)
	Remove(ctx context.Context, actor domain.Actor, crafterID string) error
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalUsers      int64   `json:"total_users"`
	Clients         int64   `json:"clients"`
	Crafters        int64   `json:"crafters"`
	Requests        int64   `json:"requests"`
	ActiveOrders    int64   `json:"active_orders"`
	CompletedOrders int64   `json:"completed_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	MonthlyGrowth   float64 `json:"monthly_growth"`
}

// UserPatch is an admin edit of an account; nil fields are left unchanged.
type UserPatch struct {
	Status   *domain.UserStatus
	Verified *bool
}

// BroadcastInput addresses an admin message to one user, or to every user of
// Audience when UserID is empty.
type BroadcastInput struct {
	UserID   string
	Audience domain.UserType
	Title    string
	Message  string
}

// AdminService backs the back-office dashboard and user management.
type AdminService interface {
	Stats(ctx context.Context, actor domain.Actor) (*Stats, error)
	ListUsers(ctx context.Context, actor domain.Actor, f UserFilter, p Pagination) (*Page[*domain.User], error)
	UpdateUser(ctx context.Context, actor domain.Actor, id string, patch UserPatch) (*domain.User, error)
	DeleteUser(ctx context.Context, actor domain.Actor, id string) error
	Broadcast(ctx context.Context, actor domain.Actor, in BroadcastInput) (int, error)
}
