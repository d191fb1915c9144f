package ports

import (
	"context"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// OrderFilter carries the query parameters for listing orders.
type OrderFilter struct {
	ClientID string
	// CrafterID with IncludeOpen also matches unclaimed pending orders, which
	// is what a crafter's order board shows.
	CrafterID   string
	IncludeOpen bool
	Status      domain.OrderStatus
	Category    string
}

// OrderStatusChange is a conditional status write. Zero-valued optional fields
// are left untouched.
type OrderStatusChange struct {
	From []domain.OrderStatus
	To   domain.OrderStatus
	At   time.Time

	CrafterID    string
	CrafterName  string
	CrafterPhone string
	CancelReason string
	Rating       int
	Review       string
	// ClearRating removes rating, review and rated_at. It is only used to
	// roll a rated order back to completed.
	ClearRating bool
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f OrderFilter, p Pagination) ([]*domain.Order, int64, error)
	Count(ctx context.Context, f OrderFilter) (int64, error)
	// UpdateStatus returns domain.ErrConflict when the order is no longer in
	// one of change.From.
	UpdateStatus(ctx context.Context, id string, change OrderStatusChange) error
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead returns domain.ErrNotificationNotFound unless the notification
	// exists and belongs to userID.
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
