package ports

import (
	"context"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// CreateRequestInput carries a new service request posted by a client.
type CreateRequestInput struct {
	Title          string
	Description    string
	Category       string
	Location       string
	Images         []string
	IdempotencyKey string
}

// ListRequestsInput carries the list endpoint parameters.
type ListRequestsInput struct {
	Status   string
	Category string
	Search   string
	Pagination
}

// RequestService defines use-case operations for service requests.
type RequestService interface {
	// Create returns true as its second value when the idempotency key matched
	// an earlier request.
	Create(ctx context.Context, actor domain.Actor, in CreateRequestInput) (*domain.ServiceRequest, bool, error)
	List(ctx context.Context, actor domain.Actor, in ListRequestsInput) (*Page[*domain.ServiceRequest], error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	Cancel(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	Start(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	Complete(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	AddImage(ctx context.Context, actor domain.Actor, id, url string) (*domain.ServiceRequest, error)
	SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.RequestStatus) (*domain.ServiceRequest, error)
}

// CreateProposalInput carries a crafter's bid.
type CreateProposalInput struct {
	RequestID      string
	Price          float64
	Duration       string
	Notes          string
	IdempotencyKey string
}

// UpdateProposalInput edits a pending bid.
type UpdateProposalInput struct {
	Price    float64
	Duration string
	Notes    string
}

// AcceptResult reports every document the acceptance workflow touched.
type AcceptResult struct {
	Proposal *domain.Proposal
	Request  *domain.ServiceRequest
	Frozen   []*domain.Proposal
}

// ProposalService defines use-case operations for proposals.
type ProposalService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateProposalInput) (*domain.Proposal, bool, error)
	ListForRequest(ctx context.Context, actor domain.Actor, requestID string) ([]*domain.Proposal, error)
	ListMine(ctx context.Context, actor domain.Actor, p Pagination) (*Page[*domain.Proposal], error)
	Update(ctx context.Context, actor domain.Actor, id string, in UpdateProposalInput) (*domain.Proposal, error)
	Accept(ctx context.Context, actor domain.Actor, id string) (*AcceptResult, error)
	Reject(ctx context.Context, actor domain.Actor, id string) (*domain.Proposal, error)
}

// CreateOrderInput carries a direct order posted by a client.
type CreateOrderInput struct {
	Title          string
	Description    string
	Category       string
	Price          float64
	ImageURL       string
	IdempotencyKey string
}

// ListOrdersInput carries the list endpoint parameters.
type ListOrdersInput struct {
	Status   string
	Category string
	Pagination
}

// OrderService defines use-case operations for orders.
type OrderService interface {
	Create(ctx context.Context, actor domain.Actor, in CreateOrderInput) (*domain.Order, bool, error)
	List(ctx context.Context, actor domain.Actor, in ListOrdersInput) (*Page[*domain.Order], error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	Accept(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	Start(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	Complete(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	Cancel(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error)
	Rate(ctx context.Context, actor domain.Actor, id string, rating int, review string) (*domain.Order, error)
}

// NotificationService persists, delivers and reads notifications.
type NotificationService interface {
	// Deliver stores n and pushes it to the recipient's live connections.
	Deliver(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// CrafterService is the public crafter directory.
type CrafterService interface {
	Search(ctx context.Context, f CrafterFilter) ([]*domain.User, error)
	Profile(ctx context.Context, id string) (*domain.User, error)
}
