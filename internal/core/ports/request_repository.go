package ports

import (
	"context"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// RequestFilter carries the query parameters for listing service requests.
// ClientID is always enforced by the service layer.
type RequestFilter struct {
	ClientID string
	Status   domain.RequestStatus
	Category string
	Search   string // partial match on title
}

// RequestStatusChange is a status write that only applies while the request
// is still in one of From. An empty From makes the write unconditional.
type RequestStatusChange struct {
	From               []domain.RequestStatus
	To                 domain.RequestStatus
	AcceptedProposalID string
	At                 time.Time
}

// RequestRepository defines persistence operations for service requests.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.ServiceRequest) error
	FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, f RequestFilter, p Pagination) ([]*domain.ServiceRequest, int64, error)
	Count(ctx context.Context, f RequestFilter) (int64, error)
	// UpdateStatus returns domain.ErrConflict when the request exists but is no
	// longer in an expected status.
	UpdateStatus(ctx context.Context, id string, change RequestStatusChange) error
	AddImage(ctx context.Context, id, url string) error
}

// ProposalRepository defines persistence operations for proposals.
type ProposalRepository interface {
	// Create returns domain.ErrDuplicateProposal when the crafter already bid
	// on the request.
	Create(ctx context.Context, p *domain.Proposal) error
	FindByID(ctx context.Context, id string) (*domain.Proposal, error)
	ListByRequest(ctx context.Context, requestID string) ([]*domain.Proposal, error)
	ListByCrafter(ctx context.Context, crafterID string, p Pagination) ([]*domain.Proposal, int64, error)
	// UpdateTerms edits a proposal that is still pending.
	UpdateTerms(ctx context.Context, id string, price float64, duration, notes string) error
	// UpdateStatus moves a proposal from one status to another, returning
	// domain.ErrConflict when it is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to domain.ProposalStatus) error
	// FreezeCompeting freezes every pending proposal on requestID other than
	// acceptedID and returns the proposals it froze.
	FreezeCompeting(ctx context.Context, requestID, acceptedID string) ([]*domain.Proposal, error)
	DeleteByRequest(ctx context.Context, requestID string) (int64, error)
}
