package handler

import (
	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// pageResponse is the envelope for every paginated listing.
type pageResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func toPageResponse[T any](p *ports.Page[T]) pageResponse[T] {
	return pageResponse[T]{
		Items:      p.Items,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
	}
}

// --- Auth & profile ---

type registerRequest struct {
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required,min=6"`
	Name       string `json:"name"       validate:"required,max=120"`
	Phone      string `json:"phone"`
	Location   string `json:"location"`
	UserType   string `json:"user_type"  validate:"required,oneof=client crafter"`
	Specialty  string `json:"specialty"`
	Experience string `json:"experience"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type priceRangeRequest struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

type notificationPrefsRequest struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

type updateProfileRequest struct {
	Name          *string                   `json:"name"          validate:"omitempty,min=1,max=120"`
	Phone         *string                   `json:"phone"`
	Location      *string                   `json:"location"`
	Specialty     *string                   `json:"specialty"`
	Experience    *string                   `json:"experience"`
	ServiceArea   []string                  `json:"service_area"`
	PriceRange    *priceRangeRequest        `json:"price_range"`
	Notifications *notificationPrefsRequest `json:"notifications"`
}

type fileResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// --- Requests, proposals, orders ---

type createRequestRequest struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category"    validate:"required"`
	Location    string   `json:"location"    validate:"required"`
	Images      []string `json:"images"`
}

// proposalTermsRequest is used both to submit and to edit a bid.
type proposalTermsRequest struct {
	Price    float64 `json:"price"    validate:"required,gt=0"`
	Duration string  `json:"duration" validate:"required"`
	Notes    string  `json:"notes"`
}

type acceptProposalResponse struct {
	Proposal *domain.Proposal       `json:"proposal"`
	Request  *domain.ServiceRequest `json:"request"`
	Frozen   []*domain.Proposal     `json:"frozen"`
}

type createOrderRequest struct {
	Title       string  `json:"title"       validate:"required,max=200"`
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category"    validate:"required"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
	ImageURL    string  `json:"image_url"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type rateOrderRequest struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Review string `json:"review" validate:"max=2000"`
}

// --- Membership & featured ---

type subscribeRequest struct {
	PlanID string `json:"plan_id"`
}

type subscribeResponse struct {
	Subscription *domain.Subscription `json:"subscription"`
	Transaction  *domain.Transaction  `json:"transaction"`
}

type membershipResponse struct {
	Type         domain.MembershipType `json:"membership_type"`
	Subscription *domain.Subscription  `json:"subscription,omitempty"`
	Plan         *domain.Plan          `json:"plan,omitempty"`
}

type featuredRequestRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

type featuredCrafterResponse struct {
	Crafter *domain.User `json:"crafter"`
	AddedBy string       `json:"added_by"`
	AddedAt string       `json:"added_at"`
	Notes   string       `json:"notes,omitempty"`
}
