package domain

import "time"

// OrderStatus represents the lifecycle state of a direct order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderAccepted   OrderStatus = "accepted"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderRated      OrderStatus = "rated"
	OrderCancelled  OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderAccepted, OrderCancelled},
	OrderAccepted:   {OrderInProgress, OrderCancelled},
	OrderInProgress: {OrderCompleted, OrderCancelled},
	OrderCompleted:  {OrderRated},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderInProgress, OrderCompleted, OrderRated, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a work item a client posts directly, claimed by the first crafter
// that accepts it. It has its own lifecycle, separate from ServiceRequest.
type Order struct {
	ID             string      `json:"id" bson:"_id"`
	Title          string      `json:"title" bson:"title"`
	Description    string      `json:"description" bson:"description"`
	Category       string      `json:"category" bson:"category"`
	Price          float64     `json:"price" bson:"price"`
	ImageURL       string      `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Status         OrderStatus `json:"status" bson:"status"`
	ClientID       string      `json:"client_id" bson:"client_id"`
	ClientName     string      `json:"client_name" bson:"client_name"`
	ClientPhone    string      `json:"client_phone" bson:"client_phone"`
	ClientLocation string      `json:"client_location" bson:"client_location"`
	CrafterID      string      `json:"crafter_id,omitempty" bson:"crafter_id,omitempty"`
	CrafterName    string      `json:"crafter_name,omitempty" bson:"crafter_name,omitempty"`
	CrafterPhone   string      `json:"crafter_phone,omitempty" bson:"crafter_phone,omitempty"`
	Rating         int         `json:"rating,omitempty" bson:"rating,omitempty"`
	Review         string      `json:"review,omitempty" bson:"review,omitempty"`
	CancelReason   string      `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
	AcceptedAt     *time.Time  `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	StartedAt      *time.Time  `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt    *time.Time  `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	RatedAt        *time.Time  `json:"rated_at,omitempty" bson:"rated_at,omitempty"`
}
