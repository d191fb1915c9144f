package domain

import "time"

// RequestStatus represents the lifecycle state of a service request.
type RequestStatus string

const (
	RequestOpen       RequestStatus = "open"
	RequestClosed     RequestStatus = "closed"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// requestTransitions is the request state machine. A request is closed when
// one of its proposals is accepted.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestOpen:       {RequestClosed, RequestCancelled},
	RequestClosed:     {RequestInProgress, RequestCancelled},
	RequestInProgress: {RequestCompleted, RequestCancelled},
}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestClosed, RequestInProgress, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ServiceRequest is a job posted by a client for crafters to bid on.
type ServiceRequest struct {
	ID                 string        `json:"id" bson:"_id"`
	Title              string        `json:"title" bson:"title"`
	Description        string        `json:"description" bson:"description"`
	Category           string        `json:"category" bson:"category"`
	Location           string        `json:"location" bson:"location"`
	Images             []string      `json:"images" bson:"images"`
	ClientID           string        `json:"client_id" bson:"client_id"`
	ClientName         string        `json:"client_name" bson:"client_name"`
	Status             RequestStatus `json:"status" bson:"status"`
	AcceptedProposalID string        `json:"accepted_proposal_id,omitempty" bson:"accepted_proposal_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}
