package domain

import "time"

// ProposalStatus represents the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
	// ProposalFrozen marks a competing proposal once another one on the same
	// request has been accepted.
	ProposalFrozen ProposalStatus = "frozen"
)

// DefaultCrafterSpecialty is shown when a crafter has not set a specialty.
const DefaultCrafterSpecialty = "crafter"

var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalPending: {ProposalAccepted, ProposalRejected, ProposalFrozen},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s ProposalStatus) CanTransitionTo(next ProposalStatus) bool {
	for _, allowed := range proposalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Proposal is a crafter's bid on a service request.
type Proposal struct {
	ID               string         `json:"id" bson:"_id"`
	RequestID        string         `json:"request_id" bson:"request_id"`
	CrafterID        string         `json:"crafter_id" bson:"crafter_id"`
	CrafterName      string         `json:"crafter_name" bson:"crafter_name"`
	CrafterSpecialty string         `json:"crafter_specialty" bson:"crafter_specialty"`
	CrafterRating    float64        `json:"crafter_rating" bson:"crafter_rating"`
	Price            float64        `json:"price" bson:"price"`
	Duration         string         `json:"duration" bson:"duration"`
	Notes            string         `json:"notes" bson:"notes"`
	Status           ProposalStatus `json:"status" bson:"status"`
	CreatedAt        time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" bson:"updated_at"`
}
