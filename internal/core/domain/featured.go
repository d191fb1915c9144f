package domain

import "time"

// FeaturedRequestStatus represents the review state of a featured request.
type FeaturedRequestStatus string

const (
	FeaturedPending  FeaturedRequestStatus = "pending"
	FeaturedApproved FeaturedRequestStatus = "approved"
	FeaturedRejected FeaturedRequestStatus = "rejected"
)

// FeaturedRequest is a premium crafter's application to be listed among the
// best crafters.
type FeaturedRequest struct {
	ID          string                `json:"id" bson:"_id"`
	CrafterID   string                `json:"crafter_id" bson:"crafter_id"`
	CrafterName string                `json:"crafter_name" bson:"crafter_name"`
	Status      FeaturedRequestStatus `json:"status" bson:"status"`
	Notes       string                `json:"notes,omitempty" bson:"notes,omitempty"`
	AdminNotes  string                `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	RequestedAt time.Time             `json:"requested_at" bson:"requested_at"`
	ReviewedAt  *time.Time            `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	ReviewedBy  string                `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
}

// FeaturedCrafter is an entry in the curated best-crafters list.
type FeaturedCrafter struct {
	CrafterID string    `json:"crafter_id" bson:"_id"`
	AddedBy   string    `json:"added_by" bson:"added_by"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
	Notes     string    `json:"notes,omitempty" bson:"notes,omitempty"`
}
