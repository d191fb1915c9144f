package domain

import "time"

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotifyProposalReceived NotificationType = "proposal_received"
	NotifyProposalAccepted NotificationType = "proposal_accepted"
	NotifyProposalRejected NotificationType = "proposal_rejected"
	NotifyRequestClosed    NotificationType = "request_closed"
	NotifyOrderStarted     NotificationType = "order_started"
	NotifyOrderCompleted   NotificationType = "order_completed"
	NotifyAdminMessage     NotificationType = "admin_message"
)

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        string           `json:"id" bson:"_id"`
	UserID    string           `json:"user_id" bson:"user_id"`
	Type      NotificationType `json:"type" bson:"type"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	RelatedID string           `json:"related_id,omitempty" bson:"related_id,omitempty"`
	Read      bool             `json:"read" bson:"read"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}
