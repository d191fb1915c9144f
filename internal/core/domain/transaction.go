package domain

import "time"

// TransactionType classifies a ledger entry by revenue stream.
type TransactionType string

const (
	TxMembership  TransactionType = "membership_payment"
	TxCommission  TransactionType = "commission_payment"
	TxAdvertising TransactionType = "advertising_payment"
	TxFeatured    TransactionType = "featured_payment"
	TxOther       TransactionType = "other_payment"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxMembership, TxCommission, TxAdvertising, TxFeatured, TxOther:
		return true
	}
	return false
}

// TransactionStatus represents the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxRefunded  TransactionStatus = "refunded"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TxPending:   {TxCompleted, TxFailed},
	TxCompleted: {TxRefunded},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentProviderDirect is recorded when no payment gateway is involved.
const PaymentProviderDirect = "direct"

// TransactionMeta carries free-form bookkeeping details.
type TransactionMeta struct {
	InvoiceID  string     `json:"invoice_id" bson:"invoice_id"`
	Details    string     `json:"details,omitempty" bson:"details,omitempty"`
	Notes      string     `json:"notes,omitempty" bson:"notes,omitempty"`
	RefundedAt *time.Time `json:"refunded_at,omitempty" bson:"refunded_at,omitempty"`
}

// Transaction is an append-only ledger entry. PlatformShare is the part of
// Amount that counts as company revenue.
type Transaction struct {
	ID              string            `json:"id" bson:"_id"`
	Type            TransactionType   `json:"type" bson:"type"`
	UserID          string            `json:"user_id" bson:"user_id"`
	UserName        string            `json:"user_name" bson:"user_name"`
	PlanID          string            `json:"plan_id,omitempty" bson:"plan_id,omitempty"`
	SubscriptionRef string            `json:"subscription_ref,omitempty" bson:"subscription_ref,omitempty"`
	OrderRef        string            `json:"order_ref,omitempty" bson:"order_ref,omitempty"`
	Amount          float64           `json:"amount" bson:"amount"`
	Currency        string            `json:"currency" bson:"currency"`
	PlatformShare   float64           `json:"platform_share" bson:"platform_share"`
	Status          TransactionStatus `json:"status" bson:"status"`
	PaymentProvider string            `json:"payment_provider" bson:"payment_provider"`
	Meta            TransactionMeta   `json:"meta" bson:"meta"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}
