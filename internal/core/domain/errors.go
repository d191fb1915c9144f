package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("access forbidden")
	ErrConflict          = errors.New("resource was modified concurrently")
	ErrInvalidInput      = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountInactive    = errors.New("account is not active")

	ErrRequestNotFound      = errors.New("service request not found")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrDuplicateProposal    = errors.New("proposal already submitted for this request")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrPlanNotFound         = errors.New("membership plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrActiveSubscription   = errors.New("user already has an active subscription")
	ErrPremiumRequired      = errors.New("premium membership required")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrSettingsNotFound    = errors.New("settings not found")

	ErrFeaturedRequestNotFound = errors.New("featured request not found")
	ErrFeaturedRequestPending  = errors.New("a featured request is already pending")
	ErrAlreadyFeatured         = errors.New("crafter is already featured")
	ErrNotFeatured             = errors.New("crafter is not featured")

	ErrFileNotFound     = errors.New("file not found")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrFileTooLarge     = errors.New("file too large")
)
