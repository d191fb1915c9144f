package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/pkg/logger"
)

// membershipLedger is what a subscription purchase needs from the ledger.
type membershipLedger interface {
	ledgerRecorder
	Fail(ctx context.Context, tx *domain.Transaction) error
	Link(ctx context.Context, id string, refs ports.TransactionRefs) error
}

// MembershipService implements ports.MembershipService.
type MembershipService struct {
	plans  ports.PlanRepository
	subs   ports.SubscriptionRepository
	users  ports.UserRepository
	ledger membershipLedger
	log    zerolog.Logger
	now    func() time.Time
}

func NewMembershipService(
	plans ports.PlanRepository,
	subs ports.SubscriptionRepository,
	users ports.UserRepository,
	ledger membershipLedger,
	log zerolog.Logger,
) *MembershipService {
	return &MembershipService{
		plans:  plans,
		subs:   subs,
		users:  users,
		ledger: ledger,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Plans lists plans, creating the default plan when none exists yet.
func (s *MembershipService) Plans(ctx context.Context, activeOnly bool) ([]*domain.Plan, error) {
	if err := s.ensureDefaultPlan(ctx); err != nil {
		return nil, err
	}
	return s.plans.List(ctx, activeOnly)
}

// Plan returns a single plan, including inactive ones.
func (s *MembershipService) Plan(ctx context.Context, id string) (*domain.Plan, error) {
	return s.plans.FindByID(ctx, id)
}

func (s *MembershipService) CreatePlan(ctx context.Context, actor domain.Actor, in ports.PlanInput) (*domain.Plan, error) {
	if err := requirePermission(actor, domain.PermManagePayments); err != nil {
		return nil, err
	}
	if err := validatePlan(in); err != nil {
		return nil, err
	}

	now := s.now()
	p := &domain.Plan{CreatedAt: now}
	applyPlanInput(p, in, true)
	p.UpdatedAt = now
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", p.ID).Str("admin_id", actor.UserID).Msg("membership plan created")
	return p, nil
}

func (s *MembershipService) UpdatePlan(ctx context.Context, actor domain.Actor, id string, in ports.PlanInput) (*domain.Plan, error) {
	if err := requirePermission(actor, domain.PermManagePayments); err != nil {
		return nil, err
	}
	if err := validatePlan(in); err != nil {
		return nil, err
	}
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPlanInput(p, in, false)
	p.UpdatedAt = s.now()
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("plan_id", p.ID).Str("admin_id", actor.UserID).Msg("membership plan updated")
	return p, nil
}

// Current reports the user's tier. An active subscription past its end date
// is flipped to expired here and the crafter dropped back to free.
func (s *MembershipService) Current(ctx context.Context, userID string) (*ports.MembershipStatus, error) {
	free := &ports.MembershipStatus{Type: domain.MembershipFree}

	sub, err := s.subs.FindActiveByUser(ctx, userID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return free, nil
	}
	if err != nil {
		return nil, err
	}

	if sub.Expired(s.now()) {
		if err := s.subs.UpdateStatus(ctx, sub.ID, domain.SubscriptionExpired); err != nil {
			return nil, fmt.Errorf("expire subscription: %w", err)
		}
		if err := s.users.SetMembership(ctx, userID, domain.MembershipFree, nil); err != nil {
			logger.Ctx(ctx, s.log).Error().Err(err).Str("user_id", userID).Msg("failed to downgrade expired membership")
		}
		s.log.Info().Str("subscription_id", sub.ID).Str("user_id", userID).Msg("subscription expired")
		return free, nil
	}

	status := &ports.MembershipStatus{Type: domain.MembershipPremium, Subscription: sub}
	plan, err := s.plans.FindByID(ctx, sub.PlanID)
	switch {
	case err == nil:
		status.Plan = plan
	case !errors.Is(err, domain.ErrPlanNotFound):
		return nil, err
	}
	return status, nil
}

// Subscribe buys planID for a crafter: a pending membership transaction is
// recorded, the subscription created and linked to it, the transaction
// completed and the crafter marked premium.
func (s *MembershipService) Subscribe(ctx context.Context, actor domain.Actor, planID string) (*domain.Subscription, *domain.Transaction, error) {
	if !actor.IsCrafter() {
		return nil, nil, domain.ErrForbidden
	}

	plan, err := s.resolvePlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}

	current, err := s.Current(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	if current.Subscription != nil {
		return nil, nil, domain.ErrActiveSubscription
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.ledger.Record(ctx, ports.TransactionInput{
		Type:          domain.TxMembership,
		UserID:        user.ID,
		UserName:      user.Name,
		PlanID:        plan.ID,
		Amount:        plan.Price,
		PlatformShare: plan.Price,
		Currency:      plan.Currency,
		Details:       plan.Title,
	})
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	sub := &domain.Subscription{
		UserID:    user.ID,
		PlanID:    plan.ID,
		Status:    domain.SubscriptionActive,
		StartedAt: now,
		ExpiresAt: now.AddDate(0, 0, plan.DurationDays),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		if ferr := s.ledger.Fail(ctx, tx); ferr != nil {
			logger.Ctx(ctx, s.log).Error().Err(ferr).Str("transaction_id", tx.ID).Msg("failed to mark membership payment failed")
		}
		return nil, nil, fmt.Errorf("create subscription: %w", err)
	}

	if err := s.ledger.Link(ctx, tx.ID, ports.TransactionRefs{SubscriptionRef: sub.ID}); err != nil {
		return nil, nil, fmt.Errorf("link payment: %w", err)
	}
	tx.SubscriptionRef = sub.ID
	if err := s.subs.RecordPayment(ctx, sub.ID, tx.ID); err != nil {
		return nil, nil, fmt.Errorf("link subscription: %w", err)
	}
	sub.LastPaymentRef = tx.ID
	sub.PaymentCount++

	completed, err := s.ledger.Complete(ctx, tx.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("complete payment: %w", err)
	}
	completed.SubscriptionRef = sub.ID

	expires := sub.ExpiresAt
	if err := s.users.SetMembership(ctx, user.ID, domain.MembershipPremium, &expires); err != nil {
		return nil, nil, fmt.Errorf("upgrade membership: %w", err)
	}

	s.log.Info().
		Str("subscription_id", sub.ID).
		Str("user_id", user.ID).
		Str("plan_id", plan.ID).
		Time("expires_at", sub.ExpiresAt).
		Msg("membership subscribed")
	return sub, completed, nil
}

func (s *MembershipService) CancelActive(ctx context.Context, actor domain.Actor) (*domain.Subscription, error) {
	sub, err := s.subs.FindActiveByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, actor, sub)
}

func (s *MembershipService) Cancel(ctx context.Context, actor domain.Actor, subscriptionID string) (*domain.Subscription, error) {
	sub, err := s.subs.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, actor, sub)
}

func (s *MembershipService) ListActive(ctx context.Context, actor domain.Actor, p ports.Pagination) (*ports.Page[*domain.Subscription], error) {
	if err := requirePermission(actor, domain.PermManagePayments); err != nil {
		return nil, err
	}
	p = p.Normalize()
	items, total, err := s.subs.ListByStatus(ctx, domain.SubscriptionActive, p)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(items, total, p), nil
}

func (s *MembershipService) cancel(ctx context.Context, actor domain.Actor, sub *domain.Subscription) (*domain.Subscription, error) {
	if sub.UserID != actor.UserID && !actor.Can(domain.PermManagePayments) {
		return nil, domain.ErrForbidden
	}
	if sub.Status != domain.SubscriptionActive {
		return nil, fmt.Errorf("%w: subscription is %s", domain.ErrInvalidTransition, sub.Status)
	}

	if err := s.subs.UpdateStatus(ctx, sub.ID, domain.SubscriptionCancelled); err != nil {
		return nil, err
	}
	if err := s.users.SetMembership(ctx, sub.UserID, domain.MembershipFree, nil); err != nil {
		return nil, fmt.Errorf("downgrade membership: %w", err)
	}
	sub.Status = domain.SubscriptionCancelled
	sub.UpdatedAt = s.now()

	s.log.Info().Str("subscription_id", sub.ID).Str("cancelled_by", actor.UserID).Msg("subscription cancelled")
	return sub, nil
}

// resolvePlan loads planID, or the cheapest active plan when planID is empty.
func (s *MembershipService) resolvePlan(ctx context.Context, planID string) (*domain.Plan, error) {
	if planID == "" {
		plans, err := s.Plans(ctx, true)
		if err != nil {
			return nil, err
		}
		if len(plans) == 0 {
			return nil, domain.ErrPlanNotFound
		}
		return plans[0], nil
	}

	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (s *MembershipService) ensureDefaultPlan(ctx context.Context) error {
	n, err := s.plans.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	p := domain.DefaultPlan(s.now())
	if err := s.plans.Create(ctx, p); err != nil {
		return fmt.Errorf("create default plan: %w", err)
	}
	s.log.Info().Str("plan_id", p.ID).Msg("default membership plan initialised")
	return nil
}

func validatePlan(in ports.PlanInput) error {
	switch {
	case blank(in.Title):
		return invalidInput("plan title is required")
	case in.Price <= 0:
		return invalidInput("plan price must be greater than zero")
	case in.DurationDays <= 0:
		return invalidInput("plan duration must be at least one day")
	}
	return nil
}

func applyPlanInput(p *domain.Plan, in ports.PlanInput, create bool) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Price = in.Price
	p.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	p.DurationDays = in.DurationDays
	p.Features = in.Features
	if p.Features == nil {
		p.Features = []string{}
	}
	switch {
	case in.IsActive != nil:
		p.IsActive = *in.IsActive
	case create:
		p.IsActive = true
	}
}
