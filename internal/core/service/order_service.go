package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/pkg/metrics"
	"github.com/herfa/marketplace-api/pkg/logger"
)

// ledgerRecorder is the slice of the ledger that other services book into.
type ledgerRecorder interface {
	Record(ctx context.Context, in ports.TransactionInput) (*domain.Transaction, error)
	Complete(ctx context.Context, id string) (*domain.Transaction, error)
}

type revenueRulesReader interface {
	RevenueRules(ctx context.Context) (*domain.RevenueRules, error)
}

// OrderService implements ports.OrderService.
type OrderService struct {
	orders   ports.OrderRepository
	users    ports.UserRepository
	notifier ports.Notifier
	ledger   ledgerRecorder
	rules    revenueRulesReader
	replay   replayer
	log      zerolog.Logger
}

func NewOrderService(
	orders ports.OrderRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	ledger ledgerRecorder,
	rules revenueRulesReader,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		notifier: notifier,
		ledger:   ledger,
		rules:    rules,
		replay:   replayer{store: idem, log: log},
		log:      log,
	}
}

func (s *OrderService) Create(ctx context.Context, actor domain.Actor, in ports.CreateOrderInput) (*domain.Order, bool, error) {
	if !actor.IsClient() {
		return nil, false, domain.ErrForbidden
	}
	if blank(in.Title) || blank(in.Category) {
		return nil, false, invalidInput("title and category are required")
	}
	if in.Price <= 0 {
		return nil, false, invalidInput("price must be greater than zero")
	}

	scope := "order:" + actor.UserID
	if id, ok := s.replay.lookup(ctx, scope, in.IdempotencyKey); ok {
		existing, err := s.orders.FindByID(ctx, id)
		if err == nil {
			return existing, true, nil
		}
		logger.Ctx(ctx, s.log).Warn().Err(err).Str("order_id", id).Msg("idempotent replay target missing, creating anew")
	}

	client, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	o := &domain.Order{
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Category:       strings.TrimSpace(in.Category),
		Price:          in.Price,
		ImageURL:       in.ImageURL,
		Status:         domain.OrderPending,
		ClientID:       client.ID,
		ClientName:     client.Name,
		ClientPhone:    client.Phone,
		ClientLocation: client.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}
	s.replay.remember(ctx, scope, in.IdempotencyKey, o.ID)
	metrics.OrderTransitionsTotal.WithLabelValues(string(domain.OrderPending)).Inc()

	s.log.Info().Str("order_id", o.ID).Str("client_id", o.ClientID).Msg("order created")
	return o, false, nil
}

// List shows clients their own orders and crafters the open board plus the
// orders they claimed.
func (s *OrderService) List(ctx context.Context, actor domain.Actor, in ports.ListOrdersInput) (*ports.Page[*domain.Order], error) {
	f := ports.OrderFilter{Category: in.Category}
	if in.Status != "" {
		f.Status = domain.OrderStatus(in.Status)
		if !f.Status.Valid() {
			return nil, invalidInput(fmt.Sprintf("unknown order status %q", in.Status))
		}
	}
	switch {
	case actor.IsClient():
		f.ClientID = actor.UserID
	case actor.IsCrafter():
		f.CrafterID = actor.UserID
		f.IncludeOpen = true
	}

	p := in.Pagination.Normalize()
	items, total, err := s.orders.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(items, total, p), nil
}

func (s *OrderService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeOrder(actor, o) {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// Accept lets a crafter claim a pending order. Only the first claim wins.
func (s *OrderService) Accept(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	if !actor.IsCrafter() {
		return nil, domain.ErrForbidden
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	crafter, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	change := ports.OrderStatusChange{
		To:           domain.OrderAccepted,
		CrafterID:    crafter.ID,
		CrafterName:  crafter.Name,
		CrafterPhone: crafter.Phone,
	}
	if err := s.transition(ctx, o, change); err != nil {
		return nil, err
	}
	o.CrafterID = crafter.ID
	o.CrafterName = crafter.Name
	o.CrafterPhone = crafter.Phone
	return o, nil
}

func (s *OrderService) Start(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	o, err := s.orderForAssignedCrafter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, o, ports.OrderStatusChange{To: domain.OrderInProgress}); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    o.ClientID,
		Type:      domain.NotifyOrderStarted,
		Title:     "Order started",
		Message:   fmt.Sprintf("%s started working on %q.", o.CrafterName, o.Title),
		RelatedID: o.ID,
	})
	return o, nil
}

// Complete finishes the order, notifies the client and books the platform
// commission.
func (s *OrderService) Complete(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	o, err := s.orderForAssignedCrafter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, o, ports.OrderStatusChange{To: domain.OrderCompleted}); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    o.ClientID,
		Type:      domain.NotifyOrderCompleted,
		Title:     "Order completed",
		Message:   fmt.Sprintf("%s completed %q. Please rate the work.", o.CrafterName, o.Title),
		RelatedID: o.ID,
	})
	s.bookCommission(ctx, o)
	return o, nil
}

// Cancel is allowed for the owning client or the assigned crafter.
func (s *OrderService) Cancel(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isOwner := actor.IsClient() && o.ClientID == actor.UserID
	isAssigned := actor.IsCrafter() && o.CrafterID != "" && o.CrafterID == actor.UserID
	if !isOwner && !isAssigned && !actor.Can(domain.PermManageOrders) {
		return nil, domain.ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if err := s.transition(ctx, o, ports.OrderStatusChange{To: domain.OrderCancelled, CancelReason: reason}); err != nil {
		return nil, err
	}
	o.CancelReason = reason
	return o, nil
}

// Rate records the client's 1..5 score and folds it into the crafter's
// running mean.
func (s *OrderService) Rate(ctx context.Context, actor domain.Actor, id string, rating int, review string) (*domain.Order, error) {
	if rating < 1 || rating > 5 {
		return nil, invalidInput("rating must be between 1 and 5")
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsClient() || o.ClientID != actor.UserID {
		return nil, domain.ErrForbidden
	}

	review = strings.TrimSpace(review)
	change := ports.OrderStatusChange{To: domain.OrderRated, Rating: rating, Review: review}
	if err := s.transition(ctx, o, change); err != nil {
		return nil, err
	}
	o.Rating = rating
	o.Review = review

	if err := s.users.ApplyRating(ctx, o.CrafterID, rating); err != nil {
		log := logger.Ctx(ctx, s.log)
		log.Error().Err(err).Str("order_id", o.ID).Str("crafter_id", o.CrafterID).Msg("failed to update crafter rating")
		if rbErr := s.unrate(ctx, o); rbErr != nil {
			log.Error().Err(rbErr).Str("order_id", o.ID).Msg("failed to roll back order rating")
		}
		return nil, fmt.Errorf("rate order: %w", err)
	}
	return o, nil
}

// unrate moves a rated order back to completed so the client can rate again.
func (s *OrderService) unrate(ctx context.Context, o *domain.Order) error {
	at := time.Now().UTC()
	if o.CompletedAt != nil {
		at = *o.CompletedAt
	}
	change := ports.OrderStatusChange{
		From:        []domain.OrderStatus{domain.OrderRated},
		To:          domain.OrderCompleted,
		At:          at,
		ClearRating: true,
	}
	if err := s.orders.UpdateStatus(ctx, o.ID, change); err != nil {
		return err
	}
	o.Status = domain.OrderCompleted
	o.Rating = 0
	o.Review = ""
	o.RatedAt = nil
	return nil
}

func (s *OrderService) orderForAssignedCrafter(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	if !actor.IsCrafter() {
		return nil, domain.ErrForbidden
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CrafterID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// transition fills From with the status o was read with, applies the write
// and updates o in place.
func (s *OrderService) transition(ctx context.Context, o *domain.Order, change ports.OrderStatusChange) error {
	if !o.Status.CanTransitionTo(change.To) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, change.To)
	}
	now := time.Now().UTC()
	change.From = []domain.OrderStatus{o.Status}
	change.At = now
	if err := s.orders.UpdateStatus(ctx, o.ID, change); err != nil {
		return err
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(change.To)).Inc()
	s.log.Info().
		Str("order_id", o.ID).
		Str("from", string(o.Status)).
		Str("to", string(change.To)).
		Msg("order status changed")

	o.Status = change.To
	o.UpdatedAt = now
	switch change.To {
	case domain.OrderAccepted:
		o.AcceptedAt = &now
	case domain.OrderInProgress:
		o.StartedAt = &now
	case domain.OrderCompleted:
		o.CompletedAt = &now
	case domain.OrderCancelled:
		o.CancelledAt = &now
	case domain.OrderRated:
		o.RatedAt = &now
	}
	return nil
}

// bookCommission records the platform's cut of a completed order. The order
// is already completed at this point, so failures are logged for
// reconciliation rather than returned.
func (s *OrderService) bookCommission(ctx context.Context, o *domain.Order) {
	if s.ledger == nil || s.rules == nil {
		return
	}
	log := s.log.With().Str("order_id", o.ID).Logger()

	rules, err := s.rules.RevenueRules(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load revenue rules, commission not booked")
		return
	}
	share := rules.Commission(o.Price)
	if share <= 0 {
		return
	}

	tx, err := s.ledger.Record(ctx, ports.TransactionInput{
		Type:          domain.TxCommission,
		UserID:        o.CrafterID,
		UserName:      o.CrafterName,
		OrderRef:      o.ID,
		Amount:        o.Price,
		PlatformShare: share,
		Currency:      rules.DefaultCurrency,
		Details:       fmt.Sprintf("commission on order %q", o.Title),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to record commission")
		return
	}
	if _, err := s.ledger.Complete(ctx, tx.ID); err != nil {
		log.Error().Err(err).Str("transaction_id", tx.ID).Msg("failed to complete commission")
	}
}

func canSeeOrder(actor domain.Actor, o *domain.Order) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsClient():
		return o.ClientID == actor.UserID
	case actor.IsCrafter():
		return o.CrafterID == actor.UserID || (o.CrafterID == "" && o.Status == domain.OrderPending)
	}
	return false
}
