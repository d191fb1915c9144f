package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/pkg/metrics"
	"github.com/herfa/marketplace-api/pkg/logger"
)

const (
	defaultRecentPeriods = 12
	maxRecentPeriods     = 120
)

// LedgerService implements ports.LedgerService. Finance counters are moved
// only when a transaction completes or is refunded.
type LedgerService struct {
	txs      ports.TransactionRepository
	finances ports.FinanceRepository
	log      zerolog.Logger
	now      func() time.Time
}

func NewLedgerService(txs ports.TransactionRepository, finances ports.FinanceRepository, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		txs:      txs,
		finances: finances,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record creates a pending transaction.
func (s *LedgerService) Record(ctx context.Context, in ports.TransactionInput) (*domain.Transaction, error) {
	if !in.Type.Valid() {
		return nil, invalidInput(fmt.Sprintf("unknown transaction type %q", in.Type))
	}
	if in.Amount < 0 || in.PlatformShare < 0 {
		return nil, invalidInput("amount and platform share must not be negative")
	}
	if in.PlatformShare > in.Amount {
		return nil, invalidInput("platform share cannot exceed the amount")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	provider := in.PaymentProvider
	if provider == "" {
		provider = domain.PaymentProviderDirect
	}

	now := s.now()
	tx := &domain.Transaction{
		Type:            in.Type,
		UserID:          in.UserID,
		UserName:        in.UserName,
		PlanID:          in.PlanID,
		OrderRef:        in.OrderRef,
		Amount:          in.Amount,
		Currency:        currency,
		PlatformShare:   in.PlatformShare,
		Status:          domain.TxPending,
		PaymentProvider: provider,
		Meta: domain.TransactionMeta{
			InvoiceID: invoiceID(now),
			Details:   in.Details,
			Notes:     in.Notes,
		},
		CreatedAt: now,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	metrics.TransactionsTotal.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	s.log.Info().
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Type)).
		Float64("amount", tx.Amount).
		Msg("transaction recorded")
	return tx, nil
}

// Complete marks a pending transaction completed and adds its platform share
// to the current period. The transaction stays completed if the counter
// update fails; the failure is logged for reconciliation.
func (s *LedgerService) Complete(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.txs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.Status.CanTransitionTo(domain.TxCompleted) {
		return nil, fmt.Errorf("%w: transaction is %s", domain.ErrInvalidTransition, tx.Status)
	}

	now := s.now()
	if err := s.txs.UpdateStatus(ctx, id, domain.TxPending, domain.TxCompleted, now); err != nil {
		return nil, err
	}
	tx.Status = domain.TxCompleted
	tx.CompletedAt = &now

	period := domain.PeriodOf(now)
	if err := s.finances.Apply(ctx, period, tx.Type, tx.PlatformShare, 1, tx.Currency); err != nil {
		logger.Ctx(ctx, s.log).Error().Err(err).Str("transaction_id", id).Str("period", period).Msg("failed to apply transaction to finances")
	}

	metrics.TransactionsTotal.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	metrics.PlatformRevenueTotal.WithLabelValues(string(tx.Type)).Add(tx.PlatformShare)
	s.log.Info().Str("transaction_id", id).Str("period", period).Msg("transaction completed")
	return tx, nil
}

// Fail marks a pending transaction failed. Used when the purchase it backs
// could not be fulfilled.
func (s *LedgerService) Fail(ctx context.Context, tx *domain.Transaction) error {
	if err := s.txs.UpdateStatus(ctx, tx.ID, domain.TxPending, domain.TxFailed, s.now()); err != nil {
		return err
	}
	tx.Status = domain.TxFailed
	metrics.TransactionsTotal.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	return nil
}

// Link records the subscription or order a transaction paid for.
func (s *LedgerService) Link(ctx context.Context, id string, refs ports.TransactionRefs) error {
	return s.txs.SetRefs(ctx, id, refs)
}

// Refund reverses a completed transaction against the period it was booked
// in.
func (s *LedgerService) Refund(ctx context.Context, actor domain.Actor, id string) (*domain.Transaction, error) {
	if err := requirePermission(actor, domain.PermManagePayments); err != nil {
		return nil, err
	}
	tx, err := s.txs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tx.Status.CanTransitionTo(domain.TxRefunded) {
		return nil, fmt.Errorf("%w: only completed transactions can be refunded (status %s)", domain.ErrInvalidTransition, tx.Status)
	}

	now := s.now()
	if err := s.txs.UpdateStatus(ctx, id, domain.TxCompleted, domain.TxRefunded, now); err != nil {
		return nil, err
	}
	tx.Status = domain.TxRefunded
	tx.Meta.RefundedAt = &now

	booked := now
	if tx.CompletedAt != nil {
		booked = *tx.CompletedAt
	}
	period := domain.PeriodOf(booked)
	if err := s.finances.Apply(ctx, period, tx.Type, -tx.PlatformShare, -1, tx.Currency); err != nil {
		logger.Ctx(ctx, s.log).Error().Err(err).Str("transaction_id", id).Str("period", period).Msg("failed to reverse transaction in finances")
	}

	metrics.TransactionsTotal.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	metrics.PlatformRefundsTotal.WithLabelValues(string(tx.Type)).Add(tx.PlatformShare)
	s.log.Info().Str("transaction_id", id).Str("admin_id", actor.UserID).Msg("transaction refunded")
	return tx, nil
}

func (s *LedgerService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Transaction, error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	return s.txs.FindByID(ctx, id)
}

func (s *LedgerService) List(ctx context.Context, actor domain.Actor, f ports.TransactionFilter, p ports.Pagination) (*ports.Page[*domain.Transaction], error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, invalidInput(fmt.Sprintf("unknown transaction type %q", f.Type))
	}
	p = p.Normalize()
	items, total, err := s.txs.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(items, total, p), nil
}

func (s *LedgerService) CurrentFinances(ctx context.Context, actor domain.Actor) (*domain.CompanyFinances, error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	return s.finances.Get(ctx, domain.PeriodOf(s.now()))
}

func (s *LedgerService) TotalFinances(ctx context.Context, actor domain.Actor) (*domain.CompanyFinances, error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	return s.finances.Total(ctx)
}

func (s *LedgerService) FinancesRange(ctx context.Context, actor domain.Actor, from, to string) ([]*domain.CompanyFinances, error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	start, err := time.Parse(domain.PeriodLayout, from)
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("invalid period %q, expected YYYY-MM", from))
	}
	end, err := time.Parse(domain.PeriodLayout, to)
	if err != nil {
		return nil, invalidInput(fmt.Sprintf("invalid period %q, expected YYYY-MM", to))
	}
	if end.Before(start) {
		return nil, invalidInput("range end precedes range start")
	}
	return s.finances.Range(ctx, from, to)
}

func (s *LedgerService) RecentFinances(ctx context.Context, actor domain.Actor, n int) ([]*domain.CompanyFinances, error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = defaultRecentPeriods
	}
	if n > maxRecentPeriods {
		n = maxRecentPeriods
	}
	return s.finances.Recent(ctx, n)
}

// Earnings sums completed transactions of type t. Zero bounds are open.
func (s *LedgerService) Earnings(ctx context.Context, actor domain.Actor, t domain.TransactionType, from, to time.Time) (*ports.Earnings, error) {
	if err := requireFinanceRead(actor); err != nil {
		return nil, err
	}
	if t == "" {
		t = domain.TxMembership
	}
	if !t.Valid() {
		return nil, invalidInput(fmt.Sprintf("unknown transaction type %q", t))
	}

	total, count, err := s.txs.Sum(ctx, ports.TransactionFilter{
		Type:   t,
		Status: domain.TxCompleted,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, err
	}

	e := &ports.Earnings{Type: t, Total: total, Count: count}
	if !from.IsZero() {
		e.From = &from
	}
	if !to.IsZero() {
		e.To = &to
	}
	return e, nil
}

func requireFinanceRead(actor domain.Actor) error {
	if actor.Can(domain.PermViewAnalytics) || actor.Can(domain.PermManagePayments) {
		return nil
	}
	return domain.ErrForbidden
}

func invoiceID(at time.Time) string {
	return fmt.Sprintf("INV-%s-%s", at.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
