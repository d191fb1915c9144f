package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/pkg/metrics"
	"github.com/herfa/marketplace-api/pkg/logger"
)

// ProposalService implements ports.ProposalService, including the acceptance
// workflow that closes a request.
type ProposalService struct {
	proposals ports.ProposalRepository
	requests  ports.RequestRepository
	users     ports.UserRepository
	notifier  ports.Notifier
	replay    replayer
	log       zerolog.Logger
}

func NewProposalService(
	proposals ports.ProposalRepository,
	requests ports.RequestRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		requests:  requests,
		users:     users,
		notifier:  notifier,
		replay:    replayer{store: idem, log: log},
		log:       log,
	}
}

func (s *ProposalService) Create(ctx context.Context, actor domain.Actor, in ports.CreateProposalInput) (*domain.Proposal, bool, error) {
	if !actor.IsCrafter() {
		return nil, false, domain.ErrForbidden
	}
	if in.Price <= 0 {
		return nil, false, invalidInput("price must be greater than zero")
	}

	scope := "proposal:" + actor.UserID
	if id, ok := s.replay.lookup(ctx, scope, in.IdempotencyKey); ok {
		existing, err := s.proposals.FindByID(ctx, id)
		if err == nil {
			return existing, true, nil
		}
		logger.Ctx(ctx, s.log).Warn().Err(err).Str("proposal_id", id).Msg("idempotent replay target missing, creating anew")
	}

	req, err := s.requests.FindByID(ctx, in.RequestID)
	if err != nil {
		return nil, false, err
	}
	if req.Status != domain.RequestOpen {
		return nil, false, fmt.Errorf("%w: request is %s and no longer accepts proposals", domain.ErrInvalidTransition, req.Status)
	}

	crafter, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, false, err
	}
	specialty := domain.DefaultCrafterSpecialty
	var rating float64
	if crafter.Crafter != nil {
		if crafter.Crafter.Specialty != "" {
			specialty = crafter.Crafter.Specialty
		}
		rating = crafter.Crafter.Rating
	}

	now := time.Now().UTC()
	p := &domain.Proposal{
		RequestID:        req.ID,
		CrafterID:        crafter.ID,
		CrafterName:      crafter.Name,
		CrafterSpecialty: specialty,
		CrafterRating:    rating,
		Price:            in.Price,
		Duration:         in.Duration,
		Notes:            in.Notes,
		Status:           domain.ProposalPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.proposals.Create(ctx, p); err != nil {
		return nil, false, err
	}
	s.replay.remember(ctx, scope, in.IdempotencyKey, p.ID)
	metrics.ProposalTransitionsTotal.WithLabelValues(string(domain.ProposalPending)).Inc()

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    req.ClientID,
		Type:      domain.NotifyProposalReceived,
		Title:     "New proposal",
		Message:   fmt.Sprintf("%s sent a proposal for %q.", crafter.Name, req.Title),
		RelatedID: req.ID,
	})

	s.log.Info().Str("proposal_id", p.ID).Str("service_request_id", req.ID).Str("crafter_id", p.CrafterID).Msg("proposal submitted")
	return p, false, nil
}

// ListForRequest returns every proposal to the request owner and admins. A
// crafter only sees their own bid.
func (s *ProposalService) ListForRequest(ctx context.Context, actor domain.Actor, requestID string) ([]*domain.Proposal, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin(), actor.IsClient() && req.ClientID == actor.UserID:
		return s.proposals.ListByRequest(ctx, requestID)
	case actor.IsCrafter():
		all, err := s.proposals.ListByRequest(ctx, requestID)
		if err != nil {
			return nil, err
		}
		own := make([]*domain.Proposal, 0, 1)
		for _, p := range all {
			if p.CrafterID == actor.UserID {
				own = append(own, p)
			}
		}
		return own, nil
	default:
		return nil, domain.ErrForbidden
	}
}

func (s *ProposalService) ListMine(ctx context.Context, actor domain.Actor, p ports.Pagination) (*ports.Page[*domain.Proposal], error) {
	if !actor.IsCrafter() {
		return nil, domain.ErrForbidden
	}
	p = p.Normalize()
	items, total, err := s.proposals.ListByCrafter(ctx, actor.UserID, p)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(items, total, p), nil
}

func (s *ProposalService) Update(ctx context.Context, actor domain.Actor, id string, in ports.UpdateProposalInput) (*domain.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CrafterID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if p.Status != domain.ProposalPending {
		return nil, fmt.Errorf("%w: proposal is %s", domain.ErrInvalidTransition, p.Status)
	}
	if in.Price <= 0 {
		return nil, invalidInput("price must be greater than zero")
	}

	if err := s.proposals.UpdateTerms(ctx, id, in.Price, in.Duration, in.Notes); err != nil {
		return nil, err
	}
	p.Price = in.Price
	p.Duration = in.Duration
	p.Notes = in.Notes
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// Accept runs the acceptance workflow: the proposal becomes accepted, every
// other pending proposal on the request is frozen and the request is closed.
// Each write is conditional on the status observed here, so a concurrent
// change surfaces as domain.ErrConflict instead of being overwritten.
func (s *ProposalService) Accept(ctx context.Context, actor domain.Actor, id string) (*ports.AcceptResult, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, p.RequestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsClient() || req.ClientID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if req.Status != domain.RequestOpen {
		return nil, fmt.Errorf("%w: request is %s", domain.ErrInvalidTransition, req.Status)
	}
	if !p.Status.CanTransitionTo(domain.ProposalAccepted) {
		return nil, fmt.Errorf("%w: proposal is %s", domain.ErrInvalidTransition, p.Status)
	}

	log := s.log.With().Str("proposal_id", p.ID).Str("service_request_id", req.ID).Logger()

	if err := s.proposals.UpdateStatus(ctx, p.ID, domain.ProposalPending, domain.ProposalAccepted); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.AcceptanceConflictsTotal.Inc()
		}
		return nil, fmt.Errorf("accept proposal: %w", err)
	}
	metrics.ProposalTransitionsTotal.WithLabelValues(string(domain.ProposalAccepted)).Inc()

	frozen, err := s.proposals.FreezeCompeting(ctx, req.ID, p.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to freeze competing proposals")
		return nil, fmt.Errorf("accept proposal: freeze competing: %w", err)
	}
	if len(frozen) > 0 {
		metrics.ProposalTransitionsTotal.WithLabelValues(string(domain.ProposalFrozen)).Add(float64(len(frozen)))
	}

	now := time.Now().UTC()
	closeReq := ports.RequestStatusChange{
		From:               []domain.RequestStatus{domain.RequestOpen},
		To:                 domain.RequestClosed,
		AcceptedProposalID: p.ID,
		At:                 now,
	}
	if err := s.requests.UpdateStatus(ctx, req.ID, closeReq); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.AcceptanceConflictsTotal.Inc()
			s.releaseAccepted(ctx, log, p.ID)
		}
		return nil, fmt.Errorf("accept proposal: close request: %w", err)
	}

	p.Status = domain.ProposalAccepted
	p.UpdatedAt = now
	req.Status = domain.RequestClosed
	req.AcceptedProposalID = p.ID
	req.UpdatedAt = now

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    p.CrafterID,
		Type:      domain.NotifyProposalAccepted,
		Title:     "Proposal accepted",
		Message:   fmt.Sprintf("Your proposal for %q was accepted.", req.Title),
		RelatedID: req.ID,
	})
	for _, f := range frozen {
		notify(ctx, s.notifier, s.log, &domain.Notification{
			UserID:    f.CrafterID,
			Type:      domain.NotifyRequestClosed,
			Title:     "Request closed",
			Message:   fmt.Sprintf("%q was awarded to another crafter.", req.Title),
			RelatedID: req.ID,
		})
	}

	log.Info().Int("frozen", len(frozen)).Msg("proposal accepted")
	return &ports.AcceptResult{Proposal: p, Request: req, Frozen: frozen}, nil
}

// releaseAccepted freezes a proposal whose request was closed or cancelled by
// a concurrent writer after the proposal itself had been accepted.
func (s *ProposalService) releaseAccepted(ctx context.Context, log zerolog.Logger, id string) {
	if err := s.proposals.UpdateStatus(ctx, id, domain.ProposalAccepted, domain.ProposalFrozen); err != nil {
		log.Error().Err(err).Msg("failed to release proposal after lost acceptance race")
		return
	}
	log.Warn().Msg("acceptance lost a race, proposal frozen")
}

func (s *ProposalService) Reject(ctx context.Context, actor domain.Actor, id string) (*domain.Proposal, error) {
	p, err := s.proposals.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, p.RequestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsClient() || req.ClientID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if !p.Status.CanTransitionTo(domain.ProposalRejected) {
		return nil, fmt.Errorf("%w: proposal is %s", domain.ErrInvalidTransition, p.Status)
	}

	if err := s.proposals.UpdateStatus(ctx, p.ID, domain.ProposalPending, domain.ProposalRejected); err != nil {
		return nil, fmt.Errorf("reject proposal: %w", err)
	}
	metrics.ProposalTransitionsTotal.WithLabelValues(string(domain.ProposalRejected)).Inc()
	p.Status = domain.ProposalRejected
	p.UpdatedAt = time.Now().UTC()

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    p.CrafterID,
		Type:      domain.NotifyProposalRejected,
		Title:     "Proposal declined",
		Message:   fmt.Sprintf("Your proposal for %q was declined.", req.Title),
		RelatedID: req.ID,
	})
	return p, nil
}
