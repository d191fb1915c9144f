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

// RequestService implements ports.RequestService.
type RequestService struct {
	requests  ports.RequestRepository
	proposals ports.ProposalRepository
	users     ports.UserRepository
	notifier  ports.Notifier
	replay    replayer
	log       zerolog.Logger
}

func NewRequestService(
	requests ports.RequestRepository,
	proposals ports.ProposalRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *RequestService {
	return &RequestService{
		requests:  requests,
		proposals: proposals,
		users:     users,
		notifier:  notifier,
		replay:    replayer{store: idem, log: log},
		log:       log,
	}
}

func (s *RequestService) Create(ctx context.Context, actor domain.Actor, in ports.CreateRequestInput) (*domain.ServiceRequest, bool, error) {
	if !actor.IsClient() {
		return nil, false, domain.ErrForbidden
	}
	if blank(in.Title) || blank(in.Description) || blank(in.Category) {
		return nil, false, invalidInput("title, description and category are required")
	}

	scope := "request:" + actor.UserID
	if id, ok := s.replay.lookup(ctx, scope, in.IdempotencyKey); ok {
		existing, err := s.requests.FindByID(ctx, id)
		if err == nil {
			return existing, true, nil
		}
		logger.Ctx(ctx, s.log).Warn().Err(err).Str("service_request_id", id).Msg("idempotent replay target missing, creating anew")
	}

	client, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, false, err
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	now := time.Now().UTC()
	req := &domain.ServiceRequest{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Location:    in.Location,
		Images:      images,
		ClientID:    client.ID,
		ClientName:  client.Name,
		Status:      domain.RequestOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	s.replay.remember(ctx, scope, in.IdempotencyKey, req.ID)

	metrics.RequestsCreatedTotal.WithLabelValues(req.Category).Inc()
	s.log.Info().Str("service_request_id", req.ID).Str("client_id", req.ClientID).Msg("service request created")
	return req, false, nil
}

// List scopes clients to their own requests; crafters and admins see every
// request.
func (s *RequestService) List(ctx context.Context, actor domain.Actor, in ports.ListRequestsInput) (*ports.Page[*domain.ServiceRequest], error) {
	f := ports.RequestFilter{Category: in.Category, Search: in.Search}
	if in.Status != "" {
		status := domain.RequestStatus(in.Status)
		if !status.Valid() {
			return nil, invalidInput(fmt.Sprintf("unknown request status %q", in.Status))
		}
		f.Status = status
	}
	if actor.IsClient() {
		f.ClientID = actor.UserID
	}

	p := in.Pagination.Normalize()
	items, total, err := s.requests.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(items, total, p), nil
}

// Get returns ErrRequestNotFound when a client asks for another client's
// request, so existence is not leaked.
func (s *RequestService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsClient() && req.ClientID != actor.UserID {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

// Cancel moves the request to cancelled and deletes every proposal made on
// it.
func (s *RequestService) Cancel(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actor.UserID && !actor.Can(domain.PermManageRequests) {
		return nil, domain.ErrForbidden
	}
	if err := s.transition(ctx, req, domain.RequestCancelled, ""); err != nil {
		return nil, err
	}

	deleted, err := s.proposals.DeleteByRequest(ctx, req.ID)
	if err != nil {
		logger.Ctx(ctx, s.log).Error().Err(err).Str("service_request_id", req.ID).Msg("failed to delete proposals of cancelled request")
	}
	s.log.Info().Str("service_request_id", req.ID).Int64("proposals_deleted", deleted).Msg("service request cancelled")
	return req, nil
}

func (s *RequestService) Start(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requestForAcceptedCrafter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, domain.RequestInProgress, ""); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    req.ClientID,
		Type:      domain.NotifyOrderStarted,
		Title:     "Work started",
		Message:   fmt.Sprintf("Work on %q has started.", req.Title),
		RelatedID: req.ID,
	})
	return req, nil
}

func (s *RequestService) Complete(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requestForAcceptedCrafter(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, req, domain.RequestCompleted, ""); err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, s.log, &domain.Notification{
		UserID:    req.ClientID,
		Type:      domain.NotifyOrderCompleted,
		Title:     "Work completed",
		Message:   fmt.Sprintf("Work on %q has been completed.", req.Title),
		RelatedID: req.ID,
	})
	return req, nil
}

func (s *RequestService) AddImage(ctx context.Context, actor domain.Actor, id, url string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ClientID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	if req.Status == domain.RequestCompleted || req.Status == domain.RequestCancelled {
		return nil, fmt.Errorf("add image: %w (request is %s)", domain.ErrInvalidTransition, req.Status)
	}
	if err := s.requests.AddImage(ctx, id, url); err != nil {
		return nil, err
	}
	req.Images = append(req.Images, url)
	return req, nil
}

// SetStatus is the back-office override. It skips the lifecycle rules.
func (s *RequestService) SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.RequestStatus) (*domain.ServiceRequest, error) {
	if err := requirePermission(actor, domain.PermManageRequests); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalidInput(fmt.Sprintf("unknown request status %q", status))
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.requests.UpdateStatus(ctx, id, ports.RequestStatusChange{To: status, At: now}); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("service_request_id", id).
		Str("from", string(req.Status)).
		Str("to", string(status)).
		Str("admin_id", actor.UserID).
		Msg("request status overridden")

	req.Status = status
	req.UpdatedAt = now
	if status == domain.RequestCompleted {
		req.CompletedAt = &now
	}
	return req, nil
}

func (s *RequestService) requestForAcceptedCrafter(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	if !actor.IsCrafter() {
		return nil, domain.ErrForbidden
	}
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AcceptedProposalID == "" {
		return nil, fmt.Errorf("%w: request has no accepted proposal", domain.ErrInvalidTransition)
	}
	accepted, err := s.proposals.FindByID(ctx, req.AcceptedProposalID)
	if err != nil {
		return nil, err
	}
	if accepted.CrafterID != actor.UserID {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

// transition applies a lifecycle move conditional on the status req was read
// with, and updates req in place on success.
func (s *RequestService) transition(ctx context.Context, req *domain.ServiceRequest, to domain.RequestStatus, acceptedID string) error {
	if !req.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, req.Status, to)
	}
	now := time.Now().UTC()
	change := ports.RequestStatusChange{
		From:               []domain.RequestStatus{req.Status},
		To:                 to,
		AcceptedProposalID: acceptedID,
		At:                 now,
	}
	if err := s.requests.UpdateStatus(ctx, req.ID, change); err != nil {
		return err
	}

	s.log.Info().
		Str("service_request_id", req.ID).
		Str("from", string(req.Status)).
		Str("to", string(to)).
		Msg("request status changed")

	req.Status = to
	req.UpdatedAt = now
	if acceptedID != "" {
		req.AcceptedProposalID = acceptedID
	}
	if to == domain.RequestCompleted {
		req.CompletedAt = &now
	}
	return nil
}
