package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// FeaturedService implements ports.FeaturedService.
type FeaturedService struct {
	repo  ports.FeaturedRepository
	users ports.UserRepository
	log   zerolog.Logger
}

func NewFeaturedService(repo ports.FeaturedRepository, users ports.UserRepository, log zerolog.Logger) *FeaturedService {
	return &FeaturedService{repo: repo, users: users, log: log}
}

// Request files a featured application. Only premium crafters may apply and
// only one application may be pending at a time.
func (s *FeaturedService) Request(ctx context.Context, actor domain.Actor, notes string) (*domain.FeaturedRequest, error) {
	if !actor.IsCrafter() {
		return nil, domain.ErrForbidden
	}
	crafter, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !crafter.IsPremium(now) {
		return nil, domain.ErrPremiumRequired
	}

	latest, err := s.repo.LatestRequestByCrafter(ctx, crafter.ID)
	switch {
	case err == nil && latest.Status == domain.FeaturedPending:
		return nil, domain.ErrFeaturedRequestPending
	case err != nil && !errors.Is(err, domain.ErrFeaturedRequestNotFound):
		return nil, err
	}

	r := &domain.FeaturedRequest{
		CrafterID:   crafter.ID,
		CrafterName: crafter.Name,
		Status:      domain.FeaturedPending,
		Notes:       notes,
		RequestedAt: now,
	}
	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info().Str("featured_request_id", r.ID).Str("crafter_id", r.CrafterID).Msg("featured request submitted")
	return r, nil
}

func (s *FeaturedService) Mine(ctx context.Context, actor domain.Actor) (*domain.FeaturedRequest, error) {
	if !actor.IsCrafter() {
		return nil, domain.ErrForbidden
	}
	return s.repo.LatestRequestByCrafter(ctx, actor.UserID)
}

func (s *FeaturedService) ListRequests(ctx context.Context, actor domain.Actor, status domain.FeaturedRequestStatus) ([]*domain.FeaturedRequest, error) {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return nil, err
	}
	return s.repo.ListRequests(ctx, status)
}

// Review approves or rejects a pending request. Approval adds the crafter to
// the featured list unless already present.
func (s *FeaturedService) Review(ctx context.Context, actor domain.Actor, id string, approve bool, adminNotes string) (*domain.FeaturedRequest, error) {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return nil, err
	}
	r, err := s.repo.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.FeaturedPending {
		return nil, domain.ErrInvalidTransition
	}

	status := domain.FeaturedRejected
	if approve {
		status = domain.FeaturedApproved
	}
	now := time.Now().UTC()
	if err := s.repo.ReviewRequest(ctx, id, status, adminNotes, actor.UserID, now); err != nil {
		return nil, err
	}
	r.Status = status
	r.AdminNotes = adminNotes
	r.ReviewedBy = actor.UserID
	r.ReviewedAt = &now

	if approve {
		fc := &domain.FeaturedCrafter{CrafterID: r.CrafterID, AddedBy: actor.UserID, AddedAt: now, Notes: r.Notes}
		if err := s.repo.AddCrafter(ctx, fc); err != nil && !errors.Is(err, domain.ErrAlreadyFeatured) {
			return nil, err
		}
	}

	s.log.Info().
		Str("featured_request_id", id).
		Str("status", string(status)).
		Str("admin_id", actor.UserID).
		Msg("featured request reviewed")
	return r, nil
}

// BestCrafters joins the featured list with the crafters' profiles, keeping
// list order and skipping accounts that are gone or inactive.
func (s *FeaturedService) BestCrafters(ctx context.Context) ([]ports.FeaturedCrafterView, error) {
	entries, err := s.repo.ListCrafters(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []ports.FeaturedCrafterView{}, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.CrafterID
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]ports.FeaturedCrafterView, 0, len(entries))
	for _, e := range entries {
		u, ok := byID[e.CrafterID]
		if !ok || !u.IsActive() {
			continue
		}
		views = append(views, ports.FeaturedCrafterView{Crafter: u, AddedBy: e.AddedBy, AddedAt: e.AddedAt, Notes: e.Notes})
	}
	return views, nil
}

func (s *FeaturedService) Add(ctx context.Context, actor domain.Actor, crafterID, notes string) (*domain.FeaturedCrafter, error) {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, crafterID)
	if err != nil {
		return nil, err
	}
	if u.Type != domain.UserTypeCrafter {
		return nil, domain.ErrUserNotFound
	}

	fc := &domain.FeaturedCrafter{CrafterID: u.ID, AddedBy: actor.UserID, AddedAt: time.Now().UTC(), Notes: notes}
	if err := s.repo.AddCrafter(ctx, fc); err != nil {
		return nil, err
	}
	s.log.Info().Str("crafter_id", u.ID).Str("admin_id", actor.UserID).Msg("crafter featured")
	return fc, nil
}

func (s *FeaturedService) Remove(ctx context.Context, actor domain.Actor, crafterID string) error {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return err
	}
	if err := s.repo.RemoveCrafter(ctx, crafterID); err != nil {
		return err
	}
	s.log.Info().Str("crafter_id", crafterID).Str("admin_id", actor.UserID).Msg("crafter removed from featured list")
	return nil
}
