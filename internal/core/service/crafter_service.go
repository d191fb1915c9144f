package service

import (
	"context"
	"strings"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

const defaultCrafterLimit = 50

// CrafterService implements the public crafter directory.
type CrafterService struct {
	users ports.UserRepository
}

func NewCrafterService(users ports.UserRepository) *CrafterService {
	return &CrafterService{users: users}
}

func (s *CrafterService) Search(ctx context.Context, f ports.CrafterFilter) ([]*domain.User, error) {
	f.Specialty = strings.TrimSpace(f.Specialty)
	f.Location = strings.TrimSpace(f.Location)
	if f.Limit <= 0 {
		f.Limit = defaultCrafterLimit
	}
	if f.Limit > ports.MaxPageLimit {
		f.Limit = ports.MaxPageLimit
	}
	return s.users.SearchCrafters(ctx, f)
}

// Profile returns ErrUserNotFound for accounts that are not active crafters.
func (s *CrafterService) Profile(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Type != domain.UserTypeCrafter || !u.IsActive() {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}
