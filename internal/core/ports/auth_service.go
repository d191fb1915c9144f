package ports

import (
	"context"
	"io"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// RegisterInput carries a self-service sign-up. Type is client or crafter.
type RegisterInput struct {
	Email      string
	Password   string
	Name       string
	Phone      string
	Location   string
	Type       domain.UserType
	Specialty  string
	Experience string
}

// ProfileInput is a partial profile update; nil fields are left unchanged.
type ProfileInput struct {
	Name          *string
	Phone         *string
	Location      *string
	Specialty     *string
	Experience    *string
	ServiceArea   []string
	PriceRange    *domain.PriceRange
	Notifications *domain.NotificationPreferences
}

// AdminInput carries a back-office account registration.
type AdminInput struct {
	Email      string
	Password   string
	Name       string
	Phone      string
	Role       domain.AdminRole
	Department string
	EmployeeID string
}

// AuthService handles accounts, credentials and profiles.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error)
	SetAvatar(ctx context.Context, userID, url string) (*domain.User, error)
	RegisterAdmin(ctx context.Context, actor domain.Actor, in AdminInput) (*domain.User, error)
}

// MediaService validates and stores uploaded images.
type MediaService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*StoredFile, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *StoredFile, error)
}
