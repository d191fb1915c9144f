package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/pkg/logger"
)

const minPasswordLength = 6

// AuthService implements registration, login and profile management.
type AuthService struct {
	users     ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLength || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if in.Type != domain.UserTypeClient && in.Type != domain.UserTypeCrafter {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Location:     in.Location,
		Type:         in.Type,
		Status:       domain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch in.Type {
	case domain.UserTypeClient:
		user.Client = &domain.ClientProfile{
			Notifications: domain.NotificationPreferences{Email: true, SMS: true, Push: true},
			SavedCrafters: []string{},
		}
	case domain.UserTypeCrafter:
		area := []string{}
		if in.Location != "" {
			area = append(area, in.Location)
		}
		user.Crafter = &domain.CrafterProfile{
			Specialty:      in.Specialty,
			Experience:     in.Experience,
			MembershipType: domain.MembershipFree,
			ServiceArea:    area,
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("user_type", string(user.Type)).Msg("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return "", nil, domain.ErrAccountInactive
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.Ctx(ctx, s.log).Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ports.ProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Location != nil {
		user.Location = *in.Location
	}
	if user.Crafter != nil {
		if in.Specialty != nil {
			user.Crafter.Specialty = *in.Specialty
		}
		if in.Experience != nil {
			user.Crafter.Experience = *in.Experience
		}
		if in.ServiceArea != nil {
			user.Crafter.ServiceArea = in.ServiceArea
		}
		if in.PriceRange != nil {
			user.Crafter.PriceRange = in.PriceRange
		}
	}
	if user.Client != nil && in.Notifications != nil {
		user.Client.Notifications = *in.Notifications
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *AuthService) SetAvatar(ctx context.Context, userID, url string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Avatar = url
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return user, nil
}

// RegisterAdmin creates a back-office account. Only super admins may do so.
func (s *AuthService) RegisterAdmin(ctx context.Context, actor domain.Actor, in ports.AdminInput) (*domain.User, error) {
	if !actor.IsAdmin() || actor.AdminRole != domain.AdminRoleSuperAdmin {
		return nil, domain.ErrForbidden
	}
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLength || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown admin role %q", domain.ErrInvalidInput, in.Role)
	}
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Phone:        in.Phone,
		Type:         domain.UserTypeAdmin,
		Status:       domain.UserStatusActive,
		Verified:     true,
		Admin: &domain.AdminProfile{
			Role:        in.Role,
			Permissions: in.Role.Permissions(),
			Department:  in.Department,
			EmployeeID:  in.EmployeeID,
			CreatedBy:   actor.UserID,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("admin_role", string(in.Role)).
		Str("created_by", actor.UserID).
		Msg("admin registered")
	return user, nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.ErrUserExists
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Type),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	if user.Admin != nil {
		claims["admin_role"] = string(user.Admin.Role)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
