package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// SettingsService implements ports.SettingsService.
type SettingsService struct {
	repo ports.SettingsRepository
	log  zerolog.Logger
}

func NewSettingsService(repo ports.SettingsRepository, log zerolog.Logger) *SettingsService {
	return &SettingsService{repo: repo, log: log}
}

// RevenueRules returns the stored rules, writing the defaults on first read.
func (s *SettingsService) RevenueRules(ctx context.Context) (*domain.RevenueRules, error) {
	rules, err := s.repo.RevenueRules(ctx)
	if err == nil {
		return rules, nil
	}
	if !errors.Is(err, domain.ErrSettingsNotFound) {
		return nil, err
	}

	defaults := domain.DefaultRevenueRules(time.Now().UTC())
	if err := s.repo.SaveRevenueRules(ctx, defaults); err != nil {
		return nil, err
	}
	s.log.Info().Msg("default revenue rules initialised")
	return &defaults, nil
}

func (s *SettingsService) UpdateRevenueRules(ctx context.Context, actor domain.Actor, in ports.RevenueRulesInput) (*domain.RevenueRules, error) {
	if err := requirePermission(actor, domain.PermManageSystemSettings); err != nil {
		return nil, err
	}
	current, err := s.RevenueRules(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	if in.DefaultCurrency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*in.DefaultCurrency))
		if currency == "" {
			return nil, invalidInput("default currency must not be empty")
		}
		next.DefaultCurrency = currency
	}
	if in.TaxPercent != nil {
		if !validPercent(*in.TaxPercent) {
			return nil, invalidInput("tax percent must be between 0 and 100")
		}
		next.TaxPercent = *in.TaxPercent
	}
	if in.PlatformCommissionPercent != nil {
		if !validPercent(*in.PlatformCommissionPercent) {
			return nil, invalidInput("platform commission percent must be between 0 and 100")
		}
		next.PlatformCommissionPercent = *in.PlatformCommissionPercent
	}
	next.LastUpdated = time.Now().UTC()

	if err := s.repo.SaveRevenueRules(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("admin_id", actor.UserID).
		Float64("commission_percent", next.PlatformCommissionPercent).
		Float64("tax_percent", next.TaxPercent).
		Msg("revenue rules updated")
	return &next, nil
}

func validPercent(v float64) bool {
	return v >= 0 && v <= 100
}
