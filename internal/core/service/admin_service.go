package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/pkg/logger"
)

// AdminService implements ports.AdminService.
type AdminService struct {
	users    ports.UserRepository
	requests ports.RequestRepository
	orders   ports.OrderRepository
	finances ports.FinanceRepository
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewAdminService(
	users ports.UserRepository,
	requests ports.RequestRepository,
	orders ports.OrderRepository,
	finances ports.FinanceRepository,
	notifier ports.Notifier,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		requests: requests,
		orders:   orders,
		finances: finances,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Stats runs every dashboard count concurrently and fails if any of them
// fails.
func (s *AdminService) Stats(ctx context.Context, actor domain.Actor) (*ports.Stats, error) {
	if err := requirePermission(actor, domain.PermViewAnalytics); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		st                ports.Stats
		completed, rated  int64
		current, previous *domain.CompanyFinances
		total             *domain.CompanyFinances
	)
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}

	count(&st.TotalUsers, func(ctx context.Context) (int64, error) {
		return s.users.Count(ctx, ports.UserFilter{})
	})
	count(&st.Clients, func(ctx context.Context) (int64, error) {
		return s.users.Count(ctx, ports.UserFilter{Type: domain.UserTypeClient})
	})
	count(&st.Crafters, func(ctx context.Context) (int64, error) {
		return s.users.Count(ctx, ports.UserFilter{Type: domain.UserTypeCrafter})
	})
	count(&st.Requests, func(ctx context.Context) (int64, error) {
		return s.requests.Count(ctx, ports.RequestFilter{})
	})
	count(&st.ActiveOrders, func(ctx context.Context) (int64, error) {
		return s.orders.Count(ctx, ports.OrderFilter{Status: domain.OrderInProgress})
	})
	count(&completed, func(ctx context.Context) (int64, error) {
		return s.orders.Count(ctx, ports.OrderFilter{Status: domain.OrderCompleted})
	})
	count(&rated, func(ctx context.Context) (int64, error) {
		return s.orders.Count(ctx, ports.OrderFilter{Status: domain.OrderRated})
	})
	g.Go(func() (err error) {
		total, err = s.finances.Total(gctx)
		return err
	})
	g.Go(func() (err error) {
		current, err = s.finances.Get(gctx, domain.PeriodOf(now))
		return err
	})
	g.Go(func() (err error) {
		previous, err = s.finances.Get(gctx, domain.PreviousPeriod(now))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}

	st.CompletedOrders = completed + rated
	st.TotalRevenue = total.TotalRevenue
	st.MonthlyGrowth = domain.GrowthPercent(current.TotalRevenue, previous.TotalRevenue)
	return &st, nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor domain.Actor, f ports.UserFilter, p ports.Pagination) (*ports.Page[*domain.User], error) {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalidInput(fmt.Sprintf("unknown user status %q", f.Status))
	}
	p = p.Normalize()
	items, total, err := s.users.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return ports.NewPage(items, total, p), nil
}

func (s *AdminService) UpdateUser(ctx context.Context, actor domain.Actor, id string, patch ports.UserPatch) (*domain.User, error) {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return nil, err
	}
	if id == actor.UserID {
		return nil, fmt.Errorf("%w: admins cannot change their own account status", domain.ErrForbidden)
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardAdminTarget(actor, target); err != nil {
		return nil, err
	}

	status := target.Status
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, invalidInput(fmt.Sprintf("unknown user status %q", *patch.Status))
		}
		status = *patch.Status
	}
	if err := s.users.SetStatus(ctx, id, status, patch.Verified); err != nil {
		return nil, err
	}

	target.Status = status
	if patch.Verified != nil {
		target.Verified = *patch.Verified
	}
	target.UpdatedAt = s.now()
	s.log.Info().
		Str("user_id", id).
		Str("status", string(status)).
		Str("admin_id", actor.UserID).
		Msg("user updated by admin")
	return target, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor domain.Actor, id string) error {
	if err := requirePermission(actor, domain.PermManageUsers); err != nil {
		return err
	}
	if id == actor.UserID {
		return fmt.Errorf("%w: admins cannot delete their own account", domain.ErrForbidden)
	}
	target, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guardAdminTarget(actor, target); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("user_id", id).Str("admin_id", actor.UserID).Msg("user deleted by admin")
	return nil
}

// Broadcast sends an admin_message to one user, or to every active user of
// the audience type (every active user when the audience is empty). It
// returns the number of notifications queued.
func (s *AdminService) Broadcast(ctx context.Context, actor domain.Actor, in ports.BroadcastInput) (int, error) {
	if err := requirePermission(actor, domain.PermSendNotifications); err != nil {
		return 0, err
	}
	title, message := strings.TrimSpace(in.Title), strings.TrimSpace(in.Message)
	if title == "" || message == "" {
		return 0, invalidInput("title and message are required")
	}

	var targets []string
	if in.UserID != "" {
		u, err := s.users.FindByID(ctx, in.UserID)
		if err != nil {
			return 0, err
		}
		targets = []string{u.ID}
	} else {
		ids, err := s.users.ListIDs(ctx, ports.UserFilter{Type: in.Audience, Status: domain.UserStatusActive})
		if err != nil {
			return 0, err
		}
		targets = ids
	}

	sent := 0
	for _, userID := range targets {
		err := s.notifier.Notify(ctx, &domain.Notification{
			UserID:  userID,
			Type:    domain.NotifyAdminMessage,
			Title:   title,
			Message: message,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return sent, err
			}
			logger.Ctx(ctx, s.log).Warn().Err(err).Str("user_id", userID).Msg("failed to queue broadcast notification")
			continue
		}
		sent++
	}

	s.log.Info().
		Int("recipients", sent).
		Str("audience", string(in.Audience)).
		Str("admin_id", actor.UserID).
		Msg("admin broadcast sent")
	return sent, nil
}

// guardAdminTarget keeps non-super admins from editing other admin accounts.
func (s *AdminService) guardAdminTarget(actor domain.Actor, target *domain.User) error {
	if target.Type == domain.UserTypeAdmin && actor.AdminRole != domain.AdminRoleSuperAdmin {
		return domain.ErrForbidden
	}
	return nil
}
