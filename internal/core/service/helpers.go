package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/pkg/metrics"
	"github.com/herfa/marketplace-api/pkg/logger"
)

func requirePermission(actor domain.Actor, p domain.Permission) error {
	if !actor.Can(p) {
		return domain.ErrForbidden
	}
	return nil
}

func invalidInput(msg string) error {
	return &inputError{msg: msg}
}

// inputError carries a user-facing validation message and matches
// domain.ErrInvalidInput.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == domain.ErrInvalidInput }

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// replayer wraps the optional idempotency store. Lookup failures are logged
// and treated as a miss so an unavailable Redis never blocks writes.
type replayer struct {
	store ports.IdempotencyStore
	log   zerolog.Logger
}

func (r replayer) lookup(ctx context.Context, scope, key string) (string, bool) {
	if r.store == nil || key == "" {
		return "", false
	}
	id, ok, err := r.store.Lookup(ctx, scope, key)
	if err != nil {
		logger.Ctx(ctx, r.log).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed, processing anyway")
		return "", false
	}
	if ok {
		metrics.IdempotencyTotal.WithLabelValues("hit").Inc()
		return id, true
	}
	metrics.IdempotencyTotal.WithLabelValues("miss").Inc()
	return "", false
}

func (r replayer) remember(ctx context.Context, scope, key, id string) {
	if r.store == nil || key == "" {
		return
	}
	if err := r.store.Remember(ctx, scope, key, id); err != nil {
		logger.Ctx(ctx, r.log).Warn().Err(err).Str("scope", scope).Msg("failed to store idempotency key")
	}
}

// notify queues n and logs, rather than returns, any failure: a missed
// notification never rolls back the state change that triggered it.
func notify(ctx context.Context, notifier ports.Notifier, log zerolog.Logger, n *domain.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Ctx(ctx, log).Warn().Err(err).
			Str("user_id", n.UserID).
			Str("type", string(n.Type)).
			Msg("failed to queue notification")
	}
}
