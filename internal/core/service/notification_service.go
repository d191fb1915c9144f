package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/pkg/metrics"
	"github.com/herfa/marketplace-api/pkg/logger"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100

	// RealtimeNotification is the event type pushed for a new notification.
	RealtimeNotification = "notification"
)

// NotificationService implements ports.NotificationService.
type NotificationService struct {
	repo      ports.NotificationRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
}

func NewNotificationService(repo ports.NotificationRepository, publisher ports.EventPublisher, log zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, log: log}
}

// Deliver persists n, then publishes it to the recipient's live streams. A
// publish failure is not returned: the notification is already readable
// through the list endpoint.
func (s *NotificationService) Deliver(ctx context.Context, n *domain.Notification) error {
	start := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = start.UTC()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		metrics.NotificationErrorsTotal.WithLabelValues("persist_failed").Inc()
		return err
	}

	if s.publisher != nil {
		ev := ports.RealtimeEvent{Type: RealtimeNotification, Data: n}
		if err := s.publisher.Publish(ctx, n.UserID, ev); err != nil {
			metrics.NotificationErrorsTotal.WithLabelValues("publish_failed").Inc()
			logger.Ctx(ctx, s.log).Warn().Err(err).Str("notification_id", n.ID).Str("user_id", n.UserID).Msg("failed to publish notification")
		}
	}

	metrics.NotificationsDeliveredTotal.WithLabelValues(string(n.Type)).Inc()
	metrics.NotificationDeliveryDuration.WithLabelValues(string(n.Type)).Observe(time.Since(start).Seconds())
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
