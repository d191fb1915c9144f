package ports

import (
	"context"
	"io"
	"time"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// StoredFile describes an uploaded blob.
type StoredFile struct {
	ID          string
	Filename    string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

// FileStore persists uploaded images.
type FileStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (*StoredFile, error)
	// Open returns domain.ErrFileNotFound for unknown IDs. The caller closes
	// the reader.
	Open(ctx context.Context, id string) (io.ReadCloser, *StoredFile, error)
}

// IdempotencyStore remembers the resource created for a client-supplied key.
type IdempotencyStore interface {
	Lookup(ctx context.Context, scope, key string) (string, bool, error)
	Remember(ctx context.Context, scope, key, resourceID string) error
}

// RealtimeEvent is a message pushed to a connected user.
type RealtimeEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// EventPublisher fans realtime events out to every API instance.
type EventPublisher interface {
	Publish(ctx context.Context, userID string, ev RealtimeEvent) error
}

// Notifier queues a notification for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
}
