package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// OrderRepository implements ports.OrderRepository using MongoDB.
type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(collOrders)}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if o.ID == "" {
		o.ID = newID()
	}
	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, f ports.OrderFilter, p ports.Pagination) ([]*domain.Order, int64, error) {
	return findPage[domain.Order](ctx, r.coll, orderFilter(f), p, newestFirst)
}

func (r *OrderRepository) Count(ctx context.Context, f ports.OrderFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, orderFilter(f))
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, change ports.OrderStatusChange) error {
	filter := bson.M{"_id": id}
	if len(change.From) > 0 {
		filter["status"] = bson.M{"$in": change.From}
	}

	set := bson.M{"status": change.To, "updated_at": change.At}
	switch change.To {
	case domain.OrderAccepted:
		set["accepted_at"] = change.At
	case domain.OrderInProgress:
		set["started_at"] = change.At
	case domain.OrderCompleted:
		set["completed_at"] = change.At
	case domain.OrderCancelled:
		set["cancelled_at"] = change.At
	case domain.OrderRated:
		set["rated_at"] = change.At
	}
	if change.CrafterID != "" {
		set["crafter_id"] = change.CrafterID
		set["crafter_name"] = change.CrafterName
		set["crafter_phone"] = change.CrafterPhone
	}
	if change.CancelReason != "" {
		set["cancel_reason"] = change.CancelReason
	}
	if change.Rating != 0 {
		set["rating"] = change.Rating
		set["review"] = change.Review
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": set}
	if change.ClearRating {
		update["$unset"] = bson.M{"rating": "", "review": "", "rated_at": ""}
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return missingOrConflict(ctx, r.coll, id, domain.ErrOrderNotFound)
	}
	return nil
}

func orderFilter(f ports.OrderFilter) bson.M {
	filter := bson.M{}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.CrafterID != "" {
		if f.IncludeOpen {
			filter["$or"] = bson.A{
				bson.M{"crafter_id": f.CrafterID},
				bson.M{"crafter_id": bson.M{"$exists": false}, "status": domain.OrderPending},
			}
		} else {
			filter["crafter_id"] = f.CrafterID
		}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	return filter
}

// NotificationRepository implements ports.NotificationRepository using MongoDB.
type NotificationRepository struct {
	coll *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{coll: db.Collection(collNotifications)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if n.ID == "" {
		n.ID = newID()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	return findAll[domain.Notification](ctx, r.coll, filter, opts)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "user_id": userID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx, bson.M{"user_id": userID, "read": false}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
