package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Collection names.
const (
	collUsers            = "users"
	collRequests         = "requests"
	collProposals        = "proposals"
	collOrders           = "orders"
	collNotifications    = "notifications"
	collPlans            = "membership_plans"
	collSubscriptions    = "subscriptions"
	collTransactions     = "transactions"
	collFinances         = "company_finances"
	collSettings         = "settings"
	collFeaturedRequests = "featured_requests"
	collFeaturedCrafters = "featured_crafters"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// newID returns a fresh document id. Documents keep string ids so the domain
// types can be stored without a mapping layer.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// pageOptions turns a normalised window into find options sorted by sort.
func pageOptions(p ports.Pagination, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSort(sort).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))
}

// newestFirst sorts by created_at descending with _id as a tie breaker.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// findPage runs a paginated find plus the matching count.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, p ports.Pagination, sort bson.D) ([]*T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}
	items, err := findAll[T](ctx, coll, filter, pageOptions(p, sort))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	items := []*T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return items, nil
}

// EnsureIndexes creates the indexes every repository relies on, including the
// unique ones that back ErrUserExists, ErrDuplicateProposal and
// ErrActiveSubscription.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for name, models := range indexModels() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

func indexModels() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)
	oneActiveSubscription := options.Index().
		SetName("user_id_active_unique").
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"status": domain.SubscriptionActive})
	return map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_type", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "crafter.specialty", Value: 1}}},
		},
		collRequests: {
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		collProposals: {
			{Keys: bson.D{{Key: "request_id", Value: 1}, {Key: "crafter_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "crafter_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collOrders: {
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "crafter_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		collNotifications: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collSubscriptions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: oneActiveSubscription},
		},
		collTransactions: {
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		collFeaturedRequests: {
			{Keys: bson.D{{Key: "crafter_id", Value: 1}, {Key: "requested_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
	}
}
