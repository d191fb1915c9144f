package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// FeaturedRepository implements ports.FeaturedRepository using MongoDB. The
// featured list uses the crafter id as _id, which keeps it free of
// duplicates.
type FeaturedRepository struct {
	requests *mongo.Collection
	crafters *mongo.Collection
}

func NewFeaturedRepository(db *mongo.Database) *FeaturedRepository {
	return &FeaturedRepository{
		requests: db.Collection(collFeaturedRequests),
		crafters: db.Collection(collFeaturedCrafters),
	}
}

func (r *FeaturedRepository) CreateRequest(ctx context.Context, fr *domain.FeaturedRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if fr.ID == "" {
		fr.ID = newID()
	}
	if _, err := r.requests.InsertOne(ctx, fr); err != nil {
		return fmt.Errorf("insert featured request: %w", err)
	}
	return nil
}

func (r *FeaturedRepository) FindRequest(ctx context.Context, id string) (*domain.FeaturedRequest, error) {
	return r.findRequest(ctx, bson.M{"_id": id}, options.FindOne())
}

func (r *FeaturedRepository) LatestRequestByCrafter(ctx context.Context, crafterID string) (*domain.FeaturedRequest, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "requested_at", Value: -1}})
	return r.findRequest(ctx, bson.M{"crafter_id": crafterID}, opts)
}

func (r *FeaturedRepository) findRequest(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.FeaturedRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var fr domain.FeaturedRequest
	if err := r.requests.FindOne(ctx, filter, opts).Decode(&fr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFeaturedRequestNotFound
		}
		return nil, fmt.Errorf("find featured request: %w", err)
	}
	return &fr, nil
}

// ListRequests returns pending requests first, then newest first.
func (r *FeaturedRepository) ListRequests(ctx context.Context, status domain.FeaturedRequestStatus) ([]*domain.FeaturedRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{}
	if status != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"status": status}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$addFields", Value: bson.M{
			"pending_rank": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", domain.FeaturedPending}}, 0, 1}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "pending_rank", Value: 1}, {Key: "requested_at", Value: -1}}}},
		bson.D{{Key: "$project", Value: bson.M{"pending_rank": 0}}},
	)

	cur, err := r.requests.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list featured requests: %w", err)
	}
	out := []*domain.FeaturedRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode featured requests: %w", err)
	}
	return out, nil
}

func (r *FeaturedRepository) ReviewRequest(ctx context.Context, id string, status domain.FeaturedRequestStatus, adminNotes, reviewer string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id, "status": domain.FeaturedPending},
		bson.M{"$set": bson.M{
			"status":      status,
			"admin_notes": adminNotes,
			"reviewed_by": reviewer,
			"reviewed_at": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("review featured request: %w", err)
	}
	if res.MatchedCount == 0 {
		return missingOrConflict(ctx, r.requests, id, domain.ErrFeaturedRequestNotFound)
	}
	return nil
}

func (r *FeaturedRepository) AddCrafter(ctx context.Context, fc *domain.FeaturedCrafter) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.crafters.InsertOne(ctx, fc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyFeatured
		}
		return fmt.Errorf("insert featured crafter: %w", err)
	}
	return nil
}

func (r *FeaturedRepository) RemoveCrafter(ctx context.Context, crafterID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.crafters.DeleteOne(ctx, bson.M{"_id": crafterID})
	if err != nil {
		return fmt.Errorf("remove featured crafter: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFeatured
	}
	return nil
}

// ListCrafters returns the featured list in the order crafters were added.
func (r *FeaturedRepository) ListCrafters(ctx context.Context) ([]*domain.FeaturedCrafter, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}})
	return findAll[domain.FeaturedCrafter](ctx, r.crafters, bson.M{}, opts)
}
