package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// UserRepository implements ports.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(collUsers)}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if u.ID == "" {
		u.ID = newID()
	}
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return findAll[domain.User](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
}

// Update writes the profile fields only, leaving counters such as rating and
// membership to their dedicated operations.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	set := bson.M{
		"name":       u.Name,
		"phone":      u.Phone,
		"location":   u.Location,
		"avatar":     u.Avatar,
		"updated_at": u.UpdatedAt,
	}
	if u.Crafter != nil {
		set["crafter.specialty"] = u.Crafter.Specialty
		set["crafter.experience"] = u.Crafter.Experience
		set["crafter.service_area"] = u.Crafter.ServiceArea
		set["crafter.price_range"] = u.Crafter.PriceRange
	}
	if u.Client != nil {
		set["client.notifications"] = u.Client.Notifications
	}
	return r.update(ctx, u.ID, bson.M{"$set": set})
}

func (r *UserRepository) SetStatus(ctx context.Context, id string, status domain.UserStatus, verified *bool) error {
	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if verified != nil {
		set["verified"] = *verified
	}
	return r.update(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, bson.M{"$set": bson.M{"last_login": at}})
}

// ApplyRating recomputes the running mean on the server so concurrent ratings
// never read a stale count.
func (r *UserRepository) ApplyRating(ctx context.Context, crafterID string, score int) error {
	count := bson.D{{Key: "$ifNull", Value: bson.A{"$crafter.completed_orders", 0}}}
	rating := bson.D{{Key: "$ifNull", Value: bson.A{"$crafter.rating", 0}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "crafter.rating", Value: bson.D{{Key: "$divide", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{
					bson.D{{Key: "$multiply", Value: bson.A{rating, count}}},
					score,
				}}},
				bson.D{{Key: "$add", Value: bson.A{count, 1}}},
			}}}},
			{Key: "crafter.completed_orders", Value: bson.D{{Key: "$add", Value: bson.A{count, 1}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": crafterID, "user_type": domain.UserTypeCrafter}, pipeline)
	if err != nil {
		return fmt.Errorf("apply rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetMembership(ctx context.Context, crafterID string, tier domain.MembershipType, expiresAt *time.Time) error {
	update := bson.M{
		"$set": bson.M{"crafter.membership_type": tier, "updated_at": time.Now().UTC()},
	}
	if expiresAt != nil {
		update["$set"].(bson.M)["crafter.membership_expires_at"] = *expiresAt
	} else {
		update["$unset"] = bson.M{"crafter.membership_expires_at": ""}
	}
	return r.update(ctx, crafterID, update)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, f ports.UserFilter, p ports.Pagination) ([]*domain.User, int64, error) {
	return findPage[domain.User](ctx, r.coll, userFilter(f), p, newestFirst)
}

func (r *UserRepository) Count(ctx context.Context, f ports.UserFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, userFilter(f))
}

// SearchCrafters returns active crafters, premium members first and then by
// rating.
func (r *UserRepository) SearchCrafters(ctx context.Context, f ports.CrafterFilter) ([]*domain.User, error) {
	filter := bson.M{"user_type": domain.UserTypeCrafter, "status": domain.UserStatusActive}
	if f.Specialty != "" {
		filter["crafter.specialty"] = f.Specialty
	}
	if f.Location != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Location), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"location": pattern},
			bson.M{"crafter.service_area": pattern},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{
			{Key: "crafter.membership_type", Value: -1},
			{Key: "crafter.rating", Value: -1},
			{Key: "_id", Value: 1},
		}).
		SetLimit(int64(f.Limit))
	return findAll[domain.User](ctx, r.coll, filter, opts)
}

func (r *UserRepository) ListIDs(ctx context.Context, f ports.UserFilter) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, userFilter(f), options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode user ids: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (r *UserRepository) update(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func userFilter(f ports.UserFilter) bson.M {
	filter := bson.M{}
	if f.Type != "" {
		filter["user_type"] = f.Type
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"name": pattern}, bson.M{"email": pattern}}
	}
	return filter
}
