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

// RequestRepository implements ports.RequestRepository using MongoDB.
type RequestRepository struct {
	coll *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{coll: db.Collection(collRequests)}
}

// Create inserts a new service request document.
func (r *RequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if req.ID == "" {
		req.ID = newID()
	}
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.ServiceRequest
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return &req, nil
}

func (r *RequestRepository) List(ctx context.Context, f ports.RequestFilter, p ports.Pagination) ([]*domain.ServiceRequest, int64, error) {
	return findPage[domain.ServiceRequest](ctx, r.coll, requestFilter(f), p, newestFirst)
}

func (r *RequestRepository) Count(ctx context.Context, f ports.RequestFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.coll.CountDocuments(ctx, requestFilter(f))
}

// UpdateStatus applies the change only while the stored status is one of
// change.From, so two racing writers cannot both win.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, change ports.RequestStatusChange) error {
	filter := bson.M{"_id": id}
	if len(change.From) > 0 {
		filter["status"] = bson.M{"$in": change.From}
	}

	set := bson.M{"status": change.To, "updated_at": change.At}
	if change.AcceptedProposalID != "" {
		set["accepted_proposal_id"] = change.AcceptedProposalID
	}
	if change.To == domain.RequestCompleted {
		set["completed_at"] = change.At
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	if res.MatchedCount == 0 {
		return missingOrConflict(ctx, r.coll, id, domain.ErrRequestNotFound)
	}
	return nil
}

func (r *RequestRepository) AddImage(ctx context.Context, id, url string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("add request image: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

func requestFilter(f ports.RequestFilter) bson.M {
	filter := bson.M{}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	return filter
}

// missingOrConflict tells a failed conditional write on a missing document
// apart from one that lost a race.
func missingOrConflict(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check %s: %w", coll.Name(), err)
	}
	if n == 0 {
		return notFound
	}
	return domain.ErrConflict
}

// ProposalRepository implements ports.ProposalRepository using MongoDB.
type ProposalRepository struct {
	coll *mongo.Collection
}

func NewProposalRepository(db *mongo.Database) *ProposalRepository {
	return &ProposalRepository{coll: db.Collection(collProposals)}
}

// Create relies on the unique (request_id, crafter_id) index to reject a
// second bid from the same crafter.
func (r *ProposalRepository) Create(ctx context.Context, p *domain.Proposal) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if p.ID == "" {
		p.ID = newID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateProposal
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*domain.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Proposal
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	return &p, nil
}

func (r *ProposalRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return findAll[domain.Proposal](ctx, r.coll, bson.M{"request_id": requestID}, options.Find().SetSort(newestFirst))
}

func (r *ProposalRepository) ListByCrafter(ctx context.Context, crafterID string, p ports.Pagination) ([]*domain.Proposal, int64, error) {
	return findPage[domain.Proposal](ctx, r.coll, bson.M{"crafter_id": crafterID}, p, newestFirst)
}

func (r *ProposalRepository) UpdateTerms(ctx context.Context, id string, price float64, duration, notes string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": domain.ProposalPending},
		bson.M{"$set": bson.M{
			"price":      price,
			"duration":   duration,
			"notes":      notes,
			"updated_at": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	if res.MatchedCount == 0 {
		return missingOrConflict(ctx, r.coll, id, domain.ErrProposalNotFound)
	}
	return nil
}

func (r *ProposalRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ProposalStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if res.MatchedCount == 0 {
		return missingOrConflict(ctx, r.coll, id, domain.ErrProposalNotFound)
	}
	return nil
}

// FreezeCompeting freezes the other pending proposals of a request. The ids
// are read first so the caller can notify exactly the crafters whose bids
// were frozen; the update keeps the pending condition so a proposal that
// changed in between is left alone.
func (r *ProposalRepository) FreezeCompeting(ctx context.Context, requestID, acceptedID string) ([]*domain.Proposal, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"request_id": requestID,
		"_id":        bson.M{"$ne": acceptedID},
		"status":     domain.ProposalPending,
	}
	competing, err := findAll[domain.Proposal](ctx, r.coll, filter)
	if err != nil {
		return nil, err
	}
	if len(competing) == 0 {
		return competing, nil
	}

	ids := make([]string, len(competing))
	for i, p := range competing {
		ids[i] = p.ID
	}
	now := time.Now().UTC()
	_, err = r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": domain.ProposalPending},
		bson.M{"$set": bson.M{"status": domain.ProposalFrozen, "updated_at": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("freeze proposals: %w", err)
	}
	for _, p := range competing {
		p.Status = domain.ProposalFrozen
		p.UpdatedAt = now
	}
	return competing, nil
}

func (r *ProposalRepository) DeleteByRequest(ctx context.Context, requestID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return 0, fmt.Errorf("delete proposals: %w", err)
	}
	return res.DeletedCount, nil
}
