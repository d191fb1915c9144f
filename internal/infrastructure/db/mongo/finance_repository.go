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

// FinanceRepository implements ports.FinanceRepository using MongoDB. Each
// document is keyed by its period and only ever changes through $inc.
type FinanceRepository struct {
	coll *mongo.Collection
}

func NewFinanceRepository(db *mongo.Database) *FinanceRepository {
	return &FinanceRepository{coll: db.Collection(collFinances)}
}

func (r *FinanceRepository) Apply(ctx context.Context, period string, t domain.TransactionType, amount float64, count int64, currency string) error {
	field := string(domain.BucketOf(t))
	now := time.Now().UTC()
	update := bson.M{
		"$inc": bson.M{
			field:                amount,
			"total_revenue":      amount,
			"total_transactions": count,
		},
		"$set":         bson.M{"last_updated": now},
		"$setOnInsert": bson.M{"currency": currency, "created_at": now},
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": period}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("apply finances %s: %w", period, err)
	}
	return nil
}

func (r *FinanceRepository) Get(ctx context.Context, period string) (*domain.CompanyFinances, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var f domain.CompanyFinances
	if err := r.coll.FindOne(ctx, bson.M{"_id": period}).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.CompanyFinances{Period: period, Currency: domain.DefaultCurrency}, nil
		}
		return nil, fmt.Errorf("find finances %s: %w", period, err)
	}
	return &f, nil
}

// Total sums every period into a single all-time record.
func (r *FinanceRepository) Total(ctx context.Context) (*domain.CompanyFinances, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	group := bson.D{{Key: "_id", Value: nil}}
	fields := []string{"total_revenue", "total_transactions"}
	for _, b := range domain.RevenueBuckets {
		fields = append(fields, string(b))
	}
	for _, field := range fields {
		group = append(group, bson.E{Key: field, Value: bson.D{{Key: "$sum", Value: "$" + field}}})
	}
	group = append(group,
		bson.E{Key: "created_at", Value: bson.D{{Key: "$min", Value: "$created_at"}}},
		bson.E{Key: "last_updated", Value: bson.D{{Key: "$max", Value: "$last_updated"}}},
	)

	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{{{Key: "$group", Value: group}}})
	if err != nil {
		return nil, fmt.Errorf("total finances: %w", err)
	}
	var out []domain.CompanyFinances
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode total finances: %w", err)
	}

	total := &domain.CompanyFinances{}
	if len(out) > 0 {
		total = &out[0]
	}
	total.Period = domain.PeriodAllTime
	total.Currency = domain.DefaultCurrency
	return total, nil
}

func (r *FinanceRepository) Range(ctx context.Context, from, to string) ([]*domain.CompanyFinances, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$gte": from, "$lte": to}}
	return findAll[domain.CompanyFinances](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *FinanceRepository) Recent(ctx context.Context, n int) ([]*domain.CompanyFinances, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(n))
	return findAll[domain.CompanyFinances](ctx, r.coll, bson.M{}, opts)
}

const revenueRulesID = "financial_settings"

// settingsDoc is the single platform settings document. Revenue rules sit
// under their own key so other settings can share the document.
type settingsDoc struct {
	ID           string              `bson:"_id"`
	RevenueRules domain.RevenueRules `bson:"revenue_rules"`
}

// SettingsRepository implements ports.SettingsRepository using MongoDB.
type SettingsRepository struct {
	coll *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{coll: db.Collection(collSettings)}
}

func (r *SettingsRepository) RevenueRules(ctx context.Context) (*domain.RevenueRules, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc settingsDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": revenueRulesID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("find settings: %w", err)
	}
	return &doc.RevenueRules, nil
}

func (r *SettingsRepository) SaveRevenueRules(ctx context.Context, rules domain.RevenueRules) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"revenue_rules": rules}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": revenueRulesID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
