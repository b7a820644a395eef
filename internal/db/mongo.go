package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bill_spider/internal/config"
	"bill_spider/internal/members"
	"bill_spider/internal/models"
)

type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	bills    *mongo.Collection
	members  *mongo.Collection
}

// Query selects bills. Zero fields do not filter.
type Query struct {
	HasText      *bool
	UpdatedSince time.Time
	Limit        int64
}

func NewMongoDB(cfg config.DBConfig) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Connection))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)

	d := &MongoDB{
		client:   client,
		database: db,
		bills:    db.Collection(cfg.Collections.Bills),
		members:  db.Collection(cfg.Collections.Members),
	}

	d.createIndexes(ctx)
	return d, nil
}

func (d *MongoDB) createIndexes(ctx context.Context) {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "path", Value: 1}}},
		{Keys: bson.D{{Key: "has_text", Value: 1}}},
		{Keys: bson.D{{Key: "last_updated", Value: 1}}},
	}
	if _, err := d.bills.Indexes().CreateMany(ctx, models); err != nil {
		log.Warn().Err(err).Msg("can't create bill indexes")
	}

	_, err := d.members.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	if err != nil {
		log.Warn().Err(err).Msg("can't create member index")
	}
}

func (d *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// SaveBill upserts the bill by id and stamps last_updated.
func (d *MongoDB) SaveBill(ctx context.Context, bill *models.Bill) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	bill.SetHTML(bill.HTML)
	bill.LastUpdated = time.Now().UTC()

	set, err := billUpdate(bill)
	if err != nil {
		return err
	}
	opts := options.Update().SetUpsert(true)
	_, err = d.bills.UpdateOne(ctx, bson.M{"_id": bill.ID}, bson.M{"$set": set}, opts)
	if err != nil {
		return fmt.Errorf("save bill %s: %w", bill.ID, err)
	}
	return nil
}

func billUpdate(bill *models.Bill) (bson.M, error) {
	data, err := bson.Marshal(bill)
	if err != nil {
		return nil, fmt.Errorf("marshal bill: %w", err)
	}
	var set bson.M
	if err := bson.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("unmarshal bill: %w", err)
	}
	delete(set, "_id")
	return set, nil
}

func buildFilter(q Query) bson.M {
	filter := bson.M{}
	if q.HasText != nil {
		filter["has_text"] = *q.HasText
	}
	if !q.UpdatedSince.IsZero() {
		filter["last_updated"] = bson.M{"$gte": q.UpdatedSince}
	}
	return filter
}

func (d *MongoDB) GetBills(ctx context.Context, q Query) ([]models.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := d.bills.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("find bills: %w", err)
	}
	defer cursor.Close(ctx)

	var bills []models.Bill
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// GetBillByPath returns nil, nil when no bill has the path.
func (d *MongoDB) GetBillByPath(ctx context.Context, path string) (*models.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var bill models.Bill
	err := d.bills.FindOne(ctx, bson.M{"path": path}).Decode(&bill)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// Resolve looks sponsor names up in the members collection. Unknown names
// are stored as placeholder members so later runs reuse the same id.
func (d *MongoDB) Resolve(ctx context.Context, names []string) ([]models.MemberRef, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	refs := make([]models.MemberRef, 0, len(names))
	for _, name := range names {
		var ref models.MemberRef
		err := d.members.FindOne(ctx, bson.M{"name": name}).Decode(&ref)
		if err == nil {
			refs = append(refs, ref)
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find member %q: %w", name, err)
		}

		ref = placeholderMember(name, time.Now())
		opts := options.Update().SetUpsert(true)
		_, err = d.members.UpdateOne(ctx, bson.M{"_id": ref.ID}, bson.M{"$setOnInsert": ref}, opts)
		if err != nil {
			return nil, fmt.Errorf("save member %q: %w", name, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func placeholderMember(name string, now time.Time) models.MemberRef {
	id := members.PlaceholderID(name)
	return models.MemberRef{
		ID:          id,
		Name:        name,
		Path:        members.Path(id, name),
		LastUpdated: now.Unix(),
	}
}
