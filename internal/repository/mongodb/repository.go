// Package mongodb implements the remote store contract over a keyed
// document collection. One document exists per (site, date); writes are
// last-write-wins replacements.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/katwe/bakeledger/internal/domain/models"
)

// Repository is the MongoDB-backed remote store.
type Repository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

type recordDoc struct {
	SiteID    string    `bson:"site_id"`
	Date      string    `bson:"date"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{
		client:   client,
		dbName:   dbName,
		collName: "daily_records",
	}, nil
}

func (r *Repository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// GetByKey fetches the encoded record for the exact (site, date) key.
// A missing document returns (nil, nil).
func (r *Repository) GetByKey(ctx context.Context, siteID, date string) ([]byte, error) {
	var doc recordDoc
	err := r.collection().FindOne(ctx, bson.M{"site_id": siteID, "date": date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find daily record %s/%s: %w", siteID, date, err)
	}
	return []byte(doc.Payload), nil
}

// Upsert replaces the document for (site, date), inserting when absent.
func (r *Repository) Upsert(ctx context.Context, siteID, date string, payload []byte) error {
	doc := recordDoc{
		SiteID:    siteID,
		Date:      date,
		Payload:   string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := r.collection().ReplaceOne(ctx,
		bson.M{"site_id": siteID, "date": date},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert daily record %s/%s: %w", siteID, date, err)
	}
	return nil
}

// QueryRange returns every stored document for the site between startDate
// and endDate inclusive, newest first.
func (r *Repository) QueryRange(ctx context.Context, siteID, startDate, endDate string) ([]models.StoredDoc, error) {
	filter := bson.M{
		"site_id": siteID,
		"date":    bson.M{"$gte": startDate, "$lte": endDate},
	}
	cursor, err := r.collection().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query daily records %s [%s..%s]: %w", siteID, startDate, endDate, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []models.StoredDoc
	for cursor.Next(ctx) {
		var doc recordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode range document: %w", err)
		}
		docs = append(docs, models.StoredDoc{Date: doc.Date, Payload: []byte(doc.Payload)})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate range cursor: %w", err)
	}
	return docs, nil
}

// Close disconnects the underlying client.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
