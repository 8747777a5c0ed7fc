// Package mongostore is the MongoDB core.Store, the default backend.
//
// Documents are the JSON wire shape with snake_case field names; the
// application id lives in "id" under a unique index, separate from Mongo's
// own _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// Config holds connection settings.
type Config struct {
	URI             string
	Database        string
	Collection      string
	OpTimeout       time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// Store wraps one collection.
type Store struct {
	client    *mongo.Client
	coll      *mongo.Collection
	opTimeout time.Duration
}

var _ core.Store = (*Store)(nil)

// Open connects, pings and makes sure the id index exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	s := &Store{
		client:    client,
		coll:      client.Database(cfg.Database).Collection(cfg.Collection),
		opTimeout: cfg.OpTimeout,
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "species", Value: 1}, {Key: "year", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) Create(ctx context.Context, rec schema.Translocation) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f schema.Filter) ([]schema.Translocation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, filterDoc(f))
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	var out []schema.Translocation
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id string, in schema.TranslocationInput) (schema.Translocation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out schema.Translocation
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "id", Value: id}},
		bson.D{{Key: "$set", Value: in}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return schema.Translocation{}, core.ErrNotFound
	}
	if err != nil {
		return schema.Translocation{}, fmt.Errorf("update: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

type speciesGroup struct {
	Species             schema.Species `bson:"_id"`
	TotalAnimals        int            `bson:"total_animals"`
	TotalTranslocations int            `bson:"total_translocations"`
}

func (s *Store) Stats(ctx context.Context) (schema.Stats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Aggregate(ctx, statsPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	var groups []speciesGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	stats := make(schema.Stats, len(groups))
	for _, g := range groups {
		stats[g.Species] = schema.SpeciesStat{
			TotalAnimals:        g.TotalAnimals,
			TotalTranslocations: g.TotalTranslocations,
		}
	}
	return stats, nil
}

// ReplaceAll deletes then inserts. The two steps are not atomic: a failure
// between them leaves the collection empty, and readers may observe the
// empty state.
func (s *Store) ReplaceAll(ctx context.Context, recs []schema.Translocation) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	docs := make([]interface{}, len(recs))
	for i := range recs {
		docs[i] = recs[i]
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %d records: %w", len(recs), err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// filterDoc builds an equality filter from the set fields of f.
func filterDoc(f schema.Filter) bson.D {
	doc := bson.D{}
	if f.Species != "" {
		doc = append(doc, bson.E{Key: "species", Value: f.Species})
	}
	if f.Year != 0 {
		doc = append(doc, bson.E{Key: "year", Value: f.Year})
	}
	if f.Transport != "" {
		doc = append(doc, bson.E{Key: "transport", Value: f.Transport})
	}
	if f.SpecialProject != schema.SpecialProjectNone {
		doc = append(doc, bson.E{Key: "special_project", Value: f.SpecialProject})
	}
	return doc
}

func statsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$species"},
			{Key: "total_animals", Value: bson.D{{Key: "$sum", Value: "$number_of_animals"}}},
			{Key: "total_translocations", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}
