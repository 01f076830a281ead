// Package mongodb implements the repository interfaces on MongoDB.
//
// Each record type lives in its own collection and is stored as one
// document per natural key, with unique indexes enforcing those keys:
//
//	habits        _id
//	monthhabits   (userId, monthKey)
//	completions   (userId, habitId, monthKey)
//	journals      (userId, date)
//	goals         (userId, month, year)
//	users         githubId (when set), email (local accounts)
//
// Upserts are single-document operations, which MongoDB applies
// atomically. That is all the concurrency control the grid needs: the
// last write to a key wins.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/habit-tracker/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps the client and one handle per collection.
type DB struct {
	client      *mongo.Client
	users       *mongo.Collection
	habits      *mongo.Collection
	snapshots   *mongo.Collection
	completions *mongo.Collection
	journals    *mongo.Collection
	goals       *mongo.Collection
}

// New connects, pings, and makes sure every unique index exists.
func New(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: pinging: %w", err)
	}

	database := client.Database(dbName)
	db := &DB{
		client:      client,
		users:       database.Collection("users"),
		habits:      database.Collection("habits"),
		snapshots:   database.Collection("monthhabits"),
		completions: database.Collection("completions"),
		journals:    database.Collection("journals"),
		goals:       database.Collection("goals"),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

// Close disconnects with a bounded wait so shutdown cannot hang on a
// dead server.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// Ping backs the health check. It asks the primary, which is where every
// write goes.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, readpref.Primary())
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}

	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{db.habits, []mongo.IndexModel{
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
		}},
		{db.snapshots, []mongo.IndexModel{
			unique(bson.D{{Key: "userId", Value: 1}, {Key: "monthKey", Value: 1}}),
		}},
		{db.completions, []mongo.IndexModel{
			unique(bson.D{{Key: "userId", Value: 1}, {Key: "habitId", Value: 1}, {Key: "monthKey", Value: 1}}),
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "monthKey", Value: 1}}},
		}},
		{db.journals, []mongo.IndexModel{
			unique(bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}}),
		}},
		{db.goals, []mongo.IndexModel{
			unique(bson.D{{Key: "userId", Value: 1}, {Key: "month", Value: 1}, {Key: "year", Value: 1}}),
		}},
		{db.users, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "githubId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"githubId": bson.M{"$exists": true}}),
			},
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"passwordHash": bson.M{"$exists": true}}),
			},
		}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("mongodb: creating indexes on %s: %w", s.coll.Name(), err)
		}
	}
	return nil
}
