package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/habit-tracker/internal/model"
)

func (db *DB) GetSnapshot(ctx context.Context, userID, monthKey string) (*model.MonthSnapshot, error) {
	return db.findSnapshot(ctx, bson.M{"userId": userID, "monthKey": monthKey})
}

func (db *DB) HasAnySnapshot(ctx context.Context, userID string) (bool, error) {
	n, err := db.snapshots.CountDocuments(ctx, bson.M{"userId": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongodb: counting snapshots: %w", err)
	}
	return n > 0, nil
}

// LatestSnapshotBefore matches "habits.0" so months whose list is empty are
// skipped without being loaded.
func (db *DB) LatestSnapshotBefore(ctx context.Context, userID, monthKey string) (*model.MonthSnapshot, error) {
	filter := bson.M{
		"userId":   userID,
		"monthKey": bson.M{"$lt": monthKey},
		"habits.0": bson.M{"$exists": true},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "monthKey", Value: -1}})
	return db.findSnapshot(ctx, filter, opts)
}

func (db *DB) findSnapshot(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.MonthSnapshot, error) {
	var snap model.MonthSnapshot
	err := db.snapshots.FindOne(ctx, filter, opts...).Decode(&snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongodb: finding snapshot: %w", err)
	}
	if snap.Habits == nil {
		snap.Habits = []model.MonthHabit{}
	}
	return &snap, nil
}

func (db *DB) SaveSnapshot(ctx context.Context, snap *model.MonthSnapshot) error {
	if snap.Habits == nil {
		snap.Habits = []model.MonthHabit{}
	}
	snap.UpdatedAt = time.Now()

	_, err := db.snapshots.UpdateOne(ctx,
		bson.M{"userId": snap.UserID, "monthKey": snap.MonthKey},
		bson.M{"$set": bson.M{"habits": snap.Habits, "updatedAt": snap.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb: saving snapshot %s: %w", snap.MonthKey, err)
	}
	return nil
}

func (db *DB) AppendSnapshotHabit(ctx context.Context, userID, monthKey string, habit model.MonthHabit) error {
	_, err := db.snapshots.UpdateOne(ctx,
		bson.M{"userId": userID, "monthKey": monthKey},
		bson.M{
			"$push": bson.M{"habits": habit},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb: appending to snapshot %s: %w", monthKey, err)
	}
	return nil
}

// RemoveSnapshotHabit has no upsert: pulling from a month that has no
// snapshot must not create one.
func (db *DB) RemoveSnapshotHabit(ctx context.Context, userID, monthKey, habitID string) error {
	_, err := db.snapshots.UpdateOne(ctx,
		bson.M{"userId": userID, "monthKey": monthKey},
		bson.M{
			"$pull": bson.M{"habits": bson.M{"habitId": habitID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("mongodb: removing from snapshot %s: %w", monthKey, err)
	}
	return nil
}
