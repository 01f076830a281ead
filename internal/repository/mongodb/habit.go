package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
)

func (db *DB) CreateHabit(ctx context.Context, habit *model.Habit) error {
	habit.ID = xid.New().String()
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now()
	}
	if _, err := db.habits.InsertOne(ctx, habit); err != nil {
		return fmt.Errorf("mongodb: inserting habit: %w", err)
	}
	return nil
}

func (db *DB) GetHabit(ctx context.Context, userID, id string) (*model.Habit, error) {
	var h model.Habit
	err := db.habits.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&h)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("habit", id)
		}
		return nil, fmt.Errorf("mongodb: getting habit %s: %w", id, err)
	}
	return &h, nil
}

func (db *DB) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := db.habits.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing habits: %w", err)
	}

	habits := []model.Habit{}
	if err := cursor.All(ctx, &habits); err != nil {
		return nil, fmt.Errorf("mongodb: decoding habits: %w", err)
	}
	return habits, nil
}

// DeleteHabit removes the habit, then its completions. The two deletes are
// not transactional (that needs a replica set); a failure between them
// leaves orphaned completions that nothing reads, since every read goes
// through a month's habit list.
func (db *DB) DeleteHabit(ctx context.Context, userID, id string) error {
	res, err := db.habits.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("mongodb: deleting habit %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("habit", id)
	}

	if _, err := db.completions.DeleteMany(ctx, bson.M{"userId": userID, "habitId": id}); err != nil {
		return fmt.Errorf("mongodb: deleting completions of habit %s: %w", id, err)
	}
	return nil
}
