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
	"github.com/sakif/habit-tracker/internal/tracker"
)

func (db *DB) ListCompletions(ctx context.Context, userID, monthKey string) (map[string]model.Completion, error) {
	cursor, err := db.completions.Find(ctx, bson.M{"userId": userID, "monthKey": monthKey})
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing completions for %s: %w", monthKey, err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]model.Completion)
	for cursor.Next(ctx) {
		var c model.Completion
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("mongodb: decoding completion: %w", err)
		}
		out[c.HabitID] = tracker.Normalize(c)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongodb: iterating completions: %w", err)
	}
	return out, nil
}

func (db *DB) GetCompletion(ctx context.Context, userID, habitID, monthKey string) (*model.Completion, error) {
	c := model.Completion{UserID: userID, HabitID: habitID, MonthKey: monthKey}
	err := db.completions.FindOne(ctx,
		bson.M{"userId": userID, "habitId": habitID, "monthKey": monthKey},
	).Decode(&c)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongodb: getting completion %s/%s: %w", habitID, monthKey, err)
	}
	c = tracker.Normalize(c)
	return &c, nil
}

// UpsertCompletion sets both arrays in one $set on one document.
func (db *DB) UpsertCompletion(ctx context.Context, c *model.Completion) error {
	c.UpdatedAt = time.Now()
	days, crossed := c.Days, c.CrossedDays
	if days == nil {
		days = []int{}
	}
	if crossed == nil {
		crossed = []int{}
	}

	_, err := db.completions.UpdateOne(ctx,
		bson.M{"userId": c.UserID, "habitId": c.HabitID, "monthKey": c.MonthKey},
		bson.M{"$set": bson.M{"days": days, "crossedDays": crossed, "updatedAt": c.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb: upserting completion %s/%s: %w", c.HabitID, c.MonthKey, err)
	}
	return nil
}
