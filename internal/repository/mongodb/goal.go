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

func (db *DB) GetGoal(ctx context.Context, userID string, month, year int) (*model.Goal, error) {
	var g model.Goal
	err := db.goals.FindOne(ctx, bson.M{"userId": userID, "month": month, "year": year}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongodb: getting goal %d-%02d: %w", year, month, err)
	}
	return &g, nil
}

func (db *DB) UpsertGoal(ctx context.Context, g *model.Goal) error {
	g.UpdatedAt = time.Now()
	_, err := db.goals.UpdateOne(ctx,
		bson.M{"userId": g.UserID, "month": g.Month, "year": g.Year},
		bson.M{"$set": bson.M{
			"goal":       g.Goal,
			"targetDate": g.TargetDate,
			"sacrifices": g.Sacrifices,
			"updatedAt":  g.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongodb: upserting goal %d-%02d: %w", g.Year, g.Month, err)
	}
	return nil
}
