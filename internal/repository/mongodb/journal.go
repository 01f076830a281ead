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

func (db *DB) GetJournalByDate(ctx context.Context, userID, date string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := db.journals.FindOne(ctx, bson.M{"userId": userID, "date": date}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("mongodb: getting journal for %s: %w", date, err)
	}
	return &e, nil
}

func (db *DB) GetJournalByID(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := db.journals.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("journal entry", id)
		}
		return nil, fmt.Errorf("mongodb: getting journal entry %s: %w", id, err)
	}
	return &e, nil
}

func (db *DB) ListJournal(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := db.journals.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing journal: %w", err)
	}

	entries := []model.JournalEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("mongodb: decoding journal: %w", err)
	}
	return entries, nil
}

// UpsertJournal keeps the _id of an existing entry; $setOnInsert only
// assigns one the first time the date is written.
func (db *DB) UpsertJournal(ctx context.Context, entry *model.JournalEntry) error {
	entry.UpdatedAt = time.Now()

	var saved model.JournalEntry
	err := db.journals.FindOneAndUpdate(ctx,
		bson.M{"userId": entry.UserID, "date": entry.Date},
		bson.M{
			"$set":         bson.M{"content": entry.Content, "updatedAt": entry.UpdatedAt},
			"$setOnInsert": bson.M{"_id": xid.New().String()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return fmt.Errorf("mongodb: upserting journal for %s: %w", entry.Date, err)
	}
	entry.ID = saved.ID
	return nil
}
