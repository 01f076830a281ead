package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
)

// Upsert keeps the internal id of a returning GitHub user and refreshes
// the profile fields.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("mongodb: upsert requires a GitHub id")
	}

	var existing model.User
	err := db.users.FindOne(ctx, bson.M{"githubId": user.GitHubID}).Decode(&existing)
	switch {
	case err == nil:
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = time.Now()
		_, err = db.users.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
			"login":     user.Login,
			"email":     user.Email,
			"avatarUrl": user.AvatarURL,
			"updatedAt": user.UpdatedAt,
		}})
		if err != nil {
			return fmt.Errorf("mongodb: updating user %s: %w", user.ID, err)
		}
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("mongodb: looking up user by githubId %d: %w", user.GitHubID, err)
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := db.users.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("mongodb: inserting user (githubID=%d): %w", user.GitHubID, err)
	}
	return nil
}

func (db *DB) CreateLocalUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.GitHubID = 0
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := db.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("mongodb: inserting local user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := db.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongodb: getting user %s: %w", id, err)
	}
	return &u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := db.users.FindOne(ctx, bson.M{
		"email":        email,
		"passwordHash": bson.M{"$exists": true},
	}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("mongodb: getting user by email: %w", err)
	}
	return &u, nil
}
