// Package mongostore keeps quizzes and attempts in MongoDB, one document per
// quiz with embedded questions and one document per attempt with embedded
// answers.
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	quizzesCollection  = "quizzes"
	attemptsCollection = "attempts"
)

func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Println("✅ MongoDB connected successfully")
	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes both stores depend on, including the
// partial unique index that allows one in-progress attempt per user and quiz.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(attemptsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "quiz_id", Value: 1}},
			Options: options.Index().
				SetName("idx_attempts_active").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "in_progress"}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create attempt indexes: %w", err)
	}

	_, err = db.Collection(quizzesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_published", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create quiz indexes: %w", err)
	}

	log.Println("✅ MongoDB indexes ensured")
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q in document: %w", raw, err)
	}
	return id, nil
}

func skip(page, limit int) int64 {
	return int64((page - 1) * limit)
}
