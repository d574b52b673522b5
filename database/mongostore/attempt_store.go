package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/anjiri1684/quizmaster/utils"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxVersionRetries bounds re-reads after losing an optimistic update. Driver
// errors are never retried.
const maxVersionRetries = 5

var errConcurrentUpdate = errors.New("attempt kept changing concurrently, giving up")

type answerDocument struct {
	ID             string    `bson:"id"`
	QuestionID     string    `bson:"question_id"`
	SelectedAnswer string    `bson:"selected_answer"`
	IsCorrect      bool      `bson:"is_correct"`
	TimeSpent      int       `bson:"time_spent"`
	AnsweredAt     time.Time `bson:"answered_at"`
}

type attemptDocument struct {
	ID         string           `bson:"_id"`
	UserID     string           `bson:"user_id"`
	QuizID     string           `bson:"quiz_id"`
	Status     string           `bson:"status"`
	Answers    []answerDocument `bson:"answers"`
	StartTime  time.Time        `bson:"start_time"`
	EndTime    *time.Time       `bson:"end_time,omitempty"`
	TimeSpent  *int             `bson:"time_spent,omitempty"`
	Score      *int             `bson:"score,omitempty"`
	Percentage *int             `bson:"percentage,omitempty"`
	Passed     *bool            `bson:"passed,omitempty"`
	Version    int64            `bson:"version"`
	UpdatedAt  time.Time        `bson:"updated_at"`
}

func (d *answerDocument) model(attemptID uuid.UUID) (*models.AttemptAnswer, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	questionID, err := parseID(d.QuestionID)
	if err != nil {
		return nil, err
	}
	return &models.AttemptAnswer{
		ID:             id,
		AttemptID:      attemptID,
		QuestionID:     questionID,
		SelectedAnswer: d.SelectedAnswer,
		IsCorrect:      d.IsCorrect,
		TimeSpent:      d.TimeSpent,
		AnsweredAt:     d.AnsweredAt,
	}, nil
}

func (d *attemptDocument) model() (*models.Attempt, error) {
	id, err := parseID(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(d.UserID)
	if err != nil {
		return nil, err
	}
	quizID, err := parseID(d.QuizID)
	if err != nil {
		return nil, err
	}
	attempt := &models.Attempt{
		ID:         id,
		UserID:     userID,
		QuizID:     quizID,
		Status:     models.AttemptStatus(d.Status),
		Answers:    make([]*models.AttemptAnswer, 0, len(d.Answers)),
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
		TimeSpent:  d.TimeSpent,
		Score:      d.Score,
		Percentage: d.Percentage,
		Passed:     d.Passed,
		UpdatedAt:  d.UpdatedAt,
	}
	for i := range d.Answers {
		answer, err := d.Answers[i].model(id)
		if err != nil {
			return nil, err
		}
		attempt.Answers = append(attempt.Answers, answer)
	}
	return attempt, nil
}

type AttemptStore struct {
	Col *mongo.Collection
	now func() time.Time
}

func NewAttemptStore(db *mongo.Database) *AttemptStore {
	return &AttemptStore{Col: db.Collection(attemptsCollection), now: time.Now}
}

func (r *AttemptStore) CreateActive(ctx context.Context, attempt *models.Attempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	attempt.Status = models.AttemptInProgress
	attempt.UpdatedAt = r.now().UTC()
	if attempt.Answers == nil {
		attempt.Answers = []*models.AttemptAnswer{}
	}

	_, err := r.Col.InsertOne(ctx, attemptDocument{
		ID:        attempt.ID.String(),
		UserID:    attempt.UserID.String(),
		QuizID:    attempt.QuizID.String(),
		Status:    string(models.AttemptInProgress),
		Answers:   []answerDocument{},
		StartTime: attempt.StartTime,
		UpdatedAt: attempt.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrActiveAttemptExists
	}
	return err
}

func (r *AttemptStore) findDocument(ctx context.Context, filter bson.M) (*attemptDocument, error) {
	var doc attemptDocument
	err := r.Col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *AttemptStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error) {
	doc, err := r.findDocument(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, err
	}
	return doc.model()
}

func (r *AttemptStore) FindActive(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error) {
	doc, err := r.findDocument(ctx, bson.M{
		"user_id": userID.String(),
		"quiz_id": quizID.String(),
		"status":  string(models.AttemptInProgress),
	})
	if err != nil {
		return nil, err
	}
	return doc.model()
}

// UpsertAnswer first tries to overwrite an existing answer in place, then to
// append a new one. Both writes are single-document atomic and only match
// while the attempt is in progress. If neither matches, the attempt is
// re-read to tell a finished attempt from a concurrent append of the same
// question.
func (r *AttemptStore) UpsertAnswer(ctx context.Context, attemptID uuid.UUID, answer *models.AttemptAnswer) (*models.AttemptAnswer, error) {
	id := attemptID.String()
	questionID := answer.QuestionID.String()
	active := string(models.AttemptInProgress)

	for try := 0; try < maxVersionRetries; try++ {
		now := r.now().UTC()

		res, err := r.Col.UpdateOne(ctx,
			bson.M{"_id": id, "status": active, "answers.question_id": questionID},
			bson.M{
				"$set": bson.M{
					"answers.$.selected_answer": answer.SelectedAnswer,
					"answers.$.is_correct":      answer.IsCorrect,
					"answers.$.time_spent":      answer.TimeSpent,
					"answers.$.answered_at":     answer.AnsweredAt,
					"updated_at":                now,
				},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return r.storedAnswer(ctx, attemptID, answer.QuestionID)
		}

		res, err = r.Col.UpdateOne(ctx,
			bson.M{"_id": id, "status": active, "answers.question_id": bson.M{"$ne": questionID}},
			bson.M{
				"$push": bson.M{"answers": answerDocument{
					ID:             uuid.NewString(),
					QuestionID:     questionID,
					SelectedAnswer: answer.SelectedAnswer,
					IsCorrect:      answer.IsCorrect,
					TimeSpent:      answer.TimeSpent,
					AnsweredAt:     answer.AnsweredAt,
				}},
				"$set": bson.M{"updated_at": now},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return r.storedAnswer(ctx, attemptID, answer.QuestionID)
		}

		doc, err := r.findDocument(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if doc.Status != active {
			return nil, models.ErrAttemptNotActive
		}
	}
	return nil, errConcurrentUpdate
}

func (r *AttemptStore) storedAnswer(ctx context.Context, attemptID, questionID uuid.UUID) (*models.AttemptAnswer, error) {
	attempt, err := r.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	stored, ok := attempt.Answer(questionID)
	if !ok {
		return nil, fmt.Errorf("answer for question %s missing after write", questionID)
	}
	return stored, nil
}

// Complete applies finalize to a snapshot of the attempt and writes it back
// only if nobody changed the attempt since the snapshot was read.
func (r *AttemptStore) Complete(ctx context.Context, attemptID uuid.UUID, finalize func(*models.Attempt)) (*models.Attempt, error) {
	id := attemptID.String()
	for try := 0; try < maxVersionRetries; try++ {
		doc, err := r.findDocument(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if doc.Status != string(models.AttemptInProgress) {
			return nil, models.ErrAttemptNotActive
		}

		attempt, err := doc.model()
		if err != nil {
			return nil, err
		}
		finalize(attempt)
		if !attempt.Status.Terminal() {
			return nil, errors.New("finalize must move the attempt to a terminal status")
		}
		attempt.UpdatedAt = r.now().UTC()

		res, err := r.Col.UpdateOne(ctx,
			bson.M{"_id": id, "status": string(models.AttemptInProgress), "version": doc.Version},
			bson.M{
				"$set": bson.M{
					"status":     string(attempt.Status),
					"end_time":   attempt.EndTime,
					"time_spent": attempt.TimeSpent,
					"score":      attempt.Score,
					"percentage": attempt.Percentage,
					"passed":     attempt.Passed,
					"updated_at": attempt.UpdatedAt,
				},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return attempt, nil
		}
	}
	return nil, errConcurrentUpdate
}

func attemptQuery(filter models.AttemptFilter) bson.M {
	query := bson.M{}
	if filter.UserID != nil {
		query["user_id"] = filter.UserID.String()
	}
	if filter.QuizID != nil {
		query["quiz_id"] = filter.QuizID.String()
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	return query
}

func (r *AttemptStore) findMany(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Attempt, error) {
	cursor, err := r.Col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []attemptDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	attempts := make([]models.Attempt, 0, len(docs))
	for i := range docs {
		attempt, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *attempt)
	}
	return attempts, nil
}

func (r *AttemptStore) List(ctx context.Context, filter models.AttemptFilter) ([]models.Attempt, int64, error) {
	query := attemptQuery(filter)
	total, err := r.Col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	page, limit := utils.NormalizePage(filter.Page, filter.Limit)
	attempts, err := r.findMany(ctx, query, options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetSkip(skip(page, limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (r *AttemptStore) Stats(ctx context.Context, userID uuid.UUID) (models.AttemptStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID.String(), "status": string(models.AttemptCompleted)}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"completed": bson.M{"$sum": 1},
			"passed":    bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$passed", true}}, 1, 0}}},
			"perfect":   bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$percentage", 100}}, 1, 0}}},
			"average":   bson.M{"$avg": "$percentage"},
		}}},
	}

	var stats models.AttemptStats
	cursor, err := r.Col.Aggregate(ctx, pipeline)
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Completed int64    `bson:"completed"`
		Passed    int64    `bson:"passed"`
		Perfect   int64    `bson:"perfect"`
		Average   *float64 `bson:"average"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return stats, err
	}
	if len(rows) == 0 {
		return stats, nil
	}
	stats.Completed = rows[0].Completed
	stats.Passed = rows[0].Passed
	stats.Perfect = rows[0].Perfect
	if rows[0].Average != nil {
		stats.AveragePercentage = *rows[0].Average
	}
	return stats, nil
}

func (r *AttemptStore) ExpireStale(ctx context.Context, before time.Time, status models.AttemptStatus) (int64, error) {
	now := r.now().UTC()
	res, err := r.Col.UpdateMany(ctx,
		bson.M{"status": string(models.AttemptInProgress), "start_time": bson.M{"$lt": before}},
		bson.M{
			"$set": bson.M{"status": string(status), "end_time": now, "updated_at": now},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *AttemptStore) ListInProgressStartedBetween(ctx context.Context, from, to time.Time) ([]models.Attempt, error) {
	return r.findMany(ctx, bson.M{
		"status":     string(models.AttemptInProgress),
		"start_time": bson.M{"$gte": from, "$lt": to},
	}, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}
